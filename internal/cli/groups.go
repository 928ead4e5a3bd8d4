package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/dkeye/Huddle/internal/adapters/groupsapi"
	"github.com/dkeye/Huddle/internal/app/groups"
	"github.com/dkeye/Huddle/internal/domain"
	"github.com/spf13/cobra"
)

func newGroupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "groups [query]",
		Short: "List groups, optionally filtered by name",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := newCatalog()
			if err != nil {
				return err
			}
			if err := catalog.Refresh(cmd.Context()); err != nil {
				return err
			}
			query := ""
			if len(args) == 1 {
				query = args[0]
			}
			found := catalog.Search(query)

			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, found)
			}
			if len(found) == 0 {
				fmt.Fprintln(out, "No groups found.")
				return nil
			}
			printGroupTable(out, found)
			return nil
		},
	}

	cmd.AddCommand(newGroupsCreateCmd())
	return cmd
}

func newGroupsCreateCmd() *cobra.Command {
	var (
		name    string
		members string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a group",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			catalog, err := newCatalog()
			if err != nil {
				return err
			}
			g, err := catalog.Create(cmd.Context(), name, domain.SplitMembers(members))
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if isJSON() {
				return printJSON(out, g)
			}
			fmt.Fprintf(out, "Created group %q with %d members\n", g.Name, g.MemberCount())
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "group name")
	cmd.Flags().StringVar(&members, "members", "", "comma separated member list")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newCatalog() (*groups.Catalog, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return groups.NewCatalog(groupsapi.New(cfg.Client.ServerURL)), nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func printGroupTable(w io.Writer, gs []domain.Group) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "NAME\tMEMBERS")
	for _, g := range gs {
		fmt.Fprintf(tw, "%s\t%s\n", g.Name, strings.Join(g.Members, ", "))
	}
	_ = tw.Flush()
}
