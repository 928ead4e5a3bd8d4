// Package cli defines the cobra command tree for the headless huddle client.
package cli

import (
	"net/url"
	"strings"

	"github.com/dkeye/Huddle/internal/config"
	"github.com/spf13/cobra"
)

var (
	flagFormat string
	flagServer string
)

// NewRootCmd creates the root cobra command with global flags.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "huddle",
		Short:         "Headless group call client",
		Long:          "Join Huddle calls with synthetic devices, record them locally and browse groups.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&flagFormat, "format", "text", "output format (text|json)")
	root.PersistentFlags().StringVar(&flagServer, "server", "", "server base URL (default: client.server_url from config)")

	root.AddCommand(
		newCallCmd(),
		newListenCmd(),
		newGroupsCmd(),
	)

	return root
}

func isJSON() bool {
	return flagFormat == "json"
}

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	if flagServer != "" {
		cfg.Client.ServerURL = flagServer
	}
	return cfg, nil
}

// signalURL maps the server base URL to its WebSocket signaling endpoint.
func signalURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path += "/api/ws/signal"
	return u.String(), nil
}
