package domain

import (
	"fmt"
	"strings"
)

// Group is owned by the group directory service; the core only reads it.
type Group struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// SplitMembers turns the comma separated invite field into a member list.
// Blank entries are dropped and surrounding spaces trimmed.
func SplitMembers(csv string) []string {
	parts := strings.Split(csv, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if m := strings.TrimSpace(p); m != "" {
			out = append(out, m)
		}
	}
	return out
}

func NewGroup(name string, members []string) (Group, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Group{}, fmt.Errorf("%w: name required", ErrInvalidGroup)
	}
	clean := make([]string, 0, len(members))
	for _, m := range members {
		if m = strings.TrimSpace(m); m != "" {
			clean = append(clean, m)
		}
	}
	if len(clean) == 0 {
		return Group{}, fmt.Errorf("%w: members required", ErrInvalidGroup)
	}
	return Group{Name: name, Members: clean}, nil
}

func (g Group) MemberCount() int { return len(g.Members) }
