package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

// walkCommands calls fn for root and every command beneath it, depth-first.
func walkCommands(root *cobra.Command, fn func(*cobra.Command)) {
	fn(root)
	for _, child := range root.Commands() {
		walkCommands(child, fn)
	}
}

// enrichParentLong rewrites a parent command's Long description to end with
// the current list of visible subcommands, so the text never goes stale as
// commands come and go.
func enrichParentLong(parent *cobra.Command) {
	children := parent.Commands()
	if len(children) == 0 {
		return
	}

	lines := []string{parent.Long, "", "Subcommands:"}
	for _, child := range children {
		if !child.IsAvailableCommand() {
			continue
		}
		lines = append(lines, fmt.Sprintf("  %-16s %s", child.Name(), child.Short))
	}
	parent.Long = strings.Join(lines, "\n") + "\n"
}
