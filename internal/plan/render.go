package plan

import (
	"fmt"
	"strings"
)

// Render formats a plan for terminal output, one line per change plus a
// summary. No-ops are listed only when verbose is set.
func Render(p *Plan, verbose bool) string {
	var sb strings.Builder

	for _, c := range p.Changes {
		if c.Action == NoOp && !verbose {
			continue
		}
		fmt.Fprintf(&sb, "%s %s (%s)\n", c.Action.Symbol(), c.Node.ID, c.Action)
		for _, d := range c.Diff {
			fmt.Fprintf(&sb, "    %s: %v -> %v\n", strings.Join(d.Path, "."), d.From, d.To)
		}
		if c.Action == Update && len(c.Diff) == 0 && c.Reason != "" {
			fmt.Fprintf(&sb, "    (%s)\n", c.Reason)
		}
	}

	create, update, del, noop := p.Counts()
	fmt.Fprintf(&sb, "\nPlan: %d to create, %d to update, %d to delete, %d unchanged.\n",
		create, update, del, noop)
	return sb.String()
}
