// Package display holds the pure rendering decisions the engine makes for
// list and card views: which columns survive the current viewport, and which
// single column summarizes a row.
package display

import "github.com/matthewbaird/viewcore/internal/model"

// Breakpoint is the coarse viewport class the client reports.
type Breakpoint string

const (
	BreakpointMobile  Breakpoint = "mobile"
	BreakpointTablet  Breakpoint = "tablet"
	BreakpointDesktop Breakpoint = "desktop"
)

// maxPriority returns the largest column priority the breakpoint shows.
// Mobile keeps only always-shown columns; tablet drops the two lowest ranks;
// desktop keeps everything.
func maxPriority(bp Breakpoint) int {
	switch bp {
	case BreakpointMobile:
		return 1
	case BreakpointTablet:
		return 3
	default:
		return 5
	}
}

// VisibleColumns computes the columns shown in the summary list for the given
// breakpoint and user-toggled key set. A nil toggled set means "all columns".
//
// The result is the intersection of the toggle set and the breakpoint budget:
// toggling can only hide further, it never reveals a column the breakpoint
// already dropped. Expanded-only columns never appear in the summary list.
// The function is pure; callers recompute only when breakpoint or toggles
// change.
func VisibleColumns(columns []model.Column, bp Breakpoint, toggled map[string]bool) []model.Column {
	budget := maxPriority(bp)
	var out []model.Column
	for _, c := range columns {
		if c.ExpandedOnly {
			continue
		}
		if toggled != nil && !toggled[c.Key] {
			continue
		}
		p := c.Priority
		if p < 1 {
			p = 1
		}
		if p > budget {
			continue
		}
		out = append(out, c)
	}
	return out
}
