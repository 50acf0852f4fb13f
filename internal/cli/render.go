// ABOUTME: Terminal rendering of status, tear outcomes and history
// ABOUTME: Colors follow the result modifier: void, temporal or standard

package cli

import (
	"fmt"
	"io"

	"github.com/fatih/color"

	"github.com/2389/wen/internal/ritual"
	"github.com/2389/wen/internal/scroll"
)

var (
	gray    = color.New(color.FgHiBlack)
	cyan    = color.New(color.FgCyan)
	green   = color.New(color.FgGreen)
	yellow  = color.New(color.FgYellow)
	magenta = color.New(color.FgMagenta)
	bold    = color.New(color.Bold)
)

func styleFor(k scroll.Kind) *color.Color {
	switch k.Modifier() {
	case "result--void":
		return color.New(color.FgHiBlack)
	case "result--temporal":
		return color.New(color.FgMagenta)
	default:
		return color.New(color.FgGreen)
	}
}

func classColor(c scroll.EntryClass) *color.Color {
	switch c {
	case scroll.EntryEmpty:
		return gray
	case scroll.EntryUnchanged:
		return magenta
	default:
		return green
	}
}

func renderStatus(w io.Writer, phase ritual.Phase, s scroll.UserState) {
	fmt.Fprintf(w, "  %s %s\n", gray.Sprint("identity"), bold.Sprint(s.Identity))
	fmt.Fprintf(w, "  %s      %d\n", gray.Sprint("day"), s.CurrentDay)
	fmt.Fprintf(w, "  %s   %d\n", gray.Sprint("streak"), s.Streak)
	fmt.Fprintf(w, "  %s  %d\n", gray.Sprint("entries"), s.TotalEntries)
	fmt.Fprintf(w, "  %s    %d %s\n", gray.Sprint("level"), s.CultivationLevel, cyan.Sprintf("(%s)", scroll.LevelLabel(s.CultivationLevel)))

	switch {
	case phase == ritual.PhaseTorn && s.LastResult != nil:
		fmt.Fprintf(w, "  %s   torn: %s\n", gray.Sprint("scroll"), styleFor(s.LastResult.Kind).Sprint(s.LastResult.Display))
	case phase == ritual.PhaseTorn:
		fmt.Fprintf(w, "  %s   torn\n", gray.Sprint("scroll"))
	default:
		fmt.Fprintf(w, "  %s   %s\n", gray.Sprint("scroll"), phase)
	}
}

func renderTear(w io.Writer, res ritual.TearResult) {
	switch res.Outcome {
	case ritual.TearCommitted:
		fmt.Fprintf(w, "  %s\n", styleFor(res.Result.Kind).Add(color.Bold).Sprint(res.Result.Display))
		fmt.Fprintf(w, "  %s\n", gray.Sprintf("day %d, %d entries, level %d", res.State.CurrentDay, res.State.TotalEntries, res.State.CultivationLevel))
		if res.Milestone != "" {
			fmt.Fprintf(w, "  %s\n", yellow.Sprintf("milestone: %s", res.Milestone))
		}
	case ritual.TearRejected:
		if res.Result.Display != "" {
			fmt.Fprintf(w, "  already torn today: %s\n", styleFor(res.Result.Kind).Sprint(res.Result.Display))
		} else {
			fmt.Fprintln(w, "  already torn today")
		}
	case ritual.TearSnapBack:
		fmt.Fprintf(w, "  the scroll snaps back %s\n", gray.Sprintf("(drag past %.0f)", scroll.TearThreshold))
	default:
		fmt.Fprintln(w, "  nothing happened")
	}
}

func renderHistory(w io.Writer, entries []scroll.Entry) {
	if len(entries) == 0 {
		fmt.Fprintln(w, "  no entries yet")
		return
	}

	fmt.Fprintln(w, gray.Sprintf("  %-5s %-10s %5s  %s", "day", "class", "value", "date"))
	for _, e := range entries {
		fmt.Fprintf(w, "  %-5d %s %5d  %s\n",
			e.Day,
			classColor(e.EntryClass).Sprintf("%-10s", e.EntryClass),
			e.NumericValue,
			e.CreatedAt.UTC().Format("2006-01-02"),
		)
	}
}
