package iterative

import (
	"fmt"
	"strings"

	"github.com/hexops/gotextdiff"
	"github.com/hexops/gotextdiff/myers"
	"github.com/hexops/gotextdiff/span"
)

// Diff returns a unified diff from before to after, or "" when they are equal.
func Diff(fromLabel, toLabel, before, after string) string {
	if before == after {
		return ""
	}
	before, after = ensureNewline(before), ensureNewline(after)
	edits := myers.ComputeEdits(span.URIFromPath(fromLabel), before, after)
	return fmt.Sprint(gotextdiff.ToUnified(fromLabel, toLabel, before, edits))
}

// DiffStats counts inserted and deleted lines between two versions.
type DiffStats struct {
	Inserted int
	Deleted  int
}

// Changed returns inserted plus deleted lines.
func (d DiffStats) Changed() int {
	return d.Inserted + d.Deleted
}

// ComputeDiffStats diffs before and after line by line.
func ComputeDiffStats(before, after string) DiffStats {
	var stats DiffStats
	if before == after {
		return stats
	}
	before, after = ensureNewline(before), ensureNewline(after)
	edits := myers.ComputeEdits(span.URIFromPath("before"), before, after)
	unified := gotextdiff.ToUnified("before", "after", before, edits)
	for _, hunk := range unified.Hunks {
		for _, line := range hunk.Lines {
			switch line.Kind {
			case gotextdiff.Insert:
				stats.Inserted++
			case gotextdiff.Delete:
				stats.Deleted++
			}
		}
	}
	return stats
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	return strings.Count(strings.TrimSuffix(text, "\n"), "\n") + 1
}

// Without a trailing newline the last line diffs as changed whenever
// anything is appended after it.
func ensureNewline(s string) string {
	if s == "" || strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
