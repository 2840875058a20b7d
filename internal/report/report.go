// Package report renders detection results as plain text.
package report

import (
	"fmt"
	"strings"

	"github.com/dustin/go-humanize"

	"dirdupe/internal/dupes"
	"dirdupe/internal/tree"
)

const rule = "----------------------------------------"

// FormatReport lists every group with its members numbered from 0, so a
// member can be referred to by index.
func FormatReport(groups []dupes.Group) string {
	if len(groups) == 0 {
		return "No duplicates found.\n"
	}

	var b strings.Builder
	for i, g := range groups {
		fmt.Fprintf(&b, "Group %d/%d: %d %s, %s each\n",
			i+1, len(groups), len(g.Paths), plural(g.Kind), humanize.Bytes(uint64(g.Size)))
		for j, p := range g.Paths {
			fmt.Fprintf(&b, "  %d: %s\n", j, p)
		}
		b.WriteString("\n")
	}
	return b.String()
}

// FormatStatistics summarises the groups and the scan that found them.
func FormatStatistics(groups []dupes.Group, stats tree.Stats) string {
	s := dupes.Summarize(groups)

	var b strings.Builder
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "Scanned %d files in %d directories (%s)\n",
		stats.Files, stats.Dirs, humanize.Bytes(uint64(stats.Bytes)))
	fmt.Fprintf(&b, "Found %d groups.\n", s.Groups)
	fmt.Fprintf(&b, "Max saved space: %s\n", humanize.Bytes(uint64(s.Reclaimable)))
	if skipped := stats.Unreadable + stats.Indeterminate; skipped > 0 {
		fmt.Fprintf(&b, "Skipped: %d unreadable, %d indeterminate\n",
			stats.Unreadable, stats.Indeterminate)
	}
	b.WriteString(rule + "\n")
	return b.String()
}

func plural(k tree.Kind) string {
	if k == tree.Dir {
		return "directories"
	}
	return "files"
}
