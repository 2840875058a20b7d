package report

import (
	"strings"
	"testing"

	"dirdupe/internal/dupes"
	"dirdupe/internal/tree"
)

func TestFormatReport_NoGroups(t *testing.T) {
	report := FormatReport(nil)

	if report != "No duplicates found.\n" {
		t.Errorf("Unexpected report for no groups: %q", report)
	}
}

func TestFormatReport_Groups(t *testing.T) {
	groups := []dupes.Group{
		{Kind: tree.Dir, Size: 2500, Paths: []string{"/a/x", "/b/y"}},
		{Kind: tree.File, Size: 120, Paths: []string{"/c", "/d", "/e"}},
	}

	report := FormatReport(groups)

	expected := []string{
		"Group 1/2: 2 directories, 2.5 kB each",
		"  0: /a/x",
		"  1: /b/y",
		"Group 2/2: 3 files, 120 B each",
		"  2: /e",
	}
	for _, line := range expected {
		if !strings.Contains(report, line) {
			t.Errorf("Report should contain %q, got:\n%s", line, report)
		}
	}

	if strings.Index(report, "/a/x") > strings.Index(report, "/c") {
		t.Error("Groups should be listed in the given order")
	}
}

func TestFormatStatistics(t *testing.T) {
	groups := []dupes.Group{
		{Kind: tree.Dir, Size: 1000, Paths: []string{"/a", "/b", "/c"}},
	}
	stats := tree.Stats{Files: 12, Dirs: 4, Bytes: 3000, Unreadable: 1}

	out := FormatStatistics(groups, stats)

	expected := []string{
		"Scanned 12 files in 4 directories (3.0 kB)",
		"Found 1 groups.",
		"Max saved space: 2.0 kB",
		"Skipped: 1 unreadable, 0 indeterminate",
	}
	for _, line := range expected {
		if !strings.Contains(out, line) {
			t.Errorf("Statistics should contain %q, got:\n%s", line, out)
		}
	}
}

func TestFormatStatistics_NoSkipped(t *testing.T) {
	out := FormatStatistics(nil, tree.Stats{})

	if strings.Contains(out, "Skipped") {
		t.Errorf("Statistics should not mention skipped entries, got:\n%s", out)
	}
	if !strings.Contains(out, "Found 0 groups.") {
		t.Errorf("Statistics should report zero groups, got:\n%s", out)
	}
}
