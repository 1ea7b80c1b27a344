package analysis

import (
	"fmt"
	"io"
)

// Totals fixes the denominators of the progress computation for one run.
type Totals struct {
	// UnusedFiles is the number of files outside the production closure.
	UnusedFiles int
	// UsedNonEntry is the number of files the classification pass visits.
	UsedNonEntry int
}

var progressLabels = map[IssueCategory]string{
	CategoryFiles:      "unused files",
	CategoryExports:    "unused exports",
	CategoryTypes:      "unused types",
	CategoryMembers:    "unused namespace members",
	CategoryDuplicates: "duplicate exports",
}

// RenderProgress builds the progress lines for the current counters. It is a
// pure function, writing and clearing the terminal is the sink's job.
func RenderProgress(counters Counters, totals Totals, enabled map[IssueCategory]bool, current string) []string {
	total := totals.UnusedFiles + totals.UsedNonEntry
	count := totals.UnusedFiles + counters.Processed
	percentage := 0
	if total > 0 {
		percentage = 100 * count / total
	}

	lines := []string{fmt.Sprintf("%d%% of files processed (%d of %d)", percentage, count, total)}
	for _, cat := range Categories {
		if !enabled[cat] {
			continue
		}
		lines = append(lines, fmt.Sprintf("%s: %d", progressLabels[cat], counters.Category(cat)))
	}
	if count < total && current != "" {
		lines = append(lines, "", "Processing: "+current)
	}
	return lines
}

// ProgressSink receives rendered progress lines. Update replaces whatever the
// previous Update wrote, Done removes it completely.
type ProgressSink interface {
	Update(lines []string)
	Done()
}

type nopSink struct{}

func (nopSink) Update([]string) {}
func (nopSink) Done()           {}

// TermSink writes progress lines to a terminal and rewrites them in place on
// every update. Single caller only, renders are strictly sequential.
type TermSink struct {
	w        io.Writer
	rendered int
}

// NewTermSink creates a sink writing to w, which should be a terminal.
func NewTermSink(w io.Writer) *TermSink {
	return &TermSink{w: w}
}

// Update clears the previously rendered lines and writes the new ones.
func (s *TermSink) Update(lines []string) {
	s.clear()
	for _, line := range lines {
		fmt.Fprintln(s.w, line)
	}
	s.rendered = len(lines)
}

// Done clears the rendered lines and resets the sink to its idle state.
func (s *TermSink) Done() {
	s.clear()
}

func (s *TermSink) clear() {
	for i := 0; i < s.rendered; i++ {
		// Cursor one line up, then erase it.
		fmt.Fprint(s.w, "\x1b[1A\x1b[2K")
	}
	s.rendered = 0
}
