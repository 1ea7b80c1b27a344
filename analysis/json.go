package analysis

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/charmbracelet/lipgloss"
)

var textLabels = map[IssueCategory]string{
	CategoryFiles:      "unused file",
	CategoryExports:    "unused export",
	CategoryTypes:      "unused type",
	CategoryMembers:    "unused namespace member",
	CategoryDuplicates: "duplicate exports",
}

var textStyles = map[IssueCategory]lipgloss.Style{
	CategoryFiles:      lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
	CategoryExports:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	CategoryTypes:      lipgloss.NewStyle().Foreground(lipgloss.Color("5")),
	CategoryMembers:    lipgloss.NewStyle().Foreground(lipgloss.Color("6")),
	CategoryDuplicates: lipgloss.NewStyle().Foreground(lipgloss.Color("4")),
}

func (r *Runner) printJSON(_ context.Context, report *Report) error {
	enc := json.NewEncoder(r.writer)
	enc.SetIndent("", "\t")
	return enc.Encode(report)
}

func (r *Runner) printText(_ context.Context, report *Report) {
	for _, cat := range Categories {
		byPath := report.Issues[cat]
		paths := make([]string, 0, len(byPath))
		for path := range byPath {
			paths = append(paths, path)
		}
		sort.Strings(paths)

		for _, path := range paths {
			symbols := make([]string, 0, len(byPath[path]))
			for symbol := range byPath[path] {
				symbols = append(symbols, symbol)
			}
			sort.Strings(symbols)

			for _, symbol := range symbols {
				fmt.Fprintln(r.writer, r.textLine(byPath[path][symbol]))
			}
		}
	}
}

func (r *Runner) textLine(iss *Issue) string {
	label := textLabels[iss.Category]
	if r.ColorFlag {
		label = textStyles[iss.Category].Render(label)
	}
	switch iss.Category {
	case CategoryFiles:
		return fmt.Sprintf("%s: %s", label, iss.Path)
	case CategoryTypes:
		if iss.SymbolType != "" {
			return fmt.Sprintf("%s: %s: %s (%s)", iss.Path, label, iss.Symbol, iss.SymbolType)
		}
		return fmt.Sprintf("%s: %s: %s", iss.Path, label, iss.Symbol)
	default:
		return fmt.Sprintf("%s: %s: %s", iss.Path, label, iss.Symbol)
	}
}
