package analysis

import (
	"context"
	"fmt"
	"io"
	"strings"
)

type (
	// Runner specifies all configuration for running one unused-export
	// analysis over a project supplied by an Oracle.
	Runner struct {
		writer    io.Writer
		errWriter io.Writer
		oracle    Oracle

		// Cwd is the root all reported paths are made relative to.
		Cwd string

		// Include toggles each issue category independently. Nil enables all.
		Include map[IssueCategory]bool
		// RespectPublicFlag exempts declarations carrying an explicit public
		// marker from reporting.
		RespectPublicFlag bool

		// DebugFlag turns on more verbose output.
		DebugFlag bool
		// JSONFlag turns on JSON output.
		JSONFlag bool
		// ShowProgressFlag renders progress lines while analyzing.
		ShowProgressFlag bool
		// ColorFlag styles the text output for terminals.
		ColorFlag bool

		progressSink ProgressSink
	}

	// Report is the outcome of one run.
	Report struct {
		Issues   IssueSet `json:"issues"`
		Counters Counters `json:"counters"`
	}

	// runContext holds all state mutated during one traversal. It is built
	// fresh per invocation and discarded at run end.
	runContext struct {
		oracle        Oracle
		cwd           string
		include       map[IssueCategory]bool
		respectPublic bool

		issues   IssueSet
		counters Counters
		totals   Totals
		sink     ProgressSink
	}
)

// New creates a runner for analysis. The oracle supplies the parsed project.
func New(writer, errWriter io.Writer, oracle Oracle) *Runner {
	return &Runner{
		writer:    writer,
		errWriter: errWriter,
		oracle:    oracle,
	}
}

// SetProgressSink replaces the terminal sink. Mainly for headless testing.
func (r *Runner) SetProgressSink(sink ProgressSink) {
	r.progressSink = sink
}

func (r *Runner) writeStderr(format string, args ...any) {
	fmt.Fprintf(r.errWriter, strings.TrimSuffix(format, "\n")+"\n", args...)
}

func (r *Runner) writeDebug(format string, args ...any) {
	if r.DebugFlag {
		r.writeStderr(format, args...)
	}
}

// Run performs the analysis and prints the findings. The classification pass
// is strictly sequential over files, each processed to completion before the
// next one begins.
func (r *Runner) Run(ctx context.Context) (*Report, error) {
	if r.oracle == nil {
		return nil, fmt.Errorf("no oracle provided")
	}
	rc := r.newRunContext()

	all := r.oracle.ProjectFiles()
	production, unused := partitionFiles(all, r.oracle.ProductionFiles())
	entries, analyzed := partitionFiles(production, r.oracle.EntryFiles())
	rc.totals = Totals{UnusedFiles: len(unused), UsedNonEntry: len(analyzed)}
	r.writeDebug("Found %d files: %d entry, %d used, %d unused",
		len(all), len(entries), len(analyzed), len(unused))

	// Files outside the production closure are reported directly and never
	// analyzed further.
	for _, file := range unused {
		path := relativePath(rc.cwd, file.Path)
		rc.addIssue(&Issue{Category: CategoryFiles, Path: path, Symbol: path})
	}

	for _, file := range analyzed {
		rc.renderProgress(file)
		r.writeDebug("Analyzing %s", file.Path)

		if rc.include[CategoryDuplicates] {
			path := relativePath(rc.cwd, file.Path)
			for _, group := range detectDuplicateExports(r.oracle.ExportsOf(file)) {
				rc.addIssue(&Issue{
					Category: CategoryDuplicates,
					Path:     path,
					Symbol:   strings.Join(group, ","),
					Symbols:  group,
				})
			}
		}

		rc.classifyFile(file)
		// Counted even when the file produced no issues, progress accounting
		// must stay accurate for clean files.
		rc.counters.Processed++
	}
	rc.renderProgress(nil)
	rc.sink.Done()

	report := &Report{Issues: rc.issues, Counters: rc.counters}
	if r.JSONFlag {
		return report, r.printJSON(ctx, report)
	}
	r.printText(ctx, report)
	return report, nil
}

func (r *Runner) newRunContext() *runContext {
	include := make(map[IssueCategory]bool, len(Categories))
	for _, cat := range Categories {
		if r.Include == nil {
			include[cat] = true
		} else {
			include[cat] = r.Include[cat]
		}
	}

	sink := r.progressSink
	if sink == nil {
		// Debug lines share errWriter with the progress block, the in-place
		// rewrite would erase them or desync the cursor movement.
		if r.ShowProgressFlag && !r.DebugFlag {
			sink = NewTermSink(r.errWriter)
		} else {
			sink = nopSink{}
		}
	}

	return &runContext{
		oracle:        r.oracle,
		cwd:           r.Cwd,
		include:       include,
		respectPublic: r.RespectPublicFlag,
		issues:        make(IssueSet),
		sink:          sink,
	}
}

// addIssue stores the issue and increments the matching counter, unless the
// issue's category is disabled.
func (rc *runContext) addIssue(iss *Issue) {
	if !rc.include[iss.Category] {
		return
	}
	rc.issues.add(iss)
	rc.counters.bump(iss.Category)
}

// renderProgress pushes the current state to the sink. A non-nil file names
// the item under analysis.
func (rc *runContext) renderProgress(file *SourceFile) {
	current := ""
	if file != nil {
		current = relativePath(rc.cwd, file.Path)
	}
	rc.sink.Update(RenderProgress(rc.counters, rc.totals, rc.include, current))
}
