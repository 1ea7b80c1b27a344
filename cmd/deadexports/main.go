package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/mattn/go-isatty"

	"github.com/arxeiss/deadexports/analysis"
	"github.com/arxeiss/deadexports/config"
	"github.com/arxeiss/deadexports/tsoracle"

	_ "embed"
)

var (
	//go:embed doc.go
	doc string

	debugFlag = flag.Bool("debug", false, "enable debug output")
	helpFlag  = flag.Bool("help", false, "show help")

	entryFlag = flag.String("entry", "",
		"comma-separated list of entry file patterns (overrides entryFiles from config)")
	includeFlag = flag.String("include", "",
		"comma-separated subset of files,exports,types,members,duplicates (default: all)")
	respectPublicFlag = flag.Bool("respect-public", false,
		"skip declarations documented with a @public tag")

	progressFlag = flag.Bool("progress", false, "render progress while analyzing")
	jsonFlag     = flag.Bool("json", false, "output JSON report")
)

func main() {
	flag.Parse()
	if flag.NArg() != 1 || *helpFlag {
		usage()
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	report, err := run(ctx, flag.Arg(0))
	cancel()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
	if report.Counters.IssueCount() > 0 {
		os.Exit(3)
	}
}

func run(ctx context.Context, root string) (*analysis.Report, error) {
	cfg, err := config.LoadWithFallback(filepath.Join(root, config.FileName))
	if err != nil {
		return nil, err
	}
	applyFlags(cfg)

	var debugWriter io.Writer
	if *debugFlag {
		debugWriter = os.Stderr
	}
	project, err := tsoracle.Load(ctx, root, tsoracle.Options{
		EntryPatterns: cfg.EntryFiles,
		FilePatterns:  cfg.FilePatterns,
		DebugWriter:   debugWriter,
	})
	if err != nil {
		return nil, err
	}

	runner := analysis.New(os.Stdout, os.Stderr, project)
	runner.Cwd = project.Root()
	runner.Include = includeMap(cfg.Include)
	runner.RespectPublicFlag = cfg.RespectPublicTag
	runner.DebugFlag = *debugFlag
	runner.JSONFlag = *jsonFlag
	runner.ShowProgressFlag = cfg.ShowProgress && isatty.IsTerminal(os.Stderr.Fd())
	runner.ColorFlag = isatty.IsTerminal(os.Stdout.Fd())

	return runner.Run(ctx)
}

func applyFlags(cfg *config.Config) {
	if *entryFlag != "" {
		cfg.EntryFiles = splitList(*entryFlag)
	}
	if *includeFlag != "" {
		include := &config.Include{}
		for _, name := range splitList(*includeFlag) {
			switch analysis.IssueCategory(name) {
			case analysis.CategoryFiles:
				include.Files = true
			case analysis.CategoryExports:
				include.Exports = true
			case analysis.CategoryTypes:
				include.Types = true
			case analysis.CategoryMembers:
				include.Members = true
			case analysis.CategoryDuplicates:
				include.Duplicates = true
			}
		}
		cfg.Include = include
	}
	if *respectPublicFlag {
		cfg.RespectPublicTag = true
	}
	if *progressFlag {
		cfg.ShowProgress = true
	}
}

// includeMap converts the config toggles to the runner's category map. Nil
// keeps every category enabled.
func includeMap(include *config.Include) map[analysis.IssueCategory]bool {
	if include == nil {
		return nil
	}
	return map[analysis.IssueCategory]bool{
		analysis.CategoryFiles:      include.Files,
		analysis.CategoryExports:    include.Exports,
		analysis.CategoryTypes:      include.Types,
		analysis.CategoryMembers:    include.Members,
		analysis.CategoryDuplicates: include.Duplicates,
	}
}

func splitList(value string) []string {
	var items []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			items = append(items, item)
		}
	}
	return items
}

func usage() {
	// Extract the content of the /* ... */ comment in doc.go.
	_, after, _ := strings.Cut(doc, "/*\n")
	doc, _, _ := strings.Cut(after, "*/")
	_, _ = os.Stderr.WriteString(doc + `
Flags:

`)
	flag.PrintDefaults()
}
