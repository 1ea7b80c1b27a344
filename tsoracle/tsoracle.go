// Package tsoracle loads a TypeScript or JavaScript project from disk and
// answers the analysis queries: files, exports, references and namespace
// usage. Reference lookups are text based over tree-sitter parse trees, they
// do not run a type checker.
package tsoracle

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/arxeiss/deadexports/analysis"
)

type (
	// Options configure project loading.
	Options struct {
		// EntryPatterns name the production entry points, relative to root.
		EntryPatterns []string
		// FilePatterns restricts the file set. Empty means all source files.
		FilePatterns []string
		// DebugWriter receives loading diagnostics when set.
		DebugWriter io.Writer
	}

	// Project is a fully loaded project implementing analysis.Oracle.
	Project struct {
		root string

		files      []*analysis.SourceFile
		entries    []*analysis.SourceFile
		production []*analysis.SourceFile

		byPath   map[string]*parsedFile
		sources  map[string]*analysis.SourceFile
		exports  map[string][]analysis.ExportGroup
		typeSigs map[*analysis.Declaration]string
		// nsRefs holds member accesses through namespace imports, keyed by
		// target file and additionally by member name.
		nsRefs       map[string][]analysis.Reference
		nsMemberRefs map[string]map[string][]analysis.Reference
		// starTargets maps a file to the files it re-exports with
		// `export * from`.
		starTargets map[string][]string
	}
)

var _ analysis.Oracle = (*Project)(nil)

// Load discovers, parses and cross-links all project files under root.
func Load(ctx context.Context, root string, opts Options) (*Project, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to convert '%s' to absolute path: %w", root, err)
	}
	if len(opts.EntryPatterns) == 0 {
		return nil, fmt.Errorf("no entry patterns provided")
	}

	paths, err := discoverFiles(absRoot, opts.FilePatterns)
	if err != nil {
		return nil, err
	}
	debugf(opts.DebugWriter, "Discovered %d source files", len(paths))

	p := &Project{
		root:         absRoot,
		byPath:       make(map[string]*parsedFile, len(paths)),
		sources:      make(map[string]*analysis.SourceFile, len(paths)),
		exports:      make(map[string][]analysis.ExportGroup, len(paths)),
		typeSigs:     make(map[*analysis.Declaration]string),
		nsRefs:       make(map[string][]analysis.Reference),
		nsMemberRefs: make(map[string]map[string][]analysis.Reference),
		starTargets:  make(map[string][]string),
	}

	fileSet := make(map[string]struct{}, len(paths))
	for _, path := range paths {
		fileSet[path] = struct{}{}
	}

	for _, path := range paths {
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rel, _ := filepath.Rel(absRoot, path)
		pf, err := parseFile(ctx, path, filepath.ToSlash(rel), src)
		if err != nil {
			return nil, err
		}
		p.byPath[path] = pf

		sf := &analysis.SourceFile{Path: path}
		p.sources[path] = sf
		p.files = append(p.files, sf)
	}

	p.link(fileSet)
	if err := p.partitionEntryPoints(opts); err != nil {
		return nil, err
	}
	debugf(opts.DebugWriter, "Resolved %d entry files, %d production files",
		len(p.entries), len(p.production))

	return p, nil
}

// link resolves import targets, builds export groups and the namespace
// reference index.
func (p *Project) link(fileSet map[string]struct{}) {
	for _, path := range p.paths() {
		pf := p.byPath[path]
		dir := filepath.Dir(path)

		for i := range pf.imports {
			pf.imports[i].target = resolveImport(dir, pf.imports[i].source, fileSet)
			if pf.imports[i].star && pf.imports[i].target != "" {
				p.starTargets[path] = append(p.starTargets[path], pf.imports[i].target)
			}
		}

		p.exports[path] = groupExports(pf.exports)
		for _, entry := range pf.exports {
			if entry.typeSig != "" {
				p.typeSigs[entry.decl] = entry.typeSig
			}
		}
	}

	for _, path := range p.paths() {
		pf := p.byPath[path]
		for _, access := range pf.memberAccesses {
			target := p.namespaceTarget(pf, access.object)
			if target == "" {
				continue
			}
			ref := analysis.Reference{Path: path, Line: access.line}
			p.nsRefs[target] = append(p.nsRefs[target], ref)
			if p.nsMemberRefs[target] == nil {
				p.nsMemberRefs[target] = make(map[string][]analysis.Reference)
			}
			p.nsMemberRefs[target][access.member] = append(p.nsMemberRefs[target][access.member], ref)
		}
	}
}

func (p *Project) namespaceTarget(pf *parsedFile, local string) string {
	for _, binding := range pf.imports {
		if binding.namespace && binding.local == local && binding.target != "" {
			return binding.target
		}
	}
	return ""
}

func (p *Project) partitionEntryPoints(opts Options) error {
	edges := make(map[string][]string, len(p.byPath))
	for path, pf := range p.byPath {
		for _, binding := range pf.imports {
			if binding.target != "" {
				edges[path] = append(edges[path], binding.target)
			}
		}
	}

	var entryPaths []string
	for _, sf := range p.files {
		rel := p.byPath[sf.Path].rel
		if matchesAny(rel, opts.EntryPatterns) {
			entryPaths = append(entryPaths, sf.Path)
			p.entries = append(p.entries, sf)
		}
	}
	if len(entryPaths) == 0 {
		return fmt.Errorf("no entry files matched %s", strings.Join(opts.EntryPatterns, ", "))
	}

	reached := closure(entryPaths, edges)
	for _, sf := range p.files {
		if _, ok := reached[sf.Path]; ok {
			p.production = append(p.production, sf)
		}
	}
	return nil
}

func (p *Project) paths() []string {
	paths := make([]string, 0, len(p.byPath))
	for path := range p.byPath {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Root returns the absolute project root.
func (p *Project) Root() string {
	return p.root
}

// ProjectFiles implements analysis.Oracle.
func (p *Project) ProjectFiles() []*analysis.SourceFile {
	return p.files
}

// ProductionFiles implements analysis.Oracle.
func (p *Project) ProductionFiles() []*analysis.SourceFile {
	return p.production
}

// EntryFiles implements analysis.Oracle.
func (p *Project) EntryFiles() []*analysis.SourceFile {
	return p.entries
}

// ExportsOf implements analysis.Oracle.
func (p *Project) ExportsOf(file *analysis.SourceFile) []analysis.ExportGroup {
	return p.exports[file.Path]
}

// ClassifyType implements analysis.Oracle.
func (p *Project) ClassifyType(decl *analysis.Declaration) (string, bool) {
	sig, ok := p.typeSigs[decl]
	return sig, ok
}

// NamespaceReferences implements analysis.Oracle.
func (p *Project) NamespaceReferences(file *analysis.SourceFile) []analysis.Reference {
	return p.nsRefs[file.Path]
}

// FindReferences implements analysis.Oracle. References are identifier
// occurrences in the declaring file, uses of matching import bindings in
// other files (including bindings reaching the file through star
// re-exports), and member accesses through namespace imports.
func (p *Project) FindReferences(id *analysis.Ident) []analysis.Reference {
	pf, ok := p.byPath[id.Path]
	if !ok {
		return nil
	}

	var refs []analysis.Reference
	for _, line := range pf.occurrences[id.Text] {
		refs = append(refs, analysis.Reference{Path: id.Path, Line: line})
	}

	for _, path := range p.paths() {
		if path == id.Path {
			continue
		}
		other := p.byPath[path]
		for _, binding := range other.imports {
			if binding.namespace || binding.local == "" || binding.target == "" {
				continue
			}
			if !p.bindingResolvesTo(binding, pf, id) {
				continue
			}
			for _, line := range other.occurrences[binding.local] {
				refs = append(refs, analysis.Reference{Path: path, Line: line})
			}
		}
	}

	refs = append(refs, p.nsMemberRefs[id.Path][id.Text]...)
	return refs
}

// bindingResolvesTo tells whether an import binding binds the given
// identifier, either directly or through star re-exports of its target.
func (p *Project) bindingResolvesTo(binding importBinding, pf *parsedFile, id *analysis.Ident) bool {
	if binding.target == id.Path {
		return binding.imported == id.Text ||
			(binding.imported == "default" && pf.defaultName == id.Text)
	}
	return binding.imported == id.Text && p.exportOrigin(binding.target, id.Text) == id.Path
}

// exportOrigin follows `export * from` edges starting at path until it
// reaches a file that itself exports name, or "" when none does. Cycles
// between barrel files are tolerated.
func (p *Project) exportOrigin(path, name string) string {
	seen := make(map[string]struct{})
	queue := []string{path}
	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]
		if _, ok := seen[current]; ok {
			continue
		}
		seen[current] = struct{}{}
		if p.hasExport(current, name) {
			return current
		}
		queue = append(queue, p.starTargets[current]...)
	}
	return ""
}

func (p *Project) hasExport(path, name string) bool {
	for _, group := range p.exports[path] {
		if group.Name == name {
			return true
		}
	}
	return false
}

func debugf(w io.Writer, format string, args ...any) {
	if w != nil {
		fmt.Fprintf(w, format+"\n", args...)
	}
}

// groupExports folds the flat export entries into ordered groups keyed by
// export name, keeping declaration order inside each group.
func groupExports(entries []exportEntry) []analysis.ExportGroup {
	var groups []analysis.ExportGroup
	index := make(map[string]int, len(entries))
	for _, entry := range entries {
		if i, ok := index[entry.name]; ok {
			groups[i].Decls = append(groups[i].Decls, entry.decl)
			continue
		}
		index[entry.name] = len(groups)
		groups = append(groups, analysis.ExportGroup{Name: entry.name, Decls: []*analysis.Declaration{entry.decl}})
	}
	return groups
}
