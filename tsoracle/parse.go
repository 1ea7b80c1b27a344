package tsoracle

import (
	"context"
	"fmt"
	"path/filepath"
	"regexp"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/arxeiss/deadexports/analysis"
)

type (
	// parsedFile is everything the oracle extracted from one source file.
	parsedFile struct {
		path string
		rel  string

		imports []importBinding
		exports []exportEntry
		// occurrences maps identifier text to its use lines. Declaration
		// name sites are excluded.
		occurrences map[string][]int
		// memberAccesses are `<object>.<member>` expressions, resolved
		// against namespace imports after all files are parsed.
		memberAccesses []memberAccess
		// defaultName is the representative identifier text of the default
		// export, if the file has a named one.
		defaultName string
	}

	// importBinding is one name bound by an import or re-export, or a bare
	// side-effect import when local and imported are empty.
	importBinding struct {
		local     string
		imported  string
		source    string
		target    string // resolved while building the project
		namespace bool
		star      bool
		line      int
	}

	exportEntry struct {
		name    string
		decl    *analysis.Declaration
		typeSig string // non-empty for type-level declarations
	}

	memberAccess struct {
		object string
		member string
		line   int
	}

	// fileParser carries per-file parsing state.
	fileParser struct {
		pf  *parsedFile
		src []byte
		// declSites are start bytes of declaration name nodes, excluded from
		// the occurrence index.
		declSites map[uint32]struct{}
		// localDecls collects top-level declarations by name so export
		// clauses resolve to the same declaration objects.
		localDecls map[string][]*analysis.Declaration
	}
)

var whitespaceRe = regexp.MustCompile(`\s+`)

func grammarFor(path string) *sitter.Language {
	switch filepath.Ext(path) {
	case ".ts":
		return typescript.GetLanguage()
	case ".tsx":
		return tsx.GetLanguage()
	default:
		return javascript.GetLanguage()
	}
}

// parseFile extracts imports, exports and identifier occurrences from one
// source file.
func parseFile(ctx context.Context, path, rel string, src []byte) (*parsedFile, error) {
	parser := sitter.NewParser()
	parser.SetLanguage(grammarFor(path))
	tree, err := parser.ParseCtx(ctx, nil, src)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", rel, err)
	}
	defer tree.Close()

	fp := &fileParser{
		pf: &parsedFile{
			path:        path,
			rel:         rel,
			occurrences: make(map[string][]int),
		},
		src:        src,
		declSites:  make(map[uint32]struct{}),
		localDecls: make(map[string][]*analysis.Declaration),
	}

	root := tree.RootNode()
	// Local declarations first: an export clause may precede the declaration
	// it names, resolution must not depend on statement order.
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case "import_statement", "export_statement":
		default:
			fp.collectLocalDecls(node)
		}
	}
	for i := 0; i < int(root.NamedChildCount()); i++ {
		node := root.NamedChild(i)
		switch node.Type() {
		case "import_statement":
			fp.handleImport(node)
		case "export_statement":
			fp.handleExport(node)
		}
	}

	fp.collectOccurrences(root)
	return fp.pf, nil
}

func (fp *fileParser) text(n *sitter.Node) string {
	return string(fp.src[n.StartByte():n.EndByte()])
}

func lineOf(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// unquote strips the quotes of a string literal node.
func (fp *fileParser) unquote(n *sitter.Node) string {
	return strings.Trim(fp.text(n), "\"'`")
}

func (fp *fileParser) markDeclSite(n *sitter.Node) {
	fp.declSites[n.StartByte()] = struct{}{}
}

func (fp *fileParser) newIdent(n *sitter.Node) *analysis.Ident {
	return &analysis.Ident{Text: fp.text(n), Path: fp.pf.path}
}

func (fp *fileParser) handleImport(node *sitter.Node) {
	source := node.ChildByFieldName("source")
	if source == nil {
		return
	}
	spec := fp.unquote(source)
	line := lineOf(node)

	clause := namedChildOfType(node, "import_clause")
	if clause == nil {
		// Side-effect import, an edge without bindings.
		fp.pf.imports = append(fp.pf.imports, importBinding{source: spec, line: line})
		return
	}

	for i := 0; i < int(clause.NamedChildCount()); i++ {
		child := clause.NamedChild(i)
		switch child.Type() {
		case "identifier":
			fp.pf.imports = append(fp.pf.imports, importBinding{
				local: fp.text(child), imported: "default", source: spec, line: lineOf(child),
			})
		case "named_imports":
			for j := 0; j < int(child.NamedChildCount()); j++ {
				item := child.NamedChild(j)
				if item.Type() != "import_specifier" {
					continue
				}
				name := item.ChildByFieldName("name")
				if name == nil {
					continue
				}
				local := name
				if alias := item.ChildByFieldName("alias"); alias != nil {
					local = alias
				}
				fp.pf.imports = append(fp.pf.imports, importBinding{
					local: fp.text(local), imported: fp.text(name), source: spec, line: lineOf(item),
				})
			}
		case "namespace_import":
			if id := namedChildOfType(child, "identifier"); id != nil {
				fp.pf.imports = append(fp.pf.imports, importBinding{
					local: fp.text(id), source: spec, namespace: true, line: lineOf(id),
				})
			}
		}
	}
}

func (fp *fileParser) handleExport(node *sitter.Node) {
	public := hasPublicTag(node, fp.src)

	if clause := namedChildOfType(node, "export_clause"); clause != nil {
		fp.handleExportClause(node, clause, public)
		return
	}

	if decl := node.ChildByFieldName("declaration"); decl != nil {
		isDefault := hasKeyword(node, "default")
		for _, entry := range fp.declarationExports(decl, public) {
			if isDefault {
				if id, _ := firstIdent(entry.decl); id != nil {
					fp.pf.defaultName = id.Text
				}
				entry.name = "default"
			}
			fp.pf.exports = append(fp.pf.exports, entry)
		}
		return
	}

	if value := node.ChildByFieldName("value"); value != nil {
		fp.handleDefaultValue(value, public)
		return
	}

	// `export * from` re-exports every named export of the target file.
	// Named lookups follow the edge through exportOrigin, the default export
	// does not propagate.
	if source := node.ChildByFieldName("source"); source != nil {
		fp.pf.imports = append(fp.pf.imports, importBinding{
			source: fp.unquote(source), star: true, line: lineOf(node),
		})
	}
}

func (fp *fileParser) handleExportClause(node, clause *sitter.Node, public bool) {
	source := node.ChildByFieldName("source")
	typeOnly := hasKeyword(node, "type")

	for i := 0; i < int(clause.NamedChildCount()); i++ {
		item := clause.NamedChild(i)
		if item.Type() != "export_specifier" {
			continue
		}
		name := item.ChildByFieldName("name")
		if name == nil {
			continue
		}
		exported := name
		if alias := item.ChildByFieldName("alias"); alias != nil {
			exported = alias
		}
		nameText := fp.text(name)
		exportName := fp.text(exported)
		// `export type { X }` marks the whole clause, `export { type X, y }`
		// marks the single specifier.
		itemType := typeOnly || hasKeyword(item, "type")

		if source != nil {
			// Re-export. The specifier occurrence counts as a reference to
			// the origin file, handled via the import binding.
			fp.pf.imports = append(fp.pf.imports, importBinding{
				local: nameText, imported: nameText, source: fp.unquote(source), line: lineOf(item),
			})
			decl := &analysis.Declaration{
				Shape:  analysis.ShapeSelf,
				Idents: []*analysis.Ident{{Text: exportName, Path: fp.pf.path}},
				Public: public,
			}
			fp.pf.exports = append(fp.pf.exports, fp.typed(exportEntry{name: exportName, decl: decl}, itemType, exportName))
			continue
		}

		if locals := fp.localDecls[nameText]; len(locals) > 0 {
			for _, decl := range locals {
				if public {
					decl.Public = true
				}
				fp.pf.exports = append(fp.pf.exports, fp.typed(exportEntry{name: exportName, decl: decl}, itemType, exportName))
			}
			continue
		}

		// No local declaration found, the specifier itself is the bare name.
		fp.markDeclSite(name)
		decl := &analysis.Declaration{
			Shape:  analysis.ShapeSelf,
			Idents: []*analysis.Ident{fp.newIdent(name)},
			Public: public,
		}
		fp.pf.exports = append(fp.pf.exports, fp.typed(exportEntry{name: exportName, decl: decl}, itemType, exportName))
	}
}

func (fp *fileParser) typed(entry exportEntry, typeOnly bool, name string) exportEntry {
	if typeOnly && entry.typeSig == "" {
		entry.typeSig = "type " + name
	}
	return entry
}

func (fp *fileParser) handleDefaultValue(value *sitter.Node, public bool) {
	var decl *analysis.Declaration
	switch value.Type() {
	case "identifier":
		// Refers to a local declaration, the identifier is the bare name and
		// its occurrence keeps counting as a self reference.
		decl = &analysis.Declaration{
			Shape:  analysis.ShapeSelf,
			Idents: []*analysis.Ident{fp.newIdent(value)},
			Public: public,
		}
		fp.pf.defaultName = fp.text(value)
	default:
		idents := fp.descendantIdents(value, 8)
		if len(idents) == 0 {
			decl = &analysis.Declaration{Shape: analysis.ShapeAnonymous, Public: public}
		} else {
			decl = &analysis.Declaration{Shape: analysis.ShapeExpression, Idents: idents, Public: public}
		}
	}
	fp.pf.exports = append(fp.pf.exports, exportEntry{name: "default", decl: decl})
}

// declarationExports builds export entries for a declaration node, one per
// bound name.
func (fp *fileParser) declarationExports(decl *sitter.Node, public bool) []exportEntry {
	switch decl.Type() {
	case "function_declaration", "generator_function_declaration", "class_declaration",
		"abstract_class_declaration", "function_signature",
		"interface_declaration", "type_alias_declaration", "enum_declaration":
		name := decl.ChildByFieldName("name")
		if name == nil {
			// Anonymous default declarations have no identifier and are
			// never reported.
			return []exportEntry{{name: "default", decl: &analysis.Declaration{
				Shape: analysis.ShapeAnonymous, Public: public,
			}}}
		}
		entry := exportEntry{name: fp.text(name), decl: fp.namedDecl(name, public)}
		switch decl.Type() {
		case "interface_declaration", "type_alias_declaration":
			entry.typeSig = declSignature(decl, fp.src)
		}
		return []exportEntry{entry}

	case "lexical_declaration", "variable_declaration":
		var entries []exportEntry
		for i := 0; i < int(decl.NamedChildCount()); i++ {
			declarator := decl.NamedChild(i)
			if declarator.Type() != "variable_declarator" {
				continue
			}
			name := declarator.ChildByFieldName("name")
			if name == nil {
				continue
			}
			if name.Type() == "identifier" {
				entries = append(entries, exportEntry{name: fp.text(name), decl: fp.namedDecl(name, public)})
				continue
			}
			// Destructuring pattern, every bound name becomes its own
			// member-access style declaration.
			for _, id := range patternIdents(name) {
				fp.markDeclSite(id)
				d := &analysis.Declaration{
					Shape:  analysis.ShapeMemberAccess,
					Idents: []*analysis.Ident{fp.newIdent(id)},
					Public: public,
				}
				entries = append(entries, exportEntry{name: fp.text(id), decl: d})
			}
		}
		return entries
	}
	return nil
}

// namedDecl creates a ShapeNamed declaration for a name node, registers it as
// a local declaration and excludes the name site from the occurrence index.
func (fp *fileParser) namedDecl(name *sitter.Node, public bool) *analysis.Declaration {
	fp.markDeclSite(name)
	decl := &analysis.Declaration{
		Shape:  analysis.ShapeNamed,
		Idents: []*analysis.Ident{fp.newIdent(name)},
		Public: public,
	}
	text := fp.text(name)
	fp.localDecls[text] = append(fp.localDecls[text], decl)
	return decl
}

// collectLocalDecls registers non-exported top level declarations so later
// export clauses resolve to the identical declaration objects.
func (fp *fileParser) collectLocalDecls(node *sitter.Node) {
	switch node.Type() {
	case "function_declaration", "generator_function_declaration", "class_declaration",
		"abstract_class_declaration", "function_signature",
		"interface_declaration", "type_alias_declaration", "enum_declaration":
		if name := node.ChildByFieldName("name"); name != nil {
			fp.namedDecl(name, false)
		}
	case "lexical_declaration", "variable_declaration":
		for i := 0; i < int(node.NamedChildCount()); i++ {
			declarator := node.NamedChild(i)
			if declarator.Type() != "variable_declarator" {
				continue
			}
			if name := declarator.ChildByFieldName("name"); name != nil && name.Type() == "identifier" {
				fp.namedDecl(name, false)
			}
		}
	}
}

// collectOccurrences walks the whole tree and indexes identifier uses and
// member accesses.
func (fp *fileParser) collectOccurrences(node *sitter.Node) {
	switch node.Type() {
	case "identifier", "type_identifier", "shorthand_property_identifier":
		if _, declSite := fp.declSites[node.StartByte()]; !declSite {
			text := fp.text(node)
			fp.pf.occurrences[text] = append(fp.pf.occurrences[text], lineOf(node))
		}
	case "member_expression":
		object := node.ChildByFieldName("object")
		property := node.ChildByFieldName("property")
		if object != nil && property != nil && object.Type() == "identifier" {
			fp.pf.memberAccesses = append(fp.pf.memberAccesses, memberAccess{
				object: fp.text(object),
				member: fp.text(property),
				line:   lineOf(property),
			})
		}
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		fp.collectOccurrences(node.NamedChild(i))
	}
}

// descendantIdents returns up to limit identifiers below node in depth-first
// order.
func (fp *fileParser) descendantIdents(node *sitter.Node, limit int) []*analysis.Ident {
	var idents []*analysis.Ident
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		if len(idents) >= limit {
			return
		}
		if n.Type() == "identifier" {
			idents = append(idents, fp.newIdent(n))
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(node)
	return idents
}

// patternIdents returns the identifiers bound by a destructuring pattern.
func patternIdents(pattern *sitter.Node) []*sitter.Node {
	var ids []*sitter.Node
	var walk func(n *sitter.Node)
	walk = func(n *sitter.Node) {
		switch n.Type() {
		case "identifier", "shorthand_property_identifier_pattern":
			ids = append(ids, n)
			return
		}
		for i := 0; i < int(n.NamedChildCount()); i++ {
			walk(n.NamedChild(i))
		}
	}
	walk(pattern)
	return ids
}

func namedChildOfType(node *sitter.Node, typ string) *sitter.Node {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if child := node.NamedChild(i); child.Type() == typ {
			return child
		}
	}
	return nil
}

// hasKeyword reports whether the statement contains the given anonymous
// keyword token, such as `default` or `type`.
func hasKeyword(node *sitter.Node, keyword string) bool {
	for i := 0; i < int(node.ChildCount()); i++ {
		if node.Child(i).Type() == keyword {
			return true
		}
	}
	return false
}

// hasPublicTag reports whether the directly preceding comment carries a
// public doc tag.
func hasPublicTag(node *sitter.Node, src []byte) bool {
	prev := node.PrevNamedSibling()
	if prev == nil || prev.Type() != "comment" {
		return false
	}
	return strings.Contains(string(src[prev.StartByte():prev.EndByte()]), "@public")
}

// declSignature returns the collapsed header of a type declaration.
func declSignature(node *sitter.Node, src []byte) string {
	text := string(src[node.StartByte():node.EndByte()])
	if i := strings.IndexAny(text, "{\n"); i >= 0 {
		text = text[:i]
	}
	text = strings.TrimSpace(whitespaceRe.ReplaceAllString(text, " "))
	return strings.TrimRight(strings.TrimSuffix(text, ";"), " =")
}

// firstIdent returns a declaration's first identifier without applying the
// shape rules, used only for remembering default export names.
func firstIdent(decl *analysis.Declaration) (*analysis.Ident, bool) {
	if len(decl.Idents) == 0 {
		return nil, false
	}
	return decl.Idents[0], true
}
