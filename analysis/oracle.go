package analysis

type (
	// Oracle supplies the parsed project: files, per-file exports, reference
	// lookups and namespace usage. Implementations do all parsing and
	// resolution up front, the analysis itself performs no I/O.
	Oracle interface {
		// ProjectFiles returns every file in scope, in a stable order.
		ProjectFiles() []*SourceFile
		// ProductionFiles returns the transitive import closure of the entry files.
		ProductionFiles() []*SourceFile
		// EntryFiles returns the configured entry points.
		EntryFiles() []*SourceFile
		// ExportsOf returns the exported declaration groups of a file in
		// declaration order. A group holds more than one declaration on
		// overloads and declaration merging.
		ExportsOf(file *SourceFile) []ExportGroup
		// FindReferences returns all references to an identifier across the
		// project, including those in its declaring file. The declaration
		// site itself does not count.
		FindReferences(id *Ident) []Reference
		// ClassifyType reports whether a declaration is type-level and, if
		// so, its resolved signature text.
		ClassifyType(decl *Declaration) (signature string, isType bool)
		// NamespaceReferences returns use sites in other files that access
		// this file as an imported namespace object.
		NamespaceReferences(file *SourceFile) []Reference
	}

	// SourceFile is a project file, identified by its canonical path.
	SourceFile struct {
		Path string
	}

	// ExportGroup is one exported name with its declarations.
	ExportGroup struct {
		Name  string
		Decls []*Declaration
	}

	// Declaration is an exported declaration. The Shape tag decides which of
	// the Idents is its representative identifier for reporting.
	Declaration struct {
		Shape  DeclShape
		Idents []*Ident
		// Public marks declarations carrying an explicit public tag,
		// exempting them from reporting when the toggle is on.
		Public bool
	}

	// Ident is an identifier together with its declaring file.
	Ident struct {
		Text string
		Path string
	}

	// Reference is a use site, identified by its containing file.
	Reference struct {
		Path string
		Line int
	}
)

// DeclShape is a closed set of declaration forms. Each form has its own rule
// for picking the representative identifier out of Idents.
type DeclShape int

const (
	// ShapeSelf denotes declarations that are themselves a bare name, such
	// as an export specifier. Idents holds that single name.
	ShapeSelf DeclShape = iota
	// ShapeNamed denotes named declarations (function, class, interface,
	// enum, type alias). The name is the first of Idents.
	ShapeNamed
	// ShapeMemberAccess denotes member-access style bindings (destructured
	// exports). The bound name is the last of Idents.
	ShapeMemberAccess
	// ShapeExpression denotes expression exports. Idents holds descendant
	// identifiers in depth-first order and the first one is representative.
	ShapeExpression
	// ShapeAnonymous denotes declarations without any identifier. They are
	// never reported.
	ShapeAnonymous
)

// ident returns the representative identifier of the declaration, or false
// when it has none. Missing identifiers are not an error, such declarations
// are silently skipped by the classifier.
func (d *Declaration) ident() (*Ident, bool) {
	if len(d.Idents) == 0 {
		return nil, false
	}
	switch d.Shape {
	case ShapeSelf, ShapeNamed, ShapeExpression:
		return d.Idents[0], true
	case ShapeMemberAccess:
		return d.Idents[len(d.Idents)-1], true
	}
	return nil, false
}
