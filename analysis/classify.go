package analysis

// classifyFile decides for every exported declaration of a file whether it is
// unused and under which category it is reported.
func (rc *runContext) classifyFile(file *SourceFile) {
	groups := rc.oracle.ExportsOf(file)

	// A file exposing exactly one export name is assumed to be consumed as
	// the module's primary interface elsewhere and is not analyzed at all.
	if uniqueNameCount(groups) == 1 {
		return
	}

	for _, group := range groups {
		for _, decl := range group.Decls {
			rc.classifyDeclaration(file, decl)
		}
	}
}

func (rc *runContext) classifyDeclaration(file *SourceFile, decl *Declaration) {
	signature, isType := rc.oracle.ClassifyType(decl)

	if !rc.include[CategoryMembers] {
		if isType && !rc.include[CategoryTypes] {
			return
		}
		if !isType && !rc.include[CategoryExports] {
			return
		}
	}
	if rc.respectPublic && decl.Public {
		return
	}

	id, ok := decl.ident()
	if !ok {
		// Nothing locatable to report, not an error.
		return
	}

	path := relativePath(rc.cwd, file.Path)
	if rc.alreadyReported(path, id.Text) {
		// Overloads and merged declarations report once per name.
		return
	}

	refs := rc.oracle.FindReferences(id)
	switch {
	case len(refs) == 0:
		rc.addIssue(&Issue{Category: CategoryExports, Path: path, Symbol: id.Text})
	case selfOnly(refs, file.Path):
		switch {
		case len(rc.oracle.NamespaceReferences(file)) > 0:
			// Reachable only through a namespace object. That wins over the
			// type classification: such a symbol is never directly
			// importable, so its type status does not matter to consumers.
			rc.addIssue(&Issue{Category: CategoryMembers, Path: path, Symbol: id.Text})
		case isType:
			rc.addIssue(&Issue{Category: CategoryTypes, Path: path, Symbol: id.Text, SymbolType: signature})
		default:
			rc.addIssue(&Issue{Category: CategoryExports, Path: path, Symbol: id.Text})
		}
	default:
		// Referenced from another file, the export is in use.
	}
}

// alreadyReported tells whether an issue for this file and symbol exists in
// any of the mutually exclusive classification categories.
func (rc *runContext) alreadyReported(path, symbol string) bool {
	return rc.issues.has(CategoryExports, path, symbol) ||
		rc.issues.has(CategoryTypes, path, symbol) ||
		rc.issues.has(CategoryMembers, path, symbol)
}

func uniqueNameCount(groups []ExportGroup) int {
	names := make(map[string]struct{}, len(groups))
	for _, g := range groups {
		names[g.Name] = struct{}{}
	}
	return len(names)
}
