package analysis

// detectDuplicateExports finds export names of one file that are bound to the
// same underlying declaration, compared by identity. Each returned group
// holds at least two names, in detection order.
func detectDuplicateExports(groups []ExportGroup) [][]string {
	names := make(map[*Declaration][]string)
	order := make([]*Declaration, 0, len(groups))
	for _, g := range groups {
		if len(g.Decls) == 0 {
			continue
		}
		decl := g.Decls[0]
		if _, seen := names[decl]; !seen {
			order = append(order, decl)
		}
		names[decl] = append(names[decl], g.Name)
	}

	var dups [][]string
	for _, decl := range order {
		if len(names[decl]) >= 2 {
			dups = append(dups, names[decl])
		}
	}
	return dups
}
