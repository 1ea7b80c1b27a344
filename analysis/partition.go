package analysis

// partitionFiles splits candidates into files present in members and files
// not present, by canonical path equality. Relative input order is preserved
// and every candidate ends up on exactly one side.
func partitionFiles(candidates, members []*SourceFile) (in, out []*SourceFile) {
	paths := make(map[string]struct{}, len(members))
	for _, f := range members {
		paths[f.Path] = struct{}{}
	}
	for _, f := range candidates {
		if _, ok := paths[f.Path]; ok {
			in = append(in, f)
		} else {
			out = append(out, f)
		}
	}
	return in, out
}
