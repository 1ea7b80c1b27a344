package tsoracle

import (
	"path/filepath"
	"strings"
)

// specifier suffixes tried in order when resolving an extensionless import.
var resolveSuffixes = []string{
	"", ".ts", ".tsx", ".js", ".jsx", ".mjs",
	"/index.ts", "/index.tsx", "/index.js",
}

// resolveImport maps a relative import specifier to a project file, or ""
// for package imports and unresolved paths.
func resolveImport(fromDir, spec string, files map[string]struct{}) string {
	if !strings.HasPrefix(spec, "./") && !strings.HasPrefix(spec, "../") {
		return ""
	}
	base := filepath.Clean(filepath.Join(fromDir, filepath.FromSlash(spec)))
	for _, suffix := range resolveSuffixes {
		candidate := base + suffix
		if _, ok := files[candidate]; ok {
			return candidate
		}
	}
	return ""
}

// closure returns the entry files extended to their transitive import
// closure, as a path set.
func closure(entries []string, edges map[string][]string) map[string]struct{} {
	reached := make(map[string]struct{}, len(entries))
	queue := append([]string(nil), entries...)
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		if _, seen := reached[path]; seen {
			continue
		}
		reached[path] = struct{}{}
		queue = append(queue, edges[path]...)
	}
	return reached
}
