package analysis

import "path/filepath"

// relativePath makes path relative to root, with forward slashes for stable
// reporting across platforms. Paths outside root are returned unchanged.
func relativePath(root, path string) string {
	if root == "" {
		return filepath.ToSlash(path)
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(rel)
}

// selfOnly tells whether every reference lives in the declaring file.
func selfOnly(refs []Reference, path string) bool {
	for _, ref := range refs {
		if ref.Path != path {
			return false
		}
	}
	return true
}
