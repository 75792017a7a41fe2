package utils

import (
	"path/filepath"
)

// ResolveRelative resolves p against the directory holding ref unless p is already absolute.
// Paths named inside a config file are relative to that file.
func ResolveRelative(ref, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(filepath.Dir(ref), p)
}
