package extract

import (
	"fmt"
	"io/fs"
	"path/filepath"
)

// Discover walks root recursively and returns every file the registry can
// read, in lexical order. A root that is itself a supported file is returned
// as is.
func (r *Registry) Discover(root string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		if r.Supported(path) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", root, err)
	}
	return found, nil
}
