package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DiscoverNotebooks resolves a rewrite target to the list of notebook
// files it covers. A file path is returned as-is; a directory is walked
// recursively for *.ipynb files in stable sorted order.
func DiscoverNotebooks(path string) ([]string, error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("%s: path not found: %s", ErrCodeNotFound, path)}
	}
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("%s: error accessing path: %v", ErrCodeNotFound, err)}
	}

	if !info.IsDir() {
		return []string{path}, nil
	}

	files, err := findNotebookFiles(path)
	if err != nil {
		return nil, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("%s: error scanning directory: %v", ErrCodeScanError, err)}
	}
	if len(files) == 0 {
		return nil, &ExitError{Code: ExitCommandError, Message: fmt.Sprintf("%s: no notebook files found in %s", ErrCodeNoFiles, path)}
	}
	return files, nil
}

// findNotebookFiles walks the directory and returns all .ipynb file paths
// sorted.
func findNotebookFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".ipynb" {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}
