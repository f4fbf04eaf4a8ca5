// Package filex holds small file-system helpers for the client.
package filex

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// EnsureParentDir creates the directory that will hold path, if any.
func EnsureParentDir(path string) error {
	dir := filepath.Dir(path)
	if dir == "." || dir == "" {
		return nil
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return nil
}

// WriteFileFrom streams the output of fill into dest. Data goes to a
// temporary file next to dest which is renamed into place only when fill
// succeeds, so a failed download never leaves a truncated file behind and
// never clobbers an existing one.
func WriteFileFrom(dest string, fill func(w io.Writer) (int64, error)) (int64, error) {
	if err := EnsureParentDir(dest); err != nil {
		return 0, err
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), "."+filepath.Base(dest)+".*.part")
	if err != nil {
		return 0, fmt.Errorf("create temp file: %w", err)
	}
	tmpName := tmp.Name()

	n, err := fill(tmp)
	if cerr := tmp.Close(); err == nil && cerr != nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(tmpName)
		return 0, err
	}

	if err := os.Rename(tmpName, dest); err != nil {
		_ = os.Remove(tmpName)
		return 0, fmt.Errorf("rename %s: %w", dest, err)
	}
	return n, nil
}
