package cli

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// osFilesystem satisfies editor.Filesystem against real files rooted at
// dir, the editor's Filesystem collaborator backed by the host
// filesystem instead of a simulated disk image.
type osFilesystem struct {
	dir string
}

func newOSFilesystem(dir string) *osFilesystem {
	return &osFilesystem{dir: dir}
}

func (f *osFilesystem) CanonicalName(name string) (string, error) {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" {
		return "", fmt.Errorf("editor: empty filename")
	}
	if filepath.IsAbs(trimmed) {
		return "", fmt.Errorf("editor: absolute paths are not permitted: %q", trimmed)
	}
	return filepath.Clean(trimmed), nil
}

func (f *osFilesystem) EnsureFile(name string) (string, error) {
	canonical, err := f.CanonicalName(name)
	if err != nil {
		return "", err
	}
	path := filepath.Join(f.dir, canonical)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, nil, 0o644); err != nil {
			return "", fmt.Errorf("editor: creating %q: %w", canonical, err)
		}
	}
	return canonical, nil
}

func (f *osFilesystem) ReadFile(canonical string) (string, bool) {
	data, err := os.ReadFile(filepath.Join(f.dir, canonical))
	if err != nil {
		return "", false
	}
	return string(data), true
}

func (f *osFilesystem) WriteFile(name, contents string) error {
	canonical, err := f.CanonicalName(name)
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(f.dir, canonical), []byte(contents), 0o644)
}
