package fsbackend

import (
	"os"
	"path/filepath"

	"github.com/foundry-mcp/foundry/internal/foundry"
)

// writeFileAtomic writes content to a sibling temp file and renames it into
// place, so a reader never observes a partially written document.
func writeFileAtomic(path, content string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return foundry.Io("create parent directory", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return foundry.Io("create temp file", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return foundry.Io("write temp file", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return foundry.Io("close temp file", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return foundry.Io("rename temp file into place", err)
	}
	return nil
}

func readFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", foundry.Io("read file", err)
	}
	return string(data), nil
}
