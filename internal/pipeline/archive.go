package pipeline

import (
	"os"
	"path/filepath"
)

// archiveSource keeps a content-addressed copy of an imported source under
// dir. Existing snapshots are not rewritten.
func archiveSource(dir, hash string, inputType InputType, blob []byte) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}

	path := filepath.Join(dir, hash+"."+string(inputType))
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, blob, 0o644); err != nil {
			return "", err
		}
	}
	return path, nil
}
