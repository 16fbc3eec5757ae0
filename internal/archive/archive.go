package archive

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Dir moves dir to <parent>/archive/<prefix>-<timestamp> and returns the
// new location. A missing dir is reported with an error wrapping os.ErrNotExist.
func Dir(dir, prefix string, now time.Time) (string, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return "", fmt.Errorf("cannot archive %s: %w", dir, err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("cannot archive %s: not a directory", dir)
	}

	// Get parent directory and create archive path
	archiveDir := filepath.Join(filepath.Dir(filepath.Clean(dir)), "archive")
	if err := os.MkdirAll(archiveDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	archivePath := filepath.Join(archiveDir, fmt.Sprintf("%s-%s", prefix, now.Format("20060102-150405")))

	// Two archives within the same second get a finer timestamp, then a counter
	if exists(archivePath) {
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s", prefix, now.Format("20060102-150405.000000")))
	}
	for i := 1; exists(archivePath); i++ {
		archivePath = filepath.Join(archiveDir, fmt.Sprintf("%s-%s-%d", prefix, now.Format("20060102-150405.000000"), i))
	}

	if err := os.Rename(dir, archivePath); err != nil {
		return "", fmt.Errorf("failed to archive %s: %w", dir, err)
	}

	return archivePath, nil
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
