package pipeline

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"
)

// BackupExisting renames a non-empty dir to "<dir>_<timestamp>" so a run
// never writes over earlier output. It returns the backup path, or "" when
// there was nothing to move.
func BackupExisting(dir string, now time.Time) (string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("inspect %s: %w", dir, err)
	}
	if len(entries) == 0 {
		return "", nil
	}

	stamp := now.Format("20060102-150405")
	backup := dir + "_" + stamp
	for i := 2; ; i++ {
		if _, err := os.Stat(backup); errors.Is(err, fs.ErrNotExist) {
			break
		}
		backup = fmt.Sprintf("%s_%s-%d", dir, stamp, i)
	}
	if err := os.Rename(dir, backup); err != nil {
		return "", fmt.Errorf("back up %s: %w", dir, err)
	}
	return backup, nil
}
