// Package archive relocates committed source files out of the live invoice
// directory. Callers invoke Move only after a successful sink write, so files
// for unextracted groups remain in place for a future pass.
package archive

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

// Move relocates each path into targetDir, creating it as needed. Name
// collisions are suffixed rather than overwritten. Individual failures are
// logged and skipped; the batch never aborts over an archival error.
func Move(paths []string, targetDir string, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := os.MkdirAll(targetDir, 0o755); err != nil {
		logger.Error("archive.mkdir_failed", "dir", targetDir, "error", err)
		return
	}

	for _, fp := range paths {
		filename := filepath.Base(fp)
		target := filepath.Join(targetDir, filename)

		if _, err := os.Stat(target); err == nil {
			ext := filepath.Ext(filename)
			base := strings.TrimSuffix(filename, ext)
			target = filepath.Join(targetDir, base+"_duplicate"+ext)
		}

		if err := moveFile(fp, target); err != nil {
			logger.Error("archive.move_failed", "path", fp, "error", err)
			continue
		}
		logger.Info("archive.moved", "from", fp, "to", target)
	}
}

// moveFile renames, falling back to copy+remove for cross-device targets.
func moveFile(src, dst string) error {
	if err := os.Rename(src, dst); err == nil {
		return nil
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	out, err := os.Create(dst)
	if err != nil {
		_ = in.Close()
		return err
	}
	_, copyErr := io.Copy(out, in)
	_ = in.Close()
	if closeErr := out.Close(); copyErr == nil {
		copyErr = closeErr
	}
	if copyErr != nil {
		return fmt.Errorf("copy: %w", copyErr)
	}
	return os.Remove(src)
}
