package util

import (
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
)

// SetupInterruptHandler sweeps half-written cache assets before exiting on
// SIGINT/SIGTERM.
func SetupInterruptHandler(cacheDir string) {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	go func() {
		<-sig
		slog.Info("interrupt received, cleaning up")
		CleanupPartFiles(cacheDir)
		os.Exit(1)
	}()
}

// CleanupPartFiles removes leftover temp files from interrupted asset writes.
// The file store renames finished assets into place, so anything still named
// .part-* is garbage.
func CleanupPartFiles(root string) {
	_ = filepath.WalkDir(root, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if strings.HasPrefix(d.Name(), ".part-") {
			if rerr := os.Remove(path); rerr == nil {
				slog.Debug("removed stale temp file", "path", path)
			}
		}
		return nil
	})
}
