package installer

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

const (
	libPrefix = "lib/"
	binPrefix = "bin/"
)

// placement tracks what a CLI extraction wrote
type placement struct {
	files    int
	bytes    int64
	binaries []string // Files that landed in the bin directory
}

// extractWeb unpacks the whole archive into dest, keeping its structure
func (i *Installer) extractWeb(ctx context.Context, archive string, f format, dest string) error {
	if err := os.MkdirAll(dest, 0o755); err != nil {
		return err
	}

	return walkArchive(ctx, archive, f, func(e entry) error {
		target := filepath.Join(dest, filepath.FromSlash(e.name))
		if !within(dest, target) {
			i.log.Warn("Skipping entry outside app directory", zap.String("entry", e.name))
			return nil
		}

		if e.dir {
			return os.MkdirAll(target, 0o755)
		}
		_, err := writeEntry(e, target)
		return err
	})
}

// extractCLI routes lib/ entries to the lib directory and everything else
// to the bin directory, stripping the lib/ or bin/ prefix.
func (i *Installer) extractCLI(ctx context.Context, archive string, f format) (placement, error) {
	var placed placement

	err := walkArchive(ctx, archive, f, func(e entry) error {
		name := strings.ReplaceAll(e.name, `\`, "/")

		root, rel := i.layout.CLIBin, name
		switch {
		case strings.HasPrefix(name, libPrefix):
			root, rel = i.layout.Lib, strings.TrimPrefix(name, libPrefix)
		case strings.HasPrefix(name, binPrefix):
			rel = strings.TrimPrefix(name, binPrefix)
		}
		if rel == "" || strings.Trim(rel, "/") == "" {
			return nil
		}

		target := filepath.Join(root, filepath.FromSlash(rel))
		if !within(root, target) || target == filepath.Clean(root) {
			i.log.Warn("Skipping entry outside install root", zap.String("entry", e.name))
			return nil
		}

		if e.dir {
			return os.MkdirAll(target, 0o755)
		}

		n, err := writeEntry(e, target)
		if err != nil {
			return err
		}
		placed.files++
		placed.bytes += n
		if root == i.layout.CLIBin {
			placed.binaries = append(placed.binaries, target)
		}
		i.log.Debug("Extracted file", zap.String("entry", e.name), zap.String("path", target))
		return nil
	})

	return placed, err
}
