package installer

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/GriffinCanCode/taskdock/internal/infrastructure/logging"
	"github.com/GriffinCanCode/taskdock/internal/shared/paths"
	"github.com/GriffinCanCode/taskdock/internal/shared/types"
	"go.uber.org/zap"
)

var (
	ErrDownloadFailed     = errors.New("download failed")
	ErrUnsupportedArchive = errors.New("unsupported archive format")
	ErrInvalidName        = paths.ErrInvalidName
)

// binMode is applied to every file landing in the CLI bin directory
const binMode fs.FileMode = 0o755

// Fetcher downloads a package archive
type Fetcher interface {
	Get(ctx context.Context, url string) ([]byte, error)
}

// Resolver maps a package file name to its download URL
type Resolver interface {
	PackageURL(file string, kind types.Kind) (string, error)
}

// Invalidator is told whenever the install roots change
type Invalidator interface {
	Invalidate()
}

// Installer downloads, extracts and removes app packages
type Installer struct {
	layout  paths.Layout
	urls    Resolver
	fetcher Fetcher
	scanner Invalidator
	log     *zap.Logger
}

// New creates an installer
func New(layout paths.Layout, urls Resolver, fetcher Fetcher, scanner Invalidator, log *zap.Logger) *Installer {
	return &Installer{
		layout:  layout,
		urls:    urls,
		fetcher: fetcher,
		scanner: scanner,
		log:     logging.OrNop(log),
	}
}

// Install fetches pkg from the store and unpacks it for kind.
// A failed download leaves the filesystem untouched; a failure after that
// aborts without rolling back what was already written.
func (i *Installer) Install(ctx context.Context, pkg string, kind types.Kind) (types.InstallReport, error) {
	report := types.InstallReport{Package: pkg, Kind: kind}

	if err := paths.ValidateName(pkg); err != nil {
		return report, fmt.Errorf("%w: %q", ErrInvalidName, pkg)
	}
	root, err := i.root(kind)
	if err != nil {
		return report, err
	}
	url, err := i.urls.PackageURL(pkg, kind)
	if err != nil {
		return report, err
	}

	log := i.log.With(zap.String("package", pkg), zap.String("kind", string(kind)))
	log.Info("Downloading package", zap.String("url", url))

	start := time.Now()
	data, err := i.fetcher.Get(ctx, url)
	if err != nil {
		log.Warn("Package download failed", zap.Error(err))
		return report, fmt.Errorf("%w: %s: %w", ErrDownloadFailed, pkg, err)
	}

	report.Checksum = checksum(data)
	log = log.With(zap.String("checksum", report.Checksum))

	// From here on the install roots change
	defer i.scanner.Invalidate()

	if err := i.ensureRoots(kind); err != nil {
		log.Error("Failed to create install roots", zap.Error(err))
		return report, err
	}

	temp := filepath.Join(root, "."+pkg+".download")
	if err := os.WriteFile(temp, data, 0o600); err != nil {
		log.Error("Failed to persist archive", zap.String("path", temp), zap.Error(err))
		return report, fmt.Errorf("failed to write archive: %w", err)
	}
	defer func() {
		if err := os.Remove(temp); err != nil && !errors.Is(err, fs.ErrNotExist) {
			log.Warn("Failed to remove temporary archive", zap.String("path", temp), zap.Error(err))
		}
	}()

	format, err := detectFormat(temp, pkg)
	if err != nil {
		log.Warn("Unrecognised archive", zap.Error(err))
		return report, err
	}

	switch kind {
	case types.KindWeb:
		report.Destination = i.layout.WebAppDir(appName(pkg))
		err = i.extractWeb(ctx, temp, format, report.Destination)
		if err == nil {
			report.Files, report.Bytes, err = measure(report.Destination)
		}
	case types.KindCLI:
		report.Destination = i.layout.CLIBin
		var placed placement
		placed, err = i.extractCLI(ctx, temp, format)
		report.Files, report.Bytes = placed.files, placed.bytes
		if chmodErr := markExecutable(placed.binaries); chmodErr != nil {
			log.Warn("Failed to mark binaries executable", zap.Error(chmodErr))
			err = errors.Join(err, chmodErr)
		}
	}

	if err != nil {
		log.Error("Install aborted, partial files may remain",
			zap.String("path", report.Destination),
			zap.Error(err))
		return report, fmt.Errorf("install %s: %w", pkg, err)
	}

	log.Info("Package installed",
		zap.String("path", report.Destination),
		zap.Int("files", report.Files),
		zap.Int64("bytes", report.Bytes),
		zap.Duration("elapsed", time.Since(start)))
	return report, nil
}

// Delete removes an installed app. A missing app is not an error.
func (i *Installer) Delete(name string, kind types.Kind) error {
	if err := paths.ValidateName(name); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}

	var (
		target string
		err    error
	)
	switch kind {
	case types.KindCLI:
		target = i.layout.CLIBinary(name)
		err = os.Remove(target)
	case types.KindWeb:
		target = i.layout.WebAppDir(name)
		if _, statErr := os.Lstat(target); statErr != nil {
			err = statErr
		} else {
			err = os.RemoveAll(target)
		}
	default:
		return fmt.Errorf("%w: %q", types.ErrUnknownKind, kind)
	}

	if errors.Is(err, fs.ErrNotExist) {
		i.log.Debug("Nothing to delete", zap.String("app", name), zap.String("path", target))
		return nil
	}
	if err != nil {
		i.log.Error("Failed to delete app", zap.String("app", name), zap.String("path", target), zap.Error(err))
		return fmt.Errorf("delete %s: %w", name, err)
	}

	i.scanner.Invalidate()
	i.log.Info("App deleted", zap.String("app", name), zap.String("kind", string(kind)), zap.String("path", target))
	return nil
}

func (i *Installer) root(kind types.Kind) (string, error) {
	switch kind {
	case types.KindCLI:
		return i.layout.CLIBin, nil
	case types.KindWeb:
		return i.layout.WebApps, nil
	default:
		return "", fmt.Errorf("%w: %q", types.ErrUnknownKind, kind)
	}
}

func (i *Installer) ensureRoots(kind types.Kind) error {
	dirs := []string{i.layout.WebApps}
	if kind == types.KindCLI {
		dirs = []string{i.layout.CLIBin, i.layout.Lib}
	}
	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create %s: %w", dir, err)
		}
	}
	return nil
}

// appName derives the web app directory name from a package file name
func appName(pkg string) string {
	if name, ok := paths.TrimArchiveExt(pkg); ok {
		return name
	}
	return strings.TrimSuffix(pkg, filepath.Ext(pkg))
}

func markExecutable(files []string) error {
	var errs []error
	for _, f := range files {
		if err := os.Chmod(f, binMode); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
