package scanner

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/taskdock/internal/infrastructure/logging"
	"github.com/GriffinCanCode/taskdock/internal/shared/cache"
	"github.com/GriffinCanCode/taskdock/internal/shared/paths"
	"github.com/GriffinCanCode/taskdock/internal/shared/types"
	"go.uber.org/zap"
)

// installedKey is the single sentinel both kinds are cached under
const installedKey = "installed_apps"

// Scanner enumerates installed apps from the install roots
type Scanner struct {
	layout paths.Layout
	cache  *cache.TTL[[]types.AppRecord]
	log    *zap.Logger
}

// New creates a scanner backed by the installed-apps cache
func New(layout paths.Layout, installed *cache.TTL[[]types.AppRecord], log *zap.Logger) *Scanner {
	return &Scanner{
		layout: layout,
		cache:  installed,
		log:    logging.OrNop(log),
	}
}

// Scan lists the apps of kind directly under root, sorted by name.
// A missing root yields an empty list.
func Scan(root string, kind types.Kind) ([]types.AppRecord, error) {
	entries, err := os.ReadDir(root)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read %s: %w", root, err)
	}

	var apps []types.AppRecord
	for _, entry := range entries {
		name := entry.Name()
		path := filepath.Join(root, name)

		var ok bool
		switch kind {
		case types.KindCLI:
			ok = isCLIApp(path, name)
		case types.KindWeb:
			ok = isWebApp(entry, path)
		default:
			return nil, fmt.Errorf("%w: %q", types.ErrUnknownKind, kind)
		}

		if ok {
			apps = append(apps, types.AppRecord{Name: name, Kind: kind, InstallPath: path})
		}
	}
	return apps, nil
}

// isCLIApp accepts visible, non-script regular files with any execute bit
func isCLIApp(path, name string) bool {
	if strings.HasPrefix(name, ".") || strings.HasSuffix(name, ".py") {
		return false
	}
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return false
	}
	return info.Mode().Perm()&0o111 != 0
}

// isWebApp accepts real directories holding the entry point. Symlinked
// directories are not followed.
func isWebApp(entry fs.DirEntry, path string) bool {
	if !entry.IsDir() {
		return false
	}
	_, err := os.Stat(filepath.Join(path, paths.EntryPoint))
	return err == nil
}

// All returns the installed apps of both kinds, CLI first
func (s *Scanner) All() []types.AppRecord {
	apps, err := s.cache.GetOrFetch(installedKey, func() ([]types.AppRecord, error) {
		return s.scanAll(), nil
	})
	if err != nil {
		s.log.Warn("Installed app scan unavailable", zap.Error(err))
		return nil
	}

	out := make([]types.AppRecord, len(apps))
	copy(out, apps)
	return out
}

// Installed returns the installed apps of kind
func (s *Scanner) Installed(kind types.Kind) []types.AppRecord {
	var out []types.AppRecord
	for _, app := range s.All() {
		if app.Kind == kind {
			out = append(out, app)
		}
	}
	return out
}

// Names returns the installed app names of kind
func (s *Scanner) Names(kind types.Kind) []string {
	apps := s.Installed(kind)
	names := make([]string, 0, len(apps))
	for _, app := range apps {
		names = append(names, app.Name)
	}
	return names
}

// Find looks up one installed app
func (s *Scanner) Find(name string, kind types.Kind) (types.AppRecord, bool) {
	for _, app := range s.All() {
		if app.Name == name && app.Kind == kind {
			return app, true
		}
	}
	return types.AppRecord{}, false
}

// Invalidate drops the cached scan so the next read rescans both roots
func (s *Scanner) Invalidate() {
	s.cache.Invalidate(installedKey)
}

func (s *Scanner) scanAll() []types.AppRecord {
	var all []types.AppRecord

	for _, root := range []struct {
		dir  string
		kind types.Kind
	}{
		{s.layout.CLIBin, types.KindCLI},
		{s.layout.WebApps, types.KindWeb},
	} {
		apps, err := Scan(root.dir, root.kind)
		if err != nil {
			s.log.Warn("Failed to scan install root",
				zap.String("path", root.dir),
				zap.String("kind", string(root.kind)),
				zap.Error(err))
			continue
		}
		all = append(all, apps...)
	}

	s.log.Debug("Scanned install roots", zap.Int("apps", len(all)))
	return all
}
