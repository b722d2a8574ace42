package scanner

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/GriffinCanCode/taskdock/internal/shared/cache"
	"github.com/GriffinCanCode/taskdock/internal/shared/paths"
	"github.com/GriffinCanCode/taskdock/internal/shared/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path string, mode os.FileMode) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"), mode))
}

func names(apps []types.AppRecord) []string {
	out := make([]string, 0, len(apps))
	for _, a := range apps {
		out = append(out, a.Name)
	}
	return out
}

func TestScanCLI(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "nano"), 0755)
	writeFile(t, filepath.Join(root, "htop"), 0700)
	writeFile(t, filepath.Join(root, "notes.txt"), 0644)
	writeFile(t, filepath.Join(root, "helper.py"), 0755)
	writeFile(t, filepath.Join(root, ".hidden"), 0755)
	require.NoError(t, os.Mkdir(filepath.Join(root, "subdir"), 0755))

	apps, err := Scan(root, types.KindCLI)
	require.NoError(t, err)

	assert.Equal(t, []string{"htop", "nano"}, names(apps))
	assert.Equal(t, filepath.Join(root, "htop"), apps[0].InstallPath)
	assert.Equal(t, types.KindCLI, apps[0].Kind)
}

func TestScanWeb(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "weatherapp", paths.EntryPoint), 0644)
	writeFile(t, filepath.Join(root, "notes", paths.EntryPoint), 0644)
	writeFile(t, filepath.Join(root, "broken", "main.py"), 0644)
	writeFile(t, filepath.Join(root, "deep", "nested", paths.EntryPoint), 0644)
	writeFile(t, filepath.Join(root, "loose.py"), 0644)

	// Symlinked app directories are not followed
	require.NoError(t, os.Symlink(filepath.Join(root, "notes"), filepath.Join(root, "linked")))

	apps, err := Scan(root, types.KindWeb)
	require.NoError(t, err)

	assert.Equal(t, []string{"notes", "weatherapp"}, names(apps))
}

func TestScanMissingRoot(t *testing.T) {
	apps, err := Scan(filepath.Join(t.TempDir(), "absent"), types.KindWeb)
	require.NoError(t, err)
	assert.Empty(t, apps)
}

func TestScanUnknownKind(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "x"), 0755)

	_, err := Scan(root, types.Kind("apk"))
	assert.ErrorIs(t, err, types.ErrUnknownKind)
}

type testClock struct{ now time.Time }

func (c *testClock) Now() time.Time { return c.now }

func newScanner(t *testing.T, clock *testClock) (*Scanner, paths.Layout) {
	dir := t.TempDir()
	layout := paths.NewLayout(
		filepath.Join(dir, "bin"),
		filepath.Join(dir, "lib"),
		filepath.Join(dir, "apps"),
		filepath.Join(dir, ".profile"),
	)
	installed := cache.New[[]types.AppRecord](time.Minute).WithClock(clock.Now)
	return New(layout, installed, nil), layout
}

func TestScannerCachesBothKinds(t *testing.T) {
	clock := &testClock{now: time.Now()}
	s, layout := newScanner(t, clock)

	writeFile(t, layout.CLIBinary("nano"), 0755)
	writeFile(t, layout.WebEntryPoint("weatherapp"), 0644)

	assert.Equal(t, []string{"nano", "weatherapp"}, names(s.All()))
	assert.Equal(t, []string{"weatherapp"}, s.Names(types.KindWeb))

	// New install is invisible until the TTL runs out
	writeFile(t, layout.WebEntryPoint("notes"), 0644)
	assert.Equal(t, []string{"weatherapp"}, names(s.Installed(types.KindWeb)))

	clock.now = clock.now.Add(61 * time.Second)
	assert.Equal(t, []string{"notes", "weatherapp"}, names(s.Installed(types.KindWeb)))
}

func TestScannerInvalidate(t *testing.T) {
	clock := &testClock{now: time.Now()}
	s, layout := newScanner(t, clock)

	assert.Empty(t, s.All())

	writeFile(t, layout.CLIBinary("htop"), 0755)
	assert.Empty(t, s.All())

	s.Invalidate()
	app, ok := s.Find("htop", types.KindCLI)
	require.True(t, ok)
	assert.Equal(t, layout.CLIBinary("htop"), app.InstallPath)

	_, ok = s.Find("htop", types.KindWeb)
	assert.False(t, ok)
}

func TestScannerReturnsCopies(t *testing.T) {
	clock := &testClock{now: time.Now()}
	s, layout := newScanner(t, clock)
	writeFile(t, layout.CLIBinary("nano"), 0755)

	apps := s.All()
	apps[0].Name = "mutated"

	assert.Equal(t, []string{"nano"}, names(s.All()))
}
