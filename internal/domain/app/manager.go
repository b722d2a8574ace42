package app

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/GriffinCanCode/taskdock/internal/infrastructure/logging"
	"github.com/GriffinCanCode/taskdock/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/taskdock/internal/shared/types"
	"go.uber.org/zap"
)

// Scanner reports installed apps
type Scanner interface {
	All() []types.AppRecord
	Installed(kind types.Kind) []types.AppRecord
	Names(kind types.Kind) []string
}

// Tracker runs app processes
type Tracker interface {
	Start(ctx context.Context, name string, kind types.Kind) (types.ProcessRecord, error)
	Stop(pid int) error
	ListRunning(ctx context.Context) ([]types.RunningApp, error)
	ResolvePort(ctx context.Context, pid int) (int, error)
}

// Installer adds and removes packages
type Installer interface {
	Install(ctx context.Context, pkg string, kind types.Kind) (types.InstallReport, error)
	Delete(name string, kind types.Kind) error
}

// AutoStart edits launch-at-login directives
type AutoStart interface {
	Enable(name string, kind types.Kind) error
	Disable(name string) error
	IsEnabled(name string, kind types.Kind) (bool, error)
	Statuses(apps []types.AppRecord) ([]types.AutoStartStatus, error)
}

// Catalog reads the remote store
type Catalog interface {
	Available(ctx context.Context, kind types.Kind, installed []string) ([]types.Package, error)
	Catalog(ctx context.Context, kind types.Kind) (map[string]types.CatalogEntry, error)
	Describe(ctx context.Context, name string, kind types.Kind) (types.CatalogEntry, bool)
	Extras(ctx context.Context) ([]types.Extra, error)
}

// Deps groups the components a Manager composes
type Deps struct {
	Scanner   Scanner
	Tracker   Tracker
	Installer Installer
	AutoStart AutoStart
	Catalog   Catalog
}

// Manager is the single entry point for app lifecycle operations.
// Mutations run one at a time; reads do not block on them.
type Manager struct {
	mu      sync.Mutex // Serialises mutating operations
	deps    Deps
	metrics *monitoring.Metrics
	log     *zap.Logger
}

// NewManager creates a new app manager
func NewManager(deps Deps, log *zap.Logger) *Manager {
	return &Manager{
		deps: deps,
		log:  logging.OrNop(log),
	}
}

// WithMetrics adds metrics tracking to the manager
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// ListInstalled returns installed apps of kind, or of both kinds when kind
// is empty.
func (m *Manager) ListInstalled(kind types.Kind) []types.AppRecord {
	all := m.deps.Scanner.All()
	if m.metrics != nil {
		m.metrics.SetAppsInstalled(string(types.KindCLI), countKind(all, types.KindCLI))
		m.metrics.SetAppsInstalled(string(types.KindWeb), countKind(all, types.KindWeb))
	}

	if kind == "" {
		if all == nil {
			all = []types.AppRecord{}
		}
		return all
	}
	out := make([]types.AppRecord, 0, len(all))
	for _, app := range all {
		if app.Kind == kind {
			out = append(out, app)
		}
	}
	return out
}

// ListRunning returns running apps. A failed process listing is logged and
// the apps known without it are returned.
func (m *Manager) ListRunning(ctx context.Context) []types.RunningApp {
	running, err := m.deps.Tracker.ListRunning(ctx)
	if err != nil {
		m.log.Warn("Running app listing incomplete", zap.Error(err))
	}
	if m.metrics != nil {
		m.metrics.SetAppsRunning(len(running))
	}
	if running == nil {
		running = []types.RunningApp{}
	}
	return running
}

// Start launches an installed app
func (m *Manager) Start(ctx context.Context, name string, kind types.Kind) (types.ProcessRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	timer := monitoring.NewTimer(m.metrics, "start", string(kind))
	rec, err := m.deps.Tracker.Start(ctx, name, kind)
	timer.Stop(err)

	if err != nil {
		m.log.Error("Failed to start app", zap.String("app", name), zap.String("kind", string(kind)), zap.Error(err))
		return types.ProcessRecord{}, err
	}
	return rec, nil
}

// Stop terminates a running app by pid
func (m *Manager) Stop(pid int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	timer := monitoring.NewTimer(m.metrics, "stop", "")
	err := m.deps.Tracker.Stop(pid)
	timer.Stop(err)

	if err != nil {
		m.log.Warn("Failed to stop app", zap.Int("pid", pid), zap.Error(err))
	}
	return err
}

// ResolvePort returns the port a running app listens on
func (m *Manager) ResolvePort(ctx context.Context, pid int) (int, error) {
	return m.deps.Tracker.ResolvePort(ctx, pid)
}

// Install downloads and unpacks a package file such as weatherapp.zip
func (m *Manager) Install(ctx context.Context, file string, kind types.Kind) (types.InstallReport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	timer := monitoring.NewTimer(m.metrics, "install", string(kind))
	report, err := m.deps.Installer.Install(ctx, file, kind)
	timer.Stop(err)

	if err != nil {
		m.log.Error("Failed to install package", zap.String("package", file), zap.String("kind", string(kind)), zap.Error(err))
		return report, err
	}
	return report, nil
}

// Delete removes an installed app. Deleting an absent app succeeds.
func (m *Manager) Delete(name string, kind types.Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	timer := monitoring.NewTimer(m.metrics, "delete", string(kind))
	err := m.deps.Installer.Delete(name, kind)
	timer.Stop(err)

	if err != nil {
		m.log.Error("Failed to delete app", zap.String("app", name), zap.String("kind", string(kind)), zap.Error(err))
	}
	return err
}

// EnableAutoStart adds a launch-at-login directive
func (m *Manager) EnableAutoStart(name string, kind types.Kind) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	timer := monitoring.NewTimer(m.metrics, "autostart_enable", string(kind))
	err := m.deps.AutoStart.Enable(name, kind)
	timer.Stop(err)

	if err != nil {
		m.log.Error("Failed to enable auto-start", zap.String("app", name), zap.Error(err))
	}
	return err
}

// DisableAutoStart removes an app's launch-at-login directive
func (m *Manager) DisableAutoStart(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	timer := monitoring.NewTimer(m.metrics, "autostart_disable", "")
	err := m.deps.AutoStart.Disable(name)
	timer.Stop(err)

	if err != nil {
		m.log.Error("Failed to disable auto-start", zap.String("app", name), zap.Error(err))
	}
	return err
}

// IsAutoStartEnabled reports whether the app launches at login. An
// unreadable profile counts as disabled.
func (m *Manager) IsAutoStartEnabled(name string, kind types.Kind) bool {
	enabled, err := m.deps.AutoStart.IsEnabled(name, kind)
	if err != nil {
		m.log.Warn("Failed to read auto-start state", zap.String("app", name), zap.Error(err))
		return false
	}
	return enabled
}

// AutoStartStatuses reports the directive state of every installed app
func (m *Manager) AutoStartStatuses() []types.AutoStartStatus {
	statuses, err := m.deps.AutoStart.Statuses(m.deps.Scanner.All())
	if err != nil {
		m.log.Warn("Failed to read auto-start state", zap.Error(err))
		return []types.AutoStartStatus{}
	}
	return statuses
}

// Available lists store packages of kind that are not installed. An
// unreachable store yields an empty list.
func (m *Manager) Available(ctx context.Context, kind types.Kind) []types.Package {
	packages, err := m.deps.Catalog.Available(ctx, kind, m.deps.Scanner.Names(kind))
	if err != nil {
		m.log.Warn("Package listing unavailable", zap.String("kind", string(kind)), zap.Error(err))
		return []types.Package{}
	}
	return packages
}

// Catalog returns store metadata for kind, empty when unavailable
func (m *Manager) Catalog(ctx context.Context, kind types.Kind) map[string]types.CatalogEntry {
	entries, err := m.deps.Catalog.Catalog(ctx, kind)
	if err != nil {
		m.log.Warn("Catalog unavailable", zap.String("kind", string(kind)), zap.Error(err))
		return map[string]types.CatalogEntry{}
	}
	return entries
}

// Describe returns store metadata for one app
func (m *Manager) Describe(ctx context.Context, name string, kind types.Kind) (types.CatalogEntry, bool) {
	return m.deps.Catalog.Describe(ctx, name, kind)
}

// Extras lists the binary downloads on the extras root
func (m *Manager) Extras(ctx context.Context) []types.Extra {
	extras, err := m.deps.Catalog.Extras(ctx)
	if err != nil {
		m.log.Warn("Extras unavailable", zap.Error(err))
		return []types.Extra{}
	}
	return extras
}

// ManagedWebApps joins installed web apps with their run state. Running
// apps come first, then alphabetical order.
func (m *Manager) ManagedWebApps(ctx context.Context) []types.ManagedApp {
	installed := m.deps.Scanner.Installed(types.KindWeb)

	byName := make(map[string]types.RunningApp)
	for _, r := range m.ListRunning(ctx) {
		if r.Kind == types.KindCLI {
			continue
		}
		if prev, ok := byName[r.Name]; ok && prev.Tracked {
			continue
		}
		byName[r.Name] = r
	}

	managed := make([]types.ManagedApp, 0, len(installed))
	for _, app := range installed {
		entry := types.ManagedApp{Name: app.Name}
		if r, ok := byName[app.Name]; ok {
			entry.Running = true
			entry.PID = r.PID
			entry.Port = r.Port
			if entry.Port == nil {
				if port, err := m.deps.Tracker.ResolvePort(ctx, r.PID); err == nil {
					entry.Port = types.IntPtr(port)
				}
			}
		}
		managed = append(managed, entry)
	}

	slices.SortStableFunc(managed, func(a, b types.ManagedApp) int {
		if a.Running != b.Running {
			if a.Running {
				return -1
			}
			return 1
		}
		return strings.Compare(a.Name, b.Name)
	})
	return managed
}

func countKind(apps []types.AppRecord, kind types.Kind) int {
	n := 0
	for _, app := range apps {
		if app.Kind == kind {
			n++
		}
	}
	return n
}
