package process

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/GriffinCanCode/taskdock/internal/domain/ports"
	"github.com/GriffinCanCode/taskdock/internal/infrastructure/logging"
	"github.com/GriffinCanCode/taskdock/internal/shared/paths"
	"github.com/GriffinCanCode/taskdock/internal/shared/types"
	"go.uber.org/zap"
)

var (
	ErrAppNotFound     = errors.New("app not found")
	ErrNoPortDeclared  = errors.New("no port declared in entry point")
	ErrInvalidPID      = errors.New("invalid pid")
	ErrPortNotDetected = errors.New("port not detected")
)

// StartupError reports a child that exited before the grace period ended
type StartupError struct {
	App      string
	PID      int
	ExitCode int
	Output   string
}

func (e *StartupError) Error() string {
	return fmt.Sprintf("app %s (pid %d) exited during startup with code %d", e.App, e.PID, e.ExitCode)
}

// PortDetector resolves the listening port of a running process
type PortDetector interface {
	Detect(ctx context.Context, t ports.Target) (int, string, bool)
}

// Config holds tracker settings
type Config struct {
	Layout      paths.Layout
	Interpreter string        // Runs web app entry points
	StartGrace  time.Duration // Wait before checking for an early exit
	OutputLimit int
	SelfName    string
}

// child is a process spawned by this tracker
type child struct {
	cmd      *exec.Cmd
	command  string
	output   *outputBuffer
	done     chan struct{}
	exitCode int // Valid once done is closed
}

// Tracker starts and stops app processes and answers which apps are running.
// Spawned processes are mapped explicitly; anything else is classified from
// its command line.
type Tracker struct {
	cfg        Config
	registry   *Registry
	lister     Lister
	classifier *Classifier
	detector   PortDetector
	log        *zap.Logger
	selfPID    int

	mu       sync.Mutex
	children map[int]*child // Protected by mu
}

// NewTracker creates a tracker over registry
func NewTracker(cfg Config, registry *Registry, lister Lister, detector PortDetector, log *zap.Logger) *Tracker {
	if cfg.Interpreter == "" {
		cfg.Interpreter = "python3"
	}
	if cfg.StartGrace <= 0 {
		cfg.StartGrace = 2 * time.Second
	}
	if registry == nil {
		registry = NewRegistry()
	}
	if lister == nil {
		lister = GopsutilLister{}
	}

	return &Tracker{
		cfg:        cfg,
		registry:   registry,
		lister:     lister,
		classifier: NewClassifier(cfg.Layout, cfg.SelfName),
		detector:   detector,
		log:        logging.OrNop(log),
		selfPID:    os.Getpid(),
		children:   make(map[int]*child),
	}
}

// Registry exposes the tracker's pid registry
func (t *Tracker) Registry() *Registry {
	return t.registry
}

// Start spawns an installed app and records it. Web apps must declare their
// port in the entry point; that port is recorded as-is.
func (t *Tracker) Start(ctx context.Context, name string, kind types.Kind) (types.ProcessRecord, error) {
	if err := paths.ValidateName(name); err != nil {
		return types.ProcessRecord{}, fmt.Errorf("%w: %q", err, name)
	}

	var (
		cmd  *exec.Cmd
		port *int
	)
	switch kind {
	case types.KindWeb:
		entry := t.cfg.Layout.WebEntryPoint(name)
		source, err := os.ReadFile(entry)
		if errors.Is(err, fs.ErrNotExist) {
			return types.ProcessRecord{}, fmt.Errorf("%w: %s", ErrAppNotFound, entry)
		}
		if err != nil {
			return types.ProcessRecord{}, fmt.Errorf("read entry point: %w", err)
		}

		declared, ok := ports.Declared(string(source))
		if !ok {
			return types.ProcessRecord{}, fmt.Errorf("%w: %s", ErrNoPortDeclared, entry)
		}
		port = types.IntPtr(declared)

		cmd = exec.Command(t.cfg.Interpreter, entry)
		cmd.Dir = t.cfg.Layout.WebAppDir(name)

	case types.KindCLI:
		bin := t.cfg.Layout.CLIBinary(name)
		info, err := os.Stat(bin)
		if errors.Is(err, fs.ErrNotExist) || (err == nil && info.IsDir()) {
			return types.ProcessRecord{}, fmt.Errorf("%w: %s", ErrAppNotFound, bin)
		}
		if err != nil {
			return types.ProcessRecord{}, fmt.Errorf("stat binary: %w", err)
		}
		if info.Mode().Perm()&0100 == 0 {
			if err := os.Chmod(bin, info.Mode().Perm()|0100); err != nil {
				return types.ProcessRecord{}, fmt.Errorf("mark executable: %w", err)
			}
		}

		cmd = exec.Command(bin)

	default:
		return types.ProcessRecord{}, fmt.Errorf("%w: %q", types.ErrUnknownKind, kind)
	}

	c, err := t.spawn(cmd)
	if err != nil {
		return types.ProcessRecord{}, fmt.Errorf("spawn %s: %w", name, err)
	}

	pid := cmd.Process.Pid
	rec := types.ProcessRecord{
		PID:       pid,
		AppName:   name,
		Kind:      kind,
		Port:      port,
		Origin:    types.OriginSpawned,
		StartedAt: time.Now(),
	}
	t.registry.Insert(rec)

	log := t.log.With(zap.String("app", name), zap.String("kind", string(kind)), zap.Int("pid", pid))
	if port != nil {
		log = log.With(zap.Int("port", *port))
	}
	log.Info("App started")

	go t.reap(pid, c, rec.StartedAt)

	timer := time.NewTimer(t.cfg.StartGrace)
	defer timer.Stop()

	select {
	case <-c.done:
		t.registry.RemoveIf(pid, sameSpawn(rec.StartedAt))
		serr := &StartupError{App: name, PID: pid, ExitCode: c.exitCode, Output: c.output.String()}
		log.Error("App exited during startup", zap.Int("exit_code", c.exitCode), zap.String("output", serr.Output))
		return types.ProcessRecord{}, serr
	case <-timer.C:
	case <-ctx.Done():
		log.Debug("Startup check abandoned", zap.Error(ctx.Err()))
	}

	return rec, nil
}

func (t *Tracker) spawn(cmd *exec.Cmd) (*child, error) {
	out := newOutputBuffer(t.cfg.OutputLimit)
	cmd.Stdout = out
	cmd.Stderr = out
	cmd.SysProcAttr = sysProcAttr()
	// Grandchildren holding the pipes must not block reaping
	cmd.WaitDelay = time.Second

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	c := &child{cmd: cmd, command: cmd.String(), output: out, done: make(chan struct{})}
	t.mu.Lock()
	t.children[cmd.Process.Pid] = c
	t.mu.Unlock()
	return c, nil
}

// reap waits for a spawned child and drops its registry entry on exit
func (t *Tracker) reap(pid int, c *child, started time.Time) {
	err := c.cmd.Wait()
	c.exitCode = c.cmd.ProcessState.ExitCode()
	close(c.done)

	t.mu.Lock()
	delete(t.children, pid)
	t.mu.Unlock()

	if t.registry.RemoveIf(pid, sameSpawn(started)) {
		t.log.Info("App exited", zap.Int("pid", pid), zap.Int("exit_code", c.exitCode), zap.Error(err))
	}
}

func sameSpawn(started time.Time) func(types.ProcessRecord) bool {
	return func(rec types.ProcessRecord) bool {
		return rec.Origin == types.OriginSpawned && rec.StartedAt.Equal(started)
	}
}

// Stop sends SIGTERM to pid. The registry entry is removed whether or not
// the signal could be delivered; there is no escalation and no wait.
func (t *Tracker) Stop(pid int) error {
	if pid <= 0 || pid == t.selfPID {
		return fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}
	t.registry.Remove(pid)

	t.mu.Lock()
	c := t.children[pid]
	t.mu.Unlock()

	var proc *os.Process
	if c != nil {
		proc = c.cmd.Process
	} else {
		var err error
		if proc, err = os.FindProcess(pid); err != nil {
			return fmt.Errorf("find process %d: %w", pid, err)
		}
	}

	if err := proc.Signal(syscall.SIGTERM); err != nil {
		t.log.Warn("Failed to signal process", zap.Int("pid", pid), zap.Error(err))
		return fmt.Errorf("signal %d: %w", pid, err)
	}
	t.log.Info("App stopped", zap.Int("pid", pid))
	return nil
}

// ListRunning returns spawned apps first, then processes the classifier
// recognises. A lister failure still yields the spawned apps.
func (t *Tracker) ListRunning(ctx context.Context) ([]types.RunningApp, error) {
	entries, listErr := t.lister.List(ctx)
	if listErr != nil {
		t.log.Warn("Process listing failed", zap.Error(listErr))
	}

	commands := make(map[int]string, len(entries))
	for _, e := range entries {
		commands[e.PID] = e.Command
	}

	var running []types.RunningApp
	tracked := make(map[int]bool)

	for _, rec := range t.registry.List() {
		if rec.Origin != types.OriginSpawned {
			continue
		}
		cmd, ok := commands[rec.PID]
		if !ok {
			cmd = t.spawnedCommand(rec.PID)
		}
		tracked[rec.PID] = true
		running = append(running, types.RunningApp{
			PID:     rec.PID,
			Name:    rec.AppName,
			Kind:    rec.Kind,
			Command: cmd,
			Port:    rec.Port,
			Tracked: true,
		})
	}

	for _, e := range entries {
		if tracked[e.PID] || e.PID == t.selfPID || !t.classifier.Match(e.Command) {
			continue
		}
		app := types.RunningApp{
			PID:     e.PID,
			Name:    t.classifier.FriendlyName(e.Command),
			Kind:    t.classifier.Kind(e.Command),
			Command: e.Command,
		}
		if rec, ok := t.registry.Lookup(e.PID); ok {
			app.Port = rec.Port
		}
		running = append(running, app)
	}

	if listErr == nil {
		t.pruneDiscovered(commands)
	}
	return running, listErr
}

func (t *Tracker) spawnedCommand(pid int) string {
	t.mu.Lock()
	defer t.mu.Unlock()
	if c, ok := t.children[pid]; ok {
		return c.command
	}
	return ""
}

// pruneDiscovered drops memoised ports of processes that are gone
func (t *Tracker) pruneDiscovered(live map[int]string) {
	for _, rec := range t.registry.List() {
		if rec.Origin != types.OriginDiscovered {
			continue
		}
		if _, ok := live[rec.PID]; !ok {
			t.registry.RemoveIf(rec.PID, func(r types.ProcessRecord) bool { return r.Origin == types.OriginDiscovered })
			t.log.Debug("Pruned vanished process", zap.Int("pid", rec.PID), zap.String("app", rec.AppName))
		}
	}
}

// ResolvePort returns the port for pid: the recorded one if known, else the
// detector's answer, which is then memoised.
func (t *Tracker) ResolvePort(ctx context.Context, pid int) (int, error) {
	if pid <= 0 {
		return 0, fmt.Errorf("%w: %d", ErrInvalidPID, pid)
	}

	rec, known := t.registry.Lookup(pid)
	if known && rec.Port != nil {
		return *rec.Port, nil
	}
	if t.detector == nil {
		return 0, ErrPortNotDetected
	}

	target := ports.Target{PID: pid}
	var cmd string
	if known {
		target.App = rec.AppName
		if rec.Kind == types.KindWeb {
			target.EntryPoint = t.cfg.Layout.WebEntryPoint(rec.AppName)
		}
	} else {
		cmd = t.commandOf(ctx, pid)
		target.App = t.classifier.FriendlyName(cmd)
		target.EntryPoint = t.classifier.EntryPoint(cmd)
	}

	port, strategy, ok := t.detector.Detect(ctx, target)
	if !ok {
		return 0, fmt.Errorf("%w: pid %d", ErrPortNotDetected, pid)
	}

	if known {
		t.registry.SetPort(pid, port)
	} else {
		t.registry.Insert(types.ProcessRecord{
			PID:       pid,
			AppName:   target.App,
			Kind:      t.classifier.Kind(cmd),
			Port:      types.IntPtr(port),
			Origin:    types.OriginDiscovered,
			StartedAt: time.Now(),
		})
	}
	t.log.Debug("Port resolved", zap.Int("pid", pid), zap.Int("port", port), zap.String("strategy", strategy))
	return port, nil
}

func (t *Tracker) commandOf(ctx context.Context, pid int) string {
	entries, err := t.lister.List(ctx)
	if err != nil {
		return ""
	}
	for _, e := range entries {
		if e.PID == pid {
			return e.Command
		}
	}
	return ""
}
