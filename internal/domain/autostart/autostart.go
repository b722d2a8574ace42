package autostart

import (
	"fmt"
	"strings"
	"sync"

	"github.com/GriffinCanCode/taskdock/internal/infrastructure/logging"
	"github.com/GriffinCanCode/taskdock/internal/shared/paths"
	"github.com/GriffinCanCode/taskdock/internal/shared/types"
	"go.uber.org/zap"
)

// StartMarker opens an app's directive block
func StartMarker(name string) string {
	return fmt.Sprintf("# <<< Auto-Start for %s >>>", name)
}

// EndMarker closes an app's directive block
func EndMarker(name string) string {
	return fmt.Sprintf("# <<< End Auto-Start for %s >>>", name)
}

// Manager edits launch-at-login directives in the user's shell profile
type Manager struct {
	layout      paths.Layout
	interpreter string
	log         *zap.Logger
	mu          sync.Mutex
}

// New creates a manager for layout.Profile
func New(layout paths.Layout, interpreter string, log *zap.Logger) *Manager {
	if interpreter == "" {
		interpreter = "python3"
	}
	return &Manager{
		layout:      layout,
		interpreter: interpreter,
		log:         logging.OrNop(log).With(zap.String("path", layout.Profile)),
	}
}

// Command returns the launch line for an app at its current install path
func (m *Manager) Command(name string, kind types.Kind) string {
	if kind == types.KindWeb {
		return fmt.Sprintf(`%s "%s" &`, m.interpreter, m.layout.WebEntryPoint(name))
	}
	return fmt.Sprintf(`"%s" &`, m.layout.CLIBinary(name))
}

// Enable adds a directive block for the app. An existing exact command is
// left alone; a block pointing at an old install path is rewritten in place.
func (m *Manager) Enable(name string, kind types.Kind) error {
	if err := validate(name, kind); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lines, _, err := readLines(m.layout.Profile)
	if err != nil {
		return err
	}

	command := m.Command(name, kind)
	log := m.log.With(zap.String("app", name), zap.String("kind", string(kind)))

	if hasCommand(lines, command) {
		log.Debug("Auto-start already enabled")
		return nil
	}

	if blocks := findBlocks(lines, name); len(blocks) > 0 {
		b := blocks[0]
		updated := make([]string, 0, len(lines))
		updated = append(updated, lines[:b.start+1]...)
		updated = append(updated, command+"\n")
		updated = append(updated, lines[b.end:]...)

		if err := writeLines(m.layout.Profile, updated); err != nil {
			return err
		}
		log.Info("Auto-start directive rewritten", zap.String("previous", b.command()))
		return nil
	}

	start := StartMarker(name)
	if n := len(lines); n > 0 && !hasNewline(lines[n-1]) {
		lines[n-1] += "\n"
		start += joinedSuffix
	}
	lines = append(lines, start+"\n", command+"\n", EndMarker(name)+"\n")

	if err := writeLines(m.layout.Profile, lines); err != nil {
		return err
	}
	log.Info("Auto-start enabled")
	return nil
}

// Disable removes every directive block for the app. A missing profile is
// a no-op.
func (m *Manager) Disable(name string) error {
	if err := paths.ValidateName(name); err != nil {
		return fmt.Errorf("%w: %q", err, name)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	lines, exists, err := readLines(m.layout.Profile)
	if err != nil || !exists {
		return err
	}

	blocks := findBlocks(lines, name)
	if len(blocks) == 0 {
		m.log.Debug("No auto-start directive", zap.String("app", name))
		return nil
	}

	// A joined block owns the newline it added to the line above it. The
	// newline goes away with the block unless content still follows, in
	// which case a following block inherits the flag.
	kept := make([]string, 0, len(lines))
	next, joined := 0, false
	for _, b := range blocks {
		if segment := lines[next:b.start]; len(segment) > 0 {
			kept = append(kept, carryJoin(segment, joined)...)
			joined = false
		}
		joined = joined || b.joined
		next = b.end + 1
	}
	if rest := lines[next:]; len(rest) > 0 {
		kept = append(kept, carryJoin(rest, joined)...)
	} else if n := len(kept); joined && n > 0 && hasNewline(kept[n-1]) {
		kept[n-1] = strings.TrimSuffix(kept[n-1], "\n")
	}

	if err := writeLines(m.layout.Profile, kept); err != nil {
		return err
	}
	m.log.Info("Auto-start disabled", zap.String("app", name), zap.Int("blocks", len(blocks)))
	return nil
}

// IsEnabled reports whether the profile holds the exact launch line for the
// app's current install path.
func (m *Manager) IsEnabled(name string, kind types.Kind) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lines, _, err := readLines(m.layout.Profile)
	if err != nil {
		return false, err
	}
	return hasCommand(lines, m.Command(name, kind)), nil
}

// Status describes the directive state of one app
func (m *Manager) Status(name string, kind types.Kind) (types.AutoStartStatus, error) {
	statuses, err := m.Statuses([]types.AppRecord{{Name: name, Kind: kind}})
	if err != nil {
		return types.AutoStartStatus{}, err
	}
	return statuses[0], nil
}

// Statuses describes many apps from a single read of the profile.
// Stale marks a block whose command no longer matches the install path.
func (m *Manager) Statuses(apps []types.AppRecord) ([]types.AutoStartStatus, error) {
	m.mu.Lock()
	lines, _, err := readLines(m.layout.Profile)
	m.mu.Unlock()
	if err != nil {
		return nil, err
	}

	out := make([]types.AutoStartStatus, 0, len(apps))
	for _, app := range apps {
		command := m.Command(app.Name, app.Kind)
		st := types.AutoStartStatus{App: app.Name, Kind: app.Kind}

		if hasCommand(lines, command) {
			st.Enabled = true
			st.Command = command
		} else if blocks := findBlocks(lines, app.Name); len(blocks) > 0 && !blocks[0].contains(command) {
			st.Stale = true
			st.Command = blocks[0].command()
		}
		out = append(out, st)
	}
	return out, nil
}

func validate(name string, kind types.Kind) error {
	if err := paths.ValidateName(name); err != nil {
		return fmt.Errorf("%w: %q", err, name)
	}
	if kind != types.KindCLI && kind != types.KindWeb {
		return fmt.Errorf("%w: %q", types.ErrUnknownKind, kind)
	}
	return nil
}

func hasNewline(line string) bool {
	return len(line) > 0 && line[len(line)-1] == '\n'
}
