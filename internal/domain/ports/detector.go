package ports

import (
	"context"
	"slices"

	"github.com/GriffinCanCode/taskdock/internal/infrastructure/logging"
	"go.uber.org/zap"
)

// Valid user-port range for any detected port
const (
	MinPort = 1024
	MaxPort = 65535
)

// PreferredPort wins a tie between several candidate ports
const PreferredPort = 8000

// Target identifies the process whose port is wanted
type Target struct {
	PID        int
	App        string
	EntryPoint string // Source file to inspect, empty if unknown
}

// Strategy is one detection method. Detect reports false when it has no answer.
type Strategy interface {
	Name() string
	Detect(ctx context.Context, t Target) (int, bool)
}

// Detector runs strategies in order and stops at the first answer.
// No strategy is authoritative; results are best effort.
type Detector struct {
	strategies []Strategy
	observer   func(strategy string)
	log        *zap.Logger
}

// NewDetector creates a detector over an explicit chain
func NewDetector(log *zap.Logger, strategies ...Strategy) *Detector {
	return &Detector{
		strategies: strategies,
		log:        logging.OrNop(log),
	}
}

// NewDefault builds the standard chain: static declaration, pid socket
// table, band socket table, conventional port probe.
func NewDefault(sockets SocketTable, prober Prober, log *zap.Logger) *Detector {
	return NewDetector(log,
		StaticDeclaration{Prober: prober},
		PIDSocketTable{Table: sockets},
		BandSocketTable{Table: sockets, Low: 8000, High: 9000},
		ConventionalProbe{Prober: prober, Ports: ConventionalPorts},
	)
}

// WithObserver registers a callback told which strategy answered, or "none"
func (d *Detector) WithObserver(fn func(strategy string)) *Detector {
	d.observer = fn
	return d
}

// Strategies returns the chain's strategy names in order
func (d *Detector) Strategies() []string {
	names := make([]string, 0, len(d.strategies))
	for _, s := range d.strategies {
		names = append(names, s.Name())
	}
	return names
}

// Detect returns the first port any strategy accepts
func (d *Detector) Detect(ctx context.Context, t Target) (int, string, bool) {
	log := d.log.With(zap.Int("pid", t.PID), zap.String("app", t.App))

	for _, s := range d.strategies {
		if ctx.Err() != nil {
			break
		}
		if port, ok := s.Detect(ctx, t); ok {
			log.Debug("Port detected", zap.String("strategy", s.Name()), zap.Int("port", port))
			d.observe(s.Name())
			return port, s.Name(), true
		}
	}

	log.Debug("No port detected")
	d.observe("none")
	return 0, "", false
}

func (d *Detector) observe(strategy string) {
	if d.observer != nil {
		d.observer(strategy)
	}
}

// pick applies the tie-break: one candidate wins outright; among several,
// PreferredPort if present, else the lowest.
func pick(candidates []int) (int, bool) {
	switch len(candidates) {
	case 0:
		return 0, false
	case 1:
		return candidates[0], true
	}
	if slices.Contains(candidates, PreferredPort) {
		return PreferredPort, true
	}
	return slices.Min(candidates), true
}

func inRange(port, low, high int) bool {
	return port >= low && port <= high
}
