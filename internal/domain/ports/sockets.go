package ports

import (
	"context"
	"slices"

	"github.com/shirou/gopsutil/v4/net"
)

// SocketTable reports listening TCP ports. A pid of 0 means every process.
type SocketTable interface {
	Listening(ctx context.Context, pid int) ([]int, error)
}

// SystemSockets reads the OS socket table through gopsutil
type SystemSockets struct{}

func (SystemSockets) Listening(ctx context.Context, pid int) ([]int, error) {
	var (
		conns []net.ConnectionStat
		err   error
	)
	if pid > 0 {
		conns, err = net.ConnectionsPidWithContext(ctx, "tcp", int32(pid))
	} else {
		conns, err = net.ConnectionsWithContext(ctx, "tcp")
	}
	if err != nil {
		return nil, err
	}

	var ports []int
	for _, c := range conns {
		if c.Status != "LISTEN" {
			continue
		}
		port := int(c.Laddr.Port)
		if !slices.Contains(ports, port) {
			ports = append(ports, port)
		}
	}
	return ports, nil
}

// PIDSocketTable accepts any port the pid itself listens on in the user range
type PIDSocketTable struct {
	Table SocketTable
}

func (PIDSocketTable) Name() string { return "pid-socket-table" }

func (s PIDSocketTable) Detect(ctx context.Context, t Target) (int, bool) {
	if t.PID <= 0 {
		return 0, false
	}
	ports, err := s.Table.Listening(ctx, t.PID)
	if err != nil {
		return 0, false
	}
	for _, port := range ports {
		if inRange(port, MinPort, MaxPort) {
			return port, true
		}
	}
	return 0, false
}

// BandSocketTable looks at every listening port in the conventional web
// band regardless of owner.
type BandSocketTable struct {
	Table     SocketTable
	Low, High int
}

func (BandSocketTable) Name() string { return "band-socket-table" }

func (s BandSocketTable) Detect(ctx context.Context, _ Target) (int, bool) {
	ports, err := s.Table.Listening(ctx, 0)
	if err != nil {
		return 0, false
	}

	var band []int
	for _, port := range ports {
		if inRange(port, s.Low, s.High) && !slices.Contains(band, port) {
			band = append(band, port)
		}
	}
	return pick(band)
}
