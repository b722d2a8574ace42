package ports

import (
	"context"
	"net"
	"strconv"
	"time"
)

// ConventionalPorts are the defaults small web apps tend to bind
var ConventionalPorts = []int{8000, 8080, 8001, 8002, 8003, 8004, 8005, 8006, 8007, 8008, 8009, 8010}

// Prober checks whether something accepts connections on a local port
type Prober interface {
	Open(ctx context.Context, port int) bool
}

// TCPProber dials the loopback address with a short timeout
type TCPProber struct {
	Host    string
	Timeout time.Duration
}

// NewTCPProber creates a loopback prober
func NewTCPProber(timeout time.Duration) TCPProber {
	return TCPProber{Host: "127.0.0.1", Timeout: timeout}
}

func (p TCPProber) Open(ctx context.Context, port int) bool {
	host := p.Host
	if host == "" {
		host = "127.0.0.1"
	}
	timeout := p.Timeout
	if timeout <= 0 {
		timeout = 100 * time.Millisecond
	}

	dialer := net.Dialer{Timeout: timeout}
	conn, err := dialer.DialContext(ctx, "tcp", net.JoinHostPort(host, strconv.Itoa(port)))
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// ConventionalProbe connects to a fixed list of ports and applies the
// same tie-break as the band scan.
type ConventionalProbe struct {
	Prober Prober
	Ports  []int
}

func (ConventionalProbe) Name() string { return "conventional-probe" }

func (s ConventionalProbe) Detect(ctx context.Context, _ Target) (int, bool) {
	var open []int
	for _, port := range s.Ports {
		if ctx.Err() != nil {
			break
		}
		if s.Prober.Open(ctx, port) {
			open = append(open, port)
		}
	}
	return pick(open)
}
