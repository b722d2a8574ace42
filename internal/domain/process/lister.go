package process

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/shirou/gopsutil/v4/process"
)

// Entry is one row of the OS process table
type Entry struct {
	PID     int
	Command string
}

// Lister enumerates OS processes. Implementations are swappable per platform.
type Lister interface {
	List(ctx context.Context) ([]Entry, error)
}

// NewLister returns the lister registered under name, gopsutil by default
func NewLister(name string) Lister {
	if name == "command" {
		return NewCommandLister()
	}
	return GopsutilLister{}
}

// GopsutilLister reads the process table through gopsutil
type GopsutilLister struct{}

func (GopsutilLister) List(ctx context.Context) ([]Entry, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	entries := make([]Entry, 0, len(procs))
	for _, p := range procs {
		cmd, err := p.CmdlineWithContext(ctx)
		if err != nil || cmd == "" {
			// Kernel threads and processes that exited mid-scan
			continue
		}
		entries = append(entries, Entry{PID: int(p.Pid), Command: cmd})
	}
	return entries, nil
}

// CommandLister shells out to a process-table tool and parses
// "<pid> <command line>" rows.
type CommandLister struct {
	Name    string
	Args    []string
	Timeout time.Duration
}

// NewCommandLister prefers pidin where it exists and falls back to ps
func NewCommandLister() CommandLister {
	if _, err := exec.LookPath("pidin"); err == nil {
		return CommandLister{Name: "pidin", Args: []string{"ar"}, Timeout: 5 * time.Second}
	}
	return CommandLister{Name: "ps", Args: []string{"-eo", "pid=,args="}, Timeout: 5 * time.Second}
}

func (l CommandLister) List(ctx context.Context) ([]Entry, error) {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx, l.Name, l.Args...).Output()
	if err != nil {
		return nil, fmt.Errorf("run %s: %w", l.Name, err)
	}
	return parseTable(out), nil
}

// parseTable skips headers and any row whose first column is not a pid
func parseTable(out []byte) []Entry {
	var entries []Entry
	sc := bufio.NewScanner(bytes.NewReader(out))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 2 {
			continue
		}
		pid, err := strconv.Atoi(fields[0])
		if err != nil || pid <= 0 {
			continue
		}
		entries = append(entries, Entry{PID: pid, Command: strings.Join(fields[1:], " ")})
	}
	return entries
}
