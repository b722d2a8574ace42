package autostart

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// readLines returns the profile's lines with their terminators intact.
// A missing profile reads as empty.
func readLines(path string) ([]string, bool, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read profile: %w", err)
	}

	lines := strings.SplitAfter(string(data), "\n")
	if n := len(lines); n > 0 && lines[n-1] == "" {
		lines = lines[:n-1]
	}
	return lines, true, nil
}

// writeLines replaces the profile atomically with a temp file in the same
// directory. Symlinked profiles are written through to their target.
func writeLines(path string, lines []string) error {
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		path = resolved
	}

	mode := fs.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create profile dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("create temp profile: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(strings.Join(lines, "")); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp profile: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("chmod temp profile: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp profile: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("replace profile: %w", err)
	}
	return nil
}

// joinedSuffix tags a start marker whose block had to add the newline
// ending the line above it
const joinedSuffix = " [no-eol]"

// block is a marker-delimited directive; start and end index the marker lines
type block struct {
	start, end int
	body       []string
	joined     bool
}

func (b block) contains(command string) bool {
	for _, line := range b.body {
		if strings.Contains(strings.TrimSpace(line), command) {
			return true
		}
	}
	return false
}

// command returns the first non-blank line inside the block
func (b block) command() string {
	for _, line := range b.body {
		if s := strings.TrimSpace(line); s != "" {
			return s
		}
	}
	return ""
}

// findBlocks returns every complete block for name. A start marker with no
// matching end marker is not a block.
func findBlocks(lines []string, name string) []block {
	startMarker, endMarker := StartMarker(name), EndMarker(name)

	var blocks []block
	open, joined := -1, false
	for i, line := range lines {
		switch s := strings.TrimSpace(line); s {
		case startMarker, startMarker + joinedSuffix:
			open, joined = i, s != startMarker
		case endMarker:
			if open >= 0 {
				blocks = append(blocks, block{start: open, end: i, body: lines[open+1 : i], joined: joined})
				open = -1
			}
		}
	}
	return blocks
}

// carryJoin moves a removed block's joined flag onto segment when segment
// opens with another app's plain start marker
func carryJoin(segment []string, joined bool) []string {
	if !joined {
		return segment
	}
	first := strings.TrimSpace(segment[0])
	if !strings.HasPrefix(first, "# <<< Auto-Start for ") || !strings.HasSuffix(first, " >>>") {
		return segment
	}
	return append([]string{first + joinedSuffix + "\n"}, segment[1:]...)
}

func hasCommand(lines []string, command string) bool {
	for _, line := range lines {
		if strings.Contains(strings.TrimSpace(line), command) {
			return true
		}
	}
	return false
}
