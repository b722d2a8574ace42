package ports

import (
	"context"
	"os"
	"regexp"
	"strconv"
)

var (
	// Start-time declarations, checked in order, case-sensitive
	declaredConst = regexp.MustCompile(`PORT\s*=\s*(\d+)`)
	declaredRun   = regexp.MustCompile(`app\.run\([^)]*port\s*=\s*(\d+)`)

	// Detection-time shapes, case-insensitive
	sourcePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)PORT\s*=\s*(\d+)`),
		regexp.MustCompile(`(?i)port\s*=\s*(\d+)`),
		regexp.MustCompile(`(?i)server_address\s*=\s*\([^,]+,\s*(\d+)\)`),
		regexp.MustCompile(`(?i)HTTPServer\(\s*\([^,]+,\s*(\d+)\)`),
		regexp.MustCompile(`(?i)app\.run\([^)]*port\s*=\s*(\d+)`),
		regexp.MustCompile(`(?i)TCPServer\([^)]*(\d+)\)`),
	}
)

// Declared returns the port a web app's source names explicitly: a PORT
// constant, else an app.run port keyword.
func Declared(source string) (int, bool) {
	for _, re := range []*regexp.Regexp{declaredConst, declaredRun} {
		if m := re.FindStringSubmatch(source); m != nil {
			if port, err := strconv.Atoi(m[1]); err == nil && port > 0 {
				return port, true
			}
		}
	}
	return 0, false
}

// Candidates returns every port-like literal in source within the user
// range, in pattern order without duplicates.
func Candidates(source string) []int {
	var out []int
	seen := make(map[int]bool)

	for _, re := range sourcePatterns {
		for _, m := range re.FindAllStringSubmatch(source, -1) {
			port, err := strconv.Atoi(m[1])
			if err != nil || !inRange(port, MinPort, MaxPort) || seen[port] {
				continue
			}
			seen[port] = true
			out = append(out, port)
		}
	}
	return out
}

// StaticDeclaration reads the entry point and accepts the first declared
// port that answers a connect probe.
type StaticDeclaration struct {
	Prober Prober
}

func (StaticDeclaration) Name() string { return "static-declaration" }

func (s StaticDeclaration) Detect(ctx context.Context, t Target) (int, bool) {
	if t.EntryPoint == "" {
		return 0, false
	}
	source, err := os.ReadFile(t.EntryPoint)
	if err != nil {
		return 0, false
	}

	for _, port := range Candidates(string(source)) {
		if s.Prober.Open(ctx, port) {
			return port, true
		}
	}
	return 0, false
}
