package process

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/GriffinCanCode/taskdock/internal/shared/paths"
	"github.com/GriffinCanCode/taskdock/internal/shared/types"
	"github.com/bmatcuk/doublestar/v4"
)

// Install roots that predate the configurable layout and still show up in
// command lines on older devices.
var (
	legacyWebRoots = []string{"/data/apps"}
	legacyCLIRoots = []string{"/usr/local/bin"}
)

const unknownApp = "Unknown App"

// Classifier decides from a free-text command line whether a process looks
// like a managed app, and which one. It can both under- and over-match.
type Classifier struct {
	interpreters []string // Globs over the executable base name
	webGlobs     []string
	cliGlobs     []string
	webRoots     []string
	cliRoots     []string
	entryPoint   string
	excluded     []string // Base names never reported
}

// NewClassifier builds a classifier for the layout, excluding the
// dashboard's own executable and script.
func NewClassifier(layout paths.Layout, selfName string) *Classifier {
	c := &Classifier{
		interpreters: []string{"python*"},
		entryPoint:   paths.EntryPoint,
	}

	for _, root := range append([]string{layout.WebApps}, legacyWebRoots...) {
		if root = slashed(root); root == "" {
			continue
		}
		c.webRoots = append(c.webRoots, root)
		c.webGlobs = append(c.webGlobs, escapeMeta(root)+"/**")
	}
	c.webGlobs = append(c.webGlobs, "**/apps/*/"+paths.EntryPoint)

	for _, root := range append([]string{layout.CLIBin}, legacyCLIRoots...) {
		if root = slashed(root); root == "" {
			continue
		}
		c.cliRoots = append(c.cliRoots, root)
		c.cliGlobs = append(c.cliGlobs, escapeMeta(root)+"/*")
	}

	if selfName != "" {
		c.excluded = []string{selfName, selfName + ".py"}
	}
	return c
}

// Match reports whether cmd looks like an app process
func (c *Classifier) Match(cmd string) bool {
	fields := strings.Fields(cmd)
	if len(fields) == 0 || c.isExcluded(fields) {
		return false
	}

	for _, f := range fields {
		base := strings.ToLower(path.Base(f))
		if matchAny(c.interpreters, base) || base == c.entryPoint {
			return true
		}
		if matchAny(c.webGlobs, f) || matchAny(c.cliGlobs, f) {
			return true
		}
	}
	return strings.HasSuffix(cmd, ".py")
}

// Kind guesses the app kind from where the command points, empty if unclear
func (c *Classifier) Kind(cmd string) types.Kind {
	for _, f := range strings.Fields(cmd) {
		if path.Base(f) == c.entryPoint || matchAny(c.webGlobs, f) {
			return types.KindWeb
		}
		if matchAny(c.cliGlobs, f) {
			return types.KindCLI
		}
	}
	return ""
}

// FriendlyName derives a display name from a command line:
//
//	python3 /data/apps/weather/app.py  -> weather
//	/usr/local/bin/tool --flag         -> tool
//	tool                               -> tool
func (c *Classifier) FriendlyName(cmd string) string {
	fields := strings.Fields(cmd)
	if len(fields) == 0 {
		return unknownApp
	}

	for _, f := range fields {
		for _, root := range c.webRoots {
			if rest, ok := strings.CutPrefix(f, root+"/"); ok {
				if name, _, _ := strings.Cut(rest, "/"); name != "" {
					return name
				}
			}
		}
		for _, root := range c.cliRoots {
			if rest, ok := strings.CutPrefix(f, root+"/"); ok && rest != "" && !strings.Contains(rest, "/") {
				return rest
			}
		}
	}

	if entry := c.EntryPoint(cmd); entry != "" {
		if path.Base(entry) == c.entryPoint {
			if dir := path.Base(path.Dir(entry)); dir != "." && dir != "/" {
				return dir
			}
		}
		return strings.TrimSuffix(path.Base(entry), ".py")
	}

	return path.Base(fields[0])
}

// EntryPoint returns the Python source a command runs, empty if none
func (c *Classifier) EntryPoint(cmd string) string {
	var script string
	for _, f := range strings.Fields(cmd) {
		if path.Base(f) == c.entryPoint {
			return f
		}
		if script == "" && strings.HasSuffix(f, ".py") {
			script = f
		}
	}
	return script
}

func (c *Classifier) isExcluded(fields []string) bool {
	for _, f := range fields {
		base := path.Base(f)
		for _, ex := range c.excluded {
			if base == ex {
				return true
			}
		}
	}
	return false
}

func matchAny(patterns []string, name string) bool {
	for _, p := range patterns {
		if doublestar.MatchUnvalidated(p, name) {
			return true
		}
	}
	return false
}

func slashed(root string) string {
	if root == "" {
		return ""
	}
	return strings.TrimSuffix(filepath.ToSlash(filepath.Clean(root)), "/")
}

// escapeMeta quotes glob metacharacters in a literal path
func escapeMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		if strings.ContainsRune(`*?[]{}\`, r) {
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
