// Package paths provides the on-device filesystem layout shared by every
// lifecycle component.
//
// The layout mirrors what the dashboard has always used on the device:
// CLI binaries in a flat bin directory, their private libraries in a sibling
// lib directory, one directory per web app, and the user's login profile.
package paths

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
)

// EntryPoint is the fixed file name a web app directory must contain
const EntryPoint = "app.py"

// ArchiveExtensions lists the package formats the store may publish
var ArchiveExtensions = []string{".tar.zst", ".tar.gz", ".tgz", ".zip"}

// ErrInvalidName is returned for app names that would escape their root
var ErrInvalidName = errors.New("invalid app name")

// Layout holds the resolved install roots
type Layout struct {
	CLIBin  string
	Lib     string
	WebApps string
	Profile string
}

// NewLayout expands each root and returns the layout
func NewLayout(cliBin, lib, webApps, profile string) Layout {
	return Layout{
		CLIBin:  Expand(cliBin),
		Lib:     Expand(lib),
		WebApps: Expand(webApps),
		Profile: Expand(profile),
	}
}

// CLIBinary returns the path of an installed CLI app
func (l Layout) CLIBinary(name string) string {
	return filepath.Join(l.CLIBin, name)
}

// WebAppDir returns the directory of an installed web app
func (l Layout) WebAppDir(name string) string {
	return filepath.Join(l.WebApps, name)
}

// WebEntryPoint returns the entry-point file of a web app
func (l Layout) WebEntryPoint(name string) string {
	return filepath.Join(l.WebApps, name, EntryPoint)
}

// Expand replaces a leading ~ with the current user's home directory
func Expand(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	if len(path) > 1 && path[1] != '/' && path[1] != filepath.Separator {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}

// ValidateName rejects names that are empty, hidden, or contain path elements
func ValidateName(name string) error {
	if name == "" || name == "." || name == ".." || strings.HasPrefix(name, ".") {
		return ErrInvalidName
	}
	if strings.ContainsAny(name, `/\`) || strings.Contains(name, "..") {
		return ErrInvalidName
	}
	return nil
}

// TrimArchiveExt strips a known archive extension from a package file name
func TrimArchiveExt(file string) (string, bool) {
	lower := strings.ToLower(file)
	for _, ext := range ArchiveExtensions {
		if strings.HasSuffix(lower, ext) {
			return file[:len(file)-len(ext)], true
		}
	}
	return file, false
}
