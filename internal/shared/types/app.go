package types

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Kind distinguishes the two app shapes the dashboard manages
type Kind string

const (
	KindCLI Kind = "cli"
	KindWeb Kind = "web"
)

// ErrUnknownKind is returned for kinds other than cli and web
var ErrUnknownKind = errors.New("unknown app kind")

// ParseKind converts a request value into a Kind
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindCLI:
		return KindCLI, nil
	case KindWeb:
		return KindWeb, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownKind, s)
	}
}

// Label returns the human readable kind name
func (k Kind) Label() string {
	if k == KindWeb {
		return "Web App"
	}
	return "CLI App"
}

// AppRecord is an installed app observed on disk
type AppRecord struct {
	Name        string `json:"name"`
	Kind        Kind   `json:"kind"`
	InstallPath string `json:"install_path"`
}

// Origin records how a process entered the registry
type Origin string

const (
	OriginSpawned    Origin = "spawned"
	OriginDiscovered Origin = "discovered"
)

// ProcessRecord maps a live pid to the app it belongs to
type ProcessRecord struct {
	PID       int       `json:"pid"`
	AppName   string    `json:"app_name"`
	Kind      Kind      `json:"kind,omitempty"`
	Port      *int      `json:"port,omitempty"`
	Origin    Origin    `json:"origin"`
	StartedAt time.Time `json:"started_at"`
}

// RunningApp is one row of the running-apps listing
type RunningApp struct {
	PID     int    `json:"pid"`
	Name    string `json:"name"`
	Kind    Kind   `json:"kind,omitempty"`
	Command string `json:"command"`
	Port    *int   `json:"port,omitempty"`
	Tracked bool   `json:"tracked"` // Spawned by this dashboard
}

// ManagedApp is an installed web app with its run state
type ManagedApp struct {
	Name    string `json:"name"`
	Running bool   `json:"running"`
	PID     int    `json:"pid,omitempty"`
	Port    *int   `json:"port,omitempty"`
}

// InstallReport summarises a completed install
type InstallReport struct {
	Package     string `json:"package"`
	Kind        Kind   `json:"kind"`
	Destination string `json:"destination"`
	Files       int    `json:"files"`
	Bytes       int64  `json:"bytes"`
	Checksum    string `json:"checksum"` // Of the downloaded archive, algo:hex
}

// AutoStartStatus describes the profile directive state of an app
type AutoStartStatus struct {
	App     string `json:"app"`
	Kind    Kind   `json:"kind"`
	Enabled bool   `json:"enabled"`
	Command string `json:"command,omitempty"`
	Stale   bool   `json:"stale"` // A block exists but points at another install path
}

// IntPtr returns a pointer to v
func IntPtr(v int) *int {
	return &v
}
