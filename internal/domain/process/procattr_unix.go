//go:build !windows

package process

import "syscall"

// sysProcAttr puts the child in its own process group so terminal signals
// aimed at the dashboard do not reach it.
func sysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}
