// Package ws streams the running app list to dashboard pages.
//
// A client connects to /ws and receives a "running" frame immediately, then
// again whenever the list changes. Clients may send:
//
//	{"type": "ping"}     answered with {"type": "pong"}
//	{"type": "refresh"}  forces the next frame even if nothing changed
package ws
