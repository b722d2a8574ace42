// Package process starts, stops and lists app processes.
//
// Processes spawned by the Tracker are recorded in a Registry with their
// app name and, for web apps, the port declared in the entry point. Every
// other process is judged by the Classifier from its command line, which is
// a heuristic and can be wrong in both directions. Process enumeration goes
// through a pluggable Lister: gopsutil by default, or an external tool such
// as pidin or ps.
package process
