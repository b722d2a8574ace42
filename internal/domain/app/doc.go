// Package app composes the scanner, process tracker, installer, auto-start
// manager and catalog client behind one Manager. It is what the HTTP layer
// talks to: failures of read operations are logged and degraded to empty
// results, while failures of mutations are logged and returned.
package app
