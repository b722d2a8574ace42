// Package scanner discovers installed apps from the filesystem layout.
//
// A CLI app is a visible executable file directly in the bin root; a web app
// is a directory directly under the web root containing app.py. There is no
// index beyond the filesystem itself. Results are cached for a short TTL under
// one key covering both kinds, and installs or deletes invalidate it.
package scanner
