// Package catalog reads what the remote store offers: archive listings for
// CLI and web packages, each root's catalog.json metadata, and the binary
// extras listing.
//
// Listings are plain web-server directory indexes scraped for anchors; this
// tolerates unrelated markup but yields nothing if the page shape changes.
// All fetches are served through the remote cache, so an unreachable store
// returns the last good copy.
package catalog
