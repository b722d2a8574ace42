// Package http exposes the app lifecycle over a small JSON API.
//
// Mutations reply {"success": true, ...} or {"success": false, "error": ...}
// with a status code derived from the domain error. Listings never fail;
// an unreachable store or process table yields empty lists.
package http
