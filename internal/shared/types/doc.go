// Package types provides shared data structures for taskdock.
//
// Core Types:
//   - AppRecord: Installed app observed on disk
//   - ProcessRecord: Registry entry for a running app process
//   - RunningApp, ManagedApp: Listing rows for the presentation layer
//   - Package, CatalogEntry, Extra: Remote store data
//   - InstallReport, AutoStartStatus: Operation results
//
// Example Usage:
//
//	kind, err := types.ParseKind("web")
//	rec := types.AppRecord{Name: "weatherapp", Kind: kind}
package types
