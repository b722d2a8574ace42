// Package installer downloads app packages from the store and lays them out
// on disk, and removes installed apps.
//
// Web packages unpack into their own directory under the web root with the
// archive structure kept. CLI packages are split: lib/ entries go to the
// shared lib directory, bin/ entries and any other files go to the bin
// directory, and everything landing in bin is made executable.
//
// Zip is the store's format; gzip and zstd tarballs are accepted as well.
// Installs are not transactional: a failure midway leaves what was written.
package installer
