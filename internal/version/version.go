// Package version tracks the price cache schema version and decides whether a
// cache file written by another build can still be read.
package version

// CacheSchemaVersion is stamped into every cache file. Bump the minor when
// the schema changes in a way old readers cannot handle.
const CacheSchemaVersion = "1.0.0"
