// Package mediagate mediates outbound calls from a note-taking extension to
// remote media-tracking services (a primary GraphQL backend and two REST-style
// secondaries).
//
// It provides a tiered TTL cache keyed by canonical query keys, a
// single-flight scheduler that serializes and rate-limits every network call,
// an invalidation path that evicts stale entries after successful mutations,
// and snapshot persistence (file, SQLite, PostgreSQL, Redis) so caches survive
// process restarts. Callers supply the actual network operation as a closure;
// the package never builds query bodies itself.
package mediagate
