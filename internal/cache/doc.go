// Package cache persists the merged writeup list between runs.
//
// A single record is stored under a fixed key:
//
//	{
//	  "timestamp": 1760601600000,
//	  "items": [ { "path": "web/xss.md", "title": "Xss", ... } ]
//	}
//
// The timestamp is in unix milliseconds. A record is served by [Store.Read]
// only while it is non-empty, parses, and is no older than the store's TTL;
// everything else is a miss. Writes are best-effort: a failed write is
// logged and forgotten, never surfaced.
//
// # Backends
//
// Two [Backend] implementations exist:
//
//   - [FileBackend] keeps one JSON file per key in ~/.wu/cache/, written
//     atomically under an flock so concurrent wu processes don't interleave.
//   - [SQLiteBackend] keeps records in a key/value table in ~/.wu/cache.db.
package cache
