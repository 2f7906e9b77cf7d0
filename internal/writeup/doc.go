// Package writeup defines the writeup item model and the pure functions that
// derive display metadata from a repository path.
//
// Title, category and badge are deterministic functions of an entry's name
// and path, so the same file always produces the same Item. Merge combines
// item batches by path and keeps the result sorted by category, then title.
package writeup
