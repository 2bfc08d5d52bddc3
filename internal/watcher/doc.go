// Package watcher re-triggers topology analysis when the source file changes.
//
// The parent directory is watched rather than the file itself so that editors
// which save by rename still produce events. Bursts of writes are debounced.
package watcher
