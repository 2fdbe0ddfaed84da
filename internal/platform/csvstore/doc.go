// Package csvstore implements store.TaskStore on top of a single CSV file.
//
// The whole file is read once when the store is opened and rewritten after
// every successful mutation. The rewrite truncates the file in place, so a
// crash in the middle of a write can leave a partial file behind.
package csvstore
