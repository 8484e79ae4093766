// Package queue persists the compression queue in SQLite.
//
// Each ingested file is one Item. Items move pending -> compressing ->
// done|error; terminal items can be re-armed to pending via retry. The store
// is the single source of truth the CLI renders and the execution router
// mutates, and every update replaces one item by id as a single statement.
package queue
