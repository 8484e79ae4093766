// Package settings persists user-tunable compression quality values.
//
// Settings live in the same SQLite database as the queue so a single data
// directory holds all mutable state. Values are clamped to their legal
// range on both write and read, so a hand-edited database can never feed
// an out-of-range quality to an encoder.
package settings
