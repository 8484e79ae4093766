// Package compressor drives queue items through a compression attempt.
//
// Each item's mode decides the strategy: client items run through the
// local ffmpeg engine with real progress, server items upload to the
// backend while a timer simulates progress. Batch runs are strictly
// sequential in queue order and one failed item never stops the batch.
package compressor
