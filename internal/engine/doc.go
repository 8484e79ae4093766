// Package engine wraps the ffmpeg command line for local compression.
//
// The engine owns a single execution slot: only one ffmpeg process runs at
// a time regardless of how many queue items are eligible, keeping local
// resource usage predictable on end-user machines.
package engine
