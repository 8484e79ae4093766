// Package ingest admits media files into the compression queue.
//
// Each file is classified by media type, given an inline preview when small
// enough, and appended as a pending queue item. Files are examined
// concurrently but enqueued strictly in the order they were given, and one
// unreadable file never blocks the rest of the batch.
package ingest
