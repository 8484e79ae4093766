// Package enrich attaches AI-generated social media metadata to finished
// queue items.
//
// Only the most recently completed server-mode item is eligible, one
// analysis runs at a time, and a successful run writes exactly one field:
// the item's stored AI result. Compression state is never touched.
package enrich
