// Package server implements the HTTP surface of the compression service:
// video upload and transcode, AI analysis, and artifact download.
package server
