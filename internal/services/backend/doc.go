// Package backend talks to the remote compression service.
//
// The service exposes two upload endpoints: one transcodes a video and
// returns a download link with size metrics, the other runs AI analysis
// over the clip. Analysis calls use a much longer timeout than compression
// because the model can take minutes to respond.
package backend
