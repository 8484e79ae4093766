// Package preflight provides readiness checks for the tools, directories,
// and services compression depends on.
//
// The CLI runs these before starting work and in the status command so a
// missing ffmpeg or unreachable backend is reported up front instead of
// failing the first queue item.
package preflight
