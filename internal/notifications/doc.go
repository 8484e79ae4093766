// Package notifications pushes queue events to ntfy when a topic is
// configured, and degrades to a silent no-op otherwise.
package notifications
