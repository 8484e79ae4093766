package queue

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a queue item.
type Status string

const (
	StatusPending     Status = "pending"
	StatusCompressing Status = "compressing"
	StatusDone        Status = "done"
	StatusError       Status = "error"
)

var allStatuses = []Status{
	StatusPending,
	StatusCompressing,
	StatusDone,
	StatusError,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// Mode selects the execution strategy for an item. It is decided once at
// ingestion from the declared media type and never changes.
type Mode string

const (
	// ModeClient compresses locally with the embedded engine (images).
	ModeClient Mode = "client"
	// ModeServer uploads to the backend compression service (videos).
	ModeServer Mode = "server"
)

// Item represents a queue item persisted in SQLite.
type Item struct {
	ID           int64
	SourcePath   string
	DisplayName  string
	MediaType    string
	Mode         Mode
	Status       Status
	Progress     int
	Preview      string
	DownloadLink string
	OriginalSize int64
	NewSize      int64
	AIResultJSON string
	ErrorMessage string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Stats aggregates queue counts per lifecycle state.
type Stats struct {
	Total       int
	Pending     int
	Compressing int
	Done        int
	Errored     int
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// ModeForMediaType applies the single routing rule: media types beginning
// with "video" run on the server, everything else runs locally.
func ModeForMediaType(mediaType string) Mode {
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(mediaType)), "video") {
		return ModeServer
	}
	return ModeClient
}

// IsTerminal reports whether the status ends a compression attempt.
func (s Status) IsTerminal() bool {
	return s == StatusDone || s == StatusError
}

// BeginAttempt moves the item into compressing and clears every per-attempt
// field so a retry can never leak a previous attempt's results.
func (i *Item) BeginAttempt() {
	i.Status = StatusCompressing
	i.Progress = 0
	i.DownloadLink = ""
	i.OriginalSize = 0
	i.NewSize = 0
	i.ErrorMessage = ""
}

// AdvanceProgress raises progress toward the given percentage. Progress is
// monotonic within an attempt: lower or out-of-range values are ignored.
func (i *Item) AdvanceProgress(percent int) {
	if percent < 0 {
		return
	}
	if percent > 100 {
		percent = 100
	}
	if percent > i.Progress {
		i.Progress = percent
	}
}

// MarkDone records a successful attempt: progress forced to 100 and the
// artifact reference set. Size metrics are optional (zero for client mode
// when unknown).
func (i *Item) MarkDone(downloadLink string, originalSize, newSize int64) {
	i.Status = StatusDone
	i.Progress = 100
	i.DownloadLink = downloadLink
	i.OriginalSize = originalSize
	i.NewSize = newSize
	i.ErrorMessage = ""
}

// MarkFailed records a failed attempt. No partial artifact reference or size
// metrics survive the transition.
func (i *Item) MarkFailed(message string) {
	i.Status = StatusError
	i.Progress = 0
	i.DownloadLink = ""
	i.OriginalSize = 0
	i.NewSize = 0
	i.ErrorMessage = strings.TrimSpace(message)
}
