// Package progress normalizes the two progress sources feeding the queue:
// real encoder output for local work and a timer simulation for uploads
// whose remote side reports nothing until it finishes.
package progress

import (
	"math"
	"sync"
	"time"
)

// Sink receives percentage updates in the 0-100 range.
type Sink func(percent int)

// Tracker converts fractional completion reports into monotonic whole
// percentages. Duplicate and regressing reports are dropped so the sink
// only sees forward movement.
type Tracker struct {
	mu   sync.Mutex
	last int
	sink Sink
}

// NewTracker builds a tracker delivering updates to sink.
func NewTracker(sink Sink) *Tracker {
	return &Tracker{last: -1, sink: sink}
}

// Observe records a completion fraction between 0.0 and 1.0. Out-of-range
// values are clamped.
func (t *Tracker) Observe(fraction float64) {
	if math.IsNaN(fraction) {
		return
	}
	if fraction < 0 {
		fraction = 0
	}
	if fraction > 1 {
		fraction = 1
	}
	percent := int(fraction * 100)

	t.mu.Lock()
	defer t.mu.Unlock()
	if percent <= t.last {
		return
	}
	t.last = percent
	if t.sink != nil {
		t.sink(percent)
	}
}

// Simulator advances progress on a timer while a blocking upload is in
// flight. It never reaches 100 on its own; the caller settles the item at
// 100 when the upload returns.
type Simulator struct {
	interval time.Duration
	step     int
	limit    int
	sink     Sink

	mu      sync.Mutex
	current int
	stop    chan struct{}
	done    chan struct{}
}

// NewSimulator builds a simulator that raises progress by step every
// interval until it reaches limit. Limit is capped at 99 so simulated
// progress can never be mistaken for completion.
func NewSimulator(interval time.Duration, step, limit int, sink Sink) *Simulator {
	if step < 1 {
		step = 1
	}
	if limit > 99 {
		limit = 99
	}
	if limit < 1 {
		limit = 1
	}
	return &Simulator{
		interval: interval,
		step:     step,
		limit:    limit,
		sink:     sink,
	}
}

// Start begins emitting simulated updates. It is a no-op if already running.
func (s *Simulator) Start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stop != nil {
		return
	}
	s.stop = make(chan struct{})
	s.done = make(chan struct{})
	go s.run(s.stop, s.done)
}

// Stop halts the simulation and waits for the emitting goroutine to exit.
// No updates are delivered after Stop returns.
func (s *Simulator) Stop() {
	s.mu.Lock()
	stop, done := s.stop, s.done
	s.stop, s.done = nil, nil
	s.mu.Unlock()

	if stop == nil {
		return
	}
	close(stop)
	<-done
}

// Current returns the last simulated percentage.
func (s *Simulator) Current() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current
}

func (s *Simulator) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			s.mu.Lock()
			if s.current >= s.limit {
				s.mu.Unlock()
				continue
			}
			s.current += s.step
			if s.current > s.limit {
				s.current = s.limit
			}
			percent := s.current
			sink := s.sink
			s.mu.Unlock()

			if sink != nil {
				sink(percent)
			}
		}
	}
}
