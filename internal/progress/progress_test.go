package progress

import (
	"sync"
	"testing"
	"time"
)

func TestTrackerEmitsMonotonicPercentages(t *testing.T) {
	var got []int
	tracker := NewTracker(func(percent int) {
		got = append(got, percent)
	})

	tracker.Observe(0.0)
	tracker.Observe(0.25)
	tracker.Observe(0.20)
	tracker.Observe(0.25)
	tracker.Observe(0.999)
	tracker.Observe(1.0)

	want := []int{0, 25, 99, 100}
	if len(got) != len(want) {
		t.Fatalf("emitted %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("emitted %v, want %v", got, want)
		}
	}
}

func TestTrackerClampsOutOfRangeFractions(t *testing.T) {
	var got []int
	tracker := NewTracker(func(percent int) {
		got = append(got, percent)
	})

	tracker.Observe(-3)
	tracker.Observe(2.5)

	want := []int{0, 100}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("emitted %v, want %v", got, want)
	}
}

func TestSimulatorNeverReportsCompletion(t *testing.T) {
	var mu sync.Mutex
	var got []int
	sim := NewSimulator(time.Millisecond, 40, 100, func(percent int) {
		mu.Lock()
		got = append(got, percent)
		mu.Unlock()
	})

	sim.Start()
	deadline := time.Now().Add(time.Second)
	for sim.Current() < 99 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	sim.Stop()

	mu.Lock()
	defer mu.Unlock()
	if len(got) == 0 {
		t.Fatal("simulator never emitted")
	}
	last := 0
	for _, percent := range got {
		if percent >= 100 {
			t.Fatalf("simulated progress reached %d", percent)
		}
		if percent < last {
			t.Fatalf("progress regressed: %v", got)
		}
		last = percent
	}
	if got[len(got)-1] != 99 {
		t.Fatalf("expected simulation to plateau at 99, got %v", got)
	}
}

func TestSimulatorStopIsIdempotent(t *testing.T) {
	sim := NewSimulator(time.Millisecond, 5, 95, nil)
	sim.Start()
	sim.Stop()
	sim.Stop()
}
