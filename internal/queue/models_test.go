package queue

import "testing"

func TestModeForMediaType(t *testing.T) {
	cases := []struct {
		mediaType string
		want      Mode
	}{
		{"video/mp4", ModeServer},
		{"VIDEO/quicktime", ModeServer},
		{" video/webm ", ModeServer},
		{"image/jpeg", ModeClient},
		{"image/png", ModeClient},
		{"application/octet-stream", ModeClient},
		{"", ModeClient},
	}
	for _, tc := range cases {
		if got := ModeForMediaType(tc.mediaType); got != tc.want {
			t.Errorf("ModeForMediaType(%q) = %s, want %s", tc.mediaType, got, tc.want)
		}
	}
}

func TestParseStatus(t *testing.T) {
	if status, ok := ParseStatus("  Done "); !ok || status != StatusDone {
		t.Fatalf("ParseStatus normalization failed: %q %v", status, ok)
	}
	if _, ok := ParseStatus("finished"); ok {
		t.Fatal("expected unknown status to be rejected")
	}
	if _, ok := ParseStatus(""); ok {
		t.Fatal("expected empty status to be rejected")
	}
}

func TestStatusIsTerminal(t *testing.T) {
	terminal := map[Status]bool{
		StatusPending:     false,
		StatusCompressing: false,
		StatusDone:        true,
		StatusError:       true,
	}
	for status, want := range terminal {
		if got := status.IsTerminal(); got != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", status, got, want)
		}
	}
}

func TestBeginAttemptClearsPreviousResults(t *testing.T) {
	item := &Item{
		Status:       StatusError,
		Progress:     37,
		DownloadLink: "http://backend/download/smartpress_old.mp4",
		OriginalSize: 100,
		NewSize:      40,
		ErrorMessage: "previous failure",
	}

	item.BeginAttempt()

	if item.Status != StatusCompressing {
		t.Fatalf("expected compressing, got %s", item.Status)
	}
	if item.Progress != 0 || item.DownloadLink != "" || item.OriginalSize != 0 || item.NewSize != 0 || item.ErrorMessage != "" {
		t.Fatalf("attempt state leaked across retry: %+v", item)
	}
}

func TestAdvanceProgressIsMonotonic(t *testing.T) {
	item := &Item{Status: StatusCompressing}

	item.AdvanceProgress(30)
	item.AdvanceProgress(15)
	if item.Progress != 30 {
		t.Fatalf("progress regressed to %d", item.Progress)
	}

	item.AdvanceProgress(-5)
	if item.Progress != 30 {
		t.Fatalf("negative update changed progress: %d", item.Progress)
	}

	item.AdvanceProgress(250)
	if item.Progress != 100 {
		t.Fatalf("expected clamp to 100, got %d", item.Progress)
	}
}

func TestMarkDoneForcesFullProgress(t *testing.T) {
	item := &Item{Status: StatusCompressing, Progress: 95, ErrorMessage: "stale"}

	item.MarkDone("http://backend/download/smartpress_clip.mp4", 2048, 512)

	if item.Status != StatusDone || item.Progress != 100 {
		t.Fatalf("unexpected terminal state: %+v", item)
	}
	if item.DownloadLink == "" || item.OriginalSize != 2048 || item.NewSize != 512 {
		t.Fatalf("result fields not recorded: %+v", item)
	}
	if item.ErrorMessage != "" {
		t.Fatalf("error message survived success: %q", item.ErrorMessage)
	}
}

func TestMarkFailedDropsPartialResults(t *testing.T) {
	item := &Item{
		Status:       StatusCompressing,
		Progress:     80,
		DownloadLink: "http://backend/download/smartpress_partial.mp4",
		OriginalSize: 2048,
		NewSize:      512,
	}

	item.MarkFailed("  backend returned 500  ")

	if item.Status != StatusError || item.Progress != 0 {
		t.Fatalf("unexpected terminal state: %+v", item)
	}
	if item.DownloadLink != "" || item.OriginalSize != 0 || item.NewSize != 0 {
		t.Fatalf("partial results survived failure: %+v", item)
	}
	if item.ErrorMessage != "backend returned 500" {
		t.Fatalf("unexpected error message: %q", item.ErrorMessage)
	}
}
