package journal

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"vigil0/app/pkg/types"
)

func TestAppendAndReadBack(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		ev := Event{
			ID:          ulid.Make().String(),
			Timestamp:   base.Add(time.Duration(i) * time.Hour),
			Weekday:     base.Weekday(),
			Hour:        10 + i,
			State:       types.StateCoding,
			RequestType: "debug",
			DurationMS:  1200,
			Tools:       []string{"bash", "read"},
		}
		if err := store.Append(ctx, ev); err != nil {
			t.Fatalf("append failed: %v", err)
		}
	}

	events, err := store.Events(ctx, base, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("expected 2 events in window, got %d", len(events))
	}
	if events[0].State != types.StateCoding || events[0].RequestType != "debug" {
		t.Fatalf("unexpected event %+v", events[0])
	}
	if len(events[0].Tools) != 2 || events[0].Tools[0] != "bash" {
		t.Fatalf("unexpected tools %v", events[0].Tools)
	}
	if !events[1].Timestamp.After(events[0].Timestamp) {
		t.Fatal("events must come back oldest first")
	}

	n, err := store.Count(ctx)
	if err != nil || n != 3 {
		t.Fatalf("expected count 3, got %d err=%v", n, err)
	}
}

func TestAppendRequiresID(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	if err := store.Append(context.Background(), Event{Timestamp: time.Now()}); err == nil {
		t.Fatal("expected error for event without id")
	}
}

func TestMalformedToolsRowSkipped(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	ctx := context.Background()
	base := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	good := Event{ID: ulid.Make().String(), Timestamp: base, Hour: 10, State: types.StateCoding, RequestType: "debug"}
	if err := store.Append(ctx, good); err != nil {
		t.Fatalf("append failed: %v", err)
	}

	// Corrupt row written behind the store's back.
	if _, err := store.conn.Exec(
		`INSERT INTO interactions (id, ts, weekday, hour, state, request_type, prompt_chars, response_chars, duration_ms, tools_json)
		 VALUES (?, ?, 1, 11, 'CODING', 'debug', 0, 0, 0, '{not json')`,
		ulid.Make().String(), base.Add(time.Hour).Unix(),
	); err != nil {
		t.Fatalf("raw insert failed: %v", err)
	}

	events, err := store.Events(ctx, base, base.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected malformed row to be skipped, got %d events", len(events))
	}
}

type failingAppender struct{}

func (failingAppender) Append(context.Context, Event) error {
	return errors.New("disk full")
}

type panickingAppender struct{}

func (panickingAppender) Append(context.Context, Event) error {
	panic("storage corrupted")
}

func TestRecorderNeverRaises(t *testing.T) {
	r := &Recorder{store: failingAppender{}, timeout: time.Second, nowFn: time.Now}
	// Must return normally despite the failing backend.
	r.Log("fix the bug", "done", 800, nil, types.StateCoding)

	r = &Recorder{store: panickingAppender{}, timeout: time.Second, nowFn: time.Now}
	r.Log("fix the bug", "done", 800, nil, types.StateCoding)

	r = &Recorder{timeout: time.Second, nowFn: time.Now}
	r.Log("no store wired", "", 0, nil, types.StateAway)
}

func TestRecorderWritesThrough(t *testing.T) {
	store, err := Open(t.TempDir())
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer store.Close()

	fixed := time.Date(2026, 3, 3, 14, 30, 0, 0, time.UTC)
	r := &Recorder{store: store, timeout: time.Second, nowFn: func() time.Time { return fixed }}
	r.Log("why does the test fail?", "because of X", 950, []string{"grep"}, types.StateCoding)

	events, err := store.Events(context.Background(), fixed.Add(-time.Minute), fixed.Add(time.Minute))
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if len(events) != 1 {
		t.Fatalf("expected 1 event, got %d", len(events))
	}
	ev := events[0]
	if ev.RequestType != "debug" {
		t.Fatalf("expected debug classification, got %q", ev.RequestType)
	}
	if ev.Hour != 14 || ev.Weekday != fixed.Weekday() {
		t.Fatalf("unexpected slot fields: hour=%d weekday=%v", ev.Hour, ev.Weekday)
	}
}

func TestClassifyRequest(t *testing.T) {
	cases := []struct {
		prompt string
		want   string
	}{
		{"there's an error in the parser", "debug"},
		{"implement a ring buffer", "feature"},
		{"what does hysteresis mean", "question"},
		{"any idea for the scheduler design", "brainstorm"},
		{"rename the output folder", "admin"},
	}
	for _, tc := range cases {
		if got := ClassifyRequest(tc.prompt); got != tc.want {
			t.Fatalf("prompt %q: expected %s, got %s", tc.prompt, tc.want, got)
		}
	}
}
