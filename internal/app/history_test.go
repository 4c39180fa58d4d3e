package app

import (
	"context"
	"testing"
	"time"
)

func TestHistoryRecordsAndReadsBack(t *testing.T) {
	store, err := NewHistoryStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	if err := store.RecordCommand(ctx, ActionRestart, "profile_1"); err != nil {
		t.Fatal(err)
	}
	st := ProcessStatus{Phase: PhaseRunning, Timestamp: time.Now()}.Normalized()
	if err := store.RecordStatus(ctx, st); err != nil {
		t.Fatal(err)
	}

	events, err := store.Recent(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 {
		t.Fatalf("got %d events, want 2", len(events))
	}
	// Newest first.
	if events[0].Kind != "status" || events[0].Phase != PhaseRunning {
		t.Fatalf("unexpected first event: %+v", events[0])
	}
	if events[1].Kind != "command" || events[1].Action != ActionRestart || events[1].Detail != "profile_1" {
		t.Fatalf("unexpected second event: %+v", events[1])
	}
	if events[0].At.IsZero() {
		t.Fatal("timestamp not round-tripped")
	}
}

func TestHistoryRecentLimits(t *testing.T) {
	store, err := NewHistoryStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		if err := store.RecordCommand(ctx, ActionCancel, ""); err != nil {
			t.Fatal(err)
		}
	}
	events, err := store.Recent(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 3 {
		t.Fatalf("limit ignored: got %d events", len(events))
	}
}

func TestHistoryCloseWithoutUse(t *testing.T) {
	store, err := NewHistoryStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	if err := store.Close(); err != nil {
		t.Fatal(err)
	}
}
