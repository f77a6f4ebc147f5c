package input

import (
	"errors"
	"testing"
)

func TestDecodeAndClamp(t *testing.T) {
	raw := []byte(`{"schema_version":"v1","controller_id":"player-1","sequence_id":4,"steer":1.6,"throttle":-0.3,"brake":2.0,"handbrake":true}`)
	intent, err := Decode(raw)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if err := intent.Validate(); err != nil {
		t.Fatalf("Validate: %v", err)
	}

	controls := intent.Controls()
	if controls.Steer != 1 || controls.Throttle != 0 || controls.Brake != 1 {
		t.Fatalf("controls not clamped: %+v", controls)
	}
	if !controls.Handbrake {
		t.Fatal("handbrake flag lost")
	}
}

func TestDecodeRejectsEmptyPayload(t *testing.T) {
	if _, err := Decode(nil); !errors.Is(err, ErrEmptyPayload) {
		t.Fatalf("expected ErrEmptyPayload, got %v", err)
	}
}

func TestValidateRequiresMetadata(t *testing.T) {
	cases := []struct {
		name   string
		intent Intent
		want   error
	}{
		{"missing version", Intent{ControllerID: "p", SequenceID: 1}, ErrMissingVersion},
		{"missing controller", Intent{SchemaVersion: "v1", SequenceID: 1}, ErrMissingController},
	}
	for _, tc := range cases {
		if err := tc.intent.Validate(); !errors.Is(err, tc.want) {
			t.Fatalf("%s: expected %v, got %v", tc.name, tc.want, err)
		}
	}
	zeroSeq := Intent{SchemaVersion: "v1", ControllerID: "p"}
	if err := zeroSeq.Validate(); err == nil {
		t.Fatal("expected error for zero sequence id")
	}
}

func TestStoreEnforcesMonotonicSequences(t *testing.T) {
	store := NewStore()

	first := &Intent{SchemaVersion: "v1", ControllerID: "p", SequenceID: 5, Steer: 0.5}
	if err := store.Put(first); err != nil {
		t.Fatalf("Put: %v", err)
	}
	//1.- Replays and stale frames must be rejected without mutating state.
	stale := &Intent{SchemaVersion: "v1", ControllerID: "p", SequenceID: 5, Steer: -1}
	if err := store.Put(stale); !errors.Is(err, ErrStaleSequence) {
		t.Fatalf("expected ErrStaleSequence, got %v", err)
	}
	if got := store.Latest("p"); got.Steer != 0.5 {
		t.Fatalf("stale frame overwrote state: %+v", got)
	}
	//2.- Newer frames advance normally.
	next := &Intent{SchemaVersion: "v1", ControllerID: "p", SequenceID: 6, Steer: -0.25}
	if err := store.Put(next); err != nil {
		t.Fatalf("Put next: %v", err)
	}
	if got := store.Latest("p"); got.Steer != -0.25 {
		t.Fatalf("expected updated steer, got %+v", got)
	}
}

func TestStoreResetKeepsSequenceHistory(t *testing.T) {
	store := NewStore()
	if err := store.Put(&Intent{SchemaVersion: "v1", ControllerID: "p", SequenceID: 9}); err != nil {
		t.Fatalf("Put: %v", err)
	}
	store.Reset()
	if got := store.Latest("p"); got != (Controls{}) {
		t.Fatalf("expected neutral controls after reset, got %+v", got)
	}
	if err := store.Put(&Intent{SchemaVersion: "v1", ControllerID: "p", SequenceID: 3}); !errors.Is(err, ErrStaleSequence) {
		t.Fatalf("expected replay rejection after reset, got %v", err)
	}
}
