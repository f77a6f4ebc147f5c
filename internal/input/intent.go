package input

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"overdrive/sim/internal/mathx"
)

var (
	// ErrEmptyPayload signals a zero-length intent frame.
	ErrEmptyPayload = errors.New("empty intent payload")
	// ErrMissingController signals an intent without a controller identity.
	ErrMissingController = errors.New("intent missing controller id")
	// ErrMissingVersion signals an intent without a schema version.
	ErrMissingVersion = errors.New("intent missing schema version")
	// ErrStaleSequence signals an intent whose sequence does not advance.
	ErrStaleSequence = errors.New("intent sequence out of order")
)

// Controls is the per-tick input state consumed by the simulation. Values are
// already deadzone and curve processed by the input device layer.
type Controls struct {
	Steer     float64
	Throttle  float64
	Brake     float64
	Handbrake bool
}

// Clamped returns the controls bounded to their documented ranges.
func (c Controls) Clamped() Controls {
	return Controls{
		Steer:     mathx.Clamp(c.Steer, -1, 1),
		Throttle:  mathx.Clamp(c.Throttle, 0, 1),
		Brake:     mathx.Clamp(c.Brake, 0, 1),
		Handbrake: c.Handbrake,
	}
}

// Intent mirrors the JSON layout of control frames arriving over the socket.
type Intent struct {
	SchemaVersion string  `json:"schema_version"`
	ControllerID  string  `json:"controller_id"`
	SequenceID    uint64  `json:"sequence_id"`
	Steer         float64 `json:"steer"`
	Throttle      float64 `json:"throttle"`
	Brake         float64 `json:"brake"`
	Handbrake     bool    `json:"handbrake"`
	SentAtMs      int64   `json:"sent_at_ms,omitempty"`
}

// Decode parses a websocket frame into a structured intent.
func Decode(raw []byte) (*Intent, error) {
	//1.- Ensure we have data to decode before hitting JSON parsing.
	if len(raw) == 0 {
		return nil, ErrEmptyPayload
	}
	var intent Intent
	if err := json.Unmarshal(raw, &intent); err != nil {
		return nil, err
	}
	return &intent, nil
}

// Validate enforces required metadata and range limits on the intent.
func (i *Intent) Validate() error {
	if i == nil {
		return errors.New("intent is nil")
	}
	if i.SchemaVersion == "" {
		return ErrMissingVersion
	}
	if i.ControllerID == "" {
		return ErrMissingController
	}
	if i.SequenceID == 0 {
		return fmt.Errorf("intent sequence id must be positive: %d", i.SequenceID)
	}
	return nil
}

// Controls converts the intent into clamped per-tick control state.
func (i *Intent) Controls() Controls {
	if i == nil {
		return Controls{}
	}
	return Controls{
		Steer:     i.Steer,
		Throttle:  i.Throttle,
		Brake:     i.Brake,
		Handbrake: i.Handbrake,
	}.Clamped()
}

// SentAt converts the optional capture timestamp into a time.Time instance.
func (i *Intent) SentAt() time.Time {
	//1.- Treat missing or zero timestamps as unset so freshness derives from arrival time.
	if i == nil || i.SentAtMs == 0 {
		return time.Time{}
	}
	return time.UnixMilli(i.SentAtMs)
}
