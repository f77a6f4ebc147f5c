package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("OVERDRIVE_ADDR", "")
	t.Setenv("OVERDRIVE_SEED", "")
	t.Setenv("OVERDRIVE_MODE", "")
	t.Setenv("OVERDRIVE_TICK_HZ", "")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address != DefaultAddr {
		t.Fatalf("expected default address %q, got %q", DefaultAddr, cfg.Address)
	}
	if cfg.Seed != DefaultSeed {
		t.Fatalf("expected default seed %d, got %d", DefaultSeed, cfg.Seed)
	}
	if cfg.Mode != ModeArcade {
		t.Fatalf("expected arcade mode, got %q", cfg.Mode)
	}
	if cfg.TickRate != DefaultTickRate {
		t.Fatalf("expected tick rate %d, got %d", DefaultTickRate, cfg.TickRate)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("OVERDRIVE_ADDR", ":9000")
	t.Setenv("OVERDRIVE_SEED", "12345")
	t.Setenv("OVERDRIVE_MODE", "relaxed")
	t.Setenv("OVERDRIVE_TICK_HZ", "120")
	t.Setenv("OVERDRIVE_MAX_CLIENTS", "8")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Address != ":9000" || cfg.Seed != 12345 || cfg.Mode != ModeRelaxed {
		t.Fatalf("override mismatch: %+v", cfg)
	}
	if cfg.TickRate != 120 || cfg.MaxClients != 8 {
		t.Fatalf("numeric override mismatch: %+v", cfg)
	}
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("OVERDRIVE_SEED", "not-a-number")
	t.Setenv("OVERDRIVE_MODE", "turbo")
	t.Setenv("OVERDRIVE_TICK_HZ", "-5")

	if _, err := Load(); err == nil {
		t.Fatal("expected aggregated configuration error")
	}
}

func TestLoadTuningDefaultsWhenPathEmpty(t *testing.T) {
	tuning, err := LoadTuning("")
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}
	if tuning.Dynamics.MinSpeed != 8 || tuning.Dynamics.MaxSpeed != 80 {
		t.Fatalf("unexpected speed envelope: %+v", tuning.Dynamics)
	}
	if tuning.TrafficAI.Hysteresis != 0.15 {
		t.Fatalf("unexpected hysteresis: %f", tuning.TrafficAI.Hysteresis)
	}
}

func TestLoadTuningMergesOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	payload := "dynamics:\n  max_speed: 90\nrisk:\n  base_cap: 12\n"
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}

	tuning, err := LoadTuning(path)
	if err != nil {
		t.Fatalf("LoadTuning: %v", err)
	}
	//1.- Overridden keys take the file values.
	if tuning.Dynamics.MaxSpeed != 90 || tuning.Risk.BaseCap != 12 {
		t.Fatalf("override not applied: %+v %+v", tuning.Dynamics, tuning.Risk)
	}
	//2.- Untouched keys keep compiled defaults.
	if tuning.Dynamics.MinSpeed != 8 || tuning.Risk.Decay != 0.35 {
		t.Fatalf("defaults clobbered: %+v %+v", tuning.Dynamics, tuning.Risk)
	}
}

func TestLoadTuningRejectsBrokenEnvelope(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	payload := "dynamics:\n  min_speed: 50\n  max_speed: 40\n"
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write tuning file: %v", err)
	}
	if _, err := LoadTuning(path); err == nil {
		t.Fatal("expected validation error for inverted speed envelope")
	}
}
