package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Tuning aggregates the gameplay constants consumed by the simulation stages.
// Every value ships with a compiled-in default; a YAML file referenced by
// OVERDRIVE_TUNING overrides individual fields without restating the rest.
type Tuning struct {
	Track     TrackTuning     `yaml:"track"`
	Dynamics  DynamicsTuning  `yaml:"dynamics"`
	Magnetism MagnetismTuning `yaml:"magnetism"`
	Lane      LaneTuning      `yaml:"lane"`
	TrafficAI TrafficAITuning `yaml:"traffic_ai"`
	Spawn     SpawnTuning     `yaml:"spawn"`
	Collision CollisionTuning `yaml:"collision"`
	Damage    DamageTuning    `yaml:"damage"`
	Crash     CrashTuning     `yaml:"crash"`
	Risk      RiskTuning      `yaml:"risk"`
}

// TrackTuning controls the procedural track generator.
type TrackTuning struct {
	LookaheadMeters  float64 `yaml:"lookahead_meters"`
	TrailingMeters   float64 `yaml:"trailing_meters"`
	SegmentLength    float64 `yaml:"segment_length"`
	SegmentLengthVar float64 `yaml:"segment_length_var"`
	LaneCount        int     `yaml:"lane_count"`
	LaneWidth        float64 `yaml:"lane_width"`
	MinRadius        float64 `yaml:"min_radius"`
	MaxYawDelta      float64 `yaml:"max_yaw_delta"`
	MaxPitchDelta    float64 `yaml:"max_pitch_delta"`
	CurveYawCutoff   float64 `yaml:"curve_yaw_cutoff"`
	TunnelWeight     float64 `yaml:"tunnel_weight"`
	OverpassWeight   float64 `yaml:"overpass_weight"`
	ForkWeight       float64 `yaml:"fork_weight"`
	TunnelCooldown   int     `yaml:"tunnel_cooldown"`
	OverpassCooldown int     `yaml:"overpass_cooldown"`
	ForkCooldown     int     `yaml:"fork_cooldown"`
	DifficultyRamp   float64 `yaml:"difficulty_ramp"`
}

// DynamicsTuning controls the longitudinal and yaw vehicle model.
type DynamicsTuning struct {
	ThrottleAccel   float64 `yaml:"throttle_accel"`
	BrakeDecel      float64 `yaml:"brake_decel"`
	DragCoeff       float64 `yaml:"drag_coeff"`
	MinSpeed        float64 `yaml:"min_speed"`
	MaxSpeed        float64 `yaml:"max_speed"`
	RefSpeed        float64 `yaml:"ref_speed"`
	SteerTorque     float64 `yaml:"steer_torque"`
	DriftTorque     float64 `yaml:"drift_torque"`
	YawDamping      float64 `yaml:"yaw_damping"`
	RecoveryTorque  float64 `yaml:"recovery_torque"`
	SteerDeadzone   float64 `yaml:"steer_deadzone"`
	DriftExitYaw    float64 `yaml:"drift_exit_yaw"`
	DriftExitRate   float64 `yaml:"drift_exit_rate"`
	MaxYawRate      float64 `yaml:"max_yaw_rate"`
	SlipGain        float64 `yaml:"slip_gain"`
	LateralDecay    float64 `yaml:"lateral_decay"`
	OrientBlendRate float64 `yaml:"orient_blend_rate"`
}

// MagnetismTuning controls the lane-centering spring.
type MagnetismTuning struct {
	Omega          float64 `yaml:"omega"`
	AutopilotBoost float64 `yaml:"autopilot_boost"`
	SpeedScaleMin  float64 `yaml:"speed_scale_min"`
	SpeedScaleMax  float64 `yaml:"speed_scale_max"`
	HandbrakeScale float64 `yaml:"handbrake_scale"`
	DriftScale     float64 `yaml:"drift_scale"`
	EdgeStart      float64 `yaml:"edge_start"`
	EdgeStiffness  float64 `yaml:"edge_stiffness"`
	MaxLateralVel  float64 `yaml:"max_lateral_vel"`
}

// LaneTuning controls player lane-change triggering and blocking windows.
type LaneTuning struct {
	SteerTrigger     float64 `yaml:"steer_trigger"`
	CounterSteer     float64 `yaml:"counter_steer"`
	BaseDuration     float64 `yaml:"base_duration"`
	MinDuration      float64 `yaml:"min_duration"`
	MaxDuration      float64 `yaml:"max_duration"`
	BlockAhead       float64 `yaml:"block_ahead"`
	BlockBehind      float64 `yaml:"block_behind"`
	ClosingSpeedGain float64 `yaml:"closing_speed_gain"`
}

// TrafficAITuning controls the six-factor lane scoring model.
type TrafficAITuning struct {
	EvalInterval    float64 `yaml:"eval_interval"`
	Hysteresis      float64 `yaml:"hysteresis"`
	CommitLock      float64 `yaml:"commit_lock"`
	WeightSpeed     float64 `yaml:"weight_speed"`
	WeightDensity   float64 `yaml:"weight_density"`
	WeightEmergency float64 `yaml:"weight_emergency"`
	WeightHazard    float64 `yaml:"weight_hazard"`
	WeightPlayer    float64 `yaml:"weight_player"`
	WeightSameLane  float64 `yaml:"weight_same_lane"`
	DensityFalloff  float64 `yaml:"density_falloff"`
	SafeDistance    float64 `yaml:"safe_distance"`
	LethalPenalty   float64 `yaml:"lethal_penalty"`
	PlayerRadius    float64 `yaml:"player_radius"`
	EmergencyRange  float64 `yaml:"emergency_range"`
}

// SpawnTuning controls entity population along the generated track.
type SpawnTuning struct {
	MaxHazards         int     `yaml:"max_hazards"`
	MaxTraffic         int     `yaml:"max_traffic"`
	HazardChance       float64 `yaml:"hazard_chance"`
	TrafficChance      float64 `yaml:"traffic_chance"`
	EmergencyChance    float64 `yaml:"emergency_chance"`
	SpawnAheadMin      float64 `yaml:"spawn_ahead_min"`
	SpawnAheadMax      float64 `yaml:"spawn_ahead_max"`
	DespawnBehind      float64 `yaml:"despawn_behind"`
	TrafficSpeedMin    float64 `yaml:"traffic_speed_min"`
	TrafficSpeedMax    float64 `yaml:"traffic_speed_max"`
	EmergencySpeedBump float64 `yaml:"emergency_speed_bump"`
}

// CollisionTuning controls the broad and narrow phase tests.
type CollisionTuning struct {
	BroadRadius    float64 `yaml:"broad_radius"`
	HalfWidth      float64 `yaml:"half_width"`
	HalfHeight     float64 `yaml:"half_height"`
	HalfLength     float64 `yaml:"half_length"`
	MinImpactSpeed float64 `yaml:"min_impact_speed"`
}

// DamageTuning controls energy conversion and component degradation.
type DamageTuning struct {
	EnergyScale      float64 `yaml:"energy_scale"`
	MaxDamage        float64 `yaml:"max_damage"`
	FailureThreshold float64 `yaml:"failure_threshold"`
	SideGripLoss     float64 `yaml:"side_grip_loss"`
	FrontSteerLoss   float64 `yaml:"front_steer_loss"`
	RearSlipGain     float64 `yaml:"rear_slip_gain"`
}

// CrashTuning controls the crash state machine thresholds.
type CrashTuning struct {
	DamageThreshold  float64 `yaml:"damage_threshold"`
	CompoundYaw      float64 `yaml:"compound_yaw"`
	CompoundSpeedPad float64 `yaml:"compound_speed_pad"`
	CompoundDamage   float64 `yaml:"compound_damage"`
	HandoffDelay     float64 `yaml:"handoff_delay"`
	AutopilotSpeed   float64 `yaml:"autopilot_speed"`
}

// RiskTuning controls the risk multiplier and scoring engine.
type RiskTuning struct {
	BaseCap         float64 `yaml:"base_cap"`
	CapFloor        float64 `yaml:"cap_floor"`
	CapDamageLoss   float64 `yaml:"cap_damage_loss"`
	RebuildRate     float64 `yaml:"rebuild_rate"`
	Decay           float64 `yaml:"decay"`
	BrakePenalty    float64 `yaml:"brake_penalty"`
	BrakeCooldown   float64 `yaml:"brake_cooldown"`
	TierFastSpeed   float64 `yaml:"tier_fast_speed"`
	TierBoostSpeed  float64 `yaml:"tier_boost_speed"`
	TierCruiseMult  float64 `yaml:"tier_cruise_mult"`
	TierFastMult    float64 `yaml:"tier_fast_mult"`
	TierBoostMult   float64 `yaml:"tier_boost_mult"`
	ScoreTickCap    float64 `yaml:"score_tick_cap"`
	ScoreCeiling    float64 `yaml:"score_ceiling"`
	ComboWindow     float64 `yaml:"combo_window"`
	ComboStep       float64 `yaml:"combo_step"`
	ComboMax        int     `yaml:"combo_max"`
	WeaveWindow     float64 `yaml:"weave_window"`
	WeaveChanges    int     `yaml:"weave_changes"`
	WeaveMinSpeed   float64 `yaml:"weave_min_speed"`
	DodgeMinSpeed   float64 `yaml:"dodge_min_speed"`
	NeedleGap       float64 `yaml:"needle_gap"`
	ClosePassRange  float64 `yaml:"close_pass_range"`
	SegmentBonus    float64 `yaml:"segment_bonus"`
}

// DefaultTuning returns the compiled-in gameplay constants.
func DefaultTuning() Tuning {
	return Tuning{
		Track: TrackTuning{
			LookaheadMeters:  420,
			TrailingMeters:   140,
			SegmentLength:    60,
			SegmentLengthVar: 18,
			LaneCount:        4,
			LaneWidth:        3.6,
			MinRadius:        45,
			MaxYawDelta:      0.85,
			MaxPitchDelta:    0.12,
			CurveYawCutoff:   0.08,
			TunnelWeight:     0.10,
			OverpassWeight:   0.08,
			ForkWeight:       0.05,
			TunnelCooldown:   6,
			OverpassCooldown: 4,
			ForkCooldown:     8,
			DifficultyRamp:   1.0 / 4000.0,
		},
		Dynamics: DynamicsTuning{
			ThrottleAccel:   14,
			BrakeDecel:      22,
			DragCoeff:       0.12,
			MinSpeed:        8,
			MaxSpeed:        80,
			RefSpeed:        40,
			SteerTorque:     2.4,
			DriftTorque:     0.9,
			YawDamping:      1.8,
			RecoveryTorque:  3.2,
			SteerDeadzone:   0.08,
			DriftExitYaw:    0.12,
			DriftExitRate:   0.35,
			MaxYawRate:      4.5,
			SlipGain:        0.55,
			LateralDecay:    6.0,
			OrientBlendRate: 9.0,
		},
		Magnetism: MagnetismTuning{
			Omega:          3.0,
			AutopilotBoost: 1.5,
			SpeedScaleMin:  0.75,
			SpeedScaleMax:  1.25,
			HandbrakeScale: 0.25,
			DriftScale:     0.3,
			EdgeStart:      0.85,
			EdgeStiffness:  36,
			MaxLateralVel:  12,
		},
		Lane: LaneTuning{
			SteerTrigger:     0.35,
			CounterSteer:     0.7,
			BaseDuration:     0.6,
			MinDuration:      0.45,
			MaxDuration:      1.0,
			BlockAhead:       25,
			BlockBehind:      10,
			ClosingSpeedGain: 0.8,
		},
		TrafficAI: TrafficAITuning{
			EvalInterval:    0.5,
			Hysteresis:      0.15,
			CommitLock:      1.2,
			WeightSpeed:     0.30,
			WeightDensity:   0.20,
			WeightEmergency: 0.15,
			WeightHazard:    0.20,
			WeightPlayer:    0.10,
			WeightSameLane:  0.05,
			DensityFalloff:  0.6,
			SafeDistance:    45,
			LethalPenalty:   3.0,
			PlayerRadius:    30,
			EmergencyRange:  120,
		},
		Spawn: SpawnTuning{
			MaxHazards:         24,
			MaxTraffic:         14,
			HazardChance:       0.55,
			TrafficChance:      0.65,
			EmergencyChance:    0.04,
			SpawnAheadMin:      120,
			SpawnAheadMax:      380,
			DespawnBehind:      60,
			TrafficSpeedMin:    18,
			TrafficSpeedMax:    34,
			EmergencySpeedBump: 12,
		},
		Collision: CollisionTuning{
			BroadRadius:    40,
			HalfWidth:      0.95,
			HalfHeight:     0.7,
			HalfLength:     2.3,
			MinImpactSpeed: 0.5,
		},
		Damage: DamageTuning{
			EnergyScale:      0.04,
			MaxDamage:        100,
			FailureThreshold: 0.25,
			SideGripLoss:     0.5,
			FrontSteerLoss:   0.45,
			RearSlipGain:     0.6,
		},
		Crash: CrashTuning{
			DamageThreshold:  100,
			CompoundYaw:      1.2,
			CompoundSpeedPad: 2.0,
			CompoundDamage:   0.6,
			HandoffDelay:     1.5,
			AutopilotSpeed:   20,
		},
		Risk: RiskTuning{
			BaseCap:        10,
			CapFloor:       1,
			CapDamageLoss:  0.7,
			RebuildRate:    1.0,
			Decay:          0.35,
			BrakePenalty:   0.5,
			BrakeCooldown:  2.0,
			TierFastSpeed:  30,
			TierBoostSpeed: 55,
			TierCruiseMult: 1,
			TierFastMult:   2,
			TierBoostMult:  3,
			ScoreTickCap:   500,
			ScoreCeiling:   999_999_999,
			ComboWindow:    4.0,
			ComboStep:      0.15,
			ComboMax:       10,
			WeaveWindow:    6.0,
			WeaveChanges:   3,
			WeaveMinSpeed:  25,
			DodgeMinSpeed:  20,
			NeedleGap:      5.5,
			ClosePassRange: 3.5,
			SegmentBonus:   250,
		},
	}
}

// LoadTuning merges the YAML file at path over the compiled defaults.
// An empty path returns the defaults untouched.
func LoadTuning(path string) (Tuning, error) {
	tuning := DefaultTuning()
	if path == "" {
		return tuning, nil
	}
	//1.- Read the whole catalogue up front so partial files never half-apply.
	raw, err := os.ReadFile(path)
	if err != nil {
		return tuning, fmt.Errorf("read tuning file: %w", err)
	}
	//2.- Unmarshal over the defaults so absent keys keep their compiled values.
	if err := yaml.Unmarshal(raw, &tuning); err != nil {
		return tuning, fmt.Errorf("parse tuning file: %w", err)
	}
	if err := tuning.Validate(); err != nil {
		return tuning, err
	}
	return tuning, nil
}

// Validate rejects tuning values that would break simulation invariants.
func (t Tuning) Validate() error {
	if t.Dynamics.MinSpeed <= 0 || t.Dynamics.MaxSpeed <= t.Dynamics.MinSpeed {
		return fmt.Errorf("dynamics speed envelope invalid: min %.2f max %.2f", t.Dynamics.MinSpeed, t.Dynamics.MaxSpeed)
	}
	if t.Track.LaneCount < 2 {
		return fmt.Errorf("track lane count must be at least 2, got %d", t.Track.LaneCount)
	}
	if t.Track.MinRadius <= 0 {
		return fmt.Errorf("track min radius must be positive, got %.2f", t.Track.MinRadius)
	}
	if t.TrafficAI.Hysteresis < 0 || t.TrafficAI.CommitLock < 0 {
		return fmt.Errorf("traffic ai hysteresis and commit lock must be non-negative")
	}
	if t.Risk.BaseCap <= 0 || t.Risk.CapFloor < 0 {
		return fmt.Errorf("risk cap configuration invalid: base %.2f floor %.2f", t.Risk.BaseCap, t.Risk.CapFloor)
	}
	if t.Damage.MaxDamage <= 0 {
		return fmt.Errorf("damage max must be positive, got %.2f", t.Damage.MaxDamage)
	}
	return nil
}
