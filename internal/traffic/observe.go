package traffic

// VehicleObservation is the read-only view of a surrounding vehicle used by
// the lane decision layer. Distances are longitudinal track coordinates.
type VehicleObservation struct {
	ID        uint64
	Lane      int
	Distance  float64
	Speed     float64
	Emergency bool
	Player    bool
}

// HazardObservation is the read-only view of a hazard used by lane scoring
// and blocking checks.
type HazardObservation struct {
	ID       uint64
	Lane     int
	Distance float64
	Severity float64
	Lethal   bool
}
