package track

// Salt values namespace the per-segment hash draws so each attribute gets an
// independent deterministic stream from the same (seed, index) pair.
const (
	saltLength uint64 = 0x1
	saltYaw    uint64 = 0x2
	saltPitch  uint64 = 0x3
	saltKind   uint64 = 0x5
	saltSpan   uint64 = 0x7
)

// Hash64 mixes (seed, index, salt) into a uniformly distributed 64-bit value.
// The function is stateless so regenerating any segment is reproducible
// without replaying the whole run.
func Hash64(seed uint32, index uint64, salt uint64) uint64 {
	//1.- Fold the three inputs with large odd constants before finalizing.
	x := uint64(seed)*0x9E3779B97F4A7C15 ^ index*0xBF58476D1CE4E5B9 ^ salt*0x94D049BB133111EB
	//2.- Apply the splitmix64 finalizer for avalanche across all bits.
	x ^= x >> 30
	x *= 0xBF58476D1CE4E5B9
	x ^= x >> 27
	x *= 0x94D049BB133111EB
	x ^= x >> 31
	return x
}

// Float01 draws a deterministic value in [0, 1).
func Float01(seed uint32, index uint64, salt uint64) float64 {
	return float64(Hash64(seed, index, salt)>>11) / float64(1<<53)
}

// FloatRange draws a deterministic value in [lo, hi).
func FloatRange(seed uint32, index uint64, salt uint64, lo, hi float64) float64 {
	return lo + (hi-lo)*Float01(seed, index, salt)
}

// IntN draws a deterministic value in [0, n).
func IntN(seed uint32, index uint64, salt uint64, n int) int {
	if n <= 0 {
		return 0
	}
	return int(Hash64(seed, index, salt) % uint64(n))
}
