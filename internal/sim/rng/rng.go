package rng

// Stream is a deterministic random stream addressed by (seed, day, salt).
// Every stochastic rule in the simulation draws from its own named stream so
// that a fixed seed and fixed inputs reproduce identical state, independent of
// unrelated draws elsewhere in the day.
type Stream struct {
	state uint64
}

func New(seed int64, day int, salt uint64) *Stream {
	v := uint64(seed) ^ (uint64(uint32(day)) * 0x9e3779b97f4a7c15) ^ (salt * 0xbf58476d1ce4e5b9)
	return &Stream{state: mix64(v)}
}

func mix64(z uint64) uint64 {
	z += 0x9e3779b97f4a7c15
	z = (z ^ (z >> 30)) * 0xbf58476d1ce4e5b9
	z = (z ^ (z >> 27)) * 0x94d049bb133111eb
	return z ^ (z >> 31)
}

func (s *Stream) Uint64() uint64 {
	s.state = mix64(s.state)
	return s.state
}

// Float64 returns a value in [0,1).
func (s *Stream) Float64() float64 {
	return float64(s.Uint64()>>11) / (1 << 53)
}

// IntN returns a value in [0,n). n must be > 0. Draws past the largest
// multiple of n are rejected so every value is equally likely.
func (s *Stream) IntN(n int) int {
	limit := ^uint64(0) - ^uint64(0)%uint64(n)
	for {
		if v := s.Uint64(); v < limit {
			return int(v % uint64(n))
		}
	}
}

// Between returns a value in [lo,hi).
func (s *Stream) Between(lo, hi float64) float64 {
	return lo + s.Float64()*(hi-lo)
}

// RangeInt returns a value in [lo,hi] inclusive.
func (s *Stream) RangeInt(lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + s.IntN(hi-lo+1)
}

// Roll reports whether an event with probability p occurred.
func (s *Stream) Roll(p float64) bool {
	return s.Float64() < p
}
