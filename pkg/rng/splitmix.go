package rng

// SplitMix64 constants (Vigna, public domain reference implementation).
const (
	goldenGamma = 0x9E3779B97F4A7C15
	mixM1       = 0xBF58476D1CE4E5B9
	mixM2       = 0x94D049BB133111EB
)

// Mixer expands one 64-bit seed into a stream of well-mixed words.
// It is the SplitMix64 generator and also satisfies math/rand/v2.Source.
type Mixer struct {
	state uint64
}

func NewMixer(seed uint64) *Mixer {
	return &Mixer{state: seed}
}

// Next advances the stream and returns the next 64-bit output.
func (m *Mixer) Next() uint64 {
	m.state += goldenGamma
	x := m.state
	x ^= x >> 30
	x *= mixM1
	x ^= x >> 27
	x *= mixM2
	x ^= x >> 31
	return x
}

func (m *Mixer) Uint64() uint64 { return m.Next() }

// Fill64 writes one output per word.
func (m *Mixer) Fill64(dst []uint64) {
	for i := range dst {
		dst[i] = m.Next()
	}
}

// Fill32 packs two 32-bit words per draw: low half first, then high half.
// For an odd length the high half of the last draw is discarded.
func (m *Mixer) Fill32(dst []uint32) {
	for i := 0; i < len(dst); i += 2 {
		x := m.Next()
		dst[i] = uint32(x)
		if i+1 < len(dst) {
			dst[i+1] = uint32(x >> 32)
		}
	}
}
