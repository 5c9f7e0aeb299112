package rng

import (
	"errors"
	"fmt"
)

// MaxWords is the largest state this package lays out.
const MaxWords = 4

// ErrUnknownLayout is returned when a generator's internal state cannot be
// mapped onto a word vector.
var ErrUnknownLayout = errors.New("unrecognized generator state layout")

// Layout describes a generator's native state: Words words of Width bytes.
type Layout struct {
	Words int
	Width int
}

var (
	Layout2x32 = Layout{Words: 2, Width: 4}
	Layout4x64 = Layout{Words: 4, Width: 8}
)

func (l Layout) String() string {
	return fmt.Sprintf("%dx%d", l.Words, l.Width*8)
}

func (l Layout) Validate() error {
	if l.Width != 4 && l.Width != 8 {
		return fmt.Errorf("%w: word width %d bytes", ErrUnknownLayout, l.Width)
	}
	if l.Words < 2 || l.Words > MaxWords {
		return fmt.Errorf("%w: %d words", ErrUnknownLayout, l.Words)
	}
	return nil
}

// State is a generator state vector. Only the first Layout.Words entries of
// Words are meaningful; 4-byte words occupy the low 32 bits.
type State struct {
	Layout Layout
	Words  [MaxWords]uint64
}

// Expand seeds a Mixer and lays out exactly l.Words words of l.Width bytes.
func Expand(seed uint64, l Layout) State {
	st := State{Layout: l}
	m := NewMixer(seed)
	if l.Width == 4 {
		var w [MaxWords]uint32
		m.Fill32(w[:l.Words])
		for i := 0; i < l.Words; i++ {
			st.Words[i] = uint64(w[i])
		}
		return st
	}
	m.Fill64(st.Words[:l.Words])
	return st
}

func (s State) Word32(i int) uint32 { return uint32(s.Words[i]) }

func (s State) Word64(i int) uint64 { return s.Words[i] }

func (s State) IsZero() bool {
	for i := 0; i < s.Layout.Words; i++ {
		if s.Words[i] != 0 {
			return false
		}
	}
	return true
}
