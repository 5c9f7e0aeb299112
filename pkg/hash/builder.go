package hash

import (
	"encoding/binary"
	"math"
)

// Builder builds a fixed-layout entropy buffer then condenses it.
//
// Encoding rules:
//   - Fixed-width integers: little-endian
//   - Floats: raw IEEE-754 bit pattern, little-endian
//   - Bytes: appended raw, no length prefix (layouts are fixed per call site)
//
// A Builder is meant to be reused: Reset keeps the backing array.
type Builder struct {
	b []byte
}

func NewBuilder(capacity int) *Builder {
	if capacity <= 0 {
		capacity = 64
	}
	return &Builder{b: make([]byte, 0, capacity)}
}

func (d *Builder) Reset() { d.b = d.b[:0] }

func (d *Builder) Len() int { return len(d.b) }

// Bytes returns a copy of the assembled buffer.
func (d *Builder) Bytes() []byte { return append([]byte(nil), d.b...) }

// View returns the internal buffer; it is only valid until the next Put or Reset.
func (d *Builder) View() []byte { return d.b }

func (d *Builder) PutU32(v uint32) *Builder {
	d.b = binary.LittleEndian.AppendUint32(d.b, v)
	return d
}

func (d *Builder) PutI32(v int32) *Builder { return d.PutU32(uint32(v)) }

func (d *Builder) PutU64(v uint64) *Builder {
	d.b = binary.LittleEndian.AppendUint64(d.b, v)
	return d
}

func (d *Builder) PutI64(v int64) *Builder { return d.PutU64(uint64(v)) }

func (d *Builder) PutF64(v float64) *Builder { return d.PutU64(math.Float64bits(v)) }

func (d *Builder) PutBool(v bool) *Builder {
	if v {
		d.b = append(d.b, 1)
	} else {
		d.b = append(d.b, 0)
	}
	return d
}

func (d *Builder) PutBytes(p []byte) *Builder {
	d.b = append(d.b, p...)
	return d
}

func (d *Builder) Sum64() uint64 {
	return Condense(d.b)
}

// Convenience helpers

func SumU64(vals ...uint64) uint64 {
	b := NewBuilder(8 * len(vals))
	for _, v := range vals {
		b.PutU64(v)
	}
	return b.Sum64()
}
