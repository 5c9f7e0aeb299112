package peersync

import (
	"errors"
	"fmt"
	"slices"

	"github.com/chenzhangda16/seedmix/internal/seedmix/cache"
	"google.golang.org/protobuf/encoding/protowire"
)

// PeerID identifies a session participant.
type PeerID int64

// Peer is a roster entry. Split-screen peers share the owner's memory and
// never need a copy of the state.
type Peer struct {
	ID          PeerID
	SplitScreen bool
}

const (
	// TypeData carries a full seed state.
	TypeData = "Data"
	// TypeJoin announces a peer on transports without connection events.
	TypeJoin = "Join"

	// Source tags every message this package sends.
	Source = "seedmix"
)

var ErrMalformed = errors.New("peersync: malformed message")

// Message always carries the entire state, never a delta, so duplicated or
// reordered delivery is harmless.
type Message struct {
	Type   string
	Source string
	From   PeerID
	To     []PeerID // empty means everyone
	State  cache.State
}

func NewData(from PeerID, to []PeerID, st cache.State) Message {
	return Message{Type: TypeData, Source: Source, From: from, To: to, State: st}
}

func NewJoin(from PeerID) Message {
	return Message{Type: TypeJoin, Source: Source, From: from}
}

// Addressed reports whether id is a recipient.
func (m Message) Addressed(id PeerID) bool {
	return len(m.To) == 0 || slices.Contains(m.To, id)
}

// Wire field numbers. Never renumber.
const (
	fieldType   protowire.Number = 1
	fieldSource protowire.Number = 2
	fieldFrom   protowire.Number = 3
	fieldTo     protowire.Number = 4
	fieldState  protowire.Number = 5

	fieldMillis protowire.Number = 1
	fieldSteps  protowire.Number = 2
	fieldSeed   protowire.Number = 3
)

// Marshal encodes m in protobuf wire format.
func (m Message) Marshal() []byte {
	var b []byte
	b = protowire.AppendTag(b, fieldType, protowire.BytesType)
	b = protowire.AppendString(b, m.Type)
	b = protowire.AppendTag(b, fieldSource, protowire.BytesType)
	b = protowire.AppendString(b, m.Source)
	b = protowire.AppendTag(b, fieldFrom, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(m.From))

	if len(m.To) > 0 {
		var packed []byte
		for _, id := range m.To {
			packed = protowire.AppendVarint(packed, uint64(id))
		}
		b = protowire.AppendTag(b, fieldTo, protowire.BytesType)
		b = protowire.AppendBytes(b, packed)
	}

	if m.Type == TypeData {
		var st []byte
		st = protowire.AppendTag(st, fieldMillis, protowire.VarintType)
		st = protowire.AppendVarint(st, uint64(m.State.LastMillis))
		st = protowire.AppendTag(st, fieldSteps, protowire.VarintType)
		st = protowire.AppendVarint(st, uint64(m.State.LastSteps))
		st = protowire.AppendTag(st, fieldSeed, protowire.VarintType)
		st = protowire.AppendVarint(st, uint64(int64(m.State.LastSeed)))
		b = protowire.AppendTag(b, fieldState, protowire.BytesType)
		b = protowire.AppendBytes(b, st)
	}
	return b
}

// Unmarshal decodes a message. Unknown fields are skipped.
func Unmarshal(b []byte) (Message, error) {
	m := Message{State: cache.Unset()}
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return Message{}, fmt.Errorf("%w: tag: %v", ErrMalformed, protowire.ParseError(n))
		}
		b = b[n:]

		switch {
		case num == fieldType && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Message{}, fieldErr("type", n)
			}
			m.Type, b = v, b[n:]
		case num == fieldSource && typ == protowire.BytesType:
			v, n := protowire.ConsumeString(b)
			if n < 0 {
				return Message{}, fieldErr("source", n)
			}
			m.Source, b = v, b[n:]
		case num == fieldFrom && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			if n < 0 {
				return Message{}, fieldErr("from", n)
			}
			m.From, b = PeerID(v), b[n:]
		case num == fieldTo && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Message{}, fieldErr("to", n)
			}
			for len(v) > 0 {
				id, k := protowire.ConsumeVarint(v)
				if k < 0 {
					return Message{}, fieldErr("to", k)
				}
				m.To = append(m.To, PeerID(id))
				v = v[k:]
			}
			b = b[n:]
		case num == fieldState && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			if n < 0 {
				return Message{}, fieldErr("state", n)
			}
			st, err := unmarshalState(v)
			if err != nil {
				return Message{}, err
			}
			m.State, b = st, b[n:]
		default:
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return Message{}, fieldErr("unknown", n)
			}
			b = b[n:]
		}
	}
	return m, nil
}

func unmarshalState(b []byte) (cache.State, error) {
	st := cache.Unset()
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return st, fieldErr("state tag", n)
		}
		b = b[n:]
		if typ != protowire.VarintType {
			n := protowire.ConsumeFieldValue(num, typ, b)
			if n < 0 {
				return st, fieldErr("state", n)
			}
			b = b[n:]
			continue
		}
		v, n := protowire.ConsumeVarint(b)
		if n < 0 {
			return st, fieldErr("state", n)
		}
		b = b[n:]
		switch num {
		case fieldMillis:
			st.LastMillis = int64(v)
		case fieldSteps:
			st.LastSteps = int64(v)
		case fieldSeed:
			st.LastSeed = int32(v)
		}
	}
	return st, nil
}

func fieldErr(name string, n int) error {
	return fmt.Errorf("%w: %s: %v", ErrMalformed, name, protowire.ParseError(n))
}
