package entropy

import (
	"github.com/chenzhangda16/seedmix/internal/seedmix/cache"
	"github.com/chenzhangda16/seedmix/pkg/hash"
)

// LayoutVersion changes whenever a buffer layout below changes. Every
// generator derived from the old layout changes with it.
const LayoutVersion = 1

// Buffer lengths per call site.
const (
	DaySaveLen  = 4 + 8 + 3*8 + 3*4
	IntervalLen = 8 + 8 + 4 + 3*4
	GeneralLen  = 5 * 8
)

// GameState is what the host game exposes at the time of a call.
type GameState struct {
	DaysPlayed         uint32
	UniqueID           uint64
	MillisecondsPlayed int64
	StepsTaken         int64
}

// putDaySave lays out
// [days:4][uid:8][a:8][b:8][c:8][millis:4][steps:4][lastSeed:4].
// The cached 64-bit observations keep their low 32 bits.
func putDaySave(b *hash.Builder, g GameState, st cache.State, a, bb, c float64) {
	b.PutU32(g.DaysPlayed).
		PutU64(g.UniqueID).
		PutF64(a).
		PutF64(bb).
		PutF64(c).
		PutI32(int32(st.LastMillis)).
		PutI32(int32(st.LastSteps)).
		PutI32(st.LastSeed)
}

// putInterval lays out
// [keyHash:8][uid:8][days:4][steps:4][millis:4][lastSeed:4].
func putInterval(b *hash.Builder, key string, g GameState, st cache.State) {
	b.PutU64(keyHash(key)).
		PutU64(g.UniqueID).
		PutU32(g.DaysPlayed).
		PutI32(int32(st.LastSteps)).
		PutI32(int32(st.LastMillis)).
		PutI32(st.LastSeed)
}

func putGeneral(b *hash.Builder, a, bb, c, d, e float64) {
	b.PutF64(a).PutF64(bb).PutF64(c).PutF64(d).PutF64(e)
}

// keyHash maps a missing key to 0 rather than to the hash of "".
func keyHash(key string) uint64 {
	if key == "" {
		return 0
	}
	return hash.KeyHash(key)
}

// DaySaveBuffer returns the day-boundary entropy buffer.
func DaySaveBuffer(g GameState, st cache.State, a, b, c float64) []byte {
	bld := hash.NewBuilder(DaySaveLen)
	putDaySave(bld, g, st, a, b, c)
	return bld.Bytes()
}

// IntervalBuffer returns the "day" interval entropy buffer for key.
func IntervalBuffer(key string, g GameState, st cache.State) []byte {
	bld := hash.NewBuilder(IntervalLen)
	putInterval(bld, key, g, st)
	return bld.Bytes()
}

func GeneralBuffer(a, b, c, d, e float64) []byte {
	bld := hash.NewBuilder(GeneralLen)
	putGeneral(bld, a, b, c, d, e)
	return bld.Bytes()
}
