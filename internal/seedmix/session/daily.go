package session

import (
	"context"
	"fmt"
	"log"
	"strconv"
	"strings"

	"github.com/chenzhangda16/seedmix/internal/seedmix/cache"
	"github.com/chenzhangda16/seedmix/internal/seedmix/entropy"
)

// DailyEvent is a once-per-day roll, like a train passing, that must not
// happen on two consecutive days. Whether it happened yesterday is kept per
// save instead of being rerolled from a shared daily generator.
type DailyEvent struct {
	Name   string
	Chance float64

	// The event time is drawn as SlotMinutes * [FirstSlot, LastSlot).
	FirstSlot   int
	LastSlot    int
	SlotMinutes int
}

// Train is the railroad event: 5.5% per day, between 09:00 and 18:00.
var Train = DailyEvent{Name: "train", Chance: 0.055, FirstSlot: 54, LastSlot: 108, SlotMinutes: 10}

// Occurrence is the outcome of one day's roll.
type Occurrence struct {
	Happens bool

	// Time is the clock time as hhmm, e.g. 1430. Zero unless Happens.
	Time int

	// Skipped is set when the event happened yesterday and was not rolled.
	Skipped bool
}

func (e DailyEvent) memoKey() string { return "event:" + e.Name }

// memo records the day an event happened and its time, as "<day>:<hhmm>".
type memo struct {
	day  uint32
	time int
}

func (m memo) String() string { return fmt.Sprintf("%d:%04d", m.day, m.time) }

func parseMemo(b []byte) (memo, bool) {
	day, hhmm, ok := strings.Cut(string(b), ":")
	if !ok {
		return memo{}, false
	}
	d, err := strconv.ParseUint(day, 10, 32)
	if err != nil {
		return memo{}, false
	}
	t, err := strconv.Atoi(hhmm)
	if err != nil {
		return memo{}, false
	}
	return memo{day: uint32(d), time: t}, true
}

// Daily resolves ev for the day described by g. Only the host decides. The
// memo lives in the save, so asking again for the same day, or after a
// reload, gives the same answer.
func (s *Session) Daily(ctx context.Context, ev DailyEvent, g entropy.GameState) (Occurrence, error) {
	if !s.Host() {
		return Occurrence{}, fmt.Errorf("session: daily %s: %w", ev.Name, cache.ErrNotOwner)
	}
	if !s.loaded.Load() {
		return Occurrence{}, ErrNoSave
	}
	save := s.saveID.Load()

	b, ok, err := s.store.Get(ctx, save, ev.memoKey())
	if err != nil {
		return Occurrence{}, fmt.Errorf("session: daily %s memo: %w", ev.Name, err)
	}
	if m, valid := parseMemo(b); ok && valid {
		switch {
		case m.day == g.DaysPlayed:
			return Occurrence{Happens: true, Time: m.time}, nil
		case g.DaysPlayed > 0 && m.day == g.DaysPlayed-1:
			return Occurrence{Skipped: true}, nil
		}
	}

	r, _ := s.DaySave(g, 0, 0, 0)
	if r.Float64() >= ev.Chance {
		return Occurrence{}, nil
	}
	minutes := ev.FirstSlot * ev.SlotMinutes
	if span := ev.LastSlot - ev.FirstSlot; span > 0 {
		minutes = (ev.FirstSlot + r.IntN(span)) * ev.SlotMinutes
	}
	occ := Occurrence{Happens: true, Time: clock(minutes)}
	m := memo{day: g.DaysPlayed, time: occ.Time}
	if err := s.store.Put(ctx, save, ev.memoKey(), []byte(m.String())); err != nil {
		return Occurrence{}, fmt.Errorf("session: daily %s memo: %w", ev.Name, err)
	}
	log.Printf("[session] daily event: name=%s save=%d day=%d time=%04d", ev.Name, save, g.DaysPlayed, occ.Time)
	return occ, nil
}

// clock turns minutes after midnight into hhmm.
func clock(minutes int) int {
	return minutes/60*100 + minutes%60
}
