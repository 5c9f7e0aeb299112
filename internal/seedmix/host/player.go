package host

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/chenzhangda16/seedmix/internal/seedmix/entropy"
	"github.com/chenzhangda16/seedmix/internal/seedmix/store"
	"github.com/chenzhangda16/seedmix/pkg/rng"
)

// Stream names for the simulated player.
const (
	StepsPerDay = "steps_per_day"
	IdleMillis  = "idle_millis"
)

// progressKey holds the simulated game's progress next to the seed state.
const progressKey = "Game"

// Player stands in for the host game: it plays one day per tick and reports
// the totals a real game would hand over at the day boundary.
type Player struct {
	rf  *rng.Factory
	day time.Duration
}

func NewPlayer(rf *rng.Factory, dayLength time.Duration) *Player {
	return &Player{rf: rf, day: dayLength}
}

// PlayDay advances g by one day.
func (p *Player) PlayDay(g entropy.GameState) entropy.GameState {
	g.DaysPlayed++
	g.MillisecondsPlayed += p.day.Milliseconds() + p.rf.R(IdleMillis).Int64N(1_000)
	g.StepsTaken += 500 + p.rf.R(StepsPerDay).Int64N(2_500)
	return g
}

func loadProgress(ctx context.Context, s store.Store, saveID uint64) (entropy.GameState, bool) {
	g := entropy.GameState{DaysPlayed: 1, UniqueID: saveID}
	b, ok, err := s.Get(ctx, saveID, progressKey)
	if err != nil {
		log.Printf("[host] load progress failed, starting at day 1: save=%d err=%v", saveID, err)
		return g, false
	}
	if !ok {
		return g, false
	}
	if err := json.Unmarshal(b, &g); err != nil {
		log.Printf("[host] corrupt progress, starting at day 1: save=%d err=%v", saveID, err)
		return entropy.GameState{DaysPlayed: 1, UniqueID: saveID}, false
	}
	g.UniqueID = saveID
	return g, true
}

func saveProgress(ctx context.Context, s store.Store, g entropy.GameState) error {
	b, err := json.Marshal(g)
	if err != nil {
		return err
	}
	return s.Put(ctx, g.UniqueID, progressKey, b)
}
