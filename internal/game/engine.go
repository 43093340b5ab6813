package game

import (
	"fmt"
	"math"
	"time"

	"github.com/sashatouille39/gmm71-sub000/internal/catalog"
	"github.com/sashatouille39/gmm71-sub000/internal/errs"
	"github.com/sashatouille39/gmm71-sub000/internal/player"
)

// ScoreConfig sets the points a survivor earns per event
type ScoreConfig struct {
	SurvivalPoints int `yaml:"survival_points" json:"survival_points"`
	KillPoints     int `yaml:"kill_points" json:"kill_points"`
}

// DefaultScore is the scoring used when none is configured
func DefaultScore() ScoreConfig {
	return ScoreConfig{SurvivalPoints: 10, KillPoints: 5}
}

// Engine advances games one event at a time. It holds no per-game state;
// callers serialize access to a given game.
type Engine struct {
	score ScoreConfig
	now   func() time.Time
}

// NewEngine creates a simulation engine
func NewEngine(score ScoreConfig) *Engine {
	if score.SurvivalPoints <= 0 {
		score.SurvivalPoints = DefaultScore().SurvivalPoints
	}
	if score.KillPoints < 0 {
		score.KillPoints = 0
	}
	return &Engine{score: score, now: time.Now}
}

// EliminationCount returns how many of n participants an event eliminates.
// At least one player is eliminated and at least one survives; a final
// always leaves exactly one.
func EliminationCount(n int, rate float64, final bool) int {
	if n <= 1 {
		return 0
	}
	if final {
		return n - 1
	}
	k := int(math.Round(float64(n) * rate))
	if k < 1 {
		k = 1
	}
	if k > n-1 {
		k = n - 1
	}
	return k
}

// OrderEvents returns the events in play order. Unless preserve is set, the
// final event is moved to the end.
func OrderEvents(events []catalog.Event, preserve bool) []catalog.Event {
	out := make([]catalog.Event, 0, len(events))
	if preserve {
		return append(out, events...)
	}
	var finals []catalog.Event
	for _, ev := range events {
		if ev.IsFinal {
			finals = append(finals, ev)
			continue
		}
		out = append(out, ev)
	}
	return append(out, finals...)
}

// SimulateNextEvent runs the game's current event. A final event with too
// many players left is postponed: the result says so and nothing changes.
func (e *Engine) SimulateNextEvent(g *Game) (*EventResult, error) {
	if g.Completed {
		return nil, errs.InvalidState("simulate_event", "game is already completed")
	}
	if g.CurrentEventIndex >= len(g.Events) {
		return nil, errs.InvalidState("simulate_event", "no events left to simulate")
	}

	ev := g.Events[g.CurrentEventIndex]
	eligible := g.AlivePlayers()
	n := len(eligible)
	now := e.now()

	if n <= 1 {
		return nil, errs.InvalidState("simulate_event", "game already has a single survivor")
	}

	if ev.IsFinal && n > ev.MinPlayersForFinal {
		msg := fmt.Sprintf("final postponed: %d players remain, at most %d allowed", n, ev.MinPlayersForFinal)
		return &EventResult{
			EventID:           ev.ID,
			EventName:         ev.Name,
			EventIndex:        g.CurrentEventIndex,
			Survivors:         snapshots(eligible),
			Eliminated:        []player.Player{},
			TotalParticipants: n,
			Eliminations:      []Elimination{},
			Postponed:         true,
			Message:           msg,
			CreatedAt:         now,
		}, nil
	}

	k := EliminationCount(n, ev.EliminationRate, ev.IsFinal)
	candidates := make([]Candidate, n)
	for i, p := range eligible {
		candidates[i] = Candidate{
			ID:      p.ID,
			GroupID: p.GroupID,
			Weight:  float64(player.MaxStat + 1 - ev.RelevantStat(p.Stats)),
			Kills:   p.Kills,
		}
	}
	constraints := Constraints{
		AllowBetrayals: make(map[string]bool, len(g.Groups)),
		KillCap:        ev.KillCap,
	}
	for _, gr := range g.Groups {
		constraints.AllowBetrayals[gr.ID] = gr.AllowBetrayals
	}

	elims := SelectEliminations(candidates, k, constraints, g.eventRNG())

	byID := make(map[string]*player.Player, n)
	for _, p := range eligible {
		byID[p.ID] = p
	}
	creditedNow := make(map[string]int)
	for _, el := range elims {
		byID[el.VictimID].Alive = false
		byID[el.KillerID].RecordKill(el.VictimID, el.Betrayal)
		creditedNow[el.KillerID]++
	}

	survivors := make([]*player.Player, 0, n-len(elims))
	eliminated := make([]*player.Player, 0, len(elims))
	for _, p := range eligible {
		if !p.Alive {
			eliminated = append(eliminated, p)
			continue
		}
		p.SurvivedEvents++
		p.TotalScore += e.score.SurvivalPoints + e.score.KillPoints*creditedNow[p.ID]
		survivors = append(survivors, p)
	}

	res := &EventResult{
		EventID:           ev.ID,
		EventName:         ev.Name,
		EventIndex:        g.CurrentEventIndex,
		Survivors:         snapshots(survivors),
		Eliminated:        snapshots(eliminated),
		TotalParticipants: n,
		Eliminations:      elims,
		CreatedAt:         now,
	}

	g.CurrentEventIndex++
	g.EventResults = append(g.EventResults, *res)
	g.UpdatedAt = now

	if len(survivors) == 1 || g.CurrentEventIndex >= len(g.Events) {
		g.complete(now)
	}
	return res, nil
}

func snapshots(players []*player.Player) []player.Player {
	out := make([]player.Player, len(players))
	for i, p := range players {
		out[i] = p.Snapshot()
	}
	return out
}
