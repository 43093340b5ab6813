package player

import (
	"encoding/json"
)

// Stat bounds
const (
	MinStat = 1
	MaxStat = 100
)

// Stats holds the three static attributes. The json key for agility is the
// accented "agilité" and must not change.
type Stats struct {
	Intelligence int `json:"intelligence"`
	Force        int `json:"force"`
	Agilite      int `json:"agilité"`
}

// Sum returns the total of the three stats
func (s Stats) Sum() int {
	return s.Intelligence + s.Force + s.Agilite
}

// Average returns the mean of the three stats
func (s Stats) Average() float64 {
	return float64(s.Sum()) / 3
}

// Clamp bounds every stat to MinStat..MaxStat
func (s Stats) Clamp() Stats {
	return Stats{
		Intelligence: clampStat(s.Intelligence),
		Force:        clampStat(s.Force),
		Agilite:      clampStat(s.Agilite),
	}
}

func clampStat(v int) int {
	if v < MinStat {
		return MinStat
	}
	if v > MaxStat {
		return MaxStat
	}
	return v
}

// Player is one participant of a game
type Player struct {
	ID          string          `json:"id"`
	Number      string          `json:"number"`
	Name        string          `json:"name"`
	Nationality string          `json:"nationality"`
	Gender      string          `json:"gender"`
	Role        string          `json:"role"`
	Stats       Stats           `json:"stats"`
	Portrait    json.RawMessage `json:"portrait,omitempty"`
	Uniform     json.RawMessage `json:"uniform,omitempty"`
	GroupID     string          `json:"group_id,omitempty"`
	Category    RoleCategory    `json:"category"`

	// Per-game state, mutated only by the simulation engine
	Alive          bool     `json:"alive"`
	Kills          int      `json:"kills"`
	Betrayals      int      `json:"betrayals"`
	SurvivedEvents int      `json:"survived_events"`
	TotalScore     int      `json:"total_score"`
	KilledPlayers  []string `json:"killed_players"`
}

// ResetGameState puts the player back to the start-of-game state
func (p *Player) ResetGameState() {
	p.Alive = true
	p.Kills = 0
	p.Betrayals = 0
	p.SurvivedEvents = 0
	p.TotalScore = 0
	p.KilledPlayers = make([]string, 0)
}

// RecordKill credits the elimination of victimID to p
func (p *Player) RecordKill(victimID string, betrayal bool) {
	p.KilledPlayers = append(p.KilledPlayers, victimID)
	p.Kills = len(p.KilledPlayers)
	if betrayal {
		p.Betrayals++
	}
}

// Snapshot returns a deep copy safe to hand out of the engine
func (p *Player) Snapshot() Player {
	cp := *p
	cp.KilledPlayers = append(make([]string, 0, len(p.KilledPlayers)), p.KilledPlayers...)
	if p.Portrait != nil {
		cp.Portrait = append(json.RawMessage(nil), p.Portrait...)
	}
	if p.Uniform != nil {
		cp.Uniform = append(json.RawMessage(nil), p.Uniform...)
	}
	return cp
}

// Clone returns a deep copy as a pointer
func (p *Player) Clone() *Player {
	cp := p.Snapshot()
	return &cp
}
