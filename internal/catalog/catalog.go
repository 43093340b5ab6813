// Package catalog holds the read-only table of event definitions shared by
// every game.
package catalog

import (
	"fmt"
	"sort"

	"github.com/sashatouille39/gmm71-sub000/internal/errs"
	"github.com/sashatouille39/gmm71-sub000/internal/player"
)

// Category groups events by theme
type Category string

const (
	Classiques    Category = "classiques"
	Combat        Category = "combat"
	Survie        Category = "survie"
	Psychologique Category = "psychologique"
	Athletique    Category = "athletique"
	Technologique Category = "technologique"
	Extreme       Category = "extreme"
	Finale        Category = "finale"
)

// Focus names the stat that protects a player during an event
type Focus string

const (
	FocusIntelligence Focus = "intelligence"
	FocusForce        Focus = "force"
	FocusAgilite      Focus = "agilité"
	FocusAll          Focus = "all"
)

// MaxSurvivalTime caps survival_time_max, in seconds
const MaxSurvivalTime = 300

// Event is a catalog definition
type Event struct {
	ID                 int      `json:"id"`
	Name               string   `json:"name"`
	Category           Category `json:"category"`
	Description        string   `json:"description"`
	EliminationRate    float64  `json:"elimination_rate"`
	IsFinal            bool     `json:"is_final"`
	MinPlayersForFinal int      `json:"min_players_for_final,omitempty"`
	SurvivalTimeMin    int      `json:"survival_time_min"`
	SurvivalTimeMax    int      `json:"survival_time_max"`
	KillCap            int      `json:"kill_cap"`
	Focus              Focus    `json:"focus"`
}

// RelevantStat returns the stat value that protects a player in this event
func (e Event) RelevantStat(s player.Stats) int {
	switch e.Focus {
	case FocusIntelligence:
		return s.Intelligence
	case FocusForce:
		return s.Force
	case FocusAgilite:
		return s.Agilite
	default:
		return s.Sum() / 3
	}
}

// Catalog is an immutable, concurrency-safe lookup of events
type Catalog struct {
	events []Event
	byID   map[int]Event
}

// New builds a catalog after validating its invariants
func New(events []Event) (*Catalog, error) {
	if err := Validate(events); err != nil {
		return nil, err
	}
	c := &Catalog{
		events: append([]Event(nil), events...),
		byID:   make(map[int]Event, len(events)),
	}
	sort.SliceStable(c.events, func(i, j int) bool { return c.events[i].ID < c.events[j].ID })
	for _, ev := range c.events {
		c.byID[ev.ID] = ev
	}
	return c, nil
}

// Get looks up an event by id
func (c *Catalog) Get(id int) (Event, bool) {
	ev, ok := c.byID[id]
	return ev, ok
}

// All returns a copy of every event, ordered by id
func (c *Catalog) All() []Event {
	return append([]Event(nil), c.events...)
}

// Final returns the unique final event
func (c *Catalog) Final() Event {
	for _, ev := range c.events {
		if ev.IsFinal {
			return ev
		}
	}
	return Event{}
}

// Resolve maps ids to definitions, keeping the requested order
func (c *Catalog) Resolve(ids []int) ([]Event, error) {
	if len(ids) == 0 {
		return nil, errs.Validation("create_game", "at least one event is required")
	}
	seen := make(map[int]bool, len(ids))
	out := make([]Event, 0, len(ids))
	for _, id := range ids {
		ev, ok := c.byID[id]
		if !ok {
			return nil, errs.Validation("create_game", "unknown event id %d", id)
		}
		if seen[id] {
			return nil, errs.Validation("create_game", "event id %d listed twice", id)
		}
		seen[id] = true
		out = append(out, ev)
	}
	return out, nil
}

// Validate checks the catalog invariants
func Validate(events []Event) error {
	finals := 0
	ids := make(map[int]bool, len(events))
	for _, ev := range events {
		if ids[ev.ID] {
			return fmt.Errorf("duplicate event id %d", ev.ID)
		}
		ids[ev.ID] = true

		if ev.SurvivalTimeMax > MaxSurvivalTime || ev.SurvivalTimeMin < 0 || ev.SurvivalTimeMin > ev.SurvivalTimeMax {
			return fmt.Errorf("event %d: invalid survival time bounds %d-%d", ev.ID, ev.SurvivalTimeMin, ev.SurvivalTimeMax)
		}
		if ev.KillCap < 1 {
			return fmt.Errorf("event %d: kill cap must be positive", ev.ID)
		}

		if ev.IsFinal {
			finals++
			if ev.Category != Finale {
				return fmt.Errorf("event %d: final event must be in the finale category", ev.ID)
			}
			if ev.MinPlayersForFinal < 2 || ev.MinPlayersForFinal > 4 {
				return fmt.Errorf("event %d: min players for final must be 2-4", ev.ID)
			}
			if ev.EliminationRate < 0.9 || ev.EliminationRate >= 1 {
				return fmt.Errorf("event %d: final elimination rate must be in [0.9,1)", ev.ID)
			}
			continue
		}

		if ev.EliminationRate < 0 || ev.EliminationRate >= 1 {
			return fmt.Errorf("event %d: elimination rate must be in [0,1)", ev.ID)
		}
	}
	if finals != 1 {
		return fmt.Errorf("catalog must contain exactly one final event, found %d", finals)
	}
	return nil
}
