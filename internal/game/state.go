package game

import (
	"math/rand/v2"
	"time"

	"github.com/sashatouille39/gmm71-sub000/internal/catalog"
	"github.com/sashatouille39/gmm71-sub000/internal/player"
	"github.com/sashatouille39/gmm71-sub000/internal/vip"
)

// State is the lifecycle phase of a game
type State string

const (
	StateCreated    State = "created"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

// Group is a set of players cooperating during the game. Members of a group
// that does not allow betrayals never eliminate each other.
type Group struct {
	ID             string   `json:"id"`
	Name           string   `json:"name"`
	MemberIDs      []string `json:"member_ids"`
	AllowBetrayals bool     `json:"allow_betrayals"`
}

// Elimination attributes one eliminated player to a surviving one
type Elimination struct {
	VictimID string `json:"victim_id"`
	KillerID string `json:"killer_id"`
	Betrayal bool   `json:"betrayal"`
}

// EventResult is the outcome of one simulated event
type EventResult struct {
	EventID           int             `json:"event_id"`
	EventName         string          `json:"event_name"`
	EventIndex        int             `json:"event_index"`
	Survivors         []player.Player `json:"survivors"`
	Eliminated        []player.Player `json:"eliminated"`
	TotalParticipants int             `json:"total_participants"`
	Eliminations      []Elimination   `json:"eliminations"`
	Postponed         bool            `json:"postponed"`
	Message           string          `json:"message,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// Game is the central aggregate
type Game struct {
	ID                   string           `json:"id"`
	OwnerID              string           `json:"owner_id"`
	Seed                 uint64           `json:"seed"`
	Events               []catalog.Event  `json:"events"`
	Players              []*player.Player `json:"players"`
	Groups               []Group          `json:"groups"`
	CurrentEventIndex    int              `json:"current_event_index"`
	Completed            bool             `json:"completed"`
	Winner               *player.Player   `json:"winner"`
	Earnings             int64            `json:"earnings"`
	VIPEarningsCollected bool             `json:"vip_earnings_collected"`
	TotalCost            int64            `json:"total_cost"`
	SalonLevel           int              `json:"salon_level"`
	VIPs                 []vip.Assignment `json:"vips"`
	EventResults         []EventResult    `json:"event_results"`
	CreatedAt            time.Time        `json:"created_at"`
	UpdatedAt            time.Time        `json:"updated_at"`
	CompletedAt          *time.Time       `json:"completed_at,omitempty"`
}

// State derives the lifecycle phase
func (g *Game) State() State {
	switch {
	case g.Completed:
		return StateCompleted
	case g.CurrentEventIndex == 0:
		return StateCreated
	default:
		return StateInProgress
	}
}

// AlivePlayers returns the players still in the game, in roster order
func (g *Game) AlivePlayers() []*player.Player {
	alive := make([]*player.Player, 0, len(g.Players))
	for _, p := range g.Players {
		if p.Alive {
			alive = append(alive, p)
		}
	}
	return alive
}

// AliveCount returns the number of players still in the game
func (g *Game) AliveCount() int {
	n := 0
	for _, p := range g.Players {
		if p.Alive {
			n++
		}
	}
	return n
}

// Player looks up a roster entry by id
func (g *Game) Player(id string) *player.Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// EarningsState implements pricing.Ledger
func (g *Game) EarningsState() (completed, collected bool, available int64) {
	return g.Completed, g.VIPEarningsCollected, g.Earnings
}

// MarkEarningsCollected implements pricing.Ledger
func (g *Game) MarkEarningsCollected() {
	g.VIPEarningsCollected = true
	g.Earnings = 0
}

// CanCollect reports whether VIP earnings can be collected now
func (g *Game) CanCollect() bool {
	return g.Completed && !g.VIPEarningsCollected && g.Earnings > 0
}

// eventRNG returns the random source of the current event. It only depends
// on the seed and the event index so a restored game replays identically.
func (g *Game) eventRNG() *rand.Rand {
	return rand.New(rand.NewPCG(g.Seed, uint64(g.CurrentEventIndex)+1))
}

func (g *Game) complete(now time.Time) {
	g.Completed = true
	g.CompletedAt = &now
	alive := g.AlivePlayers()
	if len(alive) == 1 {
		g.Winner = alive[0].Clone()
	}
}

// Clone returns a deep copy of the game. Event results are immutable once
// appended and are shared with the copy.
func (g *Game) Clone() *Game {
	cp := *g
	cp.Events = append([]catalog.Event(nil), g.Events...)
	cp.Players = make([]*player.Player, len(g.Players))
	for i, p := range g.Players {
		cp.Players[i] = p.Clone()
	}
	cp.Groups = make([]Group, len(g.Groups))
	for i, gr := range g.Groups {
		gr.MemberIDs = append([]string(nil), gr.MemberIDs...)
		cp.Groups[i] = gr
	}
	if g.Winner != nil {
		cp.Winner = g.Winner.Clone()
	}
	cp.VIPs = append([]vip.Assignment(nil), g.VIPs...)
	cp.EventResults = append([]EventResult(nil), g.EventResults...)
	if g.CompletedAt != nil {
		t := *g.CompletedAt
		cp.CompletedAt = &t
	}
	return &cp
}
