// Package ranking projects game state into the final ranking and the
// aggregate statistics served to clients.
package ranking

import (
	"sort"

	"github.com/sashatouille39/gmm71-sub000/internal/game"
	"github.com/sashatouille39/gmm71-sub000/internal/player"
	"github.com/sashatouille39/gmm71-sub000/internal/pricing"
)

// GameStats are the per-game counters of a ranked player
type GameStats struct {
	TotalScore     int `json:"total_score"`
	SurvivedEvents int `json:"survived_events"`
	Kills          int `json:"kills"`
	Betrayals      int `json:"betrayals"`
}

// Entry is one line of the final ranking
type Entry struct {
	Position    int          `json:"position"`
	Player      RankedPlayer `json:"player"`
	GameStats   GameStats    `json:"game_stats"`
	PlayerStats player.Stats `json:"player_stats"`
}

// RankedPlayer is the identity part of a ranked player
type RankedPlayer struct {
	ID          string `json:"id"`
	Number      string `json:"number"`
	Name        string `json:"name"`
	Nationality string `json:"nationality"`
	Role        string `json:"role"`
	Alive       bool   `json:"alive"`
}

// Final is the ranking projection of one game
type Final struct {
	GameID          string         `json:"game_id"`
	Completed       bool           `json:"completed"`
	Winner          *player.Player `json:"winner"`
	TotalPlayers    int            `json:"total_players"`
	EventsCompleted int            `json:"events_completed"`
	VIPEarnings     int64          `json:"vip_earnings"`
	Ranking         []Entry        `json:"ranking"`
}

// FinalRanking sorts every player by total score, then survived events, then
// kills. Equal players keep their roster order. The projection is built for
// games still in progress too, with Completed reporting the state.
//
// VIPEarnings is the quoted base plus bonus, whether or not it has been
// collected yet.
func FinalRanking(g *game.Game) Final {
	order := make([]int, len(g.Players))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		pa, pb := g.Players[order[a]], g.Players[order[b]]
		if pa.TotalScore != pb.TotalScore {
			return pa.TotalScore > pb.TotalScore
		}
		if pa.SurvivedEvents != pb.SurvivedEvents {
			return pa.SurvivedEvents > pb.SurvivedEvents
		}
		return pa.Kills > pb.Kills
	})

	entries := make([]Entry, len(order))
	for pos, idx := range order {
		p := g.Players[idx]
		entries[pos] = Entry{
			Position: pos + 1,
			Player: RankedPlayer{
				ID:          p.ID,
				Number:      p.Number,
				Name:        p.Name,
				Nationality: p.Nationality,
				Role:        p.Role,
				Alive:       p.Alive,
			},
			GameStats: GameStats{
				TotalScore:     p.TotalScore,
				SurvivedEvents: p.SurvivedEvents,
				Kills:          p.Kills,
				Betrayals:      p.Betrayals,
			},
			PlayerStats: p.Stats,
		}
	}

	var winner *player.Player
	if g.Winner != nil {
		w := g.Winner.Snapshot()
		winner = &w
	}

	return Final{
		GameID:          g.ID,
		Completed:       g.Completed,
		Winner:          winner,
		TotalPlayers:    len(g.Players),
		EventsCompleted: g.CurrentEventIndex,
		VIPEarnings:     pricing.QuoteFor(g.Players, g.VIPs).Total,
		Ranking:         entries,
	}
}

// Stats are counters over a set of games
type Stats struct {
	TotalGames           int   `json:"total_games"`
	CompletedGames       int   `json:"completed_games"`
	TotalKills           int   `json:"total_kills"`
	TotalBetrayals       int   `json:"total_betrayals"`
	TotalEliminations    int   `json:"total_eliminations"`
	VIPEarningsCollected int64 `json:"total_vip_earnings_collected"`
}

// Aggregate sums the counters of games
func Aggregate(games []*game.Game) Stats {
	var s Stats
	for _, g := range games {
		s.TotalGames++
		if g.Completed {
			s.CompletedGames++
		}
		for _, p := range g.Players {
			s.TotalKills += p.Kills
			s.TotalBetrayals += p.Betrayals
			if !p.Alive {
				s.TotalEliminations++
			}
		}
		if g.VIPEarningsCollected {
			s.VIPEarningsCollected += pricing.QuoteFor(g.Players, g.VIPs).Total
		}
	}
	return s
}
