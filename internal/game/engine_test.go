package game

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sashatouille39/gmm71-sub000/internal/catalog"
	"github.com/sashatouille39/gmm71-sub000/internal/errs"
)

func mustEvents(t *testing.T, ids ...int) []catalog.Event {
	t.Helper()
	events, err := catalog.Default().Resolve(ids)
	require.NoError(t, err)
	return events
}

func newEngineGame(t *testing.T, players int, seed uint64, ids ...int) *Game {
	t.Helper()
	roster := testRoster(players)
	for _, p := range roster {
		p.ResetGameState()
	}
	return &Game{ID: "g", Seed: seed, Players: roster, Events: mustEvents(t, ids...)}
}

// TestEliminationCount checks the clamp at roster-size boundaries
func TestEliminationCount(t *testing.T) {
	tests := []struct {
		n     int
		rate  float64
		final bool
		want  int
	}{
		{n: 20, rate: 0.40, want: 8},
		{n: 9, rate: 0.50, want: 5},
		{n: 3, rate: 0.10, want: 1},
		{n: 2, rate: 0.90, want: 1},
		{n: 10, rate: 0.0, want: 1},
		{n: 10, rate: 0.99, want: 9},
		{n: 4, rate: 0.99, final: true, want: 3},
		{n: 2, rate: 0.99, final: true, want: 1},
		{n: 1, rate: 0.50, want: 0},
	}
	for _, tt := range tests {
		got := EliminationCount(tt.n, tt.rate, tt.final)
		if got != tt.want {
			t.Errorf("EliminationCount(%d, %.2f, %v) = %d, want %d", tt.n, tt.rate, tt.final, got, tt.want)
		}
		if tt.n > 1 && (tt.n-got < 1 || tt.n-got > tt.n-1) {
			t.Errorf("EliminationCount(%d, %.2f) leaves %d survivors", tt.n, tt.rate, tt.n-got)
		}
	}
}

// TestOrderEventsMovesFinalLast covers a final inserted mid-list
func TestOrderEventsMovesFinalLast(t *testing.T) {
	events := mustEvents(t, 1, catalog.FinalEventID, 10, 20)

	ordered := OrderEvents(events, false)
	require.Len(t, ordered, 4)
	assert.True(t, ordered[3].IsFinal)
	assert.Equal(t, []int{1, 10, 20, catalog.FinalEventID}, ids(ordered))

	kept := OrderEvents(events, true)
	assert.Equal(t, []int{1, catalog.FinalEventID, 10, 20}, ids(kept))
}

func ids(events []catalog.Event) []int {
	out := make([]int, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}

// TestSimulateInvariants runs many seeded games and checks the accounting
func TestSimulateInvariants(t *testing.T) {
	engine := NewEngine(DefaultScore())
	for s := uint64(1); s <= 40; s++ {
		rng := rand.New(rand.NewPCG(s, s))
		n := 20 + rng.IntN(80)
		g := newEngineGame(t, n, s, 1, 10, 4, 60, 13, 20, catalog.FinalEventID)

		totalEliminated := 0
		for !g.Completed {
			before := g.AliveCount()
			res, err := engine.SimulateNextEvent(g)
			require.NoError(t, err)
			if res.Postponed {
				break
			}

			assert.Equal(t, res.TotalParticipants, len(res.Survivors)+len(res.Eliminated))
			assert.Equal(t, before, res.TotalParticipants)
			assert.Len(t, res.Eliminations, len(res.Eliminated))
			assert.GreaterOrEqual(t, g.AliveCount(), 1, "seed %d reached zero survivors", s)
			totalEliminated += len(res.Eliminated)
		}

		kills := 0
		for _, p := range g.Players {
			assert.Equal(t, len(p.KilledPlayers), p.Kills, "player %s", p.ID)
			assert.Equal(t, 10*p.SurvivedEvents+5*p.Kills, p.TotalScore, "player %s", p.ID)
			kills += p.Kills
		}
		assert.Equal(t, totalEliminated, kills, "seed %d", s)

		if g.Completed && g.AliveCount() == 1 {
			require.NotNil(t, g.Winner)
			assert.Equal(t, g.AlivePlayers()[0].ID, g.Winner.ID)
			assert.Equal(t, g.AlivePlayers()[0].TotalScore, g.Winner.TotalScore)
		}
	}
}

func TestEliminatedPlayersLeaveThePool(t *testing.T) {
	engine := NewEngine(DefaultScore())
	g := newEngineGame(t, 30, 7, 1, 2, 3)

	first, err := engine.SimulateNextEvent(g)
	require.NoError(t, err)
	second, err := engine.SimulateNextEvent(g)
	require.NoError(t, err)

	gone := make(map[string]bool)
	for _, p := range first.Eliminated {
		gone[p.ID] = true
	}
	for _, p := range second.Survivors {
		assert.False(t, gone[p.ID])
	}
	for _, p := range second.Eliminated {
		assert.False(t, gone[p.ID])
	}
	assert.Equal(t, len(first.Survivors), second.TotalParticipants)
}

// TestFinalPostponed covers a final reached with ten players alive
func TestFinalPostponed(t *testing.T) {
	engine := NewEngine(DefaultScore())
	g := newEngineGame(t, 10, 1, catalog.FinalEventID)

	res, err := engine.SimulateNextEvent(g)
	require.NoError(t, err)
	assert.True(t, res.Postponed)
	assert.NotEmpty(t, res.Message)
	assert.Empty(t, res.Eliminated)
	assert.Len(t, res.Survivors, 10)
	assert.Equal(t, 0, g.CurrentEventIndex)
	assert.Equal(t, 10, g.AliveCount())
	assert.Empty(t, g.EventResults)
	assert.False(t, g.Completed)
	for _, p := range g.Players {
		assert.Zero(t, p.SurvivedEvents)
	}
}

func TestFinalLeavesExactlyOne(t *testing.T) {
	engine := NewEngine(DefaultScore())
	g := newEngineGame(t, 4, 3, catalog.FinalEventID)

	res, err := engine.SimulateNextEvent(g)
	require.NoError(t, err)
	assert.False(t, res.Postponed)
	assert.Len(t, res.Survivors, 1)
	assert.Len(t, res.Eliminated, 3)
	assert.True(t, g.Completed)
	require.NotNil(t, g.Winner)
	assert.Equal(t, res.Survivors[0].ID, g.Winner.ID)
	assert.NotNil(t, g.CompletedAt)
}

func TestEventsExhaustedWithoutWinner(t *testing.T) {
	engine := NewEngine(DefaultScore())
	g := newEngineGame(t, 40, 5, 21)

	res, err := engine.SimulateNextEvent(g)
	require.NoError(t, err)
	assert.Equal(t, 10, len(res.Eliminated))
	assert.True(t, g.Completed)
	assert.Nil(t, g.Winner)
	assert.Equal(t, StateCompleted, g.State())
}

func TestSimulateAfterCompletion(t *testing.T) {
	engine := NewEngine(DefaultScore())
	g := newEngineGame(t, 4, 3, catalog.FinalEventID)
	_, err := engine.SimulateNextEvent(g)
	require.NoError(t, err)

	_, err = engine.SimulateNextEvent(g)
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindInvalidState))
}

func TestSimulateIsDeterministic(t *testing.T) {
	engine := NewEngine(DefaultScore())
	a := newEngineGame(t, 50, 99, 1, 10, 60)
	b := newEngineGame(t, 50, 99, 1, 10, 60)

	for i := 0; i < 3; i++ {
		ra, err := engine.SimulateNextEvent(a)
		require.NoError(t, err)
		rb, err := engine.SimulateNextEvent(b)
		require.NoError(t, err)
		assert.Equal(t, ra.Eliminations, rb.Eliminations)
	}
}

func TestMonotonicScore(t *testing.T) {
	engine := NewEngine(ScoreConfig{SurvivalPoints: 10, KillPoints: 5})
	g := newEngineGame(t, 60, 11, 1, 2, 3, 40)
	for !g.Completed {
		_, err := engine.SimulateNextEvent(g)
		require.NoError(t, err)
	}

	for _, a := range g.Players {
		for _, b := range g.Players {
			if a.Kills == b.Kills && a.SurvivedEvents > b.SurvivedEvents {
				assert.Greater(t, a.TotalScore, b.TotalScore)
			}
		}
	}
}

func TestProtectedGroupsDoNotKillEachOther(t *testing.T) {
	engine := NewEngine(DefaultScore())
	g := newEngineGame(t, 30, 21, 1, 10)

	var members []string
	for _, p := range g.Players[:6] {
		p.GroupID = "alliance"
		members = append(members, p.ID)
	}
	g.Groups = []Group{{ID: "alliance", Name: "Alliance", MemberIDs: members}}

	for i := 0; i < 2; i++ {
		res, err := engine.SimulateNextEvent(g)
		require.NoError(t, err)
		for _, el := range res.Eliminations {
			victim, killer := g.Player(el.VictimID), g.Player(el.KillerID)
			if victim.GroupID == "alliance" {
				assert.NotEqual(t, "alliance", killer.GroupID)
			}
			assert.False(t, el.Betrayal)
		}
	}
	for _, p := range g.Players {
		assert.Zero(t, p.Betrayals)
	}
}

func TestStateTransitions(t *testing.T) {
	engine := NewEngine(DefaultScore())
	g := newEngineGame(t, 20, 1, quickEvents...)
	assert.Equal(t, StateCreated, g.State())

	_, err := engine.SimulateNextEvent(g)
	require.NoError(t, err)
	assert.Equal(t, StateInProgress, g.State())

	for !g.Completed {
		_, err := engine.SimulateNextEvent(g)
		require.NoError(t, err)
	}
	assert.Equal(t, StateCompleted, g.State())
	assert.Equal(t, 1, g.AliveCount())
}

func TestSnapshotsAreDetached(t *testing.T) {
	engine := NewEngine(DefaultScore())
	g := newEngineGame(t, 20, 2, 1, 2)

	res, err := engine.SimulateNextEvent(g)
	require.NoError(t, err)
	scores := make(map[string]int)
	for _, p := range res.Survivors {
		scores[p.ID] = p.TotalScore
	}

	_, err = engine.SimulateNextEvent(g)
	require.NoError(t, err)
	for _, p := range res.Survivors {
		assert.Equal(t, scores[p.ID], p.TotalScore)
	}
}
