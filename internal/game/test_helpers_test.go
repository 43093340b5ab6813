package game

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/sashatouille39/gmm71-sub000/internal/catalog"
	"github.com/sashatouille39/gmm71-sub000/internal/generator"
	"github.com/sashatouille39/gmm71-sub000/internal/player"
	"github.com/sashatouille39/gmm71-sub000/internal/rules"
	"github.com/sashatouille39/gmm71-sub000/internal/vip"
)

const (
	testOwner   = "owner-1"
	testBalance = int64(1_000_000_000)
)

// threeVIPPool yields base earnings of 4,500,000 at salon level 1
func threeVIPPool() *vip.Assigner {
	return vip.NewAssigner([]vip.VIP{
		{ID: "fox", Name: "Le Renard", ViewingFee: 800_000},
		{ID: "eagle", Name: "L'Aigle", ViewingFee: 1_200_000},
		{ID: "lion", Name: "Le Lion", ViewingFee: 2_500_000},
	}, map[int]int{0: 0, 1: 3})
}

type recordingPublisher struct {
	mu   sync.Mutex
	msgs []LiveMessage
}

func (p *recordingPublisher) Publish(gameID string, msg interface{}) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if m, ok := msg.(LiveMessage); ok {
		p.msgs = append(p.msgs, m)
	}
}

func (p *recordingPublisher) ofType(typ string) []LiveMessage {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []LiveMessage
	for _, m := range p.msgs {
		if m.Type == typ {
			out = append(out, m)
		}
	}
	return out
}

type testEnv struct {
	manager   *Manager
	store     *MemoryStore
	publisher *recordingPublisher
	logs      *test.Hook
}

func newTestEnv(t *testing.T, mutate ...func(*Config, *Deps)) *testEnv {
	t.Helper()

	classifier, err := rules.NewClassifier(rules.DefaultConfig())
	require.NoError(t, err)

	logger, hook := test.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	store := NewMemoryStore(testBalance)
	pub := &recordingPublisher{}
	cfg := DefaultConfig()
	deps := Deps{
		Store:      store,
		Catalog:    catalog.Default(),
		VIPs:       threeVIPPool(),
		Classifier: classifier,
		Generator:  generator.New(),
		Publisher:  pub,
		Logger:     logger,
	}
	for _, fn := range mutate {
		fn(&cfg, &deps)
	}

	m := NewManager(cfg, deps)
	t.Cleanup(m.Close)
	return &testEnv{manager: m, store: store, publisher: pub, logs: hook}
}

// testRoster builds n normal players with distinct, mid-range stats
func testRoster(n int) []*player.Player {
	out := make([]*player.Player, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, &player.Player{
			ID:          fmt.Sprintf("p%03d", i+1),
			Number:      fmt.Sprintf("%03d", i+1),
			Name:        fmt.Sprintf("Joueur %d", i+1),
			Nationality: "Française",
			Gender:      "M",
			Role:        "normal",
			Stats: player.Stats{
				Intelligence: 20 + (i*7)%60,
				Force:        20 + (i*11)%60,
				Agilite:      20 + (i*13)%60,
			},
		})
	}
	return out
}

// quickEvents reaches a single survivor from 20 players in three events
var quickEvents = []int{60, 4, catalog.FinalEventID}

func seed(v uint64) *uint64 { return &v }

func createGame(t *testing.T, env *testEnv, req CreateRequest) *Game {
	t.Helper()
	if req.OwnerID == "" {
		req.OwnerID = testOwner
	}
	res, err := env.manager.CreateGame(context.Background(), req)
	require.NoError(t, err)
	return res.Game
}

// playToEnd simulates until completion and returns the number of calls
func playToEnd(t *testing.T, env *testEnv, id string) int {
	t.Helper()
	calls := 0
	for {
		out, err := env.manager.SimulateNextEvent(context.Background(), testOwner, id)
		require.NoError(t, err)
		calls++
		if out.Game.Completed {
			return calls
		}
		require.Less(t, calls, 100, "game did not complete")
	}
}

// failingStore wraps a store and fails selected calls
type failingStore struct {
	Store
	failSave   bool
	failCredit bool
}

var errStoreDown = errors.New("store down")

func (s *failingStore) SaveGame(ctx context.Context, g *Game) error {
	if s.failSave {
		return errStoreDown
	}
	return s.Store.SaveGame(ctx, g)
}

func (s *failingStore) CreditEarnings(ctx context.Context, g *Game, amount int64) (int64, error) {
	if s.failCredit {
		return 0, errStoreDown
	}
	return s.Store.CreditEarnings(ctx, g, amount)
}
