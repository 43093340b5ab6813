package game

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/sashatouille39/gmm71-sub000/internal/catalog"
	"github.com/sashatouille39/gmm71-sub000/internal/errs"
	"github.com/sashatouille39/gmm71-sub000/internal/player"
	"github.com/sashatouille39/gmm71-sub000/internal/pricing"
	"github.com/sashatouille39/gmm71-sub000/internal/vip"
)

// Config holds the lifecycle rules of the manager
type Config struct {
	MinPlayers        int
	MaxPlayers        int
	BaseCost          int64
	CostPerPlayer     int64
	CostPerEvent      int64
	DefaultSalonLevel int
	AutoCollect       bool
	Score             ScoreConfig
	MinSpeed          float64
	MaxSpeed          float64
	// TickUnit is the wall-clock time of one survival second at speed 1
	TickUnit time.Duration
}

// DefaultConfig returns the stock lifecycle rules
func DefaultConfig() Config {
	return Config{
		MinPlayers:        20,
		MaxPlayers:        1000,
		BaseCost:          1_000_000,
		CostPerPlayer:     100_000,
		CostPerEvent:      5_000_000,
		DefaultSalonLevel: 1,
		Score:             DefaultScore(),
		MinSpeed:          0.1,
		MaxSpeed:          20,
		TickUnit:          100 * time.Millisecond,
	}
}

// RosterGenerator produces players for games created from a player count
type RosterGenerator interface {
	Generate(n int, rng *rand.Rand) []*player.Player
}

// Classifier computes the pricing category of every roster entry
type Classifier interface {
	ClassifyRoster(players []*player.Player) error
}

// Publisher fans live updates out to subscribers of a game
type Publisher interface {
	Publish(gameID string, msg interface{})
}

// Observer receives lifecycle notifications for metrics
type Observer interface {
	GameCreated(players int)
	EventSimulated(outcome string, eliminated int)
	EarningsCollected(amount int64)
	GameDeleted(refund int64)
}

type nopPublisher struct{}

func (nopPublisher) Publish(string, interface{}) {}

type nopObserver struct{}

func (nopObserver) GameCreated(int)            {}
func (nopObserver) EventSimulated(string, int) {}
func (nopObserver) EarningsCollected(int64)    {}
func (nopObserver) GameDeleted(int64)          {}

// Deps are the collaborators of a Manager. Store, Catalog, VIPs, Classifier
// and Generator are required.
type Deps struct {
	Store      Store
	Catalog    *catalog.Catalog
	VIPs       *vip.Assigner
	Classifier Classifier
	Generator  RosterGenerator
	Publisher  Publisher
	Observer   Observer
	Logger     logrus.FieldLogger
}

type entry struct {
	ownerID string

	mu      sync.Mutex
	game    *Game
	session *session
	deleted bool
}

// Manager owns every game and serializes the writers of each one. Different
// games progress in parallel.
type Manager struct {
	cfg        Config
	engine     *Engine
	store      Store
	catalog    *catalog.Catalog
	vips       *vip.Assigner
	classifier Classifier
	generator  RosterGenerator
	publisher  Publisher
	observer   Observer
	log        logrus.FieldLogger

	mu    sync.RWMutex
	games map[string]*entry

	ctx      context.Context
	cancel   context.CancelFunc
	sessions sync.WaitGroup
}

// NewManager wires a lifecycle manager
func NewManager(cfg Config, deps Deps) *Manager {
	if deps.Publisher == nil {
		deps.Publisher = nopPublisher{}
	}
	if deps.Observer == nil {
		deps.Observer = nopObserver{}
	}
	if deps.Logger == nil {
		deps.Logger = logrus.StandardLogger()
	}
	if cfg.TickUnit <= 0 {
		cfg.TickUnit = DefaultConfig().TickUnit
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Manager{
		cfg:        cfg,
		engine:     NewEngine(cfg.Score),
		store:      deps.Store,
		catalog:    deps.Catalog,
		vips:       deps.VIPs,
		classifier: deps.Classifier,
		generator:  deps.Generator,
		publisher:  deps.Publisher,
		observer:   deps.Observer,
		log:        deps.Logger,
		games:      make(map[string]*entry),
		ctx:        ctx,
		cancel:     cancel,
	}
}

// Restore loads every stored game. Live sessions are not resumed.
func (m *Manager) Restore(ctx context.Context) (int, error) {
	games, err := m.store.LoadGames(ctx)
	if err != nil {
		return 0, errs.Internal("restore", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, g := range games {
		m.games[g.ID] = &entry{ownerID: g.OwnerID, game: g}
	}
	m.log.WithField("games", len(games)).Info("Restored games from store")
	return len(games), nil
}

// Close stops every live session and waits for them to exit
func (m *Manager) Close() {
	m.cancel()
	m.sessions.Wait()
}

// Catalog returns the shared event catalog
func (m *Manager) Catalog() *catalog.Catalog {
	return m.catalog
}

// CreateRequest describes a new game. Either Players or PlayerCount is set.
type CreateRequest struct {
	OwnerID            string
	PlayerCount        int
	Players            []*player.Player
	EventIDs           []int
	PreserveEventOrder bool
	SalonLevel         *int
	Groups             []Group
	Seed               *uint64
}

// CreateResult is a new game and the owner's balance after the charge
type CreateResult struct {
	Game           *Game `json:"game"`
	NewTotalWallet int64 `json:"new_total_wallet"`
}

// CreateGame builds, charges and registers a game
func (m *Manager) CreateGame(ctx context.Context, req CreateRequest) (*CreateResult, error) {
	if req.OwnerID == "" {
		return nil, errs.Validation("create_game", "owner is required")
	}

	events, err := m.catalog.Resolve(req.EventIDs)
	if err != nil {
		return nil, err
	}
	events = OrderEvents(events, req.PreserveEventOrder)

	seed := rand.Uint64()
	if req.Seed != nil {
		seed = *req.Seed
	}
	rng := rand.New(rand.NewPCG(seed, 0))

	players, err := m.roster(req, rng)
	if err != nil {
		return nil, err
	}
	groups, err := assignGroups(players, req.Groups)
	if err != nil {
		return nil, err
	}
	if err := m.classifier.ClassifyRoster(players); err != nil {
		return nil, errs.Internal("create_game", err)
	}

	level := m.cfg.DefaultSalonLevel
	if req.SalonLevel != nil {
		level = *req.SalonLevel
	}
	vips, err := m.vips.Assign(level, rng)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	g := &Game{
		ID:           uuid.NewString(),
		OwnerID:      req.OwnerID,
		Seed:         seed,
		Events:       events,
		Players:      players,
		Groups:       groups,
		TotalCost:    m.Cost(len(players), len(events)),
		SalonLevel:   level,
		VIPs:         vips,
		EventResults: make([]EventResult, 0, len(events)),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	balance, err := m.store.CreateGame(ctx, g)
	if err != nil {
		if errs.KindOf(err) == errs.KindInternal {
			return nil, errs.Internal("create_game", err)
		}
		return nil, err
	}

	m.mu.Lock()
	m.games[g.ID] = &entry{ownerID: g.OwnerID, game: g}
	m.mu.Unlock()

	m.observer.GameCreated(len(players))
	m.log.WithFields(logrus.Fields{
		"game_id": g.ID,
		"owner":   g.OwnerID,
		"players": len(players),
		"events":  len(events),
		"vips":    len(vips),
		"cost":    g.TotalCost,
	}).Info("Game created")

	return &CreateResult{Game: g.Clone(), NewTotalWallet: balance}, nil
}

// Cost returns the creation charge of a game
func (m *Manager) Cost(players, events int) int64 {
	return m.cfg.BaseCost + int64(players)*m.cfg.CostPerPlayer + int64(events)*m.cfg.CostPerEvent
}

func (m *Manager) roster(req CreateRequest, rng *rand.Rand) ([]*player.Player, error) {
	n := req.PlayerCount
	if len(req.Players) > 0 {
		n = len(req.Players)
	}
	if n < m.cfg.MinPlayers || n > m.cfg.MaxPlayers {
		return nil, errs.Validation("create_game", "player count must be between %d and %d, got %d", m.cfg.MinPlayers, m.cfg.MaxPlayers, n)
	}

	if len(req.Players) == 0 {
		players := m.generator.Generate(n, rng)
		for _, p := range players {
			p.ResetGameState()
		}
		return players, nil
	}

	players := make([]*player.Player, 0, n)
	seen := make(map[string]bool, n)
	for i, in := range req.Players {
		if in == nil {
			return nil, errs.Validation("create_game", "player %d is empty", i+1)
		}
		p := in.Clone()
		if p.Name == "" {
			return nil, errs.Validation("create_game", "player %d has no name", i+1)
		}
		if p.ID == "" {
			p.ID = uuid.NewString()
		}
		if seen[p.ID] {
			return nil, errs.Validation("create_game", "duplicate player id %s", p.ID)
		}
		seen[p.ID] = true
		if p.Number == "" {
			p.Number = fmt.Sprintf("%03d", i+1)
		}
		if p.Role == "" {
			p.Role = "normal"
		}
		p.Stats = p.Stats.Clamp()
		p.GroupID = ""
		p.ResetGameState()
		players = append(players, p)
	}
	return players, nil
}

// assignGroups validates the requested groups and tags their members.
// Members are referenced by player id or number.
func assignGroups(players []*player.Player, groups []Group) ([]Group, error) {
	index := make(map[string]*player.Player, 2*len(players))
	for _, p := range players {
		index[p.Number] = p
		index[p.ID] = p
	}

	out := make([]Group, 0, len(groups))
	for i, gr := range groups {
		if len(gr.MemberIDs) == 0 {
			return nil, errs.Validation("create_game", "group %d has no members", i+1)
		}
		if gr.ID == "" {
			gr.ID = uuid.NewString()
		}
		if gr.Name == "" {
			gr.Name = fmt.Sprintf("Groupe %d", i+1)
		}
		members := make([]string, 0, len(gr.MemberIDs))
		for _, ref := range gr.MemberIDs {
			p, ok := index[ref]
			if !ok {
				return nil, errs.Validation("create_game", "group %q references unknown player %q", gr.Name, ref)
			}
			if p.GroupID != "" {
				return nil, errs.Validation("create_game", "player %s belongs to more than one group", p.ID)
			}
			p.GroupID = gr.ID
			members = append(members, p.ID)
		}
		gr.MemberIDs = members
		out = append(out, gr)
	}
	return out, nil
}

func (m *Manager) lookup(ownerID, id string) (*entry, error) {
	m.mu.RLock()
	e, ok := m.games[id]
	m.mu.RUnlock()
	if !ok || e.ownerID != ownerID {
		return nil, errs.NotFound("game", "game %s not found", id)
	}
	return e, nil
}

// acquire returns the locked entry of a live game
func (m *Manager) acquire(ownerID, id string) (*entry, error) {
	e, err := m.lookup(ownerID, id)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	if e.deleted {
		e.mu.Unlock()
		return nil, errs.NotFound("game", "game %s not found", id)
	}
	return e, nil
}

// Get returns a copy of a game
func (m *Manager) Get(ownerID, id string) (*Game, error) {
	e, err := m.acquire(ownerID, id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	return e.game.Clone(), nil
}

// GameSummary is the compact view of a game
type GameSummary struct {
	ID                   string         `json:"id"`
	State                State          `json:"state"`
	CurrentEventIndex    int            `json:"current_event_index"`
	TotalEvents          int            `json:"total_events"`
	TotalPlayers         int            `json:"total_players"`
	AlivePlayers         int            `json:"alive_players"`
	Completed            bool           `json:"completed"`
	Winner               *player.Player `json:"winner"`
	Earnings             int64          `json:"earnings"`
	VIPEarningsCollected bool           `json:"vip_earnings_collected"`
	TotalCost            int64          `json:"total_cost"`
	CreatedAt            time.Time      `json:"created_at"`
}

// Summarize builds the compact view of g
func Summarize(g *Game) GameSummary {
	s := GameSummary{
		ID:                   g.ID,
		State:                g.State(),
		CurrentEventIndex:    g.CurrentEventIndex,
		TotalEvents:          len(g.Events),
		TotalPlayers:         len(g.Players),
		AlivePlayers:         g.AliveCount(),
		Completed:            g.Completed,
		Earnings:             g.Earnings,
		VIPEarningsCollected: g.VIPEarningsCollected,
		TotalCost:            g.TotalCost,
		CreatedAt:            g.CreatedAt,
	}
	if g.Winner != nil {
		s.Winner = g.Winner.Clone()
	}
	return s
}

// List returns copies of the owner's games, oldest first
func (m *Manager) List(ownerID string) []*Game {
	m.mu.RLock()
	entries := make([]*entry, 0, len(m.games))
	for _, e := range m.games {
		if e.ownerID == ownerID {
			entries = append(entries, e)
		}
	}
	m.mu.RUnlock()

	out := make([]*Game, 0, len(entries))
	for _, e := range entries {
		e.mu.Lock()
		if !e.deleted {
			out = append(out, e.game.Clone())
		}
		e.mu.Unlock()
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}

// Wallet returns the owner's balance
func (m *Manager) Wallet(ctx context.Context, ownerID string) (int64, error) {
	b, err := m.store.Wallet(ctx, ownerID)
	if err != nil {
		return 0, errs.Internal("wallet", err)
	}
	return b, nil
}

// SimulationOutcome is the result of one simulate call
type SimulationOutcome struct {
	Result        *EventResult   `json:"result"`
	Game          GameSummary    `json:"game"`
	AutoCollected *CollectResult `json:"auto_collected,omitempty"`
}

// SimulateNextEvent runs the next event of a game. It fails with a conflict
// while a live session drives the game.
func (m *Manager) SimulateNextEvent(ctx context.Context, ownerID, id string) (*SimulationOutcome, error) {
	e, err := m.acquire(ownerID, id)
	if err != nil {
		return nil, err
	}
	if e.session != nil {
		e.mu.Unlock()
		return nil, errs.Conflict("simulate_event", "game %s is driven by a live session", id)
	}
	out, err := m.advance(ctx, e)
	e.mu.Unlock()
	if err != nil {
		return nil, err
	}

	m.publisher.Publish(id, LiveMessage{Type: MessageEventResult, GameID: id, Result: out.Result, Game: &out.Game})
	return out, nil
}

// advance runs one event on a locked entry and persists the outcome. On a
// store failure the in-memory game is rolled back.
func (m *Manager) advance(ctx context.Context, e *entry) (*SimulationOutcome, error) {
	prev := e.game.Clone()
	g := e.game

	res, err := m.engine.SimulateNextEvent(g)
	if err != nil {
		return nil, err
	}

	log := m.log.WithFields(logrus.Fields{
		"game_id": g.ID,
		"event":   res.EventName,
		"index":   res.EventIndex,
	})

	if res.Postponed {
		m.observer.EventSimulated("postponed", 0)
		log.WithField("alive", res.TotalParticipants).Info("Final event postponed")
		return &SimulationOutcome{Result: res, Game: Summarize(g)}, nil
	}

	if g.Completed {
		q := pricing.QuoteFor(g.Players, g.VIPs)
		g.Earnings = q.Total
	}

	if err := m.store.SaveGame(ctx, g); err != nil {
		e.game = prev
		return nil, errs.Internal("simulate_event", err)
	}

	outcome := "advanced"
	if g.Completed {
		outcome = "completed"
	}
	m.observer.EventSimulated(outcome, len(res.Eliminated))
	log.WithFields(logrus.Fields{
		"survivors":  len(res.Survivors),
		"eliminated": len(res.Eliminated),
		"completed":  g.Completed,
	}).Info("Event simulated")

	out := &SimulationOutcome{Result: res}
	if g.Completed {
		if g.Winner != nil {
			log.WithField("winner", g.Winner.ID).Info("Game completed")
		} else {
			log.Info("Game completed without a single survivor")
		}
		if m.cfg.AutoCollect && g.CanCollect() {
			collected, err := m.collect(ctx, e)
			if err != nil {
				log.WithError(err).Warn("Automatic VIP earnings collection failed")
			} else {
				out.AutoCollected = collected
			}
		}
	}
	out.Game = Summarize(e.game)
	return out, nil
}

// EarningsStatus is the read-only view of a game's VIP earnings
type EarningsStatus struct {
	GameID               string `json:"game_id"`
	Completed            bool   `json:"completed"`
	EarningsAvailable    int64  `json:"earnings_available"`
	VIPEarningsCollected bool   `json:"vip_earnings_collected"`
	CanCollect           bool   `json:"can_collect"`
}

// VIPEarningsStatus reports whether earnings can be collected
func (m *Manager) VIPEarningsStatus(ownerID, id string) (*EarningsStatus, error) {
	e, err := m.acquire(ownerID, id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()

	g := e.game
	return &EarningsStatus{
		GameID:               g.ID,
		Completed:            g.Completed,
		EarningsAvailable:    g.Earnings,
		VIPEarningsCollected: g.VIPEarningsCollected,
		CanCollect:           g.CanCollect(),
	}, nil
}

// CollectResult is a collection and the owner's balance after the credit
type CollectResult struct {
	pricing.Collection
	NewTotalWallet int64 `json:"new_total_wallet"`
}

// CollectVIPEarnings credits a completed game's earnings once
func (m *Manager) CollectVIPEarnings(ctx context.Context, ownerID, id string) (*CollectResult, error) {
	e, err := m.acquire(ownerID, id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	return m.collect(ctx, e)
}

// collect is the only path that credits VIP earnings
func (m *Manager) collect(ctx context.Context, e *entry) (*CollectResult, error) {
	prev := e.game.Clone()
	c, err := pricing.Collect(e.game, e.game.Players, e.game.VIPs)
	if err != nil {
		return nil, err
	}
	e.game.UpdatedAt = time.Now()

	balance, err := m.store.CreditEarnings(ctx, e.game, c.EarningsCollected)
	if err != nil {
		e.game = prev
		if errs.KindOf(err) == errs.KindInternal {
			return nil, errs.Internal("collect_vip_earnings", err)
		}
		return nil, err
	}

	m.observer.EarningsCollected(c.EarningsCollected)
	m.log.WithFields(logrus.Fields{
		"game_id": e.game.ID,
		"amount":  c.EarningsCollected,
		"base":    c.BaseEarnings,
		"bonus":   c.BonusAmount,
	}).Info("VIP earnings collected")

	return &CollectResult{Collection: c, NewTotalWallet: balance}, nil
}

// DeleteResult is the refund of a deleted game
type DeleteResult struct {
	GameID         string `json:"game_id"`
	RefundAmount   int64  `json:"refund_amount"`
	NewTotalWallet int64  `json:"new_total_wallet"`
}

// DeleteGame discards a game. A game deleted before completion is refunded
// in full, in the same store transaction as the delete.
func (m *Manager) DeleteGame(ctx context.Context, ownerID, id string) (*DeleteResult, error) {
	e, err := m.acquire(ownerID, id)
	if err != nil {
		return nil, err
	}

	var refund int64
	if !e.game.Completed {
		refund = e.game.TotalCost
	}
	balance, err := m.store.DeleteGame(ctx, e.game, refund)
	if err != nil {
		e.mu.Unlock()
		if errs.KindOf(err) == errs.KindInternal {
			return nil, errs.Internal("delete_game", err)
		}
		return nil, err
	}

	e.deleted = true
	s := e.session
	e.session = nil
	e.mu.Unlock()

	if s != nil {
		s.stop()
		m.publisher.Publish(id, LiveMessage{Type: MessageSessionEnded, GameID: id, Reason: "deleted"})
	}

	m.mu.Lock()
	delete(m.games, id)
	m.mu.Unlock()

	m.observer.GameDeleted(refund)
	m.log.WithFields(logrus.Fields{"game_id": id, "refund": refund}).Info("Game deleted")

	return &DeleteResult{GameID: id, RefundAmount: refund, NewTotalWallet: balance}, nil
}
