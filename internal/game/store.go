package game

import (
	"context"
	"sync"

	"github.com/sashatouille39/gmm71-sub000/internal/errs"
)

// Ledger entry kinds. A game has at most one entry of each kind.
const (
	LedgerCharge      = "charge"
	LedgerRefund      = "refund"
	LedgerVIPEarnings = "vip_earnings"
)

// Store persists games and owner wallets. Every method that moves money does
// so in the same atomic step as the game change it belongs to.
type Store interface {
	// Wallet returns the owner's balance, opening the wallet if needed
	Wallet(ctx context.Context, ownerID string) (int64, error)
	// CreateGame inserts the game and debits its total cost
	CreateGame(ctx context.Context, g *Game) (int64, error)
	// SaveGame updates the game snapshot
	SaveGame(ctx context.Context, g *Game) error
	// CreditEarnings saves the collected game and credits amount
	CreditEarnings(ctx context.Context, g *Game, amount int64) (int64, error)
	// DeleteGame removes the game and credits refund
	DeleteGame(ctx context.Context, g *Game, refund int64) (int64, error)
	// LoadGames returns every stored game
	LoadGames(ctx context.Context) ([]*Game, error)
}

// MemoryStore keeps everything in process memory
type MemoryStore struct {
	mu              sync.Mutex
	startingBalance int64
	games           map[string]*Game
	wallets         map[string]int64
	ledger          map[string]map[string]int64
}

// NewMemoryStore creates an empty store. New wallets open with startingBalance.
func NewMemoryStore(startingBalance int64) *MemoryStore {
	return &MemoryStore{
		startingBalance: startingBalance,
		games:           make(map[string]*Game),
		wallets:         make(map[string]int64),
		ledger:          make(map[string]map[string]int64),
	}
}

func (s *MemoryStore) wallet(ownerID string) int64 {
	b, ok := s.wallets[ownerID]
	if !ok {
		b = s.startingBalance
		s.wallets[ownerID] = b
	}
	return b
}

func (s *MemoryStore) record(gameID, kind string, amount int64) error {
	entries, ok := s.ledger[gameID]
	if !ok {
		entries = make(map[string]int64)
		s.ledger[gameID] = entries
	}
	if _, dup := entries[kind]; dup {
		return errs.Conflict("ledger", "%s already recorded for game %s", kind, gameID)
	}
	entries[kind] = amount
	return nil
}

func (s *MemoryStore) Wallet(ctx context.Context, ownerID string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.wallet(ownerID), nil
}

func (s *MemoryStore) CreateGame(ctx context.Context, g *Game) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.games[g.ID]; exists {
		return 0, errs.Conflict("create_game", "game %s already exists", g.ID)
	}
	balance := s.wallet(g.OwnerID)
	if balance < g.TotalCost {
		return balance, errs.Validation("create_game", "insufficient funds: cost %d, balance %d", g.TotalCost, balance)
	}
	if err := s.record(g.ID, LedgerCharge, -g.TotalCost); err != nil {
		return balance, err
	}
	balance -= g.TotalCost
	s.wallets[g.OwnerID] = balance
	s.games[g.ID] = g.Clone()
	return balance, nil
}

func (s *MemoryStore) SaveGame(ctx context.Context, g *Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[g.ID]; !ok {
		return errs.NotFound("save_game", "game %s not found", g.ID)
	}
	s.games[g.ID] = g.Clone()
	return nil
}

func (s *MemoryStore) CreditEarnings(ctx context.Context, g *Game, amount int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[g.ID]; !ok {
		return 0, errs.NotFound("credit_earnings", "game %s not found", g.ID)
	}
	if err := s.record(g.ID, LedgerVIPEarnings, amount); err != nil {
		return 0, err
	}
	balance := s.wallet(g.OwnerID) + amount
	s.wallets[g.OwnerID] = balance
	s.games[g.ID] = g.Clone()
	return balance, nil
}

func (s *MemoryStore) DeleteGame(ctx context.Context, g *Game, refund int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.games[g.ID]; !ok {
		return 0, errs.NotFound("delete_game", "game %s not found", g.ID)
	}
	balance := s.wallet(g.OwnerID)
	if refund > 0 {
		if err := s.record(g.ID, LedgerRefund, refund); err != nil {
			return balance, err
		}
		balance += refund
		s.wallets[g.OwnerID] = balance
	}
	delete(s.games, g.ID)
	return balance, nil
}

func (s *MemoryStore) LoadGames(ctx context.Context) ([]*Game, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Game, 0, len(s.games))
	for _, g := range s.games {
		out = append(out, g.Clone())
	}
	return out, nil
}
