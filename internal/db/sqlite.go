package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/mattn/go-sqlite3"

	"github.com/sashatouille39/gmm71-sub000/internal/errs"
	"github.com/sashatouille39/gmm71-sub000/internal/game"
)

// DB is the sqlite implementation of game.Store
type DB struct {
	conn            *sql.DB
	mu              sync.RWMutex
	startingBalance int64
}

var _ game.Store = (*DB)(nil)

// LedgerEntry is one money movement tied to a game
type LedgerEntry struct {
	ID        string
	GameID    string
	OwnerID   string
	Kind      string
	Amount    int64
	CreatedAt time.Time
}

// Open connects to the database file at path and runs migrations
func Open(path string, startingBalance int64) (*DB, error) {
	conn, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	conn.SetMaxOpenConns(1)

	db, err := New(conn, startingBalance)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return db, nil
}

// New wraps an open connection and runs migrations
func New(conn *sql.DB, startingBalance int64) (*DB, error) {
	db := &DB{conn: conn, startingBalance: startingBalance}
	if err := db.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

// Close closes the database connection
func (db *DB) Close() error {
	return db.conn.Close()
}

// migrate runs database migrations
func (db *DB) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS games (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		state_json TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS wallets (
		owner_id TEXT PRIMARY KEY,
		balance INTEGER NOT NULL,
		updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS ledger (
		id TEXT PRIMARY KEY,
		game_id TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		kind TEXT NOT NULL,
		amount INTEGER NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE (game_id, kind)
	);

	CREATE INDEX IF NOT EXISTS idx_games_owner_id ON games(owner_id);
	CREATE INDEX IF NOT EXISTS idx_ledger_owner_id ON ledger(owner_id);
	`

	_, err := db.conn.Exec(schema)
	return err
}

// Wallet returns the owner's balance, opening the wallet if needed
func (db *DB) Wallet(ctx context.Context, ownerID string) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	balance, err := db.balance(ctx, tx, ownerID)
	if err != nil {
		return 0, err
	}
	return balance, tx.Commit()
}

// CreateGame inserts the game and debits its cost in one transaction
func (db *DB) CreateGame(ctx context.Context, g *game.Game) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	stateJSON, err := json.Marshal(g)
	if err != nil {
		return 0, fmt.Errorf("encode game %s: %w", g.ID, err)
	}

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	balance, err := db.balance(ctx, tx, g.OwnerID)
	if err != nil {
		return 0, err
	}
	if balance < g.TotalCost {
		return balance, errs.Validation("create_game", "insufficient funds: cost %d, balance %d", g.TotalCost, balance)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO games (id, owner_id, completed, state_json)
		VALUES (?, ?, ?, ?)
	`, g.ID, g.OwnerID, boolToInt(g.Completed), string(stateJSON))
	if err != nil {
		return 0, mapConstraint(err, "create_game", "game %s already exists", g.ID)
	}

	if err := record(ctx, tx, g, game.LedgerCharge, -g.TotalCost); err != nil {
		return 0, err
	}
	balance -= g.TotalCost
	if err := setBalance(ctx, tx, g.OwnerID, balance); err != nil {
		return 0, err
	}
	return balance, tx.Commit()
}

// SaveGame updates the game snapshot
func (db *DB) SaveGame(ctx context.Context, g *game.Game) error {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := updateGame(ctx, tx, "save_game", g); err != nil {
		return err
	}
	return tx.Commit()
}

// CreditEarnings saves the collected game and credits amount. A second credit
// for the same game violates the ledger's unique key.
func (db *DB) CreditEarnings(ctx context.Context, g *game.Game, amount int64) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	if err := updateGame(ctx, tx, "credit_earnings", g); err != nil {
		return 0, err
	}
	if err := record(ctx, tx, g, game.LedgerVIPEarnings, amount); err != nil {
		return 0, err
	}
	balance, err := db.balance(ctx, tx, g.OwnerID)
	if err != nil {
		return 0, err
	}
	balance += amount
	if err := setBalance(ctx, tx, g.OwnerID, balance); err != nil {
		return 0, err
	}
	return balance, tx.Commit()
}

// DeleteGame removes the game and credits refund in one transaction
func (db *DB) DeleteGame(ctx context.Context, g *game.Game, refund int64) (int64, error) {
	db.mu.Lock()
	defer db.mu.Unlock()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, "DELETE FROM games WHERE id = ?", g.ID)
	if err != nil {
		return 0, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return 0, err
	} else if n == 0 {
		return 0, errs.NotFound("delete_game", "game %s not found", g.ID)
	}

	balance, err := db.balance(ctx, tx, g.OwnerID)
	if err != nil {
		return 0, err
	}
	if refund > 0 {
		if err := record(ctx, tx, g, game.LedgerRefund, refund); err != nil {
			return 0, err
		}
		balance += refund
		if err := setBalance(ctx, tx, g.OwnerID, balance); err != nil {
			return 0, err
		}
	}
	return balance, tx.Commit()
}

// LoadGames returns every stored game, oldest first
func (db *DB) LoadGames(ctx context.Context) ([]*game.Game, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, "SELECT id, state_json FROM games ORDER BY created_at, id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var games []*game.Game
	for rows.Next() {
		var id, stateJSON string
		if err := rows.Scan(&id, &stateJSON); err != nil {
			return nil, err
		}
		g := &game.Game{}
		if err := json.Unmarshal([]byte(stateJSON), g); err != nil {
			return nil, fmt.Errorf("decode game %s: %w", id, err)
		}
		games = append(games, g)
	}
	return games, rows.Err()
}

// Ledger returns the money movements of a game
func (db *DB) Ledger(ctx context.Context, gameID string) ([]LedgerEntry, error) {
	db.mu.RLock()
	defer db.mu.RUnlock()

	rows, err := db.conn.QueryContext(ctx, `
		SELECT id, game_id, owner_id, kind, amount, created_at
		FROM ledger WHERE game_id = ? ORDER BY created_at, kind
	`, gameID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []LedgerEntry
	for rows.Next() {
		var e LedgerEntry
		if err := rows.Scan(&e.ID, &e.GameID, &e.OwnerID, &e.Kind, &e.Amount, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (db *DB) balance(ctx context.Context, tx *sql.Tx, ownerID string) (int64, error) {
	_, err := tx.ExecContext(ctx, `
		INSERT OR IGNORE INTO wallets (owner_id, balance) VALUES (?, ?)
	`, ownerID, db.startingBalance)
	if err != nil {
		return 0, err
	}

	var balance int64
	err = tx.QueryRowContext(ctx, "SELECT balance FROM wallets WHERE owner_id = ?", ownerID).Scan(&balance)
	return balance, err
}

func setBalance(ctx context.Context, tx *sql.Tx, ownerID string, balance int64) error {
	_, err := tx.ExecContext(ctx, `
		UPDATE wallets SET balance = ?, updated_at = CURRENT_TIMESTAMP WHERE owner_id = ?
	`, balance, ownerID)
	return err
}

func updateGame(ctx context.Context, tx *sql.Tx, op string, g *game.Game) error {
	stateJSON, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("encode game %s: %w", g.ID, err)
	}

	res, err := tx.ExecContext(ctx, `
		UPDATE games SET state_json = ?, completed = ?, updated_at = CURRENT_TIMESTAMP
		WHERE id = ?
	`, string(stateJSON), boolToInt(g.Completed), g.ID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.NotFound(op, "game %s not found", g.ID)
	}
	return nil
}

func record(ctx context.Context, tx *sql.Tx, g *game.Game, kind string, amount int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO ledger (id, game_id, owner_id, kind, amount)
		VALUES (?, ?, ?, ?, ?)
	`, uuid.NewString(), g.ID, g.OwnerID, kind, amount)
	if err != nil {
		return mapConstraint(err, "ledger", "%s already recorded for game %s", kind, g.ID)
	}
	return nil
}

// mapConstraint turns unique and primary key violations into conflicts
func mapConstraint(err error, op, format string, args ...interface{}) error {
	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) &&
		(sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique || sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey) {
		return errs.Conflict(op, format, args...)
	}
	return err
}

// Helper functions
func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
