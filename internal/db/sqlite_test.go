package db

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sashatouille39/gmm71-sub000/internal/catalog"
	"github.com/sashatouille39/gmm71-sub000/internal/errs"
	"github.com/sashatouille39/gmm71-sub000/internal/game"
	"github.com/sashatouille39/gmm71-sub000/internal/generator"
	"github.com/sashatouille39/gmm71-sub000/internal/player"
	"github.com/sashatouille39/gmm71-sub000/internal/rules"
	"github.com/sashatouille39/gmm71-sub000/internal/vip"
)

const startingBalance = int64(50_000_000)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "brm.db"), startingBalance)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func testGame(owner string, cost int64) *game.Game {
	events, _ := catalog.Default().Resolve([]int{1, catalog.FinalEventID})
	p := &player.Player{ID: "p1", Number: "001", Name: "Ada", Role: "intelligent",
		Stats: player.Stats{Intelligence: 90, Force: 40, Agilite: 55}, Category: player.Celebrity(3)}
	p.ResetGameState()
	q := &player.Player{ID: "p2", Number: "002", Name: "Bo", Role: "normal",
		Stats: player.Stats{Intelligence: 30, Force: 70, Agilite: 20}, Category: player.Normal()}
	q.ResetGameState()
	return &game.Game{
		ID:         uuid.NewString(),
		OwnerID:    owner,
		Seed:       1<<63 + 7,
		Events:     events,
		Players:    []*player.Player{p, q},
		TotalCost:  cost,
		SalonLevel: 1,
		VIPs:       []vip.Assignment{{VIP: vip.VIP{ID: "fox", ViewingFee: 800_000}, SalonLevel: 1}},
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}
}

func TestWalletOpensWithStartingBalance(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	balance, err := db.Wallet(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, startingBalance, balance)

	balance, err = db.Wallet(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, startingBalance, balance)
}

func TestCreateGameDebitsWallet(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	g := testGame("alice", 8_000_000)

	balance, err := db.CreateGame(ctx, g)
	require.NoError(t, err)
	assert.Equal(t, startingBalance-8_000_000, balance)

	entries, err := db.Ledger(ctx, g.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, game.LedgerCharge, entries[0].Kind)
	assert.Equal(t, int64(-8_000_000), entries[0].Amount)

	_, err = db.CreateGame(ctx, g)
	assert.True(t, errs.Is(err, errs.KindConflict))
}

func TestCreateGameInsufficientFunds(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.CreateGame(ctx, testGame("bob", startingBalance+1))
	require.Error(t, err)
	assert.True(t, errs.Is(err, errs.KindValidation))
	assert.Contains(t, err.Error(), "insufficient funds")

	balance, err := db.Wallet(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, startingBalance, balance)
}

func TestSaveAndLoadGames(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	g := testGame("alice", 1)

	_, err := db.CreateGame(ctx, g)
	require.NoError(t, err)

	g.CurrentEventIndex = 1
	g.Players[1].Alive = false
	g.Players[0].RecordKill("p2", false)
	require.NoError(t, db.SaveGame(ctx, g))

	games, err := db.LoadGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 1)

	got := games[0]
	assert.Equal(t, g.ID, got.ID)
	assert.Equal(t, g.Seed, got.Seed)
	assert.Equal(t, 1, got.CurrentEventIndex)
	assert.Equal(t, player.Celebrity(3), got.Players[0].Category)
	assert.Equal(t, []string{"p2"}, got.Players[0].KilledPlayers)
	assert.False(t, got.Players[1].Alive)
	assert.Equal(t, 55, got.Players[0].Stats.Agilite)
	assert.Equal(t, g.VIPs, got.VIPs)
	assert.True(t, got.Events[1].IsFinal)
}

func TestSaveMissingGame(t *testing.T) {
	db := openTestDB(t)
	err := db.SaveGame(context.Background(), testGame("alice", 1))
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestCreditEarningsOnce(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	g := testGame("alice", 1_000_000)

	_, err := db.CreateGame(ctx, g)
	require.NoError(t, err)

	g.Completed = true
	g.MarkEarningsCollected()
	balance, err := db.CreditEarnings(ctx, g, 4_500_000)
	require.NoError(t, err)
	assert.Equal(t, startingBalance-1_000_000+4_500_000, balance)

	_, err = db.CreditEarnings(ctx, g, 4_500_000)
	assert.True(t, errs.Is(err, errs.KindConflict))

	after, err := db.Wallet(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, balance, after)

	games, err := db.LoadGames(ctx)
	require.NoError(t, err)
	require.Len(t, games, 1)
	assert.True(t, games[0].VIPEarningsCollected)
}

func TestDeleteGameRefunds(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	g := testGame("alice", 3_000_000)

	_, err := db.CreateGame(ctx, g)
	require.NoError(t, err)

	balance, err := db.DeleteGame(ctx, g, g.TotalCost)
	require.NoError(t, err)
	assert.Equal(t, startingBalance, balance)

	games, err := db.LoadGames(ctx)
	require.NoError(t, err)
	assert.Empty(t, games)

	entries, err := db.Ledger(ctx, g.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	_, err = db.DeleteGame(ctx, g, g.TotalCost)
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestDeleteCompletedGameWithoutRefund(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	g := testGame("alice", 3_000_000)

	_, err := db.CreateGame(ctx, g)
	require.NoError(t, err)

	balance, err := db.DeleteGame(ctx, g, 0)
	require.NoError(t, err)
	assert.Equal(t, startingBalance-3_000_000, balance)
}

func TestStoreBacksManager(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	classifier, err := rules.NewClassifier(rules.DefaultConfig())
	require.NoError(t, err)
	deps := game.Deps{
		Store:      db,
		Catalog:    catalog.Default(),
		VIPs:       vip.NewAssigner(vip.DefaultPool(), vip.DefaultCapacities()),
		Classifier: classifier,
		Generator:  generator.New(),
	}

	m := game.NewManager(game.DefaultConfig(), deps)
	t.Cleanup(m.Close)

	res, err := m.CreateGame(ctx, game.CreateRequest{OwnerID: "alice", PlayerCount: 20, EventIDs: []int{60, 4, catalog.FinalEventID}})
	require.NoError(t, err)
	assert.Equal(t, startingBalance-res.Game.TotalCost, res.NewTotalWallet)

	for {
		out, err := m.SimulateNextEvent(ctx, "alice", res.Game.ID)
		require.NoError(t, err)
		if out.Game.Completed {
			break
		}
	}

	restored := game.NewManager(game.DefaultConfig(), deps)
	t.Cleanup(restored.Close)
	n, err := restored.Restore(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	g, err := restored.Get("alice", res.Game.ID)
	require.NoError(t, err)
	assert.True(t, g.Completed)
	assert.Equal(t, 1, g.AliveCount())
}

var errDisk = errors.New("disk I/O error")

func newMockDB(t *testing.T) (*DB, sqlmock.Sqlmock) {
	t.Helper()
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS games").WillReturnResult(sqlmock.NewResult(0, 0))
	db, err := New(conn, 1000)
	require.NoError(t, err)
	return db, mock
}

func TestMigrateFailure(t *testing.T) {
	conn, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer conn.Close()

	mock.ExpectExec("CREATE TABLE").WillReturnError(errDisk)
	_, err = New(conn, 1000)
	assert.ErrorIs(t, err, errDisk)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateGameRollsBackOnLedgerFailure(t *testing.T) {
	db, mock := newMockDB(t)
	g := testGame("owner", 100)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT OR IGNORE INTO wallets").WithArgs("owner", int64(1000)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT balance FROM wallets").WithArgs("owner").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(1000))
	mock.ExpectExec("INSERT INTO games").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO ledger").WillReturnError(errDisk)
	mock.ExpectRollback()

	_, err := db.CreateGame(context.Background(), g)
	assert.ErrorIs(t, err, errDisk)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateGameInsufficientFundsRollsBack(t *testing.T) {
	db, mock := newMockDB(t)
	g := testGame("owner", 5000)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT OR IGNORE INTO wallets").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery("SELECT balance FROM wallets").
		WillReturnRows(sqlmock.NewRows([]string{"balance"}).AddRow(1000))
	mock.ExpectRollback()

	balance, err := db.CreateGame(context.Background(), g)
	assert.True(t, errs.Is(err, errs.KindValidation))
	assert.Equal(t, int64(1000), balance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreditEarningsMissingGame(t *testing.T) {
	db, mock := newMockDB(t)
	g := testGame("owner", 100)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE games SET state_json").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	_, err := db.CreditEarnings(context.Background(), g, 500)
	assert.True(t, errs.Is(err, errs.KindNotFound))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBeginFailure(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectBegin().WillReturnError(errDisk)
	_, err := db.Wallet(context.Background(), "owner")
	assert.ErrorIs(t, err, errDisk)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadGamesRejectsCorruptSnapshot(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery("SELECT id, state_json FROM games").
		WillReturnRows(sqlmock.NewRows([]string{"id", "state_json"}).AddRow("g1", "{not json"))

	_, err := db.LoadGames(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode game g1")
	assert.NoError(t, mock.ExpectationsWereMet())
}
