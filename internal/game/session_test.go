package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sashatouille39/gmm71-sub000/internal/catalog"
	"github.com/sashatouille39/gmm71-sub000/internal/errs"
)

func fastTicks(c *Config, _ *Deps) { c.TickUnit = time.Microsecond }

// slowTicks keeps a session waiting on its first event for the whole test
func slowTicks(c *Config, _ *Deps) { c.TickUnit = time.Hour }

func TestSessionPlaysGameToCompletion(t *testing.T) {
	env := newTestEnv(t, fastTicks)
	g := createGame(t, env, CreateRequest{PlayerCount: 20, EventIDs: quickEvents, Seed: seed(1)})

	st, err := env.manager.StartSession(testOwner, g.ID, 10)
	require.NoError(t, err)
	assert.Equal(t, SessionRunning, st.State)

	require.Eventually(t, func() bool {
		got, err := env.manager.Get(testOwner, g.ID)
		return err == nil && got.Completed
	}, 5*time.Second, 5*time.Millisecond)

	require.Eventually(t, func() bool {
		return len(env.publisher.ofType(MessageSessionEnded)) == 1
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, "completed", env.publisher.ofType(MessageSessionEnded)[0].Reason)
	assert.Len(t, env.publisher.ofType(MessageEventResult), 3)

	_, err = env.manager.Session(testOwner, g.ID)
	assert.True(t, errs.Is(err, errs.KindNotFound))
}

func TestSessionEndsOnPostponedFinal(t *testing.T) {
	env := newTestEnv(t, fastTicks)
	g := createGame(t, env, CreateRequest{PlayerCount: 20, EventIDs: []int{60, catalog.FinalEventID, 4}, PreserveEventOrder: true, Seed: seed(2)})

	_, err := env.manager.StartSession(testOwner, g.ID, 1)
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		return len(env.publisher.ofType(MessageSessionEnded)) == 1
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, "postponed", env.publisher.ofType(MessageSessionEnded)[0].Reason)

	got, err := env.manager.Get(testOwner, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, got.CurrentEventIndex)
	assert.False(t, got.Completed)
}

func TestSessionPauseResume(t *testing.T) {
	env := newTestEnv(t, slowTicks)
	g := createGame(t, env, CreateRequest{PlayerCount: 20, EventIDs: quickEvents})

	_, err := env.manager.ResumeSession(testOwner, g.ID)
	assert.True(t, errs.Is(err, errs.KindInvalidState), "resume without session")

	_, err = env.manager.StartSession(testOwner, g.ID, 1)
	require.NoError(t, err)

	_, err = env.manager.ResumeSession(testOwner, g.ID)
	assert.True(t, errs.Is(err, errs.KindInvalidState), "resume while running")

	st, err := env.manager.PauseSession(testOwner, g.ID)
	require.NoError(t, err)
	assert.Equal(t, SessionPaused, st.State)

	_, err = env.manager.PauseSession(testOwner, g.ID)
	assert.True(t, errs.Is(err, errs.KindInvalidState), "pause while paused")

	st, err = env.manager.ResumeSession(testOwner, g.ID)
	require.NoError(t, err)
	assert.Equal(t, SessionRunning, st.State)

	require.NoError(t, env.manager.StopSession(testOwner, g.ID))
	assert.True(t, errs.Is(env.manager.StopSession(testOwner, g.ID), errs.KindInvalidState))
}

func TestSessionConflicts(t *testing.T) {
	env := newTestEnv(t, slowTicks)
	ctx := context.Background()
	g := createGame(t, env, CreateRequest{PlayerCount: 20, EventIDs: quickEvents})

	_, err := env.manager.StartSession(testOwner, g.ID, 2)
	require.NoError(t, err)

	_, err = env.manager.StartSession(testOwner, g.ID, 2)
	assert.True(t, errs.Is(err, errs.KindConflict))

	_, err = env.manager.SimulateNextEvent(ctx, testOwner, g.ID)
	assert.True(t, errs.Is(err, errs.KindConflict))

	require.NoError(t, env.manager.StopSession(testOwner, g.ID))
	_, err = env.manager.SimulateNextEvent(ctx, testOwner, g.ID)
	assert.NoError(t, err)
}

func TestSessionSpeedBounds(t *testing.T) {
	env := newTestEnv(t, slowTicks)
	g := createGame(t, env, CreateRequest{PlayerCount: 20, EventIDs: quickEvents})

	_, err := env.manager.StartSession(testOwner, g.ID, 0)
	assert.True(t, errs.Is(err, errs.KindValidation))
	_, err = env.manager.StartSession(testOwner, g.ID, 500)
	assert.True(t, errs.Is(err, errs.KindValidation))

	_, err = env.manager.StartSession(testOwner, g.ID, 1)
	require.NoError(t, err)

	st, err := env.manager.SetSessionSpeed(testOwner, g.ID, 5)
	require.NoError(t, err)
	assert.Equal(t, 5.0, st.Speed)

	_, err = env.manager.SetSessionSpeed(testOwner, g.ID, 50)
	assert.True(t, errs.Is(err, errs.KindValidation))

	got, err := env.manager.Session(testOwner, g.ID)
	require.NoError(t, err)
	assert.Equal(t, 5.0, got.Speed)
}

func TestSessionOnCompletedGame(t *testing.T) {
	env := newTestEnv(t)
	g := createGame(t, env, CreateRequest{PlayerCount: 20, EventIDs: quickEvents, Seed: seed(3)})
	playToEnd(t, env, g.ID)

	_, err := env.manager.StartSession(testOwner, g.ID, 1)
	assert.True(t, errs.Is(err, errs.KindInvalidState))
}

func TestDeleteStopsSession(t *testing.T) {
	env := newTestEnv(t, slowTicks)
	g := createGame(t, env, CreateRequest{PlayerCount: 20, EventIDs: quickEvents})

	_, err := env.manager.StartSession(testOwner, g.ID, 1)
	require.NoError(t, err)

	_, err = env.manager.DeleteGame(context.Background(), testOwner, g.ID)
	require.NoError(t, err)

	ended := env.publisher.ofType(MessageSessionEnded)
	require.Len(t, ended, 1)
	assert.Equal(t, "deleted", ended[0].Reason)
}

func TestDelayFollowsSpeed(t *testing.T) {
	env := newTestEnv(t, func(c *Config, _ *Deps) { c.TickUnit = 10 * time.Millisecond })
	g := createGame(t, env, CreateRequest{PlayerCount: 20, EventIDs: []int{1}})

	e, err := env.manager.acquire(testOwner, g.ID)
	require.NoError(t, err)
	defer e.mu.Unlock()

	// survival_time_max 180 at 10ms per unit
	d, running := env.manager.delay(e, &session{state: SessionRunning, speed: 2})
	assert.True(t, running)
	assert.Equal(t, 900*time.Millisecond, d)

	_, running = env.manager.delay(e, &session{state: SessionPaused, speed: 2})
	assert.False(t, running)
}
