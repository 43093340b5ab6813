package game

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/sashatouille39/gmm71-sub000/internal/errs"
)

// SessionState is the state of a live session
type SessionState string

const (
	SessionRunning SessionState = "running"
	SessionPaused  SessionState = "paused"
)

// Live message types
const (
	MessageEventResult  = "event_result"
	MessageSessionState = "session_state"
	MessageSessionEnded = "session_ended"
)

// LiveMessage is what subscribers of a game receive
type LiveMessage struct {
	Type    string         `json:"type"`
	GameID  string         `json:"game_id"`
	Result  *EventResult   `json:"result,omitempty"`
	Game    *GameSummary   `json:"game,omitempty"`
	Session *SessionStatus `json:"session,omitempty"`
	Reason  string         `json:"reason,omitempty"`
}

// SessionStatus is the public view of a live session
type SessionStatus struct {
	GameID    string       `json:"game_id"`
	State     SessionState `json:"state"`
	Speed     float64      `json:"speed"`
	StartedAt time.Time    `json:"started_at"`
}

// session paces one game's events over wall-clock time. Its fields are
// guarded by the owning entry's mutex.
type session struct {
	state     SessionState
	speed     float64
	startedAt time.Time

	cancel context.CancelFunc
	wake   chan struct{}
	done   chan struct{}
}

func (s *session) status(gameID string) SessionStatus {
	return SessionStatus{GameID: gameID, State: s.state, Speed: s.speed, StartedAt: s.startedAt}
}

func (s *session) notify() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *session) stop() {
	s.cancel()
}

func (m *Manager) checkSpeed(op string, speed float64) error {
	if speed < m.cfg.MinSpeed || speed > m.cfg.MaxSpeed {
		return errs.Validation(op, "speed must be between %g and %g, got %g", m.cfg.MinSpeed, m.cfg.MaxSpeed, speed)
	}
	return nil
}

// StartSession begins pacing a game's events at the given speed
func (m *Manager) StartSession(ownerID, id string, speed float64) (*SessionStatus, error) {
	if err := m.checkSpeed("start_session", speed); err != nil {
		return nil, err
	}
	e, err := m.acquire(ownerID, id)
	if err != nil {
		return nil, err
	}
	if e.game.Completed {
		e.mu.Unlock()
		return nil, errs.InvalidState("start_session", "game is already completed")
	}
	if e.session != nil {
		e.mu.Unlock()
		return nil, errs.Conflict("start_session", "game %s already has a live session", id)
	}

	ctx, cancel := context.WithCancel(m.ctx)
	s := &session{
		state:     SessionRunning,
		speed:     speed,
		startedAt: time.Now(),
		cancel:    cancel,
		wake:      make(chan struct{}, 1),
		done:      make(chan struct{}),
	}
	e.session = s
	st := s.status(id)
	e.mu.Unlock()

	m.sessions.Add(1)
	go m.runSession(ctx, e, id, s)

	m.log.WithFields(logrus.Fields{"game_id": id, "speed": speed}).Info("Live session started")
	m.publisher.Publish(id, LiveMessage{Type: MessageSessionState, GameID: id, Session: &st})
	return &st, nil
}

// withSession runs fn on the game's live session under the game lock
func (m *Manager) withSession(op, ownerID, id string, fn func(*session) error) (*SessionStatus, error) {
	e, err := m.acquire(ownerID, id)
	if err != nil {
		return nil, err
	}
	s := e.session
	if s == nil {
		e.mu.Unlock()
		return nil, errs.InvalidState(op, "game %s has no live session", id)
	}
	if err := fn(s); err != nil {
		e.mu.Unlock()
		return nil, err
	}
	st := s.status(id)
	e.mu.Unlock()

	s.notify()
	m.publisher.Publish(id, LiveMessage{Type: MessageSessionState, GameID: id, Session: &st})
	return &st, nil
}

// PauseSession suspends a running session
func (m *Manager) PauseSession(ownerID, id string) (*SessionStatus, error) {
	return m.withSession("pause_session", ownerID, id, func(s *session) error {
		if s.state == SessionPaused {
			return errs.InvalidState("pause_session", "session is already paused")
		}
		s.state = SessionPaused
		return nil
	})
}

// ResumeSession continues a paused session
func (m *Manager) ResumeSession(ownerID, id string) (*SessionStatus, error) {
	return m.withSession("resume_session", ownerID, id, func(s *session) error {
		if s.state != SessionPaused {
			return errs.InvalidState("resume_session", "session is not paused")
		}
		s.state = SessionRunning
		return nil
	})
}

// SetSessionSpeed changes the pace of a session
func (m *Manager) SetSessionSpeed(ownerID, id string, speed float64) (*SessionStatus, error) {
	if err := m.checkSpeed("set_speed", speed); err != nil {
		return nil, err
	}
	return m.withSession("set_speed", ownerID, id, func(s *session) error {
		s.speed = speed
		return nil
	})
}

// StopSession ends a session and waits for it to exit
func (m *Manager) StopSession(ownerID, id string) error {
	e, err := m.acquire(ownerID, id)
	if err != nil {
		return err
	}
	s := e.session
	if s == nil {
		e.mu.Unlock()
		return errs.InvalidState("stop_session", "game %s has no live session", id)
	}
	e.session = nil
	e.mu.Unlock()

	s.stop()
	<-s.done
	m.log.WithField("game_id", id).Info("Live session stopped")
	m.publisher.Publish(id, LiveMessage{Type: MessageSessionEnded, GameID: id, Reason: "stopped"})
	return nil
}

// Session returns the status of a game's live session
func (m *Manager) Session(ownerID, id string) (*SessionStatus, error) {
	e, err := m.acquire(ownerID, id)
	if err != nil {
		return nil, err
	}
	defer e.mu.Unlock()
	if e.session == nil {
		return nil, errs.NotFound("session", "game %s has no live session", id)
	}
	st := e.session.status(id)
	return &st, nil
}

// delay returns the wait before the next event, or false while paused
func (m *Manager) delay(e *entry, s *session) (time.Duration, bool) {
	if s.state == SessionPaused {
		return 0, false
	}
	g := e.game
	if g.CurrentEventIndex >= len(g.Events) {
		return 0, true
	}
	units := float64(g.Events[g.CurrentEventIndex].SurvivalTimeMax)
	return time.Duration(units * float64(m.cfg.TickUnit) / s.speed), true
}

func (m *Manager) runSession(ctx context.Context, e *entry, id string, s *session) {
	defer m.sessions.Done()
	defer close(s.done)
	defer s.cancel()

	log := m.log.WithField("game_id", id)
	for {
		e.mu.Lock()
		if e.session != s {
			e.mu.Unlock()
			return
		}
		wait, running := m.delay(e, s)
		e.mu.Unlock()

		if !running {
			select {
			case <-ctx.Done():
				return
			case <-s.wake:
			}
			continue
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-s.wake:
			timer.Stop()
			continue
		case <-timer.C:
		}

		e.mu.Lock()
		if e.session != s || s.state != SessionRunning {
			e.mu.Unlock()
			continue
		}
		out, err := m.advance(ctx, e)
		reason := ""
		switch {
		case err != nil:
			reason = "error"
		case out.Result.Postponed:
			reason = "postponed"
		case e.game.Completed:
			reason = "completed"
		}
		if reason != "" {
			e.session = nil
		}
		e.mu.Unlock()

		if out != nil {
			m.publisher.Publish(id, LiveMessage{Type: MessageEventResult, GameID: id, Result: out.Result, Game: &out.Game})
		}
		if reason != "" {
			if err != nil {
				log.WithError(err).Warn("Live session aborted")
			} else {
				log.WithField("reason", reason).Info("Live session ended")
			}
			m.publisher.Publish(id, LiveMessage{Type: MessageSessionEnded, GameID: id, Reason: reason})
			return
		}
	}
}
