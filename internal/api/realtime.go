package api

import (
	"net/http"

	"github.com/sashatouille39/gmm71-sub000/internal/game"
)

type speedRequest struct {
	Speed float64 `json:"speed"`
}

func (s *Server) sessionStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}
	st, err := s.manager.Session(owner(r), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, st)
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}
	var req speedRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := s.manager.StartSession(owner(r), id, req.Speed)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, st)
}

func (s *Server) pauseSession(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, s.manager.PauseSession)
}

func (s *Server) resumeSession(w http.ResponseWriter, r *http.Request) {
	s.sessionAction(w, r, s.manager.ResumeSession)
}

func (s *Server) sessionAction(w http.ResponseWriter, r *http.Request, action func(ownerID, id string) (*game.SessionStatus, error)) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}
	st, err := action(owner(r), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, st)
}

func (s *Server) stopSession(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}
	if err := s.manager.StopSession(owner(r), id); err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]string{"game_id": id, "state": "stopped"})
}

func (s *Server) setSessionSpeed(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}
	var req speedRequest
	if !decode(w, r, &req) {
		return
	}
	st, err := s.manager.SetSessionSpeed(owner(r), id, req.Speed)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, st)
}

// streamGame upgrades to a websocket carrying the game's live messages
func (s *Server) streamGame(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}
	if _, err := s.manager.Get(owner(r), id); err != nil {
		s.writeErr(w, r, err)
		return
	}
	if s.hub == nil {
		writeError(w, http.StatusServiceUnavailable, "Live streaming is disabled")
		return
	}
	s.hub.ServeWS(w, r, id)
}
