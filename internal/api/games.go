package api

import (
	"net/http"

	"github.com/sashatouille39/gmm71-sub000/internal/game"
	"github.com/sashatouille39/gmm71-sub000/internal/player"
	"github.com/sashatouille39/gmm71-sub000/internal/ranking"
	"github.com/sashatouille39/gmm71-sub000/internal/validation"
)

type createGameRequest struct {
	PlayerCount        int              `json:"player_count"`
	Players            []*player.Player `json:"players"`
	EventIDs           []int            `json:"event_ids"`
	PreserveEventOrder bool             `json:"preserve_event_order"`
	SalonLevel         *int             `json:"salon_level"`
	Groups             []game.Group     `json:"groups"`
	Seed               *uint64          `json:"seed"`
}

func (req createGameRequest) validate() error {
	if err := validation.ValidateEventIDs(req.EventIDs); err != nil {
		return err
	}
	for _, p := range req.Players {
		if p == nil {
			continue
		}
		if p.ID != "" {
			if err := validation.ValidatePlayerID(p.ID); err != nil {
				return err
			}
		}
		if err := validation.ValidateName("player name", p.Name); err != nil {
			return err
		}
	}
	for _, g := range req.Groups {
		if g.Name == "" {
			continue
		}
		if err := validation.ValidateName("group name", g.Name); err != nil {
			return err
		}
	}
	return nil
}

type createGameResponse struct {
	Game           *game.Game `json:"game"`
	TotalCost      int64      `json:"total_cost"`
	NewTotalWallet int64      `json:"new_total_wallet"`
}

// createGame creates a new game and charges its cost
func (s *Server) createGame(w http.ResponseWriter, r *http.Request) {
	var req createGameRequest
	if !decode(w, r, &req) {
		return
	}
	if err := req.validate(); err != nil {
		s.writeErr(w, r, err)
		return
	}

	res, err := s.manager.CreateGame(r.Context(), game.CreateRequest{
		OwnerID:            owner(r),
		PlayerCount:        req.PlayerCount,
		Players:            req.Players,
		EventIDs:           req.EventIDs,
		PreserveEventOrder: req.PreserveEventOrder,
		SalonLevel:         req.SalonLevel,
		Groups:             req.Groups,
		Seed:               req.Seed,
	})
	if err != nil {
		s.writeErr(w, r, err)
		return
	}

	writeData(w, http.StatusCreated, createGameResponse{
		Game:           res.Game,
		TotalCost:      res.Game.TotalCost,
		NewTotalWallet: res.NewTotalWallet,
	})
}

// listGames lists the caller's games
func (s *Server) listGames(w http.ResponseWriter, r *http.Request) {
	games := s.manager.List(owner(r))
	out := make([]game.GameSummary, 0, len(games))
	for _, g := range games {
		out = append(out, game.Summarize(g))
	}
	writeData(w, http.StatusOK, out)
}

// getGame returns the full game state
func (s *Server) getGame(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}
	g, err := s.manager.Get(owner(r), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, g)
}

// deleteGame deletes a game, refunding it when not completed
func (s *Server) deleteGame(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}
	res, err := s.manager.DeleteGame(r.Context(), owner(r), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	if s.hub != nil {
		s.hub.CloseGame(id)
	}
	writeData(w, http.StatusOK, res)
}

// simulateEvent runs the next event of a game
func (s *Server) simulateEvent(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}
	out, err := s.manager.SimulateNextEvent(r.Context(), owner(r), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, out)
}

func (s *Server) vipEarningsStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}
	st, err := s.manager.VIPEarningsStatus(owner(r), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, st)
}

func (s *Server) collectVIPEarnings(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}
	res, err := s.manager.CollectVIPEarnings(r.Context(), owner(r), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, res)
}

func (s *Server) finalRanking(w http.ResponseWriter, r *http.Request) {
	id, ok := s.gameID(w, r)
	if !ok {
		return
	}
	g, err := s.manager.Get(owner(r), id)
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, ranking.FinalRanking(g))
}

func (s *Server) listEvents(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, s.manager.Catalog().All())
}

func (s *Server) getWallet(w http.ResponseWriter, r *http.Request) {
	balance, err := s.manager.Wallet(r.Context(), owner(r))
	if err != nil {
		s.writeErr(w, r, err)
		return
	}
	writeData(w, http.StatusOK, map[string]int64{"balance": balance})
}

func (s *Server) getStats(w http.ResponseWriter, r *http.Request) {
	writeData(w, http.StatusOK, ranking.Aggregate(s.manager.List(owner(r))))
}
