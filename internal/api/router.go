package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"github.com/sashatouille39/gmm71-sub000/internal/errs"
	"github.com/sashatouille39/gmm71-sub000/internal/game"
	"github.com/sashatouille39/gmm71-sub000/internal/metrics"
	mw "github.com/sashatouille39/gmm71-sub000/internal/middleware"
	"github.com/sashatouille39/gmm71-sub000/internal/network"
	"github.com/sashatouille39/gmm71-sub000/internal/validation"
)

// Options wires the server's collaborators
type Options struct {
	Manager      *game.Manager
	Hub          *network.Hub
	Metrics      *metrics.Metrics
	Auth         *mw.Auth
	RateLimiter  *mw.RateLimiter
	MaxBodyBytes int64
	Logger       logrus.FieldLogger
}

// Server handles HTTP requests
type Server struct {
	router  chi.Router
	manager *game.Manager
	hub     *network.Hub
	metrics *metrics.Metrics
	log     logrus.FieldLogger
}

// NewServer creates a new API server
func NewServer(opts Options) *Server {
	if opts.Logger == nil {
		opts.Logger = logrus.StandardLogger()
	}
	if opts.Auth == nil {
		opts.Auth = mw.NewAuth("", opts.Logger)
	}
	if opts.RateLimiter == nil {
		opts.RateLimiter = mw.NewRateLimiter(100, 100)
	}
	if opts.MaxBodyBytes <= 0 {
		opts.MaxBodyBytes = 1024 * 1024
	}

	s := &Server{
		router:  chi.NewRouter(),
		manager: opts.Manager,
		hub:     opts.Hub,
		metrics: opts.Metrics,
		log:     opts.Logger,
	}
	s.setupRoutes(opts)
	return s
}

// setupRoutes configures all API routes
func (s *Server) setupRoutes(opts Options) {
	if s.metrics != nil {
		s.router.Use(s.metrics.InstrumentHandler)
	}
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(opts.RateLimiter.Middleware)
	s.router.Use(mw.SecurityHeaders)
	s.router.Use(mw.MaxBodySize(opts.MaxBodyBytes))

	s.router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, Response{Success: true, Data: map[string]string{"status": "ok"}})
	})
	if s.metrics != nil {
		s.router.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	}

	s.router.Route("/api", func(r chi.Router) {
		r.Use(opts.Auth.Handler)

		r.Get("/events", s.listEvents)
		r.Get("/wallet", s.getWallet)
		r.Get("/stats", s.getStats)

		r.Post("/games", s.createGame)
		r.Get("/games", s.listGames)
		r.Route("/games/{id}", func(r chi.Router) {
			r.Get("/", s.getGame)
			r.Delete("/", s.deleteGame)
			r.Post("/simulate-event", s.simulateEvent)
			r.Get("/vip-earnings-status", s.vipEarningsStatus)
			r.Post("/collect-vip-earnings", s.collectVIPEarnings)
			r.Get("/final-ranking", s.finalRanking)

			r.Route("/realtime", func(r chi.Router) {
				r.Get("/", s.sessionStatus)
				r.Post("/start", s.startSession)
				r.Post("/pause", s.pauseSession)
				r.Post("/resume", s.resumeSession)
				r.Post("/stop", s.stopSession)
				r.Post("/speed", s.setSessionSpeed)
				r.Get("/ws", s.streamGame)
			})
		})
	})
}

// ServeHTTP implements http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Response wraps API responses
type Response struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Code    errs.Kind   `json:"code,omitempty"`
}

// writeJSON writes a JSON response
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeData(w http.ResponseWriter, status int, data interface{}) {
	writeJSON(w, status, Response{Success: true, Data: data})
}

// writeError writes an error response (sanitized)
func writeError(w http.ResponseWriter, status int, message string) {
	if status >= 500 {
		message = "Internal server error"
	}
	writeJSON(w, status, Response{
		Success: false,
		Error:   message,
	})
}

// writeErr maps a domain error onto its status code
func (s *Server) writeErr(w http.ResponseWriter, r *http.Request, err error) {
	kind := errs.KindOf(err)
	status := errs.HTTPStatus(kind)
	message := err.Error()
	var de *errs.Error
	if errors.As(err, &de) && de.Msg != "" {
		message = de.Msg
	}
	if status >= 500 {
		s.log.WithError(err).WithField("path", r.URL.Path).Error("Request failed")
		message = "Internal server error"
	}
	writeJSON(w, status, Response{Success: false, Error: message, Code: kind})
}

// decode reads a JSON body into v
func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "Request body too large")
			return false
		}
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// owner returns the caller resolved by the auth middleware
func owner(r *http.Request) string {
	return mw.Owner(r.Context())
}

// gameID reads and validates the {id} path parameter
func (s *Server) gameID(w http.ResponseWriter, r *http.Request) (string, bool) {
	id := chi.URLParam(r, "id")
	if err := validation.ValidateGameID(id); err != nil {
		s.writeErr(w, r, err)
		return "", false
	}
	return id, true
}
