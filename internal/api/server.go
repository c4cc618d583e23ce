package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"cashflow/internal/game"
)

// Resetter restarts the game as a unit; the tick engine implements it.
type Resetter interface {
	Reset() error
}

type Options struct {
	Logger   *slog.Logger
	Resetter Resetter
	// Metrics, when set, is mounted at /metrics.
	Metrics http.Handler
}

// Server is the local control surface of a running game.
type Server struct {
	log     *slog.Logger
	session *game.Session
	reset   Resetter
	metrics http.Handler
	mux     *chi.Mux
}

func New(session *game.Session, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		log:     logger,
		session: session,
		reset:   opts.Resetter,
		metrics: opts.Metrics,
		mux:     chi.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	r := s.mux
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]any{"ok": true})
	})
	if s.metrics != nil {
		r.Method(http.MethodGet, "/metrics", s.metrics)
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/state", s.handleState)
		r.Get("/ledger", s.handleLedger)
		r.Get("/actions", s.handleActions)
		r.Post("/actions/{id}", s.handlePerform)
		r.Post("/filters/{account}", s.handleToggleFilter)
		r.Post("/reset", s.handleReset)
	})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, NewStateView(s.session.State()))
}

// handleLedger returns entries newest first, narrowed by the active filters unless
// all=1 is given.
func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	var entries []game.Transaction
	if r.URL.Query().Get("all") == "1" {
		entries = game.Filter(s.session.Ledger(), nil)
	} else {
		entries = s.session.FilteredLedger()
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		if limit < len(entries) {
			entries = entries[:limit]
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": NewEntryViews(entries)})
}

func (s *Server) handleActions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"actions": NewActionViews(s.session)})
}

func (s *Server) handlePerform(w http.ResponseWriter, r *http.Request) {
	a, err := game.LookupAction(game.ActionID(chi.URLParam(r, "id")))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	applied, err := s.session.Attempt(a.ID)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ActionResult{
		Action:  string(a.ID),
		Applied: applied,
		State:   NewStateView(s.session.State()),
	})
}

func (s *Server) handleToggleFilter(w http.ResponseWriter, r *http.Request) {
	account := strings.TrimSpace(chi.URLParam(r, "account"))
	if account == "" {
		writeError(w, http.StatusBadRequest, "account type is required")
		return
	}
	s.session.ToggleFilter(account)
	writeJSON(w, http.StatusOK, map[string]any{"active_filters": s.session.State().ActiveFilters.Sorted()})
}

func (s *Server) handleReset(w http.ResponseWriter, _ *http.Request) {
	if s.reset != nil {
		if err := s.reset.Reset(); err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	} else {
		s.session.Reset()
	}
	s.session.Greet()
	s.log.Info("game reset over api")
	writeJSON(w, http.StatusOK, NewStateView(s.session.State()))
}

func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, game.ErrUnknownAction), errors.Is(err, game.ErrUnknownKind):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, game.ErrCoolingDown):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, game.ErrActionUnavailable):
		writeError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": strings.TrimSpace(message)})
}
