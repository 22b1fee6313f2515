// Package api exposes the indexed aggregates over HTTP. All endpoints are
// read-only: the engine is the single writer and the API serves whatever the
// stores currently hold.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"avax-launch-indexer/internal/domain"
	"avax-launch-indexer/internal/storage"
)

// Stores bundles the read-side stores the API serves.
type Stores struct {
	Tokens    storage.TokenStore
	Events    storage.BondingEventStore
	Positions storage.PositionStore
	Activity  storage.ActivityStore
	Daily     storage.DailyStatsStore
	Global    storage.GlobalStatsStore
	Snapshots storage.SnapshotStore
	Sessions  storage.SessionStore
}

// Server is the HTTP API.
type Server struct {
	stores Stores
	logger *log.Logger
	mux    *http.ServeMux
}

// NewServer creates the API over the given stores.
func NewServer(stores Stores, logger *log.Logger) *Server {
	s := &Server{
		stores: stores,
		logger: logger,
		mux:    http.NewServeMux(),
	}
	s.routes()
	return s
}

// Handler returns the root HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) routes() {
	s.mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	s.mux.HandleFunc("GET /api/tokens", s.handleListTokens)
	// Registered off the /api/tokens/ prefix: a {tokenId} segment there would
	// conflict with the {address} subtree patterns.
	s.mux.HandleFunc("GET /api/token-ids/{tokenId}", s.handleTokenByID)
	s.mux.HandleFunc("GET /api/tokens/{address}", s.handleToken)
	s.mux.HandleFunc("GET /api/tokens/{address}/trades", s.handleTokenTrades)
	s.mux.HandleFunc("GET /api/tokens/{address}/snapshots", s.handleTokenSnapshots)
	s.mux.HandleFunc("GET /api/tokens/{address}/positions", s.handleTokenPositions)

	s.mux.HandleFunc("GET /api/users/{user}/positions", s.handleUserPositions)
	s.mux.HandleFunc("GET /api/users/{user}/activity", s.handleUserActivity)
	s.mux.HandleFunc("GET /api/users/{user}/sessions", s.handleUserSessions)

	s.mux.HandleFunc("GET /api/stats/global", s.handleGlobalStats)
	s.mux.HandleFunc("GET /api/stats/daily", s.handleDailyStats)
}

// handleListTokens lists tokens filtered by status (default BONDING, ordered
// by progress) or sorted by volume with sort=volume.
func (s *Server) handleListTokens(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 100)

	if r.URL.Query().Get("sort") == "volume" {
		tokens, err := s.stores.Tokens.ListByVolume(r.Context(), limit)
		if err != nil {
			s.internalError(w, "list tokens by volume", err)
			return
		}
		writeJSON(w, http.StatusOK, tokens)
		return
	}

	status := domain.MigrationStatus(strings.ToUpper(r.URL.Query().Get("status")))
	if status == "" {
		status = domain.StatusBonding
	}
	switch status {
	case domain.StatusBonding, domain.StatusCloseToMigration, domain.StatusMigrated:
	default:
		writeError(w, http.StatusBadRequest, "unknown status")
		return
	}

	tokens, err := s.stores.Tokens.ListByStatus(r.Context(), status, limit)
	if err != nil {
		s.internalError(w, "list tokens by status", err)
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	address := strings.ToLower(r.PathValue("address"))

	token, err := s.stores.Tokens.Get(r.Context(), address)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "token not found")
		return
	}
	if err != nil {
		s.internalError(w, "get token", err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleTokenByID(w http.ResponseWriter, r *http.Request) {
	tokenID, err := strconv.ParseUint(r.PathValue("tokenId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid token id")
		return
	}

	token, err := s.stores.Tokens.GetByTokenID(r.Context(), tokenID)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "token not found")
		return
	}
	if err != nil {
		s.internalError(w, "get token by id", err)
		return
	}
	writeJSON(w, http.StatusOK, token)
}

func (s *Server) handleTokenTrades(w http.ResponseWriter, r *http.Request) {
	address := strings.ToLower(r.PathValue("address"))
	limit := queryInt(r, "limit", 100)

	start, hasStart := queryInt64(r, "start")
	end, hasEnd := queryInt64(r, "end")
	if hasStart || hasEnd {
		if !hasEnd {
			end = int64(1)<<62 - 1
		}
		events, err := s.stores.Events.ListByTimeRange(r.Context(), address, start, end)
		if err != nil {
			s.internalError(w, "list trades by time range", err)
			return
		}
		writeJSON(w, http.StatusOK, events)
		return
	}

	events, err := s.stores.Events.ListByToken(r.Context(), address, limit)
	if err != nil {
		s.internalError(w, "list trades", err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *Server) handleTokenSnapshots(w http.ResponseWriter, r *http.Request) {
	address := strings.ToLower(r.PathValue("address"))
	start, _ := queryInt64(r, "start")
	end, hasEnd := queryInt64(r, "end")
	if !hasEnd {
		end = int64(1)<<62 - 1
	}

	snaps, err := s.stores.Snapshots.ListByToken(r.Context(), address, start, end)
	if err != nil {
		s.internalError(w, "list snapshots", err)
		return
	}
	writeJSON(w, http.StatusOK, snaps)
}

func (s *Server) handleTokenPositions(w http.ResponseWriter, r *http.Request) {
	address := strings.ToLower(r.PathValue("address"))

	positions, err := s.stores.Positions.ListByToken(r.Context(), address)
	if err != nil {
		s.internalError(w, "list positions by token", err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleUserPositions(w http.ResponseWriter, r *http.Request) {
	user := strings.ToLower(r.PathValue("user"))

	positions, err := s.stores.Positions.ListByUser(r.Context(), user)
	if err != nil {
		s.internalError(w, "list positions by user", err)
		return
	}
	writeJSON(w, http.StatusOK, positions)
}

func (s *Server) handleUserActivity(w http.ResponseWriter, r *http.Request) {
	user := strings.ToLower(r.PathValue("user"))

	activity, err := s.stores.Activity.Get(r.Context(), user)
	if errors.Is(err, storage.ErrNotFound) {
		writeError(w, http.StatusNotFound, "no activity for user")
		return
	}
	if err != nil {
		s.internalError(w, "get user activity", err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (s *Server) handleUserSessions(w http.ResponseWriter, r *http.Request) {
	user := strings.ToLower(r.PathValue("user"))

	sessions, err := s.stores.Sessions.ListByUser(r.Context(), user)
	if err != nil {
		s.internalError(w, "list user sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, sessions)
}

func (s *Server) handleGlobalStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.stores.Global.Get(r.Context())
	if errors.Is(err, storage.ErrNotFound) {
		// No events yet: an empty rollup, not an error.
		writeJSON(w, http.StatusOK, &domain.GlobalStats{})
		return
	}
	if err != nil {
		s.internalError(w, "get global stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleDailyStats(w http.ResponseWriter, r *http.Request) {
	from := r.URL.Query().Get("from")
	to := r.URL.Query().Get("to")
	if from == "" || to == "" {
		writeError(w, http.StatusBadRequest, "from and to are required (YYYY-MM-DD)")
		return
	}

	stats, err := s.stores.Daily.ListRange(r.Context(), from, to)
	if err != nil {
		s.internalError(w, "list daily stats", err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) internalError(w http.ResponseWriter, op string, err error) {
	if s.logger != nil {
		s.logger.Printf("%s: %v", op, err)
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func queryInt(r *http.Request, key string, def int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func queryInt64(r *http.Request, key string) (int64, bool) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return 0, false
	}
	v, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
