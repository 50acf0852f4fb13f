// ABOUTME: HTTP handlers for users, entries and history
// ABOUTME: Enforce identity authorization, monotonic updates and one entry per day

package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/2389/wen/internal/auth"
	"github.com/2389/wen/internal/dedupe"
	"github.com/2389/wen/internal/scroll"
	"github.com/2389/wen/internal/store"
)

// CreateUserRequest is the body of POST /user.
type CreateUserRequest struct {
	Identity      string         `json:"id"`
	CurrentDay    int            `json:"current_day"`
	TotalEntries  int            `json:"total_entries"`
	Streak        int            `json:"streak"`
	LastActiveAt  time.Time      `json:"last_active_at"`
	HasActedToday bool           `json:"has_acted_today"`
	LastResult    *scroll.Result `json:"last_result,omitempty"`
}

// sendJSONError writes a JSON error response.
func (s *Server) sendJSONError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("failed to encode response", "error", err)
	}
}

func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.sendJSONError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}

// authorize writes the failure response and returns false when the request
// may not act on identity.
func (s *Server) authorize(w http.ResponseWriter, r *http.Request, identity string) bool {
	switch err := auth.Authorize(r.Context(), identity); {
	case err == nil:
		return true
	case errors.Is(err, auth.ErrForbidden):
		s.sendJSONError(w, http.StatusForbidden, "token does not match identity")
	default:
		s.sendJSONError(w, http.StatusUnauthorized, "not authenticated")
	}
	return false
}

// handleHealth returns 200 OK if the server is alive.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// handleGetUser handles GET /user/{id}.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.authorize(w, r, id) {
		return
	}

	user, err := s.store.GetUser(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.sendJSONError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get user", "id", id, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, user)
}

// handleCreateUser handles POST /user. Creating an identity that already
// exists returns the stored record unchanged.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if !s.decodeBody(w, r, &req) {
		return
	}
	if req.Identity == "" {
		s.sendJSONError(w, http.StatusBadRequest, "id is required")
		return
	}
	if !s.authorize(w, r, req.Identity) {
		return
	}
	if req.LastResult != nil && (!req.LastResult.Kind.Valid() || !req.LastResult.EntryClass.Valid()) {
		s.sendJSONError(w, http.StatusBadRequest, "invalid last_result")
		return
	}

	user := scroll.UserState{
		Identity:      req.Identity,
		CurrentDay:    req.CurrentDay,
		TotalEntries:  req.TotalEntries,
		Streak:        req.Streak,
		LastActiveAt:  req.LastActiveAt,
		HasActedToday: req.HasActedToday,
		LastResult:    req.LastResult,
	}
	if user.LastActiveAt.IsZero() {
		user.LastActiveAt = s.now()
	}
	user.Normalize()

	err := s.store.CreateUser(r.Context(), &user)
	if errors.Is(err, store.ErrDuplicateUser) {
		existing, getErr := s.store.GetUser(r.Context(), req.Identity)
		if getErr != nil {
			s.logger.Error("failed to load existing user", "id", req.Identity, "error", getErr)
			s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}
		s.writeJSON(w, http.StatusOK, existing)
		return
	}
	if err != nil {
		s.logger.Error("failed to create user", "id", req.Identity, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.logger.Info("created user", "id", user.Identity)
	s.writeJSON(w, http.StatusOK, user)
}

// handlePatchUser handles PATCH /user/{id}. Day and entry counters never move
// backwards, whatever the client sends.
func (s *Server) handlePatchUser(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.authorize(w, r, id) {
		return
	}

	var patch scroll.UserPatch
	if !s.decodeBody(w, r, &patch) {
		return
	}
	if patch.LastResult != nil && (!patch.LastResult.Kind.Valid() || !patch.LastResult.EntryClass.Valid()) {
		s.sendJSONError(w, http.StatusBadRequest, "invalid last_result")
		return
	}

	user, err := s.store.GetUser(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		s.sendJSONError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get user", "id", id, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	patch.Apply(user)

	if err := s.store.UpdateUser(r.Context(), user); err != nil {
		s.logger.Error("failed to update user", "id", id, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, user)
}

// handleCreateEntry handles POST /entry.
func (s *Server) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
	var entry scroll.Entry
	if !s.decodeBody(w, r, &entry) {
		return
	}

	switch {
	case entry.Identity == "":
		s.sendJSONError(w, http.StatusBadRequest, "id is required")
		return
	case entry.Day < 1:
		s.sendJSONError(w, http.StatusBadRequest, "day must be a positive integer")
		return
	case !entry.EntryClass.Valid():
		s.sendJSONError(w, http.StatusBadRequest, "invalid entry_class")
		return
	case entry.NumericValue < 0:
		s.sendJSONError(w, http.StatusBadRequest, "numeric_value must not be negative")
		return
	}
	if !s.authorize(w, r, entry.Identity) {
		return
	}

	_, err := s.store.GetUser(r.Context(), entry.Identity)
	if errors.Is(err, store.ErrNotFound) {
		s.sendJSONError(w, http.StatusNotFound, "user not found")
		return
	}
	if err != nil {
		s.logger.Error("failed to get user", "id", entry.Identity, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	key := dedupe.EntryKey(entry.Identity, entry.Day)
	if !s.dedupe.Claim(key) {
		s.logger.Debug("duplicate entry short-circuited", "id", entry.Identity, "day", entry.Day)
		s.sendJSONError(w, http.StatusConflict, "entry already recorded for this day")
		return
	}

	entry.EntryID = ""
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = s.now().UTC()
	}

	err = s.store.CreateEntry(r.Context(), &entry)
	if errors.Is(err, store.ErrDuplicateEntry) {
		s.sendJSONError(w, http.StatusConflict, "entry already recorded for this day")
		return
	}
	if err != nil {
		s.dedupe.Release(key)
		s.logger.Error("failed to create entry", "id", entry.Identity, "day", entry.Day, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.logger.Info("recorded entry", "id", entry.Identity, "day", entry.Day, "class", entry.EntryClass)
	s.writeJSON(w, http.StatusCreated, entry)
}

// handleHistory handles GET /history/{id}?limit=N.
func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !s.authorize(w, r, id) {
		return
	}

	limit := s.config.History.DefaultLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 {
			s.sendJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = min(parsed, s.config.History.MaxLimit)
	}

	entries, err := s.store.ListEntries(r.Context(), id, limit)
	if err != nil {
		s.logger.Error("failed to list entries", "id", id, "error", err)
		s.sendJSONError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	s.writeJSON(w, http.StatusOK, entries)
}
