package user

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/consciousness-labs/platform-api/internal/auth"
)

// Handler exposes HTTP endpoints for onboarding and user lookups.
type Handler struct {
	svc    *Service
	tokens *auth.TokenIssuer
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, tokens *auth.TokenIssuer, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, tokens: tokens, logger: logger}
}

// Onboard creates a random user together with its agent.
func (h *Handler) Onboard(w http.ResponseWriter, r *http.Request) {
	u, agent, err := h.svc.Onboard(r.Context())
	if err != nil {
		h.logger.Errorw("onboarding failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"user": u, "agent": agent})
}

// List returns a paginated user listing with project counts.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := queryInt(r, "page", 1)
	limit := queryInt(r, "limit", 50)
	result, err := h.svc.List(r.Context(), page, limit)
	if err != nil {
		h.logger.Errorw("user listing failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// Get returns a user with nested projects and agents.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
			return
		}
		h.logger.Errorw("user lookup failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

// Statistics returns the aggregate user statistics.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics(r.Context())
	if err != nil {
		h.logger.Errorw("user statistics failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// IssueTokenRequest is the demo token issuance payload.
type IssueTokenRequest struct {
	UserID string `json:"user_id"`
}

// IssueToken hands out a bearer token for an existing user. Demo-grade:
// there are no credentials to check, possession of a user id is enough.
func (h *Handler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req IssueTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id required"})
		return
	}
	if _, err := h.svc.Get(r.Context(), req.UserID); err != nil {
		if errors.Is(err, ErrUserNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "User not found"})
			return
		}
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	token, err := h.tokens.Issue(req.UserID)
	if err != nil {
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(h.tokens.TTL().Seconds()),
	})
}

// Profile resolves the bearer token to a user record. Without a valid
// token it answers with the fixed demo profile, mirroring the platform's
// stubbed auth behavior.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	if token, ok := bearerToken(r); ok {
		if userID, err := h.tokens.Parse(token); err == nil {
			if detail, err := h.svc.Get(r.Context(), userID); err == nil {
				h.writeJSON(w, http.StatusOK, detail)
				return
			}
		}
	}
	h.writeJSON(w, http.StatusOK, map[string]any{
		"id":                 "current-user-id",
		"name":               "Current User",
		"email":              "user@example.com",
		"role":               "Developer",
		"intelligence_level": 85,
		"onboarded_at":       "2024-01-01T00:00:00Z",
	})
}

func bearerToken(r *http.Request) (string, bool) {
	const prefix = "Bearer "
	v := r.Header.Get("Authorization")
	if len(v) > len(prefix) && strings.EqualFold(v[:len(prefix)], prefix) {
		return v[len(prefix):], true
	}
	return "", false
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
