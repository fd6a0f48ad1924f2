package router

import (
	"encoding/json"
	"net/http"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/consciousness-labs/platform-api/internal/project"
	"github.com/consciousness-labs/platform-api/internal/user"
)

const (
	serviceName    = "Consciousness Platform API"
	serviceVersion = "1.0.0"
)

// systemHandler serves health and dashboard plus the request counter
// feeding the dashboard's api_calls figure.
type systemHandler struct {
	users    *user.Service
	projects *project.Service
	logger   *zap.SugaredLogger
	apiCalls atomic.Int64
}

func newSystemHandler(users *user.Service, projects *project.Service, logger *zap.SugaredLogger) *systemHandler {
	return &systemHandler{users: users, projects: projects, logger: logger}
}

func (h *systemHandler) countingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.apiCalls.Add(1)
		next.ServeHTTP(w, r)
	})
}

func (h *systemHandler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "healthy",
		"service": serviceName,
		"version": serviceVersion,
		"features": []string{
			"user_onboarding",
			"ai_project_generation",
			"agentic_search_proposals",
			"background_heartbeat",
		},
	})
}

// Dashboard reports live counts from the store instead of the fixed demo
// numbers the platform used to ship.
func (h *systemHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	totalUsers, err := h.users.CountUsers(ctx)
	if err != nil {
		h.logger.Errorw("dashboard user count failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	activeAgents, err := h.users.CountActiveAgents(ctx)
	if err != nil {
		h.logger.Errorw("dashboard agent count failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	totalProjects, err := h.projects.CountProjects(ctx)
	if err != nil {
		h.logger.Errorw("dashboard project count failed", "err", err)
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"stats": map[string]any{
			"total_users":      totalUsers,
			"active_agents":    activeAgents,
			"projects_created": totalProjects,
			"api_calls":        h.apiCalls.Load(),
		},
		"features": []string{
			"AI-powered code generation",
			"Random user onboarding",
			"Automated project creation",
			"Self-learning agent development",
		},
		"status": "operational",
	})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
