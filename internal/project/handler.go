package project

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/consciousness-labs/platform-api/internal/project/entity"
	"github.com/consciousness-labs/platform-api/pkg/utilities"
)

// asyncBudget bounds a background generation, engine timeout included.
const asyncBudget = 2 * time.Minute

// Handler exposes HTTP endpoints for project generation and lookups.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// GenerateRequest is the body of POST /projects/generate.
type GenerateRequest struct {
	UserID          string `json:"user_id"`
	ProjectType     string `json:"project_type"`
	Requirements    string `json:"requirements"`
	AsyncProcessing bool   `json:"async_processing"`
}

// Generate runs a generation synchronously (201) or kicks off a background
// task and answers 202 with a task id.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	var req GenerateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}
	if req.UserID == "" {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "user_id required"})
		return
	}
	if req.ProjectType == "" {
		req.ProjectType = entity.TypeWebApp
	}

	if req.AsyncProcessing {
		taskID := "task_" + utilities.NewSnowflakeID()
		go func() {
			ctx, cancel := context.WithTimeout(context.Background(), asyncBudget)
			defer cancel()
			if _, err := h.svc.Generate(ctx, req.UserID, req.ProjectType, req.Requirements); err != nil {
				h.logger.Warnw("async generation failed", "task_id", taskID, "err", err)
			}
		}()
		h.writeJSON(w, http.StatusAccepted, map[string]string{
			"message": "Project generation started asynchronously",
			"task_id": taskID,
			"status":  "processing",
		})
		return
	}

	result, err := h.svc.Generate(r.Context(), req.UserID, req.ProjectType, req.Requirements)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, ErrGenerationFailed):
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		default:
			h.logger.Errorw("generation failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}
	h.writeJSON(w, http.StatusCreated, map[string]any{"project": result})
}

// List returns a filtered, paginated project listing.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	result, err := h.svc.List(r.Context(),
		queryInt(r, "page", 1),
		queryInt(r, "limit", 50),
		entity.ListFilter{
			UserID: q.Get("user_id"),
			Type:   q.Get("project_type"),
			Status: q.Get("status"),
		})
	if err != nil {
		h.logger.Errorw("project listing failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, result)
}

// Get returns one project in full.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "Project not found"})
			return
		}
		h.logger.Errorw("project lookup failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, detail)
}

// Delete removes one project.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), r.PathValue("id")); err != nil {
		if errors.Is(err, ErrProjectNotFound) {
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": "Project not found"})
			return
		}
		h.logger.Errorw("project delete failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Project deleted successfully"})
}

// RegenerateRequest is the optional body of POST /projects/{id}/regenerate.
type RegenerateRequest struct {
	Requirements string `json:"requirements"`
}

// Regenerate rebuilds an existing project in place.
func (h *Handler) Regenerate(w http.ResponseWriter, r *http.Request) {
	var req RegenerateRequest
	// body is optional; an empty or absent body means default requirements
	_ = json.NewDecoder(r.Body).Decode(&req)

	result, err := h.svc.Regenerate(r.Context(), r.PathValue("id"), req.Requirements)
	if err != nil {
		switch {
		case errors.Is(err, ErrProjectNotFound):
			h.writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
		case errors.Is(err, ErrGenerationFailed):
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		default:
			h.logger.Errorw("regeneration failed", "err", err)
			h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		}
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]any{"project": result})
}

// Statistics returns the aggregate project statistics.
func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	stats, err := h.svc.Statistics(r.Context())
	if err != nil {
		h.logger.Errorw("project statistics failed", "err", err)
		h.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// Types lists the supported project types.
func (h *Handler) Types(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{
		"project_types": []map[string]any{
			{
				"type":        entity.TypeWebApp,
				"name":        "Web Application",
				"description": "Modern React/JavaScript web application",
				"languages":   []string{"javascript", "typescript"},
				"complexity":  "medium",
			},
			{
				"type":        entity.TypeAPI,
				"name":        "REST API",
				"description": "RESTful API with consciousness data processing",
				"languages":   []string{"python", "javascript"},
				"complexity":  "medium",
			},
			{
				"type":        entity.TypeAgent,
				"name":        "AI Agent",
				"description": "Self-learning AI agent with consciousness integration",
				"languages":   []string{"python"},
				"complexity":  "high",
			},
		},
	})
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
