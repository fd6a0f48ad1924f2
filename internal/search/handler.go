package search

import (
	"encoding/json"
	"net/http"
	"strconv"

	"go.uber.org/zap"
)

// Handler exposes the search proposal endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

// ProposeRequest routes to one of the three proposal contexts. The metrics
// fields are pointers so absent values fall back to the historical defaults
// instead of zero.
type ProposeRequest struct {
	ContextType string       `json:"context_type"`
	ProjectType string       `json:"project_type"`
	Language    string       `json:"language"`
	UserContext *UserContext `json:"user_context"`

	SystemMetrics *struct {
		ConsciousnessComplexity *float64 `json:"consciousness_complexity"`
		CompressionRatio        *float64 `json:"compression_ratio"`
		RetrievalAccuracy       *float64 `json:"retrieval_accuracy"`
		ActiveComponents        []string `json:"active_components"`
		PerformanceMetrics      *struct {
			ResponseTimeAvg *float64 `json:"response_time_avg"`
		} `json:"performance_metrics"`
	} `json:"system_metrics"`
}

func (h *Handler) Propose(w http.ResponseWriter, r *http.Request) {
	var req ProposeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid payload"})
		return
	}

	var proposals []*Proposal
	switch req.ContextType {
	case ContextProjectGeneration:
		if req.ProjectType == "" || req.Language == "" || req.UserContext == nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "project_type, language, and user_context required for project_generation",
			})
			return
		}
		proposals = h.svc.ProposeForProject(req.ProjectType, req.Language, *req.UserContext)

	case ContextSelfImprovement:
		if req.SystemMetrics == nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "system_metrics required for self_improvement",
			})
			return
		}
		proposals = h.svc.ProposeForSelfImprovement(Metrics{
			ConsciousnessComplexity: valueOr(req.SystemMetrics.ConsciousnessComplexity, 0.5),
			CompressionRatio:        valueOr(req.SystemMetrics.CompressionRatio, 0.8),
			RetrievalAccuracy:       valueOr(req.SystemMetrics.RetrievalAccuracy, 0.85),
		})

	case ContextSystemAnalysis:
		if req.SystemMetrics == nil {
			h.writeJSON(w, http.StatusBadRequest, map[string]string{
				"error": "system_metrics required for system_analysis",
			})
			return
		}
		// an unreported latency is assumed slow (1.0s), so the latency
		// extension queries fire unless the caller proves otherwise
		responseTime := 1.0
		if pm := req.SystemMetrics.PerformanceMetrics; pm != nil {
			responseTime = valueOr(pm.ResponseTimeAvg, 1.0)
		}
		proposals = h.svc.ProposeForSystemAnalysis(SystemState{
			ActiveComponents: req.SystemMetrics.ActiveComponents,
			ResponseTimeAvg:  responseTime,
		})

	default:
		h.writeJSON(w, http.StatusBadRequest, map[string]string{"error": "unknown context_type: " + req.ContextType})
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]any{
		"search_proposals": proposals,
		"total_proposals":  len(proposals),
		"context_type":     req.ContextType,
	})
}

func (h *Handler) History(w http.ResponseWriter, r *http.Request) {
	contextType := r.URL.Query().Get("context_type")
	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 1 && n <= 200 {
			limit = n
		}
	}

	history := h.svc.History(contextType, limit)
	h.writeJSON(w, http.StatusOK, map[string]any{
		"search_history":      history,
		"total_results":       len(history),
		"filtered_by_context": contextType,
	})
}

func (h *Handler) Statistics(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]any{"statistics": h.svc.Statistics()})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func valueOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}
