package router

import (
	"net/http"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/consciousness-labs/platform-api/internal/auth"
	"github.com/consciousness-labs/platform-api/internal/config"
	"github.com/consciousness-labs/platform-api/internal/project"
	"github.com/consciousness-labs/platform-api/internal/search"
	"github.com/consciousness-labs/platform-api/internal/user"
)

// Deps carries everything the route table needs.
type Deps struct {
	Logger   *zap.SugaredLogger
	Config   config.Config
	Users    *user.Service
	Projects *project.Service
	Searches *search.Service
	Tokens   *auth.TokenIssuer
}

// RegisterRoutes mounts HTTP handlers using the standard library's
// http.ServeMux and wraps them in the middleware chain.
func RegisterRoutes(d Deps) http.Handler {
	mux := http.NewServeMux()

	sys := newSystemHandler(d.Users, d.Projects, d.Logger)
	mux.HandleFunc("GET /health", sys.Health)
	mux.HandleFunc("GET /dashboard", sys.Dashboard)

	userHandler := user.NewHandler(d.Users, d.Tokens, d.Logger)
	mux.HandleFunc("POST /users/onboard", userHandler.Onboard)
	mux.HandleFunc("GET /users", userHandler.List)
	mux.HandleFunc("GET /users/statistics", userHandler.Statistics)
	mux.HandleFunc("GET /users/profile", userHandler.Profile)
	mux.HandleFunc("GET /users/{id}", userHandler.Get)
	mux.HandleFunc("POST /auth/token", userHandler.IssueToken)

	projectHandler := project.NewHandler(d.Projects, d.Logger)
	mux.HandleFunc("POST /projects/generate", projectHandler.Generate)
	mux.HandleFunc("GET /projects", projectHandler.List)
	mux.HandleFunc("GET /projects/statistics/overview", projectHandler.Statistics)
	mux.HandleFunc("GET /projects/types/available", projectHandler.Types)
	mux.HandleFunc("GET /projects/{id}", projectHandler.Get)
	mux.HandleFunc("DELETE /projects/{id}", projectHandler.Delete)
	mux.HandleFunc("POST /projects/{id}/regenerate", projectHandler.Regenerate)

	searchHandler := search.NewHandler(d.Searches, d.Logger)
	mux.HandleFunc("POST /search/propose", searchHandler.Propose)
	mux.HandleFunc("GET /search/history", searchHandler.History)
	mux.HandleFunc("GET /search/statistics", searchHandler.Statistics)

	limiter := rate.NewLimiter(
		rate.Limit(float64(d.Config.RateLimitRequests)/d.Config.RateLimitWindow.Seconds()),
		d.Config.RateLimitRequests,
	)

	// innermost first: headers, CORS, rate limit, counter, logging, recovery
	var handler http.Handler = mux
	handler = SecurityHeadersMiddleware()(handler)
	handler = CORSMiddleware(d.Config.CORSOrigins)(handler)
	handler = RateLimitMiddleware(limiter)(handler)
	handler = sys.countingMiddleware(handler)
	handler = LoggingMiddleware(d.Logger)(handler)
	handler = RecoveryMiddleware(d.Logger)(handler)
	return handler
}
