package project

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/consciousness-labs/platform-api/internal/cache"
	"github.com/consciousness-labs/platform-api/internal/project/entity"
	projectrepo "github.com/consciousness-labs/platform-api/internal/project/repo"
	"github.com/consciousness-labs/platform-api/internal/search"
	"github.com/consciousness-labs/platform-api/pkg/utilities"
)

// CodeGenerator abstracts the external generation engine.
type CodeGenerator interface {
	GenerateCode(ctx context.Context, task, language, complexity string) (string, error)
}

var (
	ErrUserNotFound     = errors.New("user not found")
	ErrProjectNotFound  = errors.New("project not found")
	ErrGenerationFailed = errors.New("project generation failed")
)

// statsCacheKey holds the cached statistics overview; dropped on every write.
const statsCacheKey = "projects:statistics:overview"

// Base prompt per project type. Unknown types fall back to the generic
// prompt instead of failing; this mirrors the platform's historical
// behavior and is intentionally not turned into a validation error.
var projectPrompts = map[string]string{
	entity.TypeWebApp: "Create a modern React web application with user authentication and responsive design",
	entity.TypeAPI:    "Build a REST API with consciousness data processing and comprehensive endpoints",
	entity.TypeAgent:  "Develop an AI agent with self-learning capabilities and consciousness integration",
}

const genericPrompt = "Create a consciousness-aware application"

var languageByType = map[string]string{
	entity.TypeWebApp: "javascript",
	entity.TypeAPI:    "python",
	entity.TypeAgent:  "python",
}

const defaultLanguage = "python"

// Service orchestrates project generation against the external engine,
// enriched with mock search insights.
type Service struct {
	projects *projectrepo.ProjectRepo
	gen      CodeGenerator
	searches *search.Service
	cache    *cache.Cache
	logger   *zap.SugaredLogger
}

func NewService(db *sqlx.DB, gen CodeGenerator, searches *search.Service, c *cache.Cache, logger *zap.SugaredLogger) *Service {
	return &Service{
		projects: projectrepo.NewProjectRepo(db),
		gen:      gen,
		searches: searches,
		cache:    c,
		logger:   logger,
	}
}

// EnsureTables creates the projects table.
func (s *Service) EnsureTables(ctx context.Context) error {
	return s.projects.EnsureTable(ctx)
}

// InsightContext is one executed search folded into the prompt.
type InsightContext struct {
	Query     string   `json:"query"`
	Insights  []string `json:"insights"`
	Relevance float64  `json:"relevance"`
}

// SearchSummary reports the search enhancement applied to a generation.
type SearchSummary struct {
	SearchesProposed   int              `json:"searches_proposed"`
	SearchesExecuted   int              `json:"searches_executed"`
	SearchContext      []InsightContext `json:"search_context"`
	EnhancementApplied bool             `json:"enhancement_applied"`
}

// GenerateResult is the full response for a generation call.
type GenerateResult struct {
	entity.Project
	CodeLength      int           `json:"code_length"`
	AgenticSearches SearchSummary `json:"agentic_searches"`
}

// Generate validates the user, builds the prompt, calls the engine once
// and persists the outcome. A failed call still writes a row with status
// "failed" and an error placeholder as code, then surfaces the error.
func (s *Service) Generate(ctx context.Context, userID, projectType, requirements string) (*GenerateResult, error) {
	owner, err := s.projects.GetOwner(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, userID)
		}
		return nil, err
	}

	code, summary, genErr := s.runGeneration(ctx, owner, projectType, requirements)
	now := time.Now().UTC()

	if genErr != nil {
		p := &entity.Project{
			ID:        utilities.NewUUID(),
			UserID:    owner.ID,
			Name:      titleType(projectType) + " Project (Failed)",
			Type:      projectType,
			Code:      "# Project generation failed: " + genErr.Error(),
			Status:    entity.StatusFailed,
			CreatedAt: now,
			UpdatedAt: now,
		}
		if err := s.projects.Create(ctx, p); err != nil {
			s.logger.Errorw("persisting failed project", "err", err)
		}
		s.cache.Delete(ctx, statsCacheKey)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, genErr)
	}

	p := &entity.Project{
		ID:        utilities.NewUUID(),
		UserID:    owner.ID,
		Name:      titleType(projectType) + " Project",
		Type:      projectType,
		Code:      code,
		Status:    entity.StatusGenerated,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, fmt.Errorf("create project: %w", err)
	}
	s.cache.Delete(ctx, statsCacheKey)

	s.logger.Infow("project generated",
		"project_id", p.ID, "user_id", owner.ID, "type", projectType, "code_length", len(code))
	return &GenerateResult{Project: *p, CodeLength: len(code), AgenticSearches: summary}, nil
}

// Regenerate re-runs generation for an existing project and overwrites its
// code, status and updated_at in place. The row identity never changes.
func (s *Service) Regenerate(ctx context.Context, projectID, newRequirements string) (*GenerateResult, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, projectID)
		}
		return nil, err
	}
	owner, err := s.projects.GetOwner(ctx, p.UserID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrUserNotFound, p.UserID)
		}
		return nil, err
	}

	requirements := newRequirements
	if requirements == "" {
		requirements = fmt.Sprintf("Regenerate %s with improvements", p.Name)
	}

	code, summary, genErr := s.runGeneration(ctx, owner, p.Type, requirements)
	now := time.Now().UTC()

	if genErr != nil {
		placeholder := "# Project generation failed: " + genErr.Error()
		if _, err := s.projects.UpdateGeneration(ctx, p.ID, placeholder, entity.StatusFailed, now); err != nil {
			s.logger.Errorw("persisting failed regeneration", "err", err)
		}
		s.cache.Delete(ctx, statsCacheKey)
		return nil, fmt.Errorf("%w: %v", ErrGenerationFailed, genErr)
	}

	if _, err := s.projects.UpdateGeneration(ctx, p.ID, code, entity.StatusRegenerated, now); err != nil {
		return nil, fmt.Errorf("update project: %w", err)
	}
	s.cache.Delete(ctx, statsCacheKey)

	p.Code = code
	p.Status = entity.StatusRegenerated
	p.UpdatedAt = now
	return &GenerateResult{Project: *p, CodeLength: len(code), AgenticSearches: summary}, nil
}

// runGeneration gathers search insights, builds the prompt and performs
// the single engine call. No rows are written here.
func (s *Service) runGeneration(ctx context.Context, owner *projectrepo.Owner, projectType, requirements string) (string, SearchSummary, error) {
	language := languageByType[projectType]
	if language == "" {
		language = defaultLanguage
	}

	proposals := s.searches.ProposeForProject(projectType, language, search.UserContext{
		Name:              owner.Name,
		Role:              owner.Role,
		IntelligenceLevel: owner.IntelligenceLevel,
	})

	var contexts []InsightContext
	for _, p := range search.TopByPriority(proposals, 3) {
		res := s.searches.Execute(p)
		contexts = append(contexts, InsightContext{
			Query:     p.Query,
			Insights:  res.Insights,
			Relevance: res.RelevanceScore,
		})
	}

	summary := SearchSummary{
		SearchesProposed:   len(proposals),
		SearchesExecuted:   len(contexts),
		SearchContext:      contexts,
		EnhancementApplied: true,
	}

	prompt := buildPrompt(owner, projectType, requirements, contexts)
	code, err := s.gen.GenerateCode(ctx, prompt, language, "advanced")
	if err != nil {
		return "", summary, err
	}
	return code, summary, nil
}

func buildPrompt(owner *projectrepo.Owner, projectType, requirements string, contexts []InsightContext) string {
	base, ok := projectPrompts[projectType]
	if !ok {
		base = genericPrompt
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s for user %s with intelligence level %d.\n\n", base, owner.Name, owner.IntelligenceLevel)
	b.WriteString("User Profile:\n")
	fmt.Fprintf(&b, "- Name: %s\n", owner.Name)
	fmt.Fprintf(&b, "- Role: %s\n", owner.Role)
	fmt.Fprintf(&b, "- Intelligence Level: %d/100\n", owner.IntelligenceLevel)
	b.WriteString("- Experience: Advanced user with consciousness engineering background\n\n")

	if len(contexts) > 0 {
		b.WriteString("Agentic Search Insights (gathered for optimal project generation):\n")
		for i, c := range contexts {
			fmt.Fprintf(&b, "%d. %s\n", i+1, c.Query)
			fmt.Fprintf(&b, "   Key insights: %s\n", strings.Join(c.Insights, ", "))
			fmt.Fprintf(&b, "   Relevance: %.2f\n\n", c.Relevance)
		}
	}

	if requirements == "" {
		requirements = "Create a fully functional, production-ready application"
	}
	fmt.Fprintf(&b, "Requirements: %s\n\n", requirements)

	b.WriteString("Technical Specifications:\n")
	b.WriteString("- Use modern best practices and frameworks informed by current research\n")
	b.WriteString("- Include proper error handling and logging\n")
	b.WriteString("- Add comprehensive documentation\n")
	b.WriteString("- Ensure security and performance optimization\n")
	b.WriteString("- Make it consciousness-engineered where applicable\n")
	b.WriteString("- Incorporate insights from agentic search context for superior implementation\n")
	return b.String()
}

// titleType renders "web_app" as "Web_App", keeping the display names the
// platform has always produced.
func titleType(t string) string {
	out := []rune(t)
	up := true
	for i, r := range out {
		if up && r >= 'a' && r <= 'z' {
			out[i] = r - 'a' + 'A'
		}
		up = r == '_' || r == ' ' || r == '-'
	}
	return string(out)
}

// ListResult is the paginated project listing.
type ListResult struct {
	Projects   []entity.ProjectSummary `json:"projects"`
	Pagination entity.Pagination       `json:"pagination"`
	Filters    map[string]string       `json:"filters"`
}

// List returns a filtered page of projects.
func (s *Service) List(ctx context.Context, page, limit int, f entity.ListFilter) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	projects, err := s.projects.List(ctx, f, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.projects.Count(ctx, f)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Projects: projects,
		Pagination: entity.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
		Filters: map[string]string{
			"user_id":      f.UserID,
			"project_type": f.Type,
			"status":       f.Status,
		},
	}, nil
}

// Get returns a full project with its owner's name and code metrics.
func (s *Service) Get(ctx context.Context, id string) (*entity.ProjectDetail, error) {
	p, err := s.projects.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%w: %s", ErrProjectNotFound, id)
		}
		return nil, err
	}
	userName, err := s.projects.UserName(ctx, p.UserID)
	if err != nil {
		return nil, err
	}
	return &entity.ProjectDetail{
		Project:    *p,
		UserName:   userName,
		CodeLength: len(p.Code),
		CodeLines:  strings.Count(p.Code, "\n") + 1,
	}, nil
}

// Delete removes a project row; ErrProjectNotFound when nothing matched.
func (s *Service) Delete(ctx context.Context, id string) error {
	n, err := s.projects.Delete(ctx, id)
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrProjectNotFound, id)
	}
	s.cache.Delete(ctx, statsCacheKey)
	return nil
}

// Statistics aggregates project counts and distributions, cached in Redis
// when configured.
func (s *Service) Statistics(ctx context.Context) (*entity.ProjectStats, error) {
	var cached entity.ProjectStats
	if s.cache.GetJSON(ctx, statsCacheKey, &cached) {
		return &cached, nil
	}

	types, err := s.projects.TypeDistribution(ctx)
	if err != nil {
		return nil, err
	}
	statuses, err := s.projects.StatusDistribution(ctx)
	if err != nil {
		return nil, err
	}
	total, err := s.projects.Count(ctx, entity.ListFilter{})
	if err != nil {
		return nil, err
	}
	recent, err := s.projects.CountCreatedSince(ctx, time.Now().UTC().AddDate(0, 0, -30))
	if err != nil {
		return nil, err
	}
	avgLengths, err := s.projects.AverageCodeLengthByType(ctx)
	if err != nil {
		return nil, err
	}
	for k, v := range avgLengths {
		avgLengths[k] = math.Round(v*100) / 100
	}

	mostPopular := ""
	best := -1
	for t, n := range types {
		if n > best || (n == best && t < mostPopular) {
			mostPopular = t
			best = n
		}
	}

	stats := &entity.ProjectStats{
		TotalProjects:      total,
		TypeDistribution:   types,
		StatusDistribution: statuses,
		RecentProjects:     recent,
		AverageCodeLengths: avgLengths,
		MostPopularType:    mostPopular,
	}
	s.cache.SetJSON(ctx, statsCacheKey, stats)
	return stats, nil
}

// CountProjects returns the unfiltered project count, for the dashboard.
func (s *Service) CountProjects(ctx context.Context) (int, error) {
	return s.projects.Count(ctx, entity.ListFilter{})
}
