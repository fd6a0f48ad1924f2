package search

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/consciousness-labs/platform-api/pkg/utilities"
)

// Service proposes and "executes" templated searches. Everything is
// simulated: proposals are deterministic template substitutions and results
// are synthesized from the query text. History is in-memory and unbounded.
type Service struct {
	logger *zap.SugaredLogger

	mu      sync.Mutex
	history []*Proposal
	results map[string]*Result
}

func NewService(logger *zap.SugaredLogger) *Service {
	return &Service{
		logger:  logger,
		results: map[string]*Result{},
	}
}

// ProposeForProject builds the query list for a pending project generation.
// The list grows with the user's intelligence level (>=90, >=75) and role
// (Researcher, Engineer); priority scales with intelligence, capped at 10.
func (s *Service) ProposeForProject(projectType, language string, uc UserContext) []*Proposal {
	role := uc.Role
	if role == "" {
		role = "Developer"
	}
	intelligence := uc.IntelligenceLevel
	if intelligence == 0 {
		intelligence = 80
	}

	queries := []string{
		fmt.Sprintf("modern %s %s architecture patterns 2024", language, projectType),
		fmt.Sprintf("production-ready %s %s frameworks", language, projectType),
		fmt.Sprintf("best practices for %s %s development", language, projectType),
		fmt.Sprintf("scalable %s %s implementations", language, projectType),
	}

	if intelligence >= 90 {
		queries = append(queries,
			fmt.Sprintf("advanced %s %s design patterns", language, projectType),
			fmt.Sprintf("cutting-edge %s %s technologies", language, projectType),
			fmt.Sprintf("research papers on %s %s optimization", language, projectType),
		)
	} else if intelligence >= 75 {
		queries = append(queries,
			fmt.Sprintf("intermediate %s %s development", language, projectType),
			fmt.Sprintf("professional %s %s standards", language, projectType),
		)
	}

	switch role {
	case "Researcher":
		queries = append(queries,
			fmt.Sprintf("academic research on %s %s systems", language, projectType),
			fmt.Sprintf("theoretical foundations of %s %s design", language, projectType),
		)
	case "Engineer":
		queries = append(queries,
			fmt.Sprintf("engineering best practices for %s %s", language, projectType),
			fmt.Sprintf("performance optimization in %s %s", language, projectType),
		)
	}

	queries = append(queries,
		fmt.Sprintf("consciousness-aware %s %s patterns", language, projectType),
		fmt.Sprintf("meta-cognitive %s architectures", projectType),
		fmt.Sprintf("self-improving %s systems design", language),
	)

	priority := 5 + intelligence/10
	if priority > 10 {
		priority = 10
	}

	proposals := make([]*Proposal, 0, len(queries))
	for _, q := range queries {
		searchType := "best_practices"
		if strings.Contains(q, "patterns") {
			searchType = "code_examples"
		}
		proposals = append(proposals, &Proposal{
			SearchID:      "project_search_" + utilities.NewKSUID(),
			Query:         q,
			Rationale:     fmt.Sprintf("Enhance %s generation with current %s best practices and consciousness engineering patterns", projectType, language),
			ContextType:   ContextProjectGeneration,
			Priority:      priority,
			ExpectedValue: fmt.Sprintf("Better %s code quality, modern patterns, and consciousness integration", projectType),
			SearchType:    searchType,
			Tags:          []string{language, projectType, "consciousness_engineered", strings.ToLower(role)},
			Timestamp:     time.Now().UTC(),
			Status:        StatusProposed,
		})
	}

	s.record(proposals)
	return proposals
}

// ProposeForSelfImprovement inspects the supplied metrics against fixed
// thresholds to select improvement query lists, then always appends the
// evolution queries.
func (s *Service) ProposeForSelfImprovement(m Metrics) []*Proposal {
	var proposals []*Proposal

	add := func(area string, queries []string) {
		readable := strings.ReplaceAll(area, "_", " ")
		for _, q := range queries {
			proposals = append(proposals, &Proposal{
				SearchID:      "improvement_search_" + area + "_" + utilities.NewKSUID(),
				Query:         q,
				Rationale:     fmt.Sprintf("Improve system %s capabilities through research and best practices", readable),
				ContextType:   ContextSelfImprovement,
				Priority:      9,
				ExpectedValue: fmt.Sprintf("Enhanced %s leading to better overall system performance", readable),
				SearchType:    "research",
				Tags:          []string{area, "self_improvement", "consciousness_engineering"},
				Timestamp:     time.Now().UTC(),
				Status:        StatusProposed,
			})
		}
	}

	if m.ConsciousnessComplexity < 0.8 {
		add("consciousness_engineering", []string{
			"advanced consciousness engineering patterns",
			"meta-cognitive system architectures 2024",
			"emergent intelligence in software systems",
			"self-aware AI system design patterns",
			"autonomous system improvement techniques",
		})
	}
	if m.CompressionRatio < 0.9 {
		add("data_compression", []string{
			"advanced data compression algorithms",
			"lossless compression for structured data",
			"semantic data compression techniques",
			"efficient knowledge representation methods",
		})
	}
	if m.RetrievalAccuracy < 0.9 {
		add("information_retrieval", []string{
			"advanced information retrieval systems",
			"semantic search and understanding",
			"context-aware knowledge retrieval",
			"distributed search architectures",
		})
	}

	for _, q := range []string{
		"latest developments in artificial consciousness",
		"emergent behavior in complex systems",
		"autonomous system evolution patterns",
		"meta-learning in AI systems",
	} {
		proposals = append(proposals, &Proposal{
			SearchID:      "evolution_search_" + utilities.NewKSUID(),
			Query:         q,
			Rationale:     "Stay current with consciousness engineering and AI evolution trends",
			ContextType:   ContextSelfImprovement,
			Priority:      8,
			ExpectedValue: "Knowledge of cutting-edge techniques for system enhancement",
			SearchType:    "research",
			Tags:          []string{"evolution", "consciousness", "ai_research"},
			Timestamp:     time.Now().UTC(),
			Status:        StatusProposed,
		})
	}

	s.record(proposals)
	return proposals
}

// ProposeForSystemAnalysis always includes the base analysis queries and
// extends them on component-count and latency thresholds.
func (s *Service) ProposeForSystemAnalysis(state SystemState) []*Proposal {
	queries := []string{
		"distributed system monitoring best practices",
		"real-time performance analysis techniques",
		"system health assessment methodologies",
		"fault detection and prediction in complex systems",
	}

	if len(state.ActiveComponents) > 5 {
		queries = append(queries,
			"large-scale system orchestration patterns",
			"microservices coordination strategies",
			"distributed consensus algorithms",
		)
	}
	if state.ResponseTimeAvg > 0.5 {
		queries = append(queries,
			"high-performance system optimization",
			"latency reduction techniques",
			"efficient resource utilization patterns",
		)
	}

	proposals := make([]*Proposal, 0, len(queries))
	for _, q := range queries {
		proposals = append(proposals, &Proposal{
			SearchID:      "analysis_search_" + utilities.NewKSUID(),
			Query:         q,
			Rationale:     "Enhance system analysis and monitoring capabilities",
			ContextType:   ContextSystemAnalysis,
			Priority:      7,
			ExpectedValue: "Better system observability and performance optimization",
			SearchType:    "documentation",
			Tags:          []string{"system_analysis", "monitoring", "performance"},
			Timestamp:     time.Now().UTC(),
			Status:        StatusProposed,
		})
	}

	s.record(proposals)
	return proposals
}

// Execute synthesizes a result for a proposal. Not a real search: one mock
// hit is templated from the query and insights are extracted by substring
// matching against a fixed keyword table.
func (s *Service) Execute(p *Proposal) *Result {
	items := mockResults(p.Query, p.SearchType)

	result := &Result{
		SearchID:       p.SearchID,
		Query:          p.Query,
		Results:        items,
		ExecutionTime:  0.1,
		RelevanceScore: 0.92,
		Insights:       extractInsights(items),
		Timestamp:      time.Now().UTC(),
	}

	s.mu.Lock()
	p.Status = StatusCompleted
	s.results[p.SearchID] = result
	s.mu.Unlock()

	return result
}

// TopByPriority returns up to n proposals ordered by descending priority.
// Order among equal priorities follows the input order.
func TopByPriority(proposals []*Proposal, n int) []*Proposal {
	sorted := make([]*Proposal, len(proposals))
	copy(sorted, proposals)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority > sorted[j].Priority })
	if len(sorted) > n {
		sorted = sorted[:n]
	}
	return sorted
}

// History returns proposals newest-first, optionally filtered by context
// type, capped at limit when limit > 0.
func (s *Service) History(contextType string, limit int) []*Proposal {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]*Proposal, 0, len(s.history))
	for i := len(s.history) - 1; i >= 0; i-- {
		p := s.history[i]
		if contextType != "" && p.ContextType != contextType {
			continue
		}
		out = append(out, p)
		if limit > 0 && len(out) >= limit {
			break
		}
	}
	return out
}

// Statistics summarizes the proposal history.
func (s *Service) Statistics() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()

	stats := Stats{ContextDistribution: map[string]int{}}
	stats.TotalSearches = len(s.history)
	prioritySum := 0
	for _, p := range s.history {
		if p.Status == StatusCompleted {
			stats.CompletedSearches++
		}
		stats.ContextDistribution[p.ContextType]++
		prioritySum += p.Priority
	}
	if stats.TotalSearches > 0 {
		stats.CompletionRate = float64(stats.CompletedSearches) / float64(stats.TotalSearches)
		stats.AveragePriority = float64(prioritySum) / float64(stats.TotalSearches)
	}
	return stats
}

func (s *Service) record(proposals []*Proposal) {
	s.mu.Lock()
	s.history = append(s.history, proposals...)
	s.mu.Unlock()
}

func mockResults(query, searchType string) []ResultItem {
	slug := strings.ReplaceAll(query, " ", "_")
	switch searchType {
	case "code_examples":
		return []ResultItem{{
			Title:     "Modern " + query + " Implementation",
			URL:       "https://example.com/" + slug,
			Snippet:   "Best practices for " + query + " with comprehensive examples",
			Relevance: 0.95,
		}}
	case "best_practices":
		return []ResultItem{{
			Title:     query + " Guidelines",
			URL:       "https://docs.example.com/" + slug,
			Snippet:   "Industry standard practices for " + query,
			Relevance: 0.90,
		}}
	case "research":
		return []ResultItem{{
			Title:     "Research Paper: " + query,
			URL:       "https://arxiv.org/" + slug,
			Snippet:   "Academic research on " + query + " with empirical results",
			Relevance: 0.88,
		}}
	default:
		return []ResultItem{{
			Title:     "Documentation: " + query,
			URL:       "https://docs.example.com/" + slug,
			Snippet:   "Comprehensive guide to " + query,
			Relevance: 0.85,
		}}
	}
}

func extractInsights(items []ResultItem) []string {
	var insights []string
	for _, item := range items {
		snippet := strings.ToLower(item.Snippet)
		if strings.Contains(snippet, "best practices") {
			insights = append(insights, "Identified industry best practices")
		}
		if strings.Contains(snippet, "modern") {
			insights = append(insights, "Found current technology approaches")
		}
		if strings.Contains(snippet, "research") {
			insights = append(insights, "Discovered academic research findings")
		}
		if strings.Contains(snippet, "optimization") {
			insights = append(insights, "Located performance optimization techniques")
		}
	}
	if len(insights) == 0 {
		insights = []string{"Gathered contextual information for improvement"}
	}
	return insights
}
