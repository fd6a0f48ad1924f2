package search

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestService() *Service {
	return NewService(zap.NewNop().Sugar())
}

func TestProposeForProjectQueryGrowth(t *testing.T) {
	cases := []struct {
		name         string
		intelligence int
		role         string
		want         int
	}{
		{"baseline developer", 70, "Developer", 7},
		{"intermediate tier", 75, "Developer", 9},
		{"advanced tier", 90, "Developer", 10},
		{"researcher adds two", 70, "Researcher", 9},
		{"engineer at top tier", 95, "Engineer", 12},
		{"defaults when context empty", 0, "", 9},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := newTestService()
			proposals := svc.ProposeForProject("web_app", "javascript", UserContext{
				Role: tc.role, IntelligenceLevel: tc.intelligence,
			})
			assert.Len(t, proposals, tc.want)
		})
	}
}

func TestProposeForProjectPriorityAndType(t *testing.T) {
	svc := newTestService()

	proposals := svc.ProposeForProject("api", "python", UserContext{Role: "Developer", IntelligenceLevel: 40})
	for _, p := range proposals {
		assert.Equal(t, 9, p.Priority) // 5 + 40/10
		assert.Equal(t, ContextProjectGeneration, p.ContextType)
		assert.Equal(t, StatusProposed, p.Status)
		if assert.NotEmpty(t, p.SearchID) {
			assert.Contains(t, p.SearchID, "project_search_")
		}
	}

	// priority caps at 10 for high intelligence
	capped := svc.ProposeForProject("api", "python", UserContext{Role: "Developer", IntelligenceLevel: 95})
	for _, p := range capped {
		assert.Equal(t, 10, p.Priority)
	}

	// queries mentioning patterns become code-example searches
	for _, p := range proposals {
		want := "best_practices"
		if strings.Contains(p.Query, "patterns") {
			want = "code_examples"
		}
		assert.Equal(t, want, p.SearchType, "query %q", p.Query)
	}
}

func TestProposeForSelfImprovementThresholds(t *testing.T) {
	svc := newTestService()

	healthy := svc.ProposeForSelfImprovement(Metrics{
		ConsciousnessComplexity: 0.9, CompressionRatio: 0.95, RetrievalAccuracy: 0.95,
	})
	require.Len(t, healthy, 4) // only the evolution queries
	for _, p := range healthy {
		assert.Equal(t, 8, p.Priority)
		assert.Equal(t, ContextSelfImprovement, p.ContextType)
	}

	degraded := svc.ProposeForSelfImprovement(Metrics{
		ConsciousnessComplexity: 0.5, CompressionRatio: 0.8, RetrievalAccuracy: 0.85,
	})
	// 5 consciousness + 4 compression + 4 retrieval + 4 evolution
	require.Len(t, degraded, 17)
	assert.Equal(t, 9, degraded[0].Priority)
	assert.Contains(t, degraded[0].SearchID, "improvement_search_consciousness_engineering_")
}

func TestProposeForSystemAnalysisThresholds(t *testing.T) {
	svc := newTestService()

	small := svc.ProposeForSystemAnalysis(SystemState{
		ActiveComponents: []string{"a", "b"}, ResponseTimeAvg: 0.1,
	})
	require.Len(t, small, 4)
	for _, p := range small {
		assert.Equal(t, 7, p.Priority)
		assert.Equal(t, "documentation", p.SearchType)
	}

	large := svc.ProposeForSystemAnalysis(SystemState{
		ActiveComponents: []string{"a", "b", "c", "d", "e", "f"}, ResponseTimeAvg: 0.8,
	})
	assert.Len(t, large, 10)
}

func TestExecuteSynthesizesResult(t *testing.T) {
	svc := newTestService()
	proposals := svc.ProposeForProject("web_app", "javascript", UserContext{Role: "Developer", IntelligenceLevel: 80})
	require.NotEmpty(t, proposals)

	p := proposals[0]
	res := svc.Execute(p)

	assert.Equal(t, p.SearchID, res.SearchID)
	assert.Equal(t, p.Query, res.Query)
	assert.InDelta(t, 0.92, res.RelevanceScore, 1e-9)
	assert.InDelta(t, 0.1, res.ExecutionTime, 1e-9)
	require.Len(t, res.Results, 1)
	assert.NotEmpty(t, res.Insights)
	assert.Equal(t, StatusCompleted, p.Status)
}

func TestExtractInsights(t *testing.T) {
	insights := extractInsights([]ResultItem{{
		Snippet: "Best practices for modern optimization research",
	}})
	assert.Equal(t, []string{
		"Identified industry best practices",
		"Found current technology approaches",
		"Discovered academic research findings",
		"Located performance optimization techniques",
	}, insights)

	fallback := extractInsights([]ResultItem{{Snippet: "nothing to see"}})
	assert.Equal(t, []string{"Gathered contextual information for improvement"}, fallback)
}

func TestTopByPriority(t *testing.T) {
	a := &Proposal{SearchID: "a", Priority: 7}
	b := &Proposal{SearchID: "b", Priority: 9}
	c := &Proposal{SearchID: "c", Priority: 9}
	d := &Proposal{SearchID: "d", Priority: 8}

	top := TopByPriority([]*Proposal{a, b, c, d}, 3)
	require.Len(t, top, 3)
	// descending, stable among equals
	assert.Equal(t, "b", top[0].SearchID)
	assert.Equal(t, "c", top[1].SearchID)
	assert.Equal(t, "d", top[2].SearchID)

	// n larger than the input returns everything
	assert.Len(t, TopByPriority([]*Proposal{a}, 5), 1)
}

func TestHistoryFilterAndOrder(t *testing.T) {
	svc := newTestService()
	svc.ProposeForSystemAnalysis(SystemState{})
	svc.ProposeForSelfImprovement(Metrics{ConsciousnessComplexity: 1, CompressionRatio: 1, RetrievalAccuracy: 1})

	all := svc.History("", 0)
	require.Len(t, all, 8)
	// newest proposals come back first
	assert.Equal(t, ContextSelfImprovement, all[0].ContextType)

	analysis := svc.History(ContextSystemAnalysis, 0)
	require.Len(t, analysis, 4)
	for _, p := range analysis {
		assert.Equal(t, ContextSystemAnalysis, p.ContextType)
	}

	assert.Len(t, svc.History("", 3), 3)
}

func TestStatistics(t *testing.T) {
	svc := newTestService()
	assert.Zero(t, svc.Statistics().TotalSearches)

	proposals := svc.ProposeForSystemAnalysis(SystemState{})
	svc.Execute(proposals[0])
	svc.Execute(proposals[1])

	stats := svc.Statistics()
	assert.Equal(t, 4, stats.TotalSearches)
	assert.Equal(t, 2, stats.CompletedSearches)
	assert.InDelta(t, 0.5, stats.CompletionRate, 1e-9)
	assert.InDelta(t, 7.0, stats.AveragePriority, 1e-9)
	assert.Equal(t, map[string]int{ContextSystemAnalysis: 4}, stats.ContextDistribution)
}
