package search

import "time"

// Context types a proposal can be generated for.
const (
	ContextProjectGeneration = "project_generation"
	ContextSelfImprovement   = "self_improvement"
	ContextSystemAnalysis    = "system_analysis"
)

// Proposal statuses.
const (
	StatusProposed  = "proposed"
	StatusCompleted = "completed"
)

// Proposal is a templated, metadata-tagged query. Proposals are ephemeral:
// they live only in the service's in-memory history.
type Proposal struct {
	SearchID      string    `json:"search_id"`
	Query         string    `json:"query"`
	Rationale     string    `json:"rationale"`
	ContextType   string    `json:"context_type"`
	Priority      int       `json:"priority"`
	ExpectedValue string    `json:"expected_value"`
	SearchType    string    `json:"search_type"`
	Tags          []string  `json:"tags"`
	Timestamp     time.Time `json:"timestamp"`
	Status        string    `json:"status"`
}

// ResultItem is one synthesized search hit.
type ResultItem struct {
	Title     string  `json:"title"`
	URL       string  `json:"url"`
	Snippet   string  `json:"snippet"`
	Relevance float64 `json:"relevance"`
}

// Result is the outcome of executing a proposal. No real retrieval happens;
// items and insights are templated from the query text.
type Result struct {
	SearchID       string       `json:"search_id"`
	Query          string       `json:"query"`
	Results        []ResultItem `json:"results"`
	ExecutionTime  float64      `json:"execution_time"`
	RelevanceScore float64      `json:"relevance_score"`
	Insights       []string     `json:"insights_extracted"`
	Timestamp      time.Time    `json:"timestamp"`
}

// UserContext carries the user attributes that shape project-generation
// proposals.
type UserContext struct {
	Name              string `json:"name"`
	Role              string `json:"role"`
	IntelligenceLevel int    `json:"intelligence_level"`
}

// Metrics are the self-improvement inputs compared against fixed thresholds.
type Metrics struct {
	ConsciousnessComplexity float64 `json:"consciousness_complexity"`
	CompressionRatio        float64 `json:"compression_ratio"`
	RetrievalAccuracy       float64 `json:"retrieval_accuracy"`
}

// SystemState is the system-analysis input map.
type SystemState struct {
	ActiveComponents []string `json:"active_components"`
	ResponseTimeAvg  float64  `json:"response_time_avg"`
}

// Stats summarizes the in-memory search history.
type Stats struct {
	TotalSearches       int            `json:"total_searches"`
	CompletedSearches   int            `json:"completed_searches"`
	CompletionRate      float64        `json:"completion_rate"`
	ContextDistribution map[string]int `json:"context_distribution"`
	AveragePriority     float64        `json:"average_priority"`
}
