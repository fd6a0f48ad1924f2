package entity

import "time"

// Known project types. Unknown values are accepted and fall back to the
// generic prompt rather than being rejected.
const (
	TypeWebApp = "web_app"
	TypeAPI    = "api"
	TypeAgent  = "agent"
)

// Project lifecycle statuses.
const (
	StatusGenerated   = "generated"
	StatusFailed      = "failed"
	StatusRegenerated = "regenerated"
)

// Project is a row in the `projects` table. Code is the opaque blob
// returned by the external generation engine.
type Project struct {
	ID        string    `db:"id" json:"id"`
	UserID    string    `db:"user_id" json:"user_id"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"`
	Code      string    `db:"code" json:"code"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

// ProjectSummary is the listing projection: no code blob, but the owner's
// display name and the blob length.
type ProjectSummary struct {
	ID         string    `db:"id" json:"id"`
	UserID     string    `db:"user_id" json:"user_id"`
	UserName   string    `db:"user_name" json:"user_name"`
	Name       string    `db:"name" json:"name"`
	Type       string    `db:"type" json:"type"`
	Status     string    `db:"status" json:"status"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	CodeLength int       `db:"code_length" json:"code_length"`
}

// ProjectDetail is the full single-project projection.
type ProjectDetail struct {
	Project
	UserName   string `json:"user_name"`
	CodeLength int    `json:"code_length"`
	CodeLines  int    `json:"code_lines"`
}

// ListFilter narrows a project listing.
type ListFilter struct {
	UserID string
	Type   string
	Status string
}

// Pagination is the standard envelope for paginated listings.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// ProjectStats aggregates project-level statistics.
type ProjectStats struct {
	TotalProjects      int                `json:"total_projects"`
	TypeDistribution   map[string]int     `json:"type_distribution"`
	StatusDistribution map[string]int     `json:"status_distribution"`
	RecentProjects     int                `json:"recent_projects"`
	AverageCodeLengths map[string]float64 `json:"average_code_lengths"`
	MostPopularType    string             `json:"most_popular_type"`
}
