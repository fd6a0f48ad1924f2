package entity

import "time"

// Roles a generated user can be assigned. Picked uniformly at onboarding.
var Roles = []string{"Developer", "Designer", "Researcher", "Engineer"}

// Intelligence bounds for generated users, inclusive.
const (
	IntelligenceMin = 70
	IntelligenceMax = 95
)

// EmailDomain is appended to the first 8 characters of the user ID.
const EmailDomain = "@consciousness.test"

// User is a row in the `users` table.
type User struct {
	ID                string    `db:"id" json:"id"`
	Name              string    `db:"name" json:"name"`
	Email             string    `db:"email" json:"email"`
	Role              string    `db:"role" json:"role"`
	IntelligenceLevel int       `db:"intelligence_level" json:"intelligence_level"`
	OnboardedAt       time.Time `db:"onboarded_at" json:"onboarded_at"`
}

// UserSummary is the list projection with the owned-project count.
type UserSummary struct {
	User
	ProjectsCount int `db:"projects_count" json:"projects_count"`
}

// ProjectRef is the lightweight project projection nested under a user detail.
type ProjectRef struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Type      string    `db:"type" json:"type"`
	Status    string    `db:"status" json:"status"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// UserDetail is the full projection returned for a single user.
type UserDetail struct {
	User
	Projects []ProjectRef `json:"projects"`
	Agents   []Agent      `json:"agents"`
}

// Pagination is the standard envelope for paginated listings.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// UserStats aggregates user-level statistics.
type UserStats struct {
	TotalUsers               int            `json:"total_users"`
	AverageIntelligence      float64        `json:"average_intelligence"`
	IntelligenceDistribution map[string]int `json:"intelligence_distribution"`
	RoleDistribution         map[string]int `json:"role_distribution"`
}
