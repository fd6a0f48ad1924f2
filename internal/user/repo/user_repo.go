package repo

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/consciousness-labs/platform-api/internal/user/entity"
)

// UserRepo provides data access for the users table using sqlx.
type UserRepo struct {
	db *sqlx.DB
}

func NewUserRepo(db *sqlx.DB) *UserRepo { return &UserRepo{db: db} }

// EnsureTable creates the users table if not exists (idempotent).
// This is a convenience for early development; prefer migrations in production.
func (r *UserRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS users (
  id varchar(36) PRIMARY KEY,
  name TEXT NOT NULL,
  email TEXT NOT NULL,
  role TEXT NOT NULL,
  intelligence_level INT NOT NULL,
  onboarded_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_users_role ON users(role);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a new user row. The executor is passed in so the insert
// can run inside a caller-owned transaction.
func (r *UserRepo) Create(ctx context.Context, ext sqlx.ExtContext, u *entity.User) error {
	const q = `INSERT INTO users (id, name, email, role, intelligence_level, onboarded_at)
		VALUES (:id, :name, :email, :role, :intelligence_level, :onboarded_at)`
	_, err := sqlx.NamedExecContext(ctx, ext, q, u)
	return err
}

// GetByID fetches a full user row or sql.ErrNoRows.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	const q = `SELECT id, name, email, role, intelligence_level, onboarded_at FROM users WHERE id=$1`
	var row entity.User
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// List returns a page of users together with their owned-project counts.
func (r *UserRepo) List(ctx context.Context, offset, limit int) ([]entity.UserSummary, error) {
	const q = `SELECT u.id, u.name, u.email, u.role, u.intelligence_level, u.onboarded_at,
			COUNT(p.id) AS projects_count
		FROM users u
		LEFT JOIN projects p ON p.user_id = u.id
		GROUP BY u.id
		ORDER BY u.onboarded_at DESC
		OFFSET $1 LIMIT $2`
	rows := []entity.UserSummary{}
	if err := r.db.SelectContext(ctx, &rows, q, offset, limit); err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the total user count.
func (r *UserRepo) Count(ctx context.Context) (int, error) {
	var n int
	if err := r.db.GetContext(ctx, &n, `SELECT COUNT(id) FROM users`); err != nil {
		return 0, err
	}
	return n, nil
}

// ProjectRefs returns the lightweight project rows owned by a user, for
// nesting under the user detail view.
func (r *UserRepo) ProjectRefs(ctx context.Context, userID string) ([]entity.ProjectRef, error) {
	const q = `SELECT id, name, type, status, created_at FROM projects WHERE user_id=$1 ORDER BY created_at DESC`
	rows := []entity.ProjectRef{}
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, err
	}
	return rows, nil
}

// AverageIntelligence returns the mean intelligence level over all users,
// zero when the table is empty.
func (r *UserRepo) AverageIntelligence(ctx context.Context) (float64, error) {
	var avg float64
	const q = `SELECT COALESCE(AVG(intelligence_level), 0) FROM users`
	if err := r.db.GetContext(ctx, &avg, q); err != nil {
		return 0, err
	}
	return avg, nil
}

// IntelligenceDistribution buckets users into decades ("70-79" etc.).
func (r *UserRepo) IntelligenceDistribution(ctx context.Context) (map[string]int, error) {
	const q = `SELECT (FLOOR(intelligence_level / 10) * 10)::int AS bucket, COUNT(id) AS n
		FROM users GROUP BY bucket`
	var rows []struct {
		Bucket int `db:"bucket"`
		N      int `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	dist := map[string]int{}
	for _, row := range rows {
		dist[fmt.Sprintf("%d-%d", row.Bucket, row.Bucket+9)] = row.N
	}
	return dist, nil
}

// RoleDistribution counts users per role.
func (r *UserRepo) RoleDistribution(ctx context.Context) (map[string]int, error) {
	const q = `SELECT role, COUNT(id) AS n FROM users GROUP BY role`
	var rows []struct {
		Role string `db:"role"`
		N    int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	dist := map[string]int{}
	for _, row := range rows {
		dist[row.Role] = row.N
	}
	return dist, nil
}
