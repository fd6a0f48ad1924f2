package repo

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/consciousness-labs/platform-api/internal/project/entity"
)

// ProjectRepo provides data access for the projects table using sqlx.
type ProjectRepo struct {
	db *sqlx.DB
}

func NewProjectRepo(db *sqlx.DB) *ProjectRepo { return &ProjectRepo{db: db} }

// EnsureTable creates the projects table if not exists (idempotent).
func (r *ProjectRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS projects (
  id varchar(36) PRIMARY KEY,
  user_id varchar(36) NOT NULL REFERENCES users(id),
  name TEXT NOT NULL,
  type TEXT NOT NULL,
  code TEXT NOT NULL DEFAULT '',
  status TEXT NOT NULL,
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
  updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_projects_user_id ON projects(user_id);
CREATE INDEX IF NOT EXISTS idx_projects_type ON projects(type);
CREATE INDEX IF NOT EXISTS idx_projects_status ON projects(status);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a new project row.
func (r *ProjectRepo) Create(ctx context.Context, p *entity.Project) error {
	const q = `INSERT INTO projects (id, user_id, name, type, code, status, created_at, updated_at)
		VALUES (:id, :user_id, :name, :type, :code, :status, :created_at, :updated_at)`
	_, err := r.db.NamedExecContext(ctx, q, p)
	return err
}

// GetByID fetches a full project row or sql.ErrNoRows.
func (r *ProjectRepo) GetByID(ctx context.Context, id string) (*entity.Project, error) {
	const q = `SELECT id, user_id, name, type, code, status, created_at, updated_at
		FROM projects WHERE id=$1`
	var row entity.Project
	if err := r.db.GetContext(ctx, &row, q, id); err != nil {
		return nil, err
	}
	return &row, nil
}

// filterClause renders the optional listing filters into a WHERE clause
// with positional args starting at $1.
func filterClause(f entity.ListFilter) (string, []any) {
	var conds []string
	var args []any
	if f.UserID != "" {
		args = append(args, f.UserID)
		conds = append(conds, fmt.Sprintf("p.user_id=$%d", len(args)))
	}
	if f.Type != "" {
		args = append(args, f.Type)
		conds = append(conds, fmt.Sprintf("p.type=$%d", len(args)))
	}
	if f.Status != "" {
		args = append(args, f.Status)
		conds = append(conds, fmt.Sprintf("p.status=$%d", len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List returns a filtered page of project summaries with the owner's name.
func (r *ProjectRepo) List(ctx context.Context, f entity.ListFilter, offset, limit int) ([]entity.ProjectSummary, error) {
	where, args := filterClause(f)
	q := `SELECT p.id, p.user_id, COALESCE(u.name, 'Unknown') AS user_name, p.name, p.type, p.status,
			p.created_at, LENGTH(p.code) AS code_length
		FROM projects p LEFT JOIN users u ON u.id = p.user_id` + where +
		fmt.Sprintf(" ORDER BY p.created_at DESC OFFSET $%d LIMIT $%d", len(args)+1, len(args)+2)
	args = append(args, offset, limit)
	rows := []entity.ProjectSummary{}
	if err := r.db.SelectContext(ctx, &rows, q, args...); err != nil {
		return nil, err
	}
	return rows, nil
}

// Count returns the number of projects matching the filter.
func (r *ProjectRepo) Count(ctx context.Context, f entity.ListFilter) (int, error) {
	where, args := filterClause(f)
	q := `SELECT COUNT(p.id) FROM projects p` + where
	var n int
	if err := r.db.GetContext(ctx, &n, q, args...); err != nil {
		return 0, err
	}
	return n, nil
}

// UpdateGeneration overwrites the code, status and updated_at of an existing
// row, used by regeneration. Returns the affected row count.
func (r *ProjectRepo) UpdateGeneration(ctx context.Context, id, code, status string, updatedAt time.Time) (int64, error) {
	const q = `UPDATE projects SET code=$2, status=$3, updated_at=$4 WHERE id=$1`
	res, err := r.db.ExecContext(ctx, q, id, code, status, updatedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Delete removes a project row. Returns the affected row count so callers
// can distinguish a miss from a successful delete.
func (r *ProjectRepo) Delete(ctx context.Context, id string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM projects WHERE id=$1`, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Owner is the user projection the generation prompt is built from.
type Owner struct {
	ID                string `db:"id"`
	Name              string `db:"name"`
	Role              string `db:"role"`
	IntelligenceLevel int    `db:"intelligence_level"`
}

// GetOwner fetches the prompt-relevant user fields or sql.ErrNoRows.
func (r *ProjectRepo) GetOwner(ctx context.Context, userID string) (*Owner, error) {
	const q = `SELECT id, name, role, intelligence_level FROM users WHERE id=$1`
	var o Owner
	if err := r.db.GetContext(ctx, &o, q, userID); err != nil {
		return nil, err
	}
	return &o, nil
}

// UserName resolves the display name of a project's owner, "Unknown" when
// the user row is gone.
func (r *ProjectRepo) UserName(ctx context.Context, userID string) (string, error) {
	var name string
	const q = `SELECT COALESCE((SELECT name FROM users WHERE id=$1), 'Unknown')`
	if err := r.db.GetContext(ctx, &name, q, userID); err != nil {
		return "", err
	}
	return name, nil
}

// TypeDistribution counts projects per type.
func (r *ProjectRepo) TypeDistribution(ctx context.Context) (map[string]int, error) {
	return r.distribution(ctx, "type")
}

// StatusDistribution counts projects per status.
func (r *ProjectRepo) StatusDistribution(ctx context.Context) (map[string]int, error) {
	return r.distribution(ctx, "status")
}

func (r *ProjectRepo) distribution(ctx context.Context, col string) (map[string]int, error) {
	q := fmt.Sprintf(`SELECT %s AS k, COUNT(id) AS n FROM projects GROUP BY %s`, col, col)
	var rows []struct {
		K string `db:"k"`
		N int    `db:"n"`
	}
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	dist := map[string]int{}
	for _, row := range rows {
		dist[row.K] = row.N
	}
	return dist, nil
}

// CountCreatedSince counts projects created at or after the cutoff.
func (r *ProjectRepo) CountCreatedSince(ctx context.Context, cutoff time.Time) (int, error) {
	var n int
	const q = `SELECT COUNT(id) FROM projects WHERE created_at >= $1`
	if err := r.db.GetContext(ctx, &n, q, cutoff); err != nil {
		return 0, err
	}
	return n, nil
}

// AverageCodeLengthByType returns the mean code blob length per project type.
func (r *ProjectRepo) AverageCodeLengthByType(ctx context.Context) (map[string]float64, error) {
	const q = `SELECT type AS k, AVG(LENGTH(code)) AS avg_len FROM projects GROUP BY type`
	var rows []struct {
		K      string  `db:"k"`
		AvgLen float64 `db:"avg_len"`
	}
	if err := r.db.SelectContext(ctx, &rows, q); err != nil {
		return nil, err
	}
	out := map[string]float64{}
	for _, row := range rows {
		out[row.K] = row.AvgLen
	}
	return out, nil
}
