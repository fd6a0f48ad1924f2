package repo

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/consciousness-labs/platform-api/internal/user/entity"
)

// AgentRepo provides data access for the agents table.
type AgentRepo struct {
	db *sqlx.DB
}

func NewAgentRepo(db *sqlx.DB) *AgentRepo { return &AgentRepo{db: db} }

// EnsureTable creates the agents table if not exists (idempotent).
func (r *AgentRepo) EnsureTable(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS agents (
  id varchar(32) PRIMARY KEY,
  user_id varchar(36) NOT NULL REFERENCES users(id),
  name TEXT NOT NULL,
  intelligence INT NOT NULL,
  capabilities JSONB NOT NULL DEFAULT '[]'::jsonb,
  status TEXT NOT NULL DEFAULT 'active',
  created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
);
CREATE INDEX IF NOT EXISTS idx_agents_user_id ON agents(user_id);
`
	_, err := r.db.ExecContext(ctx, ddl)
	return err
}

// Create inserts a new agent row. The executor is passed in so the insert
// can join the user insert's transaction during onboarding.
func (r *AgentRepo) Create(ctx context.Context, ext sqlx.ExtContext, a *entity.Agent) error {
	const q = `INSERT INTO agents (id, user_id, name, intelligence, capabilities, status, created_at)
		VALUES (:id, :user_id, :name, :intelligence, :capabilities, :status, :created_at)`
	_, err := sqlx.NamedExecContext(ctx, ext, q, a)
	return err
}

// ListByUser returns all agents owned by a user.
func (r *AgentRepo) ListByUser(ctx context.Context, userID string) ([]entity.Agent, error) {
	const q = `SELECT id, user_id, name, intelligence, capabilities, status, created_at
		FROM agents WHERE user_id=$1 ORDER BY created_at`
	rows := []entity.Agent{}
	if err := r.db.SelectContext(ctx, &rows, q, userID); err != nil {
		return nil, err
	}
	return rows, nil
}

// CountActive returns the number of agents currently marked active.
func (r *AgentRepo) CountActive(ctx context.Context) (int, error) {
	var n int
	const q = `SELECT COUNT(id) FROM agents WHERE status='active'`
	if err := r.db.GetContext(ctx, &n, q); err != nil {
		return 0, err
	}
	return n, nil
}
