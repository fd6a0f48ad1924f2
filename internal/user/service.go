package user

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"math/rand"
	"strings"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/consciousness-labs/platform-api/internal/user/entity"
	userrepo "github.com/consciousness-labs/platform-api/internal/user/repo"
	"github.com/consciousness-labs/platform-api/pkg/utilities"
)

// Fixed name pools for random onboarding.
var (
	firstNames = []string{"Alex", "Jordan", "Taylor", "Morgan", "Casey", "Riley", "Avery", "Quinn"}
	lastNames  = []string{"Smith", "Johnson", "Williams", "Brown", "Jones", "Garcia", "Miller", "Davis"}
)

var ErrUserNotFound = errors.New("user not found")

// Service orchestrates user onboarding and agent creation. The random
// source is injected so property tests can seed it; access is serialized
// because the heartbeat loop shares the service with request handlers.
type Service struct {
	db     *sqlx.DB
	users  *userrepo.UserRepo
	agents *userrepo.AgentRepo
	logger *zap.SugaredLogger

	mu  sync.Mutex
	rnd *rand.Rand
}

func NewService(db *sqlx.DB, logger *zap.SugaredLogger, rnd *rand.Rand) *Service {
	if rnd == nil {
		rnd = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Service{
		db:     db,
		users:  userrepo.NewUserRepo(db),
		agents: userrepo.NewAgentRepo(db),
		logger: logger,
		rnd:    rnd,
	}
}

// EnsureTables creates the users and agents tables.
func (s *Service) EnsureTables(ctx context.Context) error {
	if err := s.users.EnsureTable(ctx); err != nil {
		return err
	}
	return s.agents.EnsureTable(ctx)
}

// Onboard creates one random user and its agent in a single transaction,
// so a failed agent insert never leaves an orphaned user behind.
func (s *Service) Onboard(ctx context.Context) (*entity.User, *entity.Agent, error) {
	id := utilities.NewUUID()
	u := &entity.User{
		ID:                id,
		Name:              s.pick(firstNames) + " " + s.pick(lastNames),
		Email:             id[:8] + entity.EmailDomain,
		Role:              s.pick(entity.Roles),
		IntelligenceLevel: s.intn(entity.IntelligenceMax-entity.IntelligenceMin+1) + entity.IntelligenceMin,
		OnboardedAt:       time.Now().UTC(),
	}
	agent := buildAgent(u)

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin onboarding: %w", err)
	}
	if err := s.users.Create(ctx, tx, u); err != nil {
		tx.Rollback()
		return nil, nil, fmt.Errorf("create user: %w", err)
	}
	if err := s.agents.Create(ctx, tx, agent); err != nil {
		tx.Rollback()
		return nil, nil, fmt.Errorf("create agent: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit onboarding: %w", err)
	}

	s.logger.Infow("user onboarded",
		"user_id", u.ID, "name", u.Name, "role", u.Role,
		"intelligence", u.IntelligenceLevel, "agent_id", agent.ID)
	return u, agent, nil
}

// CreateAgentFor creates the placeholder agent for an existing user. The
// agent's intelligence is a snapshot of the user's level at this moment.
func (s *Service) CreateAgentFor(ctx context.Context, userID string) (*entity.Agent, error) {
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	agent := buildAgent(u)
	if err := s.agents.Create(ctx, s.db, agent); err != nil {
		return nil, fmt.Errorf("create agent: %w", err)
	}
	return agent, nil
}

// buildAgent derives the agent row from its owner, snapshotting the
// intelligence level.
func buildAgent(u *entity.User) *entity.Agent {
	first := u.Name
	if fields := strings.Fields(u.Name); len(fields) > 0 {
		first = fields[0]
	}
	return &entity.Agent{
		ID:           utilities.NewKSUID(),
		UserID:       u.ID,
		Name:         "Agent-" + first,
		Intelligence: u.IntelligenceLevel,
		Capabilities: entity.DefaultCapabilities,
		Status:       entity.AgentStatusActive,
		CreatedAt:    time.Now().UTC(),
	}
}

// ListResult is the paginated user listing.
type ListResult struct {
	Users      []entity.UserSummary `json:"users"`
	Pagination entity.Pagination    `json:"pagination"`
}

// List returns a page of users with project counts.
func (s *Service) List(ctx context.Context, page, limit int) (*ListResult, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 50
	}
	users, err := s.users.List(ctx, (page-1)*limit, limit)
	if err != nil {
		return nil, err
	}
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	return &ListResult{
		Users: users,
		Pagination: entity.Pagination{
			Page:  page,
			Limit: limit,
			Total: total,
			Pages: (total + limit - 1) / limit,
		},
	}, nil
}

// Get returns a user with nested projects and agents.
func (s *Service) Get(ctx context.Context, id string) (*entity.UserDetail, error) {
	u, err := s.users.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	projects, err := s.users.ProjectRefs(ctx, id)
	if err != nil {
		return nil, err
	}
	agents, err := s.agents.ListByUser(ctx, id)
	if err != nil {
		return nil, err
	}
	return &entity.UserDetail{User: *u, Projects: projects, Agents: agents}, nil
}

// Statistics aggregates user counts and distributions.
func (s *Service) Statistics(ctx context.Context) (*entity.UserStats, error) {
	total, err := s.users.Count(ctx)
	if err != nil {
		return nil, err
	}
	avg, err := s.users.AverageIntelligence(ctx)
	if err != nil {
		return nil, err
	}
	intelligence, err := s.users.IntelligenceDistribution(ctx)
	if err != nil {
		return nil, err
	}
	roles, err := s.users.RoleDistribution(ctx)
	if err != nil {
		return nil, err
	}
	return &entity.UserStats{
		TotalUsers:               total,
		AverageIntelligence:      math.Round(avg*100) / 100,
		IntelligenceDistribution: intelligence,
		RoleDistribution:         roles,
	}, nil
}

// CountUsers returns the total user count, for the dashboard.
func (s *Service) CountUsers(ctx context.Context) (int, error) {
	return s.users.Count(ctx)
}

// CountActiveAgents returns the active agent count, for the dashboard.
func (s *Service) CountActiveAgents(ctx context.Context) (int, error) {
	return s.agents.CountActive(ctx)
}

func (s *Service) pick(pool []string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pool[s.rnd.Intn(len(pool))]
}

func (s *Service) intn(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rnd.Intn(n)
}
