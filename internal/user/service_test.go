package user

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/consciousness-labs/platform-api/internal/user/entity"
)

func newMockService(t *testing.T, seed int64) (*Service, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewService(sqlx.NewDb(db, "sqlmock"), zap.NewNop().Sugar(), rand.New(rand.NewSource(seed))), mock
}

func TestOnboardCreatesUserAndAgent(t *testing.T) {
	svc, mock := newMockService(t, 42)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO agents`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	u, agent, err := svc.Onboard(context.Background())
	require.NoError(t, err)

	assert.Len(t, u.ID, 36)
	assert.True(t, strings.HasSuffix(u.Email, entity.EmailDomain))
	assert.Equal(t, u.ID[:8], strings.TrimSuffix(u.Email, entity.EmailDomain))
	assert.Contains(t, entity.Roles, u.Role)
	assert.GreaterOrEqual(t, u.IntelligenceLevel, entity.IntelligenceMin)
	assert.LessOrEqual(t, u.IntelligenceLevel, entity.IntelligenceMax)

	parts := strings.Fields(u.Name)
	require.Len(t, parts, 2)
	assert.Contains(t, firstNames, parts[0])
	assert.Contains(t, lastNames, parts[1])

	// agent fields snapshot the freshly built user
	assert.Equal(t, "Agent-"+parts[0], agent.Name)
	assert.Equal(t, u.ID, agent.UserID)
	assert.Equal(t, u.IntelligenceLevel, agent.Intelligence)
	assert.Equal(t, entity.DefaultCapabilities, agent.Capabilities)
	assert.Equal(t, entity.AgentStatusActive, agent.Status)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOnboardRollsBackWhenAgentInsertFails(t *testing.T) {
	svc, mock := newMockService(t, 42)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO users`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`INSERT INTO agents`).WillReturnError(errors.New("agents table gone"))
	mock.ExpectRollback()

	_, _, err := svc.Onboard(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create agent")

	// the user insert must not survive the failed agent insert
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestOnboardRandomnessStaysInBounds(t *testing.T) {
	svc, _ := newMockService(t, 7)
	for i := 0; i < 500; i++ {
		n := svc.intn(entity.IntelligenceMax-entity.IntelligenceMin+1) + entity.IntelligenceMin
		assert.GreaterOrEqual(t, n, entity.IntelligenceMin)
		assert.LessOrEqual(t, n, entity.IntelligenceMax)
		assert.Contains(t, entity.Roles, svc.pick(entity.Roles))
	}
}

func TestCreateAgentForUnknownUser(t *testing.T) {
	svc, mock := newMockService(t, 1)

	mock.ExpectQuery(`SELECT id, name, email, role, intelligence_level, onboarded_at FROM users`).
		WillReturnError(sql.ErrNoRows)

	_, err := svc.CreateAgentFor(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestListClampsAndPaginates(t *testing.T) {
	svc, mock := newMockService(t, 1)

	mock.ExpectQuery(`LEFT JOIN projects`).
		WithArgs(0, 50).
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "email", "role", "intelligence_level", "onboarded_at", "projects_count"},
		).AddRow("u-1", "Alex Jones", "a@consciousness.test", "Developer", 80, time.Now(), 3))
	mock.ExpectQuery(`SELECT COUNT\(id\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(125))

	// page 0 and limit 0 fall back to 1/50
	res, err := svc.List(context.Background(), 0, 0)
	require.NoError(t, err)

	assert.Equal(t, 1, res.Pagination.Page)
	assert.Equal(t, 50, res.Pagination.Limit)
	assert.Equal(t, 125, res.Pagination.Total)
	assert.Equal(t, 3, res.Pagination.Pages)
	require.Len(t, res.Users, 1)
	assert.Equal(t, 3, res.Users[0].ProjectsCount)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetReturnsNestedDetail(t *testing.T) {
	svc, mock := newMockService(t, 1)

	mock.ExpectQuery(`SELECT id, name, email, role, intelligence_level, onboarded_at FROM users`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "email", "role", "intelligence_level", "onboarded_at"},
		).AddRow("u-1", "Casey Brown", "c@consciousness.test", "Researcher", 91, time.Now()))
	mock.ExpectQuery(`SELECT id, name, type, status, created_at FROM projects`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "name", "type", "status", "created_at"},
		).AddRow("p-1", "Api Project", "api", "generated", time.Now()))
	mock.ExpectQuery(`FROM agents`).
		WithArgs("u-1").
		WillReturnRows(sqlmock.NewRows(
			[]string{"id", "user_id", "name", "intelligence", "capabilities", "status", "created_at"},
		).AddRow("ag-1", "u-1", "Agent-Casey", 91, []byte(`["code_generation"]`), "active", time.Now()))

	detail, err := svc.Get(context.Background(), "u-1")
	require.NoError(t, err)
	assert.Equal(t, "Casey Brown", detail.Name)
	require.Len(t, detail.Projects, 1)
	assert.Equal(t, "p-1", detail.Projects[0].ID)
	require.Len(t, detail.Agents, 1)
	assert.Equal(t, "Agent-Casey", detail.Agents[0].Name)

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetUnknownUser(t *testing.T) {
	svc, mock := newMockService(t, 1)
	mock.ExpectQuery(`FROM users`).WillReturnError(sql.ErrNoRows)

	_, err := svc.Get(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestStatisticsRoundsAverage(t *testing.T) {
	svc, mock := newMockService(t, 1)

	mock.ExpectQuery(`SELECT COUNT\(id\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery(`COALESCE\(AVG\(intelligence_level\), 0\)`).
		WillReturnRows(sqlmock.NewRows([]string{"avg"}).AddRow(84.33333333))
	mock.ExpectQuery(`FLOOR\(intelligence_level / 10\)`).
		WillReturnRows(sqlmock.NewRows([]string{"bucket", "n"}).
			AddRow(70, 2).AddRow(90, 1))
	mock.ExpectQuery(`SELECT role, COUNT\(id\)`).
		WillReturnRows(sqlmock.NewRows([]string{"role", "n"}).
			AddRow("Developer", 2).AddRow("Researcher", 1))

	stats, err := svc.Statistics(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 3, stats.TotalUsers)
	assert.Equal(t, 84.33, stats.AverageIntelligence)
	assert.Equal(t, map[string]int{"70-79": 2, "90-99": 1}, stats.IntelligenceDistribution)
	assert.Equal(t, map[string]int{"Developer": 2, "Researcher": 1}, stats.RoleDistribution)

	require.NoError(t, mock.ExpectationsWereMet())
}
