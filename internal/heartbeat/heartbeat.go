// Package heartbeat runs the background consciousness loop: poll the
// engine's health and, when it answers, run one full onboarding and
// generation cycle. Best-effort only; every failure is logged and the
// loop moves on to the next tick.
package heartbeat

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/consciousness-labs/platform-api/internal/engine"
	"github.com/consciousness-labs/platform-api/internal/project"
	"github.com/consciousness-labs/platform-api/internal/project/entity"
	"github.com/consciousness-labs/platform-api/internal/user"
)

// tickBudget bounds one full cycle, the engine's generation call included.
const tickBudget = 90 * time.Second

var projectTypes = []string{entity.TypeWebApp, entity.TypeAPI, entity.TypeAgent}

type Heartbeat struct {
	eng      *engine.Client
	users    *user.Service
	projects *project.Service
	logger   *zap.SugaredLogger
	interval time.Duration
	cron     *cron.Cron

	mu    sync.Mutex
	rnd   *rand.Rand
	ticks int
}

func New(eng *engine.Client, users *user.Service, projects *project.Service, interval time.Duration, logger *zap.SugaredLogger) *Heartbeat {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &Heartbeat{
		eng:      eng,
		users:    users,
		projects: projects,
		logger:   logger,
		interval: interval,
		rnd:      rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// Start schedules the loop. Ticks are skipped while a previous one is
// still running (cron's default for a slow job function is to run them
// concurrently; the engine call makes that undesirable, so the tick
// itself is serialized via the mutex held for its whole duration).
func (h *Heartbeat) Start() error {
	h.cron = cron.New()
	if _, err := h.cron.AddFunc(fmt.Sprintf("@every %s", h.interval), h.tick); err != nil {
		return err
	}
	h.cron.Start()
	h.logger.Infow("heartbeat started", "interval", h.interval.String())
	return nil
}

// Stop halts scheduling and waits for a running tick to finish.
func (h *Heartbeat) Stop() {
	if h.cron != nil {
		ctx := h.cron.Stop()
		<-ctx.Done()
	}
	h.mu.Lock() // wait out an in-flight tick
	h.mu.Unlock()
	h.logger.Info("heartbeat stopped")
}

func (h *Heartbeat) tick() {
	if !h.mu.TryLock() {
		return
	}
	defer h.mu.Unlock()

	h.ticks++
	ctx, cancel := context.WithTimeout(context.Background(), tickBudget)
	defer cancel()

	if err := h.eng.Health(ctx); err != nil {
		h.logger.Warnw("engine health check failed", "tick", h.ticks, "err", err)
		return
	}

	u, _, err := h.users.Onboard(ctx)
	if err != nil {
		h.logger.Warnw("auto-onboarding failed", "tick", h.ticks, "err", err)
		return
	}

	projectType := projectTypes[h.rnd.Intn(len(projectTypes))]
	result, err := h.projects.Generate(ctx, u.ID, projectType, "")
	if err != nil {
		h.logger.Warnw("auto-generation failed", "tick", h.ticks, "user_id", u.ID, "err", err)
		return
	}
	h.logger.Infow("consciousness loop completed",
		"tick", h.ticks, "user_id", u.ID, "project_id", result.ID, "type", projectType,
		"code_length", result.CodeLength)
}
