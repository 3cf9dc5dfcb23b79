package bonus

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/adhocore/gronx"

	"github.com/nextlevelbuilder/grindbot/internal/pacing"
	"github.com/nextlevelbuilder/grindbot/internal/transport"
)

// maxPlanned caps how many deliveries one planning run registers with the
// platform.
const maxPlanned = 100

// ScheduleSender is the slice of the transport the scheduler needs.
type ScheduleSender interface {
	ScheduleText(ctx context.Context, chatID int64, text string, at time.Time) error
}

// SchedulerConfig carries the static parameters of scheduled mode.
// RearmCron, when set, re-plans on that cron cadence; empty means plan
// once and idle. Count <= 0 selects the cap.
type SchedulerConfig struct {
	ChatID    int64
	Text      string
	Window    pacing.Window
	Count     int
	RearmCron string
}

// Scheduler is the alternative to the live loop: instead of sending in
// real time it registers a batch of future deliveries with the platform at
// cumulative random intervals, then sleeps until the next planning run.
type Scheduler struct {
	cfg    SchedulerConfig
	sender ScheduleSender
}

// NewScheduler validates the config and builds a scheduler.
func NewScheduler(cfg SchedulerConfig, sender ScheduleSender) (*Scheduler, error) {
	if cfg.Count <= 0 || cfg.Count > maxPlanned {
		cfg.Count = maxPlanned
	}
	if cfg.RearmCron != "" && !gronx.New().IsValid(cfg.RearmCron) {
		return nil, fmt.Errorf("bonus: invalid rearm cron expression %q", cfg.RearmCron)
	}
	return &Scheduler{cfg: cfg, sender: sender}, nil
}

// Run plans deliveries until ctx ends. A transport that cannot schedule
// leaves the loop idle rather than failing the agent.
func (s *Scheduler) Run(ctx context.Context) error {
	slog.Info("bonus scheduler started",
		"count", s.cfg.Count,
		"interval_min", s.cfg.Window.Min,
		"interval_max", s.cfg.Window.Max,
		"rearm", s.cfg.RearmCron)

	for {
		n, err := s.plan(ctx)
		switch {
		case errors.Is(err, transport.ErrUnsupported):
			slog.Error("transport cannot schedule deliveries, bonus scheduler idle", "planned", n)
			<-ctx.Done()
			return nil
		case err != nil:
			slog.Warn("bonus planning failed, backing off", "planned", n, "error", err)
			if !sleep(ctx, errBackoff) {
				return nil
			}
			continue
		}
		slog.Info("bonus deliveries planned", "count", n)

		if s.cfg.RearmCron == "" {
			<-ctx.Done()
			return nil
		}
		next, err := gronx.NextTick(s.cfg.RearmCron, false)
		if err != nil {
			slog.Error("rearm schedule unusable, bonus scheduler idle", "error", err)
			<-ctx.Done()
			return nil
		}
		slog.Debug("bonus scheduler sleeping until rearm", "at", next)
		if !sleep(ctx, time.Until(next)) {
			return nil
		}
	}
}

// plan registers the batch: each delivery lands one fresh window draw
// after the previous one.
func (s *Scheduler) plan(ctx context.Context) (int, error) {
	at := time.Now()
	for i := 0; i < s.cfg.Count; i++ {
		at = at.Add(s.cfg.Window.Draw())
		cctx, cancel := context.WithTimeout(ctx, sendTimeout)
		err := s.sender.ScheduleText(cctx, s.cfg.ChatID, s.cfg.Text, at)
		cancel()
		if err != nil {
			return i, err
		}
	}
	return s.cfg.Count, nil
}
