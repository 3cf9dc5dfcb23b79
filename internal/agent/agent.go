// Package agent assembles the configured features over one transport
// session and runs them until shutdown: the word pipeline, the bonus
// stream, and the trigger router with its challenge and box handlers.
package agent

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/grindbot/internal/config"
	"github.com/nextlevelbuilder/grindbot/internal/telegram"
	"github.com/nextlevelbuilder/grindbot/internal/telemetry"
	"github.com/nextlevelbuilder/grindbot/internal/transport"
)

// eventBuffer absorbs update bursts while the router dispatches.
const eventBuffer = 64

// Shutdown phase budgets. Each overrun is logged as a warning and the
// next phase starts anyway; shutdown never hangs on one slow component.
const (
	intakeStopTimeout     = 2 * time.Second
	workerJoinTimeout     = 2 * time.Second
	transportCloseTimeout = 2 * time.Second
	telemetryFlushTimeout = 2 * time.Second
)

// Agent owns the transport session and the feature loops around it.
type Agent struct {
	cfg   config.Config
	feats features

	events chan transport.Message
	broker *transport.Broker
	client *telegram.Client
}

// New validates the config and builds the transport side of the agent.
// Feature-level problems disable the feature with an error log; only a
// config that leaves no working transport is returned as an error.
func New(cfg config.Config) (*Agent, error) {
	if err := cfg.Telegram.Validate(); err != nil {
		return nil, fmt.Errorf("agent: %w", err)
	}

	feats := resolveFeatures(cfg)
	if !feats.any() {
		slog.Warn("no features enabled, running transport only")
	}

	events := make(chan transport.Message, eventBuffer)
	broker := transport.NewBroker(cfg.Limits.ToLimiter(), 0)
	client, err := telegram.New(telegram.Config{
		Token:     cfg.Telegram.Token,
		Proxy:     cfg.Telegram.Proxy,
		Target:    cfg.Telegram.Target,
		InviteURL: cfg.Telegram.InviteURL,
		StatePath: config.ExpandHome(cfg.Telegram.StatePath),
	}, events, broker)
	if err != nil {
		return nil, fmt.Errorf("agent: transport: %w", err)
	}

	return &Agent{
		cfg:    cfg,
		feats:  feats,
		events: events,
		broker: broker,
		client: client,
	}, nil
}

// Run connects, resolves the target group, starts every armed loop, and
// blocks until ctx ends. Cancellation triggers the phased shutdown; a nil
// return means the agent wound down cleanly.
func (a *Agent) Run(ctx context.Context) error {
	flush, err := telemetry.Init(ctx, a.cfg.Telemetry)
	if err != nil {
		slog.Error("telemetry disabled", "error", err)
	}

	// The broker and the loops get lifetimes independent of the signal
	// context so the shutdown phases control who stops when.
	a.broker.Start(context.Background())

	if err := a.client.Connect(ctx); err != nil {
		a.closeTransport()
		return fmt.Errorf("agent: connect: %w", err)
	}

	group, err := a.client.LocateGroup(ctx)
	if err != nil {
		a.closeTransport()
		return fmt.Errorf("agent: locate target group: %w", err)
	}

	p := a.buildPipeline(group)

	loopCtx, stopIntake := context.WithCancel(context.Background())
	defer stopIntake()

	intake := new(errgroup.Group)
	intake.Go(func() error { return p.router.Run(loopCtx, a.events) })
	if p.producer != nil {
		intake.Go(func() error { return p.producer.Run(loopCtx) })
	}
	if p.watcher != nil {
		intake.Go(func() error { return p.watcher.Run(loopCtx) })
	}
	if p.bonusLive != nil {
		intake.Go(func() error { return p.bonusLive.Run(loopCtx) })
	}
	if p.bonusPlan != nil {
		intake.Go(func() error { return p.bonusPlan.Run(loopCtx) })
	}

	workerCtx, stopWorker := context.WithCancel(context.Background())
	defer stopWorker()
	workerDone := make(chan struct{})
	if p.worker != nil {
		go func() {
			defer close(workerDone)
			p.worker.Run(workerCtx)
		}()
	} else {
		close(workerDone)
	}

	slog.Info("agent running",
		"chat_id", group.ID,
		"title", group.Title,
		"words", p.worker != nil,
		"bonus", p.bonusLive != nil || p.bonusPlan != nil,
		"challenge", a.feats.challenge,
		"boxes", a.feats.boxes)

	<-ctx.Done()
	slog.Info("shutdown initiated")
	a.shutdown(p, stopIntake, intake, stopWorker, workerDone, flush)
	return nil
}

// shutdown runs the teardown phases in order. Intake stops first so
// nothing new enters the queue, then the worker gets a grace period to
// finish its in-flight send before the transport goes away.
func (a *Agent) shutdown(p *pipeline, stopIntake context.CancelFunc, intake *errgroup.Group, stopWorker context.CancelFunc, workerDone <-chan struct{}, flush func(context.Context) error) {
	// Producers, the bonus stream, and the router stop pulling new work.
	// In-flight challenge and box tasks lose their context here too, which
	// abandons any recognition still waiting on the OCR pool.
	stopIntake()
	if !joined(intake, intakeStopTimeout) {
		slog.Warn("intake loops did not stop in time")
	}

	if p.queue != nil {
		p.queue.Poison()
	}

	select {
	case <-workerDone:
	case <-time.After(workerJoinTimeout):
		slog.Warn("pacing worker did not stop in time")
		stopWorker()
	}

	a.closeTransport()

	if flush != nil {
		fctx, cancel := context.WithTimeout(context.Background(), telemetryFlushTimeout)
		defer cancel()
		if err := flush(fctx); err != nil {
			slog.Warn("telemetry flush failed", "error", err)
		}
	}

	slog.Info("shutdown complete")
}

func (a *Agent) closeTransport() {
	cctx, cancel := context.WithTimeout(context.Background(), transportCloseTimeout)
	defer cancel()
	if err := a.client.Close(cctx); err != nil {
		slog.Warn("transport close failed", "error", err)
	}
	a.broker.Stop()
}

// joined waits for the group with a bound, reporting whether every loop
// returned in time.
func joined(g *errgroup.Group, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		defer close(done)
		g.Wait()
	}()
	select {
	case <-done:
		return true
	case <-time.After(timeout):
		return false
	}
}
