package agent

import (
	"log/slog"

	"github.com/nextlevelbuilder/grindbot/internal/bonus"
	"github.com/nextlevelbuilder/grindbot/internal/buttons"
	"github.com/nextlevelbuilder/grindbot/internal/challenge"
	"github.com/nextlevelbuilder/grindbot/internal/config"
	"github.com/nextlevelbuilder/grindbot/internal/ocr"
	"github.com/nextlevelbuilder/grindbot/internal/pacing"
	"github.com/nextlevelbuilder/grindbot/internal/router"
	"github.com/nextlevelbuilder/grindbot/internal/transport"
	"github.com/nextlevelbuilder/grindbot/internal/words"
)

// features is the enabled set after per-feature validation. A feature
// with a broken config is switched off with an error log; it never takes
// the rest of the agent down.
type features struct {
	words     bool
	bonus     bool
	challenge bool
	boxes     bool
}

func (f features) any() bool {
	return f.words || f.bonus || f.challenge || f.boxes
}

func resolveFeatures(cfg config.Config) features {
	var f features
	if cfg.Words.Enabled {
		if err := cfg.Words.Validate(); err != nil {
			slog.Error("word loop disabled", "error", err)
		} else {
			f.words = true
		}
	}
	if cfg.Bonus.Enabled {
		if err := cfg.Bonus.Validate(); err != nil {
			slog.Error("bonus loop disabled", "error", err)
		} else {
			f.bonus = true
		}
	}
	if cfg.Challenge.Enabled {
		// The solver is useless without a reachable recognition engine.
		if err := cfg.OCR.Validate(); err != nil {
			slog.Error("challenge solver disabled", "error", err)
		} else {
			f.challenge = true
		}
	}
	f.boxes = cfg.Boxes.Enabled
	return f
}

// pipeline is the wired loop set for one resolved target group. Fields
// stay nil when the corresponding feature is off or failed to arm.
type pipeline struct {
	queue     *pacing.Queue
	worker    *pacing.Worker
	producer  *words.Producer
	watcher   *words.Watcher
	bonusLive *bonus.Loop
	bonusPlan *bonus.Scheduler
	router    *router.Router
}

// buildPipeline constructs every armed loop against the resolved group.
// The router always exists: it drains the event channel even when both
// handlers are off, so the update pump never backs up.
func (a *Agent) buildPipeline(group transport.Group) *pipeline {
	p := &pipeline{}
	if a.feats.words {
		a.buildWordPath(p, group.ID)
	}
	if a.feats.bonus {
		a.buildBonusPath(p, group.ID)
	}

	var onChallenge, onBox router.Handler
	if a.feats.challenge {
		engine := ocr.NewPool(ocr.NewClient(ocr.Config{
			ProxyURL:       a.cfg.OCR.ProxyURL,
			APIKey:         a.cfg.OCR.APIKey,
			TimeoutSeconds: a.cfg.OCR.TimeoutSeconds,
		}), 0)
		onChallenge = challenge.New(a.client, engine).Handle
	}
	if a.feats.boxes {
		onBox = buttons.New(a.client).Handle
	}

	p.router = router.New(router.Config{
		ChatID:                group.ID,
		SenderFilter:          a.cfg.Telegram.SenderFilter,
		ChallengeWords:        a.cfg.Challenge.Keywords,
		BoxWords:              a.cfg.Boxes.Keywords,
		PhotoImpliesChallenge: a.cfg.Challenge.PhotoImpliesChallenge(),
	}, onChallenge, onBox)
	return p
}

func (a *Agent) buildWordPath(p *pipeline, chatID int64) {
	path := config.ExpandHome(a.cfg.Words.File)
	loaded, err := words.Load(path)
	if err != nil {
		slog.Error("word loop disabled", "file", path, "error", err)
		return
	}
	window, err := a.cfg.Words.Window()
	if err != nil {
		slog.Error("word loop disabled", "error", err)
		return
	}

	list := words.NewList(loaded)
	p.queue = pacing.NewQueue(a.cfg.Words.QueueCapacity)
	p.worker = pacing.NewWorker(pacing.WorkerConfig{
		ChatID:     chatID,
		Window:     window,
		AutoDelete: a.cfg.Words.AutoDelete,
		DeleteWait: a.cfg.Words.DeleteWaitDuration(),
	}, p.queue, a.client)
	p.producer = words.NewProducer(list, p.queue, window)

	watcher, err := words.NewWatcher(path, list)
	if err != nil {
		slog.Warn("wordlist hot reload unavailable", "file", path, "error", err)
	} else {
		p.watcher = watcher
	}

	slog.Info("word loop armed", "file", path, "words", list.Len())
}

func (a *Agent) buildBonusPath(p *pipeline, chatID int64) {
	window, err := a.cfg.Bonus.Window()
	if err != nil {
		slog.Error("bonus loop disabled", "error", err)
		return
	}
	if a.cfg.Bonus.Scheduled() {
		sched, err := bonus.NewScheduler(bonus.SchedulerConfig{
			ChatID:    chatID,
			Text:      a.cfg.Bonus.Text,
			Window:    window,
			Count:     a.cfg.Bonus.ScheduleCount,
			RearmCron: a.cfg.Bonus.RearmCron,
		}, a.client)
		if err != nil {
			slog.Error("bonus loop disabled", "error", err)
			return
		}
		p.bonusPlan = sched
		return
	}
	p.bonusLive = bonus.New(bonus.Config{
		ChatID: chatID,
		Text:   a.cfg.Bonus.Text,
		Window: window,
	}, a.client)
}
