// Package router watches the inbound event stream and decides which
// messages deserve a handler. It filters events down to the target group
// and optional sender, scans for the trigger keywords, and spawns handlers
// as detached tasks so a slow recognition never stalls event delivery.
package router

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/nextlevelbuilder/grindbot/internal/transport"
)

// Default trigger keywords. The groups this automation grew up in announce
// rounds in Persian, so the stock keywords are Persian too.
var (
	DefaultChallengeWords = []string{"چالش"}
	DefaultBoxWords       = []string{"جعبه"}
)

// Handler consumes one routed message. Handlers run on their own
// goroutines and must tolerate the context ending at any point.
type Handler func(ctx context.Context, msg transport.Message)

// Config selects which messages the router acts on.
type Config struct {
	// ChatID is the resolved target group. Events from every other chat
	// are dropped.
	ChatID int64

	// SenderFilter, when set, restricts handling to messages from one
	// sender. Compared case-insensitively with any leading @ stripped.
	SenderFilter string

	// ChallengeWords and BoxWords trigger the respective handlers when
	// one of them occurs in the message text.
	ChallengeWords []string
	BoxWords       []string

	// PhotoImpliesChallenge treats any photo from the target group as a
	// challenge even without a keyword. Challenge rounds are posted as
	// images and the caption wording drifts, so this stays on by default.
	PhotoImpliesChallenge bool
}

// Router fans matching messages out to the challenge and box handlers.
type Router struct {
	cfg         Config
	onChallenge Handler
	onBox       Handler

	tasks sync.WaitGroup
}

// New builds a router. Nil handlers disable the matching branch.
func New(cfg Config, onChallenge, onBox Handler) *Router {
	if len(cfg.ChallengeWords) == 0 {
		cfg.ChallengeWords = DefaultChallengeWords
	}
	if len(cfg.BoxWords) == 0 {
		cfg.BoxWords = DefaultBoxWords
	}
	return &Router{cfg: cfg, onChallenge: onChallenge, onBox: onBox}
}

// Run consumes events until the context ends or the channel closes.
// Handler goroutines spawned along the way are not joined here; call Wait
// when handler completion matters.
func (r *Router) Run(ctx context.Context, events <-chan transport.Message) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-events:
			if !ok {
				return nil
			}
			r.dispatch(ctx, msg)
		}
	}
}

// Wait blocks until every spawned handler has returned.
func (r *Router) Wait() {
	r.tasks.Wait()
}

func (r *Router) dispatch(ctx context.Context, msg transport.Message) {
	if transport.NormalizeChatID(msg.ChatID) != transport.NormalizeChatID(r.cfg.ChatID) {
		return
	}
	if !r.senderAllowed(msg.Sender) {
		slog.Debug("ignoring message from filtered sender", "sender", msg.Sender)
		return
	}

	text := msg.TextContent()
	challenge := containsAny(text, r.cfg.ChallengeWords)
	if !challenge && r.cfg.PhotoImpliesChallenge && msg.HasPhoto {
		slog.Debug("photo without keyword treated as challenge",
			"message_id", msg.Ref.MessageID)
		challenge = true
	}
	box := containsAny(text, r.cfg.BoxWords)

	if challenge {
		r.spawn(ctx, "challenge", r.onChallenge, msg)
	}
	if box {
		r.spawn(ctx, "box", r.onBox, msg)
	}
}

// spawn runs the handler on its own goroutine. A panicking handler is
// contained and logged; one bad message must not take the router down.
func (r *Router) spawn(ctx context.Context, kind string, h Handler, msg transport.Message) {
	if h == nil {
		return
	}
	slog.Debug("dispatching handler", "kind", kind, "message_id", msg.Ref.MessageID)
	r.tasks.Add(1)
	go func() {
		defer r.tasks.Done()
		defer func() {
			if rec := recover(); rec != nil {
				slog.Error("message handler panicked", "kind", kind, "panic", rec)
			}
		}()
		h(ctx, msg)
	}()
}

func (r *Router) senderAllowed(sender string) bool {
	if r.cfg.SenderFilter == "" {
		return true
	}
	return normalizeSender(sender) == normalizeSender(r.cfg.SenderFilter)
}

func normalizeSender(s string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "@"))
}

func containsAny(text string, words []string) bool {
	if text == "" {
		return false
	}
	lower := strings.ToLower(text)
	for _, w := range words {
		if w == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(w)) {
			return true
		}
	}
	return false
}
