// Package buttons presses every inline button on a box message. Platforms
// are inconsistent about how a button wants to be activated, so each one is
// tried through a short chain of strategies, and the handler only reports a
// tally; a box that will not open is never worth crashing over.
package buttons

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nextlevelbuilder/grindbot/internal/transport"
)

// clickTimeout bounds one activation attempt, mandated rate-limit wait
// included.
const clickTimeout = 10 * time.Second

// Clicker is the slice of the transport the handler needs.
type Clicker interface {
	ClickButton(ctx context.Context, msg transport.Message, ref transport.ButtonRef) error
}

// Tally sums up one pass over a message's keyboard.
type Tally struct {
	Clicked int
	Failed  int
	Skipped int
}

// Handler opens box messages by pressing their inline buttons.
type Handler struct {
	clicker Clicker
}

func New(clicker Clicker) *Handler {
	return &Handler{clicker: clicker}
}

// Handle processes one box message and logs the outcome.
func (h *Handler) Handle(ctx context.Context, msg transport.Message) {
	if len(msg.Buttons) == 0 {
		slog.Debug("box message carries no buttons", "message_id", msg.Ref.MessageID)
		return
	}
	tally := h.ClickAll(ctx, msg)
	slog.Info("box buttons processed",
		"message_id", msg.Ref.MessageID,
		"clicked", tally.Clicked,
		"failed", tally.Failed,
		"skipped", tally.Skipped)
}

// ClickAll walks the keyboard in reading order and tries to activate every
// button. URL buttons cannot be pressed headlessly and count as skipped.
func (h *Handler) ClickAll(ctx context.Context, msg transport.Message) Tally {
	var tally Tally
	for row, line := range msg.Buttons {
		for col, b := range line {
			if b.URL != "" {
				slog.Debug("skipping url button", "row", row, "col", col, "text", b.Text)
				tally.Skipped++
				continue
			}
			if h.clickOne(ctx, msg, b, row, col) {
				tally.Clicked++
			} else {
				tally.Failed++
			}
		}
	}
	return tally
}

// clickOne runs the strategy chain for a single button: its callback data
// first, its keyboard position second, the nested payload last. The first
// strategy that lands wins.
func (h *Handler) clickOne(ctx context.Context, msg transport.Message, b transport.Button, row, col int) bool {
	type strategy struct {
		name string
		ref  transport.ButtonRef
	}
	var strategies []strategy
	if b.Data != "" {
		strategies = append(strategies, strategy{"callback data", transport.ButtonRef{Data: b.Data}})
	}
	strategies = append(strategies, strategy{"position", transport.ButtonRef{Row: row, Col: col, ByIndex: true}})
	if b.NestedData != "" {
		strategies = append(strategies, strategy{"nested data", transport.ButtonRef{Data: b.NestedData}})
	}

	for _, s := range strategies {
		err := h.click(ctx, msg, s.ref)
		if err == nil {
			slog.Debug("button clicked", "row", row, "col", col, "strategy", s.name)
			return true
		}
		slog.Debug("click attempt failed", "row", row, "col", col, "strategy", s.name, "error", err)
		if errors.Is(err, transport.ErrUnsupported) || ctx.Err() != nil {
			// Every strategy goes through the same operation; once the
			// platform says it cannot click at all, the rest would only
			// repeat the answer.
			break
		}
	}
	return false
}

func (h *Handler) click(ctx context.Context, msg transport.Message, ref transport.ButtonRef) error {
	cctx, cancel := context.WithTimeout(ctx, clickTimeout)
	defer cancel()
	return transport.WithFloodControl(cctx, "button click", func(c context.Context) error {
		return h.clicker.ClickButton(c, msg, ref)
	})
}
