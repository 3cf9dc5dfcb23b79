// Package challenge turns a challenge photo into a posted answer. Each
// routed message runs through download, preprocessing, recognition, and
// solving, and ends with the answer sent as a reply to the challenge post.
// Every stage failure is terminal for that message and logged; the next
// challenge starts clean.
package challenge

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/nextlevelbuilder/grindbot/internal/ocr"
	"github.com/nextlevelbuilder/grindbot/internal/solver"
	"github.com/nextlevelbuilder/grindbot/internal/textutil"
	"github.com/nextlevelbuilder/grindbot/internal/transport"
)

// sendTimeout bounds the answer reply, mandated rate-limit wait included.
const sendTimeout = 10 * time.Second

// Platform is the slice of the transport the handler needs.
type Platform interface {
	DownloadMedia(ctx context.Context, msg transport.Message) (string, error)
	ReplyText(ctx context.Context, to transport.MessageRef, text string) (transport.MessageRef, error)
}

// Handler solves challenge photos end to end.
type Handler struct {
	platform Platform
	engine   ocr.Engine
	tracer   trace.Tracer
}

// New builds a handler recognizing through engine, usually an ocr.Pool.
func New(platform Platform, engine ocr.Engine) *Handler {
	return &Handler{
		platform: platform,
		engine:   engine,
		tracer:   otel.Tracer("grindbot/challenge"),
	}
}

// Handle processes one challenge message. It never returns an error: a
// challenge that cannot be answered is logged and dropped, since the next
// round replaces it within minutes anyway.
func (h *Handler) Handle(ctx context.Context, msg transport.Message) {
	task := uuid.NewString()
	log := slog.With("task", task, "message_id", msg.Ref.MessageID)

	ctx, span := h.tracer.Start(ctx, "challenge.handle", trace.WithAttributes(
		attribute.String("task.id", task),
		attribute.Int("message.id", msg.Ref.MessageID),
	))
	defer span.End()

	imagePath, err := h.download(ctx, msg)
	if err != nil {
		log.Warn("challenge image download failed", "error", err)
		markFailed(span, err)
		return
	}
	defer os.Remove(imagePath)

	recognizePath := imagePath
	if prepped, err := h.preprocess(ctx, imagePath); err != nil {
		log.Warn("image preprocessing failed, recognizing original", "error", err)
	} else {
		recognizePath = prepped
		defer os.Remove(prepped)
	}

	text, err := h.recognize(ctx, recognizePath)
	if err != nil {
		log.Warn("challenge recognition failed", "error", err)
		markFailed(span, err)
		return
	}
	log.Debug("challenge text recognized", "text", textutil.Preview(text, 48))

	value, err := h.solve(ctx, text)
	if err != nil {
		log.Info("challenge text not solvable", "text", textutil.Preview(text, 48))
		markFailed(span, err)
		return
	}
	answer := solver.Render(value)
	span.SetAttributes(attribute.String("challenge.answer", answer))

	if err := h.reply(ctx, msg.Ref, answer); err != nil {
		log.Warn("challenge answer send failed", "answer", answer, "error", err)
		markFailed(span, err)
		return
	}
	log.Info("challenge answered", "answer", answer)
}

func (h *Handler) download(ctx context.Context, msg transport.Message) (string, error) {
	ctx, span := h.tracer.Start(ctx, "challenge.download")
	defer span.End()
	path, err := h.platform.DownloadMedia(ctx, msg)
	if err != nil {
		markFailed(span, err)
	}
	return path, err
}

func (h *Handler) preprocess(ctx context.Context, imagePath string) (string, error) {
	_, span := h.tracer.Start(ctx, "challenge.preprocess")
	defer span.End()
	path, err := ocr.Preprocess(imagePath)
	if err != nil {
		markFailed(span, err)
	}
	return path, err
}

func (h *Handler) recognize(ctx context.Context, imagePath string) (string, error) {
	ctx, span := h.tracer.Start(ctx, "challenge.recognize")
	defer span.End()
	text, err := h.engine.Recognize(ctx, imagePath)
	if err != nil {
		markFailed(span, err)
	}
	return text, err
}

func (h *Handler) solve(ctx context.Context, text string) (float64, error) {
	_, span := h.tracer.Start(ctx, "challenge.solve")
	defer span.End()
	value, err := solver.Solve(text)
	if err != nil {
		markFailed(span, err)
	}
	return value, err
}

func (h *Handler) reply(ctx context.Context, to transport.MessageRef, text string) error {
	ctx, span := h.tracer.Start(ctx, "challenge.reply")
	defer span.End()

	sctx, cancel := context.WithTimeout(ctx, sendTimeout)
	defer cancel()
	err := transport.WithFloodControl(sctx, "challenge answer", func(c context.Context) error {
		_, sendErr := h.platform.ReplyText(c, to, text)
		return sendErr
	})
	if err != nil {
		markFailed(span, err)
	}
	return err
}

func markFailed(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
