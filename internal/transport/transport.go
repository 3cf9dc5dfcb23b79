// Package transport defines the chat-platform boundary: the operations the
// agent needs from a platform client, the normalized message shape inbound
// events are reduced to, and the rate-limit signal every call may raise.
// Platform bindings live elsewhere; everything above this package is
// platform-neutral.
package transport

import (
	"context"
	"time"
)

// MessageRef identifies one sent or received message on the platform.
type MessageRef struct {
	ChatID    int64
	MessageID int
}

// Group describes one chat the account can see. Broadcast channels are
// read-only feeds and never a valid automation target.
type Group struct {
	ID        int64
	Title     string
	Broadcast bool
}

// Button is the normalized view of one inline keyboard button.
// Data carries the primary callback payload, NestedData an alternate
// payload some platforms attach under a secondary field. URL buttons
// cannot be activated headlessly.
type Button struct {
	Text       string
	URL        string
	Data       string
	NestedData string
}

// ButtonRef selects one button for activation, either by callback data or,
// when ByIndex is set, by its keyboard position.
type ButtonRef struct {
	Data    string
	Row     int
	Col     int
	ByIndex bool
}

// Message is the transport-neutral view of one inbound message event.
// Text holds the primary text, RawText the caption or alternate text field
// some platforms use for media posts. MediaID is the platform's opaque
// handle for the attached media, empty when the message carries none.
type Message struct {
	Ref      MessageRef
	ChatID   int64
	Sender   string
	Text     string
	RawText  string
	HasPhoto bool
	MediaID  string
	Buttons  [][]Button
}

// TextContent returns the message text, falling back to the raw field when
// the primary one is empty.
func (m Message) TextContent() string {
	if m.Text != "" {
		return m.Text
	}
	return m.RawText
}

// Transport is the platform client surface the agent runs against.
// Inbound events are not part of this interface: bindings deliver them into
// the channel handed over at construction, mirroring how the rest of the
// codebase wires channels to consumers.
//
// Every method may return *RateLimitedError; callers that want the
// mandated-wait-then-single-retry behavior wrap the call in
// WithFloodControl. Operations a given platform account cannot perform
// return ErrUnsupported.
type Transport interface {
	// Connect establishes the platform session and starts event delivery.
	Connect(ctx context.Context) error
	// Close tears the session down. Safe to call once after Connect.
	Close(ctx context.Context) error

	// LocateGroup resolves the configured target group: exact
	// case-insensitive title match first, invite redemption second, the
	// first non-broadcast group the account belongs to as the fallback.
	LocateGroup(ctx context.Context) (Group, error)

	// Dialogs lists the chats the account currently sees.
	Dialogs(ctx context.Context) ([]Group, error)

	SendText(ctx context.Context, chatID int64, text string) (MessageRef, error)
	ReplyText(ctx context.Context, to MessageRef, text string) (MessageRef, error)
	Delete(ctx context.Context, ref MessageRef) error

	// ScheduleText asks the platform to deliver text at a future time.
	ScheduleText(ctx context.Context, chatID int64, text string, at time.Time) error

	// DownloadMedia fetches the attached media of msg into a temporary
	// file and returns its path. The caller owns the file.
	DownloadMedia(ctx context.Context, msg Message) (string, error)

	// ClickButton activates one inline button of msg.
	ClickButton(ctx context.Context, msg Message, ref ButtonRef) error
}
