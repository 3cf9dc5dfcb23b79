// Package telegram binds the transport interface to the Telegram Bot API
// via telego long polling. Inbound updates are normalized and fed to the
// events channel and the dialog registry; outbound calls run through the
// shared call broker. Operations a bot account cannot perform, like
// redeeming invite links or pressing another bot's buttons, surface
// transport.ErrUnsupported instead of pretending.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"

	"github.com/nextlevelbuilder/grindbot/internal/transport"
)

const (
	// pollTimeoutSeconds is the long-polling hold passed to the platform.
	pollTimeoutSeconds = 30

	// downloadMaxBytes caps media downloads (20MB, the Bot API limit).
	downloadMaxBytes int64 = 20 * 1024 * 1024

	// downloadMaxRetries is the number of file-info attempts.
	downloadMaxRetries = 3

	// defaultStopWait bounds Close when the caller's context carries no
	// deadline of its own.
	defaultStopWait = 10 * time.Second
)

// Config locates the bot account and the automation target. Token comes
// from the environment only.
type Config struct {
	Token     string
	Proxy     string
	Target    string // group title or numeric chat ID
	InviteURL string
	StatePath string // dialog registry location, empty = in-memory
}

// Client implements transport.Transport against the Bot API.
type Client struct {
	bot      *telego.Bot
	cfg      Config
	events   chan<- transport.Message
	broker   *transport.Broker
	registry *Registry
	http     *http.Client

	pollCancel context.CancelFunc
	pollDone   chan struct{}
}

var _ transport.Transport = (*Client)(nil)

// New builds the binding. Events flow into the given channel from Connect
// until Close; outbound calls are serialized through broker.
func New(cfg Config, events chan<- transport.Message, broker *transport.Broker) (*Client, error) {
	if cfg.Token == "" {
		return nil, errors.New("telegram: bot token not configured")
	}

	httpClient := &http.Client{}
	var opts []telego.BotOption
	if cfg.Proxy != "" {
		proxyURL, parseErr := url.Parse(cfg.Proxy)
		if parseErr != nil {
			return nil, fmt.Errorf("invalid proxy URL %q: %w", cfg.Proxy, parseErr)
		}
		httpClient = &http.Client{
			Transport: &http.Transport{
				Proxy: http.ProxyURL(proxyURL),
			},
		}
		opts = append(opts, telego.WithHTTPClient(httpClient))
	}

	bot, err := telego.NewBot(cfg.Token, opts...)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}

	registry, err := OpenRegistry(cfg.StatePath)
	if err != nil {
		return nil, err
	}

	return &Client{
		bot:      bot,
		cfg:      cfg,
		events:   events,
		broker:   broker,
		registry: registry,
		http:     httpClient,
	}, nil
}

// Connect starts long polling and the update pump.
func (c *Client) Connect(ctx context.Context) error {
	slog.Info("connecting to telegram (polling mode)")

	pollCtx, cancel := context.WithCancel(ctx)
	c.pollCancel = cancel
	c.pollDone = make(chan struct{})

	updates, err := c.bot.UpdatesViaLongPolling(pollCtx, &telego.GetUpdatesParams{
		Timeout: pollTimeoutSeconds,
		AllowedUpdates: []string{
			"message",
			"channel_post",
		},
	})
	if err != nil {
		cancel()
		return fmt.Errorf("start long polling: %w", err)
	}

	slog.Info("telegram connected", "username", c.bot.Username())

	go func() {
		defer close(c.pollDone)
		for {
			select {
			case <-pollCtx.Done():
				return
			case update, ok := <-updates:
				if !ok {
					slog.Info("telegram updates channel closed")
					return
				}
				c.handleUpdate(update)
			}
		}
	}()

	return nil
}

func (c *Client) handleUpdate(update telego.Update) {
	msg := update.Message
	if msg == nil {
		msg = update.ChannelPost
	}
	if msg == nil {
		slog.Debug("telegram update skipped (no message)", "update_id", update.UpdateID)
		return
	}

	if g, ok := chatGroup(msg.Chat); ok {
		c.registry.Upsert(g)
	}

	event := toMessage(msg)
	select {
	case c.events <- event:
	default:
		// The router fell behind; dropping is safer than stalling the
		// update pump, and the group reposts triggers constantly.
		slog.Warn("event channel full, dropping message",
			"chat_id", event.ChatID, "message_id", event.Ref.MessageID)
	}
}

// Close stops the update pump and releases the registry. The wait for the
// polling goroutine honors the caller's deadline so Telegram releases the
// getUpdates lock before a new instance starts.
func (c *Client) Close(ctx context.Context) error {
	slog.Info("closing telegram transport")

	if c.pollCancel != nil {
		c.pollCancel()
	}
	if c.pollDone != nil {
		wait := ctx
		if _, ok := ctx.Deadline(); !ok {
			bounded, cancel := context.WithTimeout(ctx, defaultStopWait)
			defer cancel()
			wait = bounded
		}
		select {
		case <-c.pollDone:
			slog.Info("telegram transport stopped")
		case <-wait.Done():
			slog.Warn("telegram polling goroutine did not exit within timeout")
		}
	}

	return c.registry.Close()
}

// LocateGroup resolves the automation target: configured ID or title
// first, then the most recently seen group as a last resort. Invite links
// cannot be redeemed by bot accounts and only produce a warning.
func (c *Client) LocateGroup(ctx context.Context) (transport.Group, error) {
	groups := c.registry.All()

	if g, how, ok := matchTarget(groups, c.cfg.Target); ok {
		slog.Info("target group resolved", "chat_id", g.ID, "title", g.Title, "via", how)
		return g, nil
	}
	if c.cfg.InviteURL != "" {
		slog.Warn("bot accounts cannot redeem invite links, add the bot to the group manually",
			"invite", c.cfg.InviteURL, "error", transport.ErrUnsupported)
	}
	if g, ok := firstUsable(groups); ok {
		slog.Warn("target group not found, falling back to most recently seen group",
			"chat_id", g.ID, "title", g.Title)
		return g, nil
	}
	return transport.Group{}, fmt.Errorf("telegram: no usable group known (target %q)", c.cfg.Target)
}

// Dialogs lists the chats observed so far, most recent first.
func (c *Client) Dialogs(ctx context.Context) ([]transport.Group, error) {
	return c.registry.All(), nil
}

func (c *Client) SendText(ctx context.Context, chatID int64, text string) (transport.MessageRef, error) {
	var ref transport.MessageRef
	err := c.broker.Do(ctx, "send message", func(cctx context.Context) error {
		msg, sendErr := c.bot.SendMessage(cctx, tu.Message(tu.ID(chatID), text))
		if sendErr != nil {
			return classifyErr(sendErr)
		}
		ref = transport.MessageRef{ChatID: chatID, MessageID: msg.MessageID}
		return nil
	})
	return ref, err
}

func (c *Client) ReplyText(ctx context.Context, to transport.MessageRef, text string) (transport.MessageRef, error) {
	var ref transport.MessageRef
	err := c.broker.Do(ctx, "send reply", func(cctx context.Context) error {
		params := tu.Message(tu.ID(to.ChatID), text)
		params.ReplyParameters = &telego.ReplyParameters{MessageID: to.MessageID}
		msg, sendErr := c.bot.SendMessage(cctx, params)
		if sendErr != nil {
			return classifyErr(sendErr)
		}
		ref = transport.MessageRef{ChatID: to.ChatID, MessageID: msg.MessageID}
		return nil
	})
	return ref, err
}

func (c *Client) Delete(ctx context.Context, ref transport.MessageRef) error {
	return c.broker.Do(ctx, "delete message", func(cctx context.Context) error {
		err := c.bot.DeleteMessage(cctx, &telego.DeleteMessageParams{
			ChatID:    tu.ID(ref.ChatID),
			MessageID: ref.MessageID,
		})
		return classifyErr(err)
	})
}

// ScheduleText is not available to bot accounts; scheduled sends are a
// user-session feature on this platform.
func (c *Client) ScheduleText(ctx context.Context, chatID int64, text string, at time.Time) error {
	return fmt.Errorf("telegram: server-side scheduled sends: %w", transport.ErrUnsupported)
}

// ClickButton is not available to bot accounts: callbacks on another bot's
// keyboard can only be answered by that bot.
func (c *Client) ClickButton(ctx context.Context, msg transport.Message, ref transport.ButtonRef) error {
	return fmt.Errorf("telegram: activating another bot's buttons: %w", transport.ErrUnsupported)
}

// DownloadMedia fetches the message's media into a temp file, retrying the
// file-info call a few times before giving up. The caller owns the file.
func (c *Client) DownloadMedia(ctx context.Context, msg transport.Message) (string, error) {
	if msg.MediaID == "" {
		return "", fmt.Errorf("telegram: message %d carries no downloadable media", msg.Ref.MessageID)
	}

	var file *telego.File
	var err error
	for attempt := 1; attempt <= downloadMaxRetries; attempt++ {
		err = c.broker.Do(ctx, "get file info", func(cctx context.Context) error {
			f, apiErr := c.bot.GetFile(cctx, &telego.GetFileParams{FileID: msg.MediaID})
			if apiErr != nil {
				return classifyErr(apiErr)
			}
			file = f
			return nil
		})
		if err == nil {
			break
		}
		if attempt < downloadMaxRetries {
			slog.Debug("retrying file info", "file_id", msg.MediaID, "attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(time.Duration(attempt) * time.Second):
			}
		}
	}
	if err != nil {
		return "", fmt.Errorf("get file info after %d attempts: %w", downloadMaxRetries, err)
	}

	if file.FilePath == "" {
		return "", fmt.Errorf("empty file path for media %s", msg.MediaID)
	}
	if int64(file.FileSize) > downloadMaxBytes {
		return "", fmt.Errorf("file too large: %d bytes (max %d)", file.FileSize, downloadMaxBytes)
	}

	downloadURL := fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", c.cfg.Token, file.FilePath)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, downloadURL, nil)
	if err != nil {
		return "", fmt.Errorf("build download request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download file: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download failed with status %d", resp.StatusCode)
	}

	ext := filepath.Ext(file.FilePath)
	if ext == "" {
		ext = ".bin"
	}
	tmpFile, err := os.CreateTemp("", "grindbot_media_*"+ext)
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	defer tmpFile.Close()

	written, err := io.Copy(tmpFile, io.LimitReader(resp.Body, downloadMaxBytes+1))
	if err != nil {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("save file: %w", err)
	}
	if written > downloadMaxBytes {
		os.Remove(tmpFile.Name())
		return "", fmt.Errorf("file exceeds max size during download: %d bytes", written)
	}

	return tmpFile.Name(), nil
}
