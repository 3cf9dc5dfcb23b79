// Package config holds the file schema, defaults, environment overrides,
// and per-feature validation. A bad value never kills the process; it
// disables the one feature it belongs to.
package config

import (
	"encoding/json"
	"fmt"
	"time"

	"golang.org/x/time/rate"

	"github.com/nextlevelbuilder/grindbot/internal/pacing"
	"github.com/nextlevelbuilder/grindbot/internal/telemetry"
)

// KeywordList accepts both "word" and ["word", "another"] in JSON, since
// single-keyword setups are the common case.
type KeywordList []string

func (k *KeywordList) UnmarshalJSON(data []byte) error {
	var one string
	if err := json.Unmarshal(data, &one); err == nil {
		*k = []string{one}
		return nil
	}
	var many []string
	if err := json.Unmarshal(data, &many); err != nil {
		return err
	}
	*k = many
	return nil
}

// Config is the root configuration.
type Config struct {
	Telegram  TelegramConfig   `json:"telegram"`
	Words     WordsConfig      `json:"words,omitempty"`
	Bonus     BonusConfig      `json:"bonus,omitempty"`
	Challenge ChallengeConfig  `json:"challenge,omitempty"`
	Boxes     BoxConfig        `json:"boxes,omitempty"`
	OCR       OCRConfig        `json:"ocr,omitempty"`
	Limits    LimitsConfig     `json:"limits,omitempty"`
	Telemetry telemetry.Config `json:"telemetry,omitempty"`
}

// TelegramConfig locates the bot account and the target group.
// Token is NEVER read from the file, only from env GRINDBOT_TELEGRAM_TOKEN.
type TelegramConfig struct {
	Token        string `json:"-"`
	Proxy        string `json:"proxy,omitempty"`
	Target       string `json:"target,omitempty"`        // group title or numeric chat ID
	InviteURL    string `json:"invite_url,omitempty"`    // best effort, bot accounts cannot redeem
	StatePath    string `json:"state_path,omitempty"`    // dialog registry location
	SenderFilter string `json:"sender_filter,omitempty"` // react only to this sender
}

func (tc TelegramConfig) Validate() error {
	if tc.Token == "" {
		return fmt.Errorf("telegram token not set (GRINDBOT_TELEGRAM_TOKEN)")
	}
	return nil
}

// WordsConfig drives the paced word stream.
type WordsConfig struct {
	Enabled       bool   `json:"enabled,omitempty"`
	File          string `json:"file,omitempty"`           // newline-delimited wordlist
	Mode          string `json:"mode,omitempty"`           // "fast" or "slow"
	AutoDelete    bool   `json:"auto_delete,omitempty"`    // delete each word after a wait
	DeleteWait    string `json:"delete_wait,omitempty"`    // Go duration (default "2s")
	QueueCapacity int    `json:"queue_capacity,omitempty"` // dispatch queue bound
}

const defaultDeleteWait = 2 * time.Second

// DeleteWaitDuration parses the delete wait with its default applied.
func (wc WordsConfig) DeleteWaitDuration() time.Duration {
	if wc.DeleteWait == "" {
		return defaultDeleteWait
	}
	d, err := time.ParseDuration(wc.DeleteWait)
	if err != nil || d <= 0 {
		return defaultDeleteWait
	}
	return d
}

// Window derives the pacing window from mode and auto-delete settings.
func (wc WordsConfig) Window() (pacing.Window, error) {
	mode, err := pacing.ParseMode(wc.Mode)
	if err != nil {
		return pacing.Window{}, err
	}
	return pacing.DeriveWindow(mode, wc.AutoDelete, wc.DeleteWaitDuration())
}

func (wc WordsConfig) Validate() error {
	if wc.File == "" {
		return fmt.Errorf("words.file not set")
	}
	if _, err := wc.Window(); err != nil {
		return err
	}
	return nil
}

// BonusConfig drives the independent bonus stream.
type BonusConfig struct {
	Enabled     bool   `json:"enabled,omitempty"`
	Text        string `json:"text,omitempty"`
	MinInterval string `json:"min_interval,omitempty"` // Go duration (default "181s")
	MaxInterval string `json:"max_interval,omitempty"` // Go duration (default "300s")

	// Mode "live" sends directly on the randomized interval; "scheduled"
	// plans platform-side sends in batches instead.
	Mode          string `json:"mode,omitempty"`
	ScheduleCount int    `json:"schedule_count,omitempty"` // batch size in scheduled mode
	RearmCron     string `json:"rearm_cron,omitempty"`     // when to plan the next batch
}

const (
	defaultBonusMin = 181 * time.Second
	defaultBonusMax = 300 * time.Second
)

// Window returns the bonus interval bounds with defaults applied.
func (bc BonusConfig) Window() (pacing.Window, error) {
	min, max := defaultBonusMin, defaultBonusMax
	if bc.MinInterval != "" {
		d, err := time.ParseDuration(bc.MinInterval)
		if err != nil {
			return pacing.Window{}, fmt.Errorf("bonus.min_interval: %w", err)
		}
		min = d
	}
	if bc.MaxInterval != "" {
		d, err := time.ParseDuration(bc.MaxInterval)
		if err != nil {
			return pacing.Window{}, fmt.Errorf("bonus.max_interval: %w", err)
		}
		max = d
	}
	if min <= 0 || max < min {
		return pacing.Window{}, fmt.Errorf("bonus interval bounds invalid: min %s, max %s", min, max)
	}
	return pacing.Window{Min: min, Max: max}, nil
}

func (bc BonusConfig) Validate() error {
	if bc.Text == "" {
		return fmt.Errorf("bonus.text not set")
	}
	if _, err := bc.Window(); err != nil {
		return err
	}
	switch bc.Mode {
	case "", "live":
	case "scheduled":
		if bc.RearmCron == "" {
			return fmt.Errorf("bonus.rearm_cron required in scheduled mode")
		}
	default:
		return fmt.Errorf("unknown bonus.mode %q (want live or scheduled)", bc.Mode)
	}
	return nil
}

// Scheduled reports whether the pre-planning mode is selected.
func (bc BonusConfig) Scheduled() bool {
	return bc.Mode == "scheduled"
}

// ChallengeConfig drives arithmetic challenge solving.
type ChallengeConfig struct {
	Enabled  bool        `json:"enabled,omitempty"`
	Keywords KeywordList `json:"keywords,omitempty"` // default ["چالش"]

	// PhotoHeuristic treats any photo from the target group as a probable
	// challenge even without a keyword. On by default; every stray photo
	// then costs one OCR round trip.
	PhotoHeuristic *bool `json:"photo_heuristic,omitempty"`
}

// PhotoImpliesChallenge resolves the heuristic toggle with its default.
func (cc ChallengeConfig) PhotoImpliesChallenge() bool {
	if cc.PhotoHeuristic == nil {
		return true
	}
	return *cc.PhotoHeuristic
}

// BoxConfig drives box-message button clicking.
type BoxConfig struct {
	Enabled  bool        `json:"enabled,omitempty"`
	Keywords KeywordList `json:"keywords,omitempty"` // default ["جعبه"]
}

// OCRConfig locates the recognition sidecar.
// APIKey is NEVER read from the file, only from env GRINDBOT_OCR_API_KEY.
type OCRConfig struct {
	ProxyURL       string `json:"proxy_url,omitempty"`
	APIKey         string `json:"-"`
	TimeoutSeconds int    `json:"timeout_seconds,omitempty"`
}

func (oc OCRConfig) Validate() error {
	if oc.ProxyURL == "" {
		return fmt.Errorf("ocr.proxy_url not set")
	}
	return nil
}

// LimitsConfig is the hard platform ceiling enforced by the call broker,
// independent of the pacing windows.
type LimitsConfig struct {
	CallsPerSecond float64 `json:"calls_per_second,omitempty"`
	Burst          int     `json:"burst,omitempty"`
}

// ToLimiter builds the ceiling limiter with defaults applied.
func (lc LimitsConfig) ToLimiter() *rate.Limiter {
	cps := lc.CallsPerSecond
	if cps <= 0 {
		cps = 1
	}
	burst := lc.Burst
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(cps), burst)
}
