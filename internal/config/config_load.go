package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/titanous/json5"
)

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Telegram: TelegramConfig{
			StatePath: "~/.grindbot/dialogs.db",
		},
		Words: WordsConfig{
			Enabled:       true,
			File:          "~/.grindbot/words.txt",
			Mode:          "fast",
			QueueCapacity: 256,
		},
		Bonus: BonusConfig{
			Enabled:       true,
			Text:          "bonus",
			ScheduleCount: 100,
		},
		Challenge: ChallengeConfig{
			Enabled:  true,
			Keywords: KeywordList{"چالش"},
		},
		Boxes: BoxConfig{
			Enabled:  true,
			Keywords: KeywordList{"جعبه"},
		},
		OCR: OCRConfig{
			TimeoutSeconds: 30,
		},
		Limits: LimitsConfig{
			CallsPerSecond: 1,
			Burst:          1,
		},
	}
}

// DefaultPath returns the standard config file location.
func DefaultPath() string {
	return ExpandHome("~/.grindbot/config.json")
}

// Load reads config from a JSON file, then overlays env vars. A missing
// file yields the defaults, still overlaid; parse errors are fatal since
// running with silently ignored settings is worse than not starting.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			cfg.applyEnvOverrides()
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := json5.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyEnvOverrides()
	return cfg, nil
}

// applyEnvOverrides overlays env vars onto the config.
// Env vars take precedence over file values.
func (c *Config) applyEnvOverrides() {
	envStr := func(key string, dst *string) {
		if v := os.Getenv(key); v != "" {
			*dst = v
		}
	}
	envBool := func(key string, dst *bool) {
		if v := os.Getenv(key); v != "" {
			*dst = v == "true" || v == "1"
		}
	}

	// Secrets live in env only.
	envStr("GRINDBOT_TELEGRAM_TOKEN", &c.Telegram.Token)
	envStr("GRINDBOT_OCR_API_KEY", &c.OCR.APIKey)

	envStr("GRINDBOT_TELEGRAM_PROXY", &c.Telegram.Proxy)
	envStr("GRINDBOT_TELEGRAM_TARGET", &c.Telegram.Target)
	envStr("GRINDBOT_TELEGRAM_INVITE_URL", &c.Telegram.InviteURL)
	envStr("GRINDBOT_SENDER_FILTER", &c.Telegram.SenderFilter)

	envStr("GRINDBOT_WORDS_FILE", &c.Words.File)
	envStr("GRINDBOT_WORDS_MODE", &c.Words.Mode)
	envBool("GRINDBOT_WORDS_ENABLED", &c.Words.Enabled)
	envBool("GRINDBOT_WORDS_AUTO_DELETE", &c.Words.AutoDelete)

	envStr("GRINDBOT_BONUS_TEXT", &c.Bonus.Text)
	envBool("GRINDBOT_BONUS_ENABLED", &c.Bonus.Enabled)

	envBool("GRINDBOT_CHALLENGE_ENABLED", &c.Challenge.Enabled)
	envBool("GRINDBOT_BOXES_ENABLED", &c.Boxes.Enabled)

	envStr("GRINDBOT_OCR_PROXY_URL", &c.OCR.ProxyURL)
	if v := os.Getenv("GRINDBOT_OCR_TIMEOUT_SECONDS"); v != "" {
		if sec, err := strconv.Atoi(v); err == nil && sec > 0 {
			c.OCR.TimeoutSeconds = sec
		}
	}

	// Telemetry
	envStr("GRINDBOT_TELEMETRY_ENDPOINT", &c.Telemetry.Endpoint)
	envStr("GRINDBOT_TELEMETRY_PROTOCOL", &c.Telemetry.Protocol)
	envStr("GRINDBOT_TELEMETRY_SERVICE_NAME", &c.Telemetry.ServiceName)
	envBool("GRINDBOT_TELEMETRY_ENABLED", &c.Telemetry.Enabled)
	envBool("GRINDBOT_TELEMETRY_INSECURE", &c.Telemetry.Insecure)
}

// Save writes the config to a JSON file.
func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// ExpandHome replaces leading ~ with the user home directory.
func ExpandHome(path string) string {
	if path == "" || path[0] != '~' {
		return path
	}
	home, _ := os.UserHomeDir()
	if len(path) > 1 && path[1] == '/' {
		return home + path[1:]
	}
	return home
}
