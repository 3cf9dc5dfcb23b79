package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadMissingFileYieldsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load returned %v", err)
	}
	if cfg.Words.Mode != "fast" {
		t.Errorf("default words.mode = %q, want %q", cfg.Words.Mode, "fast")
	}
	if len(cfg.Challenge.Keywords) != 1 || cfg.Challenge.Keywords[0] != "چالش" {
		t.Errorf("default challenge keywords = %v", cfg.Challenge.Keywords)
	}
	if !cfg.Challenge.PhotoImpliesChallenge() {
		t.Error("photo heuristic default = false, want true")
	}
	if cfg.Limits.ToLimiter() == nil {
		t.Error("default limiter is nil")
	}
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	body := `{
		// json5: comments and trailing commas allowed
		telegram: {
			target: "Word Grinders",
			sender_filter: "@gamebot",
		},
		words: { enabled: true, file: "/tmp/words.txt", mode: "slow" },
		bonus: { min_interval: "200s", max_interval: "250s" },
		challenge: { keywords: "challenge", photo_heuristic: false },
	}`
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned %v", err)
	}
	if cfg.Telegram.Target != "Word Grinders" {
		t.Errorf("target = %q", cfg.Telegram.Target)
	}
	if cfg.Words.Mode != "slow" {
		t.Errorf("words.mode = %q, want slow", cfg.Words.Mode)
	}
	if len(cfg.Challenge.Keywords) != 1 || cfg.Challenge.Keywords[0] != "challenge" {
		t.Errorf("keywords = %v, want the single-string form accepted", cfg.Challenge.Keywords)
	}
	if cfg.Challenge.PhotoImpliesChallenge() {
		t.Error("photo heuristic = true, want the explicit false honored")
	}
	w, err := cfg.Bonus.Window()
	if err != nil {
		t.Fatalf("bonus window: %v", err)
	}
	if w.Min != 200*time.Second || w.Max != 250*time.Second {
		t.Errorf("bonus window = %+v", w)
	}
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("GRINDBOT_TELEGRAM_TOKEN", "123:abc")
	t.Setenv("GRINDBOT_WORDS_MODE", "slow")
	t.Setenv("GRINDBOT_TELEMETRY_ENABLED", "1")

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.json"))
	if err != nil {
		t.Fatalf("Load returned %v", err)
	}
	if cfg.Telegram.Token != "123:abc" {
		t.Errorf("token = %q, want the env value", cfg.Telegram.Token)
	}
	if cfg.Words.Mode != "slow" {
		t.Errorf("words.mode = %q, want the env value", cfg.Words.Mode)
	}
	if !cfg.Telemetry.Enabled {
		t.Error("telemetry.enabled = false, want the env value")
	}
}

func TestSaveKeepsSecretsOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	cfg := Default()
	cfg.Telegram.Token = "123:s3cret"
	cfg.OCR.APIKey = "k3y"

	if err := Save(path, cfg); err != nil {
		t.Fatalf("Save returned %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read saved config: %v", err)
	}
	if strings.Contains(string(data), "s3cret") || strings.Contains(string(data), "k3y") {
		t.Error("secrets leaked into the saved config file")
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("stat saved config: %v", err)
	}
	if perm := info.Mode().Perm(); perm != 0o600 {
		t.Errorf("config file mode = %o, want 600", perm)
	}
}

func TestWordsWindowSubtractsDeleteWait(t *testing.T) {
	wc := WordsConfig{Mode: "fast", AutoDelete: true, DeleteWait: "2s"}
	w, err := wc.Window()
	if err != nil {
		t.Fatalf("Window returned %v", err)
	}
	if w.Min != 1270*time.Millisecond || w.Max != 2*time.Second {
		t.Errorf("window = %+v, want 1.27s to 2s", w)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		wantErr bool
	}{
		{"telegram without token", TelegramConfig{}.Validate(), true},
		{"telegram with token", TelegramConfig{Token: "123:abc"}.Validate(), false},
		{"words without file", WordsConfig{Mode: "fast"}.Validate(), true},
		{"words bad mode", WordsConfig{File: "w.txt", Mode: "turbo"}.Validate(), true},
		{"words ok", WordsConfig{File: "w.txt", Mode: "slow"}.Validate(), false},
		{"bonus without text", BonusConfig{}.Validate(), true},
		{"bonus inverted bounds", BonusConfig{Text: "b", MinInterval: "5m", MaxInterval: "1m"}.Validate(), true},
		{"bonus scheduled without cron", BonusConfig{Text: "b", Mode: "scheduled"}.Validate(), true},
		{"bonus scheduled ok", BonusConfig{Text: "b", Mode: "scheduled", RearmCron: "0 */4 * * *"}.Validate(), false},
		{"bonus unknown mode", BonusConfig{Text: "b", Mode: "detached"}.Validate(), true},
		{"ocr without proxy", OCRConfig{}.Validate(), true},
		{"ocr ok", OCRConfig{ProxyURL: "http://127.0.0.1:8093"}.Validate(), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if gotErr := tt.err != nil; gotErr != tt.wantErr {
				t.Errorf("error = %v, wantErr %v", tt.err, tt.wantErr)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, _ := os.UserHomeDir()
	tests := []struct {
		in   string
		want string
	}{
		{"~/.grindbot/config.json", home + "/.grindbot/config.json"},
		{"~", home},
		{"/abs/path", "/abs/path"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := ExpandHome(tt.in); got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
