package cmd

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/grindbot/internal/config"
	"github.com/nextlevelbuilder/grindbot/internal/words"
)

func onboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "onboard",
		Short: "Run the interactive setup",
		Run: func(cmd *cobra.Command, args []string) {
			if !runOnboard(resolveConfigPath()) {
				os.Exit(1)
			}
		},
	}
}

// runOnboard collects the bot token and target group, writes the initial
// config file, and drops the token into an env file for later runs. The
// token never lands in config.json. Returns false on abort or I/O error.
func runOnboard(cfgPath string) bool {
	var token, target string

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Bot token").
				Description("From @BotFather. Stored in an env file next to the config, never in config.json.").
				EchoMode(huh.EchoModePassword).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("token is required")
					}
					return nil
				}).
				Value(&token),
			huh.NewInput().
				Title("Target group").
				Description("Exact group title or numeric chat ID. Leave empty to use the most recently seen group.").
				Value(&target),
		),
	)
	if err := form.Run(); err != nil {
		fmt.Println("Setup aborted:", err)
		return false
	}
	token = strings.TrimSpace(token)

	cfg := config.Default()
	cfg.Telegram.Target = strings.TrimSpace(target)
	if err := config.Save(cfgPath, cfg); err != nil {
		fmt.Println("Could not save config:", err)
		return false
	}
	fmt.Printf("Config saved to %s\n", cfgPath)

	wordPath := config.ExpandHome(cfg.Words.File)
	if created, err := words.EnsureDefaultList(wordPath); err != nil {
		fmt.Println("Could not seed the wordlist:", err)
	} else if created {
		fmt.Printf("Starter wordlist written to %s, edit it before going live\n", wordPath)
	}

	envPath := filepath.Join(filepath.Dir(cfgPath), ".env")
	if err := writeEnvFile(envPath, token); err != nil {
		fmt.Println("Could not save token:", err)
		return false
	}
	// Export for this process too, so the run command right after the
	// form connects without re-sourcing.
	os.Setenv("GRINDBOT_TELEGRAM_TOKEN", token)

	fmt.Println()
	fmt.Println("Setup complete. Later runs need the token in the environment:")
	fmt.Println()
	fmt.Printf("  source %s && grindbot\n", envPath)
	fmt.Println()
	return true
}

func writeEnvFile(path, token string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	data := fmt.Sprintf("export GRINDBOT_TELEGRAM_TOKEN=%q\n", token)
	return os.WriteFile(path, []byte(data), 0600)
}
