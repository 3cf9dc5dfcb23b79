package cmd

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/nextlevelbuilder/grindbot/internal/config"
)

// Version is set at build time via -ldflags "-X github.com/nextlevelbuilder/grindbot/cmd.Version=v1.0.0"
var Version = "dev"

var (
	cfgFile string
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:   "grindbot",
	Short: "Grindbot word-game automation agent",
	Long:  "Grindbot: scripted automation for one Telegram word-game group. Posts paced words and bonus phrases, solves arithmetic challenge images via OCR, and clicks reward buttons.",
	Run: func(cmd *cobra.Command, args []string) {
		runAgent()
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ~/.grindbot/config.json or $GRINDBOT_CONFIG)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(versionCmd())
	rootCmd.AddCommand(onboardCmd())
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("grindbot %s (%s)\n", Version, runtime.Version())
		},
	}
}

func resolveConfigPath() string {
	if cfgFile != "" {
		return cfgFile
	}
	if v := os.Getenv("GRINDBOT_CONFIG"); v != "" {
		return v
	}
	return config.DefaultPath()
}

// Execute runs the root cobra command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
