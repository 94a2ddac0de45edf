// Package cli defines the command tree.
package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sharapovvezde-lgtm/voice-to-text/internal/config"
	"github.com/sharapovvezde-lgtm/voice-to-text/internal/logging"
	"github.com/sharapovvezde-lgtm/voice-to-text/internal/version"
)

// Dependencies carries the state shared across commands. Config and
// logger are populated by the root PersistentPreRunE so subcommands
// can assume they are ready.
type Dependencies struct {
	ConfigPath string
	LogLevel   string

	Config config.Config
	Logger *zap.Logger
}

func NewRootCmd() *cobra.Command {
	deps := &Dependencies{}

	rootCmd := &cobra.Command{
		Use:   "voice-to-text",
		Short: "Push-to-talk dictation and meeting recording",
		Long: "Hold a hotkey to dictate into any focused window, or toggle a meeting\n" +
			"recording that captures the screen with microphone and system audio and\n" +
			"produces a speaker-attributed transcript.",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(deps.ConfigPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if deps.LogLevel != "" {
				cfg.LogLevel = deps.LogLevel
			}
			if err := config.Validate(&cfg); err != nil {
				return err
			}
			deps.Config = cfg
			deps.Logger = logging.New(cfg.LogLevel)
			return nil
		},
	}

	rootCmd.Version = version.Version
	rootCmd.SetVersionTemplate(version.Full() + "\n")

	rootCmd.PersistentFlags().StringVarP(&deps.ConfigPath, "config", "c", "", "path to settings JSON")
	rootCmd.PersistentFlags().StringVar(&deps.LogLevel, "log-level", "", "override log level (debug|info|warn|error)")

	rootCmd.AddCommand(NewRunCmd(deps))
	rootCmd.AddCommand(NewDevicesCmd(deps))
	rootCmd.AddCommand(NewTranscribeCmd(deps))
	rootCmd.AddCommand(NewInitConfigCmd(deps))
	rootCmd.AddCommand(NewAutostartCmd(deps))

	return rootCmd
}
