package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/samhoang/skillkit/internal/config"
	"github.com/samhoang/skillkit/internal/logger"
)

var Version = "dev"

var (
	logLevel  string
	logFormat string
	global    bool
)

var rootCmd = &cobra.Command{
	Use:   "skillkit",
	Short: "Discover, install and track agent skills",
	Long: `skillkit installs skills (SKILL.md documents plus their assets) from the
built-in bundle, a local directory, a git repository or an archive URL into
.agents/skills, links them into agent directories such as .claude/skills and
records what was installed in .agents/.skill-lock.json.`,
	Version:           Version,
	SilenceUsage:      true,
	PersistentPreRunE: setupLogging,
}

// setupLogging applies --log-level, falling back to the settings file
func setupLogging(cmd *cobra.Command, args []string) error {
	logger.SetLogFormat(logFormat)

	level := logLevel
	if !cmd.Flags().Changed("log-level") {
		if paths, err := config.ResolvePaths(global); err == nil {
			if s, err := config.LoadSettings(paths.SettingsPath); err == nil && s.LogLevel != "" {
				level = s.LogLevel
			}
		}
	}
	return logger.SetLogLevel(level)
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, errorLabel(err))
		os.Exit(1)
	}
}

func init() {
	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "fmt", "Log format (fmt, json)")
	setChoices(rootCmd.PersistentFlags(), "log-level", "debug", "info", "warn", "error")
	setChoices(rootCmd.PersistentFlags(), "log-format", "fmt", "json")
	rootCmd.PersistentFlags().BoolVarP(&global, "global", "g", false, "Use the home directory instead of the current project")
}
