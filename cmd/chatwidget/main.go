package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"

	"chatwidget/internal/config"

	"github.com/spf13/cobra"
)

var (
	version    = "0.1.0"
	logger     *slog.Logger
	configPath string // overridable via --config flag
	logLevel   string
)

func main() {
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelInfo}))

	root := &cobra.Command{
		Use:   "chatwidget",
		Short: "chatwidget: embeddable chat widget backed by a webhook",
		Long: `chatwidget mounts a floating chat panel into a page and relays every
visitor message to a configured webhook. It can host the widget itself,
render its markup, screenshot it and run a mock webhook for development.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			setupLogger()
		},
	}

	root.PersistentFlags().StringVarP(&configPath, "config", "c", "", "widget config file, JSON or YAML (default: $CHATWIDGET_CONFIG)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error (default: $CHATWIDGET_LOG_LEVEL)")

	root.AddCommand(initCmd())
	root.AddCommand(serveCmd())
	root.AddCommand(renderCmd())
	root.AddCommand(configCmd())
	root.AddCommand(mockWebhookCmd())
	root.AddCommand(previewCmd())
	root.AddCommand(transcriptCmd())
	root.AddCommand(doctorCmd())
	root.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println(version)
		},
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadSettings reads the environment and applies the persistent flags.
func loadSettings() (config.Settings, error) {
	s, err := config.LoadSettings()
	if err != nil {
		return config.Settings{}, err
	}
	if configPath != "" {
		s.ConfigPath = configPath
	}
	if logLevel != "" {
		s.LogLevel = logLevel
	}
	return s, nil
}

func setupLogger() {
	s, err := loadSettings()
	if err != nil {
		// Commands report the settings error themselves.
		return
	}
	logger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: s.SlogLevel()}))
	slog.SetDefault(logger)
}

// loadWidget resolves the widget configuration named by the settings.
func loadWidget(s config.Settings) (config.Widget, error) {
	cfg, err := config.Load(s.ConfigPath)
	if err != nil {
		if s.ConfigPath == "" {
			return config.Widget{}, fmt.Errorf("load config (no --config given): %w", err)
		}
		return config.Widget{}, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

func printJSON(v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	fmt.Println(string(data))
	return nil
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect the resolved widget configuration",
		Long:  "Show the configuration after the config file has been merged onto the defaults.",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration (secrets masked)",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			cfg, err := loadWidget(s)
			if err != nil {
				return err
			}
			return printJSON(config.Sanitize(cfg))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "get [path]",
		Short: "Get one value (e.g. style.primaryColor)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			cfg, err := loadWidget(s)
			if err != nil {
				return err
			}
			val, err := config.GetByPath(config.Sanitize(cfg), args[0])
			if err != nil {
				return err
			}
			return printJSON(val)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "defaults",
		Short: "Print the built-in defaults",
		RunE: func(cmd *cobra.Command, args []string) error {
			return printJSON(config.Defaults())
		},
	})

	return cmd
}
