package main

import (
	"fmt"
	"os"
	"path/filepath"

	"chatwidget/internal/config"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

func initCmd() *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init [file]",
		Short: "Write a starter widget config",
		Long: `Writes the built-in defaults as YAML so they can be edited. The webhook
URL is left as ${CHATWIDGET_WEBHOOK_URL} and expanded when the file is loaded.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := "chatwidget.yaml"
			if len(args) == 1 {
				path = args[0]
			}
			path = config.ExpandPath(path)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := config.Defaults()
			cfg.Webhook.URL = "${CHATWIDGET_WEBHOOK_URL}"
			data, err := yaml.Marshal(cfg)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			if dir := filepath.Dir(path); dir != "." {
				if err := os.MkdirAll(dir, 0o755); err != nil {
					return err
				}
			}
			if err := os.WriteFile(path, data, 0o644); err != nil {
				return fmt.Errorf("write config: %w", err)
			}
			logger.Info("initialized", "config", path)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}
