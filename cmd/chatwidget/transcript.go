package main

import (
	"fmt"
	"os"

	"chatwidget/internal/config"
	"chatwidget/internal/transcript"

	"github.com/spf13/cobra"
)

func transcriptCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "transcript",
		Short: "Inspect recorded webhook exchanges",
	}

	var (
		dbPath   string
		widgetID string
		limit    int
	)
	list := &cobra.Command{
		Use:   "list",
		Short: "List recent exchanges, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			if dbPath == "" {
				s, err := loadSettings()
				if err != nil {
					return err
				}
				dbPath = s.TranscriptDB
			}
			if dbPath == "" {
				return fmt.Errorf("no transcript database (set --db or CHATWIDGET_TRANSCRIPT_DB)")
			}
			path := config.ExpandPath(dbPath)
			if _, err := os.Stat(path); err != nil {
				return fmt.Errorf("transcript database: %w", err)
			}

			store, err := transcript.Open(path, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			entries, err := store.Recent(cmd.Context(), widgetID, limit)
			if err != nil {
				return err
			}
			if entries == nil {
				entries = []transcript.Entry{}
			}
			return printJSON(entries)
		},
	}
	list.Flags().StringVar(&dbPath, "db", "", "SQLite file (default: $CHATWIDGET_TRANSCRIPT_DB)")
	list.Flags().StringVar(&widgetID, "widget", "", "only this widget instance")
	list.Flags().IntVarP(&limit, "limit", "n", 20, "maximum entries")
	cmd.AddCommand(list)

	return cmd
}
