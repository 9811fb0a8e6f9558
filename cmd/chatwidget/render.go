package main

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"chatwidget/internal/config"
	"chatwidget/internal/dom"
	"chatwidget/internal/widget"

	"github.com/spf13/cobra"
)

func renderCmd() *cobra.Command {
	var (
		open   bool
		output string
		title  string
	)
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Print a blank page with the widget mounted",
		Long: `Mounts the widget into an empty document and prints the document. With
--open the toggle is clicked first, which also shows the welcome message.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			cfg, err := loadWidget(s)
			if err != nil {
				return err
			}
			if title == "" {
				title = cfg.Branding.Name
			}

			var out io.Writer = os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return renderPage(out, cfg, title, open)
		},
	}
	cmd.Flags().BoolVar(&open, "open", false, "open the panel before rendering")
	cmd.Flags().StringVarP(&output, "output", "o", "", "write to a file instead of stdout")
	cmd.Flags().StringVar(&title, "title", "", "page title (default: branding.name)")
	return cmd
}

func renderPage(out io.Writer, cfg config.Widget, title string, open bool) error {
	doc := dom.NewDocument(title)
	w, err := widget.Mount(doc, widget.Config{Widget: cfg, Logger: logger})
	if err != nil {
		return err
	}
	defer w.Unmount()

	if open {
		if err := w.Click(widget.RefToggle); err != nil {
			return err
		}
	}

	var buf bytes.Buffer
	var renderErr error
	if err := w.Do(func() { renderErr = doc.Render(&buf) }); err != nil {
		return err
	}
	if renderErr != nil {
		return fmt.Errorf("render document: %w", renderErr)
	}
	_, err = buf.WriteTo(out)
	return err
}
