package main

import (
	"fmt"
	"io"
	"net"
	"net/url"
	"os"
	"os/exec"
	"time"

	"chatwidget/internal/config"
	"chatwidget/internal/transcript"

	"github.com/spf13/cobra"
)

func doctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Run diagnostic checks on the widget setup",
		Long: `Verifies that the widget configuration resolves, the webhook host is
reachable, the transcript database is writable and the listen address is
free. Reports pass/fail for each check.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := loadSettings()
			if err != nil {
				return err
			}
			return runDoctor(cmd.OutOrStdout(), s)
		},
	}
}

type doctorReport struct {
	out                    io.Writer
	passed, warned, failed int
}

func (r *doctorReport) pass(check, detail string) {
	fmt.Fprintf(r.out, "  [PASS] %-20s %s\n", check, detail)
	r.passed++
}

func (r *doctorReport) fail(check, detail string) {
	fmt.Fprintf(r.out, "  [FAIL] %-20s %s\n", check, detail)
	r.failed++
}

func (r *doctorReport) warn(check, detail string) {
	fmt.Fprintf(r.out, "  [WARN] %-20s %s\n", check, detail)
	r.warned++
}

func runDoctor(out io.Writer, s config.Settings) error {
	r := &doctorReport{out: out}
	fmt.Fprintf(out, "chatwidget doctor v%s\n\n", version)

	if s.ConfigPath == "" {
		r.warn("Config file", "none given, resolving defaults only")
	} else if _, err := os.Stat(config.ExpandPath(s.ConfigPath)); err != nil {
		r.fail("Config file", fmt.Sprintf("not found at %s", s.ConfigPath))
	} else {
		r.pass("Config file", s.ConfigPath)
	}

	cfg, err := config.Load(s.ConfigPath)
	if err != nil {
		r.fail("Config validation", err.Error())
	} else {
		r.pass("Config validation", "valid")
		if err := checkWebhook(cfg.Webhook.URL); err != nil {
			r.warn("Webhook", err.Error())
		} else {
			r.pass("Webhook", cfg.Webhook.URL)
		}
	}

	if s.TranscriptDB == "" {
		r.warn("Transcript", "not configured, exchanges are not recorded")
	} else if err := checkTranscript(config.ExpandPath(s.TranscriptDB)); err != nil {
		r.fail("Transcript", err.Error())
	} else {
		r.pass("Transcript", s.TranscriptDB)
	}

	if err := checkAddr(s.Addr); err != nil {
		r.warn("Listen address", fmt.Sprintf("%s may be in use: %v", s.Addr, err))
	} else {
		r.pass("Listen address", s.Addr+" available")
	}

	if path, err := findChrome(); err != nil {
		r.warn("Chrome", "not found, 'preview' needs --chrome")
	} else {
		r.pass("Chrome", path)
	}

	fmt.Fprintf(out, "\nResults: %d passed, %d warnings, %d failed\n", r.passed, r.warned, r.failed)
	if r.failed > 0 {
		return fmt.Errorf("%d check(s) failed", r.failed)
	}
	return nil
}

// checkWebhook dials the webhook host without sending a request.
func checkWebhook(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	host := u.Host
	if u.Port() == "" {
		port := "80"
		if u.Scheme == "https" {
			port = "443"
		}
		host = net.JoinHostPort(u.Hostname(), port)
	}
	conn, err := net.DialTimeout("tcp", host, 3*time.Second)
	if err != nil {
		return fmt.Errorf("cannot reach %s: %w", host, err)
	}
	conn.Close()
	return nil
}

func checkTranscript(path string) error {
	store, err := transcript.Open(path, nil)
	if err != nil {
		return err
	}
	return store.Close()
}

func checkAddr(addr string) error {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	ln.Close()
	return nil
}

func findChrome() (string, error) {
	for _, name := range []string{"google-chrome", "google-chrome-stable", "chromium", "chromium-browser", "chrome"} {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}
	return "", exec.ErrNotFound
}
