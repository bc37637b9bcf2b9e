package main

import (
	"context"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-drowsy/internal/config"
	"github.com/teslashibe/go-drowsy/internal/log"
	"github.com/teslashibe/go-drowsy/pkg/monitor"
	"github.com/teslashibe/go-drowsy/pkg/tui"
)

// tuiLogFile receives log output while the terminal view owns the screen.
const tuiLogFile = "drowsy-debug.log"

func newRunCmd(cfgFile *string) *cobra.Command {
	d := config.Default()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the drowsiness monitor",
		Long: `Opens the webcam, watches the driver's eyes and reacts to drowsiness:
countdown, alarm, episode recording, event log and the car animation.
Press q in the camera window (or Ctrl+C) to stop.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cmd, *cfgFile)
			if err != nil {
				return fmt.Errorf("❌ Configuration error: %w", err)
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if cfg.TUI {
				return runWithTUI(ctx, cfg)
			}

			log.Init(cfg.LogLevel, cfg.LogFormat)
			return runApp(ctx, cfg, nil, nil)
		},
	}

	f := cmd.Flags()
	f.Bool("debug", d.Debug, "verbose debug output")
	f.Bool("debug-frames", d.DebugFrames, "per-frame detection output (very noisy)")
	f.Bool("display", d.Display, "show the camera and car animation windows")
	f.Bool("tui", d.TUI, "show the terminal status view")
	f.Int("device", d.Camera.Device, "camera device index")
	f.Int("width", d.Camera.Width, "capture width")
	f.Int("height", d.Camera.Height, "capture height")
	f.String("alarm", string(d.Alarm.Backend), `alarm backend ("auto", "gstreamer", "none")`)
	f.String("sound", d.Alarm.Sound, "alarm WAV file")
	f.String("record-dir", d.Recorder.Dir, "directory for episode recordings")
	f.String("csv", d.Events.CSVPath, "CSV event log path (empty disables)")
	f.String("sqlite", d.Events.SQLitePath, "SQLite event history path (empty disables)")
	f.Bool("web", d.Web.Enabled, "serve the web dashboard")
	f.String("addr", d.Web.Addr, "web dashboard listen address")

	return cmd
}

// runApp initializes and runs the monitor until ctx is done. With a view,
// debug lines go to logs so they don't tear the terminal UI.
func runApp(ctx context.Context, cfg config.Config, view tui.Sender, logs io.Writer) error {
	app, err := monitor.New(cfg)
	if err != nil {
		return fmt.Errorf("❌ Configuration error: %w", err)
	}
	if view != nil {
		app.SetTUI(view, logs)
	}
	defer app.Shutdown()

	if err := app.Init(ctx); err != nil {
		return fmt.Errorf("❌ Initialization failed: %w", err)
	}

	if err := app.Run(ctx); err != nil {
		return fmt.Errorf("❌ Runtime error: %w", err)
	}
	return nil
}

// runWithTUI runs the capture loop in the background while the terminal
// view owns the main goroutine. Logs go to a file.
func runWithTUI(ctx context.Context, cfg config.Config) error {
	f, err := tea.LogToFile(tuiLogFile, "drowsy")
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer f.Close()
	log.InitWriter(f, cfg.LogLevel, cfg.LogFormat)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(tui.New(fmt.Sprintf("camera %d", cfg.Camera.Device)), tea.WithContext(ctx))

	done := make(chan error, 1)
	go func() {
		err := runApp(ctx, cfg, p, f)
		if err != nil {
			p.Send(tui.ErrMsg{Err: err})
		}
		done <- err
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		cancel()
		<-done
		return err
	}

	// View closed (q) or signal: stop the monitor and wait for cleanup
	cancel()
	return <-done
}
