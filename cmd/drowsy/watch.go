package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/teslashibe/go-drowsy/internal/config"
	"github.com/teslashibe/go-drowsy/pkg/tui"
	"github.com/teslashibe/go-drowsy/pkg/web"
)

// dashboardAddr returns --addr when given, else the configured web address.
func dashboardAddr(cmd *cobra.Command, cfgFile string) (string, error) {
	if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
		return addr, nil
	}
	cfg, err := config.Load(cmd, cfgFile)
	if err != nil {
		return "", err
	}
	return cfg.Web.Addr, nil
}

func newWatchCmd(cfgFile *string) *cobra.Command {
	var plain bool

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Follow a running monitor from the terminal",
		Long: `Connects to a running monitor's dashboard websocket and shows live
driver and car status. Use --plain for one line per update.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := dashboardAddr(cmd, *cfgFile)
			if err != nil {
				return err
			}
			url, err := web.StatusURL(addr)
			if err != nil {
				return err
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			if plain {
				return web.Watch(ctx, url, func(st web.State) {
					fmt.Fprintln(cmd.OutOrStdout(), statusLine(st))
				})
			}
			return watchTUI(ctx, url)
		},
	}

	cmd.Flags().String("addr", "", "dashboard address (default from config web.addr)")
	cmd.Flags().BoolVar(&plain, "plain", false, "print plain status lines instead of the terminal view")

	return cmd
}

func watchTUI(ctx context.Context, url string) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p := tea.NewProgram(tui.New(url), tea.WithContext(ctx))
	go func() {
		err := web.Watch(ctx, url, func(st web.State) {
			p.Send(tui.SnapshotMsg{State: st})
		})
		if err != nil && ctx.Err() == nil {
			p.Send(tui.ErrMsg{Err: err})
		}
	}()

	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

// statusLine renders a snapshot as one terminal line.
func statusLine(st web.State) string {
	driverState := "awake"
	switch {
	case st.Driver.Alert:
		driverState = "ASLEEP"
	case st.Driver.EyesClosed:
		driverState = fmt.Sprintf("eyes closed %.1fs", st.Driver.ClosedFor.Seconds())
	}

	line := fmt.Sprintf("%-18s car=%-14s speed=%3.0f fps=%4.1f events=%d",
		driverState, st.Animation.State, st.Animation.Speed, st.FPS, st.Events)
	if st.Driver.Recording {
		line += " ⏺"
	}
	return line
}

func newStatusCmd(cfgFile *string) *cobra.Command {
	var (
		events   int
		history  string
		sessions bool
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Print a running monitor's state as JSON",
		Long: `Print a running monitor's state as JSON.

With --history the stored events of one session are printed instead of the
recent in-memory events; "current" selects the monitor's own run. --sessions
lists the stored sessions. Both need events.sqlite_path on the monitor.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			addr, err := dashboardAddr(cmd, *cfgFile)
			if err != nil {
				return err
			}

			out := struct {
				State    web.State `json:"state"`
				Events   any       `json:"events,omitempty"`
				Sessions []string  `json:"sessions,omitempty"`
			}{}

			out.State, err = web.FetchStatus(cmd.Context(), addr)
			if err != nil {
				return fmt.Errorf("fetch status: %w", err)
			}
			if events > 0 {
				ev, err := web.FetchEvents(cmd.Context(), addr, events)
				if err != nil {
					return fmt.Errorf("fetch events: %w", err)
				}
				out.Events = ev
			}
			if history != "" {
				ev, err := web.FetchHistory(cmd.Context(), addr, history)
				if err != nil {
					return fmt.Errorf("fetch history: %w", err)
				}
				out.Events = ev
			}
			if sessions {
				out.Sessions, err = web.FetchSessions(cmd.Context(), addr)
				if err != nil {
					return fmt.Errorf("fetch sessions: %w", err)
				}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(out)
		},
	}

	cmd.Flags().String("addr", "", "dashboard address (default from config web.addr)")
	cmd.Flags().IntVar(&events, "events", 0, "also print the N most recent events")
	cmd.Flags().StringVar(&history, "history", "", `print a stored session's events ("current" for this run)`)
	cmd.Flags().BoolVar(&sessions, "sessions", false, "also list stored sessions")
	cmd.MarkFlagsMutuallyExclusive("events", "history")

	return cmd
}
