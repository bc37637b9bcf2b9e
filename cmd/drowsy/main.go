// drowsy - webcam driver drowsiness monitor with a car pull-over animation.
//
// main.go sets up the command-line interface using Cobra. The root
// command groups run (the monitor itself), watch and status (clients of a
// running monitor's dashboard) and config (default config file handling).
package main

import (
	"os"

	"github.com/spf13/cobra"
)

var version = "dev" // set by the linker

func main() {
	if err := newRootCmd().Execute(); err != nil {
		// Cobra has already printed the error
		os.Exit(1)
	}
}

// newRootCmd builds a fresh command tree, so tests get isolated flags.
func newRootCmd() *cobra.Command {
	var cfgFile string

	cmd := &cobra.Command{
		Use:   "drowsy",
		Short: "Webcam driver drowsiness monitor",
		Long: `drowsy watches the driver through a webcam. When the eyes stay closed
too long it sounds an alarm, records the episode and pulls the animated
car over onto the shoulder until the driver wakes up.

Settings come from drowsy.yaml (current directory or user config dir),
DROWSY_* environment variables and flags, in increasing priority.`,
		SilenceUsage: true,
	}
	cmd.Version = version

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./drowsy.yaml or <user config dir>/drowsy/drowsy.yaml)")
	cmd.PersistentFlags().String("log-level", "info", `log level ("debug", "info", "warn", "error")`)
	cmd.PersistentFlags().String("log-format", "", `log format ("text", "json"; default follows GO_ENV)`)

	cmd.AddCommand(newRunCmd(&cfgFile))
	cmd.AddCommand(newWatchCmd(&cfgFile))
	cmd.AddCommand(newStatusCmd(&cfgFile))
	cmd.AddCommand(newConfigCmd(&cfgFile))

	return cmd
}
