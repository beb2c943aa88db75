package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by all subcommands.
type GlobalFlags struct {
	ConfigPath string
}

// StatusFlags holds flags for the status command.
type StatusFlags struct {
	JSON bool
}

// StartFlags holds flags for the start command.
type StartFlags struct {
	NoBrowser bool
}

// StopFlags holds flags for the stop command.
type StopFlags struct {
	Wait time.Duration
}

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	Addr string
}

// buildRoot creates the root command with all subcommands attached.
func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}
	statusFlags := &StatusFlags{}
	startFlags := &StartFlags{}
	stopFlags := &StopFlags{}
	serveFlags := &ServeFlags{}

	appsupCommand := command{flags: globalFlags}

	root := createRootCommand(appsupCommand, globalFlags)
	root.AddCommand(
		createStartCommand(appsupCommand, startFlags),
		createStopCommand(appsupCommand, stopFlags),
		createStatusCommand(appsupCommand, statusFlags),
		createRestartCommand(appsupCommand),
		createServeCommand(appsupCommand, serveFlags),
	)
	return root
}

// createRootCommand creates the root command. Without a subcommand it drops
// into the interactive menu.
func createRootCommand(appsupCommand command, flags *GlobalFlags) *cobra.Command {
	root := &cobra.Command{
		Use:   "appsup",
		Short: "Supervisor for the analysis application's backend and frontend",
		Long: `Appsup starts, stops and reports on the two local services of the
analysis application: the API backend and the web frontend. The backend is
always started first and health-checked before the frontend is launched.

Examples:
  appsup                 # interactive menu
  appsup start           # start both services in order
  appsup status --json   # machine-readable consolidated status
  appsup stop            # stop both services, frontend first
  appsup serve           # local dashboard API on 127.0.0.1:8091`,
		// operational errors are not usage errors, and main prints them once
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return appsupCommand.Menu(cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	root.PersistentFlags().StringVar(&flags.ConfigPath, "config", "", "path to TOML config file (optional)")
	return root
}

// createStartCommand creates the start subcommand.
func createStartCommand(appsupCommand command, startFlags *StartFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start both services, backend first",
		Long: `Start the backend, wait for its health endpoint, then start the
frontend. Services already running are left alone. When both end up running
the frontend URL is opened in the default browser.

Examples:
  appsup start
  appsup start --no-browser`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return appsupCommand.Start(*startFlags)
		},
	}
	cmd.Flags().BoolVar(&startFlags.NoBrowser, "no-browser", false, "do not open the frontend in a browser")
	return cmd
}

// createStopCommand creates the stop subcommand.
func createStopCommand(appsupCommand command, stopFlags *StopFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop both services, frontend first",
		Long: `Stop the frontend, then the backend, then sweep the process table
for any leftover instances matching the service patterns.

Examples:
  appsup stop
  appsup stop --wait=10s`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return appsupCommand.Stop(*stopFlags)
		},
	}
	cmd.Flags().DurationVar(&stopFlags.Wait, "wait", 5*time.Second, "grace period before force kill")
	return cmd
}

// createStatusCommand creates the status subcommand.
func createStatusCommand(appsupCommand command, statusFlags *StatusFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show consolidated service status",
		Long: `Probe the process table and health endpoints for both services and
print the consolidated status. Read-only.

Examples:
  appsup status
  appsup status --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return appsupCommand.Status(*statusFlags)
		},
	}
	cmd.Flags().BoolVar(&statusFlags.JSON, "json", false, "print status as JSON")
	return cmd
}

// createRestartCommand creates the restart subcommand.
func createRestartCommand(appsupCommand command) *cobra.Command {
	return &cobra.Command{
		Use:   "restart",
		Short: "Stop then start both services",
		RunE: func(cmd *cobra.Command, args []string) error {
			return appsupCommand.Restart()
		},
	}
}

// createServeCommand creates the serve subcommand.
func createServeCommand(appsupCommand command, serveFlags *ServeFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the local dashboard API",
		Long: `Serve the dashboard API on a loopback address. The dashboard polls
GET /api/status and triggers start/stop/restart via POST.

Examples:
  appsup serve
  appsup serve --addr=127.0.0.1:9000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return appsupCommand.Serve(*serveFlags)
		},
	}
	cmd.Flags().StringVar(&serveFlags.Addr, "addr", "", "listen address (overrides config)")
	return cmd
}
