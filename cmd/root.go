package cmd

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/SoCo/socos/internal/config"
	"github.com/SoCo/socos/internal/display"
	"github.com/SoCo/socos/internal/logging"
	"github.com/SoCo/socos/internal/shell"
	"github.com/SoCo/socos/internal/sonos"
)

// App holds the application state.
type App struct {
	cfg     *config.Config
	verbose bool
}

// NewApp creates a new App instance with default configuration.
func NewApp() *App {
	return &App{
		cfg: config.New(),
	}
}

// Execute runs the root command.
func Execute() {
	app := NewApp()

	rootCmd := &cobra.Command{
		Use:   "socos [command [args...]]",
		Short: "An interactive shell for controlling Sonos speakers",
		Long: `socos discovers and controls Sonos speakers on the local network.

With arguments it processes a single command and exits; without
arguments it starts an interactive shell. Commands that need a speaker
use the selected one, or take an IP address as their first argument.

Examples:
  socos list
  socos volume 192.168.1.5 +10
  socos tracks 192.168.1.5 "purple rain" add 1
  socos                                # Interactive shell`,
		Args: cobra.ArbitraryArgs,
		Run: func(cmd *cobra.Command, args []string) {
			app.run(cmd, args)
		},
	}

	rootCmd.Flags().BoolVarP(&app.verbose, "verbose", "v", false, "Log SOAP traffic with the speakers to stderr")
	rootCmd.Flags().BoolVar(&app.cfg.Plain, "plain", false, "Disable tables, colors and spinners")
	rootCmd.Flags().IntVarP(&app.cfg.DiscoverySeconds, "timeout", "t", 0, "Seconds to wait for speakers during discovery")

	// Flags stop at the first positional argument so that adjustment
	// operators like -10 pass through as command arguments.
	rootCmd.Flags().SetInterspersed(false)

	rootCmd.AddCommand(NewConfigCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func (app *App) run(_ *cobra.Command, args []string) {
	if err := app.cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	app.setupLogging()

	session := shell.NewSession(
		app.cfg,
		display.New(os.Stdout, app.cfg.Plain),
		os.Stderr,
		discoverDevices,
		connectDevice,
	)

	if len(args) == 0 {
		app.runInteractive(session)
		return
	}

	if err := session.Process(context.Background(), args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogging applies --verbose and the configured log level/file to
// the default logger.
func (app *App) setupLogging() {
	if app.verbose {
		logging.SetLevel(logging.LevelDebug)
		return
	}
	logging.SetLevel(logging.ParseLevel(app.cfg.LogLevel))
	if app.cfg.LogFile != "" {
		f, err := os.OpenFile(app.cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Warning: could not open log file: %v\n", err)
			return
		}
		logging.DefaultLogger.SetOutput(f)
		logging.DefaultLogger.SetFormat(logging.FormatJSON)
	}
}

// discoverDevices adapts sonos.Discover to the shell's device
// interface.
func discoverDevices(ctx context.Context, timeout time.Duration) ([]shell.Device, error) {
	speakers, err := sonos.Discover(ctx, timeout)
	if err != nil {
		return nil, err
	}
	devices := make([]shell.Device, len(speakers))
	for i, sp := range speakers {
		devices[i] = sp
	}
	return devices, nil
}

func connectDevice(ip string) shell.Device {
	return sonos.New(ip)
}
