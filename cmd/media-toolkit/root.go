package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ytget/media-toolkit/internal/app"
)

// errJobsFailed is returned when at least one job ends in failure.
var errJobsFailed = errors.New("one or more jobs failed")

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configFile string
	debug      bool
	metricsOut string
	// playlistTimeout is set by the fetch command.
	playlistTimeout time.Duration
}

// Execute runs the root command.
func Execute() error {
	// Environment from .env is optional
	_ = godotenv.Load()

	cmd := newRootCommand()
	err := cmd.ExecuteContext(context.Background())
	if err != nil && !errors.Is(err, errJobsFailed) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return err
}

func newRootCommand() *cobra.Command {
	flags := &globalFlags{}

	root := &cobra.Command{
		Use:           "media-toolkit",
		Short:         "Fetch remote media and convert local files",
		Long:          `Fetch videos and audio from the web and convert images, documents and media files using yt-dlp, ffmpeg and pandoc.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	root.PersistentFlags().StringVar(&flags.configFile, "config", "", "settings file (default is ~/.media_toolkit_settings.json)")
	root.PersistentFlags().BoolVar(&flags.debug, "debug", false, "enable debug logging")
	root.PersistentFlags().StringVar(&flags.metricsOut, "metrics-out", "", "write Prometheus metrics to this file on exit")

	root.AddCommand(
		newFetchCommand(flags),
		newConvertCommand(flags),
		newFormatsCommand(),
		newDoctorCommand(flags),
		newVersionCommand(),
	)
	return root
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "media-toolkit version %s\n", version)
		},
	}
}

// bootstrap builds the application services for one command run.
func bootstrap(flags *globalFlags) (*app.App, error) {
	a, err := app.New(app.Options{
		ConfigPath:      flags.configFile,
		Debug:           flags.debug,
		Console:         true,
		Registry:        prometheus.NewRegistry(),
		PlaylistTimeout: flags.playlistTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize: %w", err)
	}
	return a, nil
}

// shutdown waits for jobs, writes metrics when requested and flushes logs.
func shutdown(a *app.App, flags *globalFlags) error {
	closeErr := a.Close()
	if flags.metricsOut != "" {
		if err := prometheus.WriteToTextfile(flags.metricsOut, a.Registry); err != nil {
			return fmt.Errorf("write metrics: %w", err)
		}
	}
	return closeErr
}
