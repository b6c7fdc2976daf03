package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/vango-dev/patchwork/internal/config"
	"github.com/vango-dev/patchwork/internal/errors"
)

// Version information set at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

const banner = `
  ┌─┐┌─┐┌┬┐┌─┐┬ ┬┬ ┬┌─┐┬─┐┬┌─
  ├─┘├─┤ │ │  ├─┤││││ │├┬┘├┴┐
  ┴  ┴ ┴ ┴ └─┘┴ ┴└┴┘└─┘┴└─┴ ┴
`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		errors.Print(os.Stderr, err)
		os.Exit(1)
	}
}

// globalFlags are shared by every command.
type globalFlags struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	rootCmd := &cobra.Command{
		Use:   "patchwork",
		Short: "Build, diff and stream virtual DOM trees",
		Long: `Patchwork plays tree description files through a virtual DOM
reconciler.

  • render prints the HTML of a frame
  • diff prints the mutations between two frames
  • decode reads a recorded mutation stream
  • serve mirrors the frames to browsers over WebSocket`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.configPath, "config", "c", "", "Path to patchwork.json (default: nearest in the working directory tree)")
	rootCmd.PersistentFlags().StringVar(&flags.logLevel, "log-level", "", "Override log.level")

	rootCmd.AddCommand(
		renderCmd(&flags),
		diffCmd(&flags),
		decodeCmd(),
		serveCmd(&flags),
		versionCmd(),
	)
	return rootCmd
}

// load reads the configuration and builds the logger it describes.
func (f *globalFlags) load(stderr io.Writer) (*config.Config, *slog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if f.configPath != "" {
		cfg, err = config.LoadFile(f.configPath)
	} else {
		cfg, err = config.LoadFromWorkingDir()
	}
	if err != nil {
		return nil, nil, err
	}
	if f.logLevel != "" {
		cfg.Log.Level = f.logLevel
		if _, err := cfg.LogLevel(); err != nil {
			return nil, nil, err
		}
	}
	return cfg, cfg.NewLogger(stderr), nil
}

// success prints a success message.
func success(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "\033[32m✓\033[0m %s\n", fmt.Sprintf(format, args...))
}

// info prints an info message.
func info(w io.Writer, format string, args ...any) {
	fmt.Fprintf(w, "  %s\n", fmt.Sprintf(format, args...))
}
