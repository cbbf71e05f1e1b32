package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/Versifine/mcprobe/internal/config"
	"github.com/Versifine/mcprobe/internal/logger"
	"github.com/Versifine/mcprobe/internal/metrics"
	"github.com/Versifine/mcprobe/internal/report"
	"github.com/spf13/cobra"
)

// globalFlags are shared by every subcommand and override the config file.
type globalFlags struct {
	configPath string
	host       string
	port       int
	logLevel   string

	// outputColor is the resolved output.color, kept for reporting the
	// command's error after it returns.
	outputColor string
}

// app is the per-invocation wiring built from config and flags.
type app struct {
	cfg     *config.Config
	printer *report.Printer
	metrics *metrics.Collector
	logFile io.Closer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command line and reports a failure once, on stderr.
func run(ctx context.Context, args []string, stderr io.Writer) int {
	rootCmd, flags := newRootCmd()
	rootCmd.SetArgs(args)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		report.New(stderr, report.ColorEnabled(flags.outputColor, os.Stderr)).Error(err)
		return 1
	}
	return 0
}

func newRootCmd() (*cobra.Command, *globalFlags) {
	flags := &globalFlags{}

	rootCmd := &cobra.Command{
		Use:   "mcprobe",
		Short: "Query and join Minecraft 1.20.1 servers over the raw protocol",
		Long: `mcprobe speaks protocol 763 (1.20.1) directly.

  status  queries the server list entry and measures ping
  login   joins in offline mode and reports entity and player spawns`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&flags.configPath, "config", "c", "", "config file (.yaml, .yml or .toml)")
	pf.StringVar(&flags.host, "host", "", "server host")
	pf.IntVarP(&flags.port, "port", "p", 0, "server port")
	pf.StringVar(&flags.logLevel, "log-level", "", "log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		statusCmd(flags),
		loginCmd(flags),
	)
	return rootCmd, flags
}

// newApp resolves configuration in order: defaults, file, .env and
// MCPROBE_* variables, then command-line flags.
func newApp(cmd *cobra.Command, flags *globalFlags) (*app, error) {
	cfg := config.Default()
	if flags.configPath != "" {
		loaded, err := config.Load(flags.configPath)
		if err != nil {
			return nil, fmt.Errorf("load config: %w", err)
		}
		cfg = loaded
	}
	if err := config.LoadDotEnv(); err != nil {
		return nil, err
	}
	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}

	pf := cmd.Flags()
	if pf.Changed("host") {
		cfg.Server.Host = flags.host
	}
	if pf.Changed("port") {
		cfg.Server.Port = flags.port
	}
	if pf.Changed("log-level") {
		cfg.Logging.Level = flags.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	flags.outputColor = cfg.Output.Color

	a := &app{cfg: cfg}
	var logOutput io.Writer = os.Stderr
	if cfg.Logging.File != "" {
		f, err := logger.OpenFile(cfg.Logging.File)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		logOutput = f
	}
	logger.Init(logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: logOutput,
	})

	a.printer = report.New(os.Stdout, report.ColorEnabled(cfg.Output.Color, os.Stdout))

	if cfg.Metrics.Listen != "" {
		a.metrics = metrics.New()
		go func() {
			if err := metrics.Serve(cmd.Context(), cfg.Metrics.Listen, a.metrics); err != nil {
				slog.Error("Metrics server stopped", "error", err)
			}
		}()
	}
	return a, nil
}

func (a *app) close() {
	if a.logFile != nil {
		_ = a.logFile.Close()
	}
}

// interrupted reports whether err only reflects the user stopping the run.
func interrupted(err error) bool {
	return errors.Is(err, context.Canceled)
}
