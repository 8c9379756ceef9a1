package main

import (
	"bufio"
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/saturnino-fabrica-de-software/facemood/internal/config"
	"github.com/saturnino-fabrica-de-software/facemood/internal/kiosk"
	"github.com/saturnino-fabrica-de-software/facemood/internal/kiosk/capture"
)

var (
	configPath string
	env        string
	server     string
	camera     string
	auto       bool
	interval   time.Duration
)

var rootCmd = &cobra.Command{
	Use:   "kiosk",
	Short: "Attendance kiosk: capture, analyze, announce",
	Long: `Runs the capture loop against a facemood API server.

Without --auto every line read from stdin (press Enter) takes one capture.
With --auto a capture is taken on every interval; ticks that find an
analysis in flight are dropped.`,
	SilenceUsage: true,
	RunE:         runKiosk,
}

func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&configPath, "config", "c", "", "YAML config file")
	flags.StringVar(&env, "env", "development", "Log format: development (text) or production (JSON)")
	flags.StringVarP(&server, "server", "s", "", "facemood API base URL")
	flags.StringVar(&camera, "camera", "", "Image file or directory used as the camera")

	rootCmd.Flags().BoolVarP(&auto, "auto", "a", false, "Capture automatically")
	rootCmd.Flags().DurationVarP(&interval, "interval", "i", kiosk.DefaultAutoInterval, "Auto capture interval (3s to 30s)")
}

// loadConfig layers explicitly set flags over the YAML file.
func loadConfig(cmd *cobra.Command) (kiosk.Config, error) {
	cfg, err := kiosk.LoadConfig(configPath)
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("server") {
		cfg.Server = server
	}
	if flags.Changed("camera") {
		cfg.Camera = camera
	}
	if flags.Changed("auto") {
		cfg.Auto.Enabled = auto
	}
	if flags.Changed("interval") {
		cfg.Auto.Interval = interval
	}

	return cfg, cfg.Validate()
}

func newKiosk(cfg kiosk.Config, logger *slog.Logger) *kiosk.Kiosk {
	return kiosk.New(
		&capture.FileCamera{Path: cfg.Camera},
		kiosk.NewHTTPAnalyzer(cfg.Server, cfg.Timeout),
		kiosk.WithSpeaker(kiosk.LogSpeaker{Logger: logger}),
		kiosk.WithTones(kiosk.LogTones{Logger: logger}),
		kiosk.WithLogger(logger),
		kiosk.WithJPEGQuality(cfg.Quality),
	)
}

func runKiosk(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	logger := config.NewLoggerTo(os.Stderr, env)
	ctx := cmd.Context()

	k := newKiosk(cfg, logger)
	if err := k.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := k.Stop(); err != nil {
			logger.Error("stop kiosk", slog.Any("error", err))
		}
		printHistory(cmd, k)
	}()

	if cfg.Auto.Enabled {
		if err := k.EnableAutoCapture(cfg.Auto.Interval); err != nil {
			return err
		}
		logger.Info("auto capture enabled", slog.Duration("interval", cfg.Auto.Interval))
		<-ctx.Done()
		return nil
	}

	lines := make(chan struct{})
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(cmd.InOrStdin())
		for scanner.Scan() {
			select {
			case lines <- struct{}{}:
			case <-ctx.Done():
				return
			}
		}
	}()

	logger.Info("press Enter to capture, Ctrl+D to quit")
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-lines:
			if !ok {
				return nil
			}
			outcome, err := k.Capture(ctx)
			if err != nil {
				logger.Debug("capture failed", slog.Any("error", err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", outcome, k.Status())
		}
	}
}

func printHistory(cmd *cobra.Command, k *kiosk.Kiosk) {
	entries := k.History()
	if len(entries) == 0 {
		return
	}
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "recent attendance:")
	for _, e := range entries {
		fmt.Fprintf(out, "  %s  %-10s age %-4d %s\n", e.Timestamp.Format(time.TimeOnly), e.Emotion, e.Age, e.Gender)
	}
}
