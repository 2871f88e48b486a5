package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/voicechat-server/internal/app"
	"github.com/vovakirdan/voicechat-server/internal/config"
	applog "github.com/vovakirdan/voicechat-server/internal/log"
)

func main() {
	if err := newRootCmd().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		overrides  config.Config
	)

	cmd := &cobra.Command{
		Use:           "voicechat-server",
		Short:         "Chat channels and WebRTC voice signaling over websockets",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), configPath, overrides)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&configPath, "config", "", "path to config file (created with defaults if missing)")
	flags.StringVar(&overrides.Host, "host", "", "bind address (default 0.0.0.0)")
	flags.IntVar(&overrides.Port, "port", 0, "listen port (default 3001)")
	flags.StringVar(&overrides.LogLevel, "log-level", "", "log level: debug, info, warn, error")
	flags.DurationVar(&overrides.NegotiationTimeout, "negotiation-timeout", 0, "how long a voice offer may stay unanswered")
	return cmd
}

func run(ctx context.Context, configPath string, overrides config.Config) error {
	bootLog := applog.New(overrides.LogLevel)

	cfg, usedPath, err := config.Load(bootLog, configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.UpdateFrom(overrides)

	logger := applog.New(cfg.LogLevel)
	logger.Info().Str("config", usedPath).Str("addr", cfg.Addr()).Msg("starting voicechat server")

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.New(&cfg, logger).Run(ctx); err != nil {
		logger.Error().Err(err).Msg("server exited with error")
		return err
	}
	logger.Info().Msg("server stopped")
	return nil
}
