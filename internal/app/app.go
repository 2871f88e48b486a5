package app

import (
	"context"
	"errors"
	stdhttp "net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/voicechat-server/internal/config"
	"github.com/vovakirdan/voicechat-server/internal/core"
	transporthttp "github.com/vovakirdan/voicechat-server/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	coord           *core.Coordinator
	log             *zerolog.Logger
}

// New constructs the application with provided configuration.
func New(cfg *config.Config, logger *zerolog.Logger) *App {
	if logger.GetLevel() > zerolog.DebugLevel {
		gin.SetMode(gin.ReleaseMode)
	}

	registry := core.NewRegistry(cfg.MaxNameLength)
	channels := core.NewChannelStore(registry, cfg.HistoryLimit)
	channels.Bootstrap(cfg.Channels)

	coord := core.NewCoordinator(core.Components{
		Registry:     registry,
		Channels:     channels,
		Voice:        core.NewVoiceRooms(),
		Negotiations: core.NewNegotiations(cfg.NegotiationTimeout),
		Relay:        core.NewRelay(registry, logger),
	}, logger,
		core.WithVoiceDataRelay(cfg.VoiceDataRelay),
		core.WithDefaultChannel(cfg.DefaultChannel),
	)
	hub := core.NewHub(coord, logger, core.WithSweepInterval(cfg.SweepInterval))

	logger.Info().Strs("channels", cfg.Channels).Dur("negotiation_timeout", cfg.NegotiationTimeout).Msg("core initialized")

	return &App{
		server:          transporthttp.NewServer(hub, coord, *cfg, logger),
		shutdownTimeout: cfg.ShutdownTimeout,
		hub:             hub,
		coord:           coord,
		log:             logger,
	}
}

// Run starts the hub and the HTTP server and blocks until ctx is canceled or
// the server fails.
func (a *App) Run(ctx context.Context) error {
	hubCtx, stopHub := context.WithCancel(context.WithoutCancel(ctx))
	defer stopHub()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(hubCtx)
		return nil
	})

	g.Go(func() error {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		err := a.server.Shutdown(shutdownCtx)
		// Hijacked websocket connections are not tracked by Shutdown; stopping
		// the hub releases them.
		stopHub()
		a.log.Info().Int("sessions", a.coord.Sessions()).Msg("hub stopped")
		return err
	})

	return g.Wait()
}
