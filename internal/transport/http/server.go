package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/voicechat-server/internal/config"
	"github.com/vovakirdan/voicechat-server/internal/core"
)

// NewRouter builds the gin engine serving the websocket endpoint and the
// read-only REST API.
func NewRouter(hub *core.Hub, dir Directory, cfg config.Config, logger *zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))
	router.Use(CORSMiddleware())

	api := NewAPIHandlers(dir, cfg.ICEServers, logger)
	ws := NewWSHandler(hub, WSOptions{
		MaxMessageBytes:    cfg.MaxMessageBytes,
		RateLimitPerMinute: cfg.RateLimitPerMinute,
		ClientBuffer:       cfg.ClientBuffer,
	}, logger)

	router.GET("/health", api.Health)
	router.GET("/ws", gin.WrapH(ws))

	group := router.Group("/api")
	group.GET("/channels", api.ListChannels)
	group.GET("/users", api.ListUsers)
	group.GET("/ice-servers", api.ICEServers)

	return router
}

// NewServer builds an HTTP server around NewRouter.
func NewServer(hub *core.Hub, dir Directory, cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr(),
		Handler:           NewRouter(hub, dir, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
