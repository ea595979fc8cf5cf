package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/Kay0310/toolboxtalk-v27/internal/auth"
	"github.com/Kay0310/toolboxtalk-v27/internal/config"
	"github.com/Kay0310/toolboxtalk-v27/internal/metrics"
	"github.com/Kay0310/toolboxtalk-v27/internal/service/minutes"
)

// NewServer builds the HTTP server with the REST, websocket and metrics routes.
func NewServer(svc *minutes.Service, tokens *auth.Service, m *metrics.Metrics, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	switch cfg.Mode {
	case gin.DebugMode, gin.ReleaseMode, gin.TestMode:
		gin.SetMode(cfg.Mode)
	default:
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	if m != nil {
		router.GET("/metrics", gin.WrapH(m.Handler()))
	}

	loc := cfg.Location()
	rooms := NewRoomHandlers(svc, tokens.TTL(), loc, logger)

	api := router.Group("/api")
	api.POST("/login", RateLimitMiddleware(cfg.RateLimitPerMin), rooms.Login)

	protected := api.Group("")
	protected.Use(AuthMiddleware(tokens, logger))
	{
		protected.GET("/room", rooms.GetRoom)
		protected.POST("/room/actions", rooms.ApplyAction)
		protected.GET("/room/summary", rooms.GetSummary)
		protected.GET("/room/print", rooms.GetPrintable)
		protected.GET("/archive", rooms.ListArchive)
		protected.GET("/archive/:code", rooms.GetArchive)
	}

	ws := NewWSHandler(svc, tokens, m, WSOptions{
		Location:        loc,
		MaxMessageBytes: cfg.MaxMessageBytes,
		RateLimitPerMin: cfg.RateLimitPerMin,
	}, logger)

	// The websocket handler hijacks the connection itself, which gin's
	// response writer refuses once the upgrade status is written.
	mux := stdhttp.NewServeMux()
	mux.Handle("/ws", ws)
	mux.Handle("/", router)

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
