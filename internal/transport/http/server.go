package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/relaychat/relaychat-server/internal/config"
)

// NewServer builds the admin HTTP server exposing health and metrics.
// The chat protocol itself never runs over HTTP.
func NewServer(cfg config.Config, logger *zerolog.Logger) *stdhttp.Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	engine.Use(LoggerMiddleware(logger), gin.Recovery())
	engine.GET("/healthz", healthHandler)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return &stdhttp.Server{
		Addr:    cfg.AdminAddr,
		Handler: engine,
	}
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
