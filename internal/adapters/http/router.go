package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/okvee/parley/internal/config"
)

const pollPath = "/socket.io/"

// corsMiddleware applies the permissive browser policy every response on
// the polling surface has to carry, preflights included.
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Next()
	}
}

func SetupRouter(cfg *config.Config, gw *Gateway, gatherer prometheus.Gatherer) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())

	r.GET(pollPath, gw.HandlePoll)
	r.POST(pollPath, gw.HandleData)
	r.OPTIONS(pollPath, func(c *gin.Context) {
		c.Status(http.StatusNoContent)
	})

	r.POST("/create_room", gw.HandleCreateRoom)

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	r.NoRoute(func(c *gin.Context) {
		c.String(http.StatusNotFound, "not found")
	})

	log.Info().Str("module", "adapters.http").Str("path", pollPath).Msg("router setup")
	return r
}
