package http

import (
	"log/slog"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/adapter/http/middleware"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/adapter/repo"
	"github.com/istaaklogisquare-source/ebook-bot-clean/internal/logging"
)

func NewRouter(pages *PagesHandler, store *repo.Store, httpLog *slog.Logger) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.MetricsMiddleware())
	r.Use(middleware.Logging(httpLog))

	r.GET("/healthz", func(c *gin.Context) {
		if err := store.Ping(c.Request.Context()); err != nil {
			logging.From(c).Warn("health check failed", "err", err)
			c.JSON(503, gin.H{"ok": false})
			return
		}
		c.JSON(200, gin.H{"ok": true})
	})
	// Prometheus endpoint (scraped by Prometheus)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	r.GET("/success", pages.Success)
	r.GET("/cancel", pages.Cancel)
	r.GET("/files/:name", pages.File)

	return r
}
