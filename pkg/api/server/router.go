// Package server assembles the HTTP router.
package server

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"financial_catalog/pkg/api/financials"
	"financial_catalog/pkg/api/viewer"
	"financial_catalog/pkg/core/logger"
)

type RouterConfig struct {
	AllowOrigins      []string
	FinancialsHandler *financials.Handler
	ViewerHandler     *viewer.Handler
	Logger            *logger.Logger
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), requestLog(logger.OrNop(cfg.Logger)))

	// Cors
	cc := cors.Config{
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", "X-Requested-With"},
		MaxAge:       12 * time.Hour,
	}
	if len(cfg.AllowOrigins) == 0 || slices.Contains(cfg.AllowOrigins, "*") {
		cc.AllowAllOrigins = true
	} else {
		cc.AllowOrigins = cfg.AllowOrigins
		cc.AllowCredentials = true
	}
	router.Use(cors.New(cc))

	cfg.FinancialsHandler.Register(router)
	if cfg.ViewerHandler != nil {
		cfg.ViewerHandler.Register(router)
	}
	return router
}

func requestLog(log *logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Info("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
