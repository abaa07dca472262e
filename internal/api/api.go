// internal/api/api.go
package api

import (
	"net/http"
	"strings"
	"time"

	"github.com/andresuchdata/stockmax/internal/api/handlers"
	"github.com/andresuchdata/stockmax/internal/api/middleware"
	"github.com/andresuchdata/stockmax/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Services struct {
	StockMaxService *service.StockMaxService
}

// RouterConfig holds the HTTP concerns that come from configuration.
type RouterConfig struct {
	AllowedOrigins []string
	MaxUploadMB    int64
}

func NewRouter(services *Services, cfg RouterConfig) *gin.Engine {
	router := gin.New()

	router.Use(middleware.Logger())
	router.Use(middleware.Recovery())
	maxUploadBytes := cfg.MaxUploadMB << 20
	if maxUploadBytes > 0 {
		router.MaxMultipartMemory = maxUploadBytes
	}

	defaultOrigins := []string{"http://localhost:3000", "http://127.0.0.1:3000"}
	corsConfig := cors.Config{
		AllowOrigins:     defaultOrigins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", "X-Stockmax-Warning"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowedOrigins) > 0 {
		normalizedOrigins, allowAll := normalizeAllowedOrigins(cfg.AllowedOrigins)
		if allowAll {
			corsConfig.AllowOrigins = nil
			corsConfig.AllowOriginFunc = func(origin string) bool { return true }
		} else if len(normalizedOrigins) > 0 {
			corsConfig.AllowOrigins = normalizedOrigins
		}
	}
	router.Use(cors.New(corsConfig))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	apiGroup := router.Group("/api/v1")

	if services != nil && services.StockMaxService != nil {
		stockMaxHandler := handlers.NewStockMaxHandler(services.StockMaxService, maxUploadBytes)
		stockMaxGroup := apiGroup.Group("/stock_max")
		{
			stockMaxGroup.GET("/topology", stockMaxHandler.Topology)
			stockMaxGroup.POST("/compute", stockMaxHandler.Compute)
			stockMaxGroup.POST("/report", stockMaxHandler.Report)
			stockMaxGroup.DELETE("/cache", stockMaxHandler.InvalidateCache)
		}
	}

	return router
}

// normalizeAllowedOrigins flattens comma separated entries; "*" allows every origin.
func normalizeAllowedOrigins(origins []string) ([]string, bool) {
	var (
		parsed   []string
		allowAll bool
	)
	for _, origin := range origins {
		parts := strings.Split(origin, ",")
		for _, part := range parts {
			trimmed := strings.TrimSpace(part)
			if trimmed == "" {
				continue
			}
			if trimmed == "*" {
				allowAll = true
				continue
			}
			parsed = append(parsed, trimmed)
		}
	}
	return parsed, allowAll
}
