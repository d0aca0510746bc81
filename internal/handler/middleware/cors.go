package middleware

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// NewCORS разрешает указанные origin; "*" или пустой список открывает API для всех.
func NewCORS(allowOrigins []string) gin.HandlerFunc {
	cfg := cors.Config{
		AllowMethods:  []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", requestIDHeader},
		ExposeHeaders: []string{requestIDHeader, "X-RateLimit-Remaining"},
		MaxAge:        12 * time.Hour,
	}

	allowAll := len(allowOrigins) == 0
	for _, origin := range allowOrigins {
		if origin == "*" {
			allowAll = true
		}
	}
	if allowAll {
		cfg.AllowAllOrigins = true
	} else {
		cfg.AllowOrigins = allowOrigins
	}

	return cors.New(cfg)
}
