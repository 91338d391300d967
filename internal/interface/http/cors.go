package http

import (
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// corsMiddleware lets the browser frontend call the API. An empty list or a
// "*" entry allows every origin. A list with no usable http(s) origin allows
// none.
func corsMiddleware(allowed []string) gin.HandlerFunc {
	return cors.New(corsConfig(allowed))
}

func corsConfig(allowed []string) cors.Config {
	cfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Authorization", adminTokenHeader},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	origins, all := allowedOrigins(allowed)
	switch {
	case all:
		cfg.AllowAllOrigins = true
	case len(origins) == 0:
		cfg.AllowOriginFunc = func(string) bool { return false }
	default:
		cfg.AllowOrigins = origins
	}
	return cfg
}

func allowedOrigins(allowed []string) (origins []string, all bool) {
	configured := false
	for _, candidate := range allowed {
		candidate = strings.TrimSpace(candidate)
		if candidate == "" {
			continue
		}
		configured = true
		if candidate == "*" {
			return nil, true
		}
		lower := strings.ToLower(candidate)
		if strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://") {
			origins = append(origins, strings.TrimSuffix(candidate, "/"))
		}
	}
	return origins, !configured
}
