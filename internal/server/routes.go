package server

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openmined/davbox/internal/server/handlers/dav"
	"github.com/openmined/davbox/internal/server/middlewares"
)

// SetupRoutes builds the WebDAV engine. Every path belongs to the dav handler,
// so the middleware chain applies uniformly to all of them, 405s included.
func SetupRoutes(config *Config, svc *Services) (http.Handler, error) {
	r := gin.New()
	r.ContextWithFallback = true

	r.Use(middlewares.Recovery())
	r.Use(middlewares.Logger())

	if config.HTTP.CORS {
		r.Use(middlewares.CORS())
	}
	if config.HTTP.SecurityHeaders {
		r.Use(middlewares.SecurityHeaders(config.HTTP.TLS()))
	}
	if config.HTTP.RateLimit != "" {
		limiter, err := middlewares.RateLimiter(config.HTTP.RateLimit)
		if err != nil {
			return nil, fmt.Errorf("rate limiter: %w", err)
		}
		r.Use(limiter)
	}
	if config.HTTP.GZIP {
		r.Use(middlewares.GZIP())
	}

	if config.Auth.Enabled {
		r.Use(middlewares.BasicAuth(svc.Auth, config.Auth.Realm))
	}
	r.Use(svc.AccessLog.Middleware(middlewares.GetUser, func(c *gin.Context) string {
		if t, ok := middlewares.GetTarget(c); ok {
			return t.Href
		}
		return ""
	}))
	r.Use(middlewares.Sandbox(svc.Resolver))

	dav.New(svc.Hide).Register(r)

	return r.Handler(), nil
}

func init() {
	gin.SetMode(gin.ReleaseMode)
}
