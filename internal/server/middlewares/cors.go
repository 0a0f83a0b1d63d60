package middlewares

import (
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// CORS lets browser based WebDAV clients on other origins talk to the server.
func CORS() gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"OPTIONS", "GET", "HEAD", "PUT", "DELETE", "MKCOL", "PROPFIND"},
		AllowHeaders:    []string{"Authorization", "Content-Type", "Content-Length", "Depth", "If-None-Match"},
		ExposeHeaders:   []string{"DAV", "ETag", "Last-Modified", "Content-Length", "Allow"},
		MaxAge:          12 * time.Hour,
	})
}
