package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Recovery turns a panic in any later handler into a generic 500.
func Recovery() gin.HandlerFunc {
	return gin.CustomRecovery(func(c *gin.Context, recovered any) {
		slog.Error("panic while handling request", "method", c.Request.Method, "path", c.Request.URL.Path, "panic", recovered)
		c.Error(fmt.Errorf("panic: %v", recovered))
		c.AbortWithStatus(http.StatusInternalServerError)
		c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
	})
}
