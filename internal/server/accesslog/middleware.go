package accesslog

import (
	"time"

	"github.com/gin-gonic/gin"
)

// Middleware records every request after the handler chain has finished.
// userFor extracts the authenticated user, pathFor the logical path. When
// pathFor returns "" the raw URL path is used.
func (al *AccessLogger) Middleware(userFor, pathFor func(*gin.Context) string) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		start := time.Now()
		ctx.Next()

		user := ""
		if userFor != nil {
			user = userFor(ctx)
		}

		p := ""
		if pathFor != nil {
			p = pathFor(ctx)
		}
		if p == "" {
			p = ctx.Request.URL.Path
		}

		al.Log(Entry{
			Timestamp:  start,
			User:       user,
			Method:     ctx.Request.Method,
			Path:       p,
			AccessType: AccessTypeForMethod(ctx.Request.Method),
			StatusCode: ctx.Writer.Status(),
			Bytes:      max(ctx.Writer.Size(), 0),
			Duration:   time.Since(start),
			IP:         ctx.ClientIP(),
			UserAgent:  ctx.Request.UserAgent(),
		})
	}
}
