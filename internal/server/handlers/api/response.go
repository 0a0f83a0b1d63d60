package api

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// AbortWithError records err on the request and answers with the mapped status
// and its generic status text. The error itself never reaches the client.
func AbortWithError(ctx *gin.Context, err error) {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "method", ctx.Request.Method, "path", ctx.Request.URL.Path, "error", err)
	}

	ctx.Abort()
	ctx.Error(err)
	AbortWithStatus(ctx, status)
}

// AbortWithStatus answers with status and its status text as a plain-text body.
func AbortWithStatus(ctx *gin.Context, status int) {
	ctx.Abort()
	ctx.String(status, http.StatusText(status))
}
