package middlewares

import (
	"github.com/gin-gonic/gin"
	"github.com/openmined/davbox/internal/server/handlers/api"
	"github.com/openmined/davbox/internal/webdav"
)

const targetKey = "dav_target"

// Sandbox maps the request path onto the served root before any handler runs.
// Requests that would leave the root are rejected with 403 whatever their method.
func Sandbox(resolver *webdav.Resolver) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		raw := ctx.Request.RequestURI
		if raw == "" {
			raw = ctx.Request.URL.EscapedPath()
		}

		target, err := resolver.Resolve(raw)
		if err != nil {
			api.AbortWithError(ctx, err)
			return
		}

		ctx.Set(targetKey, target)
		ctx.Next()
	}
}

// GetTarget returns the target resolved by Sandbox.
func GetTarget(ctx *gin.Context) (*webdav.Target, bool) {
	v, ok := ctx.Get(targetKey)
	if !ok {
		return nil, false
	}
	t, ok := v.(*webdav.Target)
	return t, ok
}
