package middlewares

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/openmined/davbox/internal/server/auth"
	"github.com/openmined/davbox/internal/server/handlers/api"
)

const UserKey = "user"

// BasicAuth requires valid HTTP Basic credentials on every request and
// answers anything else with a 401 challenge for realm.
func BasicAuth(authn auth.Authenticator, realm string) gin.HandlerFunc {
	challenge := `Basic realm="` + realm + `"`

	return func(ctx *gin.Context) {
		username, password, ok := ctx.Request.BasicAuth()
		if !ok {
			ctx.Header("WWW-Authenticate", challenge)
			api.AbortWithStatus(ctx, http.StatusUnauthorized)
			return
		}

		if err := authn.Authenticate(ctx.Request.Context(), username, password); err != nil {
			ctx.Header("WWW-Authenticate", challenge)
			api.AbortWithError(ctx, err)
			return
		}

		ctx.Set(UserKey, username)
		ctx.Next()
	}
}

// GetUser returns the authenticated user, if any.
func GetUser(ctx *gin.Context) string {
	return ctx.GetString(UserKey)
}
