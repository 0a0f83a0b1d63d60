package middlewares

import (
	"github.com/gin-contrib/secure"
	"github.com/gin-gonic/gin"
)

// SecurityHeaders sets the browser hardening headers. HSTS is only sent when
// the server itself terminates TLS.
func SecurityHeaders(tls bool) gin.HandlerFunc {
	cfg := secure.Config{
		IsDevelopment:      false,
		FrameDeny:          true,
		ContentTypeNosniff: true,
		BrowserXssFilter:   true,
		IENoOpen:           true,
		ReferrerPolicy:     "same-origin",
	}
	if tls {
		cfg.STSSeconds = 315360000
		cfg.STSIncludeSubdomains = true
	}
	return secure.New(cfg)
}
