package middlewares

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"

	mgin "github.com/ulule/limiter/v3/drivers/middleware/gin"
)

// RateLimiter limits requests per client IP. formattedRate uses the limiter
// notation, e.g. "100-S" or "1000-M".
func RateLimiter(formattedRate string) (gin.HandlerFunc, error) {
	rate, err := limiter.NewRateFromFormatted(formattedRate)
	if err != nil {
		return nil, fmt.Errorf("invalid rate %q: %w", formattedRate, err)
	}

	store := memory.NewStore()
	return mgin.NewMiddleware(
		limiter.New(store, rate),
		mgin.WithLimitReachedHandler(func(c *gin.Context) {
			c.String(http.StatusTooManyRequests, http.StatusText(http.StatusTooManyRequests))
		}),
		mgin.WithErrorHandler(func(c *gin.Context, err error) {
			slog.Error("rate limiter failure", "error", err)
			c.String(http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		}),
	), nil
}
