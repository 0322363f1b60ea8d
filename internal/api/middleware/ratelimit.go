package middleware

import (
	"fmt"
	"strconv"

	"github.com/labstack/echo/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/ulule/limiter/v3"
	"github.com/ulule/limiter/v3/drivers/store/memory"
	sredis "github.com/ulule/limiter/v3/drivers/store/redis"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
)

var errRateLimited = domain.NewError(domain.ErrRateLimited, "Too many requests, please try again later")

// NewIPRateLimiter returns middleware limiting each client IP to
// rateFormatted ("20-M" = 20 per minute). Counters live in Redis when rdb is
// set, in memory otherwise. An empty rate disables limiting. name separates
// the counters of different route groups.
func NewIPRateLimiter(name, rateFormatted string, rdb *redis.Client, log zerolog.Logger) (echo.MiddlewareFunc, error) {
	if rateFormatted == "" {
		return noopMiddleware, nil
	}
	rate, err := limiter.NewRateFromFormatted(rateFormatted)
	if err != nil {
		return nil, fmt.Errorf("rate limit %s: %w", name, err)
	}

	prefix := "whisperbox:ratelimit:" + name
	var store limiter.Store
	if rdb != nil {
		store, err = sredis.NewStoreWithOptions(rdb, limiter.StoreOptions{Prefix: prefix})
		if err != nil {
			return nil, fmt.Errorf("rate limit store: %w", err)
		}
	} else {
		store = memory.NewStoreWithOptions(limiter.StoreOptions{Prefix: prefix})
	}
	instance := limiter.New(store, rate)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			lctx, err := instance.Increment(c.Request().Context(), c.RealIP(), 1)
			if err != nil {
				log.Warn().Err(err).Str("limiter", name).Msg("rate limiter unavailable, allowing request")
				return next(c)
			}

			h := c.Response().Header()
			h.Set("X-RateLimit-Limit", strconv.FormatInt(lctx.Limit, 10))
			h.Set("X-RateLimit-Remaining", strconv.FormatInt(lctx.Remaining, 10))
			h.Set("X-RateLimit-Reset", strconv.FormatInt(lctx.Reset, 10))

			if lctx.Reached {
				return errRateLimited
			}
			return next(c)
		}
	}, nil
}

func noopMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return next
}
