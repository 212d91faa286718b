package middleware

import (
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/limiter"
	fiberredis "github.com/gofiber/storage/redis/v3"
	"github.com/redis/go-redis/v9"
)

const defaultRequestsPerMinute = 120

func NewLimiterWithRedis(rdb *redis.Client, requestsPerMinute int) fiber.Handler {
	if requestsPerMinute <= 0 {
		requestsPerMinute = defaultRequestsPerMinute
	}
	storage := fiberredis.NewFromConnection(rdb)
	return limiter.New(limiter.Config{
		Storage: storage,

		// sliding window
		Max:               requestsPerMinute,
		Expiration:        time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		// live message streams hold one connection open
		Next: func(c fiber.Ctx) bool {
			return c.Get(fiber.HeaderAccept) == "text/event-stream"
		},
	})
}
