package middleware

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// CircuitBreaker sheds load at the API edge when the handler chain keeps
// failing. Provider-level breakers live in the AI client; this one protects
// the whole request path.
func CircuitBreaker(log *zap.Logger) fiber.Handler {
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "conversia-api",
		MaxRequests: 3,
		Interval:    time.Minute,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 3 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			log.Warn("Circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})

	return func(c *fiber.Ctx) error {
		_, err := cb.Execute(func() (interface{}, error) {
			return nil, c.Next()
		})

		if err == gobreaker.ErrOpenState {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error": "Service temporarily unavailable",
			})
		}

		return err
	}
}
