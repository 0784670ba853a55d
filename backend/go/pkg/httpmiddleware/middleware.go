package httpmiddleware

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"LOTR_RAG/backend/go/internal/models"
	"LOTR_RAG/backend/go/pkg/circuitbreaker"
	"LOTR_RAG/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// RateLimit rejects requests with 429 once limiter has no tokens left.
func RateLimit(limiter *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{Error: "Too many requests"})
			return
		}
		c.Next()
	}
}

// CircuitBreak counts 5xx responses against breaker and answers 503 while it
// is open.
func CircuitBreak(breaker *circuitbreaker.Breaker) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := breaker.Execute(func() error {
			c.Next()
			if status := c.Writer.Status(); status >= http.StatusInternalServerError {
				return fmt.Errorf("server error: status code %d", status)
			}
			return nil
		})
		if errors.Is(err, circuitbreaker.ErrCircuitOpen) || errors.Is(err, circuitbreaker.ErrTooManyRequests) {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable, models.ErrorResponse{Error: "Service unavailable"})
		}
	}
}

// Timeout bounds the request context; handlers pass it to every downstream call.
func Timeout(d time.Duration) gin.HandlerFunc {
	return func(c *gin.Context) {
		if d <= 0 {
			c.Next()
			return
		}
		ctx, cancel := context.WithTimeout(c.Request.Context(), d)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// RequestLogger writes one access log line per request.
func RequestLogger(log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		l := log.WithRequest(models.RequestInfo{
			Method:     c.Request.Method,
			Path:       c.Request.URL.Path,
			RemoteAddr: c.ClientIP(),
			UserAgent:  c.Request.UserAgent(),
			StatusCode: c.Writer.Status(),
			LatencyMS:  time.Since(start).Milliseconds(),
		})
		msg := fmt.Sprintf("%s %s %d", c.Request.Method, c.Request.URL.Path, c.Writer.Status())
		if c.Writer.Status() >= http.StatusInternalServerError {
			l.Error(msg)
			return
		}
		l.Info(msg)
	}
}
