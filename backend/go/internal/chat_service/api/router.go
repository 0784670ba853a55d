package api

import (
	"fmt"
	"time"

	"LOTR_RAG/backend/go/internal/config"
	"LOTR_RAG/backend/go/pkg/circuitbreaker"
	"LOTR_RAG/backend/go/pkg/httpmiddleware"
	"LOTR_RAG/backend/go/pkg/logger"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
)

// NewRouter builds the engine with logging and recovery on every route. The
// rate limiter, circuit breaker and request timeout guard only /api.
func NewRouter(api *API, mw config.MiddlewareConfig, requestTimeout time.Duration, log logger.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), httpmiddleware.RequestLogger(log))

	router.GET("/healthz", api.HealthHandler)

	chat := router.Group("/api")
	if mw.RateLimiter.Enabled {
		chat.Use(httpmiddleware.RateLimit(rate.NewLimiter(rate.Limit(mw.RateLimiter.Rate), mw.RateLimiter.Burst)))
	}
	if mw.CircuitBreaker.Enabled {
		breaker := circuitbreaker.New(circuitbreaker.Settings{
			Name:             "chat",
			FailureThreshold: mw.CircuitBreaker.FailureThreshold,
			SuccessThreshold: mw.CircuitBreaker.SuccessThreshold,
			Timeout:          mw.CircuitBreaker.Timeout,
			OnStateChange: func(name string, from, to circuitbreaker.State) {
				log.Warn(fmt.Sprintf("Circuit breaker '%s' changed from %s to %s", name, from, to))
			},
		})
		chat.Use(httpmiddleware.CircuitBreak(breaker))
	}
	chat.Use(httpmiddleware.Timeout(requestTimeout))
	{
		chat.POST("/chat", api.ChatHandler)
	}

	return router
}
