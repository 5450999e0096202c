package api

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RateLimiter tracks request rates per IP
type RateLimiter struct {
	requests map[string]*RequestCounter
	limit    int
	window   time.Duration
	mu       sync.Mutex

	stop     chan struct{}
	stopOnce sync.Once
}

// RequestCounter tracks requests for an IP
type RequestCounter struct {
	count     int
	resetTime time.Time
}

// NewRateLimiter creates a new rate limiter. A limit of zero or less
// disables limiting.
func NewRateLimiter(requestsPerMinute int) *RateLimiter {
	limiter := &RateLimiter{
		requests: make(map[string]*RequestCounter),
		limit:    requestsPerMinute,
		window:   time.Minute,
		stop:     make(chan struct{}),
	}

	go limiter.cleanup()

	return limiter
}

// Allow checks if a request should be allowed
func (rl *RateLimiter) Allow(ip string) bool {
	if rl.limit <= 0 {
		return true
	}

	rl.mu.Lock()
	defer rl.mu.Unlock()

	counter, exists := rl.requests[ip]
	if !exists {
		rl.requests[ip] = &RequestCounter{
			count:     1,
			resetTime: time.Now().Add(rl.window),
		}
		return true
	}

	if time.Now().After(counter.resetTime) {
		counter.count = 1
		counter.resetTime = time.Now().Add(rl.window)
		return true
	}

	if counter.count >= rl.limit {
		return false
	}

	counter.count++
	return true
}

// Stop ends the cleanup loop
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.stop) })
}

// cleanup removes old entries periodically
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-rl.stop:
			return
		case <-ticker.C:
		}

		rl.mu.Lock()
		now := time.Now()
		for ip, counter := range rl.requests {
			if now.After(counter.resetTime) {
				delete(rl.requests, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimitMiddleware applies rate limiting
func RateLimitMiddleware(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			c.JSON(http.StatusTooManyRequests, ErrorResponse{
				Error:   "Rate limit exceeded",
				Message: fmt.Sprintf("Maximum %d requests per minute", limiter.limit),
			})
			c.Abort()
			return
		}

		c.Next()
	}
}

// LoggingMiddleware logs HTTP requests
func LoggingMiddleware(logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		c.Next()

		logger.Debug("request",
			zap.Int("status", c.Writer.Status()),
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Duration("latency", time.Since(startTime)))
	}
}

// ErrorResponse is a standard error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    string `json:"code,omitempty"`
}

// SuccessResponse is a standard success response
type SuccessResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Message string      `json:"message,omitempty"`
}
