package middleware

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/time/rate"

	"github.com/cds-scoring-engine/internal/domain"
)

// DefaultMaxClients bounds how many per-client buckets are tracked at once.
// The least recently seen client is evicted first.
const DefaultMaxClients = 10000

// RateLimiter keeps one token bucket per client IP.
type RateLimiter struct {
	limit   rate.Limit
	burst   int
	clients *lru.Cache
	mu      sync.Mutex
}

// NewRateLimiter creates a limiter allowing rps requests per second per client
// with the given burst.
func NewRateLimiter(rps float64, burst, maxClients int) (*RateLimiter, error) {
	if rps <= 0 || burst <= 0 {
		return nil, fmt.Errorf("rate limit requires positive rate and burst, got %v/%d", rps, burst)
	}
	if maxClients <= 0 {
		maxClients = DefaultMaxClients
	}

	clients, err := lru.New(maxClients)
	if err != nil {
		return nil, fmt.Errorf("creating client cache: %w", err)
	}

	return &RateLimiter{
		limit:   rate.Limit(rps),
		burst:   burst,
		clients: clients,
	}, nil
}

// Allow reports whether the client may make a request now.
func (rl *RateLimiter) Allow(clientID string) bool {
	rl.mu.Lock()
	limiter, ok := rl.clients.Get(clientID)
	if !ok {
		limiter = rate.NewLimiter(rl.limit, rl.burst)
		rl.clients.Add(clientID, limiter)
	}
	rl.mu.Unlock()

	return limiter.(*rate.Limiter).Allow()
}

// Clients returns the number of tracked clients.
func (rl *RateLimiter) Clients() int {
	return rl.clients.Len()
}

// Middleware rejects requests over the limit with 429 RATE_LIMIT_EXCEEDED.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if rl.Allow(c.ClientIP()) {
			c.Next()
			return
		}

		c.Header("Retry-After", "1")
		c.AbortWithStatusJSON(http.StatusTooManyRequests, domain.NewErrorResponse(
			domain.ErrCodeRateLimit,
			"rate limit exceeded",
			"",
			GetCorrelationID(c),
		))
	}
}
