package routers

import (
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/relayview-io/relayview/internal/handlers"
	"github.com/relayview-io/relayview/internal/models"
)

// Limiter bounds concurrent executions with a counting semaphore.
type Limiter struct {
	limit chan struct{}
}

func NewLimiter(maxConcurrency int) Limiter {
	return Limiter{
		limit: make(chan struct{}, maxConcurrency),
	}
}

// TryDo runs f if a slot is free, otherwise returns false immediately.
func (c *Limiter) TryDo(f func()) bool {
	select {
	case c.limit <- struct{}{}:
		defer func() {
			<-c.limit
		}()
		f()
		return true
	default:
		return false
	}
}

type userLimiter struct {
	refs    int
	limiter Limiter
}

// ConcurrencyLimits caps in-flight requests per caller identity so one
// caller cannot starve the others. Limiters are created on first use and
// dropped once the caller has no requests in flight.
type ConcurrencyLimits struct {
	mu      sync.Mutex
	perUser int
	users   map[string]*userLimiter
}

func NewConcurrencyLimits(perUser int) *ConcurrencyLimits {
	return &ConcurrencyLimits{
		perUser: perUser,
		users:   make(map[string]*userLimiter),
	}
}

func (l *ConcurrencyLimits) acquire(userID string) *userLimiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	ul, ok := l.users[userID]
	if !ok {
		ul = &userLimiter{limiter: NewLimiter(l.perUser)}
		l.users[userID] = ul
	}
	ul.refs++
	return ul
}

func (l *ConcurrencyLimits) release(userID string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ul, ok := l.users[userID]
	if !ok {
		return
	}
	ul.refs--
	if ul.refs <= 0 {
		delete(l.users, userID)
	}
}

// Middleware rejects a request with 429 when the caller already has
// perUser requests in flight. It must run after the auth middleware.
func (l *ConcurrencyLimits) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		value, found := c.Get(handlers.AuthIdentityKey)
		if !found {
			c.Next()
			return
		}
		userID := value.(models.Identity).ID

		ul := l.acquire(userID)
		defer l.release(userID)

		if !ul.limiter.TryDo(func() { c.Next() }) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.NewTooManyRequestsError())
		}
	}
}
