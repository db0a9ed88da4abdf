// README: Redis-backed per-key leases serializing order creation.
package locks

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrBusy = errors.New("key is locked by a concurrent request")

const (
	keyPrefix = "tableside:lock:"
	leaseTTL  = 5 * time.Second
	retryWait = 25 * time.Millisecond
	attempts  = 20
)

// releaseScript deletes the lease only while our token still holds it, so
// a release that outlives its TTL cannot evict the next holder's lease.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0`)

// Manager hands out short leases keyed by table number or customer id.
// The lease scopes the check-then-insert in order creation; the store's
// unique indexes stay the authority if a lease expires mid-flight.
type Manager struct {
	redis *redis.Client
}

func NewManager(redis *redis.Client) *Manager {
	return &Manager{redis: redis}
}

// Acquire takes the lease for key, retrying briefly, and returns a release
// function. Callers must release promptly; the TTL only bounds leaks from
// crashed requests.
func (m *Manager) Acquire(ctx context.Context, key string) (func(), error) {
	full := keyPrefix + key
	token := newToken()
	for i := 0; i < attempts; i++ {
		ok, err := m.redis.SetNX(ctx, full, token, leaseTTL).Result()
		if err != nil {
			return nil, err
		}
		if ok {
			return func() {
				_ = releaseScript.Run(context.Background(), m.redis, []string{full}, token).Err()
			}, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryWait):
		}
	}
	return nil, ErrBusy
}

func newToken() string {
	var b [16]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}
