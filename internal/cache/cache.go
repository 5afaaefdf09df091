// Package cache keeps the active policy version in Redis so every gate
// evaluation does not hit the database.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/logger"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/policy"
	"github.com/Ox-in-Chair/ohisee-configuration-project-sub002/internal/schema"
)

// ActiveKey holds the JSON-encoded active policy version.
const ActiveKey = "qualitygate:policy:active"

// DefaultTTL bounds how stale a replica's view of the active policy can get
// when a publish happens elsewhere.
const DefaultTTL = 5 * time.Minute

// Client is the subset of *redis.Client the cache needs.
type Client interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

// Recorder counts cache lookups by result: hit, miss or error.
type Recorder interface {
	PolicyCache(result string)
}

// PolicyStore is a read-through cache in front of a policy.Store. Redis
// failures are logged and fall through to the underlying store.
type PolicyStore struct {
	next    policy.Store
	rdb     Client
	ttl     time.Duration
	log     *logger.Logger
	metrics Recorder
}

var _ policy.Store = (*PolicyStore)(nil)

// NewPolicyStore wraps next. A non-positive ttl uses DefaultTTL.
func NewPolicyStore(next policy.Store, rdb Client, ttl time.Duration, log *logger.Logger, metrics Recorder) *PolicyStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if log == nil {
		log = logger.Nop()
	}
	return &PolicyStore{next: next, rdb: rdb, ttl: ttl, log: log.With("component", "PolicyCache"), metrics: metrics}
}

// NewClient connects to addr and pings it.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, err
	}
	return rdb, nil
}

func (s *PolicyStore) ReadActive(ctx context.Context) (*schema.PolicyVersion, error) {
	raw, err := s.rdb.Get(ctx, ActiveKey).Bytes()
	switch {
	case err == nil:
		var v schema.PolicyVersion
		if jerr := json.Unmarshal(raw, &v); jerr == nil {
			s.record("hit")
			return &v, nil
		}
		s.log.Warn("discarding unreadable cached policy")
		s.record("error")
	case errors.Is(err, redis.Nil):
		s.record("miss")
	default:
		s.log.Warn("policy cache read failed", "error", err)
		s.record("error")
	}

	v, err := s.next.ReadActive(ctx)
	if err != nil || v == nil {
		return v, err
	}
	data, err := json.Marshal(v)
	if err != nil {
		return v, nil
	}
	if err := s.rdb.Set(ctx, ActiveKey, data, s.ttl).Err(); err != nil {
		s.log.Warn("policy cache write failed", "error", err)
	}
	return v, nil
}

func (s *PolicyStore) ReadMostRecentVersion(ctx context.Context) (string, error) {
	return s.next.ReadMostRecentVersion(ctx)
}

// Publish writes through and drops the cached active version.
func (s *PolicyStore) Publish(ctx context.Context, v schema.PolicyVersion, createdBy string) (schema.PolicyVersion, error) {
	out, err := s.next.Publish(ctx, v, createdBy)
	if err != nil {
		return out, err
	}
	if err := s.rdb.Del(ctx, ActiveKey).Err(); err != nil {
		s.log.Warn("policy cache invalidation failed", "error", err, "version", out.Version)
	}
	return out, nil
}

func (s *PolicyStore) record(result string) {
	if s.metrics != nil {
		s.metrics.PolicyCache(result)
	}
}
