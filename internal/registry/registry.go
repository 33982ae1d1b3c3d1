// Package registry is the Redis-backed Target Registry: the durable set of
// (host, module, port, user_submitted, last_queued_at, last_checked_at)
// rows the Publisher reads and the Chronicler writes (spec §2, C1).
package registry

import (
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v7"
	"github.com/pkg/errors"

	"github.com/zecrocks/hosh/internal/model"
)

// Store is the interface the Publisher depends on, so tests can supply a
// fake registry without a live Redis.
type Store interface {
	ListByModule(module model.Module) ([]model.Target, error)
	Get(hostname string, module model.Module) (*model.Target, error)
	UpdateQueuedAt(hostname string, module model.Module, at time.Time) error
}

// RedisStore implements Store against Redis, using a hash per target keyed
// hosh:target:<module>:<hostname> and a set per module for enumeration via
// SCAN (never blocking KEYS, unlike the source this was distilled from).
type RedisStore struct {
	client *redis.Client
}

// NewRedisStore opens a connection to addr (host:port).
func NewRedisStore(addr string) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping().Err(); err != nil {
		return nil, errors.Wrap(err, "registry: ping redis")
	}
	return &RedisStore{client: client}, nil
}

func targetKey(module model.Module, hostname string) string {
	return fmt.Sprintf("hosh:target:%s:%s", module, hostname)
}

func indexKey(module model.Module) string {
	return fmt.Sprintf("hosh:targets:%s", module)
}

// ListByModule scans every target row registered for module.
func (s *RedisStore) ListByModule(module model.Module) ([]model.Target, error) {
	var hostnames []string
	iter := s.client.SScan(indexKey(module), 0, "", 0).Iterator()
	for iter.Next() {
		hostnames = append(hostnames, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, errors.Wrap(err, "registry: scan target index")
	}

	targets := make([]model.Target, 0, len(hostnames))
	for _, h := range hostnames {
		t, err := s.Get(h, module)
		if err != nil {
			return nil, err
		}
		if t != nil {
			targets = append(targets, *t)
		}
	}
	return targets, nil
}

// Get fetches a single target row, or nil if it doesn't exist.
func (s *RedisStore) Get(hostname string, module model.Module) (*model.Target, error) {
	vals, err := s.client.HGetAll(targetKey(module, hostname)).Result()
	if err != nil {
		return nil, errors.Wrap(err, "registry: hgetall")
	}
	if len(vals) == 0 {
		return nil, nil
	}

	t := &model.Target{Hostname: hostname, Module: module}
	if p, ok := vals["port"]; ok {
		if n, err := strconv.Atoi(p); err == nil {
			t.Port = n
		}
	}
	t.UserSubmitted = vals["user_submitted"] == "1"
	if ts, ok := vals["last_queued_at"]; ok && ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			t.LastQueuedAt = &parsed
		}
	}
	if ts, ok := vals["last_checked_at"]; ok && ts != "" {
		if parsed, err := time.Parse(time.RFC3339, ts); err == nil {
			t.LastCheckedAt = &parsed
		}
	}
	if h, ok := vals["hints"]; ok && h != "" {
		var hints map[string]string
		if err := json.Unmarshal([]byte(h), &hints); err == nil {
			t.Hints = hints
		}
	}
	return t, nil
}

// UpdateQueuedAt advances last_queued_at, the only field the Publisher is
// allowed to write (spec §5: Chronicler is the sole writer of
// last_checked_at).
func (s *RedisStore) UpdateQueuedAt(hostname string, module model.Module, at time.Time) error {
	err := s.client.HSet(targetKey(module, hostname), "last_queued_at", at.UTC().Format(time.RFC3339)).Err()
	return errors.Wrap(err, "registry: update last_queued_at")
}

// AcquirePublisherLease implements SPEC_FULL.md's Open Question 1 decision:
// a registry-held lease so at most one Publisher instance is active per
// module at a time.
func (s *RedisStore) AcquirePublisherLease(module model.Module, owner string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(fmt.Sprintf("hosh:lease:publisher:%s", module), owner, ttl).Result()
	if err != nil {
		return false, errors.Wrap(err, "registry: acquire lease")
	}
	return ok, nil
}

// RenewPublisherLease extends a held lease; callers should stop publishing
// for the cycle if this fails or returns false.
func (s *RedisStore) RenewPublisherLease(module model.Module, owner string, ttl time.Duration) (bool, error) {
	key := fmt.Sprintf("hosh:lease:publisher:%s", module)
	cur, err := s.client.Get(key).Result()
	if err == redis.Nil {
		return s.AcquirePublisherLease(module, owner, ttl)
	}
	if err != nil {
		return false, errors.Wrap(err, "registry: get lease")
	}
	if cur != owner {
		return false, nil
	}
	if err := s.client.Expire(key, ttl).Err(); err != nil {
		return false, errors.Wrap(err, "registry: renew lease")
	}
	return true, nil
}
