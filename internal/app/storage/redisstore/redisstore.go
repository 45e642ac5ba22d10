// Package redisstore backs the session and selection stores with Redis.
// Hosted (backend-for-frontend) deployments use it so customer state survives
// process restarts and is shared across replicas.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/squadbid/storefront/internal/app/domain/agent"
	"github.com/squadbid/storefront/internal/app/domain/session"
	"github.com/squadbid/storefront/internal/app/storage"
)

// expiredSessionGrace is how long an already-expired session stays readable.
const expiredSessionGrace = time.Hour

// Store persists sessions and collection-point selections under a customer
// key prefix.
type Store struct {
	client *redis.Client
	prefix string
}

var _ storage.SessionStore = (*Store)(nil)
var _ storage.SelectionStore = (*Store)(nil)

// New creates a store for the given customer key prefix.
func New(client *redis.Client, prefix string) *Store {
	if prefix == "" {
		prefix = "storefront"
	}
	return &Store{client: client, prefix: prefix}
}

func (s *Store) key(kind string) string {
	return s.prefix + ":" + kind
}

func (s *Store) SaveSession(ctx context.Context, sess session.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		// Keep the expired record around briefly so readers see an expired
		// session rather than no session at all.
		ttl = expiredSessionGrace
	}
	return s.client.Set(ctx, s.key("session"), data, ttl).Err()
}

func (s *Store) GetSession(ctx context.Context) (session.Session, error) {
	data, err := s.client.Get(ctx, s.key("session")).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Session{}, storage.ErrNotFound
	}
	if err != nil {
		return session.Session{}, fmt.Errorf("get session: %w", err)
	}
	var sess session.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return session.Session{}, fmt.Errorf("unmarshal session: %w", err)
	}
	return sess, nil
}

func (s *Store) DeleteSession(ctx context.Context) error {
	return s.client.Del(ctx, s.key("session")).Err()
}

func (s *Store) SaveSelection(ctx context.Context, sel agent.Selection) error {
	data, err := json.Marshal(sel)
	if err != nil {
		return fmt.Errorf("marshal selection: %w", err)
	}
	// Selections have no natural expiry; the customer changes them explicitly.
	return s.client.Set(ctx, s.key("selection"), data, 0).Err()
}

func (s *Store) GetSelection(ctx context.Context) (agent.Selection, error) {
	data, err := s.client.Get(ctx, s.key("selection")).Bytes()
	if errors.Is(err, redis.Nil) {
		return agent.Selection{}, storage.ErrNotFound
	}
	if err != nil {
		return agent.Selection{}, fmt.Errorf("get selection: %w", err)
	}
	var sel agent.Selection
	if err := json.Unmarshal(data, &sel); err != nil {
		return agent.Selection{}, fmt.Errorf("unmarshal selection: %w", err)
	}
	return sel, nil
}
