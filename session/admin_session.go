package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// AdminSessionStore keeps operator console sessions in Redis. Customers are
// anonymous walk-ups, so this is the only session state in the system.
type AdminSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewAdminSessionStore(rdb *redis.Client, ttl time.Duration) *AdminSessionStore {
	return &AdminSessionStore{rdb: rdb, ttl: ttl}
}

type AdminSession struct {
	IssuedAt  int64 `json:"iat"`
	ExpiresAt int64 `json:"exp"`
}

func key(id string) string { return fmt.Sprintf("admin:sess:%s", id) }

func (s *AdminSessionStore) Create(ctx context.Context, id string) error {
	now := time.Now()
	b, _ := json.Marshal(AdminSession{
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	})
	return s.rdb.Set(ctx, key(id), b, s.ttl).Err()
}

func (s *AdminSessionStore) Get(ctx context.Context, id string) (*AdminSession, error) {
	b, err := s.rdb.Get(ctx, key(id)).Bytes()
	if err != nil {
		return nil, err
	}
	var as AdminSession
	if err := json.Unmarshal(b, &as); err != nil {
		return nil, err
	}
	return &as, nil
}

func (s *AdminSessionStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, key(id)).Err()
}
