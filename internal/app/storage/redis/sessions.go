// Package redisstore stores sessions in Redis with per-key TTLs.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/R3E-Network/todo_service/internal/app/domain/session"
	"github.com/R3E-Network/todo_service/internal/app/storage"
)

// SessionStore keeps each session under "<prefix>sess:<id>" with a TTL equal to
// the time left before expiry, and indexes session ids per user email in a set
// so every device can be logged out at once.
type SessionStore struct {
	client *redis.Client
	prefix string
	now    func() time.Time
}

var _ storage.SessionStore = (*SessionStore)(nil)
var _ storage.Pinger = (*SessionStore)(nil)

// Dial parses a redis:// URL and returns a connected client.
func Dial(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

// NewSessionStore creates a SessionStore on client.
func NewSessionStore(client *redis.Client, prefix string) *SessionStore {
	return &SessionStore{client: client, prefix: prefix, now: time.Now}
}

func (s *SessionStore) sessionKey(id string) string {
	return s.prefix + "sess:" + id
}

func (s *SessionStore) emailKey(email string) string {
	return s.prefix + "sess-email:" + email
}

// Ping checks the redis connection.
func (s *SessionStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *SessionStore) SaveSession(ctx context.Context, rec session.Record) error {
	ttl := rec.ExpiresAt.Sub(s.now())
	if ttl <= 0 {
		return fmt.Errorf("session %s already expired", rec.ID)
	}
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	// The email index lives as long as its longest session.
	indexTTL := ttl
	if rec.User.Email != "" {
		cur, err := s.client.PTTL(ctx, s.emailKey(rec.User.Email)).Result()
		if err != nil {
			return err
		}
		if cur > indexTTL {
			indexTTL = cur
		}
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.sessionKey(rec.ID), data, ttl)
		if rec.User.Email != "" {
			pipe.SAdd(ctx, s.emailKey(rec.User.Email), rec.ID)
			pipe.PExpire(ctx, s.emailKey(rec.User.Email), indexTTL)
		}
		return nil
	})
	return err
}

func (s *SessionStore) GetSession(ctx context.Context, id string) (session.Record, error) {
	data, err := s.client.Get(ctx, s.sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return session.Record{}, storage.ErrNotFound
	}
	if err != nil {
		return session.Record{}, err
	}

	var rec session.Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return session.Record{}, err
	}
	if rec.Expired(s.now()) {
		return session.Record{}, storage.ErrNotFound
	}
	return rec, nil
}

func (s *SessionStore) DeleteSession(ctx context.Context, id string) error {
	rec, err := s.GetSession(ctx, id)
	if errors.Is(err, storage.ErrNotFound) {
		return s.client.Del(ctx, s.sessionKey(id)).Err()
	}
	if err != nil {
		return err
	}

	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.sessionKey(id))
		pipe.SRem(ctx, s.emailKey(rec.User.Email), id)
		return nil
	})
	return err
}

func (s *SessionStore) DeleteSessionsByEmail(ctx context.Context, email string) (int64, error) {
	ids, err := s.client.SMembers(ctx, s.emailKey(email)).Result()
	if err != nil {
		return 0, err
	}

	var removed int64
	if len(ids) > 0 {
		keys := make([]string, 0, len(ids))
		for _, id := range ids {
			keys = append(keys, s.sessionKey(id))
		}
		removed, err = s.client.Del(ctx, keys...).Result()
		if err != nil {
			return 0, err
		}
	}
	if err := s.client.Del(ctx, s.emailKey(email)).Err(); err != nil {
		return removed, err
	}
	return removed, nil
}
