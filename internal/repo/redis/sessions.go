package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/klaape/klaape-api/internal/domain/session"
	"github.com/redis/go-redis/v9"
)

const keyPrefix = "session:"

type SessionsRepo struct {
	rdb *redis.Client
}

func NewSessionsRepo(rdb *redis.Client) *SessionsRepo {
	return &SessionsRepo{rdb: rdb}
}

func SessionKey(id string) string {
	return keyPrefix + id
}

func (r *SessionsRepo) Create(ctx context.Context, s session.Session) error {
	ttl := time.Until(s.ExpiresAt)
	if ttl <= 0 {
		return errors.New("session already expired")
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}

	return r.rdb.Set(ctx, SessionKey(s.ID), raw, ttl).Err()
}

func (r *SessionsRepo) Get(ctx context.Context, id string) (session.Session, error) {
	raw, err := r.rdb.Get(ctx, SessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return session.Session{}, session.ErrNotFound
		}
		return session.Session{}, err
	}

	var s session.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return session.Session{}, err
	}
	return s, nil
}

// Delete is idempotent: removing a missing session is not an error.
func (r *SessionsRepo) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, SessionKey(id)).Err()
}
