package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// 角色由组织的认证服务写进会话，这里只消费
const (
	RoleMember = "member"
	RoleStaff  = "staff"
)

// ErrNoSession is returned when a token resolves to nothing.
var ErrNoSession = errors.New("no session")

// Resolver turns a bearer token into the identity and role attached to it.
// Delete revokes a single token (logout); issuing tokens stays with the auth
// service.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*AppSession, error)
	Delete(ctx context.Context, token string) error
}

type AppSession struct {
	UserID    string `json:"uid"`
	Role      string `json:"role"`
	IssuedAt  int64  `json:"iat"`
	ExpiresAt int64  `json:"exp"`
}

func (as *AppSession) Staff() bool { return as.Role == RoleStaff }

// AppSessionStore reads and writes the session schema shared with the auth
// service: app:sess:<token> plus a per-user session set.
type AppSessionStore struct {
	rdb *redis.Client
	ttl time.Duration
}

var _ Resolver = (*AppSessionStore)(nil)

func NewAppSessionStore(rdb *redis.Client, ttl time.Duration) *AppSessionStore {
	return &AppSessionStore{rdb: rdb, ttl: ttl}
}

func key(id string) string         { return fmt.Sprintf("app:sess:%s", id) }
func userSetKey(uid string) string { return fmt.Sprintf("app:user_sessions:%s", uid) }

func (s *AppSessionStore) Create(ctx context.Context, id, userID, role string) error {
	now := time.Now()
	b, _ := json.Marshal(AppSession{
		UserID:    userID,
		Role:      role,
		IssuedAt:  now.Unix(),
		ExpiresAt: now.Add(s.ttl).Unix(),
	})
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, key(id), b, s.ttl)
	pipe.SAdd(ctx, userSetKey(userID), id)
	pipe.Expire(ctx, userSetKey(userID), s.ttl)
	_, err := pipe.Exec(ctx)
	return err
}

func (s *AppSessionStore) Resolve(ctx context.Context, token string) (*AppSession, error) {
	b, err := s.rdb.Get(ctx, key(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, err
	}
	var as AppSession
	if err := json.Unmarshal(b, &as); err != nil {
		return nil, err
	}
	return &as, nil
}

func (s *AppSessionStore) Delete(ctx context.Context, token string) error {
	as, _ := s.Resolve(ctx, token) // 忽略失败
	pipe := s.rdb.TxPipeline()
	pipe.Del(ctx, key(token))
	if as != nil {
		pipe.SRem(ctx, userSetKey(as.UserID), token)
	}
	_, err := pipe.Exec(ctx)
	return err
}
