// Package audit emits operation events to a fire-and-forget sink. Emission
// failures are logged and never propagate into the operation that produced
// the event.
package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

type Event struct {
	Kind    string // reservation.submit, rotation.assign, ...
	Actor   string
	Subject string // affected record id
	Detail  map[string]string
}

type Sink interface {
	Emit(ctx context.Context, ev Event)
}

// Nop drops every event. Used by tests and the memory dev mode.
type Nop struct{}

func (Nop) Emit(context.Context, Event) {}

const stream = "lsb:audit"

// RedisSink appends events to a capped Redis Stream shared with the org's
// dashboard consumers.
type RedisSink struct {
	rdb *redis.Client
}

func NewRedisSink(rdb *redis.Client) *RedisSink { return &RedisSink{rdb: rdb} }

func (s *RedisSink) Emit(ctx context.Context, ev Event) {
	values := map[string]any{
		"id":      uuid.NewString(),
		"kind":    ev.Kind,
		"actor":   ev.Actor,
		"subject": ev.Subject,
		"at":      time.Now().UTC().Format(time.RFC3339Nano),
	}
	for k, v := range ev.Detail {
		values["d:"+k] = v
	}
	// 请求结束后事件也要发得出去
	err := s.rdb.XAdd(context.WithoutCancel(ctx), &redis.XAddArgs{
		Stream: stream,
		MaxLen: 10000,
		Approx: true,
		Values: values,
	}).Err()
	if err != nil {
		slog.Warn("audit emit failed", "kind", ev.Kind, "subject", ev.Subject, "err", err)
	}
}
