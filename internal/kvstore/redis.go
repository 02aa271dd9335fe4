package kvstore

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/mystik-app/backend/pkg/apperr"
)

const redisScanCount = 500

// Redis stores each entry as a string key <prefix>:<bucket>:<key>.
type Redis struct {
	client *redis.Client
	prefix string
}

// NewRedis creates a Store over an existing client. The client is closed by Close.
func NewRedis(client *redis.Client, prefix string) *Redis {
	return &Redis{client: client, prefix: prefix}
}

func (r *Redis) bucketPrefix(b Bucket) string {
	return r.prefix + ":" + string(b) + ":"
}

func (r *Redis) key(b Bucket, key string) string {
	return r.bucketPrefix(b) + key
}

func (r *Redis) Get(ctx context.Context, b Bucket, key string) (json.RawMessage, error) {
	v, err := r.client.Get(ctx, r.key(b, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, apperr.Store("get", err)
	}
	return json.RawMessage(v), nil
}

func (r *Redis) Set(ctx context.Context, b Bucket, key string, value json.RawMessage) error {
	return apperr.Store("set", r.client.Set(ctx, r.key(b, key), []byte(value), 0).Err())
}

func (r *Redis) Delete(ctx context.Context, b Bucket, key string) error {
	return apperr.Store("delete", r.client.Del(ctx, r.key(b, key)).Err())
}

// Scan walks SCAN MATCH cursors, then fetches values with MGET.
// Keys deleted between the two steps are skipped.
func (r *Redis) Scan(ctx context.Context, b Bucket, prefix string) ([]Entry, error) {
	bp := r.bucketPrefix(b)
	match := escapeGlob(bp+prefix) + "*"

	var keys []string
	iter := r.client.Scan(ctx, 0, match, redisScanCount).Iterator()
	for iter.Next(ctx) {
		keys = append(keys, iter.Val())
	}
	if err := iter.Err(); err != nil {
		return nil, apperr.Store("scan", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := r.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, apperr.Store("scan", err)
	}
	out := make([]Entry, 0, len(keys))
	for i, v := range vals {
		s, ok := v.(string)
		if !ok {
			continue
		}
		out = append(out, Entry{Key: strings.TrimPrefix(keys[i], bp), Value: json.RawMessage(s)})
	}
	return out, nil
}

// Apply queues every op inside MULTI/EXEC.
func (r *Redis) Apply(ctx context.Context, ops ...Op) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, op := range ops {
			if op.Delete {
				pipe.Del(ctx, r.key(op.Bucket, op.Key))
				continue
			}
			pipe.Set(ctx, r.key(op.Bucket, op.Key), []byte(op.Value), 0)
		}
		return nil
	})
	return apperr.Store("apply", err)
}

func (r *Redis) Ping(ctx context.Context) error {
	return apperr.Store("ping", r.client.Ping(ctx).Err())
}

func (r *Redis) Close() error {
	return r.client.Close()
}

// escapeGlob escapes Redis MATCH metacharacters.
func escapeGlob(s string) string {
	var sb strings.Builder
	for _, ch := range s {
		switch ch {
		case '*', '?', '[', ']', '\\':
			sb.WriteByte('\\')
		}
		sb.WriteRune(ch)
	}
	return sb.String()
}
