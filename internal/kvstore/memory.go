package kvstore

import (
	"context"
	"encoding/json"
	"strings"
	"sync"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mystik-app/backend/pkg/apperr"
)

const memorySep = "\x00"

// Memory is an in-process Store for local runs and tests. Values never expire.
type Memory struct {
	mu    sync.RWMutex
	cache *gocache.Cache
}

// NewMemory creates an empty in-process store.
func NewMemory() *Memory {
	return &Memory{cache: gocache.New(gocache.NoExpiration, 0)}
}

func memoryKey(b Bucket, key string) string {
	return string(b) + memorySep + key
}

func (m *Memory) Get(ctx context.Context, b Bucket, key string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Store("get", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.cache.Get(memoryKey(b, key))
	if !ok {
		return nil, apperr.ErrNotFound
	}
	return cloneRaw(v.(json.RawMessage)), nil
}

func (m *Memory) Set(ctx context.Context, b Bucket, key string, value json.RawMessage) error {
	return m.Apply(ctx, Put(b, key, value))
}

func (m *Memory) Delete(ctx context.Context, b Bucket, key string) error {
	return m.Apply(ctx, Del(b, key))
}

func (m *Memory) Scan(ctx context.Context, b Bucket, prefix string) ([]Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, apperr.Store("scan", err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	full := memoryKey(b, prefix)
	var out []Entry
	for k, item := range m.cache.Items() {
		if !strings.HasPrefix(k, full) {
			continue
		}
		out = append(out, Entry{
			Key:   strings.TrimPrefix(k, string(b)+memorySep),
			Value: cloneRaw(item.Object.(json.RawMessage)),
		})
	}
	return out, nil
}

func (m *Memory) Apply(ctx context.Context, ops ...Op) error {
	if err := ctx.Err(); err != nil {
		return apperr.Store("apply", err)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, op := range ops {
		if op.Delete {
			m.cache.Delete(memoryKey(op.Bucket, op.Key))
			continue
		}
		m.cache.Set(memoryKey(op.Bucket, op.Key), cloneRaw(op.Value), gocache.NoExpiration)
	}
	return nil
}

func (m *Memory) Ping(ctx context.Context) error { return ctx.Err() }

func (m *Memory) Close() error {
	m.cache.Flush()
	return nil
}

func cloneRaw(v json.RawMessage) json.RawMessage {
	out := make(json.RawMessage, len(v))
	copy(out, v)
	return out
}
