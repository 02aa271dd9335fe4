// Package kvstore is a bucketed key → JSON-value store with atomic multi-key writes.
//
// Every backend (PostgreSQL, Redis, SQLite, in-process memory) implements Store.
// Buckets partition entity types so callers never rely on key prefixes alone.
package kvstore

import (
	"context"
	"encoding/json"
	"strings"
)

// Bucket names one entity collection.
type Bucket string

const (
	BucketRegistrations Bucket = "registrations"
	BucketEmailIndex    Bucket = "registration_email_index"
	BucketWaitlist      Bucket = "waitlist"
)

// Entry is a key and its raw JSON value.
type Entry struct {
	Key   string          `json:"key"`
	Value json.RawMessage `json:"value"`
}

// Op is one write inside an atomic Apply. Delete ignores Value.
type Op struct {
	Bucket Bucket
	Key    string
	Value  json.RawMessage
	Delete bool
}

// Put returns a set operation.
func Put(b Bucket, key string, value json.RawMessage) Op {
	return Op{Bucket: b, Key: key, Value: value}
}

// Del returns a delete operation.
func Del(b Bucket, key string) Op {
	return Op{Bucket: b, Key: key, Delete: true}
}

// Store is the key-value contract.
//
// Get returns apperr.ErrNotFound for a missing key. Delete of a missing key is not an error.
// Scan returns every entry of the bucket whose key starts with prefix, in no particular order.
// Apply commits all ops or none. Other failures are *apperr.StoreError.
type Store interface {
	Get(ctx context.Context, b Bucket, key string) (json.RawMessage, error)
	Set(ctx context.Context, b Bucket, key string, value json.RawMessage) error
	Delete(ctx context.Context, b Bucket, key string) error
	Scan(ctx context.Context, b Bucket, prefix string) ([]Entry, error)
	Apply(ctx context.Context, ops ...Op) error
	Ping(ctx context.Context) error
	Close() error
}

// escapeLike escapes LIKE wildcards so prefix is matched literally (ESCAPE '\').
func escapeLike(prefix string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(prefix) + "%"
}
