package registrations

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mystik-app/backend/internal/kvstore"
	"github.com/mystik-app/backend/internal/models"
	"github.com/mystik-app/backend/pkg/apperr"
)

var errCorruptIndex = errors.New("decode email index")

// Repository handles registration and email index persistence.
type Repository struct {
	store kvstore.Store
}

// NewRepository creates a registrations repository.
func NewRepository(store kvstore.Store) *Repository {
	return &Repository{store: store}
}

// Create writes the record and its email index entry atomically.
func (r *Repository) Create(ctx context.Context, reg *models.GuideRegistration) error {
	value, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("marshal registration: %w", err)
	}
	idx, err := json.Marshal(reg.ID)
	if err != nil {
		return fmt.Errorf("marshal index: %w", err)
	}
	return r.store.Apply(ctx,
		kvstore.Put(kvstore.BucketRegistrations, reg.ID, value),
		kvstore.Put(kvstore.BucketEmailIndex, EmailIndexKey(reg.Email), idx),
	)
}

// Get returns a registration by id.
func (r *Repository) Get(ctx context.Context, id string) (*models.GuideRegistration, error) {
	raw, err := r.store.Get(ctx, kvstore.BucketRegistrations, id)
	if err != nil {
		return nil, err
	}
	var reg models.GuideRegistration
	if err := json.Unmarshal(raw, &reg); err != nil {
		return nil, fmt.Errorf("decode registration %s: %w", id, err)
	}
	return &reg, nil
}

// Save rewrites an existing record in place.
func (r *Repository) Save(ctx context.Context, reg *models.GuideRegistration) error {
	value, err := json.Marshal(reg)
	if err != nil {
		return fmt.Errorf("marshal registration: %w", err)
	}
	return r.store.Set(ctx, kvstore.BucketRegistrations, reg.ID, value)
}

// Delete removes the record and, when it still points at this record, its email index entry.
func (r *Repository) Delete(ctx context.Context, reg *models.GuideRegistration) error {
	ops := []kvstore.Op{kvstore.Del(kvstore.BucketRegistrations, reg.ID)}
	if reg.Email != "" {
		indexed, err := r.LookupEmail(ctx, reg.Email)
		switch {
		case err == nil && indexed == reg.ID:
			ops = append(ops, kvstore.Del(kvstore.BucketEmailIndex, EmailIndexKey(reg.Email)))
		case err != nil && !errors.Is(err, apperr.ErrNotFound):
			return err
		}
	}
	return r.store.Apply(ctx, ops...)
}

// List returns every registration as {key, value}. Email index keys are never included.
func (r *Repository) List(ctx context.Context) ([]models.RegistrationEntry, error) {
	entries, err := r.store.Scan(ctx, kvstore.BucketRegistrations, KeyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]models.RegistrationEntry, 0, len(entries))
	for _, e := range entries {
		if strings.HasPrefix(e.Key, EmailIndexPrefix) {
			continue
		}
		var reg models.GuideRegistration
		if err := json.Unmarshal(e.Value, &reg); err != nil {
			return nil, fmt.Errorf("decode registration %s: %w", e.Key, err)
		}
		out = append(out, models.RegistrationEntry{Key: e.Key, Value: reg})
	}
	return out, nil
}

// LookupEmail returns the id the index holds for email. The index is not authoritative.
func (r *Repository) LookupEmail(ctx context.Context, email string) (string, error) {
	return r.IndexEntry(ctx, EmailIndexKey(email))
}

// IndexEntry returns the id stored under an email index key.
func (r *Repository) IndexEntry(ctx context.Context, key string) (string, error) {
	raw, err := r.store.Get(ctx, kvstore.BucketEmailIndex, key)
	if err != nil {
		return "", err
	}
	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		return "", fmt.Errorf("%w: %v", errCorruptIndex, err)
	}
	return id, nil
}

// IndexEntries returns the whole email index as key → id.
func (r *Repository) IndexEntries(ctx context.Context) (map[string]string, error) {
	entries, err := r.store.Scan(ctx, kvstore.BucketEmailIndex, EmailIndexPrefix)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(entries))
	for _, e := range entries {
		var id string
		if err := json.Unmarshal(e.Value, &id); err != nil {
			// Unreadable entries map to "" so reconcile treats them as orphans.
			id = ""
		}
		out[e.Key] = id
	}
	return out, nil
}

// ApplyIndex runs index repairs in one atomic write.
func (r *Repository) ApplyIndex(ctx context.Context, set map[string]string, remove []string) error {
	ops := make([]kvstore.Op, 0, len(set)+len(remove))
	for _, key := range remove {
		ops = append(ops, kvstore.Del(kvstore.BucketEmailIndex, key))
	}
	for key, id := range set {
		raw, err := json.Marshal(id)
		if err != nil {
			return fmt.Errorf("marshal index: %w", err)
		}
		ops = append(ops, kvstore.Put(kvstore.BucketEmailIndex, key, raw))
	}
	if len(ops) == 0 {
		return nil
	}
	return r.store.Apply(ctx, ops...)
}
