package waitlist

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mystik-app/backend/internal/kvstore"
	"github.com/mystik-app/backend/internal/models"
)

const keyPrefix = "waitlist_"

// Repository appends and lists waitlist entries in their own bucket.
type Repository struct {
	store kvstore.Store
}

// NewRepository creates a waitlist repository.
func NewRepository(store kvstore.Store) *Repository {
	return &Repository{store: store}
}

// Append stores a new entry. Entries are never overwritten.
func (r *Repository) Append(ctx context.Context, e *models.WaitlistEntry) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("marshal waitlist entry: %w", err)
	}
	return r.store.Set(ctx, kvstore.BucketWaitlist, keyPrefix+e.ID.String(), raw)
}

// List returns every entry, unordered.
func (r *Repository) List(ctx context.Context) ([]models.WaitlistEntry, error) {
	entries, err := r.store.Scan(ctx, kvstore.BucketWaitlist, keyPrefix)
	if err != nil {
		return nil, err
	}
	out := make([]models.WaitlistEntry, 0, len(entries))
	for _, e := range entries {
		var w models.WaitlistEntry
		if err := json.Unmarshal(e.Value, &w); err != nil {
			return nil, fmt.Errorf("decode waitlist entry %s: %w", e.Key, err)
		}
		out = append(out, w)
	}
	return out, nil
}
