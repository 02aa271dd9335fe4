// Package admin is the read side used by the review panel: search, filters, sort,
// derived counts and CSV export over the registration list.
package admin

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/mystik-app/backend/internal/models"
	"github.com/mystik-app/backend/pkg/apperr"
)

const snapshotKey = "registrations"

// Sort orders.
const (
	SortDate = "date"
	SortName = "name"
)

// Lister is the registration source, satisfied by *registrations.Service.
type Lister interface {
	List(ctx context.Context) ([]models.RegistrationEntry, error)
}

// Query holds the panel's search box, filters and sort.
type Query struct {
	Search     string
	Status     string
	Specialty  string
	Experience string
	Country    string
	Sort       string
}

// Validate rejects unknown sort orders and statuses.
func (q Query) Validate() error {
	switch q.Sort {
	case "", SortDate, SortName:
	default:
		return apperr.Validation("invalid sort", "use date or name")
	}
	if q.Status != "" && !models.Status(q.Status).Valid() {
		return apperr.Validation(apperr.ReasonInvalidStatus, q.Status)
	}
	return nil
}

// Stats are the counters shown above the registration table.
type Stats struct {
	Total     int                   `json:"total"`
	ByStatus  map[models.Status]int `json:"byStatus"`
	ThisMonth int                   `json:"thisMonth"`
	Countries int                   `json:"countries"`
}

// Facade caches a snapshot of the registration list and derives views from it.
type Facade struct {
	source Lister
	cache  *gocache.Cache
	now    func() time.Time

	// gen is bumped by Invalidate; a list read across a bump is not cached.
	mu  sync.Mutex
	gen uint64
}

// NewFacade creates a facade whose snapshot lives for ttl. ttl <= 0 disables caching.
func NewFacade(source Lister, ttl time.Duration) *Facade {
	f := &Facade{source: source, now: time.Now}
	if ttl > 0 {
		f.cache = gocache.New(ttl, 2*ttl)
	}
	return f
}

// Invalidate drops the cached snapshot. Wire it to registration writes.
func (f *Facade) Invalidate() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.gen++
	if f.cache != nil {
		f.cache.Delete(snapshotKey)
	}
}

func (f *Facade) generation() uint64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.gen
}

// store caches list unless an Invalidate happened since gen was read.
func (f *Facade) store(gen uint64, list []models.GuideRegistration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.gen == gen {
		f.cache.SetDefault(snapshotKey, list)
	}
}

// Snapshot returns every registration, from cache when fresh.
func (f *Facade) Snapshot(ctx context.Context) ([]models.GuideRegistration, error) {
	if f.cache != nil {
		if v, ok := f.cache.Get(snapshotKey); ok {
			return v.([]models.GuideRegistration), nil
		}
	}
	gen := f.generation()
	entries, err := f.source.List(ctx)
	if err != nil {
		return nil, err
	}
	list := make([]models.GuideRegistration, 0, len(entries))
	for _, e := range entries {
		list = append(list, e.Value)
	}
	if f.cache != nil {
		f.store(gen, list)
	}
	return list, nil
}

// Filter returns the matching registrations in q's order. list is not modified.
func Filter(list []models.GuideRegistration, q Query) []models.GuideRegistration {
	search := strings.ToLower(strings.TrimSpace(q.Search))
	out := make([]models.GuideRegistration, 0, len(list))
	for _, r := range list {
		if search != "" && !matchesSearch(&r, search) {
			continue
		}
		if q.Status != "" && string(r.Status) != q.Status {
			continue
		}
		if q.Specialty != "" && string(r.Specialty) != q.Specialty {
			continue
		}
		if q.Experience != "" && string(r.Experience) != q.Experience {
			continue
		}
		if q.Country != "" && r.Country != q.Country {
			continue
		}
		out = append(out, r)
	}

	if q.Sort == SortName {
		sort.SliceStable(out, func(i, j int) bool {
			return strings.ToLower(out[i].FullName()) < strings.ToLower(out[j].FullName())
		})
	} else {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].RegisteredAt.After(out[j].RegisteredAt)
		})
	}
	return out
}

func matchesSearch(r *models.GuideRegistration, search string) bool {
	for _, field := range []string{r.FirstName, r.LastName, r.FullName(), r.Email, r.Phone} {
		if strings.Contains(strings.ToLower(field), search) {
			return true
		}
	}
	return false
}

// ComputeStats derives the panel counters. "This month" is the calendar month of now in loc.
func ComputeStats(list []models.GuideRegistration, now time.Time, loc *time.Location) Stats {
	st := Stats{Total: len(list), ByStatus: make(map[models.Status]int, len(models.Statuses))}
	for _, s := range models.Statuses {
		st.ByStatus[s] = 0
	}
	y, m, _ := now.In(loc).Date()
	countries := make(map[string]struct{})
	for _, r := range list {
		st.ByStatus[r.Status]++
		if ry, rm, _ := r.RegisteredAt.In(loc).Date(); ry == y && rm == m {
			st.ThisMonth++
		}
		if r.Country != "" {
			countries[r.Country] = struct{}{}
		}
	}
	st.Countries = len(countries)
	return st
}
