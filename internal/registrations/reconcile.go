package registrations

import (
	"context"
	"errors"
	"sort"

	"go.uber.org/zap"

	"github.com/mystik-app/backend/internal/models"
	"github.com/mystik-app/backend/pkg/apperr"
)

// ReconcileReport summarizes one reconcile run.
type ReconcileReport struct {
	Registrations int `json:"registrations"`
	IndexEntries  int `json:"indexEntries"`
	Removed       int `json:"removed"`
	Repaired      int `json:"repaired"`
	// Skipped counts repairs dropped because a concurrent write changed the key.
	Skipped int `json:"skipped,omitempty"`
}

// Reconcile makes the email index match the live registrations.
//
// Entries pointing at missing records, or at records with another email, are removed.
// Each email ends up mapped to its most recently registered record, which is what
// consecutive signups with the same email produce.
//
// The index is scanned before the registrations, and every repair is re-checked
// against the store before it is written, so signups and deletes that race with
// the pass keep their index entries intact.
func (s *Service) Reconcile(ctx context.Context) (ReconcileReport, error) {
	index, err := s.repo.IndexEntries(ctx)
	if err != nil {
		return ReconcileReport{}, err
	}
	list, err := s.repo.List(ctx)
	if err != nil {
		return ReconcileReport{}, err
	}

	expected := expectedIndex(list)
	report := ReconcileReport{Registrations: len(list), IndexEntries: len(index)}

	var remove []string
	for key := range index {
		if _, ok := expected[key]; !ok {
			remove = append(remove, key)
		}
	}
	sort.Strings(remove)
	remove, err = s.verifyRemovals(ctx, index, remove, &report)
	if err != nil {
		return report, err
	}

	set := make(map[string]string)
	for key, id := range expected {
		if index[key] != id {
			set[key] = id
		}
	}
	if err := s.verifyRepairs(ctx, index, set, &report); err != nil {
		return report, err
	}

	report.Removed = len(remove)
	report.Repaired = len(set)
	if err := s.repo.ApplyIndex(ctx, set, remove); err != nil {
		return report, err
	}
	s.metrics.AddReconcile(report.Removed, report.Repaired)
	if report.Removed > 0 || report.Repaired > 0 {
		s.changed()
		s.logger.Warn("email index repaired",
			zap.Int("removed", report.Removed),
			zap.Int("repaired", report.Repaired),
			zap.Int("skipped", report.Skipped),
			zap.Strings("removed_keys", remove),
		)
	} else {
		s.logger.Debug("email index consistent",
			zap.Int("registrations", report.Registrations),
			zap.Int("skipped", report.Skipped),
		)
	}
	return report, nil
}

// verifyRemovals keeps only keys that still hold the scanned id and whose target
// is not a live registration with that email.
func (s *Service) verifyRemovals(ctx context.Context, scanned map[string]string, keys []string, report *ReconcileReport) ([]string, error) {
	out := keys[:0]
	for _, key := range keys {
		cur, ok, err := s.currentIndex(ctx, key)
		if err != nil {
			return nil, err
		}
		if !ok || cur != scanned[key] {
			report.Skipped++
			continue
		}
		live, err := s.indexedBy(ctx, cur, key)
		if err != nil {
			return nil, err
		}
		if live {
			report.Skipped++
			continue
		}
		out = append(out, key)
	}
	return out, nil
}

// verifyRepairs drops repairs whose key changed since the scan or whose target
// registration is gone.
func (s *Service) verifyRepairs(ctx context.Context, scanned map[string]string, set map[string]string, report *ReconcileReport) error {
	for key, id := range set {
		cur, ok, err := s.currentIndex(ctx, key)
		if err != nil {
			return err
		}
		was, present := scanned[key]
		if ok != present || cur != was {
			delete(set, key)
			report.Skipped++
			continue
		}
		live, err := s.indexedBy(ctx, id, key)
		if err != nil {
			return err
		}
		if !live {
			delete(set, key)
			report.Skipped++
		}
	}
	return nil
}

// currentIndex re-reads one index key. Unreadable entries read as "" like IndexEntries.
func (s *Service) currentIndex(ctx context.Context, key string) (string, bool, error) {
	id, err := s.repo.IndexEntry(ctx, key)
	switch {
	case err == nil:
		return id, true, nil
	case errors.Is(err, apperr.ErrNotFound):
		return "", false, nil
	case errors.Is(err, errCorruptIndex):
		return "", true, nil
	default:
		return "", false, err
	}
}

// indexedBy reports whether id is a live registration whose email maps to key.
func (s *Service) indexedBy(ctx context.Context, id, key string) (bool, error) {
	if id == "" {
		return false, nil
	}
	reg, err := s.repo.Get(ctx, id)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return reg.Email != "" && EmailIndexKey(reg.Email) == key, nil
}

func expectedIndex(list []models.RegistrationEntry) map[string]string {
	newest := make(map[string]models.GuideRegistration)
	for _, e := range list {
		reg := e.Value
		reg.ID = e.Key
		if reg.Email == "" {
			continue
		}
		key := EmailIndexKey(reg.Email)
		cur, ok := newest[key]
		if !ok || reg.RegisteredAt.After(cur.RegisteredAt) ||
			(reg.RegisteredAt.Equal(cur.RegisteredAt) && reg.ID > cur.ID) {
			newest[key] = reg
		}
	}
	out := make(map[string]string, len(newest))
	for key, reg := range newest {
		out[key] = reg.ID
	}
	return out
}
