package waitlist

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/mystik-app/backend/internal/metrics"
	"github.com/mystik-app/backend/internal/models"
	"github.com/mystik-app/backend/pkg/apperr"
)

// Service captures waitlist signups.
type Service struct {
	repo    *Repository
	metrics *metrics.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// NewService creates a waitlist service. m may be nil.
func NewService(repo *Repository, m *metrics.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{repo: repo, metrics: m, logger: logger, now: time.Now}
}

// Subscribe appends email to the waitlist. The only check is the presence of '@';
// the same address may subscribe any number of times.
func (s *Service) Subscribe(ctx context.Context, email string) (*models.WaitlistEntry, error) {
	email = strings.TrimSpace(email)
	if email == "" || !strings.Contains(email, "@") {
		return nil, apperr.Validation(apperr.ReasonInvalidEmail, "please enter a valid email address")
	}
	e := &models.WaitlistEntry{
		ID:        uuid.New(),
		Email:     email,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Append(ctx, e); err != nil {
		return nil, err
	}
	s.metrics.IncWaitlistSignups()
	s.logger.Info("waitlist signup", zap.String("entry_id", e.ID.String()))
	return e, nil
}

// List returns entries newest first.
func (s *Service) List(ctx context.Context) ([]models.WaitlistEntry, error) {
	list, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].CreatedAt.After(list[j].CreatedAt)
	})
	return list, nil
}
