package registrations

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/mystik-app/backend/internal/metrics"
	"github.com/mystik-app/backend/internal/models"
)

// Service implements guide signup and the admin CRUD operations.
type Service struct {
	repo     *Repository
	metrics  *metrics.Metrics
	logger   *zap.Logger
	now      func() time.Time
	onChange []func()
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMetrics records counters on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithChangeHook registers fn to run after every successful write.
func WithChangeHook(fn func()) Option {
	return func(s *Service) { s.onChange = append(s.onChange, fn) }
}

// NewService creates a registrations service.
func NewService(repo *Repository, logger *zap.Logger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Service{repo: repo, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// OnChange registers fn to run after every successful write.
func (s *Service) OnChange(fn func()) {
	s.onChange = append(s.onChange, fn)
}

func (s *Service) changed() {
	for _, fn := range s.onChange {
		fn()
	}
}

func (s *Service) timestamp() time.Time {
	return s.now().UTC().Truncate(time.Millisecond)
}

// Create validates req and stores a new pending registration. Duplicate emails are accepted.
func (s *Service) Create(ctx context.Context, req SignupRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	now := s.timestamp()
	id, err := NewID(now)
	if err != nil {
		return "", fmt.Errorf("generate id: %w", err)
	}
	reg := &models.GuideRegistration{
		ID:           id,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		Email:        req.Email,
		Country:      req.Country,
		Phone:        req.Phone,
		Specialty:    models.Specialty(req.Specialty),
		Experience:   models.Experience(req.Experience),
		Message:      req.Message,
		RegisteredAt: now,
		Status:       models.StatusPending,
	}
	if err := s.repo.Create(ctx, reg); err != nil {
		return "", err
	}
	s.metrics.IncRegistrationsCreated()
	s.changed()
	s.logger.Info("registration created",
		zap.String("registration_id", id),
		zap.String("name", reg.FullName()),
		zap.String("email", strings.ToLower(reg.Email)),
		zap.String("country", reg.Country),
	)
	return id, nil
}

// List returns every registration, unordered.
func (s *Service) List(ctx context.Context) ([]models.RegistrationEntry, error) {
	return s.repo.List(ctx)
}

// Get returns a registration or apperr.ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*models.GuideRegistration, error) {
	return s.repo.Get(ctx, id)
}

// UpdateStatus validates status, then sets it with updatedAt. Last write wins.
func (s *Service) UpdateStatus(ctx context.Context, id, status string) (*models.GuideRegistration, error) {
	st, err := ParseStatus(status)
	if err != nil {
		return nil, err
	}
	reg, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	now := s.timestamp()
	reg.Status = st
	reg.UpdatedAt = &now
	if err := s.repo.Save(ctx, reg); err != nil {
		return nil, err
	}
	s.metrics.IncStatusUpdate(string(st))
	s.changed()
	s.logger.Info("registration status updated", zap.String("registration_id", id), zap.String("status", string(st)))
	return reg, nil
}

// Delete removes a registration and its index entry. A missing id is apperr.ErrNotFound.
func (s *Service) Delete(ctx context.Context, id string) error {
	reg, err := s.repo.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.repo.Delete(ctx, reg); err != nil {
		return err
	}
	s.metrics.IncRegistrationsDeleted()
	s.changed()
	s.logger.Info("registration deleted", zap.String("registration_id", id), zap.String("name", reg.FullName()))
	return nil
}
