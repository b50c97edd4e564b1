package incident

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"talenttrack/internal/platform/redis"
	"talenttrack/pkg/domain"
	dErrors "talenttrack/pkg/domain-errors"
	"talenttrack/pkg/platform/sentinel"
)

// OpenCounts feeds the navigation badge: how many error-queue and
// warning-queue items are waiting for a human.
type OpenCounts struct {
	Errors   int `json:"openErrors"`
	Warnings int `json:"openWarnings"`
}

const countsCacheKey = "talenttrack:incidents:open_counts"

// Service wraps the ledger store with count caching and the manual status
// transitions. Incident creation stays with the reconciliation engine; this
// service never opens incidents.
type Service struct {
	store    Store
	cache    *redis.Client // nil: cache disabled
	cacheTTL time.Duration
	logger   *slog.Logger
}

func NewService(store Store, cache *redis.Client, cacheTTL time.Duration, logger *slog.Logger) *Service {
	return &Service{store: store, cache: cache, cacheTTL: cacheTTL, logger: logger}
}

func (s *Service) List(ctx context.Context, f Filter) ([]Incident, error) {
	return s.store.List(ctx, f)
}

func (s *Service) Get(ctx context.Context, id domain.IncidentID) (Incident, error) {
	inc, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return Incident{}, dErrors.New(dErrors.CodeNotFound, "incident not found")
		}
		return Incident{}, err
	}
	return inc, nil
}

// Resolve flips an open incident to RESOLVED. It never re-triggers
// reconciliation; the response stays wherever it is.
func (s *Service) Resolve(ctx context.Context, id domain.IncidentID) error {
	err := s.store.Resolve(ctx, id, time.Now().UTC())
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "incident not found")
		}
		if errors.Is(err, sentinel.ErrInvalidState) {
			return dErrors.New(dErrors.CodeConflict, "incident is already resolved")
		}
		return err
	}
	s.invalidateCounts(ctx)
	return nil
}

// Discard removes an incident from the ledger.
func (s *Service) Discard(ctx context.Context, id domain.IncidentID) error {
	if err := s.store.Delete(ctx, id); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "incident not found")
		}
		return err
	}
	s.invalidateCounts(ctx)
	return nil
}

// OpenCounts returns the open error/warning totals, served from the cache
// when fresh enough. The badge tolerates the configured staleness.
func (s *Service) OpenCounts(ctx context.Context) (OpenCounts, error) {
	if cached, ok := s.cachedCounts(ctx); ok {
		return cached, nil
	}

	var counts OpenCounts
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.store.CountOpen(gctx, SeverityError)
		counts.Errors = n
		return err
	})
	g.Go(func() error {
		n, err := s.store.CountOpen(gctx, SeverityWarning)
		counts.Warnings = n
		return err
	})
	if err := g.Wait(); err != nil {
		return OpenCounts{}, fmt.Errorf("count open incidents: %w", err)
	}

	s.storeCounts(ctx, counts)
	return counts, nil
}

func (s *Service) cachedCounts(ctx context.Context) (OpenCounts, bool) {
	if s.cache == nil {
		return OpenCounts{}, false
	}
	raw, err := s.cache.Get(ctx, countsCacheKey).Bytes()
	if err != nil {
		return OpenCounts{}, false
	}
	var counts OpenCounts
	if err := json.Unmarshal(raw, &counts); err != nil {
		return OpenCounts{}, false
	}
	return counts, true
}

func (s *Service) storeCounts(ctx context.Context, counts OpenCounts) {
	if s.cache == nil {
		return
	}
	raw, err := json.Marshal(counts)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, countsCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.WarnContext(ctx, "failed to cache incident counts", "error", err)
	}
}

// invalidateCounts drops the cached badge counts after a ledger mutation.
// Cache failures only delay freshness, never correctness.
func (s *Service) invalidateCounts(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Del(ctx, countsCacheKey).Err(); err != nil {
		s.logger.WarnContext(ctx, "failed to invalidate incident counts cache", "error", err)
	}
}

// InvalidateCounts is called by the reconciliation engine after it opens
// incidents through its own ledger reference.
func (s *Service) InvalidateCounts(ctx context.Context) {
	s.invalidateCounts(ctx)
}

// ParseSeverity validates a query-string severity.
func ParseSeverity(raw string) (Severity, error) {
	switch Severity(raw) {
	case "", SeverityError, SeverityWarning:
		return Severity(raw), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "severity must be ERROR or WARNING")
	}
}

// ParseStatus validates a query-string status.
func ParseStatus(raw string) (Status, error) {
	switch Status(raw) {
	case "", StatusOpen, StatusResolved:
		return Status(raw), nil
	default:
		return "", dErrors.New(dErrors.CodeInvalidInput, "status must be OPEN or RESOLVED")
	}
}
