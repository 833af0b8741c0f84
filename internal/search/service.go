package search

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"moviescout/internal/domain"
	"moviescout/internal/metrics"
)

const (
	defaultRecordTimeout     = 5 * time.Second
	defaultMaxPendingRecords = 32
)

// CatalogClient fetches movies from the external catalog.
type CatalogClient interface {
	SearchMovies(ctx context.Context, query string) ([]domain.Movie, error)
	DiscoverPopular(ctx context.Context) ([]domain.Movie, error)
}

// AnalyticsRecorder owns search-count records and the trending list.
type AnalyticsRecorder interface {
	RecordSearch(ctx context.Context, term string, first domain.Movie) error
	Trending(ctx context.Context) ([]domain.SearchRecord, error)
}

// Service is the movie discovery flow shared by the REST handlers and live
// search sessions: catalog fetches plus fire-and-forget search counting.
type Service struct {
	catalog       CatalogClient
	analytics     AnalyticsRecorder
	logger        *slog.Logger
	recordTimeout time.Duration
	recordSem     *semaphore.Weighted
	recordWG      sync.WaitGroup
}

type ServiceOption func(*Service)

func WithLogger(logger *slog.Logger) ServiceOption {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func WithRecordTimeout(timeout time.Duration) ServiceOption {
	return func(s *Service) {
		if timeout > 0 {
			s.recordTimeout = timeout
		}
	}
}

func WithMaxPendingRecords(n int64) ServiceOption {
	return func(s *Service) {
		if n > 0 {
			s.recordSem = semaphore.NewWeighted(n)
		}
	}
}

func NewService(catalog CatalogClient, analytics AnalyticsRecorder, opts ...ServiceOption) *Service {
	svc := &Service{
		catalog:       catalog,
		analytics:     analytics,
		logger:        slog.Default(),
		recordTimeout: defaultRecordTimeout,
		recordSem:     semaphore.NewWeighted(defaultMaxPendingRecords),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

// FetchMovies returns search results for a term, or the popular list when
// the term is empty after canonicalization.
func (s *Service) FetchMovies(ctx context.Context, rawTerm string) ([]domain.Movie, error) {
	term := domain.CanonicalTerm(rawTerm)
	op := "search"
	if term == "" {
		op = "popular"
	}

	start := time.Now()
	var movies []domain.Movie
	var err error
	if term == "" {
		movies, err = s.catalog.DiscoverPopular(ctx)
	} else {
		movies, err = s.catalog.SearchMovies(ctx, term)
	}
	metrics.CatalogRequestDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())

	status := "ok"
	if err != nil {
		status = "error"
	}
	metrics.CatalogRequestsTotal.WithLabelValues(op, status).Inc()
	return movies, err
}

// RecordSearchAsync counts a successful search without blocking the caller.
// The write runs on a detached context so a closed session or finished
// request cannot cancel it; failures are logged and never surface. Pending
// writes are bounded; over the bound the count is dropped, not queued.
func (s *Service) RecordSearchAsync(term string, first domain.Movie) {
	if domain.CanonicalTerm(term) == "" {
		return
	}
	if !s.recordSem.TryAcquire(1) {
		s.logger.Warn("search count dropped, too many pending writes", slog.String("term", term))
		metrics.SearchRecordsTotal.WithLabelValues("dropped").Inc()
		return
	}
	s.recordWG.Add(1)
	go func() {
		defer s.recordWG.Done()
		defer s.recordSem.Release(1)

		ctx, cancel := context.WithTimeout(context.Background(), s.recordTimeout)
		defer cancel()
		if err := s.analytics.RecordSearch(ctx, term, first); err != nil {
			s.logger.Warn("search count write failed",
				slog.String("term", term),
				slog.String("error", err.Error()),
			)
		}
	}()
}

// Trending returns the most-searched terms, highest count first.
func (s *Service) Trending(ctx context.Context) ([]domain.SearchRecord, error) {
	return s.analytics.Trending(ctx)
}

// Close waits for in-flight search-count writes. Each write carries its own
// timeout, so Close returns within recordTimeout in the worst case.
func (s *Service) Close() {
	s.recordWG.Wait()
}
