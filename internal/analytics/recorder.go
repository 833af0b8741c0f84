package analytics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"moviescout/internal/domain"
	"moviescout/internal/metrics"
)

// trendingCap is the product-level ceiling on the trending list.
const trendingCap = 5

// SearchRepository is the persistence surface the recorder needs.
type SearchRepository interface {
	FindByTerm(ctx context.Context, term string) (domain.SearchRecord, error)
	Insert(ctx context.Context, rec domain.SearchRecord) (string, error)
	IncrementCount(ctx context.Context, id string) error
	TopByCount(ctx context.Context, limit int) ([]domain.SearchRecord, error)
}

// Recorder maintains per-term search counters and serves the trending list.
type Recorder struct {
	Repo  SearchRepository
	Limit int
	Now   func() time.Time
}

// RecordSearch bumps the counter for a term, creating the record on first
// sight with the movie the term matched.
//
// The find-then-write pair is not atomic: concurrent recorders seeing a
// brand-new term can both miss the lookup and insert twice, or lose one
// increment. Counts are advisory popularity data, so no transaction or
// unique index guards this path.
func (r Recorder) RecordSearch(ctx context.Context, term string, first domain.Movie) error {
	canonical := domain.CanonicalTerm(term)
	if canonical == "" {
		return fmt.Errorf("%w: empty search term", domain.ErrInvalidInput)
	}

	existing, err := r.Repo.FindByTerm(ctx, canonical)
	if err == nil {
		if incErr := r.Repo.IncrementCount(ctx, existing.ID); incErr != nil {
			metrics.SearchRecordsTotal.WithLabelValues("error").Inc()
			return wrapStore(incErr)
		}
		metrics.SearchRecordsTotal.WithLabelValues("incremented").Inc()
		return nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		metrics.SearchRecordsTotal.WithLabelValues("error").Inc()
		return wrapStore(err)
	}

	now := time.Now
	if r.Now != nil {
		now = r.Now
	}
	ts := now().UTC()
	_, err = r.Repo.Insert(ctx, domain.SearchRecord{
		Term:      canonical,
		Count:     1,
		MovieID:   first.ID,
		PosterURL: domain.PosterImageURL(first.PosterPath),
		CreatedAt: ts,
		UpdatedAt: ts,
	})
	if err != nil {
		metrics.SearchRecordsTotal.WithLabelValues("error").Inc()
		return wrapStore(err)
	}
	metrics.SearchRecordsTotal.WithLabelValues("created").Inc()
	return nil
}

// Trending returns the most-searched terms, highest count first.
func (r Recorder) Trending(ctx context.Context) ([]domain.SearchRecord, error) {
	limit := r.Limit
	if limit <= 0 || limit > trendingCap {
		limit = trendingCap
	}
	records, err := r.Repo.TopByCount(ctx, limit)
	if err != nil {
		return nil, wrapStore(err)
	}
	return records, nil
}

func wrapStore(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, domain.ErrNotFound) {
		return err
	}
	return fmt.Errorf("%w: %v", domain.ErrStore, err)
}
