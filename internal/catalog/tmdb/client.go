package tmdb

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"moviescout/internal/domain"
)

const (
	defaultBaseURL = "https://api.themoviedb.org/3"
	maxErrorBody   = 1024
	maxBody        = 512 * 1024
)

// Client talks to a TMDB-compatible catalog API using a v4 read access
// token in the Authorization header.
type Client struct {
	token   string
	baseURL string
	http    *http.Client
}

type Config struct {
	Token   string
	BaseURL string
	Client  *http.Client
}

// StatusError is returned when the catalog answers with a non-2xx status.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("tmdb HTTP %d: %s", e.Code, e.Body)
}

func (e *StatusError) Unwrap() error { return domain.ErrCatalog }

type movieResult struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview"`
	PosterPath       string  `json:"poster_path"`
	VoteAverage      float64 `json:"vote_average"`
	ReleaseDate      string  `json:"release_date"`
	OriginalLanguage string  `json:"original_language"`
}

type discoverResponse struct {
	Results []movieResult `json:"results"`
}

func New(cfg Config) *Client {
	baseURL := strings.TrimSpace(cfg.BaseURL)
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	httpClient := cfg.Client
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		token:   strings.TrimSpace(cfg.Token),
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

// SearchMovies runs a full-text title search. A 200 with no matches is an
// empty slice, not an error.
func (c *Client) SearchMovies(ctx context.Context, query string) ([]domain.Movie, error) {
	params := url.Values{"query": {query}}
	return c.fetch(ctx, "/search/movie?"+params.Encode())
}

// DiscoverPopular lists catalog titles ordered by popularity, used when no
// search term is active.
func (c *Client) DiscoverPopular(ctx context.Context) ([]domain.Movie, error) {
	params := url.Values{"sort_by": {"popularity.desc"}}
	return c.fetch(ctx, "/discover/movie?"+params.Encode())
}

func (c *Client) fetch(ctx context.Context, pathAndQuery string) ([]domain.Movie, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+pathAndQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalog, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalog, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &StatusError{Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrCatalog, err)
	}

	var response discoverResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", domain.ErrCatalog, err)
	}

	movies := make([]domain.Movie, 0, len(response.Results))
	for _, r := range response.Results {
		movies = append(movies, domain.Movie{
			ID:               r.ID,
			Title:            r.Title,
			Overview:         r.Overview,
			PosterPath:       r.PosterPath,
			VoteAverage:      r.VoteAverage,
			ReleaseDate:      r.ReleaseDate,
			OriginalLanguage: r.OriginalLanguage,
		})
	}
	return movies, nil
}
