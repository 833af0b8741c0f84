package tmdb

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"moviescout/internal/domain"
)

func TestSearchMovies_SendsBearerAndQuery(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search/movie" {
			t.Errorf("expected /search/movie, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("query"); got != "dark knight" {
			t.Errorf("expected query 'dark knight', got %q", got)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("expected bearer header, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"results":[
			{"id":155,"title":"The Dark Knight","poster_path":"/qJ2tW6WMUDux911r6m7haRef0WH.jpg","vote_average":8.516,"release_date":"2008-07-16","original_language":"en"}
		]}`))
	}))
	defer ts.Close()

	c := New(Config{Token: "test-token", BaseURL: ts.URL})
	movies, err := c.SearchMovies(context.Background(), "dark knight")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(movies) != 1 {
		t.Fatalf("expected 1 movie, got %d", len(movies))
	}
	m := movies[0]
	if m.ID != 155 || m.Title != "The Dark Knight" {
		t.Fatalf("unexpected movie: %#v", m)
	}
	if m.VoteAverage != 8.516 || m.ReleaseDate != "2008-07-16" {
		t.Fatalf("unexpected movie fields: %#v", m)
	}
}

func TestDiscoverPopular_SortsByPopularity(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/discover/movie" {
			t.Errorf("expected /discover/movie, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("sort_by"); got != "popularity.desc" {
			t.Errorf("expected sort_by=popularity.desc, got %q", got)
		}
		w.Write([]byte(`{"results":[{"id":1,"title":"A"},{"id":2,"title":"B"}]}`))
	}))
	defer ts.Close()

	c := New(Config{Token: "t", BaseURL: ts.URL})
	movies, err := c.DiscoverPopular(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(movies) != 2 {
		t.Fatalf("expected 2 movies, got %d", len(movies))
	}
}

func TestSearchMovies_EmptyResultsIsNotError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results":[]}`))
	}))
	defer ts.Close()

	c := New(Config{Token: "t", BaseURL: ts.URL})
	movies, err := c.SearchMovies(context.Background(), "zzzzz no such film")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(movies) != 0 {
		t.Fatalf("expected empty result, got %d", len(movies))
	}
}

func TestSearchMovies_StatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"status_message":"boom"}`))
	}))
	defer ts.Close()

	c := New(Config{Token: "t", BaseURL: ts.URL})
	_, err := c.SearchMovies(context.Background(), "dune")
	if err == nil {
		t.Fatal("expected error for 500 response")
	}
	if !errors.Is(err, domain.ErrCatalog) {
		t.Fatalf("expected ErrCatalog, got %v", err)
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %T", err)
	}
	if statusErr.Code != http.StatusInternalServerError {
		t.Fatalf("unexpected status code: %d", statusErr.Code)
	}
}

func TestSearchMovies_MalformedBody(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"results": [`))
	}))
	defer ts.Close()

	c := New(Config{Token: "t", BaseURL: ts.URL})
	_, err := c.SearchMovies(context.Background(), "dune")
	if !errors.Is(err, domain.ErrCatalog) {
		t.Fatalf("expected ErrCatalog for malformed body, got %v", err)
	}
}

func TestSearchMovies_TransportError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close() // refuse connections

	c := New(Config{Token: "t", BaseURL: ts.URL})
	_, err := c.SearchMovies(context.Background(), "dune")
	if !errors.Is(err, domain.ErrCatalog) {
		t.Fatalf("expected ErrCatalog for transport failure, got %v", err)
	}
}
