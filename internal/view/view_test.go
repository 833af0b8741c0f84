package view

import (
	"testing"

	"moviescout/internal/domain"
)

func TestFormatRating(t *testing.T) {
	cases := []struct {
		name string
		in   float64
		want string
	}{
		{name: "halves round up", in: 7.25, want: "7.3"},
		{name: "typical value", in: 8.516, want: "8.5"},
		{name: "whole number keeps decimal", in: 10, want: "10.0"},
		{name: "absent", in: 0, want: "N/A"},
		{name: "negative treated as absent", in: -1, want: "N/A"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatRating(tc.in); got != tc.want {
				t.Fatalf("formatRating(%v) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestFormatYear(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{name: "iso date", in: "2004-03-11", want: "2004"},
		{name: "empty", in: "", want: "N/A"},
		{name: "too short", in: "20", want: "N/A"},
		{name: "year only", in: "1999", want: "1999"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := formatYear(tc.in); got != tc.want {
				t.Fatalf("formatYear(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestRenderCard_PosterFallback(t *testing.T) {
	withPoster := RenderCard(domain.Movie{ID: 1, Title: "Dune", PosterPath: "/dune.jpg"})
	if withPoster.PosterURL != "https://image.tmdb.org/t/p/w500/dune.jpg" {
		t.Errorf("unexpected poster url: %q", withPoster.PosterURL)
	}

	noPoster := RenderCard(domain.Movie{ID: 2, Title: "Obscure"})
	if noPoster.PosterURL != PlaceholderPoster {
		t.Errorf("expected placeholder, got %q", noPoster.PosterURL)
	}
}

func TestRender_FullState(t *testing.T) {
	state := domain.SearchState{
		Seq:   7,
		Input: "dune",
		Term:  "dune",
		Phase: domain.PhaseReady,
		Movies: []domain.Movie{
			{ID: 1, Title: "Dune", VoteAverage: 7.25, ReleaseDate: "2021-09-15", PosterPath: "/d.jpg", OriginalLanguage: "en"},
			{ID: 2, Title: "Dune: Part Two"},
		},
		Trending: []domain.SearchRecord{
			{Term: "dune", Count: 9, PosterURL: "https://image.tmdb.org/t/p/w500/d.jpg"},
			{Term: "alien", Count: 4},
		},
	}

	v := Render(state)

	if v.Seq != 7 || v.Query != "dune" || v.Loading {
		t.Fatalf("unexpected header fields: %#v", v)
	}
	if len(v.Movies) != 2 {
		t.Fatalf("expected 2 cards, got %d", len(v.Movies))
	}
	first := v.Movies[0]
	if first.Rating != "7.3" || first.Year != "2021" || first.Language != "en" {
		t.Errorf("unexpected first card: %#v", first)
	}
	second := v.Movies[1]
	if second.Rating != "N/A" || second.Year != "N/A" || second.PosterURL != PlaceholderPoster {
		t.Errorf("unexpected second card: %#v", second)
	}

	if len(v.Trending) != 2 {
		t.Fatalf("expected 2 trending items, got %d", len(v.Trending))
	}
	if v.Trending[0].Rank != 1 || v.Trending[1].Rank != 2 {
		t.Errorf("ranks must start at 1: %#v", v.Trending)
	}
	if v.Trending[1].PosterURL != PlaceholderPoster {
		t.Errorf("trending poster fallback missing: %#v", v.Trending[1])
	}
}

func TestRender_LoadingAndError(t *testing.T) {
	loading := Render(domain.SearchState{Phase: domain.PhaseLoading})
	if !loading.Loading {
		t.Error("loading flag should be set while fetching")
	}

	debouncing := Render(domain.SearchState{Phase: domain.PhaseDebouncing})
	if debouncing.Loading {
		t.Error("debouncing is not loading")
	}

	failed := Render(domain.SearchState{Phase: domain.PhaseFailed, Err: "Error fetching movies. Please try again later."})
	if failed.Error == "" || failed.Loading {
		t.Errorf("unexpected failed view: %#v", failed)
	}
	if len(failed.Movies) != 0 {
		t.Errorf("failed view should have no cards: %#v", failed.Movies)
	}
}
