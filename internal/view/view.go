package view

import (
	"math"
	"strconv"

	"moviescout/internal/domain"
)

// PlaceholderPoster is served by the HTTP layer for movies without poster art.
const PlaceholderPoster = "/static/no-poster.svg"

const missingValue = "N/A"

// View is the wire-ready rendering of a session state, pushed to live
// clients on every change.
type View struct {
	Seq      uint64         `json:"seq"`
	Query    string         `json:"query"`
	Phase    string         `json:"phase"`
	Loading  bool           `json:"loading"`
	Error    string         `json:"error,omitempty"`
	Movies   []Card         `json:"movies"`
	Trending []TrendingItem `json:"trending"`
}

// Card is one movie tile.
type Card struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Rating    string `json:"rating"`
	Year      string `json:"year"`
	PosterURL string `json:"posterUrl"`
	Language  string `json:"language,omitempty"`
}

// TrendingItem is one entry of the trending strip, ranked from 1.
type TrendingItem struct {
	Rank      int    `json:"rank"`
	Term      string `json:"term"`
	Count     int64  `json:"count"`
	PosterURL string `json:"posterUrl"`
}

// Render converts session state into its view. Pure: no clock, no I/O, the
// input is never mutated.
func Render(state domain.SearchState) View {
	cards := make([]Card, 0, len(state.Movies))
	for _, m := range state.Movies {
		cards = append(cards, RenderCard(m))
	}
	trending := make([]TrendingItem, 0, len(state.Trending))
	for i, rec := range state.Trending {
		trending = append(trending, TrendingItem{
			Rank:      i + 1,
			Term:      rec.Term,
			Count:     rec.Count,
			PosterURL: orPlaceholder(rec.PosterURL),
		})
	}
	return View{
		Seq:      state.Seq,
		Query:    state.Input,
		Phase:    string(state.Phase),
		Loading:  state.Phase == domain.PhaseLoading,
		Error:    state.Err,
		Movies:   cards,
		Trending: trending,
	}
}

// RenderCard formats one movie for display.
func RenderCard(m domain.Movie) Card {
	return Card{
		ID:        m.ID,
		Title:     m.Title,
		Rating:    formatRating(m.VoteAverage),
		Year:      formatYear(m.ReleaseDate),
		PosterURL: orPlaceholder(domain.PosterImageURL(m.PosterPath)),
		Language:  m.OriginalLanguage,
	}
}

// formatRating renders one decimal place with halves rounding up, so 7.25
// shows as 7.3. Zero or negative means the catalog has no rating.
func formatRating(voteAverage float64) string {
	if voteAverage <= 0 {
		return missingValue
	}
	rounded := math.Round(voteAverage*10) / 10
	return strconv.FormatFloat(rounded, 'f', 1, 64)
}

// formatYear keeps the leading year of an ISO release date.
func formatYear(releaseDate string) string {
	if len(releaseDate) < 4 {
		return missingValue
	}
	return releaseDate[:4]
}

func orPlaceholder(posterURL string) string {
	if posterURL == "" {
		return PlaceholderPoster
	}
	return posterURL
}
