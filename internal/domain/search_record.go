package domain

import "time"

// SearchRecord counts how many times a search term led users to results.
// One logical record exists per canonical term; MovieID and PosterURL keep
// the first movie the term ever matched.
type SearchRecord struct {
	ID        string    `json:"id"`
	Term      string    `json:"term"`
	Count     int64     `json:"count"`
	MovieID   int64     `json:"movieId,omitempty"`
	PosterURL string    `json:"posterUrl,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}
