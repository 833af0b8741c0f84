package domain

const posterBaseURL = "https://image.tmdb.org/t/p/w500"

// Movie is a single catalog entry as returned by the movie catalog API.
type Movie struct {
	ID               int64   `json:"id"`
	Title            string  `json:"title"`
	Overview         string  `json:"overview,omitempty"`
	PosterPath       string  `json:"posterPath,omitempty"`
	VoteAverage      float64 `json:"voteAverage,omitempty"`
	ReleaseDate      string  `json:"releaseDate,omitempty"`
	OriginalLanguage string  `json:"originalLanguage,omitempty"`
}

// PosterImageURL builds the full poster URL for a catalog poster path.
// An empty path yields an empty string; callers decide the fallback.
func PosterImageURL(path string) string {
	if path == "" {
		return ""
	}
	return posterBaseURL + path
}
