package apihttp

import (
	"io"
	"net/http"
)

// noPosterSVG is served when a movie or trending entry has no poster art.
const noPosterSVG = `<svg xmlns="http://www.w3.org/2000/svg" width="300" height="450" viewBox="0 0 300 450">
  <rect width="300" height="450" fill="#1f2430"/>
  <rect x="110" y="160" width="80" height="80" rx="8" fill="none" stroke="#4a5264" stroke-width="6"/>
  <circle cx="138" cy="188" r="10" fill="#4a5264"/>
  <path d="M118 232l26-28 20 20 12-10 24 18z" fill="#4a5264"/>
  <text x="150" y="288" font-family="sans-serif" font-size="18" fill="#6b7385" text-anchor="middle">No poster</text>
</svg>
`

func (s *Server) handleNoPoster(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	w.Header().Set("Content-Type", "image/svg+xml")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = io.WriteString(w, noPosterSVG)
}
