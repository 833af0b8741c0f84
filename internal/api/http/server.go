package apihttp

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"moviescout/internal/domain"
)

const maxQueryLength = 500

// SearchService is the discovery flow the API exposes.
type SearchService interface {
	FetchMovies(ctx context.Context, term string) ([]domain.Movie, error)
	RecordSearchAsync(term string, first domain.Movie)
	Trending(ctx context.Context) ([]domain.SearchRecord, error)
}

// StorePinger reports whether the search store is reachable.
type StorePinger interface {
	Ping(ctx context.Context) error
}

type Server struct {
	search     SearchService
	logger     *slog.Logger
	hub        *wsHub
	pinger     StorePinger
	debounce   time.Duration
	imageHosts map[string]struct{}
}

type ServerOption func(*Server)

func WithLogger(logger *slog.Logger) ServerOption {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithDebounce sets the quiescence interval live sessions wait after the
// last keystroke before fetching.
func WithDebounce(d time.Duration) ServerOption {
	return func(s *Server) {
		if d > 0 {
			s.debounce = d
		}
	}
}

func WithStorePinger(pinger StorePinger) ServerOption {
	return func(s *Server) {
		s.pinger = pinger
	}
}

// WithImageHosts replaces the set of hosts the poster proxy may fetch from.
func WithImageHosts(hosts ...string) ServerOption {
	return func(s *Server) {
		allowed := make(map[string]struct{}, len(hosts))
		for _, host := range hosts {
			host = strings.ToLower(strings.TrimSpace(host))
			if host != "" {
				allowed[host] = struct{}{}
			}
		}
		if len(allowed) > 0 {
			s.imageHosts = allowed
		}
	}
}

func NewServer(searchService SearchService, options ...ServerOption) *Server {
	server := &Server{
		search:     searchService,
		logger:     slog.Default(),
		imageHosts: map[string]struct{}{"image.tmdb.org": {}},
	}
	for _, option := range options {
		if option != nil {
			option(server)
		}
	}
	if server.logger == nil {
		server.logger = slog.Default()
	}
	server.hub = newWSHub(server.logger)
	go server.hub.run()
	return server
}

func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", s.handleHealth)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/api/movies", s.handleMovies)
	mux.HandleFunc("/api/trending", s.handleTrending)
	mux.HandleFunc("/api/image", s.handleImageProxy)
	mux.HandleFunc("/ws/search", s.handleSearchSocket)
	mux.HandleFunc("/static/no-poster.svg", s.handleNoPoster)
	traced := otelhttp.NewHandler(loggingMiddleware(s.logger, mux), "moviescout",
		otelhttp.WithFilter(func(r *http.Request) bool {
			p := r.URL.Path
			return p != "/metrics" && p != "/health"
		}),
	)
	return recoveryMiddleware(s.logger, rateLimitMiddleware(50, 100, metricsMiddleware(traced)))
}

// BroadcastTrending pushes a fresh trending list to every live session.
func (s *Server) BroadcastTrending(records []domain.SearchRecord) {
	s.hub.BroadcastTrending(records)
}

// Close disconnects all live sessions. The HTTP listener is shut down
// separately by the caller.
func (s *Server) Close() {
	s.hub.Close()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.pinger != nil {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := s.pinger.Ping(ctx); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]any{
				"status":    "degraded",
				"store":     "unreachable",
				"timestamp": time.Now().UTC(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

func (s *Server) handleMovies(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	query := r.URL.Query().Get("q")
	if utf8.RuneCountInString(query) > maxQueryLength {
		writeError(w, http.StatusBadRequest, "invalid_request", "query too long")
		return
	}

	term := domain.CanonicalTerm(query)
	movies, err := s.search.FetchMovies(r.Context(), term)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if term != "" && len(movies) > 0 {
		s.search.RecordSearchAsync(term, movies[0])
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"query": term,
		"items": movies,
	})
}

func (s *Server) handleTrending(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	records, err := s.search.Trending(r.Context())
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"items": records,
	})
}

func (s *Server) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	s.logger.Warn("request failed",
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()),
	)
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeError(w, http.StatusBadRequest, "invalid_request", "invalid request")
	case errors.Is(err, domain.ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", "not found")
	case errors.Is(err, domain.ErrCatalog):
		writeError(w, http.StatusBadGateway, "catalog_error", "failed to fetch movies from catalog")
	case errors.Is(err, domain.ErrStore):
		writeError(w, http.StatusServiceUnavailable, "store_error", "search store unavailable")
	default:
		writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]string{
			"code":    code,
			"message": message,
		},
	})
}
