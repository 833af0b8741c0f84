package session

import (
	"context"
	"log/slog"
	"time"

	"moviescout/internal/domain"
	"moviescout/internal/metrics"
)

const (
	defaultDebounce = 500 * time.Millisecond

	inputBuffer    = 16
	fetchBuffer    = 4
	trendingBuffer = 2
	snapshotBuffer = 8

	fetchErrMessage = "Error fetching movies. Please try again later."
)

// SearchService is the slice of the discovery flow a session drives.
type SearchService interface {
	FetchMovies(ctx context.Context, term string) ([]domain.Movie, error)
	RecordSearchAsync(term string, first domain.Movie)
	Trending(ctx context.Context) ([]domain.SearchRecord, error)
}

// Session is the state machine behind one live search connection. A single
// loop goroutine owns all state: inputs are debounced, each settled term
// starts one catalog fetch tagged with a generation, and completions whose
// generation is no longer current are discarded so an older term can never
// overwrite a newer one. In-flight fetches are not cancelled, only ignored.
type Session struct {
	svc      SearchService
	logger   *slog.Logger
	debounce time.Duration

	inputs    chan string
	fetches   chan fetchResult
	trending  chan []domain.SearchRecord
	snapshots chan domain.SearchState
}

type fetchResult struct {
	gen    uint64
	term   string
	movies []domain.Movie
	err    error
}

type Option func(*Session)

func WithDebounce(d time.Duration) Option {
	return func(s *Session) {
		if d > 0 {
			s.debounce = d
		}
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Session) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func New(svc SearchService, opts ...Option) *Session {
	s := &Session{
		svc:       svc,
		logger:    slog.Default(),
		debounce:  defaultDebounce,
		inputs:    make(chan string, inputBuffer),
		fetches:   make(chan fetchResult, fetchBuffer),
		trending:  make(chan []domain.SearchRecord, trendingBuffer),
		snapshots: make(chan domain.SearchState, snapshotBuffer),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Input hands raw text typed by the user to the session loop. It never
// blocks: when the buffer is full the oldest pending text is dropped, which
// is safe because only the latest text matters to the debounce.
func (s *Session) Input(text string) {
	for {
		select {
		case s.inputs <- text:
			return
		default:
		}
		select {
		case <-s.inputs:
		default:
		}
	}
}

// UpdateTrending pushes a fresh trending list into the session, typically
// from a broadcast. Never blocks; a slower list loses to a newer one.
func (s *Session) UpdateTrending(records []domain.SearchRecord) {
	for {
		select {
		case s.trending <- records:
			return
		default:
		}
		select {
		case <-s.trending:
		default:
		}
	}
}

// Snapshots delivers every state change. The channel keeps only the most
// recent states; a slow reader sees the newest, not the full history.
func (s *Session) Snapshots() <-chan domain.SearchState {
	return s.snapshots
}

// Run executes the session loop until ctx is done. On start it immediately
// fetches the popular list (empty term) and the current trending terms.
func (s *Session) Run(ctx context.Context) {
	timer := time.NewTimer(s.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	timerArmed := false

	state := domain.SearchState{
		Phase:    domain.PhaseLoading,
		Movies:   []domain.Movie{},
		Trending: []domain.SearchRecord{},
	}

	var gen uint64 = 1
	s.emit(&state)
	s.startFetch(ctx, gen, "")
	s.loadTrending(ctx)

	for {
		select {
		case <-ctx.Done():
			if timerArmed && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			return

		case text := <-s.inputs:
			state.Input = text
			state.Phase = domain.PhaseDebouncing
			if timerArmed && !timer.Stop() {
				select {
				case <-timer.C:
				default:
				}
			}
			timer.Reset(s.debounce)
			timerArmed = true
			s.emit(&state)

		case <-timer.C:
			timerArmed = false
			gen++
			state.Term = domain.CanonicalTerm(state.Input)
			state.Phase = domain.PhaseLoading
			state.Err = ""
			s.emit(&state)
			s.startFetch(ctx, gen, state.Term)

		case res := <-s.fetches:
			if res.gen != gen {
				metrics.StaleFetchesTotal.Inc()
				s.logger.Debug("stale catalog response discarded", slog.String("term", res.term))
				continue
			}
			if res.err != nil {
				s.logger.Warn("catalog fetch failed",
					slog.String("term", res.term),
					slog.String("error", res.err.Error()),
				)
				state.Movies = []domain.Movie{}
				state.Err = fetchErrMessage
				state.Phase = domain.PhaseFailed
			} else {
				state.Movies = res.movies
				state.Err = ""
				state.Phase = domain.PhaseReady
				if res.term != "" && len(res.movies) > 0 {
					s.svc.RecordSearchAsync(res.term, res.movies[0])
				}
			}
			s.emit(&state)

		case records := <-s.trending:
			state.Trending = records
			s.emit(&state)
		}
	}
}

func (s *Session) startFetch(ctx context.Context, gen uint64, term string) {
	go func() {
		movies, err := s.svc.FetchMovies(ctx, term)
		select {
		case s.fetches <- fetchResult{gen: gen, term: term, movies: movies, err: err}:
		case <-ctx.Done():
		}
	}()
}

func (s *Session) loadTrending(ctx context.Context) {
	go func() {
		records, err := s.svc.Trending(ctx)
		if err != nil {
			// The strip simply stays empty; search keeps working.
			s.logger.Warn("trending load failed", slog.String("error", err.Error()))
			return
		}
		select {
		case s.trending <- records:
		case <-ctx.Done():
		}
	}()
}

// emit publishes the next snapshot, evicting the oldest buffered one when
// the reader lags so the channel always converges on current state.
func (s *Session) emit(state *domain.SearchState) {
	state.Seq++
	snapshot := *state
	for {
		select {
		case s.snapshots <- snapshot:
			return
		default:
		}
		select {
		case <-s.snapshots:
		default:
		}
	}
}
