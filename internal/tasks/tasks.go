package tasks

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmb/internal/models"
	"github.com/desertthunder/ytmb/internal/repositories"
	"github.com/desertthunder/ytmb/internal/services"
	"github.com/desertthunder/ytmb/internal/shared"
	"golang.org/x/time/rate"
)

// RunState enumerates the sync orchestrator's state machine.
type RunState int

const (
	StateIdle RunState = iota
	StateFetching
	StateReconciling
	StateMirrorUpdating
	StateDone
	StateFailed
)

func (s RunState) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateReconciling:
		return "reconciling"
	case StateMirrorUpdating:
		return "mirror_updating"
	case StateDone:
		return "done"
	case StateFailed:
		return "failed"
	default:
		return ""
	}
}

// MarshalJSON renders the state by name.
func (s RunState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// SyncResult carries the terminal state and reports of one full run.
type SyncResult struct {
	State  RunState             `json:"state"`
	Report *models.SyncReport   `json:"report,omitempty"`
	Mirror *models.MirrorReport `json:"mirror,omitempty"`
}

// Engine orchestrates sync runs against one catalog and one store.
//
// Runs are single-flow: callers must not start a second run against the same
// store before the first completes, or interleaved get-or-create checks
// could race.
type Engine struct {
	catalog services.Catalog
	repo    *repositories.LibraryRepository
	cfg     shared.SyncConfig
	logger  *log.Logger
	limiter *rate.Limiter
}

// NewEngine creates a sync engine with the provided catalog, repository and
// run configuration. Zero config values fall back to defaults.
func NewEngine(catalog services.Catalog, repo *repositories.LibraryRepository, cfg shared.SyncConfig, logger *log.Logger) *Engine {
	if cfg.FetchWorkers <= 0 {
		cfg.FetchWorkers = 4
	}
	if cfg.FetchWorkers > 8 {
		cfg.FetchWorkers = 8
	}
	if cfg.RateLimit <= 0 {
		cfg.RateLimit = 5.0
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &Engine{
		catalog: catalog,
		repo:    repo,
		cfg:     cfg,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(cfg.RateLimit), 1),
	}
}

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
		// Sent successfully
	default:
		// Channel full or closed, skip this update
	}
}

// Run performs a full sync: fetch, reconcile, mirror, report.
//
// A fetch failure aborts before any write. Per-item reconciliation errors are
// collected in the report without failing the run. Mirror failures are
// recorded but never roll back committed reconciliation; only a storage
// failure flips the run to Failed after that point.
func (e *Engine) Run(ctx context.Context, progress chan<- ProgressUpdate) (*SyncResult, error) {
	if e.catalog == nil {
		return &SyncResult{State: StateFailed}, fmt.Errorf("%w: catalog not initialized", shared.ErrCatalogUnavailable)
	}
	if e.repo == nil {
		return &SyncResult{State: StateFailed}, fmt.Errorf("%w: repository not initialized", shared.ErrPersistence)
	}

	result := &SyncResult{State: StateFetching}
	e.logger.Info("sync run started", "catalog", e.catalog.Name())

	snapshot, err := e.FetchSnapshot(ctx, progress)
	if err != nil {
		result.State = StateFailed
		return result, fmt.Errorf("fetch failed, no reconciliation attempted: %w", err)
	}

	result.State = StateReconciling
	report, err := e.Reconcile(ctx, snapshot, progress)
	result.Report = report
	if err != nil {
		result.State = StateFailed
		return result, fmt.Errorf("reconciliation aborted: %w", err)
	}

	if e.cfg.MirrorEnabled {
		result.State = StateMirrorUpdating
		mirror, err := e.EnsureMirror(ctx, progress)
		result.Mirror = mirror
		if err != nil {
			if errors.Is(err, shared.ErrPersistence) {
				result.State = StateFailed
				return result, fmt.Errorf("mirror update aborted: %w", err)
			}
			// Remote write failures are recorded in the mirror report; the
			// committed reconciliation stands.
			e.logger.Warn("mirror update incomplete", "error", err)
		}
	}

	result.State = StateDone
	e.logger.Info("sync run complete",
		"created", report.Created, "updated", report.Updated,
		"removed", report.Removed, "errors", len(report.Errors))
	return result, nil
}

// FetchSnapshot pulls a complete remote snapshot.
//
// Per-playlist track fetches run concurrently on a bounded worker pool, all
// sharing the engine's rate limiter. Reads are order-independent, so
// parallelism is safe here; any failure discards the whole snapshot.
func (e *Engine) FetchSnapshot(ctx context.Context, progress chan<- ProgressUpdate) (*models.LibrarySnapshot, error) {
	playlists, err := e.catalog.FetchPlaylists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch playlists: %v", shared.ErrTransport, err)
	}
	e.sendProgress(progress, fetchPlaylistsUpdate(len(playlists)))

	albums, err := e.catalog.FetchAlbums(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch albums: %v", shared.ErrTransport, err)
	}

	artists, err := e.catalog.FetchArtists(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to fetch artists: %v", shared.ErrTransport, err)
	}
	e.sendProgress(progress, fetchLibraryUpdate(len(albums), len(artists)))

	if err := e.fetchPlaylistTracks(ctx, playlists, progress); err != nil {
		return nil, err
	}

	return &models.LibrarySnapshot{
		Playlists: playlists,
		Albums:    albums,
		Artists:   artists,
	}, nil
}

type trackFetchResult struct {
	index  int
	tracks []models.TrackRecord
	err    error
}

// fetchPlaylistTracks fills in track membership for every non-mirror
// playlist in place.
func (e *Engine) fetchPlaylistTracks(ctx context.Context, playlists []models.PlaylistSnapshot, progress chan<- ProgressUpdate) error {
	if len(playlists) == 0 {
		return nil
	}

	jobs := make(chan int, len(playlists))
	results := make(chan trackFetchResult, len(playlists))

	var wg sync.WaitGroup
	for i := 0; i < e.cfg.FetchWorkers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for idx := range jobs {
				if err := e.limiter.Wait(ctx); err != nil {
					results <- trackFetchResult{index: idx, err: err}
					continue
				}
				tracks, err := e.catalog.FetchPlaylistTracks(ctx, playlists[idx].RemoteID)
				results <- trackFetchResult{index: idx, tracks: tracks, err: err}
			}
		}()
	}

	queued := 0
	for i := range playlists {
		// The mirror's remote contents are push bookkeeping, not a
		// reconciliation input; skip the fetch entirely.
		if playlists[i].Title == shared.MirrorPlaylistTitle {
			continue
		}
		jobs <- i
		queued++
	}
	close(jobs)

	go func() {
		wg.Wait()
		close(results)
	}()

	var fetchErr error
	done := 0
	for res := range results {
		done++
		if res.err != nil {
			if fetchErr == nil {
				fetchErr = fmt.Errorf("%w: failed to fetch tracks for %q: %v",
					shared.ErrTransport, playlists[res.index].Title, res.err)
			}
			continue
		}
		playlists[res.index].Tracks = res.tracks
		e.sendProgress(progress, fetchTracksUpdate(done, queued, playlists[res.index].Title))
	}

	return fetchErr
}
