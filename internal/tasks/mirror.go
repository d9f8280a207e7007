package tasks

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/ytmb/internal/models"
	"github.com/desertthunder/ytmb/internal/repositories"
	"github.com/desertthunder/ytmb/internal/shared"
)

// mirrorBatchSize caps how many tracks one remote add request carries.
const mirrorBatchSize = 50

// EnsureMirror brings the remote mirror playlist up to date with the local
// library.
//
// The mirror is additive only: tracks are appended, never removed, so it
// accumulates everything the library has ever contained. The local membership
// rows for the mirror playlist record what has already been pushed; a batch
// is marked pushed only after the remote accepts it, so a failed run re-sends
// at most one batch's worth of duplicates-free additions next time.
func (e *Engine) EnsureMirror(ctx context.Context, progress chan<- ProgressUpdate) (*models.MirrorReport, error) {
	report := &models.MirrorReport{}

	remoteID, created, err := e.findOrCreateRemoteMirror(ctx)
	if err != nil {
		report.Errors = append(report.Errors, models.ItemError{Kind: "mirror", Key: shared.MirrorPlaylistTitle, Err: err.Error()})
		return report, err
	}
	report.RemoteID = remoteID
	e.sendProgress(progress, mirrorLookupUpdate(remoteID, created))

	tx, err := e.repo.Begin(ctx)
	if err != nil {
		return report, err
	}
	mirror, _, err := e.repo.GetOrCreatePlaylist(ctx, tx, shared.MirrorPlaylistTitle)
	if err != nil {
		tx.Rollback()
		return report, err
	}
	if err := tx.Commit(); err != nil {
		return report, fmt.Errorf("%w: failed to commit mirror playlist: %v", shared.ErrPersistence, err)
	}

	pushed, err := e.repo.PlaylistTrackIDs(ctx, e.repo.DB(), mirror.ID)
	if err != nil {
		return report, err
	}
	report.AlreadyPresent = len(pushed)

	missing, err := e.repo.TracksNotInPlaylist(ctx, e.repo.DB(), mirror.ID)
	if err != nil {
		return report, err
	}
	if len(missing) == 0 {
		e.logger.Debug("mirror already current", "remote_id", remoteID, "present", report.AlreadyPresent)
		return report, nil
	}

	position, err := e.repo.NextPlaylistPosition(ctx, e.repo.DB(), mirror.ID)
	if err != nil {
		return report, err
	}
	batches := (len(missing) + mirrorBatchSize - 1) / mirrorBatchSize
	var pushErr error

	for b := 0; b < batches; b++ {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		start := b * mirrorBatchSize
		end := start + mirrorBatchSize
		if end > len(missing) {
			end = len(missing)
		}
		batch := missing[start:end]

		if err := e.pushMirrorBatch(ctx, remoteID, batch); err != nil {
			// Record and keep going; every batch is independent and the
			// unpushed tracks stay in the diff for the next run.
			report.Errors = append(report.Errors, models.ItemError{
				Kind: "mirror",
				Key:  batch[0].ExternalID,
				Err:  err.Error(),
			})
			if pushErr == nil {
				pushErr = err
			}
			continue
		}

		if err := e.recordMirrorBatch(ctx, mirror.ID, batch, position); err != nil {
			return report, err
		}
		position += len(batch)
		report.Added += len(batch)
		e.sendProgress(progress, mirrorPushUpdate(b+1, batches))
	}

	return report, pushErr
}

// findOrCreateRemoteMirror locates the remote mirror playlist by title, or
// creates it when absent. Title match is exact.
func (e *Engine) findOrCreateRemoteMirror(ctx context.Context) (string, bool, error) {
	playlists, err := e.catalog.FetchPlaylists(ctx)
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to list remote playlists: %v", shared.ErrTransport, err)
	}

	for _, pl := range playlists {
		if pl.Title == shared.MirrorPlaylistTitle {
			return pl.RemoteID, false, nil
		}
	}

	remoteID, err := e.catalog.CreatePlaylist(ctx, shared.MirrorPlaylistTitle)
	if err != nil {
		return "", false, fmt.Errorf("%w: failed to create mirror playlist: %v", shared.ErrTransport, err)
	}
	e.logger.Info("created remote mirror playlist", "remote_id", remoteID)
	return remoteID, true, nil
}

// pushMirrorBatch sends one batch of track additions with bounded retries.
func (e *Engine) pushMirrorBatch(ctx context.Context, remoteID string, batch []repositories.Track) error {
	externalIDs := make([]string, len(batch))
	for i, t := range batch {
		externalIDs[i] = t.ExternalID
	}

	backoff := 500 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt < e.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return err
		}
		if err := e.catalog.AddPlaylistTracks(ctx, remoteID, externalIDs); err != nil {
			lastErr = err
			e.logger.Warn("mirror batch push failed", "attempt", attempt+1, "tracks", len(batch), "error", err)
			continue
		}
		return nil
	}

	return fmt.Errorf("%w: batch of %d tracks failed after %d attempts: %v",
		shared.ErrTransport, len(batch), e.cfg.MaxRetries, lastErr)
}

// recordMirrorBatch links a pushed batch into the local mirror membership in
// one transaction, appending positions after everything already present.
func (e *Engine) recordMirrorBatch(ctx context.Context, mirrorID string, batch []repositories.Track, position int) error {
	tx, err := e.repo.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for i, t := range batch {
		if _, _, err := e.repo.LinkPlaylistTrack(ctx, tx, mirrorID, t.ID, position+i); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit mirror membership batch: %v", shared.ErrPersistence, err)
	}
	return nil
}
