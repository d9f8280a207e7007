package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/ytmb/internal/models"
	"github.com/desertthunder/ytmb/internal/shared"
)

// Reconcile updates the local store to match a remote snapshot.
//
// Writes happen in small transactions: one per library section, one per
// playlist header, one per track with its links. A malformed record is
// recorded in the report and skipped; a storage error aborts the run with
// whatever the report has accumulated so far.
func (e *Engine) Reconcile(ctx context.Context, snapshot *models.LibrarySnapshot, progress chan<- ProgressUpdate) (*models.SyncReport, error) {
	report := &models.SyncReport{}

	if err := e.reconcileLibrary(ctx, snapshot, report); err != nil {
		return report, err
	}

	seenTitles := make(map[string]struct{}, len(snapshot.Playlists))
	for i, pl := range snapshot.Playlists {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		seenTitles[pl.Title] = struct{}{}
		if err := e.reconcilePlaylist(ctx, pl, report); err != nil {
			if errors.Is(err, shared.ErrMalformedRecord) {
				report.Errors = append(report.Errors, models.ItemError{Kind: "playlist", Key: pl.RemoteID, Err: err.Error()})
				continue
			}
			return report, err
		}
		e.sendProgress(progress, reconcilePlaylistUpdate(i+1, len(snapshot.Playlists), pl.Title, len(pl.Tracks)))
	}

	if err := e.pruneStalePlaylists(ctx, seenTitles, report, progress); err != nil {
		return report, err
	}

	if err := e.reconcileSavedFlags(ctx, snapshot, report); err != nil {
		return report, err
	}

	if err := e.sweepOrphans(ctx, report, progress); err != nil {
		return report, err
	}

	return report, nil
}

// reconcileLibrary upserts library-level album and artist saves in one
// transaction. These may not be reachable through any playlist.
func (e *Engine) reconcileLibrary(ctx context.Context, snapshot *models.LibrarySnapshot, report *models.SyncReport) error {
	tx, err := e.repo.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, album := range snapshot.Albums {
		album.UserSaved = true
		_, created, err := e.repo.GetOrCreateAlbum(ctx, tx, album.Name, album.UserSaved)
		if err != nil {
			if errors.Is(err, shared.ErrMalformedRecord) {
				report.Errors = append(report.Errors, models.ItemError{Kind: "album", Key: album.Name, Err: err.Error()})
				continue
			}
			return err
		}
		if created {
			report.Created++
		}
	}

	for _, artist := range snapshot.Artists {
		artist.UserSaved = true
		_, created, err := e.repo.GetOrCreateArtist(ctx, tx, artist.Name, artist.UserSaved)
		if err != nil {
			if errors.Is(err, shared.ErrMalformedRecord) {
				report.Errors = append(report.Errors, models.ItemError{Kind: "artist", Key: artist.Name, Err: err.Error()})
				continue
			}
			return err
		}
		if created {
			report.Created++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit library section: %v", shared.ErrPersistence, err)
	}
	return nil
}

// reconcilePlaylist upserts one playlist and its full membership.
//
// Each track commits in its own transaction so a malformed record in the
// middle of a playlist never discards its neighbors. Memberships absent from
// the snapshot are pruned afterwards.
//
// The reserved mirror playlist is upserted by title only. Its remote track
// list is never ingested: local mirror membership records what has been
// pushed, and reading the remote mirror back would resurrect tracks the
// library no longer holds.
func (e *Engine) reconcilePlaylist(ctx context.Context, pl models.PlaylistSnapshot, report *models.SyncReport) error {
	tx, err := e.repo.Begin(ctx)
	if err != nil {
		return err
	}
	playlist, created, err := e.repo.GetOrCreatePlaylist(ctx, tx, pl.Title)
	if err != nil {
		tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit playlist %q: %v", shared.ErrPersistence, pl.Title, err)
	}
	if created {
		report.Created++
	}

	if playlist.IsMirror() {
		return nil
	}

	keep := make([]string, 0, len(pl.Tracks))
	for position, rec := range pl.Tracks {
		if err := ctx.Err(); err != nil {
			return err
		}

		trackID, err := e.reconcileTrack(ctx, playlist.ID, position, rec, report)
		if err != nil {
			if errors.Is(err, shared.ErrMalformedRecord) {
				report.Errors = append(report.Errors, models.ItemError{Kind: "track", Key: rec.ExternalID, Err: err.Error()})
				continue
			}
			return err
		}
		keep = append(keep, trackID)
	}

	tx, err = e.repo.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	removed, err := e.repo.UnlinkPlaylistTracksExcept(ctx, tx, playlist.ID, keep)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit membership prune for %q: %v", shared.ErrPersistence, pl.Title, err)
	}
	report.Removed += removed
	return nil
}

// reconcileTrack upserts one track, its album, its artist links and its
// playlist membership as a single transaction. Returns the local track id.
func (e *Engine) reconcileTrack(ctx context.Context, playlistID string, position int, rec models.TrackRecord, report *models.SyncReport) (string, error) {
	if err := rec.Validate(); err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrMalformedRecord, err)
	}

	albumName := rec.Album.Name
	if albumName == "" {
		albumName = "Unknown Album"
	}

	tx, err := e.repo.Begin(ctx)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	unit := models.SyncReport{}

	album, created, err := e.repo.GetOrCreateAlbum(ctx, tx, albumName, rec.Album.UserSaved)
	if err != nil {
		return "", err
	}
	if created {
		unit.Created++
	}

	track, created, err := e.repo.GetOrCreateTrack(ctx, tx, rec.ExternalID, rec.Name, album.ID)
	if err != nil {
		return "", err
	}
	if created {
		unit.Created++
	}

	for _, a := range rec.Artists {
		if a.Name == "" {
			continue
		}
		artist, created, err := e.repo.GetOrCreateArtist(ctx, tx, a.Name, a.UserSaved)
		if err != nil {
			return "", err
		}
		if created {
			unit.Created++
		}
		linked, err := e.repo.LinkArtistTrack(ctx, tx, artist.ID, track.ID)
		if err != nil {
			return "", err
		}
		if linked {
			unit.Created++
		}
	}

	linkCreated, linkUpdated, err := e.repo.LinkPlaylistTrack(ctx, tx, playlistID, track.ID, position)
	if err != nil {
		return "", err
	}
	if linkCreated {
		unit.Created++
	}
	if linkUpdated {
		unit.Updated++
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("%w: failed to commit track %s: %v", shared.ErrPersistence, rec.ExternalID, err)
	}

	// Counts merge only after commit so a rolled-back unit leaves no trace
	// in the report.
	report.Merge(&unit)
	return track.ID, nil
}

// pruneStalePlaylists drops memberships of local playlists that no longer
// exist remotely, leaving their empty rows to the orphan sweep.
func (e *Engine) pruneStalePlaylists(ctx context.Context, seenTitles map[string]struct{}, report *models.SyncReport, progress chan<- ProgressUpdate) error {
	playlists, err := e.repo.ListPlaylists(ctx, e.repo.DB())
	if err != nil {
		return err
	}

	pruned := 0
	for _, pl := range playlists {
		if _, ok := seenTitles[pl.Title]; ok {
			continue
		}
		if pl.IsMirror() {
			continue
		}

		tx, err := e.repo.Begin(ctx)
		if err != nil {
			return err
		}
		removed, err := e.repo.UnlinkPlaylistTracksExcept(ctx, tx, pl.ID, nil)
		if err != nil {
			tx.Rollback()
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("%w: failed to commit stale prune for %q: %v", shared.ErrPersistence, pl.Title, err)
		}
		pruned += removed
	}

	if pruned > 0 {
		report.Removed += pruned
		e.sendProgress(progress, pruneStaleUpdate(pruned))
	}
	return nil
}

// reconcileSavedFlags resets saved markers the remote no longer reports.
func (e *Engine) reconcileSavedFlags(ctx context.Context, snapshot *models.LibrarySnapshot, report *models.SyncReport) error {
	albumNames := make([]string, 0, len(snapshot.Albums))
	for _, a := range snapshot.Albums {
		albumNames = append(albumNames, a.Name)
	}
	artistNames := make([]string, 0, len(snapshot.Artists))
	for _, a := range snapshot.Artists {
		artistNames = append(artistNames, a.Name)
	}

	tx, err := e.repo.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	changed, err := e.repo.ClearSavedAlbumsExcept(ctx, tx, albumNames)
	if err != nil {
		return err
	}
	report.Updated += changed

	changed, err = e.repo.ClearSavedArtistsExcept(ctx, tx, artistNames)
	if err != nil {
		return err
	}
	report.Updated += changed

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit saved flag reset: %v", shared.ErrPersistence, err)
	}
	return nil
}

// sweepOrphans removes rows no longer referenced by anything that counts as
// a reference. Mirror membership deliberately does not protect a track; the
// mirror only records what the library contained at some point.
func (e *Engine) sweepOrphans(ctx context.Context, report *models.SyncReport, progress chan<- ProgressUpdate) error {
	tx, err := e.repo.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	sweep, err := e.repo.DeleteUnreferenced(ctx, tx)
	if err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%w: failed to commit orphan sweep: %v", shared.ErrPersistence, err)
	}

	if sweep.Total() > 0 {
		report.Removed += sweep.Total()
		e.sendProgress(progress, sweepOrphansUpdate(sweep.Total()))
		e.logger.Debug("orphan sweep",
			"tracks", sweep.Tracks, "artists", sweep.Artists,
			"albums", sweep.Albums, "playlists", sweep.Playlists)
	}
	return nil
}
