package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytmb/internal/shared"
)

// OrphanSweep reports what one DeleteUnreferenced pass removed.
type OrphanSweep struct {
	Tracks    int `json:"tracks"`
	Artists   int `json:"artists"`
	Albums    int `json:"albums"`
	Playlists int `json:"playlists"`
}

// Total returns the number of entity rows removed by the sweep.
func (s OrphanSweep) Total() int {
	return s.Tracks + s.Artists + s.Albums + s.Playlists
}

// DeleteUnreferenced removes entity rows with no remaining references.
//
// Mirror playlist membership does not protect a track: the mirror is a
// derived projection of the store, so a track kept alive only by the mirror
// is an orphan and its mirror link is pruned with it. Saved artists and
// albums still exist upstream in the user's library and are exempt, as is
// the mirror playlist row itself.
//
// Runs entirely on the caller's handle; callers wrap the sweep in its own
// transaction.
func (r *LibraryRepository) DeleteUnreferenced(ctx context.Context, q DBTX) (OrphanSweep, error) {
	var sweep OrphanSweep

	orphanIDs, err := r.orphanTrackIDs(ctx, q)
	if err != nil {
		return sweep, err
	}

	if len(orphanIDs) > 0 {
		in := placeholders(len(orphanIDs))
		args := make([]any, len(orphanIDs))
		for i, id := range orphanIDs {
			args[i] = id
		}

		// Association rows go first so the track deletes do not violate
		// foreign keys.
		if _, err := q.ExecContext(ctx, "DELETE FROM artist_tracks WHERE track_id IN ("+in+")", args...); err != nil {
			return sweep, fmt.Errorf("%w: failed to delete artist links: %v", shared.ErrPersistence, err)
		}
		if _, err := q.ExecContext(ctx, "DELETE FROM playlist_tracks WHERE track_id IN ("+in+")", args...); err != nil {
			return sweep, fmt.Errorf("%w: failed to delete playlist links: %v", shared.ErrPersistence, err)
		}
		if _, err := q.ExecContext(ctx, "DELETE FROM tracks WHERE id IN ("+in+")", args...); err != nil {
			return sweep, fmt.Errorf("%w: failed to delete tracks: %v", shared.ErrPersistence, err)
		}
		sweep.Tracks = len(orphanIDs)
	}

	sweep.Artists, err = r.execCount(ctx, q, `
		DELETE FROM artists WHERE user_saved = 0
		AND NOT EXISTS (SELECT 1 FROM artist_tracks at WHERE at.artist_id = artists.id)
	`)
	if err != nil {
		return sweep, fmt.Errorf("%w: failed to delete orphaned artists: %v", shared.ErrPersistence, err)
	}

	sweep.Albums, err = r.execCount(ctx, q, `
		DELETE FROM albums WHERE user_saved = 0
		AND NOT EXISTS (SELECT 1 FROM tracks t WHERE t.album_id = albums.id)
	`)
	if err != nil {
		return sweep, fmt.Errorf("%w: failed to delete orphaned albums: %v", shared.ErrPersistence, err)
	}

	sweep.Playlists, err = r.execCount(ctx, q, `
		DELETE FROM playlists WHERE title != ?
		AND NOT EXISTS (SELECT 1 FROM playlist_tracks pt WHERE pt.playlist_id = playlists.id)
	`, shared.MirrorPlaylistTitle)
	if err != nil {
		return sweep, fmt.Errorf("%w: failed to delete orphaned playlists: %v", shared.ErrPersistence, err)
	}

	return sweep, nil
}

// orphanTrackIDs finds tracks referenced by no playlist other than the
// mirror, whose album is not saved in the user's library.
func (r *LibraryRepository) orphanTrackIDs(ctx context.Context, q DBTX) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT t.id FROM tracks t
		JOIN albums a ON a.id = t.album_id
		WHERE a.user_saved = 0
		AND NOT EXISTS (
			SELECT 1 FROM playlist_tracks pt
			JOIN playlists p ON p.id = pt.playlist_id
			WHERE pt.track_id = t.id AND p.title != ?
		)
	`, shared.MirrorPlaylistTitle)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query orphaned tracks: %v", shared.ErrPersistence, err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%w: failed to scan track id: %v", shared.ErrPersistence, err)
		}
		ids = append(ids, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrPersistence, err)
	}

	return ids, nil
}

func (r *LibraryRepository) execCount(ctx context.Context, q DBTX, query string, args ...any) (int, error) {
	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}
