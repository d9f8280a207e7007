package repositories

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytmb/internal/shared"
)

// TrackByExternalID retrieves a track by its remote identifier.
// Returns sql.ErrNoRows when absent.
func (r *LibraryRepository) TrackByExternalID(ctx context.Context, q DBTX, externalID string) (Track, error) {
	var t Track
	err := q.QueryRowContext(ctx, `
		SELECT id, sequence, name, external_id, album_id, created_at, updated_at
		FROM tracks WHERE external_id = ?
	`, externalID).Scan(&t.ID, &t.Sequence, &t.Name, &t.ExternalID, &t.AlbumID, &t.CreatedAt, &t.UpdatedAt)
	return t, err
}

// PlaylistByTitle retrieves a playlist by its unique title.
// Returns sql.ErrNoRows when absent.
func (r *LibraryRepository) PlaylistByTitle(ctx context.Context, q DBTX, title string) (Playlist, error) {
	var p Playlist
	err := q.QueryRowContext(ctx, `
		SELECT id, sequence, title, created_at, updated_at
		FROM playlists WHERE title = ?
	`, title).Scan(&p.ID, &p.Sequence, &p.Title, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}

func (r *LibraryRepository) artistByName(ctx context.Context, q DBTX, name string) (Artist, error) {
	var a Artist
	err := q.QueryRowContext(ctx, `
		SELECT id, sequence, name, user_saved, created_at, updated_at
		FROM artists WHERE name = ?
	`, name).Scan(&a.ID, &a.Sequence, &a.Name, &a.UserSaved, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

func (r *LibraryRepository) albumByName(ctx context.Context, q DBTX, name string) (Album, error) {
	var a Album
	err := q.QueryRowContext(ctx, `
		SELECT id, sequence, name, user_saved, created_at, updated_at
		FROM albums WHERE name = ?
	`, name).Scan(&a.ID, &a.Sequence, &a.Name, &a.UserSaved, &a.CreatedAt, &a.UpdatedAt)
	return a, err
}

// ListTracks retrieves all tracks ordered by sequence.
func (r *LibraryRepository) ListTracks(ctx context.Context, q DBTX) ([]Track, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, sequence, name, external_id, album_id, created_at, updated_at
		FROM tracks ORDER BY sequence ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query tracks: %v", shared.ErrPersistence, err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.ID, &t.Sequence, &t.Name, &t.ExternalID, &t.AlbumID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan track: %v", shared.ErrPersistence, err)
		}
		tracks = append(tracks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrPersistence, err)
	}

	return tracks, nil
}

// ListPlaylists retrieves all playlists ordered by sequence.
func (r *LibraryRepository) ListPlaylists(ctx context.Context, q DBTX) ([]Playlist, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, sequence, title, created_at, updated_at
		FROM playlists ORDER BY sequence ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query playlists: %v", shared.ErrPersistence, err)
	}
	defer rows.Close()

	var playlists []Playlist
	for rows.Next() {
		var p Playlist
		if err := rows.Scan(&p.ID, &p.Sequence, &p.Title, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan playlist: %v", shared.ErrPersistence, err)
		}
		playlists = append(playlists, p)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrPersistence, err)
	}

	return playlists, nil
}

// PlaylistTrackIDs returns the track ids linked to a playlist in position
// order.
func (r *LibraryRepository) PlaylistTrackIDs(ctx context.Context, q DBTX, playlistID string) ([]string, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT track_id FROM playlist_tracks WHERE playlist_id = ? ORDER BY position ASC
	`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query playlist tracks: %v", shared.ErrPersistence, err)
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

// NextPlaylistPosition returns one past the highest position stored for a
// playlist, or zero when the playlist is empty. Sweeps leave gaps in the
// position sequence, so counting rows is not a safe append offset.
func (r *LibraryRepository) NextPlaylistPosition(ctx context.Context, q DBTX, playlistID string) (int, error) {
	var next int
	err := q.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(position) + 1, 0) FROM playlist_tracks WHERE playlist_id = ?
	`, playlistID).Scan(&next)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to query next position: %v", shared.ErrPersistence, err)
	}
	return next, nil
}

// TracksNotInPlaylist returns tracks with no membership row in the given
// playlist, ordered by sequence. This is the mirror builder's difference set.
func (r *LibraryRepository) TracksNotInPlaylist(ctx context.Context, q DBTX, playlistID string) ([]Track, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT t.id, t.sequence, t.name, t.external_id, t.album_id, t.created_at, t.updated_at
		FROM tracks t
		WHERE NOT EXISTS (
			SELECT 1 FROM playlist_tracks pt
			WHERE pt.playlist_id = ? AND pt.track_id = t.id
		)
		ORDER BY t.sequence ASC
	`, playlistID)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to query missing tracks: %v", shared.ErrPersistence, err)
	}
	defer rows.Close()

	var tracks []Track
	for rows.Next() {
		var t Track
		if err := rows.Scan(&t.ID, &t.Sequence, &t.Name, &t.ExternalID, &t.AlbumID, &t.CreatedAt, &t.UpdatedAt); err != nil {
			return nil, fmt.Errorf("%w: failed to scan track: %v", shared.ErrPersistence, err)
		}
		tracks = append(tracks, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: row iteration error: %v", shared.ErrPersistence, err)
	}

	return tracks, nil
}

// LibraryStats counts rows per entity table.
type LibraryStats struct {
	Artists       int `json:"artists"`
	Albums        int `json:"albums"`
	Tracks        int `json:"tracks"`
	Playlists     int `json:"playlists"`
	ArtistLinks   int `json:"artist_links"`
	PlaylistLinks int `json:"playlist_links"`
}

// Stats returns row counts for every entity and association table.
func (r *LibraryRepository) Stats(ctx context.Context, q DBTX) (LibraryStats, error) {
	var stats LibraryStats
	counts := []struct {
		table  string
		target *int
	}{
		{"artists", &stats.Artists},
		{"albums", &stats.Albums},
		{"tracks", &stats.Tracks},
		{"playlists", &stats.Playlists},
		{"artist_tracks", &stats.ArtistLinks},
		{"playlist_tracks", &stats.PlaylistLinks},
	}

	for _, c := range counts {
		err := q.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s", c.table)).Scan(c.target)
		if err != nil {
			return stats, fmt.Errorf("%w: failed to count %s: %v", shared.ErrPersistence, c.table, err)
		}
	}

	return stats, nil
}
