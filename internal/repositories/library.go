package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/desertthunder/ytmb/internal/shared"
)

// Artist is a persisted artist row.
type Artist struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	Name      string    `json:"name"`
	UserSaved bool      `json:"user_saved"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Album is a persisted album row.
type Album struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	Name      string    `json:"name"`
	UserSaved bool      `json:"user_saved"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Track is a persisted track row. ExternalID is the remote catalog's stable
// identifier and the only cross-run identity key.
type Track struct {
	ID         string    `json:"id"`
	Sequence   int       `json:"sequence"`
	Name       string    `json:"name"`
	ExternalID string    `json:"external_id"`
	AlbumID    string    `json:"album_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Playlist is a persisted playlist row, keyed by its unique title.
type Playlist struct {
	ID        string    `json:"id"`
	Sequence  int       `json:"sequence"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsMirror reports whether this is the reserved mirror playlist.
func (p Playlist) IsMirror() bool {
	return p.Title == shared.MirrorPlaylistTitle
}

// LibraryRepository provides get-or-create, link and sweep operations over
// the library schema.
type LibraryRepository struct {
	db *sql.DB
}

// NewLibraryRepository creates a new LibraryRepository with the given database connection
func NewLibraryRepository(db *sql.DB) *LibraryRepository {
	return &LibraryRepository{db: db}
}

// Begin starts a transaction for one logical unit of writes.
func (r *LibraryRepository) Begin(ctx context.Context) (*sql.Tx, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to begin transaction: %v", shared.ErrPersistence, err)
	}
	return tx, nil
}

// DB returns the underlying connection for read-only queries outside any
// transaction.
func (r *LibraryRepository) DB() *sql.DB {
	return r.db
}

// GetOrCreateArtist resolves an artist by name, creating it if absent.
//
// A saved flag observed as true is sticky for the duration of a run; the
// reconciler resets stale flags via ClearSavedArtistsExcept afterwards.
func (r *LibraryRepository) GetOrCreateArtist(ctx context.Context, q DBTX, name string, userSaved bool) (Artist, bool, error) {
	if name == "" {
		return Artist{}, false, fmt.Errorf("%w: artist has no name", shared.ErrMalformedRecord)
	}

	artist, err := r.artistByName(ctx, q, name)
	if err == nil {
		if userSaved && !artist.UserSaved {
			if err := r.setArtistSaved(ctx, q, artist.ID, true); err != nil {
				return Artist{}, false, err
			}
			artist.UserSaved = true
		}
		return artist, false, nil
	}
	if err != sql.ErrNoRows {
		return Artist{}, false, fmt.Errorf("%w: failed to query artist: %v", shared.ErrPersistence, err)
	}

	sequence, err := NextSequence(ctx, q, "artists")
	if err != nil {
		return Artist{}, false, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	now := time.Now().UTC()
	artist = Artist{
		ID:        shared.GenerateID(),
		Sequence:  sequence,
		Name:      name,
		UserSaved: userSaved,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO artists (id, sequence, name, user_saved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, artist.ID, artist.Sequence, artist.Name, artist.UserSaved, artist.CreatedAt, artist.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			// Lost a duplicate-insert race, the row exists now.
			existing, lookupErr := r.artistByName(ctx, q, name)
			if lookupErr != nil {
				return Artist{}, false, fmt.Errorf("%w: artist exists but lookup failed: %v", shared.ErrPersistence, lookupErr)
			}
			return existing, false, nil
		}
		return Artist{}, false, fmt.Errorf("%w: failed to insert artist: %v", shared.ErrPersistence, err)
	}

	return artist, true, nil
}

// GetOrCreateAlbum resolves an album by name, creating it if absent.
func (r *LibraryRepository) GetOrCreateAlbum(ctx context.Context, q DBTX, name string, userSaved bool) (Album, bool, error) {
	if name == "" {
		return Album{}, false, fmt.Errorf("%w: album has no name", shared.ErrMalformedRecord)
	}

	album, err := r.albumByName(ctx, q, name)
	if err == nil {
		if userSaved && !album.UserSaved {
			if err := r.setAlbumSaved(ctx, q, album.ID, true); err != nil {
				return Album{}, false, err
			}
			album.UserSaved = true
		}
		return album, false, nil
	}
	if err != sql.ErrNoRows {
		return Album{}, false, fmt.Errorf("%w: failed to query album: %v", shared.ErrPersistence, err)
	}

	sequence, err := NextSequence(ctx, q, "albums")
	if err != nil {
		return Album{}, false, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	now := time.Now().UTC()
	album = Album{
		ID:        shared.GenerateID(),
		Sequence:  sequence,
		Name:      name,
		UserSaved: userSaved,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO albums (id, sequence, name, user_saved, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, album.ID, album.Sequence, album.Name, album.UserSaved, album.CreatedAt, album.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := r.albumByName(ctx, q, name)
			if lookupErr != nil {
				return Album{}, false, fmt.Errorf("%w: album exists but lookup failed: %v", shared.ErrPersistence, lookupErr)
			}
			return existing, false, nil
		}
		return Album{}, false, fmt.Errorf("%w: failed to insert album: %v", shared.ErrPersistence, err)
	}

	return album, true, nil
}

// GetOrCreateTrack resolves a track by external id, creating it if absent.
//
// Re-encountering a known external id always resolves to the existing row no
// matter which playlist it arrived through.
func (r *LibraryRepository) GetOrCreateTrack(ctx context.Context, q DBTX, externalID, name, albumID string) (Track, bool, error) {
	if externalID == "" {
		return Track{}, false, fmt.Errorf("%w: track %q has no external id", shared.ErrMalformedRecord, name)
	}
	if name == "" {
		return Track{}, false, fmt.Errorf("%w: track %s has no name", shared.ErrMalformedRecord, externalID)
	}

	track, err := r.TrackByExternalID(ctx, q, externalID)
	if err == nil {
		return track, false, nil
	}
	if err != sql.ErrNoRows {
		return Track{}, false, fmt.Errorf("%w: failed to query track: %v", shared.ErrPersistence, err)
	}

	sequence, err := NextSequence(ctx, q, "tracks")
	if err != nil {
		return Track{}, false, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	now := time.Now().UTC()
	track = Track{
		ID:         shared.GenerateID(),
		Sequence:   sequence,
		Name:       name,
		ExternalID: externalID,
		AlbumID:    albumID,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO tracks (id, sequence, name, external_id, album_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, track.ID, track.Sequence, track.Name, track.ExternalID, track.AlbumID, track.CreatedAt, track.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := r.TrackByExternalID(ctx, q, externalID)
			if lookupErr != nil {
				return Track{}, false, fmt.Errorf("%w: track exists but lookup failed: %v", shared.ErrPersistence, lookupErr)
			}
			return existing, false, nil
		}
		return Track{}, false, fmt.Errorf("%w: failed to insert track: %v", shared.ErrPersistence, err)
	}

	return track, true, nil
}

// GetOrCreatePlaylist resolves a playlist by title, creating it if absent.
func (r *LibraryRepository) GetOrCreatePlaylist(ctx context.Context, q DBTX, title string) (Playlist, bool, error) {
	if title == "" {
		return Playlist{}, false, fmt.Errorf("%w: playlist has no title", shared.ErrMalformedRecord)
	}

	playlist, err := r.PlaylistByTitle(ctx, q, title)
	if err == nil {
		return playlist, false, nil
	}
	if err != sql.ErrNoRows {
		return Playlist{}, false, fmt.Errorf("%w: failed to query playlist: %v", shared.ErrPersistence, err)
	}

	sequence, err := NextSequence(ctx, q, "playlists")
	if err != nil {
		return Playlist{}, false, fmt.Errorf("%w: %v", shared.ErrPersistence, err)
	}

	now := time.Now().UTC()
	playlist = Playlist{
		ID:        shared.GenerateID(),
		Sequence:  sequence,
		Title:     title,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = q.ExecContext(ctx, `
		INSERT INTO playlists (id, sequence, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)
	`, playlist.ID, playlist.Sequence, playlist.Title, playlist.CreatedAt, playlist.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			existing, lookupErr := r.PlaylistByTitle(ctx, q, title)
			if lookupErr != nil {
				return Playlist{}, false, fmt.Errorf("%w: playlist exists but lookup failed: %v", shared.ErrPersistence, lookupErr)
			}
			return existing, false, nil
		}
		return Playlist{}, false, fmt.Errorf("%w: failed to insert playlist: %v", shared.ErrPersistence, err)
	}

	return playlist, true, nil
}

// LinkArtistTrack creates the (artist, track) association if it does not
// exist. Returns false when the pair is already linked.
func (r *LibraryRepository) LinkArtistTrack(ctx context.Context, q DBTX, artistID, trackID string) (bool, error) {
	_, err := q.ExecContext(ctx, `
		INSERT INTO artist_tracks (artist_id, track_id, created_at)
		VALUES (?, ?, ?)
	`, artistID, trackID, time.Now().UTC())
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("%w: failed to link artist to track: %v", shared.ErrPersistence, err)
	}

	return true, nil
}

// LinkPlaylistTrack creates the (playlist, track) association with the given
// position, or overwrites the stored position when it differs.
//
// Returns created=true for a new link, updated=true for a position change.
// Both false means the membership already matched: this is what makes a
// repeated full sync produce zero incremental writes.
func (r *LibraryRepository) LinkPlaylistTrack(ctx context.Context, q DBTX, playlistID, trackID string, position int) (created, updated bool, err error) {
	var current int
	err = q.QueryRowContext(ctx, `
		SELECT position FROM playlist_tracks WHERE playlist_id = ? AND track_id = ?
	`, playlistID, trackID).Scan(&current)

	switch {
	case err == sql.ErrNoRows:
		now := time.Now().UTC()
		_, err = q.ExecContext(ctx, `
			INSERT INTO playlist_tracks (playlist_id, track_id, position, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?)
		`, playlistID, trackID, position, now, now)
		if err != nil {
			if isUniqueViolation(err) {
				return false, false, nil
			}
			return false, false, fmt.Errorf("%w: failed to link track to playlist: %v", shared.ErrPersistence, err)
		}
		return true, false, nil

	case err != nil:
		return false, false, fmt.Errorf("%w: failed to query playlist link: %v", shared.ErrPersistence, err)

	case current != position:
		_, err = q.ExecContext(ctx, `
			UPDATE playlist_tracks SET position = ?, updated_at = ? WHERE playlist_id = ? AND track_id = ?
		`, position, time.Now().UTC(), playlistID, trackID)
		if err != nil {
			return false, false, fmt.Errorf("%w: failed to update track position: %v", shared.ErrPersistence, err)
		}
		return false, true, nil

	default:
		return false, false, nil
	}
}

// UnlinkPlaylistTracksExcept removes membership rows for a playlist whose
// track is not in keepTrackIDs, returning the number removed.
//
// The reconciler uses this to drop memberships that disappeared from the
// remote snapshot. Never called for the mirror playlist, which is
// additive-only.
func (r *LibraryRepository) UnlinkPlaylistTracksExcept(ctx context.Context, q DBTX, playlistID string, keepTrackIDs []string) (int, error) {
	query := "DELETE FROM playlist_tracks WHERE playlist_id = ?"
	args := []any{playlistID}

	if len(keepTrackIDs) > 0 {
		query += " AND track_id NOT IN (" + placeholders(len(keepTrackIDs)) + ")"
		for _, id := range keepTrackIDs {
			args = append(args, id)
		}
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to prune playlist tracks: %v", shared.ErrPersistence, err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get affected rows: %v", shared.ErrPersistence, err)
	}

	return int(removed), nil
}

// ClearSavedArtistsExcept resets user_saved on artists whose name is not in
// keepNames, returning the number changed.
func (r *LibraryRepository) ClearSavedArtistsExcept(ctx context.Context, q DBTX, keepNames []string) (int, error) {
	return r.clearSaved(ctx, q, "artists", keepNames)
}

// ClearSavedAlbumsExcept resets user_saved on albums whose name is not in
// keepNames, returning the number changed.
func (r *LibraryRepository) ClearSavedAlbumsExcept(ctx context.Context, q DBTX, keepNames []string) (int, error) {
	return r.clearSaved(ctx, q, "albums", keepNames)
}

func (r *LibraryRepository) clearSaved(ctx context.Context, q DBTX, table string, keepNames []string) (int, error) {
	query := fmt.Sprintf("UPDATE %s SET user_saved = 0, updated_at = ? WHERE user_saved = 1", table)
	args := []any{time.Now().UTC()}

	if len(keepNames) > 0 {
		query += " AND name NOT IN (" + placeholders(len(keepNames)) + ")"
		for _, name := range keepNames {
			args = append(args, name)
		}
	}

	result, err := q.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("%w: failed to clear saved flags on %s: %v", shared.ErrPersistence, table, err)
	}

	changed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%w: failed to get affected rows: %v", shared.ErrPersistence, err)
	}

	return int(changed), nil
}

func (r *LibraryRepository) setArtistSaved(ctx context.Context, q DBTX, id string, saved bool) error {
	_, err := q.ExecContext(ctx, "UPDATE artists SET user_saved = ?, updated_at = ? WHERE id = ?", saved, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: failed to update artist saved flag: %v", shared.ErrPersistence, err)
	}
	return nil
}

func (r *LibraryRepository) setAlbumSaved(ctx context.Context, q DBTX, id string, saved bool) error {
	_, err := q.ExecContext(ctx, "UPDATE albums SET user_saved = ?, updated_at = ? WHERE id = ?", saved, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("%w: failed to update album saved flag: %v", shared.ErrPersistence, err)
	}
	return nil
}

// placeholders builds a "?, ?, ?" list of length n for IN clauses.
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	out := make([]byte, 0, n*3-2)
	for i := 0; i < n; i++ {
		if i > 0 {
			out = append(out, ", "...)
		}
		out = append(out, '?')
	}
	return string(out)
}
