package repositories

import (
	"context"
	"database/sql"
	"testing"

	"github.com/desertthunder/ytmb/internal/shared"
)

// seedTrack creates an album, track and artist link in one call.
func seedTrack(t *testing.T, repo *LibraryRepository, db *sql.DB, externalID, albumName, artistName string, saved bool) Track {
	t.Helper()
	ctx := context.Background()

	album, _, err := repo.GetOrCreateAlbum(ctx, db, albumName, saved)
	if err != nil {
		t.Fatalf("failed to create album: %v", err)
	}
	track, _, err := repo.GetOrCreateTrack(ctx, db, externalID, "Track "+externalID, album.ID)
	if err != nil {
		t.Fatalf("failed to create track: %v", err)
	}
	artist, _, err := repo.GetOrCreateArtist(ctx, db, artistName, false)
	if err != nil {
		t.Fatalf("failed to create artist: %v", err)
	}
	if _, err := repo.LinkArtistTrack(ctx, db, artist.ID, track.ID); err != nil {
		t.Fatalf("failed to link artist: %v", err)
	}
	return track
}

func TestDeleteUnreferenced(t *testing.T) {
	t.Run("RemovesUnreferencedTrack", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLibraryRepository(db)
		ctx := context.Background()

		seedTrack(t, repo, db, "vid1", "Unsaved Album", "Some Artist", false)

		sweep, err := repo.DeleteUnreferenced(ctx, db)
		if err != nil {
			t.Fatalf("failed to sweep: %v", err)
		}
		if sweep.Tracks != 1 {
			t.Errorf("expected 1 track removed, got %d", sweep.Tracks)
		}
		if sweep.Artists != 1 {
			t.Errorf("expected 1 artist removed, got %d", sweep.Artists)
		}
		if sweep.Albums != 1 {
			t.Errorf("expected 1 album removed, got %d", sweep.Albums)
		}
	})

	t.Run("PlaylistMembershipProtects", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLibraryRepository(db)
		ctx := context.Background()

		track := seedTrack(t, repo, db, "vid1", "Unsaved Album", "Some Artist", false)
		playlist, _, err := repo.GetOrCreatePlaylist(ctx, db, "Focus")
		if err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}
		if _, _, err := repo.LinkPlaylistTrack(ctx, db, playlist.ID, track.ID, 0); err != nil {
			t.Fatalf("failed to link track: %v", err)
		}

		sweep, err := repo.DeleteUnreferenced(ctx, db)
		if err != nil {
			t.Fatalf("failed to sweep: %v", err)
		}
		if sweep.Total() != 0 {
			t.Errorf("expected nothing removed, got %d", sweep.Total())
		}
	})

	t.Run("SavedAlbumProtects", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLibraryRepository(db)
		ctx := context.Background()

		seedTrack(t, repo, db, "vid1", "Saved Album", "Some Artist", true)

		sweep, err := repo.DeleteUnreferenced(ctx, db)
		if err != nil {
			t.Fatalf("failed to sweep: %v", err)
		}
		if sweep.Tracks != 0 {
			t.Errorf("expected no tracks removed, got %d", sweep.Tracks)
		}
		if sweep.Albums != 0 {
			t.Errorf("expected no albums removed, got %d", sweep.Albums)
		}
	})

	t.Run("MirrorMembershipDoesNotProtect", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLibraryRepository(db)
		ctx := context.Background()

		track := seedTrack(t, repo, db, "vid1", "Unsaved Album", "Some Artist", false)
		mirror, _, err := repo.GetOrCreatePlaylist(ctx, db, shared.MirrorPlaylistTitle)
		if err != nil {
			t.Fatalf("failed to create mirror playlist: %v", err)
		}
		if _, _, err := repo.LinkPlaylistTrack(ctx, db, mirror.ID, track.ID, 0); err != nil {
			t.Fatalf("failed to link track: %v", err)
		}

		sweep, err := repo.DeleteUnreferenced(ctx, db)
		if err != nil {
			t.Fatalf("failed to sweep: %v", err)
		}
		if sweep.Tracks != 1 {
			t.Errorf("expected mirror-only track removed, got %d removed", sweep.Tracks)
		}

		// The mirror playlist row itself always survives.
		if _, err := repo.PlaylistByTitle(ctx, db, shared.MirrorPlaylistTitle); err != nil {
			t.Errorf("mirror playlist should survive sweep: %v", err)
		}
	})

	t.Run("RemovesEmptyPlaylist", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLibraryRepository(db)
		ctx := context.Background()

		if _, _, err := repo.GetOrCreatePlaylist(ctx, db, "Abandoned"); err != nil {
			t.Fatalf("failed to create playlist: %v", err)
		}

		sweep, err := repo.DeleteUnreferenced(ctx, db)
		if err != nil {
			t.Fatalf("failed to sweep: %v", err)
		}
		if sweep.Playlists != 1 {
			t.Errorf("expected 1 playlist removed, got %d", sweep.Playlists)
		}
	})

	t.Run("Idempotent", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewLibraryRepository(db)
		ctx := context.Background()

		seedTrack(t, repo, db, "vid1", "Unsaved Album", "Some Artist", false)

		if _, err := repo.DeleteUnreferenced(ctx, db); err != nil {
			t.Fatalf("failed to sweep: %v", err)
		}

		sweep, err := repo.DeleteUnreferenced(ctx, db)
		if err != nil {
			t.Fatalf("failed to re-sweep: %v", err)
		}
		if sweep.Total() != 0 {
			t.Errorf("expected second sweep to remove nothing, got %d", sweep.Total())
		}
	})
}
