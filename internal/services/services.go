package services

import (
	"context"

	"github.com/desertthunder/ytmb/internal/models"
)

// Catalog defines the interface for the remote music catalog.
//
// The remote is authoritative: reads produce snapshot records for
// reconciliation, and the only permitted writes append to the mirror
// playlist. Implementations are expected to enforce their own timeouts.
type Catalog interface {
	// FetchPlaylists retrieves all playlists for the authenticated user,
	// without track membership.
	FetchPlaylists(ctx context.Context) ([]models.PlaylistSnapshot, error)

	// FetchPlaylistTracks retrieves the track records of one playlist in
	// remote order.
	FetchPlaylistTracks(ctx context.Context, remoteID string) ([]models.TrackRecord, error)

	// FetchAlbums retrieves the user's saved library albums.
	FetchAlbums(ctx context.Context) ([]models.AlbumRecord, error)

	// FetchArtists retrieves the user's saved library artists.
	FetchArtists(ctx context.Context) ([]models.ArtistRecord, error)

	// CreatePlaylist creates an empty playlist on the remote catalog and
	// returns its remote identifier.
	CreatePlaylist(ctx context.Context, title string) (string, error)

	// AddPlaylistTracks appends tracks (by external id) to a remote playlist.
	AddPlaylistTracks(ctx context.Context, remoteID string, externalIDs []string) error

	// Name returns the name of the catalog backend (e.g., "YouTube Music")
	Name() string
}
