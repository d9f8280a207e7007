// package testing contains shared testing utilities
package testing

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"os"
	"testing"

	"github.com/desertthunder/ytmb/internal/models"
	"github.com/desertthunder/ytmb/internal/shared"
)

// MockCatalog is a configurable test double for [services.Catalog].
type MockCatalog struct {
	Playlists []models.PlaylistSnapshot
	Tracks    map[string][]models.TrackRecord
	Albums    []models.AlbumRecord
	Artists   []models.ArtistRecord

	CreatedRemoteID string
	AddedIDs        []string

	FetchErr  error
	CreateErr error
	AddErr    error
}

func (m *MockCatalog) Name() string { return "mock" }

func (m *MockCatalog) FetchPlaylists(ctx context.Context) ([]models.PlaylistSnapshot, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return m.Playlists, nil
}

func (m *MockCatalog) FetchPlaylistTracks(ctx context.Context, remoteID string) ([]models.TrackRecord, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return m.Tracks[remoteID], nil
}

func (m *MockCatalog) FetchAlbums(ctx context.Context) ([]models.AlbumRecord, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return m.Albums, nil
}

func (m *MockCatalog) FetchArtists(ctx context.Context) ([]models.ArtistRecord, error) {
	if m.FetchErr != nil {
		return nil, m.FetchErr
	}
	return m.Artists, nil
}

func (m *MockCatalog) CreatePlaylist(ctx context.Context, title string) (string, error) {
	if m.CreateErr != nil {
		return "", m.CreateErr
	}
	if m.CreatedRemoteID == "" {
		m.CreatedRemoteID = "mock-remote-playlist"
	}
	m.Playlists = append(m.Playlists, models.PlaylistSnapshot{RemoteID: m.CreatedRemoteID, Title: title})
	return m.CreatedRemoteID, nil
}

func (m *MockCatalog) AddPlaylistTracks(ctx context.Context, remoteID string, externalIDs []string) error {
	if m.AddErr != nil {
		return m.AddErr
	}
	m.AddedIDs = append(m.AddedIDs, externalIDs...)
	return nil
}

// MustOpenDB creates a migrated in-memory database for tests.
func MustOpenDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
