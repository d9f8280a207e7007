package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/desertthunder/ytmb/internal/shared"
)

func TestFetchPlaylists(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/library/playlists" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodGet {
			t.Errorf("unexpected method: %s", r.Method)
		}
		json.NewEncoder(w).Encode([]map[string]any{
			{"playlistId": "PL1", "title": "Morning", "count": 12},
			{"playlistId": "PL2", "title": "Evening", "count": 4},
		})
	}))
	defer server.Close()

	catalog := NewProxyCatalog(server.URL, "")
	playlists, err := catalog.FetchPlaylists(context.Background())
	if err != nil {
		t.Fatalf("failed to fetch playlists: %v", err)
	}

	if len(playlists) != 2 {
		t.Fatalf("expected 2 playlists, got %d", len(playlists))
	}
	if playlists[0].RemoteID != "PL1" {
		t.Errorf("expected remote ID PL1, got %s", playlists[0].RemoteID)
	}
	if playlists[1].Title != "Evening" {
		t.Errorf("expected title Evening, got %s", playlists[1].Title)
	}
}

func TestFetchPlaylistTracks(t *testing.T) {
	t.Run("FlattensAlbumAndArtists", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/playlists/PL1" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}
			json.NewEncoder(w).Encode(map[string]any{
				"id":    "PL1",
				"title": "Morning",
				"tracks": []map[string]any{
					{
						"videoId": "vid1",
						"title":   "Dayvan Cowboy",
						"artists": []map[string]any{{"name": "Boards of Canada", "id": "ar1"}},
						"album":   map[string]any{"name": "Campfire Headphase", "id": "al1"},
					},
				},
			})
		}))
		defer server.Close()

		catalog := NewProxyCatalog(server.URL, "")
		tracks, err := catalog.FetchPlaylistTracks(context.Background(), "PL1")
		if err != nil {
			t.Fatalf("failed to fetch tracks: %v", err)
		}

		if len(tracks) != 1 {
			t.Fatalf("expected 1 track, got %d", len(tracks))
		}
		if tracks[0].ExternalID != "vid1" {
			t.Errorf("expected external ID vid1, got %s", tracks[0].ExternalID)
		}
		if tracks[0].Album.Name != "Campfire Headphase" {
			t.Errorf("expected album name, got %s", tracks[0].Album.Name)
		}
		if len(tracks[0].Artists) != 1 || tracks[0].Artists[0].Name != "Boards of Canada" {
			t.Errorf("unexpected artists: %v", tracks[0].Artists)
		}
	})

	t.Run("MissingAlbumDefaults", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			json.NewEncoder(w).Encode(map[string]any{
				"id":    "PL1",
				"title": "Morning",
				"tracks": []map[string]any{
					{"videoId": "vid1", "title": "Rare Single", "artists": []map[string]any{}},
				},
			})
		}))
		defer server.Close()

		catalog := NewProxyCatalog(server.URL, "")
		tracks, err := catalog.FetchPlaylistTracks(context.Background(), "PL1")
		if err != nil {
			t.Fatalf("failed to fetch tracks: %v", err)
		}

		if tracks[0].Album.Name != "Unknown Album" {
			t.Errorf("expected Unknown Album fallback, got %s", tracks[0].Album.Name)
		}
	})
}

func TestFetchLibrary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/library/albums":
			json.NewEncoder(w).Encode([]map[string]any{{"title": "Geogaddi"}})
		case "/api/library/artists":
			json.NewEncoder(w).Encode([]map[string]any{{"artist": "Boards of Canada"}})
		default:
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
	}))
	defer server.Close()

	catalog := NewProxyCatalog(server.URL, "")

	albums, err := catalog.FetchAlbums(context.Background())
	if err != nil {
		t.Fatalf("failed to fetch albums: %v", err)
	}
	if len(albums) != 1 || !albums[0].UserSaved {
		t.Errorf("expected 1 saved album, got %v", albums)
	}

	artists, err := catalog.FetchArtists(context.Background())
	if err != nil {
		t.Fatalf("failed to fetch artists: %v", err)
	}
	if len(artists) != 1 || artists[0].Name != "Boards of Canada" {
		t.Errorf("expected Boards of Canada, got %v", artists)
	}
}

func TestCreatePlaylist(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/playlists" {
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}

		var req struct {
			Title string `json:"title"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Title != shared.MirrorPlaylistTitle {
			t.Errorf("expected title %s, got %s", shared.MirrorPlaylistTitle, req.Title)
		}

		json.NewEncoder(w).Encode(map[string]string{"playlist_id": "PLNEW"})
	}))
	defer server.Close()

	catalog := NewProxyCatalog(server.URL, "")
	remoteID, err := catalog.CreatePlaylist(context.Background(), shared.MirrorPlaylistTitle)
	if err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}
	if remoteID != "PLNEW" {
		t.Errorf("expected PLNEW, got %s", remoteID)
	}
}

func TestAddPlaylistTracks(t *testing.T) {
	t.Run("SendsVideoIDs", func(t *testing.T) {
		var received []string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path != "/api/playlists/PL1/items" {
				t.Errorf("unexpected path: %s", r.URL.Path)
			}

			var req struct {
				VideoIDs []string `json:"video_ids"`
			}
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				t.Fatalf("failed to decode request: %v", err)
			}
			received = req.VideoIDs
			w.WriteHeader(http.StatusOK)
		}))
		defer server.Close()

		catalog := NewProxyCatalog(server.URL, "")
		if err := catalog.AddPlaylistTracks(context.Background(), "PL1", []string{"vid1", "vid2"}); err != nil {
			t.Fatalf("failed to add tracks: %v", err)
		}
		if len(received) != 2 {
			t.Errorf("expected 2 video ids, got %v", received)
		}
	})

	t.Run("EmptyBatchSkipsRequest", func(t *testing.T) {
		requested := false
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requested = true
		}))
		defer server.Close()

		catalog := NewProxyCatalog(server.URL, "")
		if err := catalog.AddPlaylistTracks(context.Background(), "PL1", nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if requested {
			t.Error("expected no request for empty batch")
		}
	})
}

func TestDoRequestErrors(t *testing.T) {
	t.Run("ErrorStatus", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			json.NewEncoder(w).Encode(map[string]string{"detail": "auth expired"})
		}))
		defer server.Close()

		catalog := NewProxyCatalog(server.URL, "")
		_, err := catalog.FetchPlaylists(context.Background())
		if err == nil {
			t.Fatal("expected error for 401 response")
		}
		if !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected transport error, got %v", err)
		}
	})

	t.Run("ServerDown", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
		server.Close()

		catalog := NewProxyCatalog(server.URL, "")
		_, err := catalog.FetchPlaylists(context.Background())
		if !errors.Is(err, shared.ErrTransport) {
			t.Errorf("expected transport error, got %v", err)
		}
	})

	t.Run("AuthFileHeader", func(t *testing.T) {
		var header string
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header = r.Header.Get("X-Auth-File")
			json.NewEncoder(w).Encode([]map[string]any{})
		}))
		defer server.Close()

		catalog := NewProxyCatalog(server.URL, "/home/user/.ytmb/browser.json")
		if _, err := catalog.FetchPlaylists(context.Background()); err != nil {
			t.Fatalf("failed to fetch playlists: %v", err)
		}
		if header != "/home/user/.ytmb/browser.json" {
			t.Errorf("expected auth file header, got %q", header)
		}
	})
}
