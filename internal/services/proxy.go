// YouTube Music [Catalog] implementation.
//
// Communicates with the FastAPI proxy server (music/) running on port 8080.
// The proxy wraps the ytmusicapi Python library for YouTube Music operations.
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/ytmb/internal/models"
	"github.com/desertthunder/ytmb/internal/shared"
)

const defaultProxyBaseURL string = "http://localhost:8080"

// proxyArtist represents an artist in proxy responses.
type proxyArtist struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

type proxyAlbum struct {
	Name string `json:"name"`
	ID   string `json:"id"`
}

// proxyTrack represents a track/video in proxy responses.
type proxyTrack struct {
	VideoID string        `json:"videoId"`
	Title   string        `json:"title"`
	Artists []proxyArtist `json:"artists"`
	Album   *proxyAlbum   `json:"album"`
}

// ProxyCatalog implements the Catalog interface against the proxy.
type ProxyCatalog struct {
	baseURL    string
	authFile   string
	httpClient *http.Client
}

// NewProxyCatalog creates a new catalog client for the given proxy base URL.
//
// authFile is the path to the proxy's browser.json; it is forwarded as an
// opaque header and may be empty when the proxy holds its own credentials.
func NewProxyCatalog(baseURL, authFile string) *ProxyCatalog {
	if baseURL == "" {
		baseURL = defaultProxyBaseURL
	}

	return &ProxyCatalog{
		baseURL:    baseURL,
		authFile:   authFile,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// Name returns the catalog backend name.
func (c *ProxyCatalog) Name() string {
	return "YouTube Music"
}

func (c *ProxyCatalog) doRequest(ctx context.Context, method, endpoint string, body, result any) error {
	apiURL := c.baseURL + endpoint

	var reqBody *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("failed to marshal request body: %w", err)
		}
		reqBody = bytes.NewReader(data)
	} else {
		reqBody = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, apiURL, reqBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	if c.authFile != "" {
		req.Header.Set("X-Auth-File", c.authFile)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTransport, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var errResp struct {
			Detail string `json:"detail"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Detail != "" {
			return fmt.Errorf("%w: status %d: %s", shared.ErrTransport, resp.StatusCode, errResp.Detail)
		}
		return fmt.Errorf("%w: status %d", shared.ErrTransport, resp.StatusCode)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}

// FetchPlaylists retrieves all playlists for the authenticated user.
//
// Calls GET /api/library/playlists on the proxy. Track membership is not
// included; use FetchPlaylistTracks per playlist.
func (c *ProxyCatalog) FetchPlaylists(ctx context.Context) ([]models.PlaylistSnapshot, error) {
	var proxyPlaylists []struct {
		PlaylistID string `json:"playlistId"`
		Title      string `json:"title"`
		Count      int    `json:"count"`
	}

	if err := c.doRequest(ctx, http.MethodGet, "/api/library/playlists", nil, &proxyPlaylists); err != nil {
		return nil, err
	}

	playlists := make([]models.PlaylistSnapshot, len(proxyPlaylists))
	for i, pp := range proxyPlaylists {
		playlists[i] = models.PlaylistSnapshot{
			RemoteID: pp.PlaylistID,
			Title:    pp.Title,
		}
	}

	return playlists, nil
}

// FetchPlaylistTracks retrieves the track records of a playlist.
//
// Calls GET /api/playlists/{id} on the proxy.
func (c *ProxyCatalog) FetchPlaylistTracks(ctx context.Context, remoteID string) ([]models.TrackRecord, error) {
	var proxyPlaylist struct {
		ID     string       `json:"id"`
		Title  string       `json:"title"`
		Tracks []proxyTrack `json:"tracks"`
	}

	endpoint := fmt.Sprintf("/api/playlists/%s", remoteID)
	if err := c.doRequest(ctx, http.MethodGet, endpoint, nil, &proxyPlaylist); err != nil {
		return nil, err
	}

	tracks := make([]models.TrackRecord, len(proxyPlaylist.Tracks))
	for i, pt := range proxyPlaylist.Tracks {
		tracks[i] = trackRecordFromProxy(pt)
	}

	return tracks, nil
}

// FetchAlbums retrieves the user's saved library albums.
//
// Calls GET /api/library/albums on the proxy.
func (c *ProxyCatalog) FetchAlbums(ctx context.Context) ([]models.AlbumRecord, error) {
	var proxyAlbums []struct {
		Title string `json:"title"`
	}

	if err := c.doRequest(ctx, http.MethodGet, "/api/library/albums", nil, &proxyAlbums); err != nil {
		return nil, err
	}

	albums := make([]models.AlbumRecord, len(proxyAlbums))
	for i, pa := range proxyAlbums {
		albums[i] = models.AlbumRecord{Name: pa.Title, UserSaved: true}
	}

	return albums, nil
}

// FetchArtists retrieves the user's saved library artists.
//
// Calls GET /api/library/artists on the proxy.
func (c *ProxyCatalog) FetchArtists(ctx context.Context) ([]models.ArtistRecord, error) {
	var proxyArtists []struct {
		Artist string `json:"artist"`
	}

	if err := c.doRequest(ctx, http.MethodGet, "/api/library/artists", nil, &proxyArtists); err != nil {
		return nil, err
	}

	artists := make([]models.ArtistRecord, len(proxyArtists))
	for i, pa := range proxyArtists {
		artists[i] = models.ArtistRecord{Name: pa.Artist, UserSaved: true}
	}

	return artists, nil
}

// CreatePlaylist creates an empty playlist on the remote catalog.
//
// Calls POST /api/playlists on the proxy and returns the new playlist id.
func (c *ProxyCatalog) CreatePlaylist(ctx context.Context, title string) (string, error) {
	createReq := struct {
		Title         string `json:"title"`
		Description   string `json:"description"`
		PrivacyStatus string `json:"privacy_status"`
	}{
		Title:         title,
		Description:   "Maintained by ytmb",
		PrivacyStatus: "PRIVATE",
	}

	var createResp struct {
		PlaylistID string `json:"playlist_id"`
	}

	if err := c.doRequest(ctx, http.MethodPost, "/api/playlists", createReq, &createResp); err != nil {
		return "", err
	}
	if createResp.PlaylistID == "" {
		return "", fmt.Errorf("%w: proxy returned empty playlist id", shared.ErrTransport)
	}

	return createResp.PlaylistID, nil
}

// AddPlaylistTracks appends tracks to a remote playlist by video id.
//
// Calls POST /api/playlists/{id}/items on the proxy.
func (c *ProxyCatalog) AddPlaylistTracks(ctx context.Context, remoteID string, externalIDs []string) error {
	if len(externalIDs) == 0 {
		return nil
	}

	addReq := struct {
		VideoIDs []string `json:"video_ids"`
	}{
		VideoIDs: externalIDs,
	}

	endpoint := fmt.Sprintf("/api/playlists/%s/items", remoteID)
	return c.doRequest(ctx, http.MethodPost, endpoint, addReq, nil)
}

// trackRecordFromProxy flattens a proxy track into a snapshot record.
// Tracks with no album are grouped under an "Unknown Album" row so the
// album reference invariant holds.
func trackRecordFromProxy(pt proxyTrack) models.TrackRecord {
	rec := models.TrackRecord{
		ExternalID: pt.VideoID,
		Name:       pt.Title,
		Album:      models.AlbumRecord{Name: "Unknown Album"},
	}

	if pt.Album != nil && pt.Album.Name != "" {
		rec.Album = models.AlbumRecord{Name: pt.Album.Name}
	}

	for _, artist := range pt.Artists {
		if artist.Name == "" {
			continue
		}
		rec.Artists = append(rec.Artists, models.ArtistRecord{Name: artist.Name})
	}

	return rec
}
