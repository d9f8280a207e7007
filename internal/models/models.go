package models

import "fmt"

// ArtistRecord represents an artist as observed in a remote snapshot.
type ArtistRecord struct {
	Name      string `json:"name"`
	UserSaved bool   `json:"user_saved"`
}

// AlbumRecord represents an album as observed in a remote snapshot.
type AlbumRecord struct {
	Name      string `json:"name"`
	UserSaved bool   `json:"user_saved"`
}

// TrackRecord represents a track as observed in a remote snapshot.
//
// ExternalID is the remote catalog's stable identifier (a video id) and the
// sole cross-run identity key for tracks.
type TrackRecord struct {
	ExternalID string         `json:"external_id"`
	Name       string         `json:"name"`
	Album      AlbumRecord    `json:"album"`
	Artists    []ArtistRecord `json:"artists"`
}

// Validate checks that the record carries the fields reconciliation requires.
func (t TrackRecord) Validate() error {
	if t.ExternalID == "" {
		return fmt.Errorf("track %q has no external id", t.Name)
	}
	if t.Name == "" {
		return fmt.Errorf("track %s has no name", t.ExternalID)
	}
	return nil
}

// PlaylistSnapshot represents a remote playlist and its track membership in
// remote order.
type PlaylistSnapshot struct {
	RemoteID string        `json:"remote_id"`
	Title    string        `json:"title"`
	Tracks   []TrackRecord `json:"tracks"`
}

// LibrarySnapshot is a complete point-in-time view of the remote catalog.
//
// Albums and Artists carry library-level saves (user_saved) that may not be
// reachable through any playlist; reconciliation processes both.
type LibrarySnapshot struct {
	Playlists []PlaylistSnapshot `json:"playlists"`
	Albums    []AlbumRecord      `json:"albums"`
	Artists   []ArtistRecord     `json:"artists"`
}

// TrackCount returns the total number of track records across all playlists.
func (s *LibrarySnapshot) TrackCount() int {
	n := 0
	for _, pl := range s.Playlists {
		n += len(pl.Tracks)
	}
	return n
}

// ItemError records a per-item failure that was isolated during a run.
type ItemError struct {
	Kind string `json:"kind"` // entity kind: track, playlist, album, artist
	Key  string `json:"key"`  // natural key of the offending item
	Err  string `json:"error"`
}

func (e ItemError) String() string {
	return fmt.Sprintf("%s %s: %s", e.Kind, e.Key, e.Err)
}

// SyncReport aggregates the outcome of one reconciliation pass.
type SyncReport struct {
	Created int         `json:"created"`
	Updated int         `json:"updated"`
	Removed int         `json:"removed"`
	Errors  []ItemError `json:"errors,omitempty"`
}

// Merge folds another report's counts and errors into this one.
func (r *SyncReport) Merge(other *SyncReport) {
	if other == nil {
		return
	}
	r.Created += other.Created
	r.Updated += other.Updated
	r.Removed += other.Removed
	r.Errors = append(r.Errors, other.Errors...)
}

// Clean reports whether the pass produced zero writes and zero errors.
// A repeated sync against an unchanged remote is expected to be clean.
func (r *SyncReport) Clean() bool {
	return r.Created == 0 && r.Updated == 0 && r.Removed == 0 && len(r.Errors) == 0
}

// MirrorReport aggregates the outcome of one mirror playlist update.
type MirrorReport struct {
	RemoteID       string      `json:"remote_id"`
	Added          int         `json:"added"`
	AlreadyPresent int         `json:"already_present"`
	Errors         []ItemError `json:"errors,omitempty"`
}
