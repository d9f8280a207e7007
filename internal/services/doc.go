// Package services defines the abstract remote catalog consumed by the sync
// engine, plus its HTTP proxy implementation.
//
// # Catalog
//
// The [Catalog] interface is the engine's only view of the remote music
// service. Reads feed the Fetching phase; the two write operations
// ([Catalog.CreatePlaylist], [Catalog.AddPlaylistTracks]) are reserved for
// the mirror playlist builder and must not be called elsewhere.
//
// # ProxyCatalog
//
// [ProxyCatalog] talks to the FastAPI proxy wrapping ytmusicapi on
// localhost:8080. Authentication is an opaque auth-file header forwarded to
// the proxy; credential handling itself is out of scope here.
package services
