// Package models defines the data model for the library backup engine.
//
// Two families of types live here:
//
//   - Remote snapshot DTOs ([LibrarySnapshot], [PlaylistSnapshot],
//     [TrackRecord], [AlbumRecord], [ArtistRecord]) : the shape of the remote
//     catalog as observed during the Fetching phase. A snapshot is complete
//     and read-only before reconciliation begins.
//   - Run reports ([SyncReport], [MirrorReport], [ItemError]) : the aggregated
//     outcome of a run, including per-item errors that did not abort it.
//
// Persisted row types for the local store live in the repositories package;
// models only carries what crosses component boundaries.
package models
