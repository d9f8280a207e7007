// Package repositories implements SQLite persistence for the library mirror.
//
// The central type is [LibraryRepository], a repository over the six-entity
// schema (artists, albums, tracks, playlists and their two association
// tables). Its operations are deliberately narrow:
//
//   - get-or-create by natural key (external_id for tracks, title for
//     playlists, name for artists and albums)
//   - link/unlink for association rows
//   - [LibraryRepository.DeleteUnreferenced] : the orphan sweep
//
// Every mutating method takes an explicit [DBTX] handle so the caller owns
// transaction boundaries; one logical unit (a track plus its links) commits
// or rolls back atomically. Uniqueness is enforced by the schema, and a
// UNIQUE violation during an insert is recovered by falling back to a lookup
// rather than surfacing an error.
//
// Sequence numbers provide stable, human-readable ordering (e.g., track #42)
// independent of UUIDs and creation timestamps. [NextSequence] increments
// per-table counters on the caller's transaction.
package repositories
