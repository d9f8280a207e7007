// Package tasks implements the library sync engine: snapshot fetching,
// reconciliation, and mirror playlist maintenance.
//
// # Core Operations
//
// The [Engine] sequences a full run through a small state machine
// (Idle → Fetching → Reconciling → MirrorUpdating → Done, Failed from any
// non-terminal state):
//
//  1. [Engine.FetchSnapshot] : pulls a complete remote snapshot before any
//     write happens. Playlist track fetches run on a bounded worker pool
//     behind a shared rate limiter; any fetch failure aborts the run so
//     reconciliation never sees a partial snapshot.
//
//  2. [Engine.Reconcile] : converges the store to the snapshot. Each track
//     with its artist links and playlist membership is one transaction;
//     malformed records are skipped and recorded, storage failures abort
//     the run. Ends with stale-membership pruning and the orphan sweep.
//
//  3. [Engine.EnsureMirror] : maintains the reserved "ytmb-all" playlist on
//     the remote, appending every store track not yet mirrored. This is the
//     only component that writes to the remote catalog. Writes are rate
//     limited and retried a bounded number of times; failures are recorded
//     in the report without invalidating committed reconciliation.
//
// # Progress Reporting
//
// All operations emit [ProgressUpdate] values on an optional channel using
// select with default, so a slow or absent consumer never blocks a run.
package tasks
