package tasks

import "fmt"

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced consumers
}

// Operation phase enumeration
type Phase int

const (
	FetchPlaylists Phase = iota
	FetchLibrary
	FetchTracks
	ReconcilePlaylist
	PruneStale
	SweepOrphans
	MirrorLookup
	MirrorPush
)

func (p Phase) String() string {
	switch p {
	case FetchPlaylists:
		return "fetch_playlists"
	case FetchLibrary:
		return "fetch_library"
	case FetchTracks:
		return "fetch_tracks"
	case ReconcilePlaylist:
		return "reconcile_playlist"
	case PruneStale:
		return "prune_stale"
	case SweepOrphans:
		return "sweep_orphans"
	case MirrorLookup:
		return "mirror_lookup"
	case MirrorPush:
		return "mirror_push"
	default:
		return ""
	}
}

func fetchPlaylistsUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d remote playlists", total),
	}
}

func fetchLibraryUpdate(albums, artists int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchLibrary,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Library: %d saved albums, %d saved artists", albums, artists),
	}
}

func fetchTracksUpdate(step, total int, title string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Fetching tracks: %s", step, total, title),
	}
}

func reconcilePlaylistUpdate(step, total int, title string, tracks int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReconcilePlaylist,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Reconciling %s (%d tracks)", step, total, title, tracks),
	}
}

func pruneStaleUpdate(removed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   PruneStale,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Pruned %d stale memberships", removed),
	}
}

func sweepOrphansUpdate(removed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SweepOrphans,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Orphan sweep removed %d rows", removed),
	}
}

func mirrorLookupUpdate(remoteID string, created bool) ProgressUpdate {
	msg := fmt.Sprintf("Mirror playlist found (ID: %s)", remoteID)
	if created {
		msg = fmt.Sprintf("Mirror playlist created (ID: %s)", remoteID)
	}
	return ProgressUpdate{
		Phase:   MirrorLookup,
		Step:    1,
		Total:   1,
		Message: msg,
	}
}

func mirrorPushUpdate(step, total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   MirrorPush,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Appending missing tracks to mirror", step, total),
	}
}
