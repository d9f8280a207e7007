package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytmb/internal/formatter"
	"github.com/desertthunder/ytmb/internal/repositories"
	"github.com/desertthunder/ytmb/internal/shared"
	"github.com/desertthunder/ytmb/internal/tasks"
	"github.com/urfave/cli/v3"
)

// MirrorPush pushes library tracks missing from the mirror playlist without
// running a full sync first.
func (r *Runner) MirrorPush(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	engine, err := r.newEngine(db)
	if err != nil {
		return err
	}

	progress := make(chan tasks.ProgressUpdate, 64)
	done := make(chan struct{})
	go func() {
		r.drainProgress(progress)
		close(done)
	}()

	report, pushErr := engine.EnsureMirror(ctx, progress)
	close(progress)
	<-done

	if cmd.Bool("json") {
		if err := r.writeJSON(report, cmd.Bool("pretty")); err != nil {
			return err
		}
		return pushErr
	}

	r.writePlain("%s", formatter.MirrorReportToText(report))
	if pushErr != nil {
		return fmt.Errorf("mirror push incomplete: %w", pushErr)
	}
	return nil
}

// MirrorStatus reports how far the mirror playlist lags the library.
func (r *Runner) MirrorStatus(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	repo := repositories.NewLibraryRepository(db)

	mirror, err := repo.PlaylistByTitle(ctx, repo.DB(), shared.MirrorPlaylistTitle)
	if err != nil {
		r.writePlain("Mirror playlist %q has not been created yet, run 'ytmb sync run' first\n", shared.MirrorPlaylistTitle)
		return nil
	}

	pushed, err := repo.PlaylistTrackIDs(ctx, repo.DB(), mirror.ID)
	if err != nil {
		return fmt.Errorf("failed to read mirror membership: %w", err)
	}

	missing, err := repo.TracksNotInPlaylist(ctx, repo.DB(), mirror.ID)
	if err != nil {
		return fmt.Errorf("failed to diff mirror membership: %w", err)
	}

	r.writePlain("Mirror playlist: %s\n", shared.MirrorPlaylistTitle)
	r.writePlain("Pushed:  %d\n", len(pushed))
	r.writePlain("Missing: %d\n", len(missing))
	return nil
}
