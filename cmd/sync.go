package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytmb/internal/formatter"
	"github.com/desertthunder/ytmb/internal/tasks"
	"github.com/urfave/cli/v3"
)

// SyncRun performs a full fetch, reconcile and mirror update.
func (r *Runner) SyncRun(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	if cmd.Bool("no-mirror") {
		r.config.Sync.MirrorEnabled = false
	}

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

	result, runErr := engine.Run(ctx, progress)
	close(progress)
	<-done

	if cmd.Bool("json") {
		if err := r.writeJSON(result, cmd.Bool("pretty")); err != nil {
			return err
		}
		return runErr
	}

	r.writePlain("Sync %s\n\n", result.State.String())
	if result.Report != nil {
		r.writePlain("%s", formatter.SyncReportToText(result.Report))
	}
	if result.Mirror != nil {
		r.writePlainln("%s", formatter.MirrorReportToText(result.Mirror))
	}

	if runErr != nil {
		return fmt.Errorf("sync failed: %w", runErr)
	}
	return nil
}
