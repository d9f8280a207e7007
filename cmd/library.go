package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/ytmb/internal/formatter"
	"github.com/desertthunder/ytmb/internal/repositories"
	"github.com/urfave/cli/v3"
)

// LibraryTracks lists stored tracks, optionally exporting them to CSV.
func (r *Runner) LibraryTracks(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	repo := repositories.NewLibraryRepository(db)
	tracks, err := repo.ListTracks(ctx, repo.DB())
	if err != nil {
		return fmt.Errorf("failed to list tracks: %w", err)
	}

	if output := cmd.String("output"); output != "" {
		path, err := formatter.WriteTracksCSV(tracks, output)
		if err != nil {
			return err
		}
		r.writePlain("Exported %d tracks to %s\n", len(tracks), path)
		return nil
	}

	if cmd.Bool("json") {
		return r.writeJSON(tracks, cmd.Bool("pretty"))
	}

	return r.writePlain("%s", formatter.TracksToText(tracks))
}

// LibraryPlaylists lists stored playlists.
func (r *Runner) LibraryPlaylists(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	repo := repositories.NewLibraryRepository(db)
	playlists, err := repo.ListPlaylists(ctx, repo.DB())
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	r.writePlain("Playlists: %d\n\n", len(playlists))
	for i, pl := range playlists {
		ids, err := repo.PlaylistTrackIDs(ctx, repo.DB(), pl.ID)
		if err != nil {
			return fmt.Errorf("failed to count playlist tracks: %w", err)
		}
		marker := ""
		if pl.IsMirror() {
			marker = " (mirror)"
		}
		r.writePlain("%d. %s%s [%d tracks]\n", i+1, pl.Title, marker, len(ids))
	}
	return nil
}

// LibraryStats shows library row counts.
func (r *Runner) LibraryStats(ctx context.Context, cmd *cli.Command) error {
	db, closeDB, err := r.openDatabase()
	if err != nil {
		return err
	}
	defer closeDB()

	repo := repositories.NewLibraryRepository(db)
	stats, err := repo.Stats(ctx, repo.DB())
	if err != nil {
		return fmt.Errorf("failed to gather stats: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(stats, true)
	}

	return r.writePlain("%s", formatter.StatsToText(stats))
}
