// package formatter renders sync reports and library exports to various formats (CSV, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"

	"github.com/desertthunder/ytmb/internal/models"
	"github.com/desertthunder/ytmb/internal/repositories"
	"github.com/desertthunder/ytmb/internal/shared"
)

// SyncReportToText renders a reconciliation report as plain text.
func SyncReportToText(report *models.SyncReport) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Created: %d\n", report.Created))
	buf.WriteString(fmt.Sprintf("Updated: %d\n", report.Updated))
	buf.WriteString(fmt.Sprintf("Removed: %d\n", report.Removed))

	if len(report.Errors) > 0 {
		buf.WriteString(fmt.Sprintf("\nErrors: %d\n", len(report.Errors)))
		for i, e := range report.Errors {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, e.String()))
		}
	}

	return buf.Bytes()
}

// MirrorReportToText renders a mirror update report as plain text.
func MirrorReportToText(report *models.MirrorReport) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Mirror playlist: %s\n", shared.MirrorPlaylistTitle))
	if report.RemoteID != "" {
		buf.WriteString(fmt.Sprintf("Remote ID: %s\n", report.RemoteID))
	}
	buf.WriteString(fmt.Sprintf("Added: %d\n", report.Added))
	buf.WriteString(fmt.Sprintf("Already present: %d\n", report.AlreadyPresent))

	if len(report.Errors) > 0 {
		buf.WriteString(fmt.Sprintf("\nErrors: %d\n", len(report.Errors)))
		for i, e := range report.Errors {
			buf.WriteString(fmt.Sprintf("%d. %s\n", i+1, e.String()))
		}
	}

	return buf.Bytes()
}

// ErrorsToCSV converts per-item errors to CSV with columns: Kind, Key, Error
func ErrorsToCSV(itemErrors []models.ItemError) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Kind", "Key", "Error"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, e := range itemErrors {
		if err := writer.Write([]string{e.Kind, e.Key, e.Err}); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// TracksToCSV converts stored tracks to CSV with columns: ID, Name, ExternalID, AlbumID
func TracksToCSV(tracks []repositories.Track) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"ID", "Name", "ExternalID", "AlbumID"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range tracks {
		record := []string{
			track.ID,
			track.Name,
			track.ExternalID,
			track.AlbumID,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// TracksToText converts stored tracks to a numbered plain text listing.
func TracksToText(tracks []repositories.Track) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(tracks)))
	for i, track := range tracks {
		buf.WriteString(fmt.Sprintf("%d. %s [%s]\n", i+1, track.Name, track.ExternalID))
	}

	return buf.Bytes()
}

// StatsToText renders library counts as plain text.
func StatsToText(stats repositories.LibraryStats) []byte {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Artists:        %d\n", stats.Artists))
	buf.WriteString(fmt.Sprintf("Albums:         %d\n", stats.Albums))
	buf.WriteString(fmt.Sprintf("Tracks:         %d\n", stats.Tracks))
	buf.WriteString(fmt.Sprintf("Playlists:      %d\n", stats.Playlists))
	buf.WriteString(fmt.Sprintf("Artist links:   %d\n", stats.ArtistLinks))
	buf.WriteString(fmt.Sprintf("Playlist links: %d\n", stats.PlaylistLinks))

	return buf.Bytes()
}

// ToReportJSON generates a pretty-printed JSON representation of a report.
func ToReportJSON(v any) ([]byte, error) {
	return shared.MarshalJSON(v, true)
}

// WriteTracksCSV exports stored tracks to a CSV file.
//
// Defaults to tracks.csv as the filename.
func WriteTracksCSV(tracks []repositories.Track, filepath string) (string, error) {
	if filepath == "" {
		filepath = "tracks.csv"
	}

	csvData, err := TracksToCSV(tracks)
	if err != nil {
		return "", fmt.Errorf("failed to generate CSV: %w", err)
	}

	if err := os.WriteFile(filepath, csvData, 0644); err != nil {
		return "", fmt.Errorf("failed to write CSV file: %w", err)
	}

	return filepath, nil
}
