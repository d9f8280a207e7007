package formatter

import (
	"encoding/csv"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/ytmb/internal/models"
	"github.com/desertthunder/ytmb/internal/repositories"
	tu "github.com/desertthunder/ytmb/internal/testing"
)

func sampleReport() *models.SyncReport {
	return &models.SyncReport{
		Created: 12,
		Updated: 2,
		Removed: 1,
		Errors: []models.ItemError{
			{Kind: "track", Key: "vid9", Err: "track vid9 has no name"},
		},
	}
}

func sampleTracks() []repositories.Track {
	return []repositories.Track{
		{ID: "t1", Name: "Dayvan Cowboy", ExternalID: "vid1", AlbumID: "a1"},
		{ID: "t2", Name: "Gantz Graf", ExternalID: "vid2", AlbumID: "a2"},
	}
}

func TestSyncReportToText(t *testing.T) {
	out := string(SyncReportToText(sampleReport()))

	for _, want := range []string{"Created: 12", "Updated: 2", "Removed: 1", "Errors: 1", "vid9"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
}

func TestMirrorReportToText(t *testing.T) {
	report := &models.MirrorReport{RemoteID: "PL1", Added: 3, AlreadyPresent: 40}
	out := string(MirrorReportToText(report))

	for _, want := range []string{"PL1", "Added: 3", "Already present: 40"} {
		if !strings.Contains(out, want) {
			t.Errorf("expected output to contain %q, got:\n%s", want, out)
		}
	}
	if strings.Contains(out, "Errors") {
		t.Error("expected no error section for clean report")
	}
}

func TestErrorsToCSV(t *testing.T) {
	data, err := ErrorsToCSV(sampleReport().Errors)
	if err != nil {
		t.Fatalf("failed to generate CSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}
	if len(records) != 2 {
		t.Fatalf("expected header plus 1 record, got %d rows", len(records))
	}
	if records[1][0] != "track" || records[1][1] != "vid9" {
		t.Errorf("unexpected record: %v", records[1])
	}
}

func TestTracksToCSV(t *testing.T) {
	data, err := TracksToCSV(sampleTracks())
	if err != nil {
		t.Fatalf("failed to generate CSV: %v", err)
	}

	records, err := csv.NewReader(strings.NewReader(string(data))).ReadAll()
	if err != nil {
		t.Fatalf("failed to parse CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("expected header plus 2 records, got %d rows", len(records))
	}
	if records[0][2] != "ExternalID" {
		t.Errorf("unexpected header: %v", records[0])
	}
	if records[1][1] != "Dayvan Cowboy" {
		t.Errorf("unexpected first record: %v", records[1])
	}
}

func TestTracksToText(t *testing.T) {
	out := string(TracksToText(sampleTracks()))

	if !strings.Contains(out, "Tracks: 2") {
		t.Errorf("expected track count, got:\n%s", out)
	}
	if !strings.Contains(out, "1. Dayvan Cowboy [vid1]") {
		t.Errorf("expected numbered listing, got:\n%s", out)
	}
}

func TestWriteTracksCSV(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "export.csv")

	written, err := WriteTracksCSV(sampleTracks(), path)
	if err != nil {
		t.Fatalf("failed to write CSV: %v", err)
	}
	if written != path {
		t.Errorf("expected path %s, got %s", path, written)
	}

	tu.AssertFileExists(t, path)
	if data := tu.MustReadFile(t, path); !strings.Contains(data, "vid2") {
		t.Error("expected exported data to contain track external ids")
	}
}

func TestToReportJSON(t *testing.T) {
	data, err := ToReportJSON(sampleReport())
	if err != nil {
		t.Fatalf("failed to marshal report: %v", err)
	}

	var decoded models.SyncReport
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("expected valid JSON, got %v:\n%s", err, data)
	}
	if decoded.Created != 12 {
		t.Errorf("expected created count 12, got %d", decoded.Created)
	}
	if !strings.Contains(string(data), "\n") {
		t.Error("expected pretty-printed output")
	}
}
