package main

import (
	"bytes"
	"context"
	"os"
	"strings"
	"testing"

	"github.com/desertthunder/ytmb/internal/models"
	"github.com/desertthunder/ytmb/internal/shared"
	tu "github.com/desertthunder/ytmb/internal/testing"
	"github.com/urfave/cli/v3"
)

func newTestRunner(t *testing.T, catalog *tu.MockCatalog) (*Runner, *bytes.Buffer) {
	t.Helper()

	db := tu.MustOpenDB(t)
	t.Cleanup(func() { db.Close() })

	output := &bytes.Buffer{}
	config := shared.DefaultConfig()
	config.Sync.RateLimit = 1000
	config.Sync.MaxRetries = 1

	runner := NewRunner(RunnerOpts{
		Config:  config,
		Catalog: catalog,
		DB:      db,
		Logger:  shared.NewLogger(output),
		Output:  output,
	})
	return runner, output
}

func runApp(t *testing.T, runner *Runner, args ...string) error {
	t.Helper()

	app := &cli.Command{
		Name:     "ytmb",
		Commands: runner.register(),
	}
	return app.Run(context.Background(), append([]string{"ytmb"}, args...))
}

func catalogFixture() *tu.MockCatalog {
	return &tu.MockCatalog{
		Playlists: []models.PlaylistSnapshot{{RemoteID: "pl1", Title: "Morning"}},
		Tracks: map[string][]models.TrackRecord{
			"pl1": {
				{
					ExternalID: "vid1",
					Name:       "Dayvan Cowboy",
					Album:      models.AlbumRecord{Name: "Campfire Headphase"},
					Artists:    []models.ArtistRecord{{Name: "Boards of Canada"}},
				},
			},
		},
	}
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("with all dependencies provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			catalog := &tu.MockCatalog{}

			runner := NewRunner(RunnerOpts{
				Config:  config,
				Catalog: catalog,
				Logger:  logger,
				Output:  output,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.catalog != catalog {
				t.Error("expected catalog to be set")
			}
		})

		t.Run("with nil config uses defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
		})

		t.Run("with nil output uses stdout", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
		})
	})

	t.Run("writeJSON", func(t *testing.T) {
		t.Run("compact", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"count": 3}, false); err != nil {
				t.Fatalf("failed to write JSON: %v", err)
			}
			if output.String() != "{\"count\":3}\n" {
				t.Errorf("unexpected output: %q", output.String())
			}
		})

		t.Run("pretty", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writeJSON(map[string]int{"count": 3}, true); err != nil {
				t.Fatalf("failed to write JSON: %v", err)
			}
			if !strings.Contains(output.String(), "  \"count\": 3") {
				t.Errorf("expected indented output, got %q", output.String())
			}
		})

		t.Run("write failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			if err := runner.writeJSON(map[string]int{}, false); err == nil {
				t.Error("expected error from failing writer")
			}
		})

		t.Run("trailing newline write failure", func(t *testing.T) {
			output := &bytes.Buffer{}
			limited := tu.NewLimitedWriter(1, 0, output)
			runner := NewRunner(RunnerOpts{Output: &limited})

			if err := runner.writeJSON(map[string]int{"count": 3}, false); err == nil {
				t.Error("expected error when the newline write fails")
			}
			if output.String() != "{\"count\":3}" {
				t.Errorf("expected the payload write to land, got %q", output.String())
			}
		})
	})

	t.Run("writePlain write failure", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

		if err := runner.writePlain("hello\n"); err == nil {
			t.Error("expected error from failing writer")
		}
	})
}

func TestSyncRunCommand(t *testing.T) {
	t.Run("FullRun", func(t *testing.T) {
		catalog := catalogFixture()
		runner, output := newTestRunner(t, catalog)

		if err := runApp(t, runner, "sync", "run"); err != nil {
			t.Fatalf("sync run failed: %v", err)
		}

		if !strings.Contains(output.String(), "Sync done") {
			t.Errorf("expected completion message, got:\n%s", output.String())
		}
		if len(catalog.AddedIDs) != 1 {
			t.Errorf("expected 1 track pushed to mirror, got %d", len(catalog.AddedIDs))
		}
	})

	t.Run("NoMirror", func(t *testing.T) {
		catalog := catalogFixture()
		runner, _ := newTestRunner(t, catalog)

		if err := runApp(t, runner, "sync", "run", "--no-mirror"); err != nil {
			t.Fatalf("sync run failed: %v", err)
		}
		if len(catalog.AddedIDs) != 0 {
			t.Errorf("expected no mirror pushes, got %d", len(catalog.AddedIDs))
		}
	})

	t.Run("JSONOutput", func(t *testing.T) {
		catalog := catalogFixture()
		runner, output := newTestRunner(t, catalog)

		if err := runApp(t, runner, "sync", "run", "--json", "--no-mirror"); err != nil {
			t.Fatalf("sync run failed: %v", err)
		}
		if !strings.Contains(output.String(), "\"state\": \"done\"") {
			t.Errorf("expected JSON state, got:\n%s", output.String())
		}
	})

	t.Run("NoCatalog", func(t *testing.T) {
		runner, _ := newTestRunner(t, nil)
		runner.catalog = nil

		if err := runApp(t, runner, "sync", "run"); err == nil {
			t.Fatal("expected error without a catalog")
		}
	})
}

func TestLibraryCommands(t *testing.T) {
	t.Run("Stats", func(t *testing.T) {
		catalog := catalogFixture()
		runner, output := newTestRunner(t, catalog)

		if err := runApp(t, runner, "sync", "run", "--no-mirror"); err != nil {
			t.Fatalf("sync run failed: %v", err)
		}
		output.Reset()

		if err := runApp(t, runner, "library", "stats"); err != nil {
			t.Fatalf("library stats failed: %v", err)
		}
		if !strings.Contains(output.String(), "Tracks:") {
			t.Errorf("expected stats output, got:\n%s", output.String())
		}
	})

	t.Run("Tracks", func(t *testing.T) {
		catalog := catalogFixture()
		runner, output := newTestRunner(t, catalog)

		if err := runApp(t, runner, "sync", "run", "--no-mirror"); err != nil {
			t.Fatalf("sync run failed: %v", err)
		}
		output.Reset()

		if err := runApp(t, runner, "library", "tracks"); err != nil {
			t.Fatalf("library tracks failed: %v", err)
		}
		if !strings.Contains(output.String(), "Dayvan Cowboy [vid1]") {
			t.Errorf("expected track listing, got:\n%s", output.String())
		}
	})

	t.Run("Playlists", func(t *testing.T) {
		catalog := catalogFixture()
		runner, output := newTestRunner(t, catalog)

		if err := runApp(t, runner, "sync", "run"); err != nil {
			t.Fatalf("sync run failed: %v", err)
		}
		output.Reset()

		if err := runApp(t, runner, "library", "playlists"); err != nil {
			t.Fatalf("library playlists failed: %v", err)
		}
		if !strings.Contains(output.String(), "Morning") {
			t.Errorf("expected playlist listing, got:\n%s", output.String())
		}
		if !strings.Contains(output.String(), "(mirror)") {
			t.Errorf("expected mirror marker, got:\n%s", output.String())
		}
	})
}

func TestMirrorCommands(t *testing.T) {
	t.Run("StatusBeforeSync", func(t *testing.T) {
		runner, output := newTestRunner(t, catalogFixture())

		if err := runApp(t, runner, "mirror", "status"); err != nil {
			t.Fatalf("mirror status failed: %v", err)
		}
		if !strings.Contains(output.String(), "has not been created yet") {
			t.Errorf("expected hint for missing mirror, got:\n%s", output.String())
		}
	})

	t.Run("PushAfterSync", func(t *testing.T) {
		catalog := catalogFixture()
		runner, output := newTestRunner(t, catalog)

		if err := runApp(t, runner, "sync", "run", "--no-mirror"); err != nil {
			t.Fatalf("sync run failed: %v", err)
		}
		output.Reset()

		if err := runApp(t, runner, "mirror", "push"); err != nil {
			t.Fatalf("mirror push failed: %v", err)
		}
		if !strings.Contains(output.String(), "Added: 1") {
			t.Errorf("expected 1 addition, got:\n%s", output.String())
		}

		output.Reset()
		if err := runApp(t, runner, "mirror", "status"); err != nil {
			t.Fatalf("mirror status failed: %v", err)
		}
		if !strings.Contains(output.String(), "Missing: 0") {
			t.Errorf("expected mirror to be current, got:\n%s", output.String())
		}
	})
}
