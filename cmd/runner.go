package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/ytmb/internal/repositories"
	"github.com/desertthunder/ytmb/internal/services"
	"github.com/desertthunder/ytmb/internal/shared"
	"github.com/desertthunder/ytmb/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	catalog services.Catalog
	db      *sql.DB
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
//
// DB is optional; when set, commands use it instead of opening the configured
// database file. Tests inject an in-memory database this way.
type RunnerOpts struct {
	Config  *shared.Config
	Catalog services.Catalog
	DB      *sql.DB
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	return &Runner{
		config:  opts.Config,
		catalog: opts.Catalog,
		db:      opts.DB,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, syncCommand, libraryCommand, mirrorCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// openDatabase returns a migrated database handle and a close function.
//
// An injected handle is reused and the close function is a no-op for it.
func (r *Runner) openDatabase() (*sql.DB, func(), error) {
	if r.db != nil {
		return r.db, func() {}, nil
	}

	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}

	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return db, func() { db.Close() }, nil
}

// newEngine wires a sync engine over the given database handle.
func (r *Runner) newEngine(db *sql.DB) (*tasks.Engine, error) {
	if r.catalog == nil {
		return nil, fmt.Errorf("%w: no catalog configured, check [catalog] in config", shared.ErrCatalogUnavailable)
	}
	repo := repositories.NewLibraryRepository(db)
	return tasks.NewEngine(r.catalog, repo, r.config.Sync, r.logger), nil
}

// drainProgress logs progress updates until the channel closes.
func (r *Runner) drainProgress(progress <-chan tasks.ProgressUpdate) {
	for update := range progress {
		if update.Message != "" {
			r.logger.Debug(update.Message, "phase", update.Phase.String(), "step", update.Step, "total", update.Total)
		}
	}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}
