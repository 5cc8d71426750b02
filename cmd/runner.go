package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/tunegrab/internal/repositories"
	"github.com/desertthunder/tunegrab/internal/services"
	"github.com/desertthunder/tunegrab/internal/shared"
	"github.com/desertthunder/tunegrab/internal/tagging"
	"github.com/desertthunder/tunegrab/internal/tasks"
	"github.com/desertthunder/tunegrab/internal/ui"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	catalog    services.CatalogProvider
	extractor  services.Extractor
	covers     services.CoverFetcher
	logger     *log.Logger
	output     io.Writer
	palette    *ui.Palette
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Catalog    services.CatalogProvider
	Extractor  services.Extractor
	Covers     services.CoverFetcher
	Logger     *log.Logger
	Output     io.Writer
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
	if opts.Extractor == nil {
		opts.Extractor = services.NewYTDLP(opts.Config.Extractor.Binary)
	}
	if opts.Covers == nil {
		opts.Covers = services.NewCoverClient(shared.Seconds(opts.Config.Timeouts.Cover, 15*time.Second))
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		catalog:    opts.Catalog,
		extractor:  opts.Extractor,
		covers:     opts.Covers,
		logger:     opts.Logger,
		output:     opts.Output,
		palette:    ui.Default,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		botCommand, fetchCommand, historyCommand, setupCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// pipeline assembles the acquisition pipeline around messenger. recorder may be nil.
func (r *Runner) pipeline(messenger tasks.Messenger, recorder tasks.Recorder) *tasks.Pipeline {
	enricher := tagging.NewEnricher(
		r.covers,
		shared.Seconds(r.config.Timeouts.Cover, 15*time.Second),
		r.config.Cover.MaxSize,
		r.logger,
	)

	deps := tasks.Deps{
		Catalog:   r.catalog,
		Extractor: r.extractor,
		Tagger:    enricher,
		Messenger: messenger,
		Recorder:  recorder,
		Logger:    r.logger,
	}
	return tasks.NewPipeline(deps, tasks.OptionsFromConfig(r.config))
}

// openHistory opens the configured database and brings its schema up to date.
func (r *Runner) openHistory() (*sql.DB, *repositories.RequestRepository, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		return nil, nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return db, repositories.NewRequestRepository(db), nil
}

// installer is implemented by extractors that can fetch their own executables.
type installer interface {
	Install(ctx context.Context) error
}

// prepareExtractor installs managed yt-dlp and ffmpeg builds when configured to.
func (r *Runner) prepareExtractor(ctx context.Context) error {
	if !r.config.Extractor.AutoInstall {
		return nil
	}
	inst, ok := r.extractor.(installer)
	if !ok {
		r.logger.Warn("extractor does not support auto_install")
		return nil
	}
	r.logger.Info("installing yt-dlp and ffmpeg")
	if err := inst.Install(ctx); err != nil {
		return fmt.Errorf("failed to install extractor: %w", err)
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
