// Package app assembles the application object graph shared by the CLI
// commands: logger, transcript library, provider stack, pipeline,
// exporter and search.
package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/afero"
	"go.uber.org/zap"

	"mp3player/internal/app/api/provider"
	"mp3player/internal/app/errors"
	"mp3player/internal/app/export"
	"mp3player/internal/app/library"
	"mp3player/internal/app/pipeline"
	"mp3player/internal/app/repository"
	"mp3player/internal/app/repository/cache"
	"mp3player/internal/app/repository/pg"
	"mp3player/internal/app/repository/sqlite"
	"mp3player/internal/app/search"
	"mp3player/internal/config"
	"mp3player/internal/logging"
)

const cacheTTL = 5 * time.Minute

// Verbose is set by the root command's --verbose flag before any
// subcommand builds the graph.
var Verbose bool

// Options selects how the graph is assembled. The zero value suits
// non-interactive commands.
type Options struct {
	Verbose bool
	JSONLog bool
	// FileOnlyLog routes all logging to the log file. The interactive
	// player sets this because it owns the terminal.
	FileOnlyLog bool
	// ProviderConfigPath overrides the default providers file location.
	ProviderConfigPath string
	// SkipProviders builds the graph without the transcription stack,
	// for commands that never transcribe.
	SkipProviders bool
}

// App is the assembled application.
type App struct {
	Log      *zap.Logger
	FS       afero.Fs
	Dirs     *config.Dirs
	DB       repository.TranscriptDAO
	Stack    *provider.Stack
	Pipeline *pipeline.Pipeline
	Exporter *export.Exporter
	Library  *library.Scanner
	Searcher *search.Searcher
}

// database bundles the store with its raw handle so the vector index
// and the migrator can reach the underlying connection.
type database struct {
	dao    repository.TranscriptDAO
	common *repository.CommonDB
	driver string
}

func provideDirs() (*config.Dirs, error) {
	return config.GetDirs()
}

func provideLogger(opts Options, dirs *config.Dirs) (*zap.Logger, func(), error) {
	log, err := logging.New(logging.Options{
		Verbose:  opts.Verbose || Verbose,
		JSON:     opts.JSONLog,
		LogDir:   dirs.Logs,
		FileOnly: opts.FileOnlyLog,
	})
	if err != nil {
		return nil, nil, err
	}
	return log, func() { _ = log.Sync() }, nil
}

func provideFs() afero.Fs {
	return afero.NewOsFs()
}

func provideDatabase(dirs *config.Dirs, log *zap.Logger) (*database, func(), error) {
	dbCfg := config.GetDatabaseConfig(dirs)

	var d database
	switch dbCfg.Type {
	case "postgres":
		store, err := pg.New(dbCfg.PostgresDSN)
		if err != nil {
			return nil, nil, err
		}
		d = database{dao: store, common: store.CommonDB, driver: "postgres"}
	default:
		store, err := sqlite.New(dbCfg.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		d = database{dao: store, common: store.CommonDB, driver: "sqlite3"}
	}

	if addr := config.GetRedisAddr(); addr != "" {
		rdb := redis.NewClient(&redis.Options{Addr: addr})
		d.dao = cache.Wrap(d.dao, rdb, cacheTTL, log)
		log.Debug("read-through cache enabled", zap.String("redis", addr))
	}

	cleanup := func() {
		if err := d.dao.Close(); err != nil {
			log.Warn("closing library", zap.Error(err))
		}
	}
	return &d, cleanup, nil
}

func provideDAO(d *database) repository.TranscriptDAO {
	return d.dao
}

func provideStack(opts Options, log *zap.Logger) (*provider.Stack, error) {
	if opts.SkipProviders {
		return nil, nil
	}
	return provider.NewStack(provider.StackOptions{
		ConfigPath: opts.ProviderConfigPath,
		Logger:     log,
		Registerer: prometheus.DefaultRegisterer,
	})
}

func providePipeline(stack *provider.Stack, dao repository.TranscriptDAO, fs afero.Fs, log *zap.Logger) *pipeline.Pipeline {
	if stack == nil {
		return nil
	}
	return pipeline.New(stack.Transcriber, dao, fs, log)
}

func provideExporter(fs afero.Fs, log *zap.Logger) *export.Exporter {
	return export.New(fs, log)
}

func provideLibrary(fs afero.Fs, log *zap.Logger) *library.Scanner {
	return library.New(fs, log)
}

// provideSearcher builds plain search everywhere and adds the pgvector
// index when the library runs on PostgreSQL.
func provideSearcher(d *database, dao repository.TranscriptDAO, log *zap.Logger) (*search.Searcher, error) {
	var index *search.VectorIndex
	if d.driver == "postgres" {
		var err error
		index, err = search.NewVectorIndex(d.common.DB())
		if err != nil {
			log.Warn("vector index unavailable, semantic search disabled", zap.Error(err))
			index = nil
		}
	}
	return search.New(dao, index, nil, log), nil
}

// RequireStack guards commands that need transcription providers.
func (a *App) RequireStack() error {
	if a.Stack == nil {
		return errors.Wrap(errors.ErrInvalidConfig, "transcription providers not initialized")
	}
	return nil
}
