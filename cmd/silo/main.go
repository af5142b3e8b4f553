// Command silo builds database snapshots from preprocessing input and
// serves the query API over the latest snapshot.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"syscall"

	"github.com/jessevdk/go-flags"

	silo "github.com/genspectrum/silo"
	"github.com/genspectrum/silo/api"
	"github.com/genspectrum/silo/config"
	"github.com/genspectrum/silo/persistence"
	"github.com/genspectrum/silo/preprocessing"
)

type options struct {
	DatabaseConfig      string  `long:"database-config" description:"Path to the database config YAML" default:"database_config.yaml"`
	PreprocessingConfig string  `long:"preprocessing-config" description:"Path to the preprocessing config YAML" default:"preprocessing_config.yaml"`
	Preprocess          bool    `long:"preprocessing" description:"Run the preprocessing pipeline and write a snapshot"`
	API                 bool    `long:"api" description:"Serve the query API over the newest snapshot"`
	Addr                string  `long:"addr" description:"API listen address" default:":8081"`
	MaxQPS              float64 `long:"max-qps" description:"Query rate limit (0 disables)"`
	LogJSON             bool    `long:"log-json" description:"Emit JSON logs"`
	Debug               bool    `long:"debug" description:"Enable debug logging"`
}

func main() {
	var opts options
	if _, err := flags.Parse(&opts); err != nil {
		os.Exit(1)
	}

	level := slog.LevelInfo
	if opts.Debug {
		level = slog.LevelDebug
	}
	var logger *silo.Logger
	if opts.LogJSON {
		logger = silo.NewJSONLogger(level)
	} else {
		logger = silo.NewTextLogger(level)
	}

	if !opts.Preprocess && !opts.API {
		fmt.Fprintln(os.Stderr, "nothing to do: pass --preprocessing and/or --api")
		os.Exit(1)
	}

	databaseConfig, err := config.ReadDatabaseConfig(opts.DatabaseConfig)
	if err != nil {
		logger.Error("loading database config failed", "error", err)
		os.Exit(1)
	}
	preprocessingConfig, err := config.ReadPreprocessingConfig(opts.PreprocessingConfig)
	if err != nil {
		logger.Error("loading preprocessing config failed", "error", err)
		os.Exit(1)
	}

	if opts.Preprocess {
		if err := runPreprocessing(preprocessingConfig, databaseConfig, logger); err != nil {
			logger.Error("preprocessing failed", "error", err)
			os.Exit(1)
		}
	}

	if opts.API {
		if err := runAPI(preprocessingConfig, opts, logger); err != nil {
			logger.Error("api server failed", "error", err)
			os.Exit(1)
		}
	}
}

func runPreprocessing(pre *config.PreprocessingConfig, db *config.DatabaseConfig, logger *silo.Logger) error {
	builder := preprocessing.NewBuilder(pre, db, logger)
	database, descriptor, err := builder.Build()
	if err != nil {
		return err
	}
	snapshotDir, err := persistence.Save(database, descriptor, pre.OutputDirectory, persistence.CompressionZSTD)
	if err != nil {
		return err
	}
	logger.Info("snapshot written", "dir", snapshotDir)
	return nil
}

func runAPI(pre *config.PreprocessingConfig, opts options, logger *silo.Logger) error {
	snapshotDir, err := newestSnapshot(pre.OutputDirectory)
	if err != nil {
		return err
	}
	database, err := persistence.Load(snapshotDir)
	if err != nil {
		return err
	}

	server := api.NewServer(api.Options{
		Addr:                opts.Addr,
		MaxQueriesPerSecond: opts.MaxQPS,
		Logger:              logger,
	})
	server.SwapSnapshot(database)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return server.Start(ctx)
}

// newestSnapshot picks the lexicographically largest data-version directory,
// which is the newest because versions are build timestamps.
func newestSnapshot(outputDir string) (string, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return "", fmt.Errorf("reading output directory: %w", err)
	}
	var versions []string
	for _, entry := range entries {
		if entry.IsDir() {
			versions = append(versions, entry.Name())
		}
	}
	if len(versions) == 0 {
		return "", fmt.Errorf("no snapshot found in %s", outputDir)
	}
	sort.Strings(versions)
	return filepath.Join(outputDir, versions[len(versions)-1]), nil
}
