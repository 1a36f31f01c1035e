package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/movielist/pkg/config"
	"github.com/japaniel/movielist/pkg/db"
	"github.com/japaniel/movielist/pkg/dictionary"
	"github.com/japaniel/movielist/pkg/ingest"
	"github.com/japaniel/movielist/pkg/listfile"
	"github.com/japaniel/movielist/pkg/output"
	"github.com/japaniel/movielist/pkg/registry"
)

type ingestFlags struct {
	input     string
	moviesOut string
	yearsOut  string
	dbPath    string
	idsIn     string
	idsOut    string
	workers   int
	encoding  string
}

func newIngestCmd(a *app) *cobra.Command {
	var f ingestFlags
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Decompose a whole movies.list file",
		Long: `Reads the record block of a movies.list file (plain or .gz), decomposes
every entry and writes the results to the configured TSV files and SQLite
database.

Identifiers are seeded from the database and from --ids-in before the run,
and exported to --ids-out and the database afterwards.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			f.apply(cmd, a.cfg)
			if err := a.cfg.Validate(); err != nil {
				return fmt.Errorf("invalid configuration: %w", err)
			}
			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()
			return a.runIngest(ctx, cmd)
		},
	}
	fl := cmd.Flags()
	fl.StringVar(&f.input, "input", "", "movies.list file, optionally gzipped")
	fl.StringVar(&f.moviesOut, "movies-out", "", "Movies TSV output")
	fl.StringVar(&f.yearsOut, "years-out", "", "Years TSV output")
	fl.StringVar(&f.dbPath, "db", "", "SQLite database")
	fl.StringVar(&f.idsIn, "ids-in", "", "Identifier dictionary loaded before the run")
	fl.StringVar(&f.idsOut, "ids-out", "", "Identifier dictionary written after the run")
	fl.IntVar(&f.workers, "workers", 0, "Decomposition workers")
	fl.StringVar(&f.encoding, "encoding", "", "Input encoding (latin1|utf-8)")
	return cmd
}

// apply copies flags the user set over the loaded configuration.
func (f *ingestFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	set := cmd.Flags().Changed
	if set("input") {
		cfg.Input = f.input
	}
	if set("movies-out") {
		cfg.Output.Movies = f.moviesOut
	}
	if set("years-out") {
		cfg.Output.Years = f.yearsOut
	}
	if set("db") {
		cfg.Database.Path = f.dbPath
	}
	if set("ids-in") {
		cfg.IDs.Dictionary = f.idsIn
	}
	if set("ids-out") {
		cfg.IDs.Export = f.idsOut
	}
	if set("workers") {
		cfg.Workers = f.workers
	}
	if set("encoding") {
		cfg.Encoding = f.encoding
	}
}

func (a *app) runIngest(ctx context.Context, cmd *cobra.Command) (err error) {
	cfg, logger := a.cfg, a.logger
	ids := registry.NewWithMark(cfg.IDs.StartMark)

	var conn *sql.DB
	var importer *dictionary.Importer
	if cfg.Database.Path != "" {
		conn, err = db.Open(cfg.Database.Path)
		if err != nil {
			return err
		}
		defer conn.Close()
		importer = dictionary.NewImporter(conn, logger)
		n, err := importer.SeedFromStore(ids)
		if err != nil {
			return err
		}
		logger.Info("registry seeded from database", zap.Int("entries", n), zap.Int("mark", ids.Mark()))
	}

	if cfg.IDs.Dictionary != "" {
		d, err := dictionary.LoadFile(cfg.IDs.Dictionary)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			logger.Info("identifier dictionary not found, starting without it", zap.String("path", cfg.IDs.Dictionary))
		case err != nil:
			return fmt.Errorf("load dictionary %s: %w", cfg.IDs.Dictionary, err)
		default:
			if err := d.Seed(ids); err != nil {
				return fmt.Errorf("seed from dictionary %s: %w", cfg.IDs.Dictionary, err)
			}
			logger.Info("registry seeded from dictionary",
				zap.String("path", cfg.IDs.Dictionary), zap.Int("entries", len(d.Entries)), zap.Int("mark", ids.Mark()))
		}
	}

	src, err := listfile.Open(cfg.Input, listfile.Options{Encoding: cfg.Encoding})
	if err != nil {
		return fmt.Errorf("open input: %w", err)
	}
	defer src.Close()

	var sinks []ingest.Sink
	if cfg.Output.Movies != "" {
		tsv, terr := output.CreateTSV(cfg.Output.Movies, cfg.Output.Years)
		if terr != nil {
			return fmt.Errorf("create output: %w", terr)
		}
		defer func() {
			if cerr := tsv.Close(); cerr != nil && err == nil {
				err = fmt.Errorf("close output: %w", cerr)
			}
		}()
		sinks = append(sinks, tsv)
	}

	var runID string
	var store *ingest.StoreSink
	if conn != nil {
		runID = uuid.NewString()
		if err := db.CreateRun(conn, runID, cfg.Input, time.Now()); err != nil {
			return err
		}
		store = ingest.NewStoreSink(conn, runID, cfg.Database.BatchSize)
		sinks = append(sinks, store)
		logger = logger.With(zap.String("run", runID))
	}

	ig := ingest.NewIngester(ids, sinks...)
	ig.Workers = cfg.Workers
	ig.Logger = logger
	ig.OnProgress = func(lines int) {
		logger.Info("progress", zap.Int("lines", lines), zap.Int("titles", ids.Len()))
	}

	start := time.Now()
	stats, err := ig.Ingest(ctx, src)
	if store != nil {
		if cerr := store.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("store records: %w", cerr)
		}
	}
	if err != nil {
		return fmt.Errorf("ingest %s: %w", cfg.Input, err)
	}

	if conn != nil {
		if err := db.FinishRun(conn, runID, stats.Records, stats.Suspended, stats.Malformed, time.Now()); err != nil {
			return err
		}
		if _, err := importer.Import(&dictionary.Dictionary{Entries: ids.Snapshot(), Max: ids.Mark()}); err != nil {
			return fmt.Errorf("save identifiers: %w", err)
		}
	}
	if cfg.IDs.Export != "" {
		if err := dictionary.WriteFile(cfg.IDs.Export, ids.Snapshot()); err != nil {
			return fmt.Errorf("export identifiers: %w", err)
		}
		logger.Info("identifiers exported", zap.String("path", cfg.IDs.Export), zap.Int("entries", ids.Len()))
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Processing complete. %d records (%d movies, %d episodes, %d suspended), %d malformed lines skipped in %v.\n",
		stats.Records, stats.Movies, stats.Episodes, stats.Suspended, stats.Malformed, time.Since(start).Round(time.Millisecond))
	return nil
}
