package ingest

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/japaniel/movielist/pkg/movies"
)

// WorkerPoolInterface abstracts the worker pool so tests can inject failing implementations.
type WorkerPoolInterface interface {
	Start(ctx context.Context)
	Submit(Job) error
	// SubmitCtx attempts to enqueue a job but returns promptly if ctx is canceled.
	SubmitCtx(ctx context.Context, job Job) error
	Close()
}

// LineSource yields raw record lines and io.EOF at the end.
// *listfile.Reader implements it.
type LineSource interface {
	Next() (string, error)
}

// lineNumberer is implemented by sources that track physical line numbers.
type lineNumberer interface {
	LineNumber() int
}

// Sink receives records in input order, after identifier assignment.
type Sink interface {
	Write(rec movies.Record) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(rec movies.Record) error

func (f SinkFunc) Write(rec movies.Record) error { return f(rec) }

// Stats counts what a run did.
type Stats struct {
	Lines     int // lines read from the source
	Records   int // records written to the sinks
	Movies    int
	Episodes  int
	Suspended int
	Malformed int // lines skipped because they could not be split
}

// Ingester decomposes lines on a worker pool and assigns identifiers in
// input order, so the identifiers match a sequential run.
type Ingester struct {
	Decomposer *movies.Decomposer
	IDs        movies.Assigner
	Sinks      []Sink

	Workers int
	// Logger receives per-line warnings and the run summary. nil means no logging.
	Logger *zap.Logger
	// OnProgress is called with the number of handled lines every
	// ProgressEvery lines and once at the end, never twice for the same count.
	OnProgress    func(lines int)
	ProgressEvery int

	// PoolFactory allows tests to inject custom worker pool implementations.
	PoolFactory func(workers, queue int) WorkerPoolInterface
}

// NewIngester creates an Ingester writing to sinks.
func NewIngester(ids movies.Assigner, sinks ...Sink) *Ingester {
	return &Ingester{
		Decomposer:    movies.NewDecomposer(),
		IDs:           ids,
		Sinks:         sinks,
		Workers:       4,
		ProgressEvery: 10000,
	}
}

// extracted is the result of decomposing one line on a worker.
type extracted struct {
	index  int
	lineNo int
	rec    movies.Record
	err    error
}

// Ingest reads src until io.EOF. Malformed lines are counted, logged and
// skipped; any other error stops the run.
func (ig *Ingester) Ingest(ctx context.Context, src LineSource) (Stats, error) {
	if err := ctx.Err(); err != nil {
		return Stats{}, err
	}
	if ig.IDs == nil {
		return Stats{}, errors.New("ingest: no identifier assigner")
	}
	logger := ig.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	dec := ig.Decomposer
	if dec == nil {
		dec = movies.NewDecomposer()
	}
	workers := ig.Workers
	if workers <= 0 {
		workers = 1
	}

	var wp WorkerPoolInterface
	if ig.PoolFactory != nil {
		wp = ig.PoolFactory(workers, workers*2)
	} else {
		wp = NewWorkerPool(workers, workers*2)
	}

	g, gctx := errgroup.WithContext(ctx)
	resultCh := make(chan extracted, workers*2)
	wp.Start(gctx)

	// Producer. Close waits for the workers, so resultCh has no senders
	// left when it is closed, and readErr is visible to the consumer once
	// it sees the close.
	var readErr error
	g.Go(func() error {
		readErr = ig.produce(gctx, src, dec, wp, resultCh)
		wp.Close()
		close(resultCh)
		return readErr
	})

	var stats Stats

	// Consumer: restore input order, assign identifiers, write.
	g.Go(func() error {
		pending := make(map[int]extracted)
		next := 0
		for {
			var res extracted
			var ok bool
			select {
			case <-gctx.Done():
				return gctx.Err()
			case res, ok = <-resultCh:
			}
			if !ok {
				if readErr != nil {
					return readErr
				}
				if len(pending) > 0 {
					return fmt.Errorf("ingest: %d lines never reached the writer", len(pending))
				}
				return nil
			}
			pending[res.index] = res

			for {
				item, found := pending[next]
				if !found {
					break
				}
				delete(pending, next)
				next++
				if err := ig.handle(item, &stats, logger); err != nil {
					return err
				}
				if ig.OnProgress != nil && ig.ProgressEvery > 0 && stats.Lines%ig.ProgressEvery == 0 {
					ig.OnProgress(stats.Lines)
				}
			}
		}
	})

	err := g.Wait()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return stats, ctxErr
	}
	if err != nil {
		return stats, err
	}
	// The consumer already reported an exact multiple.
	reported := ig.ProgressEvery > 0 && stats.Lines > 0 && stats.Lines%ig.ProgressEvery == 0
	if ig.OnProgress != nil && !reported {
		ig.OnProgress(stats.Lines)
	}
	logger.Info("ingest finished",
		zap.Int("lines", stats.Lines),
		zap.Int("records", stats.Records),
		zap.Int("episodes", stats.Episodes),
		zap.Int("suspended", stats.Suspended),
		zap.Int("malformed", stats.Malformed),
	)
	return stats, nil
}

// produce reads src and submits one extraction job per line.
func (ig *Ingester) produce(ctx context.Context, src LineSource, dec *movies.Decomposer, wp WorkerPoolInterface, out chan<- extracted) error {
	numbered, _ := src.(lineNumberer)
	for idx := 0; ; idx++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		line, err := src.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read line %d: %w", idx+1, err)
		}
		lineNo := idx + 1
		if numbered != nil {
			lineNo = numbered.LineNumber()
		}

		i := idx
		job := func(ctx context.Context) error {
			rec, err := dec.Extract(line)
			select {
			case out <- extracted{index: i, lineNo: lineNo, rec: rec, err: err}:
			case <-ctx.Done():
			}
			return nil
		}
		if err := wp.SubmitCtx(ctx, job); err != nil {
			return fmt.Errorf("submit line %d: %w", lineNo, err)
		}
	}
}

func (ig *Ingester) handle(item extracted, stats *Stats, logger *zap.Logger) error {
	stats.Lines++
	if item.err != nil {
		var perr *movies.ParseError
		if errors.As(item.err, &perr) {
			stats.Malformed++
			logger.Warn("skipping malformed line",
				zap.Int("line", item.lineNo),
				zap.Int("fields", perr.Fields),
				zap.Error(item.err),
			)
			return nil
		}
		return fmt.Errorf("line %d: %w", item.lineNo, item.err)
	}

	movies.Assign(item.rec, ig.IDs)
	switch r := item.rec.(type) {
	case *movies.Suspended:
		stats.Suspended++
	case *movies.Movie:
		if r.IsEpisode() {
			stats.Episodes++
		} else {
			stats.Movies++
		}
	}

	for _, s := range ig.Sinks {
		if err := s.Write(item.rec); err != nil {
			return fmt.Errorf("write line %d: %w", item.lineNo, err)
		}
	}
	stats.Records++
	logger.Debug("record", zap.Int("line", item.lineNo), zap.String("key", item.rec.Key()), zap.Int("id", item.rec.Identifier()))
	return nil
}
