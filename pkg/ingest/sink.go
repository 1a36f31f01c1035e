package ingest

import (
	"context"
	"database/sql"
	"time"

	"github.com/japaniel/movielist/pkg/db"
	"github.com/japaniel/movielist/pkg/movies"
)

// StoreSink persists records of one run to SQLite through a BatchWriter.
type StoreSink struct {
	bw    *BatchWriter
	runID string
}

// NewStoreSink commits every batchSize records, or at least every 100ms.
func NewStoreSink(conn *sql.DB, runID string, batchSize int) *StoreSink {
	return &StoreSink{
		bw:    NewBatchWriter(conn, batchSize, 100*time.Millisecond),
		runID: runID,
	}
}

func (s *StoreSink) Write(rec movies.Record) error {
	return s.bw.Submit(func(ctx context.Context, tx *sql.Tx) error {
		return db.InsertRecord(tx, s.runID, rec)
	})
}

// Committed reports how many records are committed.
func (s *StoreSink) Committed() int64 { return s.bw.Committed() }

// Close commits pending records and returns the first write error.
func (s *StoreSink) Close() error { return s.bw.Close() }
