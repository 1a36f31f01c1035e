package dictionary

import (
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/japaniel/movielist/pkg/db"
)

// Importer moves dictionaries between files, the SQLite store and a registry.
type Importer struct {
	conn   *sql.DB
	logger *zap.Logger
}

// NewImporter creates an importer backed by conn. A nil logger disables logging.
func NewImporter(conn *sql.DB, logger *zap.Logger) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Importer{conn: conn, logger: logger}
}

// Import stores every entry of d in the movie_ids table inside one transaction.
func (im *Importer) Import(d *Dictionary) (int, error) {
	tx, err := im.conn.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin import: %w", err)
	}
	defer func() {
		_ = tx.Rollback() // ignored if committed
	}()

	n, err := db.SaveMovieIDs(tx, d.Entries)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit import: %w", err)
	}
	im.logger.Info("dictionary imported", zap.Int("entries", n), zap.Int("max_id", d.Max))
	return n, nil
}

// ImportFile loads the dictionary at path and stores it.
func (im *Importer) ImportFile(path string) (int, error) {
	d, err := LoadFile(path)
	if err != nil {
		return 0, fmt.Errorf("load dictionary %s: %w", path, err)
	}
	return im.Import(d)
}

// Stored returns the dictionary held in the store.
func (im *Importer) Stored() (*Dictionary, error) {
	entries, maxID, err := db.LoadMovieIDs(im.conn)
	if err != nil {
		return nil, fmt.Errorf("load stored ids: %w", err)
	}
	return &Dictionary{Entries: entries, Max: maxID}, nil
}

// SeedFromStore seeds s with the stored dictionary and returns its size.
func (im *Importer) SeedFromStore(s Seeder) (int, error) {
	d, err := im.Stored()
	if err != nil {
		return 0, err
	}
	if err := d.Seed(s); err != nil {
		return 0, fmt.Errorf("seed stored ids: %w", err)
	}
	im.logger.Debug("registry seeded from store", zap.Int("entries", len(d.Entries)), zap.Int("max_id", d.Max))
	return len(d.Entries), nil
}
