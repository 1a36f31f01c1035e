package db

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/japaniel/movielist/pkg/movies"
)

// DBExecutor is an interface that allows methods to accept either *sql.DB or *sql.Tx
type DBExecutor interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	Query(query string, args ...interface{}) (*sql.Rows, error)
	QueryRow(query string, args ...interface{}) *sql.Row
}

// CreateRun records the start of an ingestion run.
func CreateRun(db DBExecutor, runID, source string, startedAt time.Time) error {
	if strings.TrimSpace(runID) == "" {
		return fmt.Errorf("runID must be non-empty")
	}
	_, err := db.Exec(`INSERT INTO runs (id, source, started_at) VALUES (?, ?, ?)`, runID, source, startedAt)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// FinishRun stores the final counters of a run.
func FinishRun(db DBExecutor, runID string, records, suspended, malformed int, finishedAt time.Time) error {
	res, err := db.Exec(`UPDATE runs SET records = ?, suspended = ?, malformed = ?, finished_at = ? WHERE id = ?`,
		records, suspended, malformed, finishedAt, runID)
	if err != nil {
		return fmt.Errorf("finish run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("finish run: no run with id %q", runID)
	}
	return nil
}

// GetRun loads a run by id.
func GetRun(db DBExecutor, runID string) (Run, error) {
	var r Run
	var finished sql.NullTime
	err := db.QueryRow(`SELECT id, source, started_at, finished_at, records, suspended, malformed FROM runs WHERE id = ?`, runID).
		Scan(&r.ID, &r.Source, &r.StartedAt, &finished, &r.Records, &r.Suspended, &r.Malformed)
	if err != nil {
		return Run{}, err
	}
	if finished.Valid {
		r.FinishedAt = finished.Time
	}
	return r, nil
}

// InsertRecord stores one decomposed record and its expanded years.
func InsertRecord(db DBExecutor, runID string, rec movies.Record) error {
	if rec.Identifier() <= 0 {
		return fmt.Errorf("record %q has no identifier", rec.Key())
	}
	row := movies.Flatten(rec)
	_, err := db.Exec(`INSERT INTO movies (run_id, movie_id, full_title, full_year, title, title_year, category,
		year_open_end, is_episode, episode_name, episode_season, episode_episode, episode_parent_title, suspended)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, row.ID, row.FullTitle, row.FullYear, row.Title, row.TitleYear, string(row.Category),
		row.YearOpenEnd, row.IsEpisode, row.EpisodeName, row.EpisodeSeason, row.EpisodeEpisode,
		row.EpisodeParentTitle, row.Suspended)
	if err != nil {
		return fmt.Errorf("insert movie %d: %w", row.ID, err)
	}
	for _, year := range row.Years {
		if _, err := db.Exec(`INSERT INTO movie_years (run_id, movie_id, year) VALUES (?, ?, ?)`, runID, row.ID, year); err != nil {
			return fmt.Errorf("insert year %d for movie %d: %w", year, row.ID, err)
		}
	}
	return nil
}

// GetMoviesByRun returns the records stored for a run in insertion order.
// Years are not loaded; see GetMovieYears.
func GetMoviesByRun(db DBExecutor, runID string) ([]movies.Row, error) {
	rows, err := db.Query(`SELECT movie_id, full_title, full_year, title, title_year, category, year_open_end,
		is_episode, episode_name, episode_season, episode_episode, episode_parent_title, suspended
		FROM movies WHERE run_id = ? ORDER BY row_id`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []movies.Row
	for rows.Next() {
		var r movies.Row
		var category string
		if err := rows.Scan(&r.ID, &r.FullTitle, &r.FullYear, &r.Title, &r.TitleYear, &category, &r.YearOpenEnd,
			&r.IsEpisode, &r.EpisodeName, &r.EpisodeSeason, &r.EpisodeEpisode, &r.EpisodeParentTitle, &r.Suspended); err != nil {
			return nil, err
		}
		r.Category = movies.Category(category)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// GetMovieYears returns the years stored for a movie in a run.
func GetMovieYears(db DBExecutor, runID string, movieID int) ([]int, error) {
	rows, err := db.Query(`SELECT year FROM movie_years WHERE run_id = ? AND movie_id = ? ORDER BY year`, runID, movieID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var years []int
	for rows.Next() {
		var y int
		if err := rows.Scan(&y); err != nil {
			return nil, err
		}
		years = append(years, y)
	}
	return years, rows.Err()
}

// SaveMovieIDs upserts title/identifier pairs into the persistent dictionary.
func SaveMovieIDs(db DBExecutor, ids map[string]int) (int, error) {
	saved := 0
	for title, id := range ids {
		if id <= 0 {
			return saved, fmt.Errorf("id for %q must be positive, got %d", title, id)
		}
		_, err := db.Exec(`INSERT INTO movie_ids (id, title) VALUES (?, ?)
			ON CONFLICT(title) DO UPDATE SET id = excluded.id`, id, title)
		if err != nil {
			return saved, fmt.Errorf("upsert id for %q: %w", title, err)
		}
		saved++
	}
	return saved, nil
}

// LoadMovieIDs returns the persistent dictionary and its largest identifier.
func LoadMovieIDs(db DBExecutor) (map[string]int, int, error) {
	rows, err := db.Query(`SELECT id, title FROM movie_ids`)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	ids := make(map[string]int)
	maxID := 0
	for rows.Next() {
		var id int
		var title string
		if err := rows.Scan(&id, &title); err != nil {
			return nil, 0, err
		}
		ids[title] = id
		if id > maxID {
			maxID = id
		}
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return ids, maxID, nil
}
