package db

// migrationsSQL creates the store schema. Statements are separated by ';'.
const migrationsSQL = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	source      TEXT NOT NULL DEFAULT '',
	started_at  DATETIME NOT NULL,
	finished_at DATETIME,
	records     INTEGER NOT NULL DEFAULT 0,
	suspended   INTEGER NOT NULL DEFAULT 0,
	malformed   INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS movies (
	row_id               INTEGER PRIMARY KEY AUTOINCREMENT,
	run_id               TEXT NOT NULL REFERENCES runs(id),
	movie_id             INTEGER NOT NULL,
	full_title           TEXT NOT NULL,
	full_year            TEXT NOT NULL,
	title                TEXT NOT NULL DEFAULT '',
	title_year           TEXT NOT NULL DEFAULT '',
	category             TEXT NOT NULL DEFAULT '',
	year_open_end        INTEGER NOT NULL DEFAULT 0,
	is_episode           INTEGER NOT NULL DEFAULT 0,
	episode_name         TEXT NOT NULL DEFAULT '',
	episode_season       TEXT NOT NULL DEFAULT '',
	episode_episode      TEXT NOT NULL DEFAULT '',
	episode_parent_title TEXT NOT NULL DEFAULT '',
	suspended            INTEGER NOT NULL DEFAULT 0
);

CREATE INDEX IF NOT EXISTS idx_movies_run ON movies(run_id, movie_id);

CREATE TABLE IF NOT EXISTS movie_years (
	run_id   TEXT NOT NULL REFERENCES runs(id),
	movie_id INTEGER NOT NULL,
	year     INTEGER NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_movie_years_movie ON movie_years(run_id, movie_id);

CREATE TABLE IF NOT EXISTS movie_ids (
	id    INTEGER NOT NULL,
	title TEXT NOT NULL UNIQUE
);
`
