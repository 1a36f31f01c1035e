package db

import "time"

// Run is one ingestion of a movies.list file.
type Run struct {
	ID         string
	Source     string
	StartedAt  time.Time
	FinishedAt time.Time
	Records    int
	Suspended  int
	Malformed  int
}
