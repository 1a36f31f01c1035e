// Package output writes decomposed records as tab-separated text.
package output

import (
	"bufio"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/japaniel/movielist/pkg/movies"
)

// MovieColumns names the columns of the movies file, in order.
var MovieColumns = []string{
	"identifier", "full_title", "full_year", "title", "title_year", "category",
	"year_open_end", "is_episode", "episode_name", "episode_season",
	"episode_episode", "episode_parent_title", "suspended",
}

// TSVWriter writes one line per record to the movies stream and one
// "identifier<TAB>year" line per year to the years stream. Values are
// written verbatim: titles never contain tabs or newlines.
type TSVWriter struct {
	movies *bufio.Writer
	years  *bufio.Writer
	closer []io.Closer
}

// NewTSVWriter writes to the given streams. A nil years stream disables
// the years output.
func NewTSVWriter(moviesW, yearsW io.Writer) *TSVWriter {
	w := &TSVWriter{movies: bufio.NewWriter(moviesW)}
	if yearsW != nil {
		w.years = bufio.NewWriter(yearsW)
	}
	return w
}

// CreateTSV creates (or truncates) the output files. An empty yearsPath
// disables the years output.
func CreateTSV(moviesPath, yearsPath string) (*TSVWriter, error) {
	mf, err := os.Create(moviesPath)
	if err != nil {
		return nil, err
	}
	var yf *os.File
	if yearsPath != "" {
		yf, err = os.Create(yearsPath)
		if err != nil {
			mf.Close()
			return nil, err
		}
	}
	var w *TSVWriter
	if yf != nil {
		w = NewTSVWriter(mf, yf)
		w.closer = []io.Closer{mf, yf}
	} else {
		w = NewTSVWriter(mf, nil)
		w.closer = []io.Closer{mf}
	}
	return w, nil
}

// Write appends rec to the output.
func (w *TSVWriter) Write(rec movies.Record) error {
	row := movies.Flatten(rec)
	if _, err := w.movies.WriteString(strings.Join(Columns(row), "\t") + "\n"); err != nil {
		return err
	}
	if w.years == nil {
		return nil
	}
	id := strconv.Itoa(row.ID)
	for _, y := range row.Years {
		if _, err := w.years.WriteString(id + "\t" + strconv.Itoa(y) + "\n"); err != nil {
			return err
		}
	}
	return nil
}

// Flush writes buffered data to the underlying streams.
func (w *TSVWriter) Flush() error {
	if err := w.movies.Flush(); err != nil {
		return err
	}
	if w.years != nil {
		return w.years.Flush()
	}
	return nil
}

// Close flushes and closes files opened by CreateTSV.
func (w *TSVWriter) Close() error {
	err := w.Flush()
	for _, c := range w.closer {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Columns renders row in MovieColumns order.
func Columns(row movies.Row) []string {
	return []string{
		strconv.Itoa(row.ID),
		row.FullTitle,
		row.FullYear,
		row.Title,
		row.TitleYear,
		string(row.Category),
		strconv.FormatBool(row.YearOpenEnd),
		strconv.FormatBool(row.IsEpisode),
		row.EpisodeName,
		row.EpisodeSeason,
		row.EpisodeEpisode,
		row.EpisodeParentTitle,
		strconv.FormatBool(row.Suspended),
	}
}
