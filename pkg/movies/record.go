package movies

import (
	"errors"
	"fmt"
)

// Category is the release category of a title.
type Category string

const (
	CategoryFilm      Category = ""    // Theatrical film (no marker).
	CategorySeries    Category = "TVS" // Quoted title: TV series or one of its episodes.
	CategoryTV        Category = "TV"  // Made-for-TV.
	CategoryVideo     Category = "V"   // Direct-to-video.
	CategoryVideoGame Category = "VG"  // Video game.
)

// Record is the result of decomposing one catalogue line. It is either a
// *Movie or a *Suspended.
type Record interface {
	// Key is the canonical title used for identifier assignment.
	Key() string
	// Identifier returns the registry identifier (0 until assigned).
	Identifier() int

	setID(id int)
}

// Episode holds the metadata parsed from a trailing "{...}" episode bracket.
type Episode struct {
	Name        string // e.g. "E. Griff/Ralphie May"
	Season      string // e.g. "1"
	Number      string // e.g. "3"
	ParentTitle string // e.g. `"1st Amendment Stand Up" (2005)`
}

// Movie is a fully decomposed catalogue entry.
type Movie struct {
	ID        int
	FullTitle string
	FullYear  string

	Title       string
	TitleYear   string
	Category    Category
	Years       []int
	YearOpenEnd bool

	// Episode is nil when the title carries no episode bracket.
	Episode *Episode
}

func (m *Movie) Key() string     { return m.FullTitle }
func (m *Movie) Identifier() int { return m.ID }
func (m *Movie) setID(id int)    { m.ID = id }

// IsEpisode reports whether the entry is one episode of a parent title.
func (m *Movie) IsEpisode() bool { return m.Episode != nil }

// Suspended is an entry flagged with a {{SUSPENDED}} marker. Its raw fields
// are cleared and nothing else is extracted.
type Suspended struct {
	ID        int
	FullTitle string
	FullYear  string
	// Marker is the marker text as it appeared, e.g. "{{SUSPENDED}}".
	Marker string
}

func (s *Suspended) Key() string     { return s.FullTitle }
func (s *Suspended) Identifier() int { return s.ID }
func (s *Suspended) setID(id int)    { s.ID = id }

// ErrMalformedRecord is returned for lines that lack the title and year fields.
var ErrMalformedRecord = errors.New("malformed record")

// ParseError describes a line that could not be split into its two fields.
type ParseError struct {
	Raw    string
	Fields int
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed record: want 2 tab-delimited fields, got %d in %q", e.Fields, e.Raw)
}

func (e *ParseError) Unwrap() error { return ErrMalformedRecord }
