package movies

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

const (
	lineEpisode   = "\"1st Amendment Stand Up\" (2005) {E. Griff/Ralphie May (#1.3)}\t2005"
	lineClosed    = "\"!Next?\" (1994)\t\t\t\t\t1994-1995"
	lineOpen      = "\"#1 Single\" (2006)\t\t\t\t\t2006-????"
	lineSuspended = "\"!Next?\" (1994) {{SUSPENDED}}\t\t\t\t1994-1995"
)

// counter is a minimal Assigner for tests that do not need the registry.
type counter struct {
	ids  map[string]int
	next int
}

func newCounter() *counter { return &counter{ids: map[string]int{}} }

func (c *counter) Assign(title string) int {
	if id, ok := c.ids[title]; ok {
		return id
	}
	c.next++
	c.ids[title] = c.next
	return c.next
}

func fixedClock(year int) func() time.Time {
	return func() time.Time { return time.Date(year, time.June, 1, 0, 0, 0, 0, time.UTC) }
}

func decompose(t *testing.T, line string) Record {
	t.Helper()
	d := &Decomposer{Now: fixedClock(2016)}
	rec, err := d.Decompose(line, newCounter())
	if err != nil {
		t.Fatalf("Decompose(%q) failed: %v", line, err)
	}
	return rec
}

func decomposeMovie(t *testing.T, line string) *Movie {
	t.Helper()
	m, ok := decompose(t, line).(*Movie)
	if !ok {
		t.Fatalf("Decompose(%q) did not return a *Movie", line)
	}
	return m
}

func TestVersion(t *testing.T) {
	if Version() == "" {
		t.Fatalf("Version() returned empty string")
	}
}

func TestDecomposeEpisode(t *testing.T) {
	got := decomposeMovie(t, lineEpisode)
	want := &Movie{
		ID:        1,
		FullTitle: "\"1st Amendment Stand Up\" (2005) {E. Griff/Ralphie May (#1.3)}",
		FullYear:  "2005",
		Title:     "\"1st Amendment Stand Up\"",
		TitleYear: "2005",
		Category:  CategorySeries,
		Years:     []int{2005},
		Episode: &Episode{
			Name:        "E. Griff/Ralphie May",
			Season:      "1",
			Number:      "3",
			ParentTitle: "\"1st Amendment Stand Up\" (2005)",
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
}

func TestDecomposeClosedRange(t *testing.T) {
	got := decomposeMovie(t, lineClosed)
	want := &Movie{
		ID:        1,
		FullTitle: "\"!Next?\" (1994)",
		FullYear:  "1994-1995",
		Title:     "\"!Next?\"",
		TitleYear: "1994",
		Category:  CategorySeries,
		Years:     []int{1994, 1995},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("record mismatch (-want +got):\n%s", diff)
	}
	if got.IsEpisode() {
		t.Errorf("expected non-episode")
	}
}

func TestDecomposeOpenRange(t *testing.T) {
	got := decomposeMovie(t, lineOpen)
	if !got.YearOpenEnd {
		t.Fatalf("expected open-ended year range")
	}
	if got.Title != "\"#1 Single\"" || got.TitleYear != "2006" {
		t.Errorf("unexpected title %q / year %q", got.Title, got.TitleYear)
	}
	want := []int{2006, 2007, 2008, 2009, 2010, 2011, 2012, 2013, 2014, 2015, 2016}
	if diff := cmp.Diff(want, got.Years); diff != "" {
		t.Errorf("years mismatch (-want +got):\n%s", diff)
	}
}

func TestDecomposeOpenRangeUsesWallClock(t *testing.T) {
	rec, err := NewDecomposer().Decompose(lineOpen, newCounter())
	if err != nil {
		t.Fatalf("Decompose failed: %v", err)
	}
	m := rec.(*Movie)
	if m.Years[0] != 2006 || m.Years[1] != 2007 || m.Years[2] != 2008 {
		t.Fatalf("unexpected leading years %v", m.Years[:3])
	}
	if last := m.Years[len(m.Years)-1]; last != time.Now().Year() {
		t.Errorf("expected range to end at current year, ends at %d", last)
	}
}

func TestDecomposeSuspended(t *testing.T) {
	rec := decompose(t, lineSuspended)
	s, ok := rec.(*Suspended)
	if !ok {
		t.Fatalf("expected *Suspended, got %T", rec)
	}
	if s.FullTitle != "" || s.FullYear != "" {
		t.Errorf("expected cleared raw fields, got %q / %q", s.FullTitle, s.FullYear)
	}
	if s.Marker != "{{SUSPENDED}}" {
		t.Errorf("unexpected marker %q", s.Marker)
	}
}

func TestCheckSuspendedSpellings(t *testing.T) {
	for _, marker := range []string{"{{SUSPEND}}", "{{SUSNED}}", "{{SUSPENDED}}", "{{SUSNEDED}}"} {
		got, ok := CheckSuspended("\"Show\" (2001) " + marker)
		if !ok || got != marker {
			t.Errorf("CheckSuspended with %s = %q, %v", marker, got, ok)
		}
	}
	if _, ok := CheckSuspended("\"Show\" (2001){{SUSPENDED}}"); ok {
		t.Errorf("marker without separating space must not match")
	}
	if _, ok := CheckSuspended("\"Show\" (2001) {{SUSPENDED}} (TV)"); ok {
		t.Errorf("marker must be at the end of the title")
	}
}

// Every suspended entry is keyed on the cleared (empty) title, so all of
// them share one identifier. Kept as-is for compatibility with existing
// output files.
func TestSuspendedRecordsShareIdentifier(t *testing.T) {
	d := &Decomposer{Now: fixedClock(2016)}
	ids := newCounter()

	first, err := d.Decompose(lineSuspended, ids)
	if err != nil {
		t.Fatal(err)
	}
	second, err := d.Decompose("\"Other\" (2001) {{SUSNEDED}}\t2001", ids)
	if err != nil {
		t.Fatal(err)
	}
	if first.Identifier() != second.Identifier() {
		t.Fatalf("expected suspended records to share an identifier, got %d and %d",
			first.Identifier(), second.Identifier())
	}
	if first.Key() != "" {
		t.Errorf("expected empty key, got %q", first.Key())
	}
}

func TestDecomposeCategories(t *testing.T) {
	cases := []struct {
		line     string
		category Category
		title    string
	}{
		{"Movie 1 (2005) (TV)\t2005", CategoryTV, "Movie 1"},
		{"Movie 2 (2005) (V)\t2005", CategoryVideo, "Movie 2"},
		{"Movie 3 (2005) (VG)\t2005", CategoryVideoGame, "Movie 3"},
		{"Movie 4 (2005)\t2005", CategoryFilm, "Movie 4"},
		// Quoted titles keep their (TV) marker, so no year marker is found
		// and the blind three-character trim applies.
		{"\"Series\" (2005) (TV)\t2005", CategorySeries, "\"Series\" (2005) ("},
		{"\"Series\" (2005) {Pilot (#1.1)}\t2005", CategorySeries, "\"Series\""},
	}
	for _, tc := range cases {
		m := decomposeMovie(t, tc.line)
		if m.Category != tc.category {
			t.Errorf("%q: category = %q, want %q", tc.line, m.Category, tc.category)
		}
		if m.Title != tc.title {
			t.Errorf("%q: title = %q, want %q", tc.line, m.Title, tc.title)
		}
	}
}

func TestExtractEpisode(t *testing.T) {
	cases := []struct {
		name      string
		fullTitle string
		want      *Episode
		remaining string
	}{
		{
			name:      "no bracket",
			fullTitle: "Movie (2005)",
			want:      nil,
			remaining: "Movie (2005)",
		},
		{
			name:      "name only",
			fullTitle: "\"Show\" (2005) {The Pilot}",
			want:      &Episode{Name: "The Pilot", ParentTitle: "\"Show\" (2005)"},
			remaining: "\"Show\" (2005)",
		},
		{
			name:      "number only",
			fullTitle: "\"Show\" (2005) {(#2.10)}",
			want:      &Episode{Season: "2", Number: "10", ParentTitle: "\"Show\" (2005)"},
			remaining: "\"Show\" (2005)",
		},
		{
			name:      "date instead of number",
			fullTitle: "\"Show\" (2005) {(2005-03-01)}",
			want:      &Episode{Name: "(2005-03-01)", ParentTitle: "\"Show\" (2005)"},
			remaining: "\"Show\" (2005)",
		},
		{
			name:      "number without season",
			fullTitle: "\"Show\" (2005) {Finale (#12)}",
			want:      &Episode{Name: "Finale (#12)", ParentTitle: "\"Show\" (2005)"},
			remaining: "\"Show\" (2005)",
		},
		{
			name:      "last marker wins",
			fullTitle: "\"Show\" (2005) {Part (#1) (#3.4)}",
			want:      &Episode{Name: "Part (#1)", Season: "3", Number: "4", ParentTitle: "\"Show\" (2005)"},
			remaining: "\"Show\" (2005)",
		},
		{
			name:      "last bracket wins",
			fullTitle: "\"Show (a) {b}\" (2005) {Ep (#1.1)}",
			want:      &Episode{Name: "Ep", Season: "1", Number: "1", ParentTitle: "\"Show (a) {b}\" (2005)"},
			remaining: "\"Show (a) {b}\" (2005)",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, remaining := ExtractEpisode(tc.fullTitle)
			if diff := cmp.Diff(tc.want, got); diff != "" {
				t.Errorf("episode mismatch (-want +got):\n%s", diff)
			}
			if remaining != tc.remaining {
				t.Errorf("remaining = %q, want %q", remaining, tc.remaining)
			}
		})
	}
}

func TestExtractTitleYear(t *testing.T) {
	cases := []struct {
		in, year, title string
	}{
		{"Hamlet (1948)", "1948", "Hamlet"},
		{"Hamlet (1990/I)", "1990/I", "Hamlet"},
		{"Hamlet (2000/XIV)", "2000/XIV", "Hamlet"},
		{"Lost Reel (????)", "????", "Lost Reel"},
		{"Lost Reel (????/II)", "????/II", "Lost Reel"},
		// No marker: the trailing three characters are dropped anyway.
		{"No Year Here", "", "No Year H"},
		{"ab", "", ""},
		{"Café", "", "C"},
	}
	for _, tc := range cases {
		year, title := ExtractTitleYear(tc.in)
		if year != tc.year || title != tc.title {
			t.Errorf("ExtractTitleYear(%q) = %q, %q; want %q, %q", tc.in, year, title, tc.year, tc.title)
		}
	}
}

func TestParseYears(t *testing.T) {
	now := time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC)
	cases := []struct {
		in      string
		want    []int
		openEnd bool
	}{
		{"", []int{-1}, false},
		{"1999", []int{1999}, false},
		{"2014-????", []int{2014, 2015, 2016}, true},
		{"1990-1993", []int{1990, 1991, 1992, 1993}, false},
		// Unrecognized shapes fall back to a single zero year.
		{"????", []int{0}, false},
		{"19xx", []int{0}, false},
		{"1995-1990", []int{}, false},
	}
	for _, tc := range cases {
		got, openEnd := ParseYears(tc.in, now)
		if diff := cmp.Diff(tc.want, got); diff != "" {
			t.Errorf("ParseYears(%q) mismatch (-want +got):\n%s", tc.in, diff)
		}
		if openEnd != tc.openEnd {
			t.Errorf("ParseYears(%q) openEnd = %v, want %v", tc.in, openEnd, tc.openEnd)
		}
	}
}

func TestFormatYearsRoundTrip(t *testing.T) {
	now := time.Date(2016, time.January, 1, 0, 0, 0, 0, time.UTC)
	for _, field := range []string{"", "1999", "2014-????", "1990-1993", "19xx", "????"} {
		years, openEnd := ParseYears(field, now)
		again, againOpen := ParseYears(FormatYears(years, openEnd), now)
		if diff := cmp.Diff(years, again); diff != "" || againOpen != openEnd {
			t.Errorf("round trip of %q changed classification (-first +second):\n%s", field, diff)
		}
	}
	if got := FormatYears([]int{1990, 1991}, false); got != "1990-1991" {
		t.Errorf("FormatYears = %q", got)
	}
	fallback, _ := ParseYears("19xx", now)
	if got := FormatYears(fallback, false); got != "0000" {
		t.Errorf("FormatYears of unrecognized field = %q, want \"0000\"", got)
	}
}

func TestDecomposeMalformed(t *testing.T) {
	d := NewDecomposer()
	for _, line := range []string{"", "Only A Title (2005)"} {
		_, err := d.Decompose(line, newCounter())
		if !errors.Is(err, ErrMalformedRecord) {
			t.Errorf("Decompose(%q) err = %v, want ErrMalformedRecord", line, err)
		}
		var pe *ParseError
		if !errors.As(err, &pe) || pe.Raw != line {
			t.Errorf("Decompose(%q) did not return a *ParseError carrying the line", line)
		}
	}
}

func TestDecomposeEmptyYearField(t *testing.T) {
	m := decomposeMovie(t, "Untitled (2019)\t")
	if diff := cmp.Diff([]int{-1}, m.Years); diff != "" {
		t.Errorf("years mismatch (-want +got):\n%s", diff)
	}
}

func TestIdentifierKeyedOnFullTitle(t *testing.T) {
	d := &Decomposer{Now: fixedClock(2016)}
	ids := newCounter()
	a, _ := d.Decompose("Hamlet (1948)\t1948", ids)
	b, _ := d.Decompose("Hamlet (1990/I)\t1990", ids)
	c, _ := d.Decompose("Hamlet (1948)\t1948", ids)
	if a.Identifier() == b.Identifier() {
		t.Errorf("distinct full titles with the same display title must get distinct ids")
	}
	if a.Identifier() != c.Identifier() {
		t.Errorf("same full title must get the same id")
	}
}
