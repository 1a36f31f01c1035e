package movies

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Version returns the current version of the package.
func Version() string { return "0.2.0" }

// Assigner hands out identifiers for canonical titles.
type Assigner interface {
	Assign(title string) int
}

// Decomposer turns raw movies.list lines into records.
type Decomposer struct {
	// Now is used to close open-ended year ranges ("2006-????").
	Now func() time.Time
}

// NewDecomposer creates a decomposer that uses the wall clock.
func NewDecomposer() *Decomposer {
	return &Decomposer{Now: time.Now}
}

// Decompose extracts every field from line and assigns its identifier.
func (d *Decomposer) Decompose(line string, ids Assigner) (Record, error) {
	rec, err := d.Extract(line)
	if err != nil {
		return nil, err
	}
	Assign(rec, ids)
	return rec, nil
}

// Extract runs every extraction step except identifier assignment. The
// returned record has ID 0 until passed to Assign.
func (d *Decomposer) Extract(line string) (Record, error) {
	fullTitle, fullYear, err := SplitFields(line)
	if err != nil {
		return nil, err
	}

	if marker, ok := CheckSuspended(fullTitle); ok {
		return &Suspended{Marker: marker}, nil
	}

	now := time.Now
	if d.Now != nil {
		now = d.Now
	}

	m := &Movie{FullTitle: fullTitle, FullYear: fullYear}
	m.Years, m.YearOpenEnd = ParseYears(fullYear, now())

	// Each step narrows what the previous one left behind.
	var remaining string
	m.Episode, remaining = ExtractEpisode(fullTitle)
	m.Category, remaining = ExtractCategory(remaining)
	m.TitleYear, m.Title = ExtractTitleYear(remaining)
	return m, nil
}

// Assign sets the identifier of rec to the one ids holds for its key.
func Assign(rec Record, ids Assigner) {
	rec.setID(ids.Assign(rec.Key()))
}

// SplitFields splits a line on runs of tabs into the title and year fields.
func SplitFields(line string) (fullTitle, fullYear string, err error) {
	parts := reTabs.Split(line, -1)
	if len(parts) < 2 {
		return "", "", &ParseError{Raw: line, Fields: len(parts)}
	}
	return parts[0], parts[1], nil
}

// CheckSuspended reports whether fullTitle ends with a suspension marker
// and returns the marker.
func CheckSuspended(fullTitle string) (string, bool) {
	m := reSuspended.FindStringSubmatch(fullTitle)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// ParseYears expands the year field into the inclusive list of years it
// covers. An empty field yields [-1]; unrecognized shapes yield [0].
func ParseYears(fullYear string, now time.Time) (years []int, openEnd bool) {
	var start, end int
	switch {
	case fullYear == "":
		start, end = -1, -1
	case reYearSingle.MatchString(fullYear):
		start = atoi(fullYear)
		end = start
	default:
		if m := reYearOpen.FindStringSubmatch(fullYear); m != nil {
			start = atoi(m[1])
			end = now.Year()
			openEnd = true
		} else if m := reYearClosed.FindStringSubmatch(fullYear); m != nil {
			start = atoi(m[1])
			end = atoi(m[2])
		}
	}
	return yearRange(start, end), openEnd
}

// FormatYears renders years back into the movies.list year field.
// The [0] fallback for unrecognized fields comes back as "0000", which
// parses as a single year rather than as the fallback shape.
func FormatYears(years []int, openEnd bool) string {
	if len(years) == 0 {
		return ""
	}
	first, last := years[0], years[len(years)-1]
	switch {
	case openEnd:
		return fmt.Sprintf("%04d-????", first)
	case len(years) == 1 && first == -1:
		return ""
	case first == last:
		return fmt.Sprintf("%04d", first)
	default:
		return fmt.Sprintf("%04d-%04d", first, last)
	}
}

// ExtractEpisode splits a trailing "{...}" episode bracket off fullTitle.
// It returns nil and fullTitle unchanged when there is none; otherwise the
// remaining string is the parent title.
func ExtractEpisode(fullTitle string) (*Episode, string) {
	m := reEpisode.FindStringSubmatch(fullTitle)
	if m == nil {
		return nil, fullTitle
	}
	ep := &Episode{ParentTitle: m[1]}
	data := m[2]

	n := reEpisodeNumber.FindStringSubmatch(data)
	if n == nil {
		ep.Name = data
		return ep, ep.ParentTitle
	}
	parts := strings.Split(n[2], ".")
	if len(parts) == 2 {
		ep.Season, ep.Number = parts[0], parts[1]
		ep.Name = n[1]
	} else {
		ep.Name = data
	}
	return ep, ep.ParentTitle
}

// ExtractCategory detects the release category. Quoted titles are series;
// otherwise a trailing (TV), (V) or (VG) marker is cut off and returned.
func ExtractCategory(s string) (Category, string) {
	if strings.HasPrefix(s, `"`) {
		return CategorySeries, s
	}
	m := reCategory.FindStringSubmatchIndex(s)
	if m == nil {
		return CategoryFilm, s
	}
	return Category(s[m[2]:m[3]]), s[:m[0]]
}

// ExtractTitleYear cuts the trailing "(YYYY)" or "(YYYY/II)" marker and the
// space before it. Without a marker the last three characters are still
// dropped.
func ExtractTitleYear(s string) (titleYear, title string) {
	for _, re := range []*regexp.Regexp{reTitleYearCode, reTitleYearPlain} {
		if m := re.FindStringSubmatchIndex(s); m != nil {
			return s[m[2]:m[3]], trimRunes(s[:m[0]], 1)
		}
	}
	return "", trimRunes(s, 3)
}

func yearRange(start, end int) []int {
	if end < start {
		return []int{}
	}
	years := make([]int, 0, end-start+1)
	for y := start; y <= end; y++ {
		years = append(years, y)
	}
	return years
}

func trimRunes(s string, n int) string {
	for ; n > 0 && s != ""; n-- {
		_, size := utf8.DecodeLastRuneInString(s)
		s = s[:len(s)-size]
	}
	return s
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

var (
	reTabs = regexp.MustCompile(`\t+`)

	// Both spellings occur in the list: {{SUSPENDED}} and the misspelt {{SUSNEDED}}.
	reSuspended = regexp.MustCompile(` (\{\{SUS(?:PEND|NED)(?:ED)?\}\})$`)

	reYearSingle = regexp.MustCompile(`^(\d{4})$`)
	reYearOpen   = regexp.MustCompile(`^(\d{4})-\?{4}$`)
	reYearClosed = regexp.MustCompile(`^(\d{4})-(\d{4})$`)

	// Greedy prefix: the last ") {" wins. The final character (the closing
	// brace) is not part of the data.
	reEpisode = regexp.MustCompile(`^(.*\)) \{(.*).$`)
	// Name is optional so that "(#1.2)" alone still matches.
	reEpisodeNumber = regexp.MustCompile(`^(?:(.*) )?\(#(.*).$`)

	reCategory = regexp.MustCompile(` \((TV|V|VG)\)$`)

	reTitleYearCode  = regexp.MustCompile(`\(([0-9?]{4}/[IVXLCDM]+)\)$`)
	reTitleYearPlain = regexp.MustCompile(`\(([0-9?]{4})\)$`)
)
