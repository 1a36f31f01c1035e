// Package dictionary reads and writes title identifier dictionaries: one
// "id<TAB>title" pair per line. A dictionary saved at the end of one run
// seeds the registry of the next, so identifiers stay stable across runs.
package dictionary

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"
)

// maxLineSize bounds a single dictionary line.
const maxLineSize = 1024 * 1024

// Seeder is implemented by registry.Registry.
type Seeder interface {
	Seed(entries map[string]int, startingMark int) error
}

// Dictionary is a loaded title→identifier mapping.
type Dictionary struct {
	Entries map[string]int
	// Max is the largest identifier in Entries.
	Max int
}

// Load parses a dictionary. Blank lines are skipped; any other line must be
// an integer identifier, a tab, and the title (which may be empty).
func Load(r io.Reader) (*Dictionary, error) {
	d := &Dictionary{Entries: make(map[string]int)}
	owners := make(map[int]string)

	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSuffix(sc.Text(), "\r")
		if line == "" {
			continue
		}
		idText, title, ok := strings.Cut(line, "\t")
		if !ok {
			return nil, fmt.Errorf("dictionary line %d: missing tab separator", lineNo)
		}
		id, err := strconv.Atoi(strings.TrimSpace(idText))
		if err != nil || id <= 0 {
			return nil, fmt.Errorf("dictionary line %d: invalid identifier %q", lineNo, idText)
		}
		if prev, dup := d.Entries[title]; dup && prev != id {
			return nil, fmt.Errorf("dictionary line %d: title %q already has identifier %d", lineNo, title, prev)
		}
		if owner, dup := owners[id]; dup && owner != title {
			return nil, fmt.Errorf("dictionary line %d: identifier %d already used by %q", lineNo, id, owner)
		}
		d.Entries[title] = id
		owners[id] = title
		if id > d.Max {
			d.Max = id
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read dictionary: %w", err)
	}
	return d, nil
}

// LoadFile reads a dictionary from path.
func LoadFile(path string) (*Dictionary, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return Load(f)
}

// Seed loads the dictionary into s. The high-water mark starts at Max.
func (d *Dictionary) Seed(s Seeder) error {
	return s.Seed(d.Entries, d.Max)
}

// Write exports entries in identifier order.
func Write(w io.Writer, entries map[string]int) error {
	type pair struct {
		id    int
		title string
	}
	pairs := make([]pair, 0, len(entries))
	for title, id := range entries {
		pairs = append(pairs, pair{id, title})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].id != pairs[j].id {
			return pairs[i].id < pairs[j].id
		}
		return pairs[i].title < pairs[j].title
	})

	bw := bufio.NewWriter(w)
	for _, p := range pairs {
		if _, err := fmt.Fprintf(bw, "%d\t%s\n", p.id, p.title); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// WriteFile exports entries to path, replacing it.
func WriteFile(path string, entries map[string]int) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(f, entries); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
