// Package listfile reads the record block of an IMDB movies.list file.
//
// The file starts with free-form header text. The block begins after the
// "MOVIES LIST" line and the two lines that follow it (an "=====" rule and a
// blank line), and ends at a line of dashes. Everything outside the block is
// ignored.
package listfile

import (
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// Encoding names accepted by Options.Encoding.
const (
	EncodingLatin1 = "latin1"
	EncodingUTF8   = "utf-8"
)

const (
	defaultTrigger  = "MOVIES LIST"
	headerLines     = 2
	sentinelPrefix  = "-----"
	maxLineSize     = 1024 * 1024
	initialLineSize = 64 * 1024
)

// ErrNoBlock is returned when the input ends before the trigger line.
var ErrNoBlock = errors.New("listfile: record block not found")

// Options controls how the file is framed and decoded.
type Options struct {
	// Encoding of the input. Empty means latin1.
	Encoding string
	// Trigger is the line that precedes the block header. Empty means "MOVIES LIST".
	Trigger string
	// NoFraming treats every non-blank line as a record (for already
	// extracted blocks and ad-hoc input).
	NoFraming bool
}

// Reader yields record lines one at a time.
type Reader struct {
	sc      *bufio.Scanner
	opts    Options
	started bool
	done    bool
	lineNo  int
	closer  io.Closer
}

// NewReader wraps r.
func NewReader(r io.Reader, opts Options) (*Reader, error) {
	if opts.Trigger == "" {
		opts.Trigger = defaultTrigger
	}
	switch strings.ToLower(opts.Encoding) {
	case "", EncodingLatin1, "iso-8859-1":
		r = transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	case EncodingUTF8, "utf8":
	default:
		return nil, fmt.Errorf("listfile: unsupported encoding %q", opts.Encoding)
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, initialLineSize), maxLineSize)
	return &Reader{sc: sc, opts: opts, started: opts.NoFraming}, nil
}

// Open opens path, transparently decompressing ".gz" files. The caller
// must Close the reader.
func Open(path string, opts Options) (*Reader, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	var src io.Reader = f
	closer := io.Closer(f)
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, fmt.Errorf("listfile: open gzip %s: %w", path, err)
		}
		src = gz
		closer = multiCloser{gz, f}
	}
	rd, err := NewReader(src, opts)
	if err != nil {
		closer.Close()
		return nil, err
	}
	rd.closer = closer
	return rd, nil
}

// Next returns the next record line, or io.EOF at the end of the block.
func (r *Reader) Next() (string, error) {
	if r.done {
		return "", io.EOF
	}
	if !r.started {
		if err := r.skipHeader(); err != nil {
			r.done = true
			return "", err
		}
	}
	for r.sc.Scan() {
		r.lineNo++
		line := strings.TrimSuffix(r.sc.Text(), "\r")
		if !r.opts.NoFraming && strings.HasPrefix(line, sentinelPrefix) {
			r.done = true
			return "", io.EOF
		}
		if strings.TrimSpace(line) == "" {
			continue
		}
		return line, nil
	}
	r.done = true
	if err := r.sc.Err(); err != nil {
		return "", fmt.Errorf("listfile: line %d: %w", r.lineNo+1, err)
	}
	return "", io.EOF
}

// LineNumber is the 1-based file line number of the last line returned.
func (r *Reader) LineNumber() int { return r.lineNo }

// Close releases the underlying file, if the reader owns one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

func (r *Reader) skipHeader() error {
	for r.sc.Scan() {
		r.lineNo++
		if strings.TrimRight(r.sc.Text(), "\r") != r.opts.Trigger {
			continue
		}
		for i := 0; i < headerLines; i++ {
			if !r.sc.Scan() {
				break
			}
			r.lineNo++
		}
		r.started = true
		return nil
	}
	if err := r.sc.Err(); err != nil {
		return fmt.Errorf("listfile: %w", err)
	}
	return ErrNoBlock
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var errs []error
	for _, c := range m {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
