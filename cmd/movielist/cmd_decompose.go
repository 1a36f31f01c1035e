package main

import (
	"errors"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/japaniel/movielist/pkg/ingest"
	"github.com/japaniel/movielist/pkg/listfile"
	"github.com/japaniel/movielist/pkg/movies"
	"github.com/japaniel/movielist/pkg/output"
	"github.com/japaniel/movielist/pkg/registry"
)

func newDecomposeCmd(a *app) *cobra.Command {
	var (
		header   bool
		encoding string
	)
	cmd := &cobra.Command{
		Use:   "decompose [line...]",
		Short: "Decompose single lines and print them as TSV",
		Long: `Decomposes each argument, or each non-blank line of stdin when no
arguments are given, and prints one TSV row per record. Identifiers are
assigned from a fresh registry.

Example:
  movielist decompose $'"!Next?" (1994)\t\t\t1994-1995'`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var src ingest.LineSource
			if len(args) > 0 {
				src = &argSource{args: args}
			} else {
				r, err := listfile.NewReader(cmd.InOrStdin(), listfile.Options{Encoding: encoding, NoFraming: true})
				if err != nil {
					return err
				}
				src = r
			}

			out := output.NewTSVWriter(cmd.OutOrStdout(), nil)
			if header {
				if _, err := io.WriteString(cmd.OutOrStdout(), strings.Join(output.MovieColumns, "\t")+"\n"); err != nil {
					return err
				}
			}

			dec := movies.NewDecomposer()
			ids := registry.New()
			for {
				line, err := src.Next()
				if err == io.EOF {
					break
				}
				if err != nil {
					return err
				}
				rec, err := dec.Decompose(line, ids)
				if errors.Is(err, movies.ErrMalformedRecord) {
					a.logger.Warn("skipping malformed line", zap.String("line", line), zap.Error(err))
					continue
				}
				if err != nil {
					return err
				}
				if err := out.Write(rec); err != nil {
					return err
				}
			}
			return out.Flush()
		},
	}
	cmd.Flags().BoolVar(&header, "header", false, "Print a header row")
	cmd.Flags().StringVar(&encoding, "encoding", listfile.EncodingUTF8, "Encoding of stdin (latin1|utf-8)")
	return cmd
}

// argSource serves command-line arguments as lines.
type argSource struct {
	args []string
}

func (s *argSource) Next() (string, error) {
	if len(s.args) == 0 {
		return "", io.EOF
	}
	line := s.args[0]
	s.args = s.args[1:]
	return line, nil
}
