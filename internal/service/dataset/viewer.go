package dataset

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"unicode/utf8"
)

// Outcome tells the caller what View printed.
type Outcome int

const (
	OutcomeRendered Outcome = iota
	OutcomeEmpty
	OutcomeMalformed
	OutcomeUnreadable
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRendered:
		return "rendered"
	case OutcomeEmpty:
		return "empty"
	case OutcomeMalformed:
		return "malformed"
	case OutcomeUnreadable:
		return "unreadable"
	default:
		return "unknown"
	}
}

var errInvalidEncoding = errors.New("file is not valid UTF-8")

// Table is a parsed CSV file: the first record is the header.
type Table struct {
	Header []string
	Rows   [][]string
}

// Load parses path as CSV. Empty files yield ErrEmptyData and unparseable ones a *ParseError.
func Load(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(path, data)
}

// Parse is Load for bytes already in memory; name is used in errors.
func Parse(name string, data []byte) (*Table, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, ErrEmptyData
	}
	if !utf8.Valid(data) {
		return nil, &ParseError{Path: name, Err: errInvalidEncoding}
	}
	r := csv.NewReader(bytes.NewReader(data))
	records, err := r.ReadAll()
	if err != nil {
		return nil, &ParseError{Path: name, Err: err}
	}
	if len(records) == 0 {
		return nil, ErrEmptyData
	}
	return &Table{Header: records[0], Rows: records[1:]}, nil
}

// View prints the file at path as a table on w. Empty and malformed files are
// reported on w instead of being returned as errors.
func View(w io.Writer, path string) Outcome {
	table, err := Load(path)
	var parseErr *ParseError
	switch {
	case err == nil:
	case errors.Is(err, ErrEmptyData):
		fmt.Fprintln(w, "\nDataset is empty.")
		return OutcomeEmpty
	case errors.As(err, &parseErr):
		fmt.Fprintln(w, "\nError parsing CSV file. Check the file format.")
		return OutcomeMalformed
	default:
		fmt.Fprintf(w, "\nCould not read dataset: %v\n", err)
		return OutcomeUnreadable
	}

	fmt.Fprintln(w, "\nDataset:")
	table.Render(w)
	return OutcomeRendered
}

// Render writes the table with a leading row index column.
func (t *Table) Render(w io.Writer) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintf(tw, "\t%s\t\n", strings.Join(t.Header, "\t"))
	for i, row := range t.Rows {
		fmt.Fprintf(tw, "%s\t%s\t\n", strconv.Itoa(i), strings.Join(row, "\t"))
	}
	fmt.Fprintf(tw, "\n[%d rows x %d columns]\n", len(t.Rows), len(t.Header))
	_ = tw.Flush()
}
