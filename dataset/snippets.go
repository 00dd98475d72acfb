package dataset

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"
)

const (
	snippetColumn = "Code Snippet"
	typeColumn    = "Vulnerability Type"
)

// Snippet is one row of a raw vulnerability corpus.
type Snippet struct {
	Code string `csv:"Code Snippet"`
	Type string `csv:"Vulnerability Type"`
}

// LoadSnippets reads a headed CSV holding at least the "Code Snippet" and
// "Vulnerability Type" columns. Other columns are ignored.
func LoadSnippets(path string, opts Options) ([]*Snippet, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer file.Close()

	decoded, err := decodeReader(file, opts.Encoding)
	if err != nil {
		return nil, err
	}
	reader := csv.NewReader(decoded)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%w: %s: no header", ErrFormat, path)
	}
	if err := requireColumns(rows[0], snippetColumn, typeColumn); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}

	var snippets []*Snippet
	if err := gocsv.UnmarshalCSV(&recordReader{rows: rows}, &snippets); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFormat, path, err)
	}
	return snippets, nil
}

func requireColumns(header []string, names ...string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}
	for _, name := range names {
		if !present[name] {
			return fmt.Errorf("missing column %q", name)
		}
	}
	return nil
}

// recordReader replays already parsed records to gocsv.
type recordReader struct {
	rows [][]string
	next int
}

func (r *recordReader) Read() ([]string, error) {
	if r.next >= len(r.rows) {
		return nil, io.EOF
	}
	row := r.rows[r.next]
	r.next++
	return row, nil
}

func (r *recordReader) ReadAll() ([][]string, error) {
	rows := r.rows[r.next:]
	r.next = len(r.rows)
	return rows, nil
}
