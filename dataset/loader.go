package dataset

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

var (
	ErrIO     = errors.New("dataset io error")
	ErrFormat = errors.New("malformed dataset")
)

type Options struct {
	HasHeader  bool
	HasLabel   bool
	Delimiter  rune
	Encoding   string
	NumClasses int
}

func DefaultOptions() Options {
	return Options{
		HasLabel:   true,
		Delimiter:  ',',
		Encoding:   "utf-8",
		NumClasses: 2,
	}
}

// Dataset holds one feature row per sample. Labels is nil when loaded without a label column.
type Dataset struct {
	Header   []string
	Features [][]float64
	Labels   []int
}

func (d *Dataset) Len() int {
	return len(d.Features)
}

func (d *Dataset) Dimension() int {
	if len(d.Features) == 0 {
		return 0
	}
	return len(d.Features[0])
}

// Load reads a delimited numeric file. With HasLabel the last column is the integer class label.
func Load(path string, opts Options) (*Dataset, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer file.Close()

	reader, err := decodeReader(file, opts.Encoding)
	if err != nil {
		return nil, err
	}
	return Parse(reader, opts)
}

func Parse(r io.Reader, opts Options) (*Dataset, error) {
	if opts.NumClasses <= 0 {
		opts.NumClasses = 2
	}
	reader := csv.NewReader(r)
	if opts.Delimiter != 0 {
		reader.Comma = opts.Delimiter
	}
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	validator := NewValidator(opts.NumClasses)
	ds := &Dataset{}
	width := -1
	first := true
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				return nil, fmt.Errorf("%w: %v", ErrFormat, err)
			}
			return nil, fmt.Errorf("%w: %v", ErrIO, err)
		}
		line, _ := reader.FieldPos(0)

		if first {
			first = false
			width = len(record)
			if opts.HasLabel && width < 2 {
				return nil, fmt.Errorf("%w: line %d: need at least one feature column and a label", ErrFormat, line)
			}
			if opts.HasHeader {
				ds.Header = append([]string(nil), record...)
				continue
			}
		}
		if len(record) != width {
			return nil, fmt.Errorf("%w: line %d: expected %d columns, got %d", ErrFormat, line, width, len(record))
		}

		row, err := parseRecord(record, line, opts.HasLabel, opts.NumClasses)
		if err != nil {
			return nil, err
		}
		if err := validator.Check(row); err != nil {
			return nil, err
		}
		ds.Features = append(ds.Features, row.Features)
		if opts.HasLabel {
			ds.Labels = append(ds.Labels, row.Label)
		}
	}
	return ds, nil
}

// LoadExample returns the first data row of a label-less file. ok is false when the file has no rows.
func LoadExample(path string, opts Options) (row []float64, ok bool, err error) {
	opts.HasLabel = false
	ds, err := Load(path, opts)
	if err != nil {
		return nil, false, err
	}
	if ds.Len() == 0 || ds.Dimension() == 0 {
		return nil, false, nil
	}
	return ds.Features[0], true, nil
}

func parseRecord(record []string, line int, hasLabel bool, numClasses int) (Row, error) {
	featureCount := len(record)
	if hasLabel {
		featureCount--
	}
	row := Row{Line: line, Features: make([]float64, featureCount), HasLabel: hasLabel}
	for i := 0; i < featureCount; i++ {
		value, err := parseCell(record[i])
		if err != nil {
			return Row{}, fmt.Errorf("%w: line %d column %d: %q is not numeric", ErrFormat, line, i+1, record[i])
		}
		row.Features[i] = value
	}
	if !hasLabel {
		return row, nil
	}

	cell := record[featureCount]
	label, err := parseCell(cell)
	if err != nil || label != math.Trunc(label) || math.IsInf(label, 0) {
		return Row{}, fmt.Errorf("%w: line %d: label %q is not an integer", ErrFormat, line, cell)
	}
	if label < 0 || label >= float64(numClasses) {
		return Row{}, fmt.Errorf("%w: line %d: label %q outside [0, %d)", ErrFormat, line, cell, numClasses)
	}
	row.Label = int(label)
	return row, nil
}

func parseCell(cell string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(cell), 64)
}
