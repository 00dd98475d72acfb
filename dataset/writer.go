package dataset

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
)

// WriteRows writes numeric rows as CSV, preceded by header when it is non-empty.
func WriteRows(path string, header []string, rows [][]float64) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	defer file.Close()

	writer := csv.NewWriter(file)
	if len(header) > 0 {
		if err := writer.Write(header); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
	}
	for _, row := range rows {
		record := make([]string, len(row))
		for i, value := range row {
			record[i] = strconv.FormatFloat(value, 'g', -1, 64)
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("%w: %v", ErrIO, err)
		}
	}
	writer.Flush()
	if err := writer.Error(); err != nil {
		return fmt.Errorf("%w: %v", ErrIO, err)
	}
	return file.Close()
}

// WriteDataset writes ds with the label as the last column, the layout Load expects.
func WriteDataset(path string, ds *Dataset, header []string) error {
	rows := make([][]float64, ds.Len())
	for i, features := range ds.Features {
		row := make([]float64, len(features), len(features)+1)
		copy(row, features)
		if ds.Labels != nil {
			row = append(row, float64(ds.Labels[i]))
		}
		rows[i] = row
	}
	return WriteRows(path, header, rows)
}
