package ingest

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// FileSource reads a raw table from a local workbook (.xlsx) or a .csv
// export, for offline ingestion without touching the values API.
type FileSource struct {
	Path  string
	Sheet string // xlsx only
}

func NewFileSource(path, sheet string) *FileSource {
	if sheet == "" {
		sheet = DefaultRange
	}
	return &FileSource{Path: path, Sheet: sheet}
}

func (s *FileSource) FetchTable(ctx context.Context) (*RawTable, error) {
	if _, err := os.Stat(s.Path); err != nil {
		return nil, fmt.Errorf("opening %s: %w", s.Path, err)
	}

	var rows [][]string
	var err error
	if strings.EqualFold(filepath.Ext(s.Path), ".csv") {
		rows, err = s.readCSV()
	} else {
		rows, err = s.readWorkbook()
	}
	if err != nil {
		return nil, err
	}

	return tableFromStringRows(rows)
}

func (s *FileSource) readWorkbook() ([][]string, error) {
	f, err := excelize.OpenFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	rows, err := f.GetRows(s.Sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", s.Sheet, err)
	}
	return rows, nil
}

func (s *FileSource) readCSV() ([][]string, error) {
	file, err := os.Open(s.Path)
	if err != nil {
		return nil, fmt.Errorf("opening CSV: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // sheet exports have ragged rows
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	return rows, nil
}

// tableFromStringRows applies the same emptiness rules as the values API.
func tableFromStringRows(rows [][]string) (*RawTable, error) {
	switch len(rows) {
	case 0:
		return nil, ErrEmptySheet
	case 1:
		return nil, ErrHeadersOnly
	}

	headers := make([]string, len(rows[0]))
	for i, h := range rows[0] {
		headers[i] = strings.TrimSpace(h)
	}

	data := make([][]any, 0, len(rows)-1)
	for _, r := range rows[1:] {
		cells := make([]any, len(r))
		for i, c := range r {
			cells[i] = c
		}
		data = append(data, cells)
	}

	return &RawTable{Headers: headers, Rows: data}, nil
}
