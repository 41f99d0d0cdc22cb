package ingest

import (
	"context"
	"encoding/csv"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"gridpulse/internal/errors"
	"gridpulse/ports"
)

// FileReader reads the raw measurement table from a local CSV or XLSX file.
// Cells stay untyped strings; deciding what is a timestamp or a number is the
// indexer's job.
type FileReader struct {
	path     string
	fileType string // "csv" or "xlsx"
}

// NewFileReader picks the format from the file extension.
func NewFileReader(path string) *FileReader {
	fileType := "xlsx"
	if strings.ToLower(filepath.Ext(path)) == ".csv" {
		fileType = "csv"
	}
	return &FileReader{path: path, fileType: fileType}
}

// Read loads the table into memory.
func (r *FileReader) Read(ctx context.Context) (*ports.RawTable, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if _, err := os.Stat(r.path); os.IsNotExist(err) {
		return nil, errors.Newf(errors.CodeReadFailed, "input file not found: %s", r.path)
	}
	switch r.fileType {
	case "csv":
		return r.readCSV()
	default:
		return r.readXLSX()
	}
}

func (r *FileReader) readCSV() (*ports.RawTable, error) {
	f, err := os.Open(r.path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening %s", r.path)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1 // ragged rows are tolerated, indexer skips short cells
	records, err := reader.ReadAll()
	if err != nil {
		return nil, errors.Wrapf(err, "parsing csv %s", r.path)
	}
	if len(records) == 0 {
		return nil, errors.Newf(errors.CodeEmptyInput, "csv %s has no rows", r.path)
	}
	return &ports.RawTable{Headers: records[0], Rows: records[1:]}, nil
}

func (r *FileReader) readXLSX() (*ports.RawTable, error) {
	book, err := excelize.OpenFile(r.path)
	if err != nil {
		return nil, errors.Wrapf(err, "opening workbook %s", r.path)
	}
	defer book.Close()

	sheet := book.GetSheetName(0)
	rows, err := book.GetRows(sheet)
	if err != nil {
		return nil, errors.Wrapf(err, "reading sheet %s", sheet)
	}
	if len(rows) == 0 {
		return nil, errors.Newf(errors.CodeEmptyInput, "sheet %s has no rows", sheet)
	}
	return &ports.RawTable{Headers: rows[0], Rows: rows[1:]}, nil
}
