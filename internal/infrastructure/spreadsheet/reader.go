package spreadsheet

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/gabriel-vasile/mimetype"
	"github.com/xuri/excelize/v2"

	"github.com/rigsync/backend/internal/domain"
)

const xlsxMIME = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Reader turns an uploaded xlsx or csv file into rows of cell values
type Reader struct {
	maxBytes int64
}

// NewReader creates a reader. A positive maxBytes rejects larger inputs with
// domain.ErrFileTooLarge.
func NewReader(maxBytes int64) *Reader {
	return &Reader{maxBytes: maxBytes}
}

// Read returns every row of the first sheet, header included
func (r *Reader) Read(src io.Reader) ([][]string, error) {
	if r.maxBytes > 0 {
		src = io.LimitReader(src, r.maxBytes+1)
	}
	data, err := io.ReadAll(src)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload: %w", err)
	}
	if r.maxBytes > 0 && int64(len(data)) > r.maxBytes {
		return nil, domain.ErrFileTooLarge
	}
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, domain.ErrEmptyFile
	}

	mtype := mimetype.Detect(data)
	switch {
	case mtype.Is(xlsxMIME), mtype.Is("application/zip"):
		return readXLSX(data)
	case isText(mtype):
		return readCSV(data)
	default:
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedFormat, mtype.String())
	}
}

// isText accepts csv and anything mimetype files under text/plain
func isText(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is("text/csv") || m.Is("text/plain") {
			return true
		}
	}
	return false
}

func readXLSX(data []byte) ([][]string, error) {
	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: failed to open Excel file: %v", domain.ErrUnsupportedFormat, err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, domain.ErrEmptyFile
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}
	return rows, nil
}

func readCSV(data []byte) ([][]string, error) {
	return parseCSV(bytes.NewReader(bytes.TrimPrefix(data, utf8BOM)))
}

// parseCSV tolerates ragged rows and stray quotes. Anything it still cannot
// parse is reported as an unsupported file.
func parseCSV(src io.Reader) ([][]string, error) {
	reader := csv.NewReader(src)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: failed to parse csv: %v", domain.ErrUnsupportedFormat, err)
	}
	return rows, nil
}
