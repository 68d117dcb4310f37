// Package export serializes inventory items to the flat comma-separated
// text format and reads that format back.
package export

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strconv"
	"strings"

	"github.com/vyrodovalexey/ferreteria-inventory/internal/model"
)

// Delimiter separates fields in the exported text.
const Delimiter = ","

// DefaultFileName is the suggested destination file name.
const DefaultFileName = "inventario_ferreteria.csv"

// ContentType is the media type of the exported text.
const ContentType = "text/csv; charset=utf-8"

// Header is the column list of the first line.
var Header = []string{"id", "nombre", "categoria", "precio", "stock", "subtotal"}

// Parse errors.
var (
	ErrBadHeader = errors.New("unexpected header line")
	ErrBadRecord = errors.New("malformed record")
)

// IOError reports a failed write of the export destination.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("write export %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Record is one parsed data line. Subtotal is derivable and not kept.
type Record struct {
	ID        int64
	Name      string
	Category  model.Category
	UnitPrice float64
	Stock     int
}

// Input converts the record to store input.
func (r Record) Input() model.ItemInput {
	return model.ItemInput{
		Name:      r.Name,
		Category:  r.Category,
		UnitPrice: r.UnitPrice,
		Stock:     r.Stock,
	}
}

// Text renders items in the given order. It fails with model.ErrEmptyExport
// when items is empty.
func Text(items []model.Item) ([]byte, error) {
	if len(items) == 0 {
		return nil, model.ErrEmptyExport
	}

	var buf bytes.Buffer
	if err := Write(&buf, items); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// Write renders items to w. Names are validated to be free of the delimiter
// and of line breaks, so fields are written as-is without quoting.
func Write(w io.Writer, items []model.Item) error {
	if len(items) == 0 {
		return model.ErrEmptyExport
	}

	bw := bufio.NewWriter(w)

	if _, err := bw.WriteString(strings.Join(Header, Delimiter) + "\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for _, item := range items {
		row := []string{
			strconv.FormatInt(item.ID, 10),
			item.Name,
			string(item.Category),
			model.FormatAmount(item.UnitPrice),
			strconv.Itoa(item.Stock),
			model.FormatAmount(item.Subtotal()),
		}
		if _, err := bw.WriteString(strings.Join(row, Delimiter) + "\n"); err != nil {
			return fmt.Errorf("write item %d: %w", item.ID, err)
		}
	}

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush export: %w", err)
	}

	return nil
}

// WriteFile writes the export of items to path, creating or truncating it.
// An empty item set fails before the file is touched.
func WriteFile(path string, items []model.Item) (err error) {
	data, err := Text(items)
	if err != nil {
		return err
	}

	f, err := os.Create(path)
	if err != nil {
		return &IOError{Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = &IOError{Path: path, Err: cerr}
		}
	}()

	if _, err := f.Write(data); err != nil {
		return &IOError{Path: path, Err: err}
	}

	return nil
}

// Parse reads exported text back into records.
func Parse(r io.Reader) ([]Record, error) {
	sc := bufio.NewScanner(r)

	if !sc.Scan() {
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, model.ErrEmptyExport
	}
	header := strings.Split(strings.TrimSuffix(sc.Text(), "\r"), Delimiter)
	if !slices.Equal(header, Header) {
		return nil, fmt.Errorf("%w: %q", ErrBadHeader, sc.Text())
	}

	records := make([]Record, 0)
	for line := 2; sc.Scan(); line++ {
		text := strings.TrimSuffix(sc.Text(), "\r")
		if text == "" {
			continue
		}

		rec, err := parseRow(strings.Split(text, Delimiter))
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrBadRecord, line, err)
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read records: %w", err)
	}

	return records, nil
}

func parseRow(row []string) (Record, error) {
	if len(row) != len(Header) {
		return Record{}, fmt.Errorf("got %d fields, want %d", len(row), len(Header))
	}

	id, err := strconv.ParseInt(row[0], 10, 64)
	if err != nil {
		return Record{}, fmt.Errorf("id: %w", err)
	}

	price, err := strconv.ParseFloat(row[3], 64)
	if err != nil {
		return Record{}, fmt.Errorf("precio: %w", err)
	}

	stock, err := strconv.Atoi(row[4])
	if err != nil {
		return Record{}, fmt.Errorf("stock: %w", err)
	}

	return Record{
		ID:        id,
		Name:      row[1],
		Category:  model.Category(row[2]),
		UnitPrice: price,
		Stock:     stock,
	}, nil
}
