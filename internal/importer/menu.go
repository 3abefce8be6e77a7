// Package importer reads menu items from spreadsheet exports.
package importer

import (
	"bufio"
	"encoding/csv"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/go-faster/errors"
	"github.com/klauspost/pgzip"
	"github.com/shopspring/decimal"

	"github.com/xenking/kasir/internal/domain/menu"
)

// Column names recognised in the header row.
const (
	colID              = "id"
	colName            = "name"
	colDescription     = "description"
	colPrice           = "price"
	colCategory        = "category"
	colImageURL        = "image_url"
	colAvailable       = "available"
	colPreparationTime = "preparation_time"
)

var requiredColumns = []string{colID, colName, colPrice}

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Result is the outcome of reading one file.
type Result struct {
	Items []menu.Item
	// Skipped counts malformed rows.
	Skipped int
}

// Open opens path for ReadMenu, transparently decompressing .gz files.
func Open(path string) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", path)
	}
	if !strings.HasSuffix(path, ".gz") {
		return f, nil
	}

	gz, err := pgzip.NewReader(f)
	if err != nil {
		_ = f.Close()
		return nil, errors.Wrapf(err, "create gzip reader for %s", path)
	}
	return &gzipFile{Reader: gz, file: f}, nil
}

type gzipFile struct {
	*pgzip.Reader
	file *os.File
}

func (g *gzipFile) Close() error {
	gzErr := g.Reader.Close()
	if err := g.file.Close(); err != nil {
		return err
	}
	return gzErr
}

// ReadMenu parses CSV menu rows. Columns are matched by header name in any
// order. Malformed rows are skipped and counted, never fatal.
func ReadMenu(r io.Reader) (Result, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.ReuseRecord = true

	header, err := cr.Read()
	if err != nil {
		return Result{}, errors.Wrap(err, "read header")
	}
	index := make(map[string]int, len(header))
	for i, name := range header {
		index[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, name := range requiredColumns {
		if _, ok := index[name]; !ok {
			return Result{}, errors.Wrap(ErrMissingColumn, name)
		}
	}

	var res Result
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			return res, nil
		}
		var parseErr *csv.ParseError
		if errors.As(err, &parseErr) {
			res.Skipped++
			continue
		}
		if err != nil {
			return res, errors.Wrap(err, "read row")
		}

		item, ok := parseRow(record, len(header), index)
		if !ok {
			res.Skipped++
			continue
		}
		res.Items = append(res.Items, item)
	}
}

func parseRow(record []string, width int, index map[string]int) (menu.Item, bool) {
	if len(record) != width {
		return menu.Item{}, false
	}
	field := func(name string) string {
		if i, ok := index[name]; ok {
			return strings.TrimSpace(record[i])
		}
		return ""
	}

	item := menu.Item{
		ID:          field(colID),
		Name:        field(colName),
		Description: field(colDescription),
		Category:    field(colCategory),
		ImageURL:    field(colImageURL),
		Available:   true,
	}

	price, err := decimal.NewFromString(field(colPrice))
	if err != nil || !price.Equal(price.Round(2)) {
		return menu.Item{}, false
	}
	item.Price = price

	if v := field(colAvailable); v != "" {
		if item.Available, err = strconv.ParseBool(v); err != nil {
			return menu.Item{}, false
		}
	}
	if v := field(colPreparationTime); v != "" {
		if item.PreparationTime, err = strconv.Atoi(v); err != nil || item.PreparationTime < 0 {
			return menu.Item{}, false
		}
	}

	if item.Validate() != nil {
		return menu.Item{}, false
	}
	return item, true
}
