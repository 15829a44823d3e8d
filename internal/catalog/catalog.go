package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
)

// Catalog is a column-oriented table of float64 values read from a CSV
// file. Columns keep the header order; rows keep file order, so a record's
// index is stable across the catalog's lifetime.
type Catalog struct {
	names   []string
	columns map[string][]float64
	n       int
}

// Load reads a catalog from a CSV file with a header row.
//
// Every data cell must parse as a float64; the first offending cell is
// reported with its row and column. An empty table (header only, or no
// header at all) is a valid catalog with zero records.
func Load(path string) (*Catalog, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse catalog %s: %w", path, err)
	}
	if len(records) == 0 {
		return &Catalog{columns: map[string][]float64{}}, nil
	}

	header := records[0]
	columns := make(map[string][]float64, len(header))
	for _, name := range header {
		if _, dup := columns[name]; dup {
			return nil, fmt.Errorf("catalog %s: duplicate column %q", path, name)
		}
		columns[name] = make([]float64, 0, len(records)-1)
	}

	for ri, record := range records[1:] {
		if len(record) != len(header) {
			return nil, fmt.Errorf("catalog %s: row %d has %d cells, want %d", path, ri+2, len(record), len(header))
		}
		for ci, cell := range record {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("catalog %s: row %d column %q: %w", path, ri+2, header[ci], err)
			}
			columns[header[ci]] = append(columns[header[ci]], v)
		}
	}

	return &Catalog{
		names:   append([]string(nil), header...),
		columns: columns,
		n:       len(records) - 1,
	}, nil
}

// FromColumns builds a catalog in memory. Columns must share one length;
// names sets the column order.
func FromColumns(names []string, columns map[string][]float64) (*Catalog, error) {
	n := -1
	for _, name := range names {
		col, ok := columns[name]
		if !ok {
			return nil, fmt.Errorf("catalog: missing column %q", name)
		}
		if n == -1 {
			n = len(col)
		} else if len(col) != n {
			return nil, fmt.Errorf("catalog: column %q has %d rows, want %d", name, len(col), n)
		}
	}
	if n == -1 {
		n = 0
	}
	return &Catalog{
		names:   append([]string(nil), names...),
		columns: columns,
		n:       n,
	}, nil
}

// Len returns the number of records.
func (c *Catalog) Len() int { return c.n }

// Columns returns the column names in header order.
func (c *Catalog) Columns() []string {
	return append([]string(nil), c.names...)
}

// Column returns the values of one column. The returned slice is the
// catalog's backing storage; callers must not modify it.
func (c *Catalog) Column(name string) ([]float64, error) {
	col, ok := c.columns[name]
	if !ok {
		return nil, fmt.Errorf("catalog: no column %q", name)
	}
	return col, nil
}

// PositionView exposes two catalog columns as 2D positions, for matching
// against detected peaks.
type PositionView struct {
	x, y []float64
}

// View selects the position columns of the catalog by name.
func (c *Catalog) View(xKey, yKey string) (*PositionView, error) {
	x, err := c.Column(xKey)
	if err != nil {
		return nil, err
	}
	y, err := c.Column(yKey)
	if err != nil {
		return nil, err
	}
	return &PositionView{x: x, y: y}, nil
}

// Len returns the number of records.
func (v *PositionView) Len() int { return len(v.x) }

// Position returns the (x, y) position of record i.
func (v *PositionView) Position(i int) (x, y float64) {
	return v.x[i], v.y[i]
}
