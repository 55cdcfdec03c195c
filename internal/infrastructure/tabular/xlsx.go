package tabular

import (
	"io"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const sheet = "Sheet1"

// xlsxTable usa el StreamWriter de excelize; el libro se serializa en Close.
type xlsxTable struct {
	w   io.Writer
	f   *excelize.File
	sw  *excelize.StreamWriter
	row int
}

func newXLSX(w io.Writer, headers []string) (*xlsxTable, error) {
	f := excelize.NewFile()
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}
	head := make([]interface{}, len(headers))
	for i, h := range headers {
		head[i] = excelize.Cell{StyleID: bold, Value: h}
	}
	if err := sw.SetRow("A1", head); err != nil {
		_ = f.Close()
		return nil, err
	}
	return &xlsxTable{w: w, f: f, sw: sw, row: 1}, nil
}

func (t *xlsxTable) WriteRow(cells []any) error {
	t.row++
	cell, err := excelize.CoordinatesToCellName(1, t.row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		// los montos van como número para que la hoja pueda sumarlos
		if d, ok := c.(decimal.Decimal); ok {
			values[i] = d.Round(2).InexactFloat64()
			continue
		}
		values[i] = c
	}
	return t.sw.SetRow(cell, values)
}

func (t *xlsxTable) Close() error {
	defer t.f.Close()
	if err := t.sw.Flush(); err != nil {
		return err
	}
	return t.f.Write(t.w)
}
