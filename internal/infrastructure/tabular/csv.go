package tabular

import (
	"encoding/csv"
	"io"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/jhoicas/Ventas-api/internal/application/export"
)

// csvTable escribe UTF-8 con BOM para que Excel respete los acentos.
type csvTable struct {
	bom *transform.Writer
	cw  *csv.Writer
	buf []string
}

func newCSV(w io.Writer, headers []string) (*csvTable, error) {
	bom := transform.NewWriter(w, unicode.UTF8BOM.NewEncoder())
	t := &csvTable{bom: bom, cw: csv.NewWriter(bom)}
	if err := t.cw.Write(headers); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *csvTable) WriteRow(cells []any) error {
	t.buf = t.buf[:0]
	for _, c := range cells {
		t.buf = append(t.buf, export.FormatCell(c))
	}
	return t.cw.Write(t.buf)
}

func (t *csvTable) Close() error {
	t.cw.Flush()
	if err := t.cw.Error(); err != nil {
		return err
	}
	return t.bom.Close()
}
