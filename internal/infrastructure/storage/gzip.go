package storage

import (
	"context"
	"io"
	"os"
	"strings"

	"github.com/klauspost/compress/gzip"

	"github.com/jhoicas/Ventas-api/internal/application/export"
)

// Gzip comprime los archivos cuya extensión esté en exts (p. ej. ".csv") antes de
// entregarlos a inner; el nombre final lleva ".gz".
type Gzip struct {
	inner export.FileStore
	exts  []string
}

// NewGzip envuelve inner.
func NewGzip(inner export.FileStore, exts ...string) *Gzip {
	return &Gzip{inner: inner, exts: exts}
}

func (s *Gzip) Create(ctx context.Context, name string) (io.WriteCloser, string, error) {
	if !s.matches(name) {
		return s.inner.Create(ctx, name)
	}
	wc, location, err := s.inner.Create(ctx, name+".gz")
	if err != nil {
		return nil, "", err
	}
	zw, err := gzip.NewWriterLevel(wc, gzip.BestSpeed)
	if err != nil {
		_ = wc.Close()
		return nil, "", err
	}
	return &gzipFile{zw: zw, dst: wc}, location, nil
}

// Remove delega en inner: location ya es la del archivo comprimido.
func (s *Gzip) Remove(ctx context.Context, location string) error {
	return s.inner.Remove(ctx, location)
}

// Open delega en inner cuando este permite leer (almacenamiento local).
func (s *Gzip) Open(location string) (io.ReadCloser, error) {
	if o, ok := s.inner.(interface {
		Open(string) (io.ReadCloser, error)
	}); ok {
		return o.Open(location)
	}
	return nil, os.ErrNotExist
}

func (s *Gzip) matches(name string) bool {
	for _, ext := range s.exts {
		if strings.HasSuffix(strings.ToLower(name), ext) {
			return true
		}
	}
	return false
}

type gzipFile struct {
	zw  *gzip.Writer
	dst io.WriteCloser
}

func (f *gzipFile) Write(p []byte) (int, error) { return f.zw.Write(p) }

func (f *gzipFile) Close() error {
	err := f.zw.Close()
	if cerr := f.dst.Close(); err == nil {
		err = cerr
	}
	return err
}
