// Package storage destinos de los archivos de exportación (disco local, Google Cloud Storage).
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/jhoicas/Ventas-api/internal/application/export"
)

var (
	_ export.FileStore = (*Local)(nil)
	_ export.FileStore = (*GCS)(nil)
	_ export.FileStore = (*Gzip)(nil)
)

// Local escribe bajo un directorio raíz.
type Local struct {
	dir string
}

// NewLocal crea el directorio si no existe.
func NewLocal(dir string) (*Local, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("crear directorio de exportaciones: %w", err)
	}
	return &Local{dir: abs}, nil
}

func (s *Local) Create(_ context.Context, name string) (io.WriteCloser, string, error) {
	full := filepath.Join(s.dir, filepath.FromSlash(name))
	if !isWithin(s.dir, full) {
		return nil, "", fmt.Errorf("nombre de archivo inválido: %s", name)
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return nil, "", err
	}
	f, err := os.Create(full)
	if err != nil {
		return nil, "", err
	}
	return f, full, nil
}

// Remove borra un archivo generado por Create.
func (s *Local) Remove(_ context.Context, location string) error {
	if !isWithin(s.dir, location) {
		return fmt.Errorf("ubicación fuera del directorio: %s", location)
	}
	if err := os.Remove(location); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// Open abre un archivo generado previamente (descarga desde la API).
func (s *Local) Open(location string) (io.ReadCloser, error) {
	if !isWithin(s.dir, location) {
		return nil, os.ErrNotExist
	}
	return os.Open(location)
}

func isWithin(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil || filepath.IsAbs(rel) {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
