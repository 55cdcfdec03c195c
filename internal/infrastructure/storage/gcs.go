package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"mime"
	"path"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"
)

// GCS sube los archivos a un bucket de Google Cloud Storage.
type GCS struct {
	client *storage.Client
	bucket string
}

// NewGCS conecta con credenciales por defecto o con credentialsJSON si viene.
func NewGCS(ctx context.Context, bucket, credentialsJSON string) (*GCS, error) {
	var opts []option.ClientOption
	if credentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(credentialsJSON)))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs client: %w", err)
	}
	return &GCS{client: client, bucket: bucket}, nil
}

// Create abre la escritura del objeto; el objeto se confirma en Close.
func (s *GCS) Create(ctx context.Context, name string) (io.WriteCloser, string, error) {
	wc := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	if ct := mime.TypeByExtension(path.Ext(name)); ct != "" {
		wc.ContentType = ct
	}
	return wc, fmt.Sprintf("gs://%s/%s", s.bucket, name), nil
}

// Remove borra el objeto; acepta la ubicación gs:// que devolvió Create.
func (s *GCS) Remove(ctx context.Context, location string) error {
	name, ok := strings.CutPrefix(location, "gs://"+s.bucket+"/")
	if !ok {
		return fmt.Errorf("ubicación fuera del bucket %s: %s", s.bucket, location)
	}
	err := s.client.Bucket(s.bucket).Object(name).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs delete: %w", err)
	}
	return nil
}

func (s *GCS) Close() error {
	return s.client.Close()
}
