package storage

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/application/export"
	"github.com/jhoicas/Ventas-api/pkg/config"
)

// FromConfig elige GCS si hay bucket y disco local si no; con Gzip los CSV se comprimen.
// close libera el cliente de GCS (no hace nada en local).
func FromConfig(ctx context.Context, cfg config.ExportConfig, credentialsJSON string) (store export.FileStore, close func() error, err error) {
	close = func() error { return nil }
	if cfg.GCSBucket != "" {
		gcs, err := NewGCS(ctx, cfg.GCSBucket, credentialsJSON)
		if err != nil {
			return nil, nil, err
		}
		store, close = gcs, gcs.Close
	} else {
		local, err := NewLocal(cfg.Dir)
		if err != nil {
			return nil, nil, err
		}
		store = local
	}
	if cfg.Gzip {
		store = NewGzip(store, ".csv")
	}
	return store, close, nil
}
