// Package ports define los contratos que la capa de aplicación exige a la infraestructura.
package ports

import (
	"context"

	"github.com/jhoicas/Ventas-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción de BD, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback; si no, Commit.
type TxRunner interface {
	Run(ctx context.Context, fn func(r repository.TxRepos) error) error
}

// Notifier avisos internos (stock bajo, documento creado). Mejor esfuerzo.
type Notifier interface {
	Send(ctx context.Context, companyID, message string) error
}

// Mailer envío de correo. Mejor esfuerzo: un fallo se registra y no revierte nada.
type Mailer interface {
	SendEmail(ctx context.Context, to, subject, html string) error
}
