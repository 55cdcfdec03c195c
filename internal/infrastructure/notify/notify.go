// Package notify canales de aviso de mejor esfuerzo.
package notify

import (
	"context"
	"strings"

	"github.com/jhoicas/Ventas-api/internal/application/ports"
	"github.com/jhoicas/Ventas-api/pkg/logger"
)

var (
	_ ports.Notifier = (*LogNotifier)(nil)
	_ ports.Mailer   = (*LogMailer)(nil)
)

// LogNotifier deja los avisos internos en el log estructurado.
type LogNotifier struct {
	log *logger.Logger
}

func NewLogNotifier(log *logger.Logger) *LogNotifier { return &LogNotifier{log: log} }

func (n *LogNotifier) Send(_ context.Context, companyID, message string) error {
	n.log.Tenant(companyID).Info().Str("channel", "notification").Msg(message)
	return nil
}

// LogMailer registra el correo sin enviarlo; sirve en desarrollo y como valor por defecto.
type LogMailer struct {
	log *logger.Logger
}

func NewLogMailer(log *logger.Logger) *LogMailer { return &LogMailer{log: log} }

func (m *LogMailer) SendEmail(_ context.Context, to, subject, html string) error {
	if strings.TrimSpace(to) == "" {
		return nil
	}
	m.log.Info().Str("to", to).Str("subject", subject).Int("bytes", len(html)).Msg("correo registrado")
	return nil
}
