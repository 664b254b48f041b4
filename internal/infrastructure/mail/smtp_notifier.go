// Package mail implementa el puerto de notificaciones sobre SMTP.
package mail

import (
	"fmt"

	"github.com/tu-usuario/pos-backoffice/internal/application/sales"
	"github.com/tu-usuario/pos-backoffice/pkg/config"
	gomail "gopkg.in/gomail.v2"
)

var _ sales.NotificationPort = (*SMTPNotifier)(nil)

// SMTPNotifier envía notificaciones por correo usando gomail.
// Las fallas de envío las registra el caller; aquí solo se reportan.
type SMTPNotifier struct {
	dialer *gomail.Dialer
	from   string
}

// NewSMTPNotifier construye el notificador desde la configuración SMTP.
func NewSMTPNotifier(cfg config.SMTPConfig) *SMTPNotifier {
	return &SMTPNotifier{
		dialer: gomail.NewDialer(cfg.Host, cfg.Port, cfg.User, cfg.Password),
		from:   cfg.From,
	}
}

// Send envía una notificación de texto plano.
func (n *SMTPNotifier) Send(notification sales.Notification) error {
	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", notification.To)
	m.SetHeader("Subject", notification.Subject)
	m.SetBody("text/plain", notification.Body)

	if err := n.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("enviar correo a %s: %w", notification.To, err)
	}
	return nil
}
