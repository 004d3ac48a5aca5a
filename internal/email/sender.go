package email

import "errors"

// ErrSendFailed envuelve cualquier falla de entrega SMTP.
var ErrSendFailed = errors.New("email: send failed")

// Sender abstrae el transporte de salida. La implementación real es SMTP;
// los tests usan un fake.
type Sender interface {
	Send(to, subject, htmlBody, textBody string) error
}

// SMTPConfig contiene la configuración para conectarse a un servidor SMTP.
type SMTPConfig struct {
	Host      string `yaml:"host"`
	Port      int    `yaml:"port"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	FromEmail string `yaml:"from_email"`
	TLSMode   string `yaml:"tls_mode"` // "auto" | "starttls" | "ssl" | "none"
}
