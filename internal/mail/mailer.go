package mail

import (
	"gopkg.in/gomail.v2"

	"github.com/murmurchat/murmur/internal/config"
	"github.com/murmurchat/murmur/internal/logger"
)

var log = logger.New("mail")

// Dispatcher sends transactional email over SMTP. With no host
// configured it becomes a no-op so local setups need no mail server.
type Dispatcher struct {
	dialer *gomail.Dialer
	from   string
}

// NewDispatcher builds a dispatcher from SMTP settings.
func NewDispatcher(cfg config.SMTPConfig) *Dispatcher {
	d := &Dispatcher{from: cfg.From}
	if cfg.Enabled() {
		d.dialer = gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	}
	return d
}

// Send delivers a single HTML email. Callers on the request path should
// treat failures as log-only; mail never blocks an API response.
func (d *Dispatcher) Send(to, subject, htmlBody string) error {
	if d.dialer == nil {
		log.Debug("SMTP not configured, dropping mail to %s (%s)", to, subject)
		return nil
	}

	m := gomail.NewMessage()
	m.SetHeader("From", d.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	return d.dialer.DialAndSend(m)
}

// SendAsync fires Send on a goroutine and logs any failure.
func (d *Dispatcher) SendAsync(to, subject, htmlBody string) {
	go func() {
		if err := d.Send(to, subject, htmlBody); err != nil {
			log.Error("Failed to send mail to %s: %v", to, err)
		}
	}()
}
