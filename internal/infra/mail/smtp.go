package mail

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"mime"
	"net"
	"strconv"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"

	"github.com/Seedgta1/N8/internal/domain/outreach"
)

var ErrNoSender = errors.New("smtp: from address is required")

// Config SMTP relay
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Mailer mengirim email lewat SMTP relay
type Mailer struct {
	cfg Config
	now func() time.Time
}

func NewMailer(cfg Config) (*Mailer, error) {
	if cfg.From == "" {
		return nil, ErrNoSender
	}
	return &Mailer{cfg: cfg, now: time.Now}, nil
}

func (m *Mailer) addr() string {
	return net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
}

// Send implements outreach.Mailer
func (m *Mailer) Send(ctx context.Context, e outreach.Email) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth sasl.Client
	if m.cfg.Username != "" {
		auth = sasl.NewPlainClient("", m.cfg.Username, m.cfg.Password)
	}
	msg := m.render(e)
	if err := smtp.SendMail(m.addr(), auth, m.cfg.From, []string{e.To}, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", e.To, err)
	}
	return nil
}

// render builds a plain-text RFC 5322 message
func (m *Mailer) render(e outreach.Email) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.cfg.From)
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", m.now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("Content-Transfer-Encoding: 8bit\r\n\r\n")
	b.Write(bytes.ReplaceAll([]byte(e.Body), []byte("\n"), []byte("\r\n")))
	b.WriteString("\r\n")
	return b.Bytes()
}
