package mail

import (
	"context"
	"fmt"
	"html"
	"log/slog"
	"mime"
	"net/smtp"
	"strings"
)

type Config struct {
	Host     string // SMTP_HOST, e.g. smtp.gmail.com
	Port     string // SMTP_PORT, 默认 587
	Username string // SMTP_USERNAME
	Password string // SMTP_PASSWORD
	From     string // SMTP_FROM, 为空时回退 Username
	AppName  string // APP_NAME
}

// Configured reports whether real delivery is possible.
func (c Config) Configured() bool {
	return c.Host != "" && (c.Username != "" || c.From != "")
}

type sendFunc func(addr string, a smtp.Auth, from string, to []string, msg []byte) error

// Mailer sends plain notifications over SMTP. Without SMTP settings it runs
// in dev mode and only logs what it would have sent.
type Mailer struct {
	conf Config
	log  *slog.Logger
	send sendFunc
}

func New(conf Config, log *slog.Logger) *Mailer {
	if log == nil {
		log = slog.Default()
	}
	if conf.Port == "" {
		conf.Port = "587"
	}
	if conf.AppName == "" {
		conf.AppName = "IT Lend"
	}
	return &Mailer{conf: conf, log: log, send: smtp.SendMail}
}

func (m *Mailer) Send(ctx context.Context, to, subject, body string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	to = strings.TrimSpace(to)
	if to == "" {
		return fmt.Errorf("mail: empty recipient")
	}

	// 未配置 SMTP → 开发模式：打印即可，不报错
	if !m.conf.Configured() {
		m.log.Info("[DEV] mail not sent, SMTP not configured", "to", to, "subject", subject, "body", body)
		return nil
	}

	fromAddr := m.conf.From
	if fromAddr == "" {
		fromAddr = m.conf.Username
	}
	msg := buildMIMEWithFromName(m.conf.AppName, fromAddr, to, subject, htmlBody(body))

	auth := smtp.PlainAuth("", m.conf.Username, m.conf.Password, m.conf.Host)
	addr := m.conf.Host + ":" + m.conf.Port
	if err := m.send(addr, auth, fromAddr, []string{to}, []byte(msg)); err != nil {
		return fmt.Errorf("mail: send to %s: %w", to, err)
	}
	return nil
}

func htmlBody(text string) string {
	var b strings.Builder
	b.WriteString(`<div style="font-family:Arial,sans-serif; font-size:14px; color:#222">`)
	for _, line := range strings.Split(text, "\n") {
		b.WriteString("<p>")
		b.WriteString(html.EscapeString(line))
		b.WriteString("</p>")
	}
	b.WriteString("</div>")
	return b.String()
}

func buildMIMEWithFromName(fromName, fromAddr, to, subject, html string) string {
	headers := []string{
		fmt.Sprintf("From: %s <%s>", fromName, fromAddr),
		fmt.Sprintf("To: %s", to),
		fmt.Sprintf("Subject: %s", mime.QEncoding.Encode("UTF-8", subject)),
		"MIME-Version: 1.0",
		"Content-Type: text/html; charset=UTF-8",
	}
	return strings.Join(headers, "\r\n") + "\r\n\r\n" + html
}
