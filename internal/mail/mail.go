// Package mail composes and sends the studio's transactional email.
package mail

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"mime"
	"mime/multipart"
	"net"
	"net/textproto"
	"strings"
	"time"

	"github.com/emersion/go-sasl"
	"github.com/emersion/go-smtp"
	"github.com/google/uuid"
)

// Message is an email with a plain text and an optional HTML body.
type Message struct {
	To      []string
	ReplyTo string
	Subject string
	Text    string
	HTML    string
}

// Sender delivers messages.
type Sender interface {
	Send(ctx context.Context, m Message) error
}

// SMTP sends mail through an SMTP relay. The relay must offer STARTTLS.
type SMTP struct {
	Addr     string
	Username string
	Password string
	From     string
}

// Send delivers m through the relay. The dial and the whole session are
// bounded by ctx.
func (s *SMTP) Send(ctx context.Context, m Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if len(m.To) == 0 {
		return fmt.Errorf("sending mail: no recipients")
	}

	body, err := compose(s.From, m, time.Now())
	if err != nil {
		return err
	}

	if err := s.deliver(ctx, m.To, body); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			err = ctxErr
		}
		return fmt.Errorf("sending mail to %s: %w", strings.Join(m.To, ", "), err)
	}
	return nil
}

func (s *SMTP) deliver(ctx context.Context, to []string, body []byte) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", s.Addr)
	if err != nil {
		return err
	}
	// The client resets connection deadlines per command, so cancellation
	// closes the connection instead.
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	host, _, err := net.SplitHostPort(s.Addr)
	if err != nil {
		host = s.Addr
	}
	c, err := smtp.NewClientStartTLS(conn, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}
	defer c.Close()
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline)
		c.CommandTimeout = remaining
		c.SubmissionTimeout = remaining
	}

	if s.Username != "" {
		if err := c.Auth(sasl.NewLoginClient(s.Username, s.Password)); err != nil {
			return err
		}
	}
	if err := c.SendMail(envelopeAddress(s.From), to, bytes.NewReader(body)); err != nil {
		return err
	}
	return c.Quit()
}

// LogSender writes messages to the log instead of sending them. It is used
// when no SMTP host is configured.
type LogSender struct{}

// Send logs m at info level.
func (LogSender) Send(_ context.Context, m Message) error {
	slog.Info("mail not sent, no smtp host configured",
		"to", strings.Join(m.To, ", "), "subject", m.Subject, "body", m.Text)
	return nil
}

// envelopeAddress extracts the bare address from a "Name <addr>" header value.
func envelopeAddress(from string) string {
	if i := strings.LastIndex(from, "<"); i >= 0 {
		return strings.TrimSuffix(from[i+1:], ">")
	}
	return from
}

// compose renders m as a MIME message. With an HTML body the message is
// multipart/alternative, otherwise plain text.
func compose(from string, m Message, date time.Time) ([]byte, error) {
	var buf bytes.Buffer

	header := func(k, v string) {
		fmt.Fprintf(&buf, "%s: %s\r\n", k, v)
	}
	header("From", from)
	header("To", strings.Join(m.To, ", "))
	if m.ReplyTo != "" {
		header("Reply-To", m.ReplyTo)
	}
	header("Subject", mime.QEncoding.Encode("utf-8", m.Subject))
	header("Date", date.Format(time.RFC1123Z))
	header("Message-ID", fmt.Sprintf("<%s@%s>", uuid.NewString(), domainOf(envelopeAddress(from))))
	header("MIME-Version", "1.0")

	if m.HTML == "" {
		header("Content-Type", `text/plain; charset="utf-8"`)
		header("Content-Transfer-Encoding", "8bit")
		buf.WriteString("\r\n")
		buf.WriteString(m.Text)
		return buf.Bytes(), nil
	}

	mw := multipart.NewWriter(&buf)
	header("Content-Type", fmt.Sprintf(`multipart/alternative; boundary="%s"`, mw.Boundary()))
	buf.WriteString("\r\n")

	parts := []struct{ typ, body string }{
		{"text/plain", m.Text},
		{"text/html", m.HTML},
	}
	for _, p := range parts {
		w, err := mw.CreatePart(textproto.MIMEHeader{
			"Content-Type":              {p.typ + `; charset="utf-8"`},
			"Content-Transfer-Encoding": {"8bit"},
		})
		if err != nil {
			return nil, fmt.Errorf("composing mail: %w", err)
		}
		if _, err := w.Write([]byte(p.body)); err != nil {
			return nil, fmt.Errorf("composing mail: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return nil, fmt.Errorf("composing mail: %w", err)
	}
	return buf.Bytes(), nil
}

func domainOf(addr string) string {
	if i := strings.LastIndex(addr, "@"); i >= 0 {
		return addr[i+1:]
	}
	return "localhost"
}
