// Package mailer sends outreach email over SMTP.
package mailer

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/wneessen/go-mail"
	"go.uber.org/zap"
)

// Message is a single outbound email. Attachment, when set, is the path
// of a file attached to the message.
type Message struct {
	From       string
	To         string
	CC         []string
	Subject    string
	Body       string
	Attachment string
}

// Sender delivers messages for one SMTP identity.
type Sender interface {
	// Send delivers msg. The From address must belong to the identity
	// the sender was built for.
	Send(ctx context.Context, msg Message) error
}

type smtpSender struct {
	host     string
	port     int
	username string
	password string
}

// Option configures a Sender.
type Option func(*smtpSender)

// NewSender returns a Sender authenticating as username against host.
func NewSender(host string, port int, username, password string, opts ...Option) Sender {
	s := &smtpSender{
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *smtpSender) Send(ctx context.Context, msg Message) error {
	m := mail.NewMsg()
	if err := m.From(msg.From); err != nil {
		return eris.Wrapf(err, "mailer: invalid from address %q", msg.From)
	}
	if err := m.To(msg.To); err != nil {
		return eris.Wrapf(err, "mailer: invalid to address %q", msg.To)
	}
	if len(msg.CC) > 0 {
		if err := m.Cc(msg.CC...); err != nil {
			return eris.Wrap(err, "mailer: invalid cc address")
		}
	}
	m.Subject(msg.Subject)
	m.SetBodyString(mail.TypeTextPlain, msg.Body)
	m.AddAlternativeString(mail.TypeTextHTML, htmlBody(msg.Body))
	if msg.Attachment != "" {
		m.AttachFile(msg.Attachment)
	}

	client, err := mail.NewClient(s.host,
		mail.WithPort(s.port),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
		mail.WithUsername(s.username),
		mail.WithPassword(s.password),
		mail.WithTLSPolicy(mail.TLSMandatory),
	)
	if err != nil {
		return eris.Wrap(err, "mailer: create smtp client")
	}

	if err := client.DialAndSendWithContext(ctx, m); err != nil {
		return eris.Wrapf(err, "mailer: send to %s", msg.To)
	}

	zap.L().Info("email sent",
		zap.String("from", msg.From),
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject))
	return nil
}

// htmlBody renders a plain-text body as minimal HTML so clients that
// prefer the HTML part keep the paragraph breaks.
func htmlBody(plain string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for para := range strings.SplitSeq(plain, "\n\n") {
		b.WriteString("<p>")
		b.WriteString(strings.ReplaceAll(htmlEscape(para), "\n", "<br>"))
		b.WriteString("</p>")
	}
	b.WriteString("</body></html>")
	return b.String()
}

func htmlEscape(s string) string {
	r := strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")
	return r.Replace(s)
}
