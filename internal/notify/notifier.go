package notify

import (
	"context"
	"fmt"
	"net"
	"net/smtp"
	"strconv"
	"strings"

	"github.com/markdown-blog-api/internal/config"
	"github.com/markdown-blog-api/internal/models"
	"github.com/rs/zerolog"
)

// Message is a single plain-text email
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers messages to subscribers
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// New picks the SMTP transport when a host is configured, otherwise the log transport
func New(cfg *config.MailConfig, log zerolog.Logger) Notifier {
	if cfg.SMTPHost == "" {
		log.Warn().Msg("SMTP_HOST not set, notifications will only be logged")
		return NewLogNotifier(log)
	}
	return NewSMTPNotifier(cfg)
}

// NewPostMessage builds the announcement sent to one subscriber
func NewPostMessage(post *models.Post, to, siteURL string) Message {
	link := strings.TrimRight(siteURL, "/") + "/viewer?id=" + post.ID

	var b strings.Builder
	fmt.Fprintf(&b, "A new post was published: %s\n", post.Title)
	if post.Author != "" {
		fmt.Fprintf(&b, "by %s\n", post.Author)
	}
	fmt.Fprintf(&b, "\nRead it here: %s\n", link)

	return Message{
		To:      to,
		Subject: "New post: " + post.Title,
		Body:    b.String(),
	}
}

// SMTPNotifier sends mail through an SMTP relay
type SMTPNotifier struct {
	addr string
	auth smtp.Auth
	from string
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// NewSMTPNotifier creates an SMTP notifier. Auth is only used when a user is configured.
func NewSMTPNotifier(cfg *config.MailConfig) *SMTPNotifier {
	n := &SMTPNotifier{
		addr: net.JoinHostPort(cfg.SMTPHost, strconv.Itoa(cfg.SMTPPort)),
		from: cfg.From,
		send: smtp.SendMail,
	}
	if cfg.SMTPUser != "" {
		n.auth = smtp.PlainAuth("", cfg.SMTPUser, cfg.SMTPPassword, cfg.SMTPHost)
	}
	return n
}

// Send delivers msg. smtp.SendMail has no context support; ctx is only checked up front.
func (n *SMTPNotifier) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if err := n.send(n.addr, n.auth, n.from, []string{msg.To}, formatMessage(n.from, msg)); err != nil {
		return fmt.Errorf("failed to send mail to %s: %w", msg.To, err)
	}
	return nil
}

func formatMessage(from string, msg Message) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + msg.To + "\r\n")
	b.WriteString("Subject: " + sanitizeHeader(msg.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return []byte(b.String())
}

func sanitizeHeader(v string) string {
	return strings.NewReplacer("\r", " ", "\n", " ").Replace(v)
}

// LogNotifier writes messages to the log instead of sending them
type LogNotifier struct {
	log zerolog.Logger
}

// NewLogNotifier creates a notifier that only logs
func NewLogNotifier(log zerolog.Logger) *LogNotifier {
	return &LogNotifier{log: log.With().Str("component", "notifier").Logger()}
}

func (n *LogNotifier) Send(ctx context.Context, msg Message) error {
	n.log.Info().Str("to", msg.To).Str("subject", msg.Subject).Msg("Notification (not sent, SMTP disabled)")
	return nil
}
