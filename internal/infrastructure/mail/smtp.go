package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	netmail "net/mail"
	"net/smtp"
	"strconv"
	"time"

	"github.com/jordan-wright/email"

	"PublicationsMonitor/internal/domain"
	"PublicationsMonitor/internal/ports"
)

const defaultTimeout = 30 * time.Second

// Config describes the SMTP relay and the envelope.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	To       []string
	// Timeout bounds the whole SMTP exchange, dial included.
	Timeout time.Duration
}

type deliverFunc func(ctx context.Context, addr string, auth smtp.Auth, e *email.Email) error

// SMTPSender delivers notifications as multipart HTML mail.
type SMTPSender struct {
	cfg     Config
	deliver deliverFunc
}

var _ ports.Sender = (*SMTPSender)(nil)

// NewSMTPSender fills From and Username from each other when one is missing.
func NewSMTPSender(cfg Config) *SMTPSender {
	if cfg.From == "" {
		cfg.From = cfg.Username
	}
	if cfg.Username == "" {
		cfg.Username = cfg.From
	}
	if cfg.Port == 0 {
		cfg.Port = 587
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	s := &SMTPSender{cfg: cfg}
	s.deliver = s.dialAndSend
	return s
}

// Name identifies the channel in logs.
func (s *SMTPSender) Name() string {
	return "smtp"
}

// Send builds the message and hands it to the relay.
func (s *SMTPSender) Send(ctx context.Context, msg domain.Message) error {
	if s.cfg.Host == "" || len(s.cfg.To) == 0 || s.cfg.From == "" {
		return fmt.Errorf("smtp sender misconfigured")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	e := email.NewEmail()
	e.From = s.cfg.From
	e.To = s.cfg.To
	e.Subject = msg.Subject
	e.HTML = []byte(msg.HTML)
	e.Text = []byte(msg.Text)

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))
	auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
	if err := s.deliver(ctx, addr, auth, e); err != nil {
		return fmt.Errorf("send mail via %s: %w", addr, err)
	}
	return nil
}

// dialAndSend runs the SMTP exchange over a connection whose deadline is the
// configured timeout or the context deadline, whichever comes first.
func (s *SMTPSender) dialAndSend(ctx context.Context, addr string, auth smtp.Auth, e *email.Email) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	raw, err := e.Bytes()
	if err != nil {
		return fmt.Errorf("build message: %w", err)
	}

	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	if deadline, ok := ctx.Deadline(); ok {
		if err := conn.SetDeadline(deadline); err != nil {
			conn.Close()
			return fmt.Errorf("set deadline: %w", err)
		}
	}

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("greeting: %w", err)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host}); err != nil {
			return fmt.Errorf("starttls: %w", err)
		}
	}
	if auth != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(auth); err != nil {
				return fmt.Errorf("auth: %w", err)
			}
		}
	}

	from, err := netmail.ParseAddress(e.From)
	if err != nil {
		return fmt.Errorf("parse sender: %w", err)
	}
	if err := c.Mail(from.Address); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	for _, rcpt := range e.To {
		if err := c.Rcpt(rcpt); err != nil {
			return fmt.Errorf("rcpt %s: %w", rcpt, err)
		}
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("data: %w", err)
	}
	if _, err := w.Write(raw); err != nil {
		return fmt.Errorf("write message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("end data: %w", err)
	}
	return c.Quit()
}
