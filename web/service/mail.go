package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/yamdb/yamdb/config"
	"github.com/yamdb/yamdb/logger"

	"github.com/goccy/go-json"
	"github.com/google/uuid"
	"github.com/wneessen/go-mail"
)

// Message is one outgoing plain text mail.
type Message struct {
	From    string    `json:"from"`
	To      string    `json:"to"`
	Subject string    `json:"subject"`
	Body    string    `json:"body"`
	SentAt  time.Time `json:"sent_at"`
}

type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// NewMailer builds the configured backend.
func NewMailer(cfg config.MailConfig) (Mailer, error) {
	switch cfg.Backend {
	case config.MailSMTP:
		if cfg.Host == "" {
			return nil, fmt.Errorf("smtp mail backend needs a host")
		}
		return &SMTPMailer{cfg: cfg}, nil
	case config.MailFile, "":
		return &FileMailer{Dir: cfg.Dir, From: cfg.From}, nil
	case config.MailLog:
		return &LogMailer{From: cfg.From}, nil
	}
	return nil, fmt.Errorf("unknown mail backend: %s", cfg.Backend)
}

type SMTPMailer struct {
	cfg config.MailConfig
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = m.cfg.From
	}
	out := mail.NewMsg()
	if err := out.From(msg.From); err != nil {
		return fmt.Errorf("mail from: %w", err)
	}
	if err := out.To(msg.To); err != nil {
		return fmt.Errorf("mail to: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(mail.TypeTextPlain, msg.Body)

	opts := []mail.Option{
		mail.WithPort(m.cfg.Port),
		mail.WithTLSPolicy(mail.TLSOpportunistic),
	}
	if m.cfg.Username != "" {
		opts = append(opts,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(m.cfg.Username),
			mail.WithPassword(m.cfg.Password),
		)
	}
	client, err := mail.NewClient(m.cfg.Host, opts...)
	if err != nil {
		return fmt.Errorf("smtp client: %w", err)
	}
	if err := client.DialAndSendWithContext(ctx, out); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

// FileMailer writes each message as a JSON file into Dir.
type FileMailer struct {
	Dir  string
	From string
}

func (m *FileMailer) Send(_ context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = m.From
	}
	if msg.SentAt.IsZero() {
		msg.SentAt = time.Now()
	}
	if err := os.MkdirAll(m.Dir, 0o750); err != nil {
		return fmt.Errorf("mail dir: %w", err)
	}
	data, err := json.MarshalIndent(msg, "", "  ")
	if err != nil {
		return err
	}
	name := fmt.Sprintf("%s-%s.json", msg.SentAt.UTC().Format("20060102-150405"), uuid.NewString())
	if err := os.WriteFile(filepath.Join(m.Dir, name), data, 0o640); err != nil {
		return fmt.Errorf("write mail: %w", err)
	}
	return nil
}

// LogMailer prints messages to the log instead of delivering them.
type LogMailer struct {
	From string
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	if msg.From == "" {
		msg.From = m.From
	}
	logger.Infof("mail from=%s to=%s subject=%q\n%s", msg.From, msg.To, msg.Subject, msg.Body)
	return nil
}

// MemoryMailer keeps messages in memory. Err, when set, fails every send.
type MemoryMailer struct {
	mu     sync.Mutex
	outbox []Message
	Err    error
}

func (m *MemoryMailer) Send(_ context.Context, msg Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.outbox = append(m.outbox, msg)
	return nil
}

func (m *MemoryMailer) Outbox() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Message(nil), m.outbox...)
}

// Last returns the most recent message sent to addr.
func (m *MemoryMailer) Last(addr string) (Message, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := len(m.outbox) - 1; i >= 0; i-- {
		if m.outbox[i].To == addr {
			return m.outbox[i], true
		}
	}
	return Message{}, false
}
