package email

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sony/gobreaker"
	"gopkg.in/gomail.v2"

	"github.com/healthsync/healthsync-api/internal/config"
	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/pkg/logger"
)

// Sender delivers a notification. Delivery problems are reported in the
// result, never as a panic or error, so callers can ignore them.
type Sender interface {
	Send(ctx context.Context, n model.Notification) model.NotificationResult
}

var ErrNoRecipients = errors.New("notification has no recipients")

// NewSender returns an SMTP sender, or a log-only sender when no host
// is configured.
func NewSender(cfg config.MailConfig, log *logger.Logger) Sender {
	if cfg.Host == "" {
		return NewLogSender(log)
	}
	return NewSMTPSender(cfg, log)
}

type smtpSender struct {
	from    string
	breaker *gobreaker.CircuitBreaker
	deliver func(*gomail.Message) error
	log     *logger.Logger
}

func NewSMTPSender(cfg config.MailConfig, log *logger.Logger) Sender {
	dialer := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return newSMTPSender(cfg, dialer.DialAndSend, log)
}

func newSMTPSender(cfg config.MailConfig, deliver func(...*gomail.Message) error, log *logger.Logger) *smtpSender {
	maxFailures := cfg.BreakerMaxFailures
	if maxFailures == 0 {
		maxFailures = 5
	}
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    "smtp",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("mail circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
		},
	})
	return &smtpSender{
		from:    cfg.From,
		breaker: breaker,
		deliver: func(m *gomail.Message) error { return deliver(m) },
		log:     log,
	}
}

func (s *smtpSender) Send(ctx context.Context, n model.Notification) model.NotificationResult {
	if len(n.Recipients) == 0 {
		return failure(ErrNoRecipients)
	}
	if err := ctx.Err(); err != nil {
		return failure(err)
	}

	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", n.Recipients...)
	m.SetHeader("Subject", n.Subject)
	m.SetBody("text/plain", n.Body)

	_, err := s.breaker.Execute(func() (interface{}, error) {
		return nil, s.deliver(m)
	})
	if err != nil {
		s.log.Error(err, "failed to send email", "subject", n.Subject, "recipients", strings.Join(n.Recipients, ","))
		return failure(err)
	}
	return success(n)
}

type logSender struct {
	log *logger.Logger
}

// NewLogSender writes notifications to the log and reports success.
func NewLogSender(log *logger.Logger) Sender {
	return &logSender{log: log}
}

func (s *logSender) Send(_ context.Context, n model.Notification) model.NotificationResult {
	if len(n.Recipients) == 0 {
		return failure(ErrNoRecipients)
	}
	s.log.Info("email", "subject", n.Subject, "recipients", strings.Join(n.Recipients, ","), "body", n.Body)
	return success(n)
}

func success(n model.Notification) model.NotificationResult {
	return model.NotificationResult{
		Status:  model.NotificationStatusSuccess,
		Message: fmt.Sprintf("Email sent to %s", strings.Join(n.Recipients, ", ")),
	}
}

func failure(err error) model.NotificationResult {
	return model.NotificationResult{
		Status:  model.NotificationStatusFailure,
		Message: err.Error(),
	}
}
