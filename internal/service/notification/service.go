package notification

import (
	"context"
	"errors"
	"fmt"

	"github.com/healthsync/healthsync-api/internal/email"
	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/pkg/messaging"
	"github.com/healthsync/healthsync-api/pkg/metrics"
)

// Domain events published after committed writes.
const (
	EventBookingCreated = "booking.created"
	EventBookingUpdated = "booking.updated"
	EventBookingDeleted = "booking.deleted"
	EventPatientCreated = "patient.created"
	EventPatientDeleted = "patient.deleted"
	EventDoctorCreated  = "doctor.created"
	EventUserRegistered = "authentication.registered"
)

// ErrSkip tells the service that a message builder had nothing to send,
// e.g. the user has no authentication record.
var ErrSkip = errors.New("notification skipped")

// Builder resolves recipients and renders a message inside a hook.
type Builder func(ctx context.Context) (model.Notification, error)

type Service interface {
	// Email schedules a notification built lazily after commit.
	Email(ctx context.Context, hook string, build Builder)
	// Publish schedules a domain event.
	Publish(ctx context.Context, eventType string, payload interface{})
}

type service struct {
	sender     email.Sender
	broker     messaging.Broker
	dispatcher *Dispatcher
	metrics    *metrics.Metrics
}

func NewService(sender email.Sender, broker messaging.Broker, dispatcher *Dispatcher, m *metrics.Metrics) Service {
	if broker == nil {
		broker = messaging.NopBroker{}
	}
	return &service{
		sender:     sender,
		broker:     broker,
		dispatcher: dispatcher,
		metrics:    m,
	}
}

func (s *service) Email(ctx context.Context, hook string, build Builder) {
	s.dispatcher.Dispatch(ctx, hook, func(ctx context.Context) error {
		n, err := build(ctx)
		if errors.Is(err, ErrSkip) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to build notification: %w", err)
		}
		res := s.sender.Send(ctx, n)
		s.metrics.NotificationsSent.WithLabelValues(string(res.Status)).Inc()
		if res.Status != model.NotificationStatusSuccess {
			return fmt.Errorf("notification %q not delivered: %s", n.Subject, res.Message)
		}
		return nil
	})
}

func (s *service) Publish(ctx context.Context, eventType string, payload interface{}) {
	event := messaging.NewEvent(eventType, payload)
	s.dispatcher.Dispatch(ctx, "publish:"+eventType, func(ctx context.Context) error {
		return s.broker.Publish(ctx, eventType, event)
	})
}
