package email

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/gomail.v2"

	"github.com/healthsync/healthsync-api/internal/config"
	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/pkg/logger"
)

func testNotification() model.Notification {
	return model.Notification{
		Subject:    "Your Appointment is Confirmed",
		Body:       "Dear Ali,",
		Recipients: []string{"ali@example.com"},
	}
}

func TestSMTPSender_Success(t *testing.T) {
	var sent []*gomail.Message
	s := newSMTPSender(config.MailConfig{From: "from@example.com"}, func(m ...*gomail.Message) error {
		sent = append(sent, m...)
		return nil
	}, logger.Nop())

	res := s.Send(context.Background(), testNotification())

	assert.Equal(t, model.NotificationStatusSuccess, res.Status)
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"Your Appointment is Confirmed"}, sent[0].GetHeader("Subject"))
	assert.Equal(t, []string{"from@example.com"}, sent[0].GetHeader("From"))
}

func TestSMTPSender_BreakerOpens(t *testing.T) {
	calls := 0
	s := newSMTPSender(config.MailConfig{BreakerMaxFailures: 2, BreakerTimeout: time.Minute}, func(...*gomail.Message) error {
		calls++
		return errors.New("connection refused")
	}, logger.Nop())

	for i := 0; i < 4; i++ {
		res := s.Send(context.Background(), testNotification())
		assert.Equal(t, model.NotificationStatusFailure, res.Status)
	}
	assert.Equal(t, 2, calls)
}

func TestSMTPSender_CancelledContext(t *testing.T) {
	s := newSMTPSender(config.MailConfig{}, func(...*gomail.Message) error {
		t.Fatal("must not deliver")
		return nil
	}, logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	res := s.Send(ctx, testNotification())
	assert.Equal(t, model.NotificationStatusFailure, res.Status)
}

func TestLogSender(t *testing.T) {
	s := NewSender(config.MailConfig{}, logger.Nop())

	res := s.Send(context.Background(), testNotification())
	assert.Equal(t, model.NotificationStatusSuccess, res.Status)

	res = s.Send(context.Background(), model.Notification{Subject: "x"})
	assert.Equal(t, model.NotificationStatusFailure, res.Status)
	assert.Equal(t, ErrNoRecipients.Error(), res.Message)
}
