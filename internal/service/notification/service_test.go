package notification

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/healthsync/healthsync-api/internal/config"
	"github.com/healthsync/healthsync-api/internal/mocks"
	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/pkg/logger"
	"github.com/healthsync/healthsync-api/pkg/metrics"
)

func newSyncService(t *testing.T) (Service, *mocks.Sender, *mocks.Broker, *metrics.Metrics) {
	t.Helper()
	m := metrics.NewNop()
	d := NewDispatcher(config.NotificationConfig{Async: false, Timeout: time.Second}, logger.Nop(), m)
	sender := &mocks.Sender{}
	broker := &mocks.Broker{}
	return NewService(sender, broker, d, m), sender, broker, m
}

func TestDispatcher_IsolatesFailures(t *testing.T) {
	m := metrics.NewNop()
	d := NewDispatcher(config.NotificationConfig{}, logger.Nop(), m)

	assert.NotPanics(t, func() {
		d.Dispatch(context.Background(), "boom", func(context.Context) error { panic("broken") })
	})
	d.Dispatch(context.Background(), "fail", func(context.Context) error { return errors.New("down") })
	d.Dispatch(context.Background(), "ok", func(context.Context) error { return nil })

	assert.Equal(t, 1.0, metrics.CounterValue(m.HookRuns.WithLabelValues("boom", outcomePanic)))
	assert.Equal(t, 1.0, metrics.CounterValue(m.HookRuns.WithLabelValues("fail", outcomeError)))
	assert.Equal(t, 1.0, metrics.CounterValue(m.HookRuns.WithLabelValues("ok", outcomeOK)))
}

func TestDispatcher_AsyncDetachedFromRequest(t *testing.T) {
	d := NewDispatcher(config.NotificationConfig{Async: true, Timeout: time.Second}, logger.Nop(), metrics.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	var sawErr atomic.Value
	release := make(chan struct{})
	d.Dispatch(ctx, "slow", func(ctx context.Context) error {
		<-release
		sawErr.Store(ctx.Err() == nil)
		return nil
	})
	cancel()
	close(release)

	waitCtx, waitCancel := context.WithTimeout(context.Background(), time.Second)
	defer waitCancel()
	require.NoError(t, d.Wait(waitCtx))
	assert.Equal(t, true, sawErr.Load())
}

func TestService_EmailDelivered(t *testing.T) {
	svc, sender, _, m := newSyncService(t)
	sender.On("Send", mock.Anything, mock.Anything).Return(mocks.Delivered)

	svc.Email(context.Background(), "welcome", func(context.Context) (model.Notification, error) {
		return WelcomePatient(&model.Patient{FirstName: "Ayesha"}, "ayesha@example.com"), nil
	})

	sent := sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Welcome to the Hospital System", sent[0].Subject)
	assert.Equal(t, "Hi Ayesha,\n\nYour patient profile has been successfully created!", sent[0].Body)
	assert.Equal(t, []string{"ayesha@example.com"}, sent[0].Recipients)
	assert.Equal(t, 1.0, metrics.CounterValue(m.NotificationsSent.WithLabelValues("success")))
}

func TestService_EmailFailureIsCounted(t *testing.T) {
	svc, sender, _, m := newSyncService(t)
	sender.On("Send", mock.Anything, mock.Anything).Return(mocks.Undelivered)

	svc.Email(context.Background(), "cancel", func(context.Context) (model.Notification, error) {
		return ProfileDeleted(&model.Patient{FirstName: "Ali"}, "ali@example.com"), nil
	})

	assert.Equal(t, 1.0, metrics.CounterValue(m.NotificationsSent.WithLabelValues("failure")))
	assert.Equal(t, 1.0, metrics.CounterValue(m.HookRuns.WithLabelValues("cancel", outcomeError)))
}

func TestService_EmailSkipped(t *testing.T) {
	svc, sender, _, m := newSyncService(t)

	svc.Email(context.Background(), "skip", func(context.Context) (model.Notification, error) {
		return model.Notification{}, ErrSkip
	})

	sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything)
	assert.Equal(t, 1.0, metrics.CounterValue(m.HookRuns.WithLabelValues("skip", outcomeOK)))
}

func TestService_Publish(t *testing.T) {
	svc, _, broker, _ := newSyncService(t)
	broker.On("Publish", mock.Anything, EventBookingCreated, mock.Anything).Return(nil)

	svc.Publish(context.Background(), EventBookingCreated, map[string]string{"booking_id": "B0"})

	broker.AssertExpectations(t)
	assert.Equal(t, []string{EventBookingCreated}, broker.Channels())
}

func TestMessages(t *testing.T) {
	patient := &model.Patient{FirstName: "Sara"}
	doctor := &model.Doctor{FirstName: "Imran", LastName: "Khan"}
	booking := &model.Booking{
		Date:      model.NewDate(2030, time.June, 1),
		StartTime: time.Date(2030, time.June, 1, 10, 0, 0, 0, time.UTC),
	}

	confirmed := BookingConfirmed(patient, doctor, booking, "sara@example.com")
	assert.Equal(t, "Your Appointment is Confirmed", confirmed.Subject)
	assert.True(t, strings.HasPrefix(confirmed.Body, "Dear Sara,"))
	assert.Contains(t, confirmed.Body, "Dr. Imran Khan")
	assert.Contains(t, confirmed.Body, "• Date: 2030-06-01")
	assert.Contains(t, confirmed.Body, "• Time: 10:00:00")

	cancelled := BookingCancelled(patient, doctor, booking, "sara@example.com")
	assert.Equal(t, "Your Appointment has been Cancelled", cancelled.Subject)
	assert.Contains(t, cancelled.Body, "on 2030-06-01 at 10:00:00 has been cancelled")

	welcome := WelcomeDoctor(doctor, "imran@example.com")
	assert.Equal(t, "Welcome to HealthSync, Dr. Khan", welcome.Subject)
	assert.Equal(t, "Hello Dr. Imran Khan,\n\nYour doctor account has been set up successfully!", welcome.Body)

	assert.Equal(t, "Your Profile Has Been Updated", ProfileUpdated(patient, "x").Subject)
}
