package booking

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/healthsync/healthsync-api/internal/config"
	"github.com/healthsync/healthsync-api/internal/mocks"
	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/repository/memory"
	"github.com/healthsync/healthsync-api/internal/service/notification"
	"github.com/healthsync/healthsync-api/internal/validation"
	apperrors "github.com/healthsync/healthsync-api/pkg/errors"
	"github.com/healthsync/healthsync-api/pkg/lock"
	"github.com/healthsync/healthsync-api/pkg/logger"
	"github.com/healthsync/healthsync-api/pkg/metrics"
)

var fixedNow = time.Date(2030, time.May, 31, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc     *Service
	store   *memory.Store
	sender  *mocks.Sender
	broker  *mocks.Broker
	metrics *metrics.Metrics
}

func newFixture(t *testing.T, result model.NotificationResult) *fixture {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()

	require.NoError(t, store.Patients().Create(ctx, &model.Patient{PatientID: "P0", FirstName: "Sara", LastName: "Ali", CNIC: "1234512345671"}))
	require.NoError(t, store.Patients().Create(ctx, &model.Patient{PatientID: "P1", FirstName: "Omar", LastName: "Raza", CNIC: "1234512345672"}))
	require.NoError(t, store.Doctors().Create(ctx, &model.Doctor{DoctorID: "D0", FirstName: "Imran", LastName: "Khan", CNIC: "9999912345671"}))
	require.NoError(t, store.Doctors().Create(ctx, &model.Doctor{DoctorID: "D1", FirstName: "Hina", LastName: "Shah", CNIC: "9999912345672"}))
	require.NoError(t, store.TimeSlots().Create(ctx, &model.TimeSlot{TimeSlotID: "T0", DoctorID: "D0", AvailabilityStatus: model.AvailabilityAvailable}))
	require.NoError(t, store.TimeSlots().Create(ctx, &model.TimeSlot{TimeSlotID: "T1", DoctorID: "D0", AvailabilityStatus: model.AvailabilityUnavailable}))
	require.NoError(t, store.Authentication().Create(ctx, &model.Authentication{
		UserID: "P0", UserType: model.UserTypePatient, Email: "sara@example.com", PhoneNumber: "03001234567",
	}))

	m := metrics.NewNop()
	sender := &mocks.Sender{}
	sender.On("Send", mock.Anything, mock.Anything).Return(result).Maybe()
	broker := &mocks.Broker{}
	broker.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	dispatcher := notification.NewDispatcher(config.NotificationConfig{Async: false, Timeout: time.Second}, logger.Nop(), m)

	svc := NewService(Repositories{
		Bookings:       store.Bookings(),
		TimeSlots:      store.TimeSlots(),
		Patients:       store.Patients(),
		Doctors:        store.Doctors(),
		Authentication: store.Authentication(),
	},
		lock.NewLocalLocker(),
		notification.NewService(sender, broker, dispatcher, m),
		validation.New(),
		m,
		logger.Nop(),
		Config{Duration: 30 * time.Minute, LockWait: time.Second, Location: time.UTC},
		func() time.Time { return fixedNow },
	)
	return &fixture{svc: svc, store: store, sender: sender, broker: broker, metrics: m}
}

func request(patient, doctor, date, start string) *model.CreateBookingRequest {
	return &model.CreateBookingRequest{
		PatientID:  patient,
		DoctorID:   doctor,
		TimeSlotID: "T0",
		Date:       date,
		StartTime:  start,
	}
}

func assertAppError(t *testing.T, err error, status int, message string) {
	t.Helper()
	require.Error(t, err)
	appErr, ok := apperrors.As(err)
	require.True(t, ok, "expected an application error, got %v", err)
	assert.Equal(t, status, appErr.StatusCode())
	assert.Equal(t, message, appErr.Message)
}

func TestCreateBooking(t *testing.T) {
	f := newFixture(t, mocks.Delivered)

	b, err := f.svc.CreateBooking(context.Background(), request("P0", "D0", "2030-06-01", "2030-06-01T10:00:00"))
	require.NoError(t, err)

	assert.Equal(t, "B0", b.BookingID)
	assert.Equal(t, model.BookingStatusConfirmed, b.AppointmentStatus)
	assert.Equal(t, time.Date(2030, time.June, 1, 10, 0, 0, 0, time.UTC), b.StartTime)
	assert.Equal(t, time.Date(2030, time.June, 1, 10, 30, 0, 0, time.UTC), b.EndTime)
	assert.Equal(t, 1.0, metrics.CounterValue(f.metrics.BookingsCreated))

	sent := f.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Your Appointment is Confirmed", sent[0].Subject)
	assert.Equal(t, []string{"sara@example.com"}, sent[0].Recipients)
	assert.Contains(t, sent[0].Body, "Dr. Imran Khan")
	assert.Equal(t, []string{notification.EventBookingCreated}, f.broker.Channels())
}

func TestCreateBooking_Overlap(t *testing.T) {
	f := newFixture(t, mocks.Delivered)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, request("P0", "D0", "2030-06-01", "2030-06-01T10:00:00"))
	require.NoError(t, err)

	_, err = f.svc.CreateBooking(ctx, request("P1", "D0", "2030-06-01", "2030-06-01T10:15:00"))
	assertAppError(t, err, http.StatusConflict, "Doctor already booked in that slot")
	assert.Equal(t, 1.0, metrics.CounterValue(f.metrics.BookingConflicts.WithLabelValues(reasonOverlap)))

	b, err := f.svc.CreateBooking(ctx, request("P1", "D0", "2030-06-01", "2030-06-01T10:30:00"))
	require.NoError(t, err)
	assert.Equal(t, "B1", b.BookingID)

	b, err = f.svc.CreateBooking(ctx, request("P1", "D1", "2030-06-01", "2030-06-01T10:15:00"))
	require.NoError(t, err)
	assert.Equal(t, "B2", b.BookingID)
}

func TestCreateBooking_Validation(t *testing.T) {
	f := newFixture(t, mocks.Delivered)
	ctx := context.Background()

	tests := []struct {
		name    string
		req     *model.CreateBookingRequest
		status  int
		message string
	}{
		{
			name:    "missing fields in declared order",
			req:     &model.CreateBookingRequest{DoctorID: "D0", TimeSlotID: "T0", StartTime: "2030-06-01T10:00:00"},
			status:  http.StatusBadRequest,
			message: "Missing fields: patient_id, date",
		},
		{
			name:    "unknown timeslot",
			req:     &model.CreateBookingRequest{PatientID: "P0", DoctorID: "D0", TimeSlotID: "T9", Date: "2030-06-01", StartTime: "2030-06-01T10:00:00"},
			status:  http.StatusNotFound,
			message: "Invalid timeslot",
		},
		{
			name:    "unavailable timeslot",
			req:     &model.CreateBookingRequest{PatientID: "P0", DoctorID: "D0", TimeSlotID: "T1", Date: "2030-06-01", StartTime: "2030-06-01T10:00:00"},
			status:  http.StatusConflict,
			message: "Timeslot no longer available",
		},
		{
			name:    "bad date",
			req:     request("P0", "D0", "01/06/2030", "2030-06-01T10:00:00"),
			status:  http.StatusBadRequest,
			message: "Invalid date/start_time",
		},
		{
			name:    "bad start time",
			req:     request("P0", "D0", "2030-06-01", "ten o'clock"),
			status:  http.StatusBadRequest,
			message: "Invalid date/start_time",
		},
		{
			name:    "date in the past",
			req:     request("P0", "D0", "2030-05-30", "2030-06-01T10:00:00"),
			status:  http.StatusBadRequest,
			message: "Booking must be in the future.",
		},
		{
			name:    "start earlier today",
			req:     request("P0", "D0", "2030-05-31", "2030-05-31T09:00:00"),
			status:  http.StatusBadRequest,
			message: "Booking must be in the future.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.CreateBooking(ctx, tt.req)
			assertAppError(t, err, tt.status, tt.message)
		})
	}
}

func TestCreateBooking_StartWithOffset(t *testing.T) {
	f := newFixture(t, mocks.Delivered)

	b, err := f.svc.CreateBooking(context.Background(), request("P0", "D0", "2030-06-01", "2030-06-01T15:00:00+05:00"))
	require.NoError(t, err)
	assert.True(t, b.StartTime.Equal(time.Date(2030, time.June, 1, 10, 0, 0, 0, time.UTC)))
}

func TestCreateBooking_NotificationFailureIgnored(t *testing.T) {
	f := newFixture(t, mocks.Undelivered)

	b, err := f.svc.CreateBooking(context.Background(), request("P0", "D0", "2030-06-01", "2030-06-01T10:00:00"))
	require.NoError(t, err)
	assert.Equal(t, "B0", b.BookingID)

	stored, err := f.svc.GetBooking(context.Background(), "B0")
	require.NoError(t, err)
	assert.Equal(t, model.BookingStatusConfirmed, stored.AppointmentStatus)
}

func TestCreateBooking_IDsSkipGapsBelowCount(t *testing.T) {
	f := newFixture(t, mocks.Delivered)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		b, err := f.svc.CreateBooking(ctx, request("P1", "D0", "2030-06-01", fmt.Sprintf("2030-06-01T%02d:00:00", 13+i)))
		require.NoError(t, err)
		assert.Equal(t, fmt.Sprintf("B%d", i), b.BookingID)
	}
	require.NoError(t, f.svc.DeleteBooking(ctx, "B2"))

	b, err := f.svc.CreateBooking(ctx, request("P1", "D0", "2030-06-02", "2030-06-02T10:00:00"))
	require.NoError(t, err)
	assert.Equal(t, "B5", b.BookingID)
}

func TestCreateBooking_ConcurrentSameSlot(t *testing.T) {
	f := newFixture(t, mocks.Delivered)
	ctx := context.Background()

	const workers = 10
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.svc.CreateBooking(ctx, request("P1", "D0", "2030-06-01", "2030-06-01T10:00:00"))
			mu.Lock()
			defer mu.Unlock()
			if err == nil {
				succeeded++
			} else if apperrors.Is(err, apperrors.ErrConflict) {
				conflicts++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
	assert.Equal(t, workers-1, conflicts)
}

func TestDeleteBooking(t *testing.T) {
	f := newFixture(t, mocks.Delivered)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, request("P0", "D0", "2030-06-01", "2030-06-01T10:00:00"))
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteBooking(ctx, "B0"))

	sent := f.sender.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, "Your Appointment has been Cancelled", sent[1].Subject)
	assert.Contains(t, sent[1].Body, "on 2030-06-01 at 10:00:00 has been cancelled")

	_, err = f.svc.GetBooking(ctx, "B0")
	assertAppError(t, err, http.StatusNotFound, "Booking not found")

	err = f.svc.DeleteBooking(ctx, "B0")
	assertAppError(t, err, http.StatusNotFound, "Booking not found")
}

func TestDeleteBooking_WithoutAuthenticationRecord(t *testing.T) {
	f := newFixture(t, mocks.Delivered)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, request("P1", "D0", "2030-06-01", "2030-06-01T10:00:00"))
	require.NoError(t, err)
	require.NoError(t, f.svc.DeleteBooking(ctx, "B0"))

	assert.Empty(t, f.sender.Sent())
	assert.Equal(t, []string{notification.EventBookingCreated, notification.EventBookingDeleted}, f.broker.Channels())
}

func TestUpdateBooking(t *testing.T) {
	f := newFixture(t, mocks.Delivered)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, request("P0", "D0", "2030-06-01", "2030-06-01T10:00:00"))
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, request("P1", "D0", "2030-06-01", "2030-06-01T11:00:00"))
	require.NoError(t, err)

	into := "2030-06-01T10:15:00"
	_, err = f.svc.UpdateBooking(ctx, "B1", &model.UpdateBookingRequest{StartTime: &into})
	assertAppError(t, err, http.StatusConflict, "Doctor already booked in that slot")

	later := "2030-06-01T12:00:00"
	b, err := f.svc.UpdateBooking(ctx, "B1", &model.UpdateBookingRequest{StartTime: &later})
	require.NoError(t, err)
	assert.Equal(t, time.Date(2030, time.June, 1, 12, 30, 0, 0, time.UTC), b.EndTime)

	cancelled := model.BookingStatusCancelled
	_, err = f.svc.UpdateBooking(ctx, "B0", &model.UpdateBookingRequest{AppointmentStatus: &cancelled})
	require.NoError(t, err)

	b, err = f.svc.CreateBooking(ctx, request("P1", "D0", "2030-06-01", "2030-06-01T10:00:00"))
	require.NoError(t, err)
	assert.Equal(t, "B2", b.BookingID)

	bogus := "pending"
	_, err = f.svc.UpdateBooking(ctx, "B2", &model.UpdateBookingRequest{AppointmentStatus: &bogus})
	assertAppError(t, err, http.StatusBadRequest, "appointment_status must be confirmed, cancelled or completed")
}

func TestUpdateBooking_MovesToAnotherDay(t *testing.T) {
	f := newFixture(t, mocks.Delivered)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, request("P0", "D0", "2030-06-02", "2030-06-02T10:00:00"))
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, request("P1", "D0", "2030-06-01", "2030-06-01T10:00:00"))
	require.NoError(t, err)

	taken := "2030-06-02"
	_, err = f.svc.UpdateBooking(ctx, "B1", &model.UpdateBookingRequest{Date: &taken})
	assertAppError(t, err, http.StatusConflict, "Doctor already booked in that slot")

	stored, err := f.svc.GetBooking(ctx, "B1")
	require.NoError(t, err)
	assert.Equal(t, "2030-06-01", stored.Date.String())

	free := "2030-06-03"
	b, err := f.svc.UpdateBooking(ctx, "B1", &model.UpdateBookingRequest{Date: &free})
	require.NoError(t, err)
	assert.Equal(t, "2030-06-03", b.Date.String())
	assert.True(t, time.Date(2030, time.June, 3, 10, 0, 0, 0, time.UTC).Equal(b.StartTime))
	assert.True(t, time.Date(2030, time.June, 3, 10, 30, 0, 0, time.UTC).Equal(b.EndTime))

	onDay, err := f.svc.ListBookings(ctx, "D0", "", "2030-06-02")
	require.NoError(t, err)
	require.Len(t, onDay, 1)
	assert.Equal(t, "B0", onDay[0].BookingID)

	day := "2030-06-04"
	start := "2030-06-05T09:00:00"
	_, err = f.svc.UpdateBooking(ctx, "B1", &model.UpdateBookingRequest{Date: &day, StartTime: &start})
	assertAppError(t, err, http.StatusBadRequest, "start_time must fall on date")
}

func TestListBookings(t *testing.T) {
	f := newFixture(t, mocks.Delivered)
	ctx := context.Background()

	_, err := f.svc.CreateBooking(ctx, request("P0", "D0", "2030-06-01", "2030-06-01T10:00:00"))
	require.NoError(t, err)
	_, err = f.svc.CreateBooking(ctx, request("P1", "D1", "2030-06-02", "2030-06-02T10:00:00"))
	require.NoError(t, err)

	all, err := f.svc.ListBookings(ctx, "", "", "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	byDoctor, err := f.svc.ListBookings(ctx, "D1", "", "")
	require.NoError(t, err)
	require.Len(t, byDoctor, 1)
	assert.Equal(t, "B1", byDoctor[0].BookingID)

	byDate, err := f.svc.ListBookings(ctx, "", "P0", "2030-06-01")
	require.NoError(t, err)
	require.Len(t, byDate, 1)
	assert.Equal(t, "B0", byDate[0].BookingID)

	_, err = f.svc.ListBookings(ctx, "", "", "June 1st")
	assertAppError(t, err, http.StatusBadRequest, "Invalid date format – use YYYY-MM-DD")
}
