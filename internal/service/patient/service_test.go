package patient

import (
	"context"
	"net/http"
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
	"github.com/healthsync/healthsync-api/pkg/logger"
	"github.com/healthsync/healthsync-api/pkg/metrics"
)

var today = time.Date(2030, time.March, 1, 9, 0, 0, 0, time.UTC)

type fixture struct {
	svc    *Service
	store  *memory.Store
	sender *mocks.Sender
	broker *mocks.Broker
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	store := memory.NewStore()
	m := metrics.NewNop()
	sender := &mocks.Sender{}
	sender.On("Send", mock.Anything, mock.Anything).Return(mocks.Delivered).Maybe()
	broker := &mocks.Broker{}
	broker.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	dispatcher := notification.NewDispatcher(config.NotificationConfig{Timeout: time.Second}, logger.Nop(), m)

	svc := NewService(
		store.Patients(),
		store.Authentication(),
		notification.NewService(sender, broker, dispatcher, m),
		validation.New(),
		logger.Nop(),
		func() time.Time { return today },
	)
	return &fixture{svc: svc, store: store, sender: sender, broker: broker}
}

func validRequest() *model.CreatePatientRequest {
	blank := "  "
	return &model.CreatePatientRequest{
		FirstName:   "Sara",
		LastName:    "Ali",
		Gender:      "Female",
		DateOfBirth: "2000-02-29",
		CNIC:        "1234512345671",
		Address:     "12 Mall Road, Lahore",
		BloodType:   &blank,
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

func TestCreatePatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.svc.CreatePatient(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "P0", created.PatientID)
	assert.Equal(t, "Patient created successfully", created.Message)

	stored, err := f.svc.GetPatient(ctx, "P0")
	require.NoError(t, err)
	assert.Equal(t, 30, stored.Age)
	assert.Nil(t, stored.BloodType)
	assert.Nil(t, stored.EmergencyContact)
	assert.Empty(t, stored.MedicalHistory)
	assert.Equal(t, []string{notification.EventPatientCreated}, f.broker.Channels())
}

func TestCreatePatient_Validation(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreatePatient(context.Background(), validRequest())
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(r *model.CreatePatientRequest)
		status  int
		message string
	}{
		{
			name:    "missing fields in declared order",
			mutate:  func(r *model.CreatePatientRequest) { r.Address = ""; r.FirstName = ""; r.CNIC = " " },
			status:  http.StatusBadRequest,
			message: "Missing fields: first_name, cnic, address",
		},
		{
			name:    "cnic checked before date of birth",
			mutate:  func(r *model.CreatePatientRequest) { r.CNIC = "12345-1234567-1"; r.DateOfBirth = "29/02/2000" },
			status:  http.StatusBadRequest,
			message: "CNIC must be exactly 13 digits.",
		},
		{
			name:    "bad date of birth",
			mutate:  func(r *model.CreatePatientRequest) { r.CNIC = "1234512345672"; r.DateOfBirth = "29/02/2000" },
			status:  http.StatusBadRequest,
			message: "Invalid date_of_birth format. Use YYYY-MM-DD.",
		},
		{
			name:    "gender outside the allowed set",
			mutate:  func(r *model.CreatePatientRequest) { r.CNIC = "1234512345672"; r.Gender = "female" },
			status:  http.StatusBadRequest,
			message: "Gender must be Male or Female",
		},
		{
			name:    "duplicate cnic",
			mutate:  func(r *model.CreatePatientRequest) {},
			status:  http.StatusConflict,
			message: "CNIC already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			_, err := f.svc.CreatePatient(context.Background(), req)
			assertAppError(t, err, tt.status, tt.message)
		})
	}
}

func TestUpdatePatient_NotifiesRegisteredPatient(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreatePatient(ctx, validRequest())
	require.NoError(t, err)
	require.NoError(t, f.store.Authentication().Create(ctx, &model.Authentication{
		UserID: "P0", UserType: model.UserTypePatient, Email: "sara@example.com", PhoneNumber: "03001234567",
	}))

	dob := "1995-03-01"
	blood := "O+"
	updated, err := f.svc.UpdatePatient(ctx, "P0", &model.UpdatePatientRequest{DateOfBirth: &dob, BloodType: &blood})
	require.NoError(t, err)
	assert.Equal(t, 35, updated.Age)
	require.NotNil(t, updated.BloodType)
	assert.Equal(t, "O+", *updated.BloodType)

	sent := f.sender.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "Your Profile Has Been Updated", sent[0].Subject)
	assert.Equal(t, []string{"sara@example.com"}, sent[0].Recipients)

	_, err = f.svc.UpdatePatient(ctx, "P9", &model.UpdatePatientRequest{BloodType: &blood})
	assertAppError(t, err, http.StatusNotFound, "Patient not found")
}

func TestDeletePatient_WithoutAuthenticationRecord(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.CreatePatient(ctx, validRequest())
	require.NoError(t, err)
	require.NoError(t, f.svc.DeletePatient(ctx, "P0"))

	assert.Empty(t, f.sender.Sent())
	assert.Equal(t, []string{notification.EventPatientCreated, notification.EventPatientDeleted}, f.broker.Channels())

	err = f.svc.DeletePatient(ctx, "P0")
	assertAppError(t, err, http.StatusNotFound, "Patient not found")

	patients, err := f.svc.ListPatients(ctx)
	require.NoError(t, err)
	assert.Empty(t, patients)
}
