package doctor

import (
	"context"
	"encoding/json"
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

var today = time.Date(2030, time.June, 15, 9, 0, 0, 0, time.UTC)

func newTestService(t *testing.T, store *memory.Store, summaryTTL time.Duration) (*Service, *mocks.Broker) {
	t.Helper()
	m := metrics.NewNop()
	broker := &mocks.Broker{}
	broker.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(nil).Maybe()
	dispatcher := notification.NewDispatcher(config.NotificationConfig{Timeout: time.Second}, logger.Nop(), m)
	notifier := notification.NewService(&mocks.Sender{}, broker, dispatcher, m)
	return NewService(store.Doctors(), notifier, validation.New(), summaryTTL, time.Minute, logger.Nop(), func() time.Time { return today }), broker
}

func validRequest() *model.CreateDoctorRequest {
	return &model.CreateDoctorRequest{
		FirstName:      "Imran",
		LastName:       "Khan",
		Gender:         "Male",
		DateOfBirth:    "1980-06-16",
		CNIC:           "9999912345671",
		Education:      json.RawMessage(`{"degree":"MBBS","school":"King Edward","year":"2004"}`),
		Specialization: "Cardiology",
		HospitalName:   "Mayo Hospital",
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

func TestCreateDoctor(t *testing.T) {
	svc, broker := newTestService(t, memory.NewStore(), 0)

	doctor, err := svc.CreateDoctor(context.Background(), validRequest())
	require.NoError(t, err)

	assert.Equal(t, "D0", doctor.DoctorID)
	assert.Equal(t, 49, doctor.Age)
	assert.Equal(t, model.Education{Degree: "MBBS", School: "King Edward", Year: 2004}, doctor.Education)
	assert.Nil(t, doctor.Picture)
	assert.Equal(t, []string{notification.EventDoctorCreated}, broker.Channels())
}

func TestCreateDoctor_Validation(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestService(t, store, 0)
	_, err := svc.CreateDoctor(context.Background(), validRequest())
	require.NoError(t, err)

	tests := []struct {
		name    string
		mutate  func(r *model.CreateDoctorRequest)
		status  int
		message string
	}{
		{
			name:    "missing fields",
			mutate:  func(r *model.CreateDoctorRequest) { r.LastName = ""; r.Education = nil },
			status:  http.StatusBadRequest,
			message: "Missing fields: last_name, education",
		},
		{
			name:    "unknown specialization",
			mutate:  func(r *model.CreateDoctorRequest) { r.Specialization = "Astrology"; r.CNIC = "123" },
			status:  http.StatusBadRequest,
			message: "Invalid specialization",
		},
		{
			name:    "short cnic",
			mutate:  func(r *model.CreateDoctorRequest) { r.CNIC = "12345" },
			status:  http.StatusBadRequest,
			message: "CNIC must be exactly 13 digits.",
		},
		{
			name:    "hospital name too short",
			mutate:  func(r *model.CreateDoctorRequest) { r.CNIC = "9999912345672"; r.HospitalName = " x " },
			status:  http.StatusBadRequest,
			message: "Valid hospital name required",
		},
		{
			name: "education with extra key",
			mutate: func(r *model.CreateDoctorRequest) {
				r.CNIC = "9999912345672"
				r.Education = json.RawMessage(`{"degree":"MBBS","school":"KE","year":2004,"grade":"A"}`)
			},
			status:  http.StatusBadRequest,
			message: "Education must be a JSON object with degree, school, and year.",
		},
		{
			name:    "education as a string",
			mutate:  func(r *model.CreateDoctorRequest) { r.CNIC = "9999912345672"; r.Education = json.RawMessage(`"MBBS"`) },
			status:  http.StatusBadRequest,
			message: "Education must be a JSON object with degree, school, and year.",
		},
		{
			name:    "duplicate cnic",
			mutate:  func(r *model.CreateDoctorRequest) {},
			status:  http.StatusConflict,
			message: "CNIC already registered",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			_, err := svc.CreateDoctor(context.Background(), req)
			assertAppError(t, err, tt.status, tt.message)
		})
	}
}

func TestGetSummary_CachedUntilUpdate(t *testing.T) {
	store := memory.NewStore()
	svc, _ := newTestService(t, store, time.Hour)
	ctx := context.Background()

	created, err := svc.CreateDoctor(ctx, validRequest())
	require.NoError(t, err)

	summary, err := svc.GetSummary(ctx, created.DoctorID)
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", summary.Specialization)

	// A write that bypasses the service is not seen until the entry is dropped.
	stored, err := store.Doctors().Get(ctx, created.DoctorID)
	require.NoError(t, err)
	stored.Specialization = "Neurology"
	require.NoError(t, store.Doctors().Update(ctx, stored))

	summary, err = svc.GetSummary(ctx, created.DoctorID)
	require.NoError(t, err)
	assert.Equal(t, "Cardiology", summary.Specialization)

	specialization := "Pediatrics"
	_, err = svc.UpdateDoctor(ctx, created.DoctorID, &model.UpdateDoctorRequest{Specialization: &specialization})
	require.NoError(t, err)

	summary, err = svc.GetSummary(ctx, created.DoctorID)
	require.NoError(t, err)
	assert.Equal(t, "Pediatrics", summary.Specialization)

	require.NoError(t, svc.DeleteDoctor(ctx, created.DoctorID))
	_, err = svc.GetSummary(ctx, created.DoctorID)
	assertAppError(t, err, http.StatusNotFound, "Doctor not found")
}

func TestUpdateDoctor(t *testing.T) {
	svc, _ := newTestService(t, memory.NewStore(), 0)
	ctx := context.Background()

	created, err := svc.CreateDoctor(ctx, validRequest())
	require.NoError(t, err)

	dob := "1990-01-01"
	picture := "https://example.com/imran.png"
	updated, err := svc.UpdateDoctor(ctx, created.DoctorID, &model.UpdateDoctorRequest{
		DateOfBirth: &dob,
		Picture:     &picture,
		Education:   json.RawMessage(`{"degree":"FCPS","school":"CPSP","year":2012}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 40, updated.Age)
	require.NotNil(t, updated.Picture)
	assert.Equal(t, picture, *updated.Picture)
	assert.Equal(t, 2012, updated.Education.Year)

	bad := "not a url"
	_, err = svc.UpdateDoctor(ctx, created.DoctorID, &model.UpdateDoctorRequest{Picture: &bad})
	assertAppError(t, err, http.StatusBadRequest, "Picture must be a URL")

	_, err = svc.UpdateDoctor(ctx, "D42", &model.UpdateDoctorRequest{Picture: &picture})
	assertAppError(t, err, http.StatusNotFound, "Doctor not found")
}
