package hospital

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/repository/memory"
	"github.com/healthsync/healthsync-api/internal/validation"
	apperrors "github.com/healthsync/healthsync-api/pkg/errors"
	"github.com/healthsync/healthsync-api/pkg/logger"
)

func validRequest() *model.CreateHospitalRequest {
	return &model.CreateHospitalRequest{
		Name:        "Mayo Hospital",
		Address:     "Hospital Road, Lahore",
		PhoneNumber: "042111222333",
		Email:       "info@mayo.example.com",
		Type:        "hospital",
		OpeningTime: "08:00",
		ClosingTime: "20:00:00",
	}
}

func TestCreateHospital(t *testing.T) {
	svc := NewService(memory.NewStore().Hospitals(), validation.New(), logger.Nop())
	ctx := context.Background()

	h, err := svc.CreateHospital(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "H0", h.HospitalID)
	assert.Equal(t, "08:00:00", h.OpeningTime.String())
	assert.NotNil(t, h.DoctorIDs)
	assert.Empty(t, h.DoctorIDs)

	h, err = svc.CreateHospital(ctx, validRequest())
	require.NoError(t, err)
	assert.Equal(t, "H1", h.HospitalID)

	all, err := svc.ListHospitals(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestCreateHospital_Validation(t *testing.T) {
	svc := NewService(memory.NewStore().Hospitals(), validation.New(), logger.Nop())

	tests := []struct {
		name    string
		mutate  func(r *model.CreateHospitalRequest)
		message string
	}{
		{"missing", func(r *model.CreateHospitalRequest) { r.Email = ""; r.ClosingTime = "" }, "Missing fields: email, closing_time"},
		{"bad opening time", func(r *model.CreateHospitalRequest) { r.OpeningTime = "8am" }, "Invalid opening_time format. Use HH:MM:SS."},
		{"bad email", func(r *model.CreateHospitalRequest) { r.Email = "mayo" }, "Invalid email"},
		{"bad type", func(r *model.CreateHospitalRequest) { r.Type = "pharmacy" }, "Type must be clinic or hospital"},
		{"closes before opening", func(r *model.CreateHospitalRequest) { r.ClosingTime = "07:59:59" }, "opening_time must be before closing_time"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			_, err := svc.CreateHospital(context.Background(), req)
			require.Error(t, err)
			appErr, ok := apperrors.As(err)
			require.True(t, ok)
			assert.Equal(t, http.StatusBadRequest, appErr.StatusCode())
			assert.Equal(t, tt.message, appErr.Message)
		})
	}
}

func TestUpdateAndDeleteHospital(t *testing.T) {
	svc := NewService(memory.NewStore().Hospitals(), validation.New(), logger.Nop())
	ctx := context.Background()

	h, err := svc.CreateHospital(ctx, validRequest())
	require.NoError(t, err)

	kind := "clinic"
	doctors := []string{"D0", "D3"}
	updated, err := svc.UpdateHospital(ctx, h.HospitalID, &model.UpdateHospitalRequest{Type: &kind, DoctorIDs: &doctors})
	require.NoError(t, err)
	assert.Equal(t, "clinic", updated.Type)
	assert.Equal(t, doctors, []string(updated.DoctorIDs))

	require.NoError(t, svc.DeleteHospital(ctx, h.HospitalID))
	_, err = svc.GetHospital(ctx, h.HospitalID)
	assert.True(t, apperrors.Is(err, apperrors.ErrNotFound))
}
