package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/repository"
)

func booking(id, doctorID string, start time.Time) *model.Booking {
	return &model.Booking{
		BookingID:         id,
		PatientID:         "P0",
		DoctorID:          doctorID,
		TimeSlotID:        "T0",
		Date:              model.DateOf(start),
		StartTime:         start,
		EndTime:           start.Add(30 * time.Minute),
		AppointmentStatus: model.BookingStatusConfirmed,
	}
}

func TestBookingRepository_RejectsOverlap(t *testing.T) {
	repo := NewStore().Bookings()
	ctx := context.Background()
	ten := time.Date(2030, time.June, 3, 10, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, booking("B0", "D0", ten)))
	err := repo.Create(ctx, booking("B1", "D0", ten.Add(15*time.Minute)))
	assert.True(t, errors.Is(err, repository.ErrSlotTaken))

	require.NoError(t, repo.Create(ctx, booking("B1", "D0", ten.Add(30*time.Minute))))
	require.NoError(t, repo.Create(ctx, booking("B2", "D1", ten)))

	err = repo.Create(ctx, booking("B1", "D2", ten))
	assert.True(t, errors.Is(err, repository.ErrIDTaken))

	conflicts, err := repo.FindConflicting(ctx, "D0", model.DateOf(ten), ten.Add(20*time.Minute), ten.Add(50*time.Minute), "")
	require.NoError(t, err)
	require.Len(t, conflicts, 2)

	conflicts, err = repo.FindConflicting(ctx, "D0", model.DateOf(ten), ten, ten.Add(30*time.Minute), "B0")
	require.NoError(t, err)
	assert.Empty(t, conflicts)
}

func TestBookingRepository_CancelledBookingsDoNotBlock(t *testing.T) {
	repo := NewStore().Bookings()
	ctx := context.Background()
	ten := time.Date(2030, time.June, 3, 10, 0, 0, 0, time.UTC)

	b := booking("B0", "D0", ten)
	require.NoError(t, repo.Create(ctx, b))
	b.AppointmentStatus = model.BookingStatusCancelled
	require.NoError(t, repo.Update(ctx, b))

	require.NoError(t, repo.Create(ctx, booking("B1", "D0", ten)))

	b.AppointmentStatus = model.BookingStatusConfirmed
	err := repo.Update(ctx, b)
	assert.True(t, errors.Is(err, repository.ErrSlotTaken))
}

func TestBookingRepository_ListOrderAndFilter(t *testing.T) {
	repo := NewStore().Bookings()
	ctx := context.Background()
	day := time.Date(2030, time.June, 3, 0, 0, 0, 0, time.UTC)

	require.NoError(t, repo.Create(ctx, booking("B0", "D0", day.AddDate(0, 0, 1).Add(9*time.Hour))))
	require.NoError(t, repo.Create(ctx, booking("B1", "D0", day.Add(11*time.Hour))))
	require.NoError(t, repo.Create(ctx, booking("B2", "D1", day.Add(9*time.Hour))))

	all, err := repo.List(ctx, model.BookingFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, []string{"B2", "B1", "B0"}, []string{all[0].BookingID, all[1].BookingID, all[2].BookingID})

	date := model.DateOf(day)
	filtered, err := repo.List(ctx, model.BookingFilter{DoctorID: "D0", Date: &date})
	require.NoError(t, err)
	require.Len(t, filtered, 1)
	assert.Equal(t, "B1", filtered[0].BookingID)
}

func TestStore_ReturnsCopies(t *testing.T) {
	repo := NewStore().Patients()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Patient{PatientID: "P0", FirstName: "Sara"}))
	got, err := repo.Get(ctx, "P0")
	require.NoError(t, err)
	got.FirstName = "Changed"

	again, err := repo.Get(ctx, "P0")
	require.NoError(t, err)
	assert.Equal(t, "Sara", again.FirstName)
	assert.False(t, again.CreatedAt.IsZero())

	_, err = repo.Get(ctx, "P1")
	assert.True(t, errors.Is(err, repository.ErrNotFound))
	assert.True(t, errors.Is(repo.Delete(ctx, "P1"), repository.ErrNotFound))
}

func TestAuthenticationRepository_Uniqueness(t *testing.T) {
	repo := NewStore().Authentication()
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &model.Authentication{
		UserID: "P0", UserType: model.UserTypePatient, Email: "Sara@Example.com", PhoneNumber: "03001234567",
	}))

	err := repo.Create(ctx, &model.Authentication{
		UserID: "D0", UserType: model.UserTypeDoctor, Email: "sara@example.com", PhoneNumber: "03007654321",
	})
	var dup *repository.DuplicateError
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "authentication_email_key", dup.Constraint)

	err = repo.Create(ctx, &model.Authentication{
		UserID: "D0", UserType: model.UserTypeDoctor, Email: "ali@example.com", PhoneNumber: "03001234567",
	})
	require.True(t, errors.As(err, &dup))
	assert.Equal(t, "authentication_phone_number_key", dup.Constraint)

	found, err := repo.GetByEmail(ctx, "SARA@example.com")
	require.NoError(t, err)
	assert.Equal(t, "P0", found.UserID)
}
