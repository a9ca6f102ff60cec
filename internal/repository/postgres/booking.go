package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/repository"
)

const bookingColumns = `booking_id, patient_id, doctor_id, timeslot_id, date, start_time, end_time,
	appointment_status, created_at, updated_at`

const conflictQuery = `SELECT ` + bookingColumns + ` FROM bookings
	WHERE doctor_id = $1 AND date = $2 AND appointment_status = 'confirmed'
		AND start_time < $4 AND end_time > $3
		AND ($5 = '' OR booking_id <> $5)
	ORDER BY start_time`

type bookingRepository struct {
	BaseRepository
}

func NewBookingRepository(db *sqlx.DB) repository.BookingRepository {
	return &bookingRepository{BaseRepository: NewBaseRepository(db)}
}

// Create inserts a booking. Confirmed bookings are written under a
// transaction-scoped advisory lock on doctor and date, and the overlap
// check is repeated inside it so concurrent API instances cannot double
// book the same doctor.
func (r *bookingRepository) Create(ctx context.Context, booking *model.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES (:booking_id, :patient_id, :doctor_id, :timeslot_id, :date, :start_time, :end_time,
			:appointment_status, :created_at, :updated_at)
	`
	now := time.Now().UTC()
	booking.CreatedAt = now
	booking.UpdatedAt = now

	if !booking.Confirmed() {
		_, err := r.db.NamedExecContext(ctx, query, booking)
		return wrap("create booking", err)
	}

	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if err := lockDoctorDay(ctx, tx, booking.DoctorID, booking.Date); err != nil {
			return err
		}
		var conflicts []*model.Booking
		if err := tx.SelectContext(ctx, &conflicts, conflictQuery,
			booking.DoctorID, booking.Date, booking.StartTime, booking.EndTime, ""); err != nil {
			return err
		}
		if len(conflicts) > 0 {
			return repository.ErrSlotTaken
		}
		_, err := tx.NamedExecContext(ctx, query, booking)
		return err
	})
	return wrap("create booking", err)
}

func (r *bookingRepository) Get(ctx context.Context, id string) (*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = $1`
	var booking model.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, wrap("get booking", err)
	}
	return &booking, nil
}

func (r *bookingRepository) Update(ctx context.Context, booking *model.Booking) error {
	query := `
		UPDATE bookings SET
			patient_id = :patient_id, doctor_id = :doctor_id, timeslot_id = :timeslot_id,
			date = :date, start_time = :start_time, end_time = :end_time,
			appointment_status = :appointment_status, updated_at = :updated_at
		WHERE booking_id = :booking_id
	`
	booking.UpdatedAt = time.Now().UTC()

	var rows int64
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if booking.Confirmed() {
			if err := lockDoctorDay(ctx, tx, booking.DoctorID, booking.Date); err != nil {
				return err
			}
			var conflicts []*model.Booking
			if err := tx.SelectContext(ctx, &conflicts, conflictQuery,
				booking.DoctorID, booking.Date, booking.StartTime, booking.EndTime, booking.BookingID); err != nil {
				return err
			}
			if len(conflicts) > 0 {
				return repository.ErrSlotTaken
			}
		}
		res, err := tx.NamedExecContext(ctx, query, booking)
		if err != nil {
			return err
		}
		rows, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return wrap("update booking", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *bookingRepository) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "bookings", "booking_id", id)
}

func (r *bookingRepository) List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings
		WHERE ($1 = '' OR doctor_id = $1)
			AND ($2 = '' OR patient_id = $2)
			AND ($3::date IS NULL OR date = $3::date)
		ORDER BY date, start_time, booking_id`

	var date interface{}
	if filter.Date != nil {
		date = filter.Date.String()
	}
	bookings := []*model.Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, filter.DoctorID, filter.PatientID, date); err != nil {
		return nil, wrap("list bookings", err)
	}
	return bookings, nil
}

func (r *bookingRepository) FindConflicting(ctx context.Context, doctorID string, date model.Date, start, end time.Time, excludeID string) ([]*model.Booking, error) {
	bookings := []*model.Booking{}
	if err := r.db.SelectContext(ctx, &bookings, conflictQuery, doctorID, date, start, end, excludeID); err != nil {
		return nil, wrap("find conflicting bookings", err)
	}
	return bookings, nil
}

func (r *bookingRepository) ListIDs(ctx context.Context) ([]string, error) {
	return r.listIDs(ctx, "bookings", "booking_id")
}

func (r *bookingRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "bookings")
}

func lockDoctorDay(ctx context.Context, tx *sqlx.Tx, doctorID string, date model.Date) error {
	_, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, doctorID+"|"+date.String())
	return err
}
