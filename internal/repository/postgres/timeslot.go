package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/repository"
)

const timeSlotColumns = `timeslot_id, doctor_id, hospital_id, start_time, end_time, fee,
	availability_status, created_at, updated_at`

type timeSlotRepository struct {
	BaseRepository
}

func NewTimeSlotRepository(db *sqlx.DB) repository.TimeSlotRepository {
	return &timeSlotRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *timeSlotRepository) Create(ctx context.Context, slot *model.TimeSlot) error {
	query := `
		INSERT INTO timeslots (` + timeSlotColumns + `)
		VALUES (:timeslot_id, :doctor_id, :hospital_id, :start_time, :end_time, :fee,
			:availability_status, :created_at, :updated_at)
	`
	now := time.Now().UTC()
	slot.CreatedAt = now
	slot.UpdatedAt = now

	_, err := r.db.NamedExecContext(ctx, query, slot)
	return wrap("create timeslot", err)
}

func (r *timeSlotRepository) Get(ctx context.Context, id string) (*model.TimeSlot, error) {
	query := `SELECT ` + timeSlotColumns + ` FROM timeslots WHERE timeslot_id = $1`
	var slot model.TimeSlot
	if err := r.db.GetContext(ctx, &slot, query, id); err != nil {
		return nil, wrap("get timeslot", err)
	}
	return &slot, nil
}

func (r *timeSlotRepository) Update(ctx context.Context, slot *model.TimeSlot) error {
	query := `
		UPDATE timeslots SET
			doctor_id = :doctor_id, hospital_id = :hospital_id, start_time = :start_time,
			end_time = :end_time, fee = :fee, availability_status = :availability_status,
			updated_at = :updated_at
		WHERE timeslot_id = :timeslot_id
	`
	slot.UpdatedAt = time.Now().UTC()
	res, err := r.db.NamedExecContext(ctx, query, slot)
	if err != nil {
		return wrap("update timeslot", err)
	}
	return expectRow(res)
}

func (r *timeSlotRepository) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "timeslots", "timeslot_id", id)
}

func (r *timeSlotRepository) List(ctx context.Context, filter model.TimeSlotFilter) ([]*model.TimeSlot, error) {
	query := `SELECT ` + timeSlotColumns + ` FROM timeslots
		WHERE ($1 = '' OR doctor_id = $1)
		ORDER BY created_at, timeslot_id`
	slots := []*model.TimeSlot{}
	if err := r.db.SelectContext(ctx, &slots, query, filter.DoctorID); err != nil {
		return nil, wrap("list timeslots", err)
	}
	return slots, nil
}

func (r *timeSlotRepository) ListIDs(ctx context.Context) ([]string, error) {
	return r.listIDs(ctx, "timeslots", "timeslot_id")
}

func (r *timeSlotRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "timeslots")
}
