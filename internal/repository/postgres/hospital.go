package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/repository"
)

const hospitalColumns = `hospital_id, name, address, phone_number, email, type,
	opening_time, closing_time, doctor_ids, created_at, updated_at`

type hospitalRepository struct {
	BaseRepository
}

func NewHospitalRepository(db *sqlx.DB) repository.HospitalRepository {
	return &hospitalRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *hospitalRepository) Create(ctx context.Context, hospital *model.Hospital) error {
	query := `
		INSERT INTO hospitals (` + hospitalColumns + `)
		VALUES (:hospital_id, :name, :address, :phone_number, :email, :type,
			:opening_time, :closing_time, :doctor_ids, :created_at, :updated_at)
	`
	now := time.Now().UTC()
	hospital.CreatedAt = now
	hospital.UpdatedAt = now
	if hospital.DoctorIDs == nil {
		hospital.DoctorIDs = []string{}
	}

	_, err := r.db.NamedExecContext(ctx, query, hospital)
	return wrap("create hospital", err)
}

func (r *hospitalRepository) Get(ctx context.Context, id string) (*model.Hospital, error) {
	query := `SELECT ` + hospitalColumns + ` FROM hospitals WHERE hospital_id = $1`
	var hospital model.Hospital
	if err := r.db.GetContext(ctx, &hospital, query, id); err != nil {
		return nil, wrap("get hospital", err)
	}
	return &hospital, nil
}

func (r *hospitalRepository) Update(ctx context.Context, hospital *model.Hospital) error {
	query := `
		UPDATE hospitals SET
			name = :name, address = :address, phone_number = :phone_number, email = :email,
			type = :type, opening_time = :opening_time, closing_time = :closing_time,
			doctor_ids = :doctor_ids, updated_at = :updated_at
		WHERE hospital_id = :hospital_id
	`
	hospital.UpdatedAt = time.Now().UTC()
	if hospital.DoctorIDs == nil {
		hospital.DoctorIDs = []string{}
	}
	res, err := r.db.NamedExecContext(ctx, query, hospital)
	if err != nil {
		return wrap("update hospital", err)
	}
	return expectRow(res)
}

func (r *hospitalRepository) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "hospitals", "hospital_id", id)
}

func (r *hospitalRepository) List(ctx context.Context) ([]*model.Hospital, error) {
	query := `SELECT ` + hospitalColumns + ` FROM hospitals ORDER BY created_at, hospital_id`
	hospitals := []*model.Hospital{}
	if err := r.db.SelectContext(ctx, &hospitals, query); err != nil {
		return nil, wrap("list hospitals", err)
	}
	return hospitals, nil
}

func (r *hospitalRepository) ListIDs(ctx context.Context) ([]string, error) {
	return r.listIDs(ctx, "hospitals", "hospital_id")
}

func (r *hospitalRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "hospitals")
}
