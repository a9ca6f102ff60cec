package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/repository"
)

const doctorColumns = `doctor_id, first_name, last_name, gender, date_of_birth, age, cnic,
	picture, education, specialization, hospital_name, created_at, updated_at`

type doctorRepository struct {
	BaseRepository
}

func NewDoctorRepository(db *sqlx.DB) repository.DoctorRepository {
	return &doctorRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *doctorRepository) Create(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (` + doctorColumns + `)
		VALUES (:doctor_id, :first_name, :last_name, :gender, :date_of_birth, :age, :cnic,
			:picture, :education, :specialization, :hospital_name, :created_at, :updated_at)
	`
	now := time.Now().UTC()
	doctor.CreatedAt = now
	doctor.UpdatedAt = now

	_, err := r.db.NamedExecContext(ctx, query, doctor)
	return wrap("create doctor", err)
}

func (r *doctorRepository) Get(ctx context.Context, id string) (*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors WHERE doctor_id = $1`
	var doctor model.Doctor
	if err := r.db.GetContext(ctx, &doctor, query, id); err != nil {
		return nil, wrap("get doctor", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) Update(ctx context.Context, doctor *model.Doctor) error {
	query := `
		UPDATE doctors SET
			first_name = :first_name, last_name = :last_name, gender = :gender,
			date_of_birth = :date_of_birth, age = :age, cnic = :cnic, picture = :picture,
			education = :education, specialization = :specialization,
			hospital_name = :hospital_name, updated_at = :updated_at
		WHERE doctor_id = :doctor_id
	`
	doctor.UpdatedAt = time.Now().UTC()
	res, err := r.db.NamedExecContext(ctx, query, doctor)
	if err != nil {
		return wrap("update doctor", err)
	}
	return expectRow(res)
}

func (r *doctorRepository) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "doctors", "doctor_id", id)
}

func (r *doctorRepository) List(ctx context.Context) ([]*model.Doctor, error) {
	query := `SELECT ` + doctorColumns + ` FROM doctors ORDER BY created_at, doctor_id`
	doctors := []*model.Doctor{}
	if err := r.db.SelectContext(ctx, &doctors, query); err != nil {
		return nil, wrap("list doctors", err)
	}
	return doctors, nil
}

func (r *doctorRepository) ListIDs(ctx context.Context) ([]string, error) {
	return r.listIDs(ctx, "doctors", "doctor_id")
}

func (r *doctorRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "doctors")
}
