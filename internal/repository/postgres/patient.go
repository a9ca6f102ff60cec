package postgres

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/repository"
)

const patientColumns = `patient_id, first_name, last_name, gender, date_of_birth, age, cnic,
	address, blood_type, emergency_contact, medical_history, created_at, updated_at`

type patientRepository struct {
	BaseRepository
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{BaseRepository: NewBaseRepository(db)}
}

func (r *patientRepository) Create(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (` + patientColumns + `)
		VALUES (:patient_id, :first_name, :last_name, :gender, :date_of_birth, :age, :cnic,
			:address, :blood_type, :emergency_contact, :medical_history, :created_at, :updated_at)
	`
	now := time.Now().UTC()
	patient.CreatedAt = now
	patient.UpdatedAt = now

	_, err := r.db.NamedExecContext(ctx, query, patient)
	return wrap("create patient", err)
}

func (r *patientRepository) Get(ctx context.Context, id string) (*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients WHERE patient_id = $1`
	var patient model.Patient
	if err := r.db.GetContext(ctx, &patient, query, id); err != nil {
		return nil, wrap("get patient", err)
	}
	return &patient, nil
}

func (r *patientRepository) Update(ctx context.Context, patient *model.Patient) error {
	query := `
		UPDATE patients SET
			first_name = :first_name, last_name = :last_name, gender = :gender,
			date_of_birth = :date_of_birth, age = :age, cnic = :cnic, address = :address,
			blood_type = :blood_type, emergency_contact = :emergency_contact,
			medical_history = :medical_history, updated_at = :updated_at
		WHERE patient_id = :patient_id
	`
	patient.UpdatedAt = time.Now().UTC()
	res, err := r.db.NamedExecContext(ctx, query, patient)
	if err != nil {
		return wrap("update patient", err)
	}
	return expectRow(res)
}

func (r *patientRepository) Delete(ctx context.Context, id string) error {
	return r.deleteByID(ctx, "patients", "patient_id", id)
}

func (r *patientRepository) List(ctx context.Context) ([]*model.Patient, error) {
	query := `SELECT ` + patientColumns + ` FROM patients ORDER BY created_at, patient_id`
	patients := []*model.Patient{}
	if err := r.db.SelectContext(ctx, &patients, query); err != nil {
		return nil, wrap("list patients", err)
	}
	return patients, nil
}

func (r *patientRepository) ListIDs(ctx context.Context) ([]string, error) {
	return r.listIDs(ctx, "patients", "patient_id")
}

func (r *patientRepository) Count(ctx context.Context) (int, error) {
	return r.count(ctx, "patients")
}
