package patient

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/repository"
	"github.com/healthsync/healthsync-api/internal/service"
	"github.com/healthsync/healthsync-api/internal/service/notification"
	"github.com/healthsync/healthsync-api/internal/validation"
	apperrors "github.com/healthsync/healthsync-api/pkg/errors"
	"github.com/healthsync/healthsync-api/pkg/idgen"
	"github.com/healthsync/healthsync-api/pkg/logger"
)

const notFound = "Patient not found"

type PatientService interface {
	CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.PatientCreated, error)
	GetPatient(ctx context.Context, id string) (*model.Patient, error)
	ListPatients(ctx context.Context) ([]*model.Patient, error)
	UpdatePatient(ctx context.Context, id string, req *model.UpdatePatientRequest) (*model.Patient, error)
	DeletePatient(ctx context.Context, id string) error
}

type Service struct {
	repo      repository.PatientRepository
	authRepo  repository.AuthenticationRepository
	notifier  notification.Service
	validator *validation.Validator
	log       *logger.Logger
	now       func() time.Time
}

func NewService(repo repository.PatientRepository, authRepo repository.AuthenticationRepository, notifier notification.Service, validator *validation.Validator, log *logger.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		repo:      repo,
		authRepo:  authRepo,
		notifier:  notifier,
		validator: validator,
		log:       log.With("patient"),
		now:       now,
	}
}

func (s *Service) CreatePatient(ctx context.Context, req *model.CreatePatientRequest) (*model.PatientCreated, error) {
	if err := validation.RequireAll(
		validation.Str("first_name", req.FirstName),
		validation.Str("last_name", req.LastName),
		validation.Str("gender", req.Gender),
		validation.Str("date_of_birth", req.DateOfBirth),
		validation.Str("cnic", req.CNIC),
		validation.Str("address", req.Address),
	); err != nil {
		return nil, err
	}
	if !validation.ValidCNIC(req.CNIC) {
		return nil, apperrors.NewInvalidFormat("CNIC must be exactly 13 digits.", nil)
	}
	dob, err := model.ParseDate(req.DateOfBirth)
	if err != nil {
		return nil, apperrors.NewInvalidFormat("Invalid date_of_birth format. Use YYYY-MM-DD.", err)
	}

	patient := &model.Patient{
		FirstName:        strings.TrimSpace(req.FirstName),
		LastName:         strings.TrimSpace(req.LastName),
		Gender:           req.Gender,
		DateOfBirth:      dob,
		Age:              validation.Age(dob.Time, s.now()),
		CNIC:             req.CNIC,
		Address:          req.Address,
		BloodType:        validation.NullableText(req.BloodType),
		EmergencyContact: validation.NullableText(req.EmergencyContact),
	}
	if mh := validation.NullableText(req.MedicalHistory); mh != nil {
		patient.MedicalHistory = *mh
	}
	if err := s.validate(patient); err != nil {
		return nil, err
	}

	_, err = repository.InsertWithID(ctx, s.repo, idgen.PatientPrefix, service.DefaultIDAttempts, func(id string) error {
		patient.PatientID = id
		return s.repo.Create(ctx, patient)
	})
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}

	s.log.Info("patient created", "patient_id", patient.PatientID)
	s.notifier.Publish(ctx, notification.EventPatientCreated, patient.Created())
	return patient.Created(), nil
}

func (s *Service) GetPatient(ctx context.Context, id string) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	return patient, nil
}

func (s *Service) ListPatients(ctx context.Context) ([]*model.Patient, error) {
	patients, err := s.repo.List(ctx)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	return patients, nil
}

// UpdatePatient replaces the fields present in req. Age follows a new
// date of birth.
func (s *Service) UpdatePatient(ctx context.Context, id string, req *model.UpdatePatientRequest) (*model.Patient, error) {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}

	if req.FirstName != nil {
		patient.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		patient.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Gender != nil {
		patient.Gender = *req.Gender
	}
	if req.DateOfBirth != nil {
		dob, err := model.ParseDate(*req.DateOfBirth)
		if err != nil {
			return nil, apperrors.NewInvalidFormat("Invalid date_of_birth format. Use YYYY-MM-DD.", err)
		}
		patient.DateOfBirth = dob
	}
	if req.CNIC != nil {
		patient.CNIC = *req.CNIC
	}
	if req.Address != nil {
		patient.Address = *req.Address
	}
	if req.BloodType != nil {
		patient.BloodType = validation.NullableText(req.BloodType)
	}
	if req.EmergencyContact != nil {
		patient.EmergencyContact = validation.NullableText(req.EmergencyContact)
	}
	if req.MedicalHistory != nil {
		patient.MedicalHistory = ""
		if mh := validation.NullableText(req.MedicalHistory); mh != nil {
			patient.MedicalHistory = *mh
		}
	}
	patient.Age = validation.Age(patient.DateOfBirth.Time, s.now())

	if err := s.validate(patient); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, patient); err != nil {
		return nil, service.MapRepoError(err, notFound)
	}

	updated := *patient
	s.notifier.Email(ctx, "patient.updated", func(ctx context.Context) (model.Notification, error) {
		to, err := s.recipient(ctx, updated.PatientID)
		if err != nil {
			return model.Notification{}, err
		}
		return notification.ProfileUpdated(&updated, to), nil
	})
	return patient, nil
}

// DeletePatient removes the record. The goodbye notice is best effort and
// skipped when the patient never registered.
func (s *Service) DeletePatient(ctx context.Context, id string) error {
	patient, err := s.repo.Get(ctx, id)
	if err != nil {
		return service.MapRepoError(err, notFound)
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return service.MapRepoError(err, notFound)
	}

	s.log.Info("patient deleted", "patient_id", id)
	s.notifier.Email(ctx, "patient.deleted", func(ctx context.Context) (model.Notification, error) {
		to, err := s.recipient(ctx, patient.PatientID)
		if err != nil {
			return model.Notification{}, err
		}
		return notification.ProfileDeleted(patient, to), nil
	})
	s.notifier.Publish(ctx, notification.EventPatientDeleted, map[string]string{"patient_id": id})
	return nil
}

func (s *Service) recipient(ctx context.Context, patientID string) (string, error) {
	auth, err := s.authRepo.Get(ctx, patientID)
	if errors.Is(err, repository.ErrNotFound) {
		return "", notification.ErrSkip
	}
	if err != nil {
		return "", err
	}
	return auth.Email, nil
}

func (s *Service) validate(p *model.Patient) error {
	e := validation.EntityPatient
	fields := []struct {
		name  string
		value interface{}
	}{
		{"first_name", p.FirstName},
		{"last_name", p.LastName},
		{"gender", p.Gender},
		{"cnic", p.CNIC},
		{"address", p.Address},
		{"blood_type", deref(p.BloodType)},
		{"emergency_contact", deref(p.EmergencyContact)},
	}
	for _, f := range fields {
		if err := s.validator.Field(e, f.name, f.value); err != nil {
			return err
		}
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
