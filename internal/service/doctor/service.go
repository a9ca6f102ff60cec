package doctor

import (
	"context"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/repository"
	"github.com/healthsync/healthsync-api/internal/service"
	"github.com/healthsync/healthsync-api/internal/service/notification"
	"github.com/healthsync/healthsync-api/internal/validation"
	apperrors "github.com/healthsync/healthsync-api/pkg/errors"
	"github.com/healthsync/healthsync-api/pkg/idgen"
	"github.com/healthsync/healthsync-api/pkg/logger"
)

const notFound = "Doctor not found"

const educationMessage = "Education must be a JSON object with degree, school, and year."

type DoctorService interface {
	CreateDoctor(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error)
	GetDoctor(ctx context.Context, id string) (*model.Doctor, error)
	GetSummary(ctx context.Context, id string) (*model.DoctorSummary, error)
	ListDoctors(ctx context.Context) ([]*model.Doctor, error)
	UpdateDoctor(ctx context.Context, id string, req *model.UpdateDoctorRequest) (*model.Doctor, error)
	DeleteDoctor(ctx context.Context, id string) error
}

type Service struct {
	repo      repository.DoctorRepository
	summaries *cache.Cache
	notifier  notification.Service
	validator *validation.Validator
	log       *logger.Logger
	now       func() time.Time
}

// NewService caches summaries for summaryTTL; zero disables the cache.
func NewService(repo repository.DoctorRepository, notifier notification.Service, validator *validation.Validator, summaryTTL, cleanup time.Duration, log *logger.Logger, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	var summaries *cache.Cache
	if summaryTTL > 0 {
		summaries = cache.New(summaryTTL, cleanup)
	}
	return &Service{
		repo:      repo,
		summaries: summaries,
		notifier:  notifier,
		validator: validator,
		log:       log.With("doctor"),
		now:       now,
	}
}

func (s *Service) CreateDoctor(ctx context.Context, req *model.CreateDoctorRequest) (*model.Doctor, error) {
	if err := validation.RequireAll(
		validation.Str("first_name", req.FirstName),
		validation.Str("last_name", req.LastName),
		validation.Str("gender", req.Gender),
		validation.Str("date_of_birth", req.DateOfBirth),
		validation.Str("cnic", req.CNIC),
		validation.Raw("education", req.Education),
		validation.Str("specialization", req.Specialization),
		validation.Str("hospital_name", req.HospitalName),
	); err != nil {
		return nil, err
	}
	if err := validation.First(
		s.validator.Field(validation.EntityDoctor, "specialization", req.Specialization),
		s.validator.Field(validation.EntityDoctor, "cnic", req.CNIC),
		s.validator.Field(validation.EntityDoctor, "hospital_name", req.HospitalName),
	); err != nil {
		return nil, err
	}
	dob, err := model.ParseDate(req.DateOfBirth)
	if err != nil {
		return nil, apperrors.NewInvalidFormat("Invalid date_of_birth format. Use YYYY-MM-DD.", err)
	}
	edu, err := validation.ParseEducation(req.Education)
	if err != nil {
		return nil, apperrors.NewInvalidFormat(educationMessage, err)
	}

	doctor := &model.Doctor{
		FirstName:      strings.TrimSpace(req.FirstName),
		LastName:       strings.TrimSpace(req.LastName),
		Gender:         req.Gender,
		DateOfBirth:    dob,
		Age:            validation.Age(dob.Time, s.now()),
		CNIC:           req.CNIC,
		Picture:        validation.NullableText(req.Picture),
		Education:      edu,
		Specialization: req.Specialization,
		HospitalName:   strings.TrimSpace(req.HospitalName),
	}
	if err := s.validate(doctor); err != nil {
		return nil, err
	}

	_, err = repository.InsertWithID(ctx, s.repo, idgen.DoctorPrefix, service.DefaultIDAttempts, func(id string) error {
		doctor.DoctorID = id
		return s.repo.Create(ctx, doctor)
	})
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}

	s.log.Info("doctor created", "doctor_id", doctor.DoctorID)
	s.notifier.Publish(ctx, notification.EventDoctorCreated, doctor.Summary())
	return doctor, nil
}

func (s *Service) GetDoctor(ctx context.Context, id string) (*model.Doctor, error) {
	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	return doctor, nil
}

func (s *Service) GetSummary(ctx context.Context, id string) (*model.DoctorSummary, error) {
	if s.summaries != nil {
		if v, ok := s.summaries.Get(id); ok {
			return v.(*model.DoctorSummary), nil
		}
	}
	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	summary := doctor.Summary()
	if s.summaries != nil {
		s.summaries.SetDefault(id, summary)
	}
	return summary, nil
}

func (s *Service) ListDoctors(ctx context.Context) ([]*model.Doctor, error) {
	doctors, err := s.repo.List(ctx)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	return doctors, nil
}

func (s *Service) UpdateDoctor(ctx context.Context, id string, req *model.UpdateDoctorRequest) (*model.Doctor, error) {
	doctor, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}

	if req.FirstName != nil {
		doctor.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		doctor.LastName = strings.TrimSpace(*req.LastName)
	}
	if req.Gender != nil {
		doctor.Gender = *req.Gender
	}
	if req.DateOfBirth != nil {
		dob, err := model.ParseDate(*req.DateOfBirth)
		if err != nil {
			return nil, apperrors.NewInvalidFormat("Invalid date_of_birth format. Use YYYY-MM-DD.", err)
		}
		doctor.DateOfBirth = dob
	}
	if req.CNIC != nil {
		doctor.CNIC = *req.CNIC
	}
	if req.Picture != nil {
		doctor.Picture = validation.NullableText(req.Picture)
	}
	if req.Education != nil {
		edu, err := validation.ParseEducation(req.Education)
		if err != nil {
			return nil, apperrors.NewInvalidFormat(educationMessage, err)
		}
		doctor.Education = edu
	}
	if req.Specialization != nil {
		doctor.Specialization = *req.Specialization
	}
	if req.HospitalName != nil {
		doctor.HospitalName = strings.TrimSpace(*req.HospitalName)
	}
	doctor.Age = validation.Age(doctor.DateOfBirth.Time, s.now())

	if err := s.validate(doctor); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, doctor); err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	s.forget(id)
	return doctor, nil
}

func (s *Service) DeleteDoctor(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return service.MapRepoError(err, notFound)
	}
	s.forget(id)
	s.log.Info("doctor deleted", "doctor_id", id)
	return nil
}

func (s *Service) forget(id string) {
	if s.summaries != nil {
		s.summaries.Delete(id)
	}
}

func (s *Service) validate(d *model.Doctor) error {
	e := validation.EntityDoctor
	return validation.First(
		s.validator.Field(e, "first_name", d.FirstName),
		s.validator.Field(e, "last_name", d.LastName),
		s.validator.Field(e, "gender", d.Gender),
		s.validator.Field(e, "cnic", d.CNIC),
		s.validator.Field(e, "picture", deref(d.Picture)),
		s.validator.Field(e, "specialization", d.Specialization),
		s.validator.Field(e, "hospital_name", d.HospitalName),
	)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
