package hospital

import (
	"context"
	"strings"

	"github.com/healthsync/healthsync-api/internal/model"
	"github.com/healthsync/healthsync-api/internal/repository"
	"github.com/healthsync/healthsync-api/internal/service"
	"github.com/healthsync/healthsync-api/internal/validation"
	apperrors "github.com/healthsync/healthsync-api/pkg/errors"
	"github.com/healthsync/healthsync-api/pkg/idgen"
	"github.com/healthsync/healthsync-api/pkg/logger"
)

const notFound = "Hospital not found"

type HospitalService interface {
	CreateHospital(ctx context.Context, req *model.CreateHospitalRequest) (*model.Hospital, error)
	GetHospital(ctx context.Context, id string) (*model.Hospital, error)
	ListHospitals(ctx context.Context) ([]*model.Hospital, error)
	UpdateHospital(ctx context.Context, id string, req *model.UpdateHospitalRequest) (*model.Hospital, error)
	DeleteHospital(ctx context.Context, id string) error
}

type Service struct {
	repo      repository.HospitalRepository
	validator *validation.Validator
	log       *logger.Logger
}

func NewService(repo repository.HospitalRepository, validator *validation.Validator, log *logger.Logger) *Service {
	return &Service{repo: repo, validator: validator, log: log.With("hospital")}
}

func (s *Service) CreateHospital(ctx context.Context, req *model.CreateHospitalRequest) (*model.Hospital, error) {
	if err := validation.RequireAll(
		validation.Str("name", req.Name),
		validation.Str("address", req.Address),
		validation.Str("phone_number", req.PhoneNumber),
		validation.Str("email", req.Email),
		validation.Str("type", req.Type),
		validation.Str("opening_time", req.OpeningTime),
		validation.Str("closing_time", req.ClosingTime),
	); err != nil {
		return nil, err
	}

	hospital := &model.Hospital{
		Name:        strings.TrimSpace(req.Name),
		Address:     req.Address,
		PhoneNumber: strings.TrimSpace(req.PhoneNumber),
		Email:       strings.TrimSpace(req.Email),
		Type:        req.Type,
		DoctorIDs:   req.DoctorIDs,
	}
	if hospital.DoctorIDs == nil {
		hospital.DoctorIDs = []string{}
	}
	var err error
	if hospital.OpeningTime, err = parseTime("opening_time", req.OpeningTime); err != nil {
		return nil, err
	}
	if hospital.ClosingTime, err = parseTime("closing_time", req.ClosingTime); err != nil {
		return nil, err
	}
	if err := s.validate(hospital); err != nil {
		return nil, err
	}

	_, err = repository.InsertWithID(ctx, s.repo, idgen.HospitalPrefix, service.DefaultIDAttempts, func(id string) error {
		hospital.HospitalID = id
		return s.repo.Create(ctx, hospital)
	})
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	s.log.Info("hospital created", "hospital_id", hospital.HospitalID)
	return hospital, nil
}

func (s *Service) GetHospital(ctx context.Context, id string) (*model.Hospital, error) {
	hospital, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	return hospital, nil
}

func (s *Service) ListHospitals(ctx context.Context) ([]*model.Hospital, error) {
	hospitals, err := s.repo.List(ctx)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	return hospitals, nil
}

func (s *Service) UpdateHospital(ctx context.Context, id string, req *model.UpdateHospitalRequest) (*model.Hospital, error) {
	hospital, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}

	if req.Name != nil {
		hospital.Name = strings.TrimSpace(*req.Name)
	}
	if req.Address != nil {
		hospital.Address = *req.Address
	}
	if req.PhoneNumber != nil {
		hospital.PhoneNumber = strings.TrimSpace(*req.PhoneNumber)
	}
	if req.Email != nil {
		hospital.Email = strings.TrimSpace(*req.Email)
	}
	if req.Type != nil {
		hospital.Type = *req.Type
	}
	if req.OpeningTime != nil {
		if hospital.OpeningTime, err = parseTime("opening_time", *req.OpeningTime); err != nil {
			return nil, err
		}
	}
	if req.ClosingTime != nil {
		if hospital.ClosingTime, err = parseTime("closing_time", *req.ClosingTime); err != nil {
			return nil, err
		}
	}
	if req.DoctorIDs != nil {
		hospital.DoctorIDs = *req.DoctorIDs
	}

	if err := s.validate(hospital); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, hospital); err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	return hospital, nil
}

func (s *Service) DeleteHospital(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return service.MapRepoError(err, notFound)
	}
	s.log.Info("hospital deleted", "hospital_id", id)
	return nil
}

func (s *Service) validate(h *model.Hospital) error {
	e := validation.EntityHospital
	if err := validation.First(
		s.validator.Field(e, "name", h.Name),
		s.validator.Field(e, "address", h.Address),
		s.validator.Field(e, "phone_number", h.PhoneNumber),
		s.validator.Field(e, "email", h.Email),
		s.validator.Field(e, "type", h.Type),
	); err != nil {
		return err
	}
	if !h.OpeningTime.Before(h.ClosingTime) {
		return apperrors.NewInvalidFormat("opening_time must be before closing_time", nil)
	}
	return nil
}

func parseTime(field, value string) (model.ClockTime, error) {
	t, err := model.ParseClockTime(value)
	if err != nil {
		return model.ClockTime{}, apperrors.NewInvalidFormat("Invalid "+field+" format. Use HH:MM:SS.", err)
	}
	return t, nil
}
