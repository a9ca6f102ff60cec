package timeslot

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

const notFound = "Timeslot not found"

type TimeSlotService interface {
	CreateTimeSlot(ctx context.Context, req *model.CreateTimeSlotRequest) (*model.TimeSlot, error)
	GetTimeSlot(ctx context.Context, id string) (*model.TimeSlot, error)
	ListTimeSlots(ctx context.Context, filter model.TimeSlotFilter) ([]*model.TimeSlot, error)
	UpdateTimeSlot(ctx context.Context, id string, req *model.UpdateTimeSlotRequest) (*model.TimeSlot, error)
	DeleteTimeSlot(ctx context.Context, id string) error
}

type Service struct {
	repo      repository.TimeSlotRepository
	validator *validation.Validator
	log       *logger.Logger
}

func NewService(repo repository.TimeSlotRepository, validator *validation.Validator, log *logger.Logger) *Service {
	return &Service{repo: repo, validator: validator, log: log.With("timeslot")}
}

func (s *Service) CreateTimeSlot(ctx context.Context, req *model.CreateTimeSlotRequest) (*model.TimeSlot, error) {
	if err := validation.RequireAll(
		validation.Str("doctor_id", req.DoctorID),
		validation.Str("hospital_id", req.HospitalID),
		validation.Str("start_time", req.StartTime),
		validation.Str("end_time", req.EndTime),
		validation.Raw("fee", req.Fee),
	); err != nil {
		return nil, err
	}

	slot := &model.TimeSlot{
		DoctorID:           strings.TrimSpace(req.DoctorID),
		HospitalID:         strings.TrimSpace(req.HospitalID),
		AvailabilityStatus: model.AvailabilityAvailable,
	}
	if req.AvailabilityStatus != "" {
		slot.AvailabilityStatus = req.AvailabilityStatus
	}
	var err error
	if slot.StartTime, err = parseTime("start_time", req.StartTime); err != nil {
		return nil, err
	}
	if slot.EndTime, err = parseTime("end_time", req.EndTime); err != nil {
		return nil, err
	}
	if slot.Fee, err = validation.ParseFee(req.Fee); err != nil {
		return nil, apperrors.NewInvalidFormat("Invalid fee", err)
	}
	if err := s.validate(slot); err != nil {
		return nil, err
	}

	_, err = repository.InsertWithID(ctx, s.repo, idgen.TimeSlotPrefix, service.DefaultIDAttempts, func(id string) error {
		slot.TimeSlotID = id
		return s.repo.Create(ctx, slot)
	})
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	s.log.Info("timeslot created", "timeslot_id", slot.TimeSlotID, "doctor_id", slot.DoctorID)
	return slot, nil
}

func (s *Service) GetTimeSlot(ctx context.Context, id string) (*model.TimeSlot, error) {
	slot, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	return slot, nil
}

func (s *Service) ListTimeSlots(ctx context.Context, filter model.TimeSlotFilter) ([]*model.TimeSlot, error) {
	slots, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	return slots, nil
}

func (s *Service) UpdateTimeSlot(ctx context.Context, id string, req *model.UpdateTimeSlotRequest) (*model.TimeSlot, error) {
	slot, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}

	if req.DoctorID != nil {
		slot.DoctorID = strings.TrimSpace(*req.DoctorID)
	}
	if req.HospitalID != nil {
		slot.HospitalID = strings.TrimSpace(*req.HospitalID)
	}
	if req.StartTime != nil {
		if slot.StartTime, err = parseTime("start_time", *req.StartTime); err != nil {
			return nil, err
		}
	}
	if req.EndTime != nil {
		if slot.EndTime, err = parseTime("end_time", *req.EndTime); err != nil {
			return nil, err
		}
	}
	if req.Fee != nil {
		if slot.Fee, err = validation.ParseFee(req.Fee); err != nil {
			return nil, apperrors.NewInvalidFormat("Invalid fee", err)
		}
	}
	if req.AvailabilityStatus != nil {
		slot.AvailabilityStatus = *req.AvailabilityStatus
	}

	if err := s.validate(slot); err != nil {
		return nil, err
	}
	if err := s.repo.Update(ctx, slot); err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	return slot, nil
}

func (s *Service) DeleteTimeSlot(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return service.MapRepoError(err, notFound)
	}
	return nil
}

func (s *Service) validate(t *model.TimeSlot) error {
	e := validation.EntityTimeSlot
	if err := validation.First(
		s.validator.Field(e, "doctor_id", t.DoctorID),
		s.validator.Field(e, "hospital_id", t.HospitalID),
		s.validator.Field(e, "availability_status", t.AvailabilityStatus),
	); err != nil {
		return err
	}
	if !t.StartTime.Before(t.EndTime) {
		return apperrors.NewInvalidFormat("start_time must be before end_time", nil)
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
