package booking

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
	"github.com/healthsync/healthsync-api/pkg/lock"
	"github.com/healthsync/healthsync-api/pkg/logger"
	"github.com/healthsync/healthsync-api/pkg/metrics"
)

const (
	notFound         = "Booking not found"
	msgInvalidSlot   = "Invalid timeslot"
	msgSlotTaken     = "Timeslot no longer available"
	msgInvalidTime   = "Invalid date/start_time"
	msgPast          = "Booking must be in the future."
	msgDoctorBooked  = "Doctor already booked in that slot"
	msgScheduleBusy  = "Doctor schedule is busy, please retry"
	msgInvalidFilter = "Invalid date format – use YYYY-MM-DD"
	msgDayMismatch   = "start_time must fall on date"
)

// Conflict reasons recorded in metrics.
const (
	reasonOverlap     = "overlap"
	reasonSlotIndex   = "slot_index"
	reasonIDExhausted = "id_exhausted"
	reasonLockTimeout = "lock_timeout"
)

type BookingService interface {
	CreateBooking(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error)
	GetBooking(ctx context.Context, id string) (*model.Booking, error)
	ListBookings(ctx context.Context, doctorID, patientID, date string) ([]*model.Booking, error)
	UpdateBooking(ctx context.Context, id string, req *model.UpdateBookingRequest) (*model.Booking, error)
	DeleteBooking(ctx context.Context, id string) error
}

type Config struct {
	// Duration is the fixed length of every booking.
	Duration time.Duration
	// LockWait bounds how long a request waits for the doctor/date lock.
	LockWait     time.Duration
	MaxIDRetries int
	Location     *time.Location
}

type Repositories struct {
	Bookings       repository.BookingRepository
	TimeSlots      repository.TimeSlotRepository
	Patients       repository.PatientRepository
	Doctors        repository.DoctorRepository
	Authentication repository.AuthenticationRepository
}

type Service struct {
	repos     Repositories
	locker    lock.Locker
	notifier  notification.Service
	validator *validation.Validator
	metrics   *metrics.Metrics
	log       *logger.Logger
	cfg       Config
	now       func() time.Time
}

func NewService(repos Repositories, locker lock.Locker, notifier notification.Service, validator *validation.Validator, m *metrics.Metrics, log *logger.Logger, cfg Config, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Duration <= 0 {
		cfg.Duration = 30 * time.Minute
	}
	if cfg.MaxIDRetries <= 0 {
		cfg.MaxIDRetries = service.DefaultIDAttempts
	}
	return &Service{
		repos:     repos,
		locker:    locker,
		notifier:  notifier,
		validator: validator,
		metrics:   m,
		log:       log.With("booking"),
		cfg:       cfg,
		now:       now,
	}
}

// CreateBooking books a confirmed appointment of the configured length.
// The overlap check and the insert run under a lock on doctor and date.
func (s *Service) CreateBooking(ctx context.Context, req *model.CreateBookingRequest) (*model.Booking, error) {
	if err := validation.RequireAll(
		validation.Str("patient_id", req.PatientID),
		validation.Str("doctor_id", req.DoctorID),
		validation.Str("timeslot_id", req.TimeSlotID),
		validation.Str("date", req.Date),
		validation.Str("start_time", req.StartTime),
	); err != nil {
		return nil, err
	}
	if err := s.checkSlot(ctx, req.TimeSlotID); err != nil {
		return nil, err
	}
	date, start, err := s.parseWhen(req.Date, req.StartTime)
	if err != nil {
		return nil, err
	}
	if err := s.checkFuture(date, start); err != nil {
		return nil, err
	}

	booking := &model.Booking{
		PatientID:         strings.TrimSpace(req.PatientID),
		DoctorID:          strings.TrimSpace(req.DoctorID),
		TimeSlotID:        strings.TrimSpace(req.TimeSlotID),
		Date:              date,
		StartTime:         start,
		EndTime:           start.Add(s.cfg.Duration),
		AppointmentStatus: model.BookingStatusConfirmed,
	}

	err = s.withDoctorDay(ctx, booking.DoctorID, date, func() error {
		if err := s.checkOverlap(ctx, booking, ""); err != nil {
			return err
		}
		_, err := repository.InsertWithID(ctx, s.repos.Bookings, idgen.BookingPrefix, s.cfg.MaxIDRetries, func(id string) error {
			booking.BookingID = id
			return s.repos.Bookings.Create(ctx, booking)
		})
		return err
	})
	if err != nil {
		return nil, s.conflictOrRepoError(err)
	}

	s.metrics.BookingsCreated.Inc()
	s.log.Info("booking created", "booking_id", booking.BookingID, "doctor_id", booking.DoctorID, "date", booking.Date.String())
	s.localize(booking)

	created := *booking
	s.notifier.Email(ctx, "booking.confirmed", func(ctx context.Context) (model.Notification, error) {
		patient, doctor, to, err := s.parties(ctx, &created)
		if err != nil {
			return model.Notification{}, err
		}
		return notification.BookingConfirmed(patient, doctor, &created, to), nil
	})
	s.notifier.Publish(ctx, notification.EventBookingCreated, &created)
	return booking, nil
}

func (s *Service) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	booking, err := s.repos.Bookings.Get(ctx, id)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	s.localize(booking)
	return booking, nil
}

func (s *Service) ListBookings(ctx context.Context, doctorID, patientID, date string) ([]*model.Booking, error) {
	filter := model.BookingFilter{
		DoctorID:  strings.TrimSpace(doctorID),
		PatientID: strings.TrimSpace(patientID),
	}
	if strings.TrimSpace(date) != "" {
		d, err := model.ParseDate(date)
		if err != nil {
			return nil, apperrors.NewInvalidFormat(msgInvalidFilter, err)
		}
		filter.Date = &d
	}
	bookings, err := s.repos.Bookings.List(ctx, filter)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}
	for _, b := range bookings {
		s.localize(b)
	}
	return bookings, nil
}

// UpdateBooking applies a partial update. When the schedule or status
// changes the end time is re-derived and, for confirmed bookings, the
// overlap check runs again excluding the booking itself.
func (s *Service) UpdateBooking(ctx context.Context, id string, req *model.UpdateBookingRequest) (*model.Booking, error) {
	booking, err := s.repos.Bookings.Get(ctx, id)
	if err != nil {
		return nil, service.MapRepoError(err, notFound)
	}

	rescheduled := false
	if req.PatientID != nil {
		booking.PatientID = strings.TrimSpace(*req.PatientID)
	}
	if req.TimeSlotID != nil && strings.TrimSpace(*req.TimeSlotID) != booking.TimeSlotID {
		if err := s.checkSlot(ctx, *req.TimeSlotID); err != nil {
			return nil, err
		}
		booking.TimeSlotID = strings.TrimSpace(*req.TimeSlotID)
	}
	if req.DoctorID != nil && strings.TrimSpace(*req.DoctorID) != booking.DoctorID {
		booking.DoctorID = strings.TrimSpace(*req.DoctorID)
		rescheduled = true
	}
	if req.Date != nil || req.StartTime != nil {
		dateStr := booking.Date.String()
		if req.Date != nil {
			dateStr = *req.Date
		}
		startStr := booking.StartTime.In(s.cfg.Location).Format(time.RFC3339)
		if req.StartTime != nil {
			startStr = *req.StartTime
		}
		date, start, err := s.parseWhen(dateStr, startStr)
		if err != nil {
			return nil, err
		}
		if req.StartTime == nil {
			// Date alone moves the stored time of day onto the new day.
			local := start.In(s.cfg.Location)
			y, m, d := date.Date()
			start = time.Date(y, m, d, local.Hour(), local.Minute(), local.Second(), local.Nanosecond(), s.cfg.Location)
		} else if !model.DateOf(start.In(s.cfg.Location)).Equal(date.Time) {
			return nil, apperrors.NewInvalidFormat(msgDayMismatch, nil)
		}
		if err := s.checkFuture(date, start); err != nil {
			return nil, err
		}
		booking.Date = date
		booking.StartTime = start
		rescheduled = true
	}
	if req.AppointmentStatus != nil && *req.AppointmentStatus != booking.AppointmentStatus {
		if err := s.validator.Field(validation.EntityBooking, "appointment_status", *req.AppointmentStatus); err != nil {
			return nil, err
		}
		booking.AppointmentStatus = *req.AppointmentStatus
		rescheduled = true
	}
	if err := validation.First(
		s.validator.Field(validation.EntityBooking, "patient_id", booking.PatientID),
		s.validator.Field(validation.EntityBooking, "doctor_id", booking.DoctorID),
	); err != nil {
		return nil, err
	}

	if !rescheduled {
		if err := s.repos.Bookings.Update(ctx, booking); err != nil {
			return nil, s.conflictOrRepoError(err)
		}
		s.localize(booking)
		return booking, nil
	}

	booking.EndTime = booking.StartTime.Add(s.cfg.Duration)
	err = s.withDoctorDay(ctx, booking.DoctorID, booking.Date, func() error {
		if booking.Confirmed() {
			if err := s.checkOverlap(ctx, booking, booking.BookingID); err != nil {
				return err
			}
		}
		return s.repos.Bookings.Update(ctx, booking)
	})
	if err != nil {
		return nil, s.conflictOrRepoError(err)
	}

	s.localize(booking)
	s.notifier.Publish(ctx, notification.EventBookingUpdated, booking)
	return booking, nil
}

// DeleteBooking removes the booking and, when the patient has an
// authentication record, sends a cancellation notice.
func (s *Service) DeleteBooking(ctx context.Context, id string) error {
	booking, err := s.repos.Bookings.Get(ctx, id)
	if err != nil {
		return service.MapRepoError(err, notFound)
	}
	if err := s.repos.Bookings.Delete(ctx, id); err != nil {
		return service.MapRepoError(err, notFound)
	}

	s.log.Info("booking deleted", "booking_id", id)
	s.localize(booking)
	s.notifier.Email(ctx, "booking.cancelled", func(ctx context.Context) (model.Notification, error) {
		patient, doctor, to, err := s.parties(ctx, booking)
		if err != nil {
			return model.Notification{}, err
		}
		return notification.BookingCancelled(patient, doctor, booking, to), nil
	})
	s.notifier.Publish(ctx, notification.EventBookingDeleted, booking)
	return nil
}

func (s *Service) checkSlot(ctx context.Context, timeSlotID string) error {
	slot, err := s.repos.TimeSlots.Get(ctx, strings.TrimSpace(timeSlotID))
	if errors.Is(err, repository.ErrNotFound) {
		return apperrors.NewNotFound(msgInvalidSlot, err)
	}
	if err != nil {
		return apperrors.NewInternal(err)
	}
	if !slot.Available() {
		return apperrors.NewConflict(msgSlotTaken, nil)
	}
	return nil
}

func (s *Service) parseWhen(dateStr, startStr string) (model.Date, time.Time, error) {
	date, err := model.ParseDate(dateStr)
	if err != nil {
		return model.Date{}, time.Time{}, apperrors.NewInvalidFormat(msgInvalidTime, err)
	}
	start, err := model.ParseTimestamp(startStr, s.cfg.Location)
	if err != nil {
		return model.Date{}, time.Time{}, apperrors.NewInvalidFormat(msgInvalidTime, err)
	}
	return date, start, nil
}

func (s *Service) checkFuture(date model.Date, start time.Time) error {
	now := s.now().In(s.cfg.Location)
	if date.Before(model.DateOf(now).Time) || start.Before(now) {
		return apperrors.NewInvalidFormat(msgPast, nil)
	}
	return nil
}

func (s *Service) checkOverlap(ctx context.Context, b *model.Booking, excludeID string) error {
	conflicts, err := s.repos.Bookings.FindConflicting(ctx, b.DoctorID, b.Date, b.StartTime, b.EndTime, excludeID)
	if err != nil {
		return err
	}
	if len(conflicts) > 0 {
		s.metrics.BookingConflicts.WithLabelValues(reasonOverlap).Inc()
		return apperrors.NewConflict(msgDoctorBooked, nil)
	}
	return nil
}

// withDoctorDay runs fn while holding the lock for doctorID on date.
func (s *Service) withDoctorDay(ctx context.Context, doctorID string, date model.Date, fn func() error) error {
	lockCtx := ctx
	if s.cfg.LockWait > 0 {
		var cancel context.CancelFunc
		lockCtx, cancel = context.WithTimeout(ctx, s.cfg.LockWait)
		defer cancel()
	}

	started := time.Now()
	release, err := s.locker.Lock(lockCtx, "booking:"+doctorID+":"+date.String())
	s.metrics.BookingLockWait.Observe(time.Since(started).Seconds())
	if errors.Is(err, lock.ErrNotAcquired) {
		s.metrics.BookingConflicts.WithLabelValues(reasonLockTimeout).Inc()
		return apperrors.NewConflict(msgScheduleBusy, err)
	}
	if err != nil {
		return err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			s.log.Error(err, "failed to release booking lock", "doctor_id", doctorID, "date", date.String())
		}
	}()
	return fn()
}

func (s *Service) conflictOrRepoError(err error) error {
	switch {
	case errors.Is(err, repository.ErrSlotTaken):
		s.metrics.BookingConflicts.WithLabelValues(reasonSlotIndex).Inc()
	case errors.Is(err, repository.ErrIDTaken):
		s.metrics.BookingConflicts.WithLabelValues(reasonIDExhausted).Inc()
	}
	return service.MapRepoError(err, notFound)
}

// parties resolves the patient, the doctor and the patient's address.
// A patient without an authentication record gets no notice.
func (s *Service) parties(ctx context.Context, b *model.Booking) (*model.Patient, *model.Doctor, string, error) {
	auth, err := s.repos.Authentication.Get(ctx, b.PatientID)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, nil, "", notification.ErrSkip
	}
	if err != nil {
		return nil, nil, "", err
	}
	patient, err := s.repos.Patients.Get(ctx, b.PatientID)
	if err != nil {
		return nil, nil, "", err
	}
	doctor, err := s.repos.Doctors.Get(ctx, b.DoctorID)
	if err != nil {
		return nil, nil, "", err
	}
	return patient, doctor, auth.Email, nil
}

func (s *Service) localize(b *model.Booking) {
	b.StartTime = b.StartTime.In(s.cfg.Location)
	b.EndTime = b.EndTime.In(s.cfg.Location)
}
