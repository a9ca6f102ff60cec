package repository

import (
	"context"
	"errors"
	"time"

	"github.com/healthsync/healthsync-api/internal/model"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrIDTaken means the generated primary key is already in use.
	ErrIDTaken = errors.New("id already taken")
	// ErrDuplicate means another unique column collided.
	ErrDuplicate = errors.New("duplicate value")
	// ErrSlotTaken means a confirmed booking already starts at the same
	// doctor, date and time.
	ErrSlotTaken = errors.New("slot already booked")
)

// DuplicateError names the unique constraint that was violated.
type DuplicateError struct {
	Constraint string
	Err        error
}

func (e *DuplicateError) Error() string {
	return "duplicate value violates " + e.Constraint
}

func (e *DuplicateError) Unwrap() []error {
	return []error{ErrDuplicate, e.Err}
}

// All repository interfaces in one file
type (
	// IDLister exposes what id allocation needs: existing ids and a count.
	IDLister interface {
		ListIDs(ctx context.Context) ([]string, error)
		Count(ctx context.Context) (int, error)
	}

	PatientRepository interface {
		IDLister
		Create(ctx context.Context, patient *model.Patient) error
		Get(ctx context.Context, id string) (*model.Patient, error)
		Update(ctx context.Context, patient *model.Patient) error
		Delete(ctx context.Context, id string) error
		List(ctx context.Context) ([]*model.Patient, error)
	}

	DoctorRepository interface {
		IDLister
		Create(ctx context.Context, doctor *model.Doctor) error
		Get(ctx context.Context, id string) (*model.Doctor, error)
		Update(ctx context.Context, doctor *model.Doctor) error
		Delete(ctx context.Context, id string) error
		List(ctx context.Context) ([]*model.Doctor, error)
	}

	HospitalRepository interface {
		IDLister
		Create(ctx context.Context, hospital *model.Hospital) error
		Get(ctx context.Context, id string) (*model.Hospital, error)
		Update(ctx context.Context, hospital *model.Hospital) error
		Delete(ctx context.Context, id string) error
		List(ctx context.Context) ([]*model.Hospital, error)
	}

	TimeSlotRepository interface {
		IDLister
		Create(ctx context.Context, slot *model.TimeSlot) error
		Get(ctx context.Context, id string) (*model.TimeSlot, error)
		Update(ctx context.Context, slot *model.TimeSlot) error
		Delete(ctx context.Context, id string) error
		List(ctx context.Context, filter model.TimeSlotFilter) ([]*model.TimeSlot, error)
	}

	BookingRepository interface {
		IDLister
		Create(ctx context.Context, booking *model.Booking) error
		Get(ctx context.Context, id string) (*model.Booking, error)
		Update(ctx context.Context, booking *model.Booking) error
		Delete(ctx context.Context, id string) error
		List(ctx context.Context, filter model.BookingFilter) ([]*model.Booking, error)
		// FindConflicting returns confirmed bookings of doctorID on date
		// whose [start, end) overlaps the given interval, excluding
		// excludeID when it is not empty.
		FindConflicting(ctx context.Context, doctorID string, date model.Date, start, end time.Time, excludeID string) ([]*model.Booking, error)
	}

	AuthenticationRepository interface {
		Create(ctx context.Context, auth *model.Authentication) error
		Get(ctx context.Context, userID string) (*model.Authentication, error)
		GetByEmail(ctx context.Context, email string) (*model.Authentication, error)
		GetByPhone(ctx context.Context, phone string) (*model.Authentication, error)
		Update(ctx context.Context, auth *model.Authentication) error
		Delete(ctx context.Context, userID string) error
		List(ctx context.Context) ([]*model.Authentication, error)
	}
)

// Repositories groups the stores of one backend.
type Repositories struct {
	Patients       PatientRepository
	Doctors        DoctorRepository
	Hospitals      HospitalRepository
	TimeSlots      TimeSlotRepository
	Bookings       BookingRepository
	Authentication AuthenticationRepository
}

// Pinger reports store health.
type Pinger interface {
	PingContext(ctx context.Context) error
}
