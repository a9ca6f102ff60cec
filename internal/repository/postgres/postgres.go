package postgres

import (
	"github.com/jmoiron/sqlx"

	"github.com/healthsync/healthsync-api/internal/repository"
)

// NewRepositories builds every store on one database handle.
func NewRepositories(db *sqlx.DB) *repository.Repositories {
	return &repository.Repositories{
		Patients:       NewPatientRepository(db),
		Doctors:        NewDoctorRepository(db),
		Hospitals:      NewHospitalRepository(db),
		TimeSlots:      NewTimeSlotRepository(db),
		Bookings:       NewBookingRepository(db),
		Authentication: NewAuthenticationRepository(db),
	}
}
