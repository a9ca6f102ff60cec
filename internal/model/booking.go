package model

import "time"

const (
	BookingStatusConfirmed = "confirmed"
	BookingStatusCancelled = "cancelled"
	BookingStatusCompleted = "completed"
)

var BookingStatuses = []string{BookingStatusConfirmed, BookingStatusCancelled, BookingStatusCompleted}

type Booking struct {
	BookingID         string    `json:"booking_id" db:"booking_id"`
	PatientID         string    `json:"patient_id" db:"patient_id"`
	DoctorID          string    `json:"doctor_id" db:"doctor_id"`
	TimeSlotID        string    `json:"timeslot_id" db:"timeslot_id"`
	Date              Date      `json:"date" db:"date"`
	StartTime         time.Time `json:"start_time" db:"start_time"`
	EndTime           time.Time `json:"end_time" db:"end_time"`
	AppointmentStatus string    `json:"appointment_status" db:"appointment_status"`
	Timestamps
}

// Overlaps reports whether [start, end) intersects the booking's
// [StartTime, EndTime). Touching intervals do not overlap.
func (b *Booking) Overlaps(start, end time.Time) bool {
	return b.StartTime.Before(end) && b.EndTime.After(start)
}

func (b *Booking) Confirmed() bool {
	return b.AppointmentStatus == BookingStatusConfirmed
}

type CreateBookingRequest struct {
	PatientID  string `json:"patient_id"`
	DoctorID   string `json:"doctor_id"`
	TimeSlotID string `json:"timeslot_id"`
	Date       string `json:"date"`
	StartTime  string `json:"start_time"`
}

type UpdateBookingRequest struct {
	PatientID         *string `json:"patient_id"`
	DoctorID          *string `json:"doctor_id"`
	TimeSlotID        *string `json:"timeslot_id"`
	Date              *string `json:"date"`
	StartTime         *string `json:"start_time"`
	AppointmentStatus *string `json:"appointment_status"`
}

type BookingFilter struct {
	DoctorID  string
	PatientID string
	Date      *Date
}
