package model

import "encoding/json"

const (
	AvailabilityAvailable   = "available"
	AvailabilityUnavailable = "unavailable"
)

type TimeSlot struct {
	TimeSlotID         string    `json:"timeslot_id" db:"timeslot_id"`
	DoctorID           string    `json:"doctor_id" db:"doctor_id"`
	HospitalID         string    `json:"hospital_id" db:"hospital_id"`
	StartTime          ClockTime `json:"start_time" db:"start_time"`
	EndTime            ClockTime `json:"end_time" db:"end_time"`
	Fee                float64   `json:"fee" db:"fee"`
	AvailabilityStatus string    `json:"availability_status" db:"availability_status"`
	Timestamps
}

func (t *TimeSlot) Available() bool {
	return t.AvailabilityStatus == AvailabilityAvailable
}

// Fee accepts a JSON number or a numeric string.
type CreateTimeSlotRequest struct {
	DoctorID           string          `json:"doctor_id"`
	HospitalID         string          `json:"hospital_id"`
	StartTime          string          `json:"start_time"`
	EndTime            string          `json:"end_time"`
	Fee                json.RawMessage `json:"fee"`
	AvailabilityStatus string          `json:"availability_status"`
}

type UpdateTimeSlotRequest struct {
	DoctorID           *string         `json:"doctor_id"`
	HospitalID         *string         `json:"hospital_id"`
	StartTime          *string         `json:"start_time"`
	EndTime            *string         `json:"end_time"`
	Fee                json.RawMessage `json:"fee"`
	AvailabilityStatus *string         `json:"availability_status"`
}

type TimeSlotFilter struct {
	DoctorID string
}
