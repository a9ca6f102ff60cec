package model

import "github.com/lib/pq"

const (
	HospitalTypeClinic   = "clinic"
	HospitalTypeHospital = "hospital"
)

type Hospital struct {
	HospitalID  string         `json:"hospital_id" db:"hospital_id"`
	Name        string         `json:"name" db:"name"`
	Address     string         `json:"address" db:"address"`
	PhoneNumber string         `json:"phone_number" db:"phone_number"`
	Email       string         `json:"email" db:"email"`
	Type        string         `json:"type" db:"type"`
	OpeningTime ClockTime      `json:"opening_time" db:"opening_time"`
	ClosingTime ClockTime      `json:"closing_time" db:"closing_time"`
	DoctorIDs   pq.StringArray `json:"doctor_ids" db:"doctor_ids"`
	Timestamps
}

type CreateHospitalRequest struct {
	Name        string   `json:"name"`
	Address     string   `json:"address"`
	PhoneNumber string   `json:"phone_number"`
	Email       string   `json:"email"`
	Type        string   `json:"type"`
	OpeningTime string   `json:"opening_time"`
	ClosingTime string   `json:"closing_time"`
	DoctorIDs   []string `json:"doctor_ids"`
}

type UpdateHospitalRequest struct {
	Name        *string   `json:"name"`
	Address     *string   `json:"address"`
	PhoneNumber *string   `json:"phone_number"`
	Email       *string   `json:"email"`
	Type        *string   `json:"type"`
	OpeningTime *string   `json:"opening_time"`
	ClosingTime *string   `json:"closing_time"`
	DoctorIDs   *[]string `json:"doctor_ids"`
}
