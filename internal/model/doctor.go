package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
)

// Specializations a doctor may practise.
var Specializations = []string{
	"Cardiology",
	"Dermatology",
	"Orthopedics",
	"Pediatrics",
	"Neurology",
}

// Education is stored as JSONB. Field order matches the wire format.
type Education struct {
	Degree string `json:"degree"`
	School string `json:"school"`
	Year   int    `json:"year"`
}

func (e Education) Value() (driver.Value, error) {
	return json.Marshal(e)
}

func (e *Education) Scan(src interface{}) error {
	var b []byte
	switch v := src.(type) {
	case []byte:
		b = v
	case string:
		b = []byte(v)
	case nil:
		return errors.New("education is null")
	default:
		return fmt.Errorf("cannot scan %T into Education", src)
	}
	return json.Unmarshal(b, e)
}

type Doctor struct {
	DoctorID       string    `json:"doctor_id" db:"doctor_id"`
	FirstName      string    `json:"first_name" db:"first_name"`
	LastName       string    `json:"last_name" db:"last_name"`
	Gender         string    `json:"gender" db:"gender"`
	DateOfBirth    Date      `json:"date_of_birth" db:"date_of_birth"`
	Age            int       `json:"age" db:"age"`
	CNIC           string    `json:"cnic" db:"cnic"`
	Picture        *string   `json:"picture" db:"picture"`
	Education      Education `json:"education" db:"education"`
	Specialization string    `json:"specialization" db:"specialization"`
	HospitalName   string    `json:"hospital_name" db:"hospital_name"`
	Timestamps
}

// DoctorSummary is the abbreviated doctor view.
type DoctorSummary struct {
	FirstName      string  `json:"first_name"`
	LastName       string  `json:"last_name"`
	Picture        *string `json:"picture"`
	Specialization string  `json:"specialization"`
	HospitalName   string  `json:"hospital_name"`
}

func (d *Doctor) Summary() *DoctorSummary {
	return &DoctorSummary{
		FirstName:      d.FirstName,
		LastName:       d.LastName,
		Picture:        d.Picture,
		Specialization: d.Specialization,
		HospitalName:   d.HospitalName,
	}
}

type CreateDoctorRequest struct {
	FirstName      string          `json:"first_name"`
	LastName       string          `json:"last_name"`
	Gender         string          `json:"gender"`
	DateOfBirth    string          `json:"date_of_birth"`
	CNIC           string          `json:"cnic"`
	Picture        *string         `json:"picture"`
	Education      json.RawMessage `json:"education"`
	Specialization string          `json:"specialization"`
	HospitalName   string          `json:"hospital_name"`
}

type UpdateDoctorRequest struct {
	FirstName      *string         `json:"first_name"`
	LastName       *string         `json:"last_name"`
	Gender         *string         `json:"gender"`
	DateOfBirth    *string         `json:"date_of_birth"`
	CNIC           *string         `json:"cnic"`
	Picture        *string         `json:"picture"`
	Education      json.RawMessage `json:"education"`
	Specialization *string         `json:"specialization"`
	HospitalName   *string         `json:"hospital_name"`
}
