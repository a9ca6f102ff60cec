package model

const (
	GenderMale   = "Male"
	GenderFemale = "Female"
)

type Patient struct {
	PatientID        string  `json:"patient_id" db:"patient_id"`
	FirstName        string  `json:"first_name" db:"first_name"`
	LastName         string  `json:"last_name" db:"last_name"`
	Gender           string  `json:"gender" db:"gender"`
	DateOfBirth      Date    `json:"date_of_birth" db:"date_of_birth"`
	Age              int     `json:"age" db:"age"`
	CNIC             string  `json:"cnic" db:"cnic"`
	Address          string  `json:"address" db:"address"`
	BloodType        *string `json:"blood_type" db:"blood_type"`
	EmergencyContact *string `json:"emergency_contact" db:"emergency_contact"`
	MedicalHistory   string  `json:"medical_history" db:"medical_history"`
	Timestamps
}

// CreatePatientRequest carries raw strings so that missing and
// malformed values can be reported field by field.
type CreatePatientRequest struct {
	FirstName        string  `json:"first_name"`
	LastName         string  `json:"last_name"`
	Gender           string  `json:"gender"`
	DateOfBirth      string  `json:"date_of_birth"`
	CNIC             string  `json:"cnic"`
	Address          string  `json:"address"`
	BloodType        *string `json:"blood_type"`
	EmergencyContact *string `json:"emergency_contact"`
	MedicalHistory   *string `json:"medical_history"`
}

type UpdatePatientRequest struct {
	FirstName        *string `json:"first_name"`
	LastName         *string `json:"last_name"`
	Gender           *string `json:"gender"`
	DateOfBirth      *string `json:"date_of_birth"`
	CNIC             *string `json:"cnic"`
	Address          *string `json:"address"`
	BloodType        *string `json:"blood_type"`
	EmergencyContact *string `json:"emergency_contact"`
	MedicalHistory   *string `json:"medical_history"`
}

// PatientCreated is the reduced record echoed on creation.
type PatientCreated struct {
	PatientID   string `json:"patient_id"`
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Gender      string `json:"gender"`
	DateOfBirth Date   `json:"date_of_birth"`
	CNIC        string `json:"cnic"`
	Message     string `json:"message"`
}

func (p *Patient) Created() *PatientCreated {
	return &PatientCreated{
		PatientID:   p.PatientID,
		FirstName:   p.FirstName,
		LastName:    p.LastName,
		Gender:      p.Gender,
		DateOfBirth: p.DateOfBirth,
		CNIC:        p.CNIC,
		Message:     "Patient created successfully",
	}
}
