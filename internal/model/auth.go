package model

const (
	UserTypePatient = "patient"
	UserTypeDoctor  = "doctor"
)

// Authentication links a patient or doctor to login credentials. The
// digest is never serialized.
type Authentication struct {
	UserID         string `json:"user_id" db:"user_id"`
	UserType       string `json:"user_type" db:"user_type"`
	PhoneNumber    string `json:"phone_number" db:"phone_number"`
	Email          string `json:"email" db:"email"`
	PasswordDigest string `json:"-" db:"password"`
	Timestamps
}

type RegisterRequest struct {
	UserID      string `json:"user_id"`
	UserType    string `json:"user_type"`
	PhoneNumber string `json:"phone_number"`
	Email       string `json:"email"`
	Password    string `json:"password"`
}

type UpdateAuthenticationRequest struct {
	UserType    *string `json:"user_type"`
	PhoneNumber *string `json:"phone_number"`
	Email       *string `json:"email"`
	Password    *string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	UserID      string `json:"user_id"`
	UserType    string `json:"user_type"`
	AccessToken string `json:"access_token"`
}

// UserRef is the public result of an email lookup.
type UserRef struct {
	UserID   string `json:"user_id"`
	UserType string `json:"user_type"`
}
