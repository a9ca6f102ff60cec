package validation

import (
	"strings"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/healthsync/healthsync-api/pkg/errors"
)

// Entity names used as rule table keys.
const (
	EntityPatient        = "patient"
	EntityDoctor         = "doctor"
	EntityHospital       = "hospital"
	EntityTimeSlot       = "timeslot"
	EntityBooking        = "booking"
	EntityAuthentication = "authentication"
)

type rule struct {
	tag     string
	message string
}

// rules maps entity and field onto a validator tag and the message
// reported when the value fails it. Fields absent from the table accept
// any value.
var rules = map[string]map[string]rule{
	EntityPatient: {
		"first_name":        {"required,max=100", "Invalid first_name"},
		"last_name":         {"required,max=100", "Invalid last_name"},
		"gender":            {"oneof=Male Female", "Gender must be Male or Female"},
		"cnic":              {"cnic", "CNIC must be exactly 13 digits."},
		"address":           {"required", "Invalid address"},
		"blood_type":        {"omitempty,max=3", "Invalid blood_type"},
		"emergency_contact": {"omitempty,max=20", "Invalid emergency_contact"},
	},
	EntityDoctor: {
		"first_name":     {"required,max=100", "Invalid first_name"},
		"last_name":      {"required,max=100", "Invalid last_name"},
		"gender":         {"oneof=Male Female", "Gender must be Male or Female"},
		"cnic":           {"cnic", "CNIC must be exactly 13 digits."},
		"picture":        {"omitempty,url", "Picture must be a URL"},
		"specialization": {"specialization", "Invalid specialization"},
		"hospital_name":  {"hospital_name", "Valid hospital name required"},
	},
	EntityHospital: {
		"name":         {"required,max=255", "Invalid name"},
		"address":      {"required", "Invalid address"},
		"phone_number": {"required,max=20", "Invalid phone_number"},
		"email":        {"required,email", "Invalid email"},
		"type":         {"oneof=clinic hospital", "Type must be clinic or hospital"},
	},
	EntityTimeSlot: {
		"doctor_id":           {"required,max=50", "Invalid doctor_id"},
		"hospital_id":         {"required,max=50", "Invalid hospital_id"},
		"availability_status": {"oneof=available unavailable", "availability_status must be available or unavailable"},
	},
	EntityBooking: {
		"patient_id":         {"required,max=50", "Invalid patient_id"},
		"doctor_id":          {"required,max=50", "Invalid doctor_id"},
		"timeslot_id":        {"required,max=50", "Invalid timeslot_id"},
		"appointment_status": {"oneof=confirmed cancelled completed", "appointment_status must be confirmed, cancelled or completed"},
	},
	EntityAuthentication: {
		"user_type":    {"oneof=doctor patient", "user_type must be doctor or patient"},
		"phone_number": {"required,max=20", "Invalid phone_number"},
		"email":        {"required,email", "Invalid email"},
		"password":     {"required", "Password required"},
	},
}

// Validator checks single fields against the rule table.
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := RegisterRules(v); err != nil {
		panic(err)
	}
	return &Validator{v: v}
}

// RegisterRules installs the custom tags on v.
func RegisterRules(v *validator.Validate) error {
	custom := map[string]validator.Func{
		"cnic": func(fl validator.FieldLevel) bool {
			return ValidCNIC(fl.Field().String())
		},
		"specialization": func(fl validator.FieldLevel) bool {
			return ValidSpecialization(fl.Field().String())
		},
		"hospital_name": func(fl validator.FieldLevel) bool {
			return ValidHospitalName(fl.Field().String())
		},
	}
	for tag, fn := range custom {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// Field validates value for entity.field and returns an InvalidFormat
// error carrying the field's message.
func (v *Validator) Field(entity, field string, value interface{}) error {
	r, ok := rules[entity][field]
	if !ok {
		return nil
	}
	if err := v.v.Var(value, r.tag); err != nil {
		return apperrors.NewInvalidFormat(r.message, err)
	}
	return nil
}

// First returns the first non-nil error.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

// RequireAll reports blank required fields as a MissingField error.
func RequireAll(fields ...Required) error {
	if missing := Missing(fields); len(missing) > 0 {
		return apperrors.NewMissingFields(missing...)
	}
	return nil
}

// NormalizeEmail lowercases and trims an address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
