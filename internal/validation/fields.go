// Package validation holds the field checks shared by every entity.
package validation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/healthsync/healthsync-api/internal/model"
)

var cnicPattern = regexp.MustCompile(`^[0-9]{13}$`)

// ValidCNIC accepts exactly 13 ASCII digits.
func ValidCNIC(s string) bool {
	return cnicPattern.MatchString(s)
}

// Age is the number of whole years between dob and today. A Feb 29
// birthday is reached on Mar 1 in non-leap years.
func Age(dob, today time.Time) int {
	age := today.Year() - dob.Year()
	if today.Month() < dob.Month() || (today.Month() == dob.Month() && today.Day() < dob.Day()) {
		age--
	}
	return age
}

func ValidSpecialization(s string) bool {
	for _, sp := range model.Specializations {
		if s == sp {
			return true
		}
	}
	return false
}

func ValidHospitalName(s string) bool {
	return len([]rune(strings.TrimSpace(s))) >= 2
}

var educationKeys = []string{"degree", "school", "year"}

// ErrEducationShape is returned for anything other than an object with
// exactly the keys degree, school and year.
var ErrEducationShape = fmt.Errorf("education must be a JSON object with degree, school, and year")

// ParseEducation decodes a strict {degree, school, year} object. Year may
// be a JSON integer or a string of digits.
func ParseEducation(raw json.RawMessage) (model.Education, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil || fields == nil {
		return model.Education{}, ErrEducationShape
	}
	if len(fields) != len(educationKeys) {
		return model.Education{}, ErrEducationShape
	}
	for _, k := range educationKeys {
		if _, ok := fields[k]; !ok {
			return model.Education{}, ErrEducationShape
		}
	}

	var edu model.Education
	if err := json.Unmarshal(fields["degree"], &edu.Degree); err != nil {
		return model.Education{}, ErrEducationShape
	}
	if err := json.Unmarshal(fields["school"], &edu.School); err != nil {
		return model.Education{}, ErrEducationShape
	}
	if strings.TrimSpace(edu.Degree) == "" || strings.TrimSpace(edu.School) == "" {
		return model.Education{}, ErrEducationShape
	}
	year, err := parseInt(fields["year"])
	if err != nil {
		return model.Education{}, ErrEducationShape
	}
	edu.Year = year
	return edu, nil
}

func parseInt(raw json.RawMessage) (int, error) {
	var n int
	if err := json.Unmarshal(raw, &n); err == nil {
		return n, nil
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(s))
}

// ParseFee accepts a non-negative JSON number or numeric string.
func ParseFee(raw json.RawMessage) (float64, error) {
	var f float64
	if err := json.Unmarshal(raw, &f); err != nil {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, fmt.Errorf("fee must be a number")
		}
		f, err = strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			return 0, fmt.Errorf("fee must be a number")
		}
	}
	if f < 0 {
		return 0, fmt.Errorf("fee must not be negative")
	}
	return f, nil
}

// EmptyJSON reports whether raw is absent, null, "" or an empty object.
func EmptyJSON(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	switch string(trimmed) {
	case "", "null", `""`, "{}", "[]":
		return true
	}
	return false
}

// NullableText normalizes "", "null" and nil to nil.
func NullableText(s *string) *string {
	if s == nil {
		return nil
	}
	v := strings.TrimSpace(*s)
	if v == "" || v == "null" {
		return nil
	}
	return &v
}

// Missing returns the names whose value is blank, in the order given.
func Missing(fields []Required) []string {
	var missing []string
	for _, f := range fields {
		if f.Blank {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Required pairs a field name with whether its value was left blank.
type Required struct {
	Name  string
	Blank bool
}

func Str(name, value string) Required {
	return Required{Name: name, Blank: strings.TrimSpace(value) == ""}
}

func Raw(name string, value json.RawMessage) Required {
	return Required{Name: name, Blank: EmptyJSON(value)}
}
