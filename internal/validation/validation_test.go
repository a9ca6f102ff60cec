package validation

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/healthsync/healthsync-api/internal/model"
	apperrors "github.com/healthsync/healthsync-api/pkg/errors"
)

func TestValidCNIC(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"3520212345678", true},
		{"0000000000000", true},
		{"", false},
		{"352021234567", false},
		{"35202123456789", false},
		{"35202-1234567", false},
		{"352021234567a", false},
		{" 3520212345678", false},
		{"٣٥٢٠٢١٢٣٤٥٦٧٨", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, ValidCNIC(tt.in), "cnic %q", tt.in)
	}
}

func TestAge(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	}
	dob := day(1990, time.June, 15)

	tests := []struct {
		name  string
		dob   time.Time
		today time.Time
		want  int
	}{
		{"birthday today", dob, day(2024, time.June, 15), 34},
		{"birthday tomorrow", dob, day(2024, time.June, 14), 33},
		{"birthday yesterday", dob, day(2024, time.June, 16), 34},
		{"earlier month", dob, day(2024, time.January, 30), 33},
		{"leap day on leap year", day(2000, time.February, 29), day(2024, time.February, 29), 24},
		{"leap day before birthday in common year", day(2000, time.February, 29), day(2023, time.February, 28), 22},
		{"leap day reached on march first", day(2000, time.February, 29), day(2023, time.March, 1), 23},
		{"born today", day(2024, time.May, 1), day(2024, time.May, 1), 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Age(tt.dob, tt.today))
		})
	}
}

func TestParseEducation(t *testing.T) {
	edu, err := ParseEducation(json.RawMessage(`{"degree":"MBBS","school":"X","year":2010}`))
	require.NoError(t, err)
	assert.Equal(t, model.Education{Degree: "MBBS", School: "X", Year: 2010}, edu)

	edu, err = ParseEducation(json.RawMessage(`{"year":"1999","school":"Y","degree":"MD"}`))
	require.NoError(t, err)
	assert.Equal(t, 1999, edu.Year)

	for _, raw := range []string{
		`"MBBS"`,
		`[]`,
		`null`,
		`{"degree":"MBBS","school":"X"}`,
		`{"degree":"MBBS","school":"X","year":2010,"extra":1}`,
		`{"degree":"MBBS","school":"X","year":"soon"}`,
		`{"degree":"","school":"X","year":2010}`,
		`{"degree":1,"school":"X","year":2010}`,
	} {
		_, err := ParseEducation(json.RawMessage(raw))
		assert.ErrorIs(t, err, ErrEducationShape, raw)
	}
}

func TestParseFee(t *testing.T) {
	f, err := ParseFee(json.RawMessage(`1500`))
	require.NoError(t, err)
	assert.Equal(t, 1500.0, f)

	f, err = ParseFee(json.RawMessage(`"99.50"`))
	require.NoError(t, err)
	assert.Equal(t, 99.5, f)

	_, err = ParseFee(json.RawMessage(`-1`))
	assert.Error(t, err)
	_, err = ParseFee(json.RawMessage(`"free"`))
	assert.Error(t, err)
}

func TestRequireAllKeepsOrder(t *testing.T) {
	err := RequireAll(
		Str("patient_id", ""),
		Str("doctor_id", "D1"),
		Str("timeslot_id", "  "),
		Raw("education", json.RawMessage(`{}`)),
	)
	require.Error(t, err)
	assert.Equal(t, "Missing fields: patient_id, timeslot_id, education", err.Error())
	assert.True(t, apperrors.Is(err, apperrors.ErrMissingField))

	assert.NoError(t, RequireAll(Str("a", "x")))
}

func TestValidatorField(t *testing.T) {
	v := New()

	assert.NoError(t, v.Field(EntityDoctor, "specialization", "Cardiology"))
	err := v.Field(EntityDoctor, "specialization", "Surgery")
	require.Error(t, err)
	assert.Equal(t, "Invalid specialization", apperrors.PublicMessage(err))

	assert.NoError(t, v.Field(EntityPatient, "cnic", "3520212345678"))
	assert.True(t, apperrors.Is(v.Field(EntityPatient, "cnic", "123"), apperrors.ErrInvalidFormat))

	assert.NoError(t, v.Field(EntityDoctor, "hospital_name", " AK "))
	assert.Error(t, v.Field(EntityDoctor, "hospital_name", " A "))

	assert.NoError(t, v.Field(EntityHospital, "type", "clinic"))
	assert.Error(t, v.Field(EntityHospital, "type", "pharmacy"))
	assert.Error(t, v.Field(EntityHospital, "email", "not-an-email"))

	assert.NoError(t, v.Field(EntityDoctor, "picture", ""))
	assert.Error(t, v.Field(EntityDoctor, "picture", "not a url"))

	assert.NoError(t, v.Field(EntityPatient, "unknown_field", "anything"))
}

func TestNullableText(t *testing.T) {
	s := func(v string) *string { return &v }
	assert.Nil(t, NullableText(nil))
	assert.Nil(t, NullableText(s("")))
	assert.Nil(t, NullableText(s("null")))
	assert.Equal(t, "0300", *NullableText(s("0300")))
}
