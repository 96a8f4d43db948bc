package validation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type gpaForm struct {
	Name     string     `json:"name" validate:"required,max=10"`
	Overall  *float64   `json:"overall_gpa" validate:"omitempty,gpa"`
	Semester []*float64 `json:"semester_gpas" validate:"max=5,dive,omitempty,gpa"`
}

func f(v float64) *float64 { return &v }

func TestGPATag(t *testing.T) {
	v := NewValidator()

	assert.NoError(t, v.ValidateStruct(gpaForm{Name: "kim", Overall: f(4.5)}))
	assert.NoError(t, v.ValidateStruct(gpaForm{Name: "kim", Overall: f(0)}))
	assert.NoError(t, v.ValidateStruct(gpaForm{Name: "kim", Semester: []*float64{f(3.2), nil, f(4.0)}}))

	err := v.ValidateStruct(gpaForm{Name: "kim", Overall: f(4.6)})
	require.Error(t, err)
	assert.Equal(t, map[string]string{"overall_gpa": "overall_gpa must be between 0 and 4.5"}, FormatValidationErrors(err))

	err = v.ValidateStruct(gpaForm{Name: "kim", Semester: []*float64{f(-1)}})
	require.Error(t, err)
	assert.Contains(t, Summary(err), "must be between 0 and 4.5")
}

func TestSummaryOrdersFields(t *testing.T) {
	v := NewValidator()

	err := v.ValidateStruct(gpaForm{Overall: f(9)})
	require.Error(t, err)
	assert.Equal(t, "name is required; overall_gpa must be between 0 and 4.5", Summary(err))
}

func TestValidateEmail(t *testing.T) {
	assert.True(t, ValidateEmail("admin@example.com"))
	assert.False(t, ValidateEmail("admin"))
	assert.False(t, ValidateEmail("a@b"))
}

func TestSanitizeString(t *testing.T) {
	assert.Equal(t, "물리학과", SanitizeString("  물리\x00학과 \n"))
}
