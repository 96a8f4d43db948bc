package services

import (
	"testing"

	"github.com/sahilchouksey/admission-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ptr(v float64) *float64 { return &v }

func TestAggregateGPA(t *testing.T) {
	tests := []struct {
		name       string
		components []float64
		want       float64
	}{
		{"all provided", []float64{4.0, 3.0, 3.5, 4.5, 3.0}, 3.6},
		{"some missing", []float64{4.0, -1, 3.0, -1, -1}, 3.5},
		{"none provided", []float64{-1, -1, -1, -1, -1}, model.GPANotProvided},
		{"empty", nil, model.GPANotProvided},
		{"zero is a grade here", []float64{0, 4.0}, 2.0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, AggregateGPA(tt.components), 1e-9)
		})
	}
}

func TestUpdateGPAOverall(t *testing.T) {
	f := newFixture(t)
	s := f.student(t, "kim@example.com", -1)

	user, err := f.profiles.UpdateGPA(t.Context(), s.ID, GPAUpdate{
		Name:          "김학생",
		UseOverallGPA: true,
		OverallGPA:    ptr(4.1),
	})
	require.NoError(t, err)

	require.NotNil(t, user.OverallGPA)
	assert.InDelta(t, 4.1, *user.OverallGPA, 1e-9)
	assert.Equal(t, "김학생", user.Name)
	for _, gpa := range user.SemesterGPAs() {
		assert.Equal(t, model.GPANotProvided, gpa)
	}
	assert.True(t, user.HasGPA())
}

func TestUpdateGPASemesters(t *testing.T) {
	f := newFixture(t)
	s := f.student(t, "kim@example.com", 2.0)

	user, err := f.profiles.UpdateGPA(t.Context(), s.ID, GPAUpdate{
		SemesterGPAs: []*float64{ptr(4.0), nil, ptr(3.0), ptr(0)},
	})
	require.NoError(t, err)

	assert.Equal(t, []float64{4.0, -1, 3.0, -1, -1}, user.SemesterGPAs())
	require.NotNil(t, user.OverallGPA)
	assert.InDelta(t, 3.5, *user.OverallGPA, 1e-9)
	assert.Equal(t, "kim@example.com", user.Name)
}

func TestUpdateGPAWithNoSemestersClearsGPA(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)
	s := f.student(t, "kim@example.com", 3.0)

	user, err := f.profiles.UpdateGPA(t.Context(), s.ID, GPAUpdate{})
	require.NoError(t, err)
	assert.False(t, user.HasGPA())

	_, err = f.allocation.Submit(t.Context(), s.ID, c.d1.ID)
	assert.ErrorIs(t, err, ErrMissingGPA)
}

func TestUpdateGPARejectsBadInput(t *testing.T) {
	f := newFixture(t)
	s := f.student(t, "kim@example.com", 3.0)

	cases := map[string]GPAUpdate{
		"overall missing":    {UseOverallGPA: true},
		"overall too high":   {UseOverallGPA: true, OverallGPA: ptr(4.6)},
		"semester negative":  {SemesterGPAs: []*float64{ptr(-0.5)}},
		"too many semesters": {SemesterGPAs: []*float64{ptr(1), ptr(1), ptr(1), ptr(1), ptr(1), ptr(1)}},
	}
	for name, req := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := f.profiles.UpdateGPA(t.Context(), s.ID, req)
			assert.ErrorIs(t, err, ErrMalformedInput)
		})
	}

	profile, err := f.profiles.GetProfile(t.Context(), s.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, *profile.OverallGPA, 1e-9)
}

func TestUpdateGPAUnknownUser(t *testing.T) {
	f := newFixture(t)

	_, err := f.profiles.UpdateGPA(t.Context(), 404, GPAUpdate{UseOverallGPA: true, OverallGPA: ptr(3.0)})
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.profiles.GetProfile(t.Context(), 404)
	assert.ErrorIs(t, err, ErrNotFound)
}
