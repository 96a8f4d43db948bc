package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateUniversityRejectsDuplicates(t *testing.T) {
	f := newFixture(t)
	f.university(t, "대곽대학교")

	_, err := f.hierarchy.CreateUniversity(t.Context(), "대곽대학교")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.hierarchy.CreateUniversity(t.Context(), "")
	assert.ErrorIs(t, err, ErrMalformedInput)
}

func TestCollegeNamesAreScopedToUniversity(t *testing.T) {
	f := newFixture(t)
	u1 := f.university(t, "대곽대학교")
	u2 := f.university(t, "짭곽대학교")

	f.college(t, u1.ID, "공과대학")
	f.college(t, u2.ID, "공과대학")

	_, err := f.hierarchy.CreateCollege(t.Context(), u1.ID, "공과대학")
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.hierarchy.CreateCollege(t.Context(), 999, "공과대학")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCreateDepartmentValidation(t *testing.T) {
	f := newFixture(t)
	u := f.university(t, "대곽대학교")
	c := f.college(t, u.ID, "자연전공")
	f.department(t, c.ID, "물리학과", 6)

	_, err := f.hierarchy.CreateDepartment(t.Context(), c.ID, "물리학과", 3)
	assert.ErrorIs(t, err, ErrConflict)

	_, err = f.hierarchy.CreateDepartment(t.Context(), c.ID, "화학과", 0)
	assert.ErrorIs(t, err, ErrMalformedInput)

	_, err = f.hierarchy.CreateDepartment(t.Context(), 999, "화학과", 3)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGetUniversityIncludesHierarchy(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)

	u, err := f.hierarchy.GetUniversity(t.Context(), c.u1.ID)
	require.NoError(t, err)
	require.Len(t, u.Colleges, 1)
	require.Len(t, u.Colleges[0].Departments, 2)
	assert.Equal(t, "물리학과", u.Colleges[0].Departments[0].Name)

	_, err = f.hierarchy.GetUniversity(t.Context(), 999)
	assert.ErrorIs(t, err, ErrNotFound)

	universityID, err := f.hierarchy.UniversityOfDepartment(t.Context(), c.d3.ID)
	require.NoError(t, err)
	assert.Equal(t, c.u2.ID, universityID)
}

func TestRenameUniversity(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)

	renamed, err := f.hierarchy.RenameUniversity(t.Context(), c.u1.ID, "새대곽대학교")
	require.NoError(t, err)
	assert.Equal(t, "새대곽대학교", renamed.Name)

	_, err = f.hierarchy.RenameUniversity(t.Context(), c.u1.ID, "짭곽대학교")
	assert.ErrorIs(t, err, ErrConflict)
}

func TestUpdateDepartmentCapacityKeepsCounter(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)
	s := f.student(t, "kim@example.com", 3.9)
	_, err := f.allocation.Submit(t.Context(), s.ID, c.d1.ID)
	require.NoError(t, err)

	d, err := f.hierarchy.UpdateDepartmentCapacity(t.Context(), c.d1.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, 20, d.Capacity)
	assert.Equal(t, 1, d.CurrentApplications)

	_, err = f.hierarchy.UpdateDepartmentCapacity(t.Context(), 999, 20)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteUniversityRemovesApplications(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)
	s := f.student(t, "kim@example.com", 3.9)
	for _, d := range []uint{c.d1.ID, c.d3.ID} {
		_, err := f.allocation.Submit(t.Context(), s.ID, d)
		require.NoError(t, err)
	}

	require.NoError(t, f.hierarchy.DeleteUniversity(t.Context(), c.u1.ID))

	assert.Equal(t, int64(0), f.applicationCount(t, "university_id = ?", c.u1.ID))
	assert.Equal(t, int64(1), f.applicationCount(t, "student_id = ?", s.ID))
	_, err := f.hierarchy.GetDepartment(t.Context(), c.d1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	f.requireCountersConsistent(t)

	err = f.hierarchy.DeleteUniversity(t.Context(), c.u1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestDeleteCollegeAndDepartment(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)
	s := f.student(t, "kim@example.com", 3.9)
	_, err := f.allocation.Submit(t.Context(), s.ID, c.d2.ID)
	require.NoError(t, err)

	require.NoError(t, f.hierarchy.DeleteDepartment(t.Context(), c.d2.ID))
	assert.Equal(t, int64(0), f.applicationCount(t, "student_id = ?", s.ID))

	// With the old application gone the student may apply within U1 again
	_, err = f.allocation.Submit(t.Context(), s.ID, c.d1.ID)
	require.NoError(t, err)

	u, err := f.hierarchy.GetUniversity(t.Context(), c.u1.ID)
	require.NoError(t, err)
	require.NoError(t, f.hierarchy.DeleteCollege(t.Context(), u.Colleges[0].ID))
	assert.Equal(t, int64(0), f.applicationCount(t, "student_id = ?", s.ID))

	_, err = f.hierarchy.DepartmentsOf(t.Context(), u.Colleges[0].ID)
	assert.ErrorIs(t, err, ErrNotFound)
	f.requireCountersConsistent(t)
}
