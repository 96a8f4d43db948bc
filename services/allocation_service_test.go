package services

import (
	"sync"
	"testing"

	"github.com/sahilchouksey/admission-api/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSubmitCreatesApplication(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)
	s := f.student(t, "kim@example.com", 4.0)

	result, err := f.allocation.Submit(t.Context(), s.ID, c.d1.ID)
	require.NoError(t, err)

	assert.False(t, result.Replaced)
	assert.False(t, result.Unchanged)
	require.NotNil(t, result.Application)
	assert.Equal(t, c.u1.ID, result.Application.UniversityID)
	require.Len(t, result.Ranking.Entries, 1)
	assert.True(t, result.Ranking.Entries[0].IsRequestingStudent)
	assert.Equal(t, 1, result.Ranking.CurrentApplications)
	assert.Equal(t, 1, f.counter(t, c.d1.ID))
}

func TestSubmitSameDepartmentTwiceIsNoop(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)
	s := f.student(t, "kim@example.com", 4.0)

	first, err := f.allocation.Submit(t.Context(), s.ID, c.d1.ID)
	require.NoError(t, err)

	second, err := f.allocation.Submit(t.Context(), s.ID, c.d1.ID)
	require.NoError(t, err)

	assert.True(t, second.Unchanged)
	assert.False(t, second.Replaced)
	assert.Equal(t, first.Application.ID, second.Application.ID)
	assert.Equal(t, 1, f.counter(t, c.d1.ID))
	assert.Equal(t, int64(1), f.applicationCount(t, "student_id = ?", s.ID))
}

func TestSubmitSwitchesWithinUniversity(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)
	s := f.student(t, "kim@example.com", 4.0)

	_, err := f.allocation.Submit(t.Context(), s.ID, c.d1.ID)
	require.NoError(t, err)

	result, err := f.allocation.Submit(t.Context(), s.ID, c.d2.ID)
	require.NoError(t, err)

	assert.True(t, result.Replaced)
	assert.Equal(t, c.d1.ID, result.ReplacedDepartmentID)
	assert.Equal(t, 0, f.counter(t, c.d1.ID))
	assert.Equal(t, 1, f.counter(t, c.d2.ID))
	assert.Equal(t, int64(1), f.applicationCount(t, "student_id = ? AND university_id = ?", s.ID, c.u1.ID))
	assert.Equal(t, int64(1), f.applicationCount(t, "student_id = ? AND department_id = ?", s.ID, c.d2.ID))
}

func TestSubmitSwitchRollsBackOnFailure(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)
	s := f.student(t, "kim@example.com", 4.0)

	first, err := f.allocation.Submit(t.Context(), s.ID, c.d1.ID)
	require.NoError(t, err)

	f.failCreates(t, "applications")

	_, err = f.allocation.Submit(t.Context(), s.ID, c.d2.ID)
	require.ErrorIs(t, err, ErrStoreFailure)

	assert.Equal(t, 1, f.counter(t, c.d1.ID))
	assert.Equal(t, 0, f.counter(t, c.d2.ID))
	assert.Equal(t, int64(1), f.applicationCount(t, "id = ? AND department_id = ?", first.Application.ID, c.d1.ID))
	assert.Equal(t, int64(0), f.applicationCount(t, "department_id = ?", c.d2.ID))
	f.requireCountersConsistent(t)
}

func TestSubmitOtherUniversityKeepsFirst(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)
	s := f.student(t, "kim@example.com", 4.0)

	_, err := f.allocation.Submit(t.Context(), s.ID, c.d1.ID)
	require.NoError(t, err)

	result, err := f.allocation.Submit(t.Context(), s.ID, c.d3.ID)
	require.NoError(t, err)

	assert.False(t, result.Replaced)
	assert.Equal(t, 1, f.counter(t, c.d1.ID))
	assert.Equal(t, 1, f.counter(t, c.d3.ID))
	assert.Equal(t, int64(2), f.applicationCount(t, "student_id = ?", s.ID))

	mine, err := f.allocation.ListForStudent(t.Context(), s.ID)
	require.NoError(t, err)
	require.Len(t, mine, 2)
	assert.Equal(t, c.d1.ID, mine[0].DepartmentID)
	assert.Equal(t, "대곽대학교", mine[0].UniversityName)
	assert.Equal(t, c.d3.ID, mine[1].DepartmentID)
}

func TestSubmitWithoutGPAIsRejected(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)

	noGPA := f.student(t, "nogpa@example.com", -1)
	_, err := f.allocation.Submit(t.Context(), noGPA.ID, c.d1.ID)
	assert.ErrorIs(t, err, ErrMissingGPA)

	// The -1 aggregate from an empty semester profile counts as missing too
	sentinel := model.GPANotProvided
	empty := model.User{Email: "empty@example.com", Name: "empty", OverallGPA: &sentinel}
	require.NoError(t, f.db.Create(&empty).Error)
	_, err = f.allocation.Submit(t.Context(), empty.ID, c.d1.ID)
	assert.ErrorIs(t, err, ErrMissingGPA)

	assert.Equal(t, 0, f.counter(t, c.d1.ID))
	assert.Equal(t, int64(0), f.applicationCount(t, "department_id = ?", c.d1.ID))
}

func TestSubmitUnknownReferences(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)
	s := f.student(t, "kim@example.com", 3.5)

	_, err := f.allocation.Submit(t.Context(), s.ID, 9999)
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = f.allocation.Submit(t.Context(), 9999, c.d1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestWithdraw(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)
	s := f.student(t, "kim@example.com", 4.0)

	_, err := f.allocation.Submit(t.Context(), s.ID, c.d1.ID)
	require.NoError(t, err)

	require.NoError(t, f.allocation.Withdraw(t.Context(), s.ID, c.d1.ID))
	assert.Equal(t, 0, f.counter(t, c.d1.ID))

	// A retry finds nothing left to withdraw
	err = f.allocation.Withdraw(t.Context(), s.ID, c.d1.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, 0, f.counter(t, c.d1.ID))
}

func TestConcurrentSubmitsKeepOnePerUniversity(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)

	students := make([]*model.User, 5)
	for i := range students {
		students[i] = f.student(t, string(rune('a'+i))+"@example.com", 3.0+float64(i)/10)
	}

	var wg sync.WaitGroup
	for _, s := range students {
		for round := 0; round < 4; round++ {
			for _, d := range []uint{c.d1.ID, c.d2.ID, c.d3.ID} {
				wg.Add(1)
				go func(studentID, departmentID uint) {
					defer wg.Done()
					_, err := f.allocation.Submit(t.Context(), studentID, departmentID)
					assert.NoError(t, err)
				}(s.ID, d)
			}
		}
	}
	wg.Wait()

	for _, s := range students {
		assert.Equal(t, int64(1), f.applicationCount(t, "student_id = ? AND university_id = ?", s.ID, c.u1.ID))
		assert.Equal(t, int64(1), f.applicationCount(t, "student_id = ? AND university_id = ?", s.ID, c.u2.ID))
	}
	assert.Equal(t, len(students), f.counter(t, c.d1.ID)+f.counter(t, c.d2.ID))
	assert.Equal(t, len(students), f.counter(t, c.d3.ID))
	f.requireCountersConsistent(t)
}

func TestRemoveStudentDecrementsCounters(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)
	s := f.student(t, "kim@example.com", 4.0)
	other := f.student(t, "lee@example.com", 3.0)

	for _, d := range []uint{c.d1.ID, c.d3.ID} {
		_, err := f.allocation.Submit(t.Context(), s.ID, d)
		require.NoError(t, err)
	}
	_, err := f.allocation.Submit(t.Context(), other.ID, c.d1.ID)
	require.NoError(t, err)

	require.NoError(t, f.allocation.RemoveStudent(t.Context(), s.ID))

	assert.Equal(t, 1, f.counter(t, c.d1.ID))
	assert.Equal(t, 0, f.counter(t, c.d3.ID))
	f.requireCountersConsistent(t)

	_, err = f.allocation.ListForStudent(t.Context(), s.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestReconcileCountersRepairsDrift(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)
	s := f.student(t, "kim@example.com", 4.0)

	_, err := f.allocation.Submit(t.Context(), s.ID, c.d1.ID)
	require.NoError(t, err)

	// Simulate a write that bypassed the allocation engine
	require.NoError(t, f.db.Model(&model.Department{}).Where("id = ?", c.d2.ID).
		UpdateColumn("current_applications", 7).Error)

	report, err := f.allocation.ReconcileCounters(t.Context())
	require.NoError(t, err)

	assert.Equal(t, 3, report.Checked)
	require.Len(t, report.Repaired, 1)
	assert.Equal(t, CounterDrift{DepartmentID: c.d2.ID, Stored: 7, Actual: 0}, report.Repaired[0])
	f.requireCountersConsistent(t)

	again, err := f.allocation.ReconcileCounters(t.Context())
	require.NoError(t, err)
	assert.Empty(t, again.Repaired)
}

func TestListForDepartmentFlagsRequester(t *testing.T) {
	f := newFixture(t)
	c := f.campus(t)
	a := f.student(t, "a@example.com", 3.8)
	b := f.student(t, "b@example.com", 4.2)

	for _, s := range []*model.User{a, b} {
		_, err := f.allocation.Submit(t.Context(), s.ID, c.d1.ID)
		require.NoError(t, err)
	}

	ranking, err := f.allocation.ListForDepartment(t.Context(), c.d1.ID, a.ID)
	require.NoError(t, err)
	require.Len(t, ranking.Entries, 2)
	assert.False(t, ranking.Entries[0].IsRequestingStudent)
	assert.True(t, ranking.Entries[1].IsRequestingStudent)

	anonymous, err := f.allocation.ListForDepartment(t.Context(), c.d1.ID, 0)
	require.NoError(t, err)
	for _, e := range anonymous.Entries {
		assert.False(t, e.IsRequestingStudent)
	}
}
