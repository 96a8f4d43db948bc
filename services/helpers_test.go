package services

import (
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/sahilchouksey/admission-api/database"
	"github.com/sahilchouksey/admission-api/model"
	"github.com/sahilchouksey/admission-api/utils/cache"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// fixture is a migrated in-memory database with the services wired to it
type fixture struct {
	db         *gorm.DB
	hierarchy  *HierarchyService
	ranking    *RankingService
	allocation *AllocationService
	imports    *ImportService
	profiles   *ProfileService
	accounts   *AccountService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store, err := database.StartSQLite(database.MemoryDSN(uuid.NewString()))
	require.NoError(t, err)
	require.NoError(t, store.Init())
	t.Cleanup(func() { store.Close() })

	db := store.GetDB()
	ranking := NewRankingService(db)
	allocation := NewAllocationService(db, ranking, cache.NewLocalLocker())

	return &fixture{
		db:         db,
		hierarchy:  NewHierarchyService(db),
		ranking:    ranking,
		allocation: allocation,
		imports:    NewImportService(db, nil),
		profiles:   NewProfileService(db),
		accounts:   NewAccountService(db, allocation),
	}
}

func (f *fixture) university(t *testing.T, name string) *model.University {
	t.Helper()
	u, err := f.hierarchy.CreateUniversity(t.Context(), name)
	require.NoError(t, err)
	return u
}

func (f *fixture) college(t *testing.T, universityID uint, name string) *model.College {
	t.Helper()
	c, err := f.hierarchy.CreateCollege(t.Context(), universityID, name)
	require.NoError(t, err)
	return c
}

func (f *fixture) department(t *testing.T, collegeID uint, name string, capacity int) *model.Department {
	t.Helper()
	d, err := f.hierarchy.CreateDepartment(t.Context(), collegeID, name, capacity)
	require.NoError(t, err)
	return d
}

// student creates a student; a negative gpa leaves the GPA unset
func (f *fixture) student(t *testing.T, email string, gpa float64) *model.User {
	t.Helper()
	user := model.User{Email: email, Name: email}
	if gpa >= 0 {
		user.OverallGPA = &gpa
	}
	require.NoError(t, f.db.Create(&user).Error)
	return &user
}

func (f *fixture) counter(t *testing.T, departmentID uint) int {
	t.Helper()
	var d model.Department
	require.NoError(t, f.db.First(&d, departmentID).Error)
	return d.CurrentApplications
}

func (f *fixture) applicationCount(t *testing.T, query string, args ...interface{}) int64 {
	t.Helper()
	var n int64
	require.NoError(t, f.db.Model(&model.Application{}).Where(query, args...).Count(&n).Error)
	return n
}

// requireCountersConsistent checks every department counter against its rows
func (f *fixture) requireCountersConsistent(t *testing.T) {
	t.Helper()
	var departments []model.Department
	require.NoError(t, f.db.Find(&departments).Error)
	for _, d := range departments {
		actual := f.applicationCount(t, "department_id = ?", d.ID)
		require.Equalf(t, int(actual), d.CurrentApplications, "department %d (%s)", d.ID, d.Name)
	}
}

// campus is two universities; U1 has departments d1 and d2, U2 has d3
type campus struct {
	u1, u2     *model.University
	d1, d2, d3 *model.Department
}

func (f *fixture) campus(t *testing.T) campus {
	t.Helper()
	u1 := f.university(t, "대곽대학교")
	c1 := f.college(t, u1.ID, "자연전공")
	u2 := f.university(t, "짭곽대학교")
	c2 := f.college(t, u2.ID, "글로벌한 학과")
	return campus{
		u1: u1,
		u2: u2,
		d1: f.department(t, c1.ID, "물리학과", 6),
		d2: f.department(t, c1.ID, "화학과", 8),
		d3: f.department(t, c2.ID, "듀오링고과", 5),
	}
}

// failCreates makes every insert into table fail until the test ends
func (f *fixture) failCreates(t *testing.T, table string) {
	t.Helper()
	name := "test:fail_create_" + table
	require.NoError(t, f.db.Callback().Create().Before("gorm:create").Register(name, func(db *gorm.DB) {
		if db.Statement.Table == table {
			db.AddError(errors.New("boom"))
		}
	}))
	t.Cleanup(func() { _ = f.db.Callback().Create().Remove(name) })
}
