package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/admission-api/model"
	"gorm.io/gorm"
)

// HierarchyService owns University -> College -> Department records.
// Nothing else writes hierarchy rows; the allocation engine only touches the
// department application counter.
type HierarchyService struct {
	db *gorm.DB
}

// NewHierarchyService creates a new hierarchy service
func NewHierarchyService(db *gorm.DB) *HierarchyService {
	return &HierarchyService{db: db}
}

func orderByID(table string) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Order(table + ".id ASC")
	}
}

// ListUniversities returns every university with its colleges and departments nested,
// all in insertion order.
func (s *HierarchyService) ListUniversities(ctx context.Context) ([]model.University, error) {
	var universities []model.University
	err := s.db.WithContext(ctx).
		Preload("Colleges", orderByID("colleges")).
		Preload("Colleges.Departments", orderByID("departments")).
		Order("universities.id ASC").
		Find(&universities).Error
	if err != nil {
		return nil, storeError("list universities", err)
	}
	return universities, nil
}

// GetUniversity returns one university with nested colleges and departments
func (s *HierarchyService) GetUniversity(ctx context.Context, id uint) (*model.University, error) {
	var university model.University
	err := s.db.WithContext(ctx).
		Preload("Colleges", orderByID("colleges")).
		Preload("Colleges.Departments", orderByID("departments")).
		First(&university, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("university", id)
		}
		return nil, storeError("get university", err)
	}
	return &university, nil
}

// CreateUniversity creates a university; names are globally unique
func (s *HierarchyService) CreateUniversity(ctx context.Context, name string) (*model.University, error) {
	if name == "" {
		return nil, fmt.Errorf("university name is required: %w", ErrMalformedInput)
	}

	db := s.db.WithContext(ctx)

	var count int64
	if err := db.Model(&model.University{}).Where("name = ?", name).Count(&count).Error; err != nil {
		return nil, storeError("check university name", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("university %q already exists: %w", name, ErrConflict)
	}

	university := model.University{Name: name}
	if err := db.Create(&university).Error; err != nil {
		return nil, storeError("create university", err)
	}
	return &university, nil
}

// RenameUniversity changes a university's name
func (s *HierarchyService) RenameUniversity(ctx context.Context, id uint, name string) (*model.University, error) {
	if name == "" {
		return nil, fmt.Errorf("university name is required: %w", ErrMalformedInput)
	}

	db := s.db.WithContext(ctx)

	var university model.University
	if err := db.First(&university, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("university", id)
		}
		return nil, storeError("get university", err)
	}

	var count int64
	if err := db.Model(&model.University{}).Where("name = ? AND id <> ?", name, id).Count(&count).Error; err != nil {
		return nil, storeError("check university name", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("university %q already exists: %w", name, ErrConflict)
	}

	university.Name = name
	if err := db.Save(&university).Error; err != nil {
		return nil, storeError("rename university", err)
	}
	return &university, nil
}

// DeleteUniversity removes a university along with its colleges, their departments
// and every application pointing into them.
func (s *HierarchyService) DeleteUniversity(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var university model.University
		if err := tx.First(&university, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("university", id)
			}
			return storeError("get university", err)
		}

		colleges := tx.Model(&model.College{}).Select("id").Where("university_id = ?", id)
		departments := tx.Model(&model.Department{}).Select("id").Where("college_id IN (?)", colleges)

		if err := tx.Where("department_id IN (?)", departments).Delete(&model.Application{}).Error; err != nil {
			return storeError("delete applications", err)
		}
		if err := tx.Where("college_id IN (?)", colleges).Delete(&model.Department{}).Error; err != nil {
			return storeError("delete departments", err)
		}
		if err := tx.Where("university_id = ?", id).Delete(&model.College{}).Error; err != nil {
			return storeError("delete colleges", err)
		}
		if err := tx.Delete(&university).Error; err != nil {
			return storeError("delete university", err)
		}

		log.Infof("deleted university %d (%s) with all colleges, departments and applications", id, university.Name)
		return nil
	})
}

// CreateCollege creates a college under a university; names are unique per university
func (s *HierarchyService) CreateCollege(ctx context.Context, universityID uint, name string) (*model.College, error) {
	if name == "" {
		return nil, fmt.Errorf("college name is required: %w", ErrMalformedInput)
	}

	db := s.db.WithContext(ctx)

	var university model.University
	if err := db.Select("id").First(&university, universityID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("university", universityID)
		}
		return nil, storeError("get university", err)
	}

	var count int64
	err := db.Model(&model.College{}).
		Where("university_id = ? AND name = ?", universityID, name).
		Count(&count).Error
	if err != nil {
		return nil, storeError("check college name", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("college %q already exists in university %d: %w", name, universityID, ErrConflict)
	}

	college := model.College{UniversityID: universityID, Name: name}
	if err := db.Create(&college).Error; err != nil {
		return nil, storeError("create college", err)
	}
	return &college, nil
}

// DeleteCollege removes a college, its departments and their applications
func (s *HierarchyService) DeleteCollege(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var college model.College
		if err := tx.First(&college, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("college", id)
			}
			return storeError("get college", err)
		}

		departments := tx.Model(&model.Department{}).Select("id").Where("college_id = ?", id)
		if err := tx.Where("department_id IN (?)", departments).Delete(&model.Application{}).Error; err != nil {
			return storeError("delete applications", err)
		}
		if err := tx.Where("college_id = ?", id).Delete(&model.Department{}).Error; err != nil {
			return storeError("delete departments", err)
		}
		if err := tx.Delete(&college).Error; err != nil {
			return storeError("delete college", err)
		}
		return nil
	})
}

// CreateDepartment creates a department with an empty application counter
func (s *HierarchyService) CreateDepartment(ctx context.Context, collegeID uint, name string, capacity int) (*model.Department, error) {
	if name == "" {
		return nil, fmt.Errorf("department name is required: %w", ErrMalformedInput)
	}
	if capacity < 1 {
		return nil, fmt.Errorf("capacity must be positive: %w", ErrMalformedInput)
	}

	db := s.db.WithContext(ctx)

	var college model.College
	if err := db.Select("id").First(&college, collegeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("college", collegeID)
		}
		return nil, storeError("get college", err)
	}

	var count int64
	err := db.Model(&model.Department{}).
		Where("college_id = ? AND name = ?", collegeID, name).
		Count(&count).Error
	if err != nil {
		return nil, storeError("check department name", err)
	}
	if count > 0 {
		return nil, fmt.Errorf("department %q already exists in college %d: %w", name, collegeID, ErrConflict)
	}

	department := model.Department{
		CollegeID:           collegeID,
		Name:                name,
		Capacity:            capacity,
		CurrentApplications: 0,
	}
	if err := db.Create(&department).Error; err != nil {
		return nil, storeError("create department", err)
	}
	return &department, nil
}

// UpdateDepartmentCapacity sets the advisory capacity; the counter is left alone
func (s *HierarchyService) UpdateDepartmentCapacity(ctx context.Context, id uint, capacity int) (*model.Department, error) {
	if capacity < 1 {
		return nil, fmt.Errorf("capacity must be positive: %w", ErrMalformedInput)
	}

	db := s.db.WithContext(ctx)

	result := db.Model(&model.Department{}).Where("id = ?", id).UpdateColumn("capacity", capacity)
	if result.Error != nil {
		return nil, storeError("update capacity", result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, notFound("department", id)
	}
	return s.GetDepartment(ctx, id)
}

// DeleteDepartment removes a department and every application to it
func (s *HierarchyService) DeleteDepartment(ctx context.Context, id uint) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var department model.Department
		if err := tx.First(&department, id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return notFound("department", id)
			}
			return storeError("get department", err)
		}

		if err := tx.Where("department_id = ?", id).Delete(&model.Application{}).Error; err != nil {
			return storeError("delete applications", err)
		}
		if err := tx.Delete(&department).Error; err != nil {
			return storeError("delete department", err)
		}
		return nil
	})
}

// GetDepartment returns a department by ID
func (s *HierarchyService) GetDepartment(ctx context.Context, id uint) (*model.Department, error) {
	return getDepartment(s.db.WithContext(ctx), id)
}

// UniversityOfDepartment resolves the university a department belongs to
func (s *HierarchyService) UniversityOfDepartment(ctx context.Context, departmentID uint) (uint, error) {
	return universityOfDepartment(s.db.WithContext(ctx), departmentID)
}

// DepartmentsOf lists a college's departments in insertion order
func (s *HierarchyService) DepartmentsOf(ctx context.Context, collegeID uint) ([]model.Department, error) {
	db := s.db.WithContext(ctx)

	var college model.College
	if err := db.Select("id").First(&college, collegeID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("college", collegeID)
		}
		return nil, storeError("get college", err)
	}

	var departments []model.Department
	if err := db.Where("college_id = ?", collegeID).Order("id ASC").Find(&departments).Error; err != nil {
		return nil, storeError("list departments", err)
	}
	return departments, nil
}

func getDepartment(db *gorm.DB, id uint) (*model.Department, error) {
	var department model.Department
	if err := db.First(&department, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFound("department", id)
		}
		return nil, storeError("get department", err)
	}
	return &department, nil
}

// universityOfDepartment works on any handle so the allocation engine can call it
// inside its own transaction.
func universityOfDepartment(db *gorm.DB, departmentID uint) (uint, error) {
	var row struct {
		UniversityID uint
	}
	result := db.Table("departments").
		Select("colleges.university_id AS university_id").
		Joins("JOIN colleges ON colleges.id = departments.college_id").
		Where("departments.id = ?", departmentID).
		Limit(1).
		Scan(&row)
	if result.Error != nil {
		return 0, storeError("resolve university", result.Error)
	}
	if result.RowsAffected == 0 {
		return 0, notFound("department", departmentID)
	}
	return row.UniversityID, nil
}
