package database

import (
	"fmt"
	"log"

	"github.com/sahilchouksey/admission-api/model"
	"github.com/sahilchouksey/admission-api/utils/auth"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db            *gorm.DB
	adminEmail    string
	adminPassword string
}

// NewSeeder creates a new seeder. The admin user is only seeded when both
// credentials are given.
func NewSeeder(db *gorm.DB, adminEmail, adminPassword string) *Seeder {
	return &Seeder{
		db:            db,
		adminEmail:    adminEmail,
		adminPassword: adminPassword,
	}
}

// SeedAll runs all seed functions
func (s *Seeder) SeedAll() error {
	log.Println("🌱 Starting database seeding...")

	if err := s.SeedAdminUser(); err != nil {
		return fmt.Errorf("failed to seed admin user: %w", err)
	}

	if err := s.SeedUniversities(); err != nil {
		return fmt.Errorf("failed to seed universities: %w", err)
	}

	log.Println("✅ Database seeding completed successfully!")
	return nil
}

// SeedAdminUser creates the default admin user
func (s *Seeder) SeedAdminUser() error {
	var count int64
	if err := s.db.Model(&model.User{}).Where("is_admin = ?", true).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Admin user already exists, skipping...")
		return nil
	}

	if s.adminEmail == "" || s.adminPassword == "" {
		log.Println("⚠️  ADMIN_EMAIL and ADMIN_PASSWORD environment variables not set, skipping admin user creation")
		return nil
	}

	passwordHash, err := auth.HashPassword(s.adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.User{
		Email:        s.adminEmail,
		PasswordHash: passwordHash,
		Name:         "System Administrator",
		IsAdmin:      true,
	}

	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	log.Printf("✅ Created admin user: %s\n", admin.Email)
	return nil
}

// SeedUniversities creates the demo universities when the hierarchy is empty
func (s *Seeder) SeedUniversities() error {
	var count int64
	if err := s.db.Model(&model.University{}).Count(&count).Error; err != nil {
		return err
	}

	if count > 0 {
		log.Println("⏭️  Universities already exist, skipping...")
		return nil
	}

	universities := []model.University{
		{
			Name: "대곽대학교",
			Colleges: []model.College{
				{
					Name: "자연전공",
					Departments: []model.Department{
						{Name: "물리학과", Capacity: 6},
						{Name: "화학과", Capacity: 8},
						{Name: "생물학과", Capacity: 10},
					},
				},
				{
					Name: "공학전공",
					Departments: []model.Department{
						{Name: "정보학과", Capacity: 4},
					},
				},
				{
					Name: "인문전공",
					Departments: []model.Department{
						{Name: "지구과학과", Capacity: 2},
					},
				},
			},
		},
		{
			Name: "짭곽대학교",
			Colleges: []model.College{
				{
					Name: "농업생명공학대",
					Departments: []model.Department{
						{Name: "농사짓는 과", Capacity: 2},
						{Name: "개 키우는 과", Capacity: 3},
					},
				},
				{
					Name: "글로벌한 학과",
					Departments: []model.Department{
						{Name: "예시쌤과", Capacity: 2},
						{Name: "사일러스쌤과", Capacity: 4},
						{Name: "듀오링고과", Capacity: 5},
					},
				},
			},
		},
	}

	err := s.db.Transaction(func(tx *gorm.DB) error {
		for i := range universities {
			if err := tx.Create(&universities[i]).Error; err != nil {
				return err
			}
			log.Printf("✅ Created university: %s\n", universities[i].Name)
		}
		return nil
	})
	return err
}
