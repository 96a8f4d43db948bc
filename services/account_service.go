package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2/log"
	"github.com/sahilchouksey/admission-api/model"
	"github.com/sahilchouksey/admission-api/utils/auth"
	"gorm.io/gorm"
)

// AccountService manages the identity records the admission core trusts.
// Registration and login live outside this service; it only bootstraps admins,
// provisions student identities and revokes tokens.
type AccountService struct {
	db         *gorm.DB
	allocation *AllocationService
}

// NewAccountService creates a new account service
func NewAccountService(db *gorm.DB, allocation *AllocationService) *AccountService {
	return &AccountService{
		db:         db,
		allocation: allocation,
	}
}

// CreateAdmin replaces any account with the same email by a fresh admin account.
// A replaced student's applications are removed with their counters.
func (s *AccountService) CreateAdmin(ctx context.Context, email, password, name string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, fmt.Errorf("email is required: %w", ErrMalformedInput)
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrMalformedInput)
	}

	if name == "" {
		name = "Administrator"
	}
	admin := model.User{
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		IsAdmin:      true,
	}
	create := func(tx *gorm.DB) error {
		if err := tx.Create(&admin).Error; err != nil {
			return storeError("create admin", err)
		}
		return nil
	}

	existing, err := s.FindByEmail(ctx, email)
	switch {
	case err == nil:
		if err := s.allocation.replaceStudent(ctx, existing.ID, create); err != nil {
			return nil, err
		}
		log.Infof("replaced existing account %s with an admin", email)
	case errors.Is(err, ErrNotFound):
		if err := create(s.db.WithContext(ctx)); err != nil {
			return nil, err
		}
	default:
		return nil, err
	}
	return &admin, nil
}

// CheckAdmin verifies that email belongs to an admin with the given password
func (s *AccountService) CheckAdmin(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if !user.IsAdmin {
		return nil, fmt.Errorf("%s is not an admin: %w", user.Email, ErrNotFound)
	}
	if err := auth.VerifyPassword(user.PasswordHash, password); err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrUnauthenticated)
	}
	return user, nil
}

// EnsureStudent returns the student with this email, creating one without a GPA if needed
func (s *AccountService) EnsureStudent(ctx context.Context, email, name string) (*model.User, bool, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, false, fmt.Errorf("email is required: %w", ErrMalformedInput)
	}

	user, err := s.FindByEmail(ctx, email)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, false, err
	}

	if name == "" {
		name = strings.Split(email, "@")[0]
	}
	student := model.User{Email: email, Name: name}
	if err := s.db.WithContext(ctx).Create(&student).Error; err != nil {
		return nil, false, storeError("create student", err)
	}
	return &student, true, nil
}

// FindByEmail looks a user up by email
func (s *AccountService) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := s.db.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&user).Error
	if err != nil {
		return nil, storeError("find user "+email, err)
	}
	return &user, nil
}

// RevokeTokens invalidates every token issued to the user so far
func (s *AccountService) RevokeTokens(ctx context.Context, userID uint) error {
	result := s.db.WithContext(ctx).
		Model(&model.User{}).
		Where("id = ?", userID).
		UpdateColumn("token_version", gorm.Expr("token_version + ?", 1))
	if result.Error != nil {
		return storeError("revoke tokens", result.Error)
	}
	if result.RowsAffected == 0 {
		return notFound("user", userID)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
