package auth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"roamstay-backend/internal/domain"
	"roamstay-backend/internal/pkg/validation"
)

// CredentialVerifier checks a credential pair against the user store.
// Login handling only sees the resulting user, so a different strategy
// (an SSO-backed one, a test double) drops in without touching the
// session layer.
type CredentialVerifier interface {
	Verify(ctx context.Context, email, password string) (*domain.User, error)
}

// LocalVerifier verifies against bcrypt hashes in the users table.
type LocalVerifier struct {
	DB *gorm.DB
}

func (v *LocalVerifier) Verify(ctx context.Context, email, password string) (*domain.User, error) {
	if email == "" || password == "" {
		return nil, domain.Unauthenticated("Email and password are required")
	}
	var u domain.User
	err := v.DB.WithContext(ctx).Where("email = ?", normalizeEmail(email)).First(&u).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			// Same message for unknown email and bad password.
			return nil, domain.Unauthenticated("Invalid email or password")
		}
		return nil, domain.Internal(err)
	}
	if u.PasswordHash == "" {
		return nil, domain.Unauthenticated("Invalid email or password")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, domain.Unauthenticated("Invalid email or password")
	}
	return &u, nil
}

// Service owns signup and login.
type Service struct {
	DB       *gorm.DB
	Verifier CredentialVerifier
}

// RegisterInput is the signup request body. The validate tags describe
// the form schema; Register itself enforces the richer rules (composite
// password policy) field by field.
type RegisterInput struct {
	Username string `json:"username" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
}

// Register creates a user with a bcrypt password hash. Every invalid
// field is reported at once; a username or email already in use is a
// conflict, not a validation failure.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	var fields []domain.FieldViolation
	username := strings.TrimSpace(in.Username)
	if username == "" {
		fields = append(fields, domain.FieldViolation{Field: "username", Message: "is required"})
	}
	if in.Email == "" || !validation.IsValidEmail(in.Email) {
		fields = append(fields, domain.FieldViolation{Field: "email", Message: "must be a valid email address"})
	}
	if in.Password == "" || !validation.IsValidPassword(in.Password) {
		fields = append(fields, domain.FieldViolation{Field: "password", Message: "must be at least 8 characters with a letter, a number and a special character"})
	}
	if len(fields) > 0 {
		return nil, domain.ValidationFailed(fields)
	}

	email := normalizeEmail(in.Email)

	var existing domain.User
	err := s.DB.WithContext(ctx).Where("email = ?", email).First(&existing).Error
	if err == nil {
		return nil, domain.DuplicateUser("Email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.Internal(err)
	}
	err = s.DB.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		return nil, domain.DuplicateUser("Username already taken")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.Internal(err)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), 10)
	if err != nil {
		return nil, domain.Internal(err)
	}

	u := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: string(hash),
	}
	if err := s.DB.WithContext(ctx).Create(u).Error; err != nil {
		return nil, domain.Internal(err)
	}
	return u, nil
}

// Login verifies credentials through the configured strategy.
func (s *Service) Login(ctx context.Context, email, password string) (*domain.User, error) {
	return s.Verifier.Verify(ctx, email, password)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
