package services

import (
	"context"
	"crypto/subtle"
	"strings"

	"github.com/Dosada05/hackathon-registration/models"
	"golang.org/x/crypto/bcrypt"
)

type LoginInput struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type AuthService interface {
	Login(ctx context.Context, input LoginInput) (*models.Organizer, error)
}

// authService checks organizer credentials against the single account
// configured through ADMIN_EMAIL and ADMIN_PASSWORD_HASH.
type authService struct {
	email        string
	passwordHash []byte
}

func NewAuthService(email, passwordHash string) AuthService {
	return &authService{
		email:        strings.ToLower(strings.TrimSpace(email)),
		passwordHash: []byte(passwordHash),
	}
}

func (s *authService) Login(ctx context.Context, input LoginInput) (*models.Organizer, error) {
	if s.email == "" || len(s.passwordHash) == 0 {
		return nil, ErrAdminDisabled
	}

	email := strings.ToLower(strings.TrimSpace(input.Email))
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(s.email)) == 1
	// The hash is compared even on an unknown email so both paths cost the same.
	passwordErr := bcrypt.CompareHashAndPassword(s.passwordHash, []byte(input.Password))
	if !emailOK || passwordErr != nil {
		return nil, ErrInvalidCredentials
	}

	return &models.Organizer{Email: s.email, Role: models.RoleAdmin}, nil
}

// HashPassword produces the value expected in ADMIN_PASSWORD_HASH.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}
