package service

import (
	"context"
	"errors"
	"net/mail"
	"time"

	"innkeep/internal/database"
	"innkeep/internal/models"

	"github.com/rs/zerolog"
	"golang.org/x/crypto/bcrypt"
)

// ErrInvalidCredentials covers both unknown email and wrong password, so
// login responses never reveal which one failed.
var ErrInvalidCredentials = errors.New("invalid email or password")

const minPasswordLength = 8

type userRepository interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	CreateUser(ctx context.Context, user *models.User) error
}

// UserService handles registration and credential verification with bcrypt
// password hashing.
type UserService struct {
	repo   userRepository
	logger *zerolog.Logger
	now    func() time.Time
}

func NewUserService(repo userRepository, logger *zerolog.Logger) *UserService {
	return &UserService{repo: repo, logger: logger, now: time.Now}
}

func (s *UserService) Register(ctx context.Context, email, password, firstName, lastName, phone string) (*models.User, error) {
	if _, err := mail.ParseAddress(email); err != nil {
		return nil, invalidf("email", "not a valid email address")
	}
	if len(password) < minPasswordLength {
		return nil, invalidf("password", "must be at least %d characters", minPasswordLength)
	}
	if firstName == "" || lastName == "" {
		return nil, invalidf("name", "first and last name are required")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:          email,
		HashedPassword: string(hash),
		FirstName:      firstName,
		LastName:       lastName,
		Phone:          phone,
		Role:           models.RoleGuest,
		IsActive:       true,
	}
	if err := s.repo.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info().Int64("user_id", user.ID).Str("email", email).Msg("user registered")
	return user, nil
}

func (s *UserService) Authenticate(ctx context.Context, email, password string) (*models.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.HashedPassword), []byte(password)) != nil {
		return nil, ErrInvalidCredentials
	}
	return user, nil
}

func (s *UserService) GetUser(ctx context.Context, id int64) (*models.User, error) {
	return s.repo.GetUser(ctx, id)
}
