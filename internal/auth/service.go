// Package auth handles username/password authentication and JWT issuing.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/petpics/service/internal/config"
	"github.com/petpics/service/internal/user"
)

// ErrInvalidCredentials is returned when the username/password pair is wrong.
// Login never distinguishes a missing user from a bad password.
var ErrInvalidCredentials = errors.New("invalid username or password")

// ErrUsernameTaken is returned when the requested username already exists.
var ErrUsernameTaken = errors.New("username already taken")

// Result holds a successful registration or login outcome.
type Result struct {
	Token string     `json:"token"`
	User  *user.User `json:"user"`
}

// Service contains the business logic for account authentication.
type Service struct {
	userSvc *user.Service
	cfg     *config.Config
}

// NewService creates a new auth Service.
func NewService(userSvc *user.Service, cfg *config.Config) *Service {
	return &Service{userSvc: userSvc, cfg: cfg}
}

// Register creates a new account and issues a JWT for it.
func (s *Service) Register(ctx context.Context, username, password string) (*Result, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	u, err := s.userSvc.Create(ctx, username, string(hash))
	if err != nil {
		if errors.Is(err, user.ErrAlreadyExists) {
			return nil, ErrUsernameTaken
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	token, err := s.issueToken(u.ID, u.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Result{Token: token, User: u}, nil
}

// Login verifies the credentials and issues a JWT.
func (s *Service) Login(ctx context.Context, username, password string) (*Result, error) {
	u, err := s.userSvc.GetByUsername(ctx, username)
	if err != nil {
		if s.userSvc.IsNotFound(err) {
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("look up user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := s.issueToken(u.ID, u.Username)
	if err != nil {
		return nil, fmt.Errorf("issue token: %w", err)
	}
	return &Result{Token: token, User: u}, nil
}

// issueToken creates a signed JWT for the given user.
func (s *Service) issueToken(userID, username string) (string, error) {
	claims := jwt.MapClaims{
		"sub":      userID,
		"username": username,
		"iat":      time.Now().Unix(),
		"exp":      time.Now().Add(30 * 24 * time.Hour).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(s.cfg.JWTSecret))
}
