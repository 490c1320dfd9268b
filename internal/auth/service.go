package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/dentalops/booking-gateway/pkg/logging"
)

// ErrInvalidCredentials covers both an unknown email and a wrong password,
// so login responses never reveal which one failed.
var ErrInvalidCredentials = errors.New("auth: invalid credentials")

var (
	emailPattern = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	phonePattern = regexp.MustCompile(`^[0-9]{10,15}$`)
)

const minPasswordLen = 8

// RegisterRequest is an inbound account signup.
type RegisterRequest struct {
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Password  string `json:"password"`
	Role      Role   `json:"role"`
}

// LoginRequest is an inbound credential check.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResult carries the signed token and the account it belongs to.
type LoginResult struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// ValidationError reports every problem with a signup or login payload.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return "auth: invalid request: " + strings.Join(e.Problems, "; ")
}

// IsValidation reports whether err is a request validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// Service handles clinic user signup and login against the user store.
type Service struct {
	store    *Store
	secret   string
	tokenTTL time.Duration
	logger   *logging.Logger
}

// NewService builds the auth service. tokenTTL bounds how long issued
// access tokens stay valid.
func NewService(store *Store, secret string, tokenTTL time.Duration, logger *logging.Logger) *Service {
	if store == nil {
		panic("auth: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		store:    store,
		secret:   secret,
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

// Register validates the signup, hashes the password, and persists the new
// account. Unset roles default to dentist.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	role := req.Role
	if role == "" {
		role = RoleDentist
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to hash password: %w", err)
	}

	user := &User{
		ID:           uuid.NewString(),
		Email:        strings.ToLower(req.Email),
		Phone:        req.Phone,
		FirstName:    req.FirstName,
		LastName:     req.LastName,
		PasswordHash: string(hash),
		Role:         role,
		CreatedAt:    time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID, "role", user.Role)
	return user, nil
}

// Login checks the credentials and returns a signed access token.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if req.Email == "" || req.Password == "" {
		return nil, &ValidationError{Problems: []string{"email and password are required"}}
	}

	user, err := s.store.GetByEmail(ctx, strings.ToLower(req.Email))
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)) != nil {
		return nil, ErrInvalidCredentials
	}

	token, err := IssueToken(user, s.secret, s.tokenTTL)
	if err != nil {
		return nil, fmt.Errorf("auth: failed to sign token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID, "role", user.Role)
	return &LoginResult{Token: token, User: user}, nil
}

func (r RegisterRequest) validate() error {
	var problems []string
	if r.Email == "" {
		problems = append(problems, "email is required")
	} else if !emailPattern.MatchString(r.Email) {
		problems = append(problems, "email is not a valid address")
	}
	if r.Phone == "" {
		problems = append(problems, "phone is required")
	} else if !phonePattern.MatchString(r.Phone) {
		problems = append(problems, "phone must be 10 to 15 digits")
	}
	if len(r.Password) < minPasswordLen {
		problems = append(problems, fmt.Sprintf("password must be at least %d characters", minPasswordLen))
	}
	if r.Role != "" && !ValidRole(r.Role) {
		problems = append(problems, "role must be admin, dentist, or staff")
	}
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}
