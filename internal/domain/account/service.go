package account

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"

	"github.com/medirx/medirx/internal/platform/apperr"
	"github.com/medirx/medirx/internal/platform/auth"
	"github.com/medirx/medirx/internal/platform/validate"
)

const (
	msgAllRequired     = "All fields are required."
	msgInvalidEmail    = "Invalid email format."
	msgUsernameLength  = "Username must be between 3 to 20 characters long."
	msgPasswordLength  = "Password must be at least 8 characters long."
	msgPasswordTooLong = "Password must be at most 72 bytes long."
	msgInvalidUserType = "Invalid user type."
	msgEmailTaken      = "Email already in use."
	msgUsernameTaken   = "Username already taken."
	msgCredentialsNeed = "Email and password are required."
	msgBadCredentials  = "Invalid email or password."
	msgUserNotFound    = "User not found."
	msgEmailRequired   = "Email is required."
	msgAccountNotFound = "Not found"
	minPasswordLength  = 8
)

var signupMessages = validate.Messages{
	Required: msgAllRequired,
	Fields: map[string]string{
		"email":    msgInvalidEmail,
		"username": msgUsernameLength,
		"password": msgPasswordLength,
		"userType": msgInvalidUserType,
	},
}

type Service struct {
	repo   AccountRepository
	hasher auth.PasswordHasher
	tokens auth.TokenIssuer
	val    *validate.Validator
	logger zerolog.Logger
}

func NewService(repo AccountRepository, hasher auth.PasswordHasher, tokens auth.TokenIssuer, val *validate.Validator, logger zerolog.Logger) *Service {
	return &Service{
		repo:   repo,
		hasher: hasher,
		tokens: tokens,
		val:    val,
		logger: logger.With().Str("component", "account").Logger(),
	}
}

// Signup registers a new account and returns it with a freshly minted token.
func (s *Service) Signup(ctx context.Context, req SignupRequest) (*AuthResult, error) {
	req.Email = strings.TrimSpace(req.Email)
	req.Username = strings.TrimSpace(req.Username)
	if err := s.val.Check(req, signupMessages); err != nil {
		return nil, err
	}
	if len(req.Password) > auth.MaxPasswordBytes {
		return nil, apperr.Validation(msgPasswordTooLong)
	}
	role, err := auth.ParseRole(req.UserType)
	if err != nil {
		return nil, apperr.Validation(msgInvalidUserType)
	}

	if taken, err := s.emailTaken(ctx, req.Email); err != nil {
		return nil, err
	} else if taken {
		return nil, apperr.Conflict(msgEmailTaken)
	}
	if taken, err := s.usernameTaken(ctx, req.Username); err != nil {
		return nil, err
	} else if taken {
		return nil, apperr.Conflict(msgUsernameTaken)
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, apperr.Internal("hash password", err)
	}

	a := &Account{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, a); err != nil {
		if errors.Is(err, apperr.ErrDuplicate) {
			return nil, s.duplicateConflict(ctx, a.Username)
		}
		return nil, apperr.Internal("create account", err)
	}

	token, err := s.tokens.Issue(a.ID.String(), a.Email, a.Role)
	if err != nil {
		return nil, apperr.Internal("issue token", err)
	}

	s.logger.Info().Str("account_id", a.ID.String()).Str("role", string(a.Role)).Msg("account created")
	return &AuthResult{Account: a, Token: token}, nil
}

// duplicateConflict names the field that lost a concurrent signup race.
func (s *Service) duplicateConflict(ctx context.Context, username string) error {
	if taken, err := s.usernameTaken(ctx, username); err == nil && taken {
		return apperr.Conflict(msgUsernameTaken)
	}
	return apperr.Conflict(msgEmailTaken)
}

// Login checks credentials. Unknown emails and wrong passwords are
// indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	email = strings.TrimSpace(email)
	if email == "" || password == "" {
		return nil, apperr.Validation(msgCredentialsNeed)
	}

	a, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.Unauthorized(msgBadCredentials)
	}
	if err != nil {
		return nil, apperr.Internal("load account", err)
	}
	if !s.hasher.Compare(a.PasswordHash, password) {
		return nil, apperr.Unauthorized(msgBadCredentials)
	}

	token, err := s.tokens.Issue(a.ID.String(), a.Email, a.Role)
	if err != nil {
		return nil, apperr.Internal("issue token", err)
	}
	return &AuthResult{Account: a, Token: token}, nil
}

// FindByEmail returns the account with email only if it holds role.
func (s *Service) FindByEmail(ctx context.Context, email string, role auth.Role) (*Account, error) {
	if email == "" {
		return nil, apperr.Validation(msgEmailRequired)
	}
	a, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) || (err == nil && a.Role != role) {
		return nil, apperr.NotFound(msgAccountNotFound)
	}
	if err != nil {
		return nil, apperr.Internal("load account", err)
	}
	return a, nil
}

// VerifyEmail only confirms the account exists.
func (s *Service) VerifyEmail(ctx context.Context, email string) error {
	if email == "" {
		return apperr.Validation(msgEmailRequired)
	}
	_, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return apperr.Internal("load account", err)
	}
	return nil
}

// ResetPassword replaces the password hash. It requires no proof of the old
// password or of email ownership.
func (s *Service) ResetPassword(ctx context.Context, email, newPassword string) error {
	if email == "" || newPassword == "" {
		return apperr.Validation(msgCredentialsNeed)
	}
	if len(newPassword) < minPasswordLength {
		return apperr.Validation(msgPasswordLength)
	}
	if len(newPassword) > auth.MaxPasswordBytes {
		return apperr.Validation(msgPasswordTooLong)
	}

	a, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return apperr.NotFound(msgUserNotFound)
	}
	if err != nil {
		return apperr.Internal("load account", err)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return apperr.Internal("hash password", err)
	}
	if err := s.repo.UpdatePasswordHash(ctx, a.ID, hash); err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return apperr.NotFound(msgUserNotFound)
		}
		return apperr.Internal("update password", err)
	}

	s.logger.Info().Str("account_id", a.ID.String()).Msg("password reset")
	return nil
}

// HasAccount reports whether an account with email and role exists.
func (s *Service) HasAccount(ctx context.Context, email string, role auth.Role) (bool, error) {
	a, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.Role == role, nil
}

// HasUsername reports whether an account with username and role exists.
func (s *Service) HasUsername(ctx context.Context, username string, role auth.Role) (bool, error) {
	a, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return a.Role == role, nil
}

func (s *Service) emailTaken(ctx context.Context, email string) (bool, error) {
	_, err := s.repo.GetByEmail(ctx, email)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Internal("check email", err)
	}
	return true, nil
}

func (s *Service) usernameTaken(ctx context.Context, username string) (bool, error) {
	_, err := s.repo.GetByUsername(ctx, username)
	if errors.Is(err, apperr.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, apperr.Internal("check username", err)
	}
	return true, nil
}
