package account

import (
	"time"

	"github.com/google/uuid"

	"github.com/medirx/medirx/internal/platform/auth"
)

// Account is a registered doctor or patient. Email and username are each
// unique across all accounts.
type Account struct {
	ID           uuid.UUID `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         auth.Role `json:"userType"`
	CreatedAt    time.Time `json:"createdAt"`
}

// View is the public projection returned by login and lookup.
type View struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	UserType auth.Role `json:"userType"`
}

func (a *Account) View() View {
	return View{ID: a.ID, Username: a.Username, Email: a.Email, UserType: a.Role}
}

// SignupRequest field order sets the order validation failures are reported in.
type SignupRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Username string `json:"username" validate:"required,min=3,max=20"`
	Password string `json:"password" validate:"required,min=8"`
	UserType string `json:"userType" validate:"required,oneof=doctor patient"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type VerifyEmailRequest struct {
	Email string `json:"email"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email"`
	NewPassword string `json:"newPassword"`
}

// AuthResult is returned by Signup and Login.
type AuthResult struct {
	Account *Account
	Token   string
}
