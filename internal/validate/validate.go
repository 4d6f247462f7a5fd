// Package validate holds the credential checks run on login and registration forms.
//
// Checks run in a fixed order and stop at the first failure, so a form submission
// yields at most one user-facing message.
package validate

import (
	"context"
	"regexp"
)

// User-facing failure messages.
const (
	MsgFillAllFields      = "Please fill all fields"
	MsgInvalidEmail       = "Invalid email format"
	MsgPasswordTooShort   = "Password must be at least 8 characters"
	MsgEmailRegistered    = "Email already registered"
	MsgEmailNotRegistered = "Email not registered"
	MsgIncorrectPassword  = "Incorrect password"
	MinPasswordLength     = 8
)

var emailPattern = regexp.MustCompile(`^[\w.-]+@[\w.-]+\.\w+$`)

// Error is a single validation failure.
type Error struct {
	Field   string
	Message string
}

func (e *Error) Error() string {
	return e.Message
}

// AccountChecker is the part of the account store the validator consults.
type AccountChecker interface {
	EmailExists(ctx context.Context, email string) bool
	VerifyCredentials(ctx context.Context, email, password string) bool
}

// RegisterForm is the registration page submission.
type RegisterForm struct {
	Username string
	Email    string
	Password string
	TeamName string
}

// LoginForm is the login page submission.
type LoginForm struct {
	Email    string
	Password string
}

// IsValidEmail reports whether email looks like local@domain.tld.
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// Registration validates a registration form. It returns nil when the form passes
// every check, otherwise the first failing check as *Error.
func Registration(ctx context.Context, accounts AccountChecker, f RegisterForm) error {
	if f.Username == "" || f.Email == "" || f.Password == "" || f.TeamName == "" {
		return &Error{Message: MsgFillAllFields}
	}
	if !IsValidEmail(f.Email) {
		return &Error{Field: "email", Message: MsgInvalidEmail}
	}
	if len(f.Password) < MinPasswordLength {
		return &Error{Field: "password", Message: MsgPasswordTooShort}
	}
	if accounts.EmailExists(ctx, f.Email) {
		return &Error{Field: "email", Message: MsgEmailRegistered}
	}
	return nil
}

// Login validates a login form against the account store.
func Login(ctx context.Context, accounts AccountChecker, f LoginForm) error {
	if f.Email == "" || f.Password == "" {
		return &Error{Message: MsgFillAllFields}
	}
	if !accounts.EmailExists(ctx, f.Email) {
		return &Error{Field: "email", Message: MsgEmailNotRegistered}
	}
	if !accounts.VerifyCredentials(ctx, f.Email, f.Password) {
		return &Error{Field: "password", Message: MsgIncorrectPassword}
	}
	return nil
}
