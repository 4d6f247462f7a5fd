package validate

import (
	"context"
	"errors"
	"testing"

	"github.com/balliq/balliq-web/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestRegistration(t *testing.T) {
	valid := RegisterForm{Username: "ana", Email: "ana@example.com", Password: "password1", TeamName: "Reds"}

	tests := []struct {
		name       string
		form       RegisterForm
		registered bool
		expected   string
	}{
		{name: "missing username", form: RegisterForm{Email: "a@b.com", Password: "password1", TeamName: "Reds"}, expected: MsgFillAllFields},
		{name: "missing email", form: RegisterForm{Username: "ana", Password: "password1", TeamName: "Reds"}, expected: MsgFillAllFields},
		{name: "missing password", form: RegisterForm{Username: "ana", Email: "a@b.com", TeamName: "Reds"}, expected: MsgFillAllFields},
		{name: "missing team", form: RegisterForm{Username: "ana", Email: "a@b.com", Password: "password1"}, expected: MsgFillAllFields},
		{name: "all missing", form: RegisterForm{}, expected: MsgFillAllFields},
		{name: "bad email", form: RegisterForm{Username: "ana", Email: "not-an-email", Password: "password1", TeamName: "Reds"}, expected: MsgInvalidEmail},
		{name: "bad email beats short password", form: RegisterForm{Username: "ana", Email: "not-an-email", Password: "short", TeamName: "Reds"}, expected: MsgInvalidEmail},
		{name: "short password", form: RegisterForm{Username: "ana", Email: "a@b.com", Password: "1234567", TeamName: "Reds"}, expected: MsgPasswordTooShort},
		{name: "already registered", form: valid, registered: true, expected: MsgEmailRegistered},
		{name: "valid", form: valid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := new(testutil.MockAccountStore)
			accounts.On("EmailExists", mock.Anything, tt.form.Email).Return(tt.registered).Maybe()

			err := Registration(context.Background(), accounts, tt.form)

			if tt.expected == "" {
				assert.NoError(t, err)
				return
			}
			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.expected, verr.Message)
		})
	}
}

func TestRegistrationSkipsStoreOnEarlierFailure(t *testing.T) {
	accounts := new(testutil.MockAccountStore)

	err := Registration(context.Background(), accounts, RegisterForm{Username: "ana", Email: "a@b.com", Password: "short", TeamName: "Reds"})

	require.Error(t, err)
	accounts.AssertNotCalled(t, "EmailExists", mock.Anything, mock.Anything)
}

func TestLogin(t *testing.T) {
	tests := []struct {
		name     string
		form     LoginForm
		exists   bool
		verified bool
		expected string
	}{
		{name: "missing email", form: LoginForm{Password: "password1"}, expected: MsgFillAllFields},
		{name: "missing password", form: LoginForm{Email: "a@b.com"}, expected: MsgFillAllFields},
		{name: "unknown email", form: LoginForm{Email: "a@b.com", Password: "password1"}, expected: MsgEmailNotRegistered},
		{name: "wrong password", form: LoginForm{Email: "a@b.com", Password: "password1"}, exists: true, expected: MsgIncorrectPassword},
		{name: "valid", form: LoginForm{Email: "a@b.com", Password: "password1"}, exists: true, verified: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accounts := new(testutil.MockAccountStore)
			accounts.On("EmailExists", mock.Anything, tt.form.Email).Return(tt.exists).Maybe()
			accounts.On("VerifyCredentials", mock.Anything, tt.form.Email, tt.form.Password).Return(tt.verified).Maybe()

			err := Login(context.Background(), accounts, tt.form)

			if tt.expected == "" {
				assert.NoError(t, err)
				return
			}
			var verr *Error
			require.True(t, errors.As(err, &verr))
			assert.Equal(t, tt.expected, verr.Error())
		})
	}
}

func TestLoginDoesNotVerifyUnknownEmail(t *testing.T) {
	accounts := new(testutil.MockAccountStore)
	accounts.On("EmailExists", mock.Anything, "ghost@b.com").Return(false)

	err := Login(context.Background(), accounts, LoginForm{Email: "ghost@b.com", Password: "password1"})

	require.Error(t, err)
	accounts.AssertNotCalled(t, "VerifyCredentials", mock.Anything, mock.Anything, mock.Anything)
}

func TestIsValidEmail(t *testing.T) {
	tests := []struct {
		email string
		valid bool
	}{
		{"a@b.com", true},
		{"first.last-1@sub.domain.org", true},
		{"not-an-email", false},
		{"a@b", false},
		{"@b.com", false},
		{"a b@c.com", false},
		{"a@b.", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.valid, IsValidEmail(tt.email), tt.email)
	}
}
