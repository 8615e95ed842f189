package utils

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/pizza-app/auth-service/services"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type signup struct {
	UserName  string `json:"userName" validate:"required,min=3,max=15,username"`
	FirstName string `json:"firstName" validate:"required,max=50,alpha_name"`
	Email     string `json:"email" validate:"required,email"`
	Password  string `json:"password" validate:"required,min=8,password"`
	Role      string `json:"role" validate:"required,oneof=customer admin manager"`
	TenantID  *int64 `json:"tenantId" validate:"required_unless=Role admin,omitempty,gt=0"`
}

func validSignup() signup {
	tenant := int64(1)
	return signup{
		UserName:  "rakesh",
		FirstName: "Rakesh",
		Email:     "rakesh@mern.space",
		Password:  "Secret@123",
		Role:      "customer",
		TenantID:  &tenant,
	}
}

func fieldMessages(t *testing.T, err error) map[string]string {
	t.Helper()
	require.Error(t, err)
	require.True(t, services.IsValidationError(err))
	out := map[string]string{}
	for _, f := range services.GetFieldErrors(err) {
		out[f.Field] = f.Message
	}
	return out
}

func TestValidateStruct(t *testing.T) {
	t.Run("valid struct", func(t *testing.T) {
		s := validSignup()
		assert.NoError(t, ValidateStruct(&s))
	})

	t.Run("admin needs no tenant", func(t *testing.T) {
		s := validSignup()
		s.Role = "admin"
		s.TenantID = nil
		assert.NoError(t, ValidateStruct(&s))
	})

	tests := []struct {
		name    string
		mutate  func(*signup)
		field   string
		message string
	}{
		{"missing user name", func(s *signup) { s.UserName = "" }, "userName", "userName is required"},
		{"short user name", func(s *signup) { s.UserName = "ab" }, "userName", "userName must be at least 3 characters long"},
		{"symbols in user name", func(s *signup) { s.UserName = "rak-esh" }, "userName", "Username must only contain alphanumeric characters"},
		{"digits in name", func(s *signup) { s.FirstName = "R2" }, "firstName", "firstName must only contain alphabets"},
		{"bad email", func(s *signup) { s.Email = "nope" }, "email", "Invalid email format"},
		{"weak password", func(s *signup) { s.Password = "password1" }, "password",
			"Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character"},
		{"unknown role", func(s *signup) { s.Role = "root" }, "role", "role must be one of customer, admin, manager"},
		{"customer without tenant", func(s *signup) { s.TenantID = nil }, "tenantId", "Tenant id is required!"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := validSignup()
			tt.mutate(&s)
			msgs := fieldMessages(t, ValidateStruct(&s))
			assert.Equal(t, tt.message, msgs[tt.field])
		})
	}
}

func TestValidateStruct_MultipleFields(t *testing.T) {
	s := validSignup()
	s.UserName = ""
	s.Email = ""

	msgs := fieldMessages(t, ValidateStruct(&s))
	assert.Len(t, msgs, 2)
	assert.Equal(t, "userName is required", msgs["userName"])
	assert.Equal(t, "email is required", msgs["email"])
}

func TestIsStrongPassword(t *testing.T) {
	assert.True(t, IsStrongPassword("Secret@123"))
	assert.True(t, IsStrongPassword("aB3_zzzz"))
	assert.False(t, IsStrongPassword("secret@123"))
	assert.False(t, IsStrongPassword("SECRET@123"))
	assert.False(t, IsStrongPassword("Secret@abc"))
	assert.False(t, IsStrongPassword("Secret1234"))
}

func TestDecodeJSON(t *testing.T) {
	t.Run("valid body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"userName":"rakesh"}`))
		var s signup
		require.NoError(t, DecodeJSON(r, &s))
		assert.Equal(t, "rakesh", s.UserName)
	})

	t.Run("malformed body", func(t *testing.T) {
		r := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"userName":`))
		var s signup
		err := DecodeJSON(r, &s)
		assert.True(t, services.IsValidationError(err))
	})
}

func TestParseID(t *testing.T) {
	id, err := ParseID("42")
	require.NoError(t, err)
	assert.Equal(t, int64(42), id)

	for _, raw := range []string{"", "abc", "0", "-3", "4.5"} {
		_, err := ParseID(raw)
		assert.ErrorIs(t, err, ErrInvalidURLParam, raw)
	}
}

func TestParseQueryInt(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/?currentPage=3&perPage=x", nil)

	n, err := ParseQueryInt(r, "currentPage")
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	n, err = ParseQueryInt(r, "missing")
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	_, err = ParseQueryInt(r, "perPage")
	assert.True(t, services.IsValidationError(err))
}
