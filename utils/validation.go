package utils

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/pizza-app/auth-service/services"
)

var (
	// validate is the singleton validator instance
	validate *validator.Validate

	userNameRegex = regexp.MustCompile(`^[a-zA-Z0-9]+$`)
	alphaRegex    = regexp.MustCompile(`^[A-Za-z]+$`)
)

// ErrInvalidURLParam is returned when a numeric path parameter does not parse
var ErrInvalidURLParam = services.NewDomainError(services.ErrorTypeValidation, "Invalid url param.", nil)

const maxBodyBytes = 1 << 20

func init() {
	validate = validator.New(validator.WithRequiredStructEnabled())

	validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	_ = validate.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return userNameRegex.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("alpha_name", func(fl validator.FieldLevel) bool {
		return alphaRegex.MatchString(fl.Field().String())
	})
	_ = validate.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return IsStrongPassword(fl.Field().String())
	})
}

// IsStrongPassword reports whether s has at least one upper case letter, one
// lower case letter, one digit and one other character.
func IsStrongPassword(s string) bool {
	var upper, lower, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsSpace(r):
			special = true
		}
	}
	return upper && lower && digit && special
}

// ValidateStruct validates a struct and returns a validation error carrying
// one entry per failing field
func ValidateStruct(s interface{}) error {
	if err := validate.Struct(s); err != nil {
		var validationErrors validator.ValidationErrors
		if errors.As(err, &validationErrors) {
			return NewValidationError(validationErrors)
		}
		return err
	}
	return nil
}

// NewValidationError converts validator errors to a domain validation error
func NewValidationError(errs validator.ValidationErrors) error {
	fields := make([]services.FieldError, 0, len(errs))
	for _, err := range errs {
		fields = append(fields, services.FieldError{
			Field:   err.Field(),
			Message: fieldMessage(err),
		})
	}
	return services.NewValidationError(fields...)
}

func fieldMessage(err validator.FieldError) string {
	field := err.Field()
	switch err.Tag() {
	case "required":
		if field == "tenantId" {
			return "Tenant id is required!"
		}
		return fmt.Sprintf("%s is required", field)
	case "required_unless":
		return "Tenant id is required!"
	case "email":
		return "Invalid email format"
	case "username":
		return "Username must only contain alphanumeric characters"
	case "alpha_name":
		return fmt.Sprintf("%s must only contain alphabets", field)
	case "password":
		return "Password must contain at least one uppercase letter, one lowercase letter, one number, and one special character"
	case "min":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at least %s characters long", field, err.Param())
		}
		return fmt.Sprintf("%s must be at least %s", field, err.Param())
	case "max":
		if err.Kind() == reflect.String {
			return fmt.Sprintf("%s must be at most %s characters long", field, err.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, err.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, err.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of %s", field, strings.ReplaceAll(err.Param(), " ", ", "))
	default:
		return fmt.Sprintf("%s validation failed on '%s' tag", field, err.Tag())
	}
}

// DecodeJSON decodes the request body into dst. Bodies larger than 1MB or
// that are not valid JSON are rejected with a validation error.
func DecodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		return services.NewDomainError(services.ErrorTypeValidation, "Invalid request body", err)
	}
	return nil
}

// ParseID parses a positive numeric path parameter
func ParseID(raw string) (int64, error) {
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, ErrInvalidURLParam
	}
	return id, nil
}

// ParseQueryInt parses an optional positive integer query parameter,
// returning 0 when it is absent
func ParseQueryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return 0, services.NewValidationError(services.FieldError{
			Field:   name,
			Message: fmt.Sprintf("%s must be a positive integer", name),
		})
	}
	return n, nil
}
