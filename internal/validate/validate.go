// Package validate holds the identity-boundary checks and the struct
// validator used for every workflow input.
package validate

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"

	"github.com/lalith-99/dormlink/internal/apperr"
)

const (
	MinPasswordLength = 8
	// MaxPasswordBytes is bcrypt's input limit; GenerateFromPassword
	// rejects anything longer instead of truncating it.
	MaxPasswordBytes = 72
)

var (
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	emailPattern = regexp.MustCompile(`^[\w._%+-]+@[\w.-]+\.[a-zA-Z]{2,}$`)
)

// Phone reports whether p is exactly ten digits.
func Phone(p string) bool {
	return phonePattern.MatchString(p)
}

// Password reports whether p has at least MinPasswordLength characters and
// fits in MaxPasswordBytes bytes. Characters are counted as runes, so a
// multibyte password is not penalised for its encoding.
func Password(p string) bool {
	return utf8.RuneCountInString(p) >= MinPasswordLength && len(p) <= MaxPasswordBytes
}

// Email reports whether e looks like an email address.
func Email(e string) bool {
	return emailPattern.MatchString(e)
}

// Validator wraps validator/v10 with the custom tags used by the input
// structs and turns failures into apperr validation errors.
//
// Tags:
//
//	phone10     ten digits
//	emailshape  the address pattern accepted at registration
//	password    Password: length in characters and in bytes
//	datetime=…  standard validator layout check (dates and HH:MM times)
type Validator struct {
	v *validator.Validate
}

func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})

	// RegisterValidation only fails for empty tags or nil funcs.
	_ = v.RegisterValidation("phone10", func(fl validator.FieldLevel) bool {
		return Phone(fl.Field().String())
	})
	_ = v.RegisterValidation("emailshape", func(fl validator.FieldLevel) bool {
		return Email(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		return Password(fl.Field().String())
	})

	return &Validator{v: v}
}

// Struct validates s. Missing required fields are reported before any
// format problem so the user sees "please fill in all fields" first.
func (val *Validator) Struct(s any) error {
	err := val.v.Struct(s)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return apperr.Validation(err.Error())
	}

	for _, fe := range fieldErrs {
		if fe.Tag() == "required" {
			return apperr.Validation("please fill in all fields")
		}
	}
	return apperr.Validation(describe(fieldErrs[0]))
}

func describe(fe validator.FieldError) string {
	field := fe.Field()
	switch fe.Tag() {
	case "phone10":
		return "phone number must be exactly 10 digits"
	case "emailshape":
		return "invalid email format"
	case "password":
		if p, _ := fe.Value().(string); len(p) > MaxPasswordBytes {
			return fmt.Sprintf("password must be at most %d bytes long", MaxPasswordBytes)
		}
		return fmt.Sprintf("password must be at least %d characters long", MinPasswordLength)
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "gte":
		return fmt.Sprintf("%s must be %s or more", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "datetime":
		if fe.Param() == "15:04" {
			return fmt.Sprintf("%s must be a time in HH:MM format", field)
		}
		return fmt.Sprintf("%s must be a date in YYYY-MM-DD format", field)
	case "gtefield":
		return fmt.Sprintf("%s must not be before %s", field, fe.Param())
	default:
		return fmt.Sprintf("%s is invalid", field)
	}
}
