package validate

import (
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/nyaruka/phonenumbers"
)

var v = newValidator()

func newValidator() *validator.Validate {
	val := validator.New(validator.WithRequiredStructEnabled())
	// "phone" accepts international numbers in any common formatting, as long
	// as libphonenumber considers them assignable.
	if err := val.RegisterValidation("phone", func(fl validator.FieldLevel) bool {
		return IsPhone(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return val
}

// IsEmail reports whether s is a syntactically valid email address.
func IsEmail(s string) bool {
	return v.Var(s, "required,email") == nil
}

// IsPhone reports whether s is a valid phone number in international form.
func IsPhone(s string) bool {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "+") {
		return false
	}
	num, err := phonenumbers.Parse(s, "")
	if err != nil {
		return false
	}
	return phonenumbers.IsValidNumber(num)
}

// Echo adapts the validator to echo.Validator.
type Echo struct{}

func (Echo) Validate(i any) error {
	return v.Struct(i)
}
