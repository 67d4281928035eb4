// Package forms validates login and registration input before it is sent
// to the API and turns validation failures into per-field messages.
package forms

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/spiffcs/storefront/internal/model"
)

// DateLayout is the format registration dates are entered in.
const DateLayout = "2006-01-02"

// FieldErrors maps a field's wire name to a message. Only the first failing
// rule of each field is reported.
type FieldErrors map[string]string

// Error lists the messages in field order.
func (f FieldErrors) Error() string {
	fields := make([]string, 0, len(f))
	for field := range f {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, field := range fields {
		parts = append(parts, field+": "+f[field])
	}
	return strings.Join(parts, "; ")
}

// Validator checks form input.
type Validator struct {
	validate *validator.Validate
}

// New creates a Validator with the password and date rules registered.
func New() *Validator {
	v := validator.New(validator.WithRequiredStructEnabled())

	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})

	mustRegister(v, "haslower", containsRune(unicode.IsLower))
	mustRegister(v, "hasupper", containsRune(unicode.IsUpper))
	mustRegister(v, "hasdigit", containsRune(unicode.IsDigit))
	v.RegisterStructValidation(registrationDates, model.Registration{})

	return &Validator{validate: v}
}

// mustRegister registers a field rule and panics if validator rejects it.
func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		panic(fmt.Sprintf("forms: register %q: %v", tag, err))
	}
}

func containsRune(pred func(rune) bool) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return strings.IndexFunc(fl.Field().String(), pred) >= 0
	}
}

// registrationDates requires the education start to be before its end.
// Unparseable dates are left to the field-level datetime rule.
func registrationDates(sl validator.StructLevel) {
	reg := sl.Current().Interface().(model.Registration)

	start, err := time.Parse(DateLayout, reg.EducationStartDate)
	if err != nil {
		return
	}
	end, err := time.Parse(DateLayout, reg.EducationEndDate)
	if err != nil {
		return
	}
	if !start.Before(end) {
		sl.ReportError(reg.EducationEndDate, "education_end_date", "EducationEndDate", "after_start", "")
	}
}

// Login validates login credentials.
func (v *Validator) Login(creds model.LoginCredentials) error {
	return v.check(creds)
}

// Registration validates a registration form.
func (v *Validator) Registration(reg model.Registration) error {
	return v.check(reg)
}

func (v *Validator) check(s any) error {
	err := v.validate.Struct(s)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}

	out := make(FieldErrors, len(verrs))
	for _, fe := range verrs {
		field := fe.Field()
		if _, seen := out[field]; seen {
			continue
		}
		out[field] = message(field, fe.Tag(), fe.Param())
	}
	return out
}

// messages holds the user-facing text per field and rule.
var messages = map[string]map[string]string{
	"name": {
		"required": "Name is required",
		"min":      "Name must be at least 2 characters",
	},
	"email": {
		"required": "Email is required",
		"email":    "Please enter a valid email address",
	},
	"education_start_date": {
		"required": "Education start date is required",
		"datetime": "Education start date must be a date (YYYY-MM-DD)",
	},
	"education_end_date": {
		"required":    "Education end date is required",
		"datetime":    "Education end date must be a date (YYYY-MM-DD)",
		"after_start": "End date must be after start date",
	},
	"password": {
		"required": "Password is required",
		"min":      "Password must be at least 6 characters",
		"haslower": "Password must contain at least one lowercase letter",
		"hasupper": "Password must contain at least one uppercase letter",
		"hasdigit": "Password must contain at least one number",
	},
	"password_confirmation": {
		"required": "Please confirm your password",
		"eqfield":  "Passwords do not match",
	},
	"terms": {
		"eq": "You must agree to the terms and conditions",
	},
}

func message(field, tag, param string) string {
	if m, ok := messages[field][tag]; ok {
		return m
	}
	if param != "" {
		return field + " failed " + tag + "=" + param
	}
	return field + " failed " + tag
}
