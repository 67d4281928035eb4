package forms

import (
	"errors"
	"testing"
	"unicode"

	"github.com/go-playground/validator/v10"
	"github.com/spiffcs/storefront/internal/model"
)

func validRegistration() model.Registration {
	return model.Registration{
		Name:                 "Ada Lovelace",
		Email:                "ada@example.com",
		EducationStartDate:   "2019-09-01",
		EducationEndDate:     "2023-06-30",
		Password:             "Secret1",
		PasswordConfirmation: "Secret1",
		Terms:                true,
	}
}

func TestRegistrationValid(t *testing.T) {
	if err := New().Registration(validRegistration()); err != nil {
		t.Fatalf("Registration() error: %v", err)
	}
}

func TestRegistrationRules(t *testing.T) {
	tests := []struct {
		name   string
		modify func(r *model.Registration)
		field  string
		want   string
	}{
		{"empty name", func(r *model.Registration) { r.Name = "" }, "name", "Name is required"},
		{"short name", func(r *model.Registration) { r.Name = "A" }, "name", "Name must be at least 2 characters"},
		{"bad email", func(r *model.Registration) { r.Email = "ada" }, "email", "Please enter a valid email address"},
		{"missing start", func(r *model.Registration) { r.EducationStartDate = "" }, "education_start_date", "Education start date is required"},
		{"bad end date", func(r *model.Registration) { r.EducationEndDate = "June" }, "education_end_date", "Education end date must be a date (YYYY-MM-DD)"},
		{"end before start", func(r *model.Registration) { r.EducationEndDate = "2018-01-01" }, "education_end_date", "End date must be after start date"},
		{"end equals start", func(r *model.Registration) { r.EducationEndDate = r.EducationStartDate }, "education_end_date", "End date must be after start date"},
		{"short password", func(r *model.Registration) { r.Password, r.PasswordConfirmation = "Ab1", "Ab1" }, "password", "Password must be at least 6 characters"},
		{"no lowercase", func(r *model.Registration) { r.Password, r.PasswordConfirmation = "SECRET1", "SECRET1" }, "password", "Password must contain at least one lowercase letter"},
		{"no uppercase", func(r *model.Registration) { r.Password, r.PasswordConfirmation = "secret1", "secret1" }, "password", "Password must contain at least one uppercase letter"},
		{"no digit", func(r *model.Registration) { r.Password, r.PasswordConfirmation = "Secrets", "Secrets" }, "password", "Password must contain at least one number"},
		{"no confirmation", func(r *model.Registration) { r.PasswordConfirmation = "" }, "password_confirmation", "Please confirm your password"},
		{"mismatch", func(r *model.Registration) { r.PasswordConfirmation = "Secret2" }, "password_confirmation", "Passwords do not match"},
		{"terms not accepted", func(r *model.Registration) { r.Terms = false }, "terms", "You must agree to the terms and conditions"},
	}

	v := New()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := validRegistration()
			tt.modify(&reg)

			err := v.Registration(reg)
			var fe FieldErrors
			if !errors.As(err, &fe) {
				t.Fatalf("Registration() error = %v, want FieldErrors", err)
			}
			if got := fe[tt.field]; got != tt.want {
				t.Errorf("%s = %q, want %q (all: %v)", tt.field, got, tt.want, fe)
			}
		})
	}
}

func TestLogin(t *testing.T) {
	v := New()

	if err := v.Login(model.LoginCredentials{Email: "a@b.co", Password: "x"}); err != nil {
		t.Errorf("Login() error: %v", err)
	}

	err := v.Login(model.LoginCredentials{Email: "not-an-email"})
	var fe FieldErrors
	if !errors.As(err, &fe) {
		t.Fatalf("Login() error = %v, want FieldErrors", err)
	}
	if fe["email"] != "Please enter a valid email address" {
		t.Errorf("email = %q", fe["email"])
	}
	if fe["password"] != "Password is required" {
		t.Errorf("password = %q", fe["password"])
	}
}

func TestFieldErrorsString(t *testing.T) {
	fe := FieldErrors{"password": "too short", "email": "bad"}
	if got, want := fe.Error(), "email: bad; password: too short"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

func TestMustRegisterPanicsOnRejectedRule(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic for an empty rule tag")
		}
	}()
	mustRegister(validator.New(), "", containsRune(unicode.IsDigit))
}
