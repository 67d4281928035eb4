package model

// User is the account returned by the auth endpoints.
type User struct {
	ID                 int    `json:"id"`
	Name               string `json:"name"`
	Email              string `json:"email"`
	EducationStartDate string `json:"education_start_date,omitempty"`
	EducationEndDate   string `json:"education_end_date,omitempty"`
}

// AuthResponse is returned by login and register. Older deployments of the
// API use access_token instead of accessToken.
type AuthResponse struct {
	AccessToken       string `json:"accessToken,omitempty"`
	AccessTokenLegacy string `json:"access_token,omitempty"`
	User              *User  `json:"user,omitempty"`
	Message           string `json:"message,omitempty"`
}

// Token returns whichever token field the server populated.
func (r *AuthResponse) Token() string {
	if r.AccessToken != "" {
		return r.AccessToken
	}
	return r.AccessTokenLegacy
}

// LoginCredentials is the body of POST /api/login.
type LoginCredentials struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Registration is the body of POST /api/register.
type Registration struct {
	Name                 string `json:"name" validate:"required,min=2"`
	Email                string `json:"email" validate:"required,email"`
	EducationStartDate   string `json:"education_start_date" validate:"required,datetime=2006-01-02"`
	EducationEndDate     string `json:"education_end_date" validate:"required,datetime=2006-01-02"`
	Password             string `json:"password" validate:"required,min=6,haslower,hasupper,hasdigit"`
	PasswordConfirmation string `json:"password_confirmation" validate:"required,eqfield=Password"`
	Terms                bool   `json:"terms" validate:"eq=true"`
}
