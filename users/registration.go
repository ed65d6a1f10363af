package users

import (
	"net/url"
	"strings"
)

// Registration is the body sent to auth/register/.
type Registration struct {
	Username  string   `json:"username"`
	Email     string   `json:"email"`
	Password  string   `json:"password"`
	Role      RoleType `json:"role"`
	FirstName string   `json:"first_name,omitempty"`
	LastName  string   `json:"last_name,omitempty"`
}

// FieldErrors maps a form field to its validation messages, in the same
// shape the backend uses for 400 responses.
type FieldErrors map[string][]string

func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// Normalize trims user input and applies the backend's default role.
func (r *Registration) Normalize() {
	r.Username = strings.TrimSpace(r.Username)
	r.Email = strings.TrimSpace(r.Email)
	r.FirstName = strings.TrimSpace(r.FirstName)
	r.LastName = strings.TrimSpace(r.LastName)
	if r.Role == "" {
		r.Role = RolePlayer
	}
}

// Validate runs the checks the registration form enforces before anything
// is sent. An empty result means the registration can be submitted.
func (r Registration) Validate() FieldErrors {
	errs := FieldErrors{}
	if strings.TrimSpace(r.Username) == "" {
		errs.Add("username", "username is required")
	}
	if strings.TrimSpace(r.Email) == "" {
		errs.Add("email", "email is required")
	} else if !strings.Contains(r.Email, "@") {
		errs.Add("email", "invalid email format")
	}
	if err := ValidatePasswordStrength(r.Password); err != nil {
		errs.Add("password", err.Error())
	}
	if r.Role != "" && !r.Role.Valid() {
		errs.Add("role", "unknown role "+string(r.Role))
	}
	return errs
}

// Query filters the users listing (admin only on the backend).
type Query struct {
	Role   RoleType
	Search string
}

// Values encodes the query the way the backend's filter backends expect.
func (q Query) Values() url.Values {
	v := url.Values{}
	if q.Role != "" {
		v.Set("role", string(q.Role))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	return v
}

// Patch is a partial update of a user record. Nil fields are left unchanged.
type Patch struct {
	Username  *string   `json:"username,omitempty"`
	Email     *string   `json:"email,omitempty"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
	Telephone *string   `json:"telephone,omitempty"`
	Role      *RoleType `json:"role,omitempty"`
	IsActive  *bool     `json:"is_active,omitempty"`
}
