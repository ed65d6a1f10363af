package users

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// RoleType represents the role a SmartSport account was registered with.
// Authorization decisions on the client switch on this value.
type RoleType string

const (
	RolePlayer    RoleType = "joueur"         // Browses and registers for tournaments
	RoleOrganizer RoleType = "organisateur"   // Creates and manages tournaments
	RoleAdmin     RoleType = "administrateur" // Manages users, sees platform statistics
	RoleReferee   RoleType = "arbitre"        // Records match scores
)

var knownRoles = map[RoleType]struct{}{
	RolePlayer:    {},
	RoleOrganizer: {},
	RoleAdmin:     {},
	RoleReferee:   {},
}

// ParseRole converts a raw role tag into a RoleType, rejecting unknown tags.
func ParseRole(role string) (RoleType, error) {
	r := RoleType(strings.TrimSpace(role))
	if !r.Valid() {
		return "", fmt.Errorf("unknown role %q", role)
	}
	return r, nil
}

// Valid reports whether r is one of the known roles.
func (r RoleType) Valid() bool {
	_, ok := knownRoles[r]
	return ok
}

func (r RoleType) String() string {
	return string(r)
}

// User is the account record returned by the backend at login and by the
// users endpoints.
type User struct {
	ID         int       `json:"id"`                    // Backend identifier
	Username   string    `json:"username,omitempty"`    // Unique username
	Email      string    `json:"email"`                 // Login identifier
	Role       RoleType  `json:"role"`                  // Account role
	FirstName  string    `json:"first_name,omitempty"`  // First name of the user
	LastName   string    `json:"last_name,omitempty"`   // Last name of the user
	Telephone  string    `json:"telephone,omitempty"`   // Optional phone number
	DateJoined time.Time `json:"date_inscription,omitzero"`
	IsActive   *bool     `json:"is_active,omitempty"` // Only present on admin listings
}

// DisplayName prefers the full name and falls back to the username.
func (u *User) DisplayName() string {
	fullName := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if fullName != "" {
		return fullName
	}
	if u.Username != "" {
		return u.Username
	}
	return u.Email
}

// HasRole reports whether the user holds any of the given roles.
func (u *User) HasRole(roles ...RoleType) bool {
	if u == nil {
		return false
	}
	for _, role := range roles {
		if u.Role == role {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers cannot mutate shared state.
func (u *User) Clone() *User {
	if u == nil {
		return nil
	}
	c := *u
	if u.IsActive != nil {
		active := *u.IsActive
		c.IsActive = &active
	}
	return &c
}

// ValidatePasswordStrength checks if password meets security requirements:
// - At least 8 characters long
// - Contains uppercase and lowercase letters
// - Contains at least one number
func ValidatePasswordStrength(password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters long")
	}

	var (
		hasUpper  bool
		hasLower  bool
		hasNumber bool
	)

	for _, char := range password {
		if unicode.IsUpper(char) {
			hasUpper = true
		} else if unicode.IsLower(char) {
			hasLower = true
		} else if unicode.IsDigit(char) {
			hasNumber = true
		}
	}

	if !hasUpper {
		return fmt.Errorf("password must contain at least one uppercase letter")
	}
	if !hasLower {
		return fmt.Errorf("password must contain at least one lowercase letter")
	}
	if !hasNumber {
		return fmt.Errorf("password must contain at least one number")
	}

	return nil
}
