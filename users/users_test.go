package users_test

import (
	"testing"

	"github.com/jrsteele09/smartsport/internal/utils"
	"github.com/jrsteele09/smartsport/users"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	role, err := users.ParseRole("organisateur")
	require.NoError(t, err)
	require.Equal(t, users.RoleOrganizer, role)

	_, err = users.ParseRole("superuser")
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown role")
}

func TestValidatePasswordStrength(t *testing.T) {
	require.NoError(t, users.ValidatePasswordStrength("Secret123"))

	t.Run("too short", func(t *testing.T) {
		err := users.ValidatePasswordStrength("Se1")
		require.ErrorContains(t, err, "at least 8 characters")
	})

	t.Run("no uppercase", func(t *testing.T) {
		err := users.ValidatePasswordStrength("secret123")
		require.ErrorContains(t, err, "uppercase")
	})

	t.Run("no lowercase", func(t *testing.T) {
		err := users.ValidatePasswordStrength("SECRET123")
		require.ErrorContains(t, err, "lowercase")
	})

	t.Run("no number", func(t *testing.T) {
		err := users.ValidatePasswordStrength("SecretSecret")
		require.ErrorContains(t, err, "number")
	})
}

func TestRegistrationValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		reg := users.Registration{Username: "bob", Email: "bob@x.com", Password: "Secret123", Role: users.RolePlayer}
		require.Empty(t, reg.Validate())
	})

	t.Run("every field wrong", func(t *testing.T) {
		reg := users.Registration{Email: "bob.x.com", Password: "short", Role: "king"}
		errs := reg.Validate()
		require.Contains(t, errs, "username")
		require.Equal(t, []string{"invalid email format"}, errs["email"])
		require.Contains(t, errs, "password")
		require.Contains(t, errs, "role")
	})

	t.Run("normalize defaults role", func(t *testing.T) {
		reg := users.Registration{Username: " bob ", Email: " bob@x.com "}
		reg.Normalize()
		require.Equal(t, "bob", reg.Username)
		require.Equal(t, "bob@x.com", reg.Email)
		require.Equal(t, users.RolePlayer, reg.Role)
	})
}

func TestUserHelpers(t *testing.T) {
	u := &users.User{ID: 1, Username: "jdoe", Email: "j@x.com", Role: users.RoleAdmin, IsActive: utils.Ptr(true)}

	require.True(t, u.HasRole(users.RoleOrganizer, users.RoleAdmin))
	require.False(t, u.HasRole(users.RolePlayer))
	require.Equal(t, "jdoe", u.DisplayName())

	u.FirstName = "John"
	require.Equal(t, "John", u.DisplayName())

	clone := u.Clone()
	*clone.IsActive = false
	require.True(t, *u.IsActive)

	var nilUser *users.User
	require.False(t, nilUser.HasRole(users.RoleAdmin))
	require.Nil(t, nilUser.Clone())
}

func TestQueryValues(t *testing.T) {
	v := users.Query{Role: users.RolePlayer, Search: "bob"}.Values()
	require.Equal(t, "joueur", v.Get("role"))
	require.Equal(t, "bob", v.Get("search"))
	require.Empty(t, users.Query{}.Values())
}
