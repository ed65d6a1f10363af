package server

import (
	"net/http"

	"github.com/jrsteele09/smartsport/gateway"
	ierrors "github.com/jrsteele09/smartsport/internal/errors"
	"github.com/jrsteele09/smartsport/users"
	"github.com/rs/zerolog/log"
)

// LoginPageData is the login view model.
type LoginPageData struct {
	AppName string `json:"app_name"`
	Notice  string `json:"notice,omitempty"` // One-time session-expired message
	Next    string `json:"next,omitempty"`
	Email   string `json:"email,omitempty"` // Preserve email on error
}

type loginErrorData struct {
	Error ErrorBody `json:"error"`
	Email string    `json:"email,omitempty"`
}

// LoginPageUIHandler displays the login page (GET /login)
func (s *Server) LoginPageUIHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		next := r.URL.Query().Get("next")

		// Already logged in, go straight to the role's home
		if snap := s.store.Snapshot(); snap.IsAuthenticated() {
			redirectSuccess(w, r, homeForRole(snap.Role(), next))
			return
		}

		writeJSON(w, http.StatusOK, LoginPageData{
			AppName: s.appName,
			Notice:  s.notices.Take(),
			Next:    safeNext(next),
			Email:   r.URL.Query().Get("email"),
		})
	}
}

// LoginSubmissionHandler processes the login form submission
func (s *Server) LoginSubmissionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := readInput(r)
		if err != nil {
			writeAPIError(w, err)
			return
		}
		email := form.Get("email")

		user, err := s.store.Login(r.Context(), email, form.Get("password"))
		if err != nil {
			s.renderLoginError(w, err, email)
			return
		}

		log.Info().Int("user_id", user.ID).Msg("User logged in")
		redirectSuccess(w, r, homeForRole(user.Role, form.Get("next")))
	}
}

// renderLoginError keeps the user on the login page. A rejected login
// never navigates anywhere.
func (s *Server) renderLoginError(w http.ResponseWriter, err error, email string) {
	var apiErr *gateway.Error
	if !ierrors.As(err, &apiErr) {
		log.Err(err).Msg("Login failed")
		writeJSON(w, http.StatusInternalServerError, loginErrorData{
			Error: ErrorBody{Kind: "internal_error", Message: "unable to save the session"},
			Email: email,
		})
		return
	}

	status := statusForKind(apiErr)
	message := apiErr.Message
	if apiErr.Kind == gateway.KindUnauthenticated {
		message = "Invalid email or password"
	}
	writeJSON(w, status, loginErrorData{
		Error: ErrorBody{Kind: apiErr.Kind.String(), Message: message, Fields: apiErr.Fields},
		Email: email,
	})
}

// LogoutHandler ends the session and returns to the login page.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := s.store.Logout(); err != nil {
			log.Err(err).Msg("Failed to clear persisted session")
		}
		redirectSuccess(w, r, s.guard.LoginRoute())
	}
}

// RegisterPageData is the registration view model.
type RegisterPageData struct {
	AppName string           `json:"app_name"`
	Roles   []users.RoleType `json:"roles"`
}

// RegisterResult is returned after an account is created. The user still
// has to log in.
type RegisterResult struct {
	Message  string      `json:"message"`
	User     *users.User `json:"user,omitempty"`
	LoginURL string      `json:"login_url"`
}

// selfServiceRoles are the roles offered on the public registration form.
var selfServiceRoles = []users.RoleType{users.RolePlayer, users.RoleOrganizer}

// SignupGetHandler displays the registration page (GET /register)
func (s *Server) SignupGetHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, RegisterPageData{AppName: s.appName, Roles: selfServiceRoles})
	}
}

// SignupPostHandler creates the account (POST /register)
func (s *Server) SignupPostHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		form, err := readInput(r)
		if err != nil {
			writeAPIError(w, err)
			return
		}

		reg := users.Registration{
			Username:  form.Get("username"),
			Email:     form.Get("email"),
			Password:  form.Get("password"),
			Role:      users.RoleType(form.Get("role")),
			FirstName: form.Get("first_name"),
			LastName:  form.Get("last_name"),
		}
		if confirm := form.Get("password_confirm"); confirm != "" && confirm != reg.Password {
			writeAPIError(w, gateway.NewValidationError(map[string][]string{
				"password_confirm": {"passwords do not match"},
			}))
			return
		}

		resp, err := s.store.Register(r.Context(), reg)
		if err != nil {
			writeAPIError(w, err)
			return
		}

		message := resp.Message
		if message == "" {
			message = "Account created. You can now log in."
		}
		writeJSON(w, http.StatusCreated, RegisterResult{Message: message, User: resp.User, LoginURL: s.guard.LoginRoute()})
	}
}
