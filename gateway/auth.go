package gateway

import (
	"context"
	"net/http"

	"github.com/jrsteele09/smartsport/users"
)

const (
	loginPath    = "auth/login/"
	registerPath = "auth/register/"
)

// Credentials is the body of auth/login/.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse carries the identity and bearer credential issued at login.
// Refresh is returned by the backend but not used by the client.
type LoginResponse struct {
	User    *users.User `json:"user"`
	Token   string      `json:"token"`
	Refresh string      `json:"refresh,omitempty"`
}

// RegisterResponse confirms a created account. It does not log the user in.
type RegisterResponse struct {
	User    *users.User `json:"user"`
	Message string      `json:"message,omitempty"`
}

// AuthService groups the credential endpoints. A 401 here means bad
// credentials and never emits an UnauthenticatedEvent.
type AuthService struct {
	c *Client
}

func (s *AuthService) Login(ctx context.Context, email, password string) (*LoginResponse, error) {
	out := &LoginResponse{}
	_, err := s.c.exchange(ctx, request{
		method: http.MethodPost,
		path:   loginPath,
		body:   Credentials{Email: email, Password: password},
		out:    out,
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *AuthService) Register(ctx context.Context, reg users.Registration) (*RegisterResponse, error) {
	out := &RegisterResponse{}
	_, err := s.c.exchange(ctx, request{
		method: http.MethodPost,
		path:   registerPath,
		body:   reg,
		out:    out,
		auth:   true,
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}
