package session

import (
	"context"

	"github.com/jrsteele09/smartsport/gateway"
	"github.com/jrsteele09/smartsport/users"
	"golang.org/x/oauth2"
)

// Gateway is the part of the API gateway the Store depends on.
type Gateway interface {
	Login(ctx context.Context, email, password string) (*gateway.LoginResponse, error)
	Register(ctx context.Context, reg users.Registration) (*gateway.RegisterResponse, error)
	User(ctx context.Context, id int) (*users.User, error)
	UseTokenSource(src oauth2.TokenSource)
	OnUnauthenticated(fn func(gateway.UnauthenticatedEvent)) (unsubscribe func())
}

var _ Gateway = clientGateway{}

type clientGateway struct {
	*gateway.Client
}

// FromClient adapts a gateway client to the Store's Gateway.
func FromClient(c *gateway.Client) Gateway {
	return clientGateway{Client: c}
}

func (g clientGateway) Login(ctx context.Context, email, password string) (*gateway.LoginResponse, error) {
	return g.Auth.Login(ctx, email, password)
}

func (g clientGateway) Register(ctx context.Context, reg users.Registration) (*gateway.RegisterResponse, error) {
	return g.Auth.Register(ctx, reg)
}

func (g clientGateway) User(ctx context.Context, id int) (*users.User, error) {
	return g.Users.Get(ctx, id)
}
