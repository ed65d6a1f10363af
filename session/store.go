package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/smartsport/gateway"
	ierrors "github.com/jrsteele09/smartsport/internal/errors"
	"github.com/jrsteele09/smartsport/users"
	"github.com/rs/zerolog"
	"golang.org/x/oauth2"
)

// State is the lifecycle of the session.
type State int

const (
	StateUninitialized State = iota
	StateRestoring
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateRestoring:
		return "restoring"
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

var (
	ErrAlreadyRestored = errors.New("session already restored")
	ErrStorage         = errors.New("session storage failure")

	// ErrIncompleteLogin matches the error returned when the backend
	// accepts the credentials but omits the user or the token.
	ErrIncompleteLogin = newIncompleteLoginError()
)

const msgIncompleteLogin = "incomplete login response"

// newIncompleteLoginError returns a fresh error so callers cannot alter
// what later logins return.
func newIncompleteLoginError() *gateway.Error {
	return &gateway.Error{Kind: gateway.KindServerError, Message: msgIncompleteLogin}
}

// DefaultLoginRoute is where a forced logout navigates to.
const DefaultLoginRoute = "/login"

// Snapshot is a consistent copy of the session. It shares nothing with the
// Store.
type Snapshot struct {
	State     State
	User      *users.User
	Token     string
	IsLoading bool
}

// IsAuthenticated is true only when both the token and the user are present.
func (s Snapshot) IsAuthenticated() bool {
	return s.Token != "" && s.User != nil
}

func (s Snapshot) Role() users.RoleType {
	if s.User == nil {
		return ""
	}
	return s.User.Role
}

// Navigator performs client-side navigation after a forced logout.
type Navigator interface {
	Navigate(route string)
}

// NavigatorFunc adapts a function to Navigator.
type NavigatorFunc func(route string)

func (f NavigatorFunc) Navigate(route string) { f(route) }

// Store owns the authenticated identity. It is the token source of the
// gateway and the only writer of the persisted session.
type Store struct {
	gw                Gateway
	storage           Storage
	logger            zerolog.Logger
	navigator         Navigator
	loginRoute        string
	checkExpiry       bool
	validateOnRestore bool
	nowFunc           func() time.Time

	mu    sync.RWMutex
	state State
	user  *users.User
	token string

	unsubscribe func()
}

type StoreOption func(*Store)

func WithLogger(logger zerolog.Logger) StoreOption {
	return func(s *Store) {
		s.logger = logger
	}
}

// WithNavigator sets where forced logouts navigate to. An empty route uses
// DefaultLoginRoute.
func WithNavigator(nav Navigator, loginRoute string) StoreOption {
	return func(s *Store) {
		s.navigator = nav
		if loginRoute != "" {
			s.loginRoute = loginRoute
		}
	}
}

// WithTokenExpiryCheck discards a restored JWT whose exp claim has passed.
// Tokens that are not JWTs are always trusted.
func WithTokenExpiryCheck(enabled bool) StoreOption {
	return func(s *Store) {
		s.checkExpiry = enabled
	}
}

// WithRestoreValidation makes Restore confirm the session with one call to
// the backend.
func WithRestoreValidation(enabled bool) StoreOption {
	return func(s *Store) {
		s.validateOnRestore = enabled
	}
}

func WithNowFunc(now func() time.Time) StoreOption {
	return func(s *Store) {
		s.nowFunc = now
	}
}

// New creates the Store, installs it as the gateway's token source and
// subscribes to forced logouts. Call Close to detach it.
func New(gw Gateway, storage Storage, options ...StoreOption) *Store {
	s := &Store{
		gw:          gw,
		storage:     storage,
		logger:      zerolog.Nop(),
		loginRoute:  DefaultLoginRoute,
		checkExpiry: true,
		nowFunc:     time.Now,
		state:       StateUninitialized,
	}
	for _, opt := range options {
		opt(s)
	}

	gw.UseTokenSource(s)
	s.unsubscribe = gw.OnUnauthenticated(s.handleUnauthenticated)
	return s
}

// Close detaches the Store from the gateway.
func (s *Store) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
	s.gw.UseTokenSource(nil)
}

// Token implements oauth2.TokenSource. It returns a nil token when nobody
// is logged in.
func (s *Store) Token() (*oauth2.Token, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.token == "" {
		return nil, nil
	}
	return &oauth2.Token{AccessToken: s.token, TokenType: "Bearer"}, nil
}

// Snapshot returns a copy of the current session.
func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		State:     s.state,
		User:      s.user.Clone(),
		Token:     s.token,
		IsLoading: s.state == StateRestoring,
	}
}

// Restore adopts the persisted session, if any. It runs once; a partial or
// unreadable persisted session is cleared and the Store becomes anonymous.
func (s *Store) Restore(ctx context.Context) error {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return ErrAlreadyRestored
	}
	s.state = StateRestoring
	s.mu.Unlock()

	user, token, err := s.load()
	if err != nil {
		s.logger.Warn().Err(err).Msg("persisted session discarded")
		s.finishRestore(nil, "", true)
		return nil
	}
	if user == nil {
		s.finishRestore(nil, "", false)
		return nil
	}

	if s.checkExpiry && tokenExpired(token, s.nowFunc()) {
		s.logger.Info().Int("user_id", user.ID).Msg("persisted token expired")
		s.finishRestore(nil, "", true)
		return nil
	}

	if s.validateOnRestore {
		s.mu.Lock()
		s.user, s.token = user, token
		s.mu.Unlock()

		_, err := s.gw.User(ctx, user.ID)
		switch gateway.KindOf(err) {
		case 0:
		case gateway.KindUnauthenticated, gateway.KindNotFound:
			s.logger.Info().Err(err).Int("user_id", user.ID).Msg("persisted session rejected by backend")
			s.finishRestore(nil, "", true)
			return nil
		default:
			s.logger.Warn().Err(err).Msg("session validation unavailable, trusting persisted session")
		}
	}

	s.finishRestore(user, token, false)
	return nil
}

// finishRestore settles RESTORING. A login, logout or forced clear that
// happened meanwhile wins.
func (s *Store) finishRestore(user *users.User, token string, clearPersisted bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state != StateRestoring {
		return
	}
	if user == nil {
		s.user, s.token, s.state = nil, "", StateAnonymous
		if clearPersisted {
			if err := s.clearStorage(); err != nil {
				s.logger.Warn().Err(err).Msg("failed to clear persisted session")
			}
		}
		return
	}
	s.user, s.token, s.state = user, token, StateAuthenticated
}

// load reads both keys. A missing pair yields a nil user and no error; a
// partial or corrupt pair yields an error.
func (s *Store) load() (*users.User, string, error) {
	token, hasToken, err := s.storage.Get(TokenKey)
	if err != nil {
		return nil, "", ierrors.Mark(ierrors.Wrapf(err, "read %s", TokenKey), ErrStorage)
	}
	rawUser, hasUser, err := s.storage.Get(UserKey)
	if err != nil {
		return nil, "", ierrors.Mark(ierrors.Wrapf(err, "read %s", UserKey), ErrStorage)
	}

	switch {
	case !hasToken && !hasUser:
		return nil, "", nil
	case !hasToken || strings.TrimSpace(token) == "":
		return nil, "", errors.New("persisted user without token")
	case !hasUser:
		return nil, "", errors.New("persisted token without user")
	}

	var user users.User
	if err := json.Unmarshal([]byte(rawUser), &user); err != nil {
		return nil, "", ierrors.Wrapf(err, "decode %s", UserKey)
	}
	if !user.Role.Valid() {
		return nil, "", fmt.Errorf("persisted user has unknown role %q", user.Role)
	}
	return &user, token, nil
}

// Login authenticates against the backend and adopts the session. The
// returned user is a copy the caller may branch on for navigation.
func (s *Store) Login(ctx context.Context, email, password string) (*users.User, error) {
	email = strings.TrimSpace(email)
	fields := users.FieldErrors{}
	if email == "" {
		fields.Add("email", "email is required")
	}
	if password == "" {
		fields.Add("password", "password is required")
	}
	if len(fields) > 0 {
		return nil, gateway.NewValidationError(fields)
	}

	resp, err := s.gw.Login(ctx, email, password)
	if err != nil {
		return nil, err
	}
	if resp == nil || resp.User == nil || strings.TrimSpace(resp.Token) == "" || !resp.User.Role.Valid() {
		s.logger.Warn().Msg("login response missing user, token or role")
		return nil, newIncompleteLoginError()
	}

	user := resp.User.Clone()
	encoded, err := json.Marshal(user)
	if err != nil {
		return nil, ierrors.Wrapf(err, "encode user")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prevUser, prevToken, prevState := s.user, s.token, s.state
	s.user, s.token, s.state = user, resp.Token, StateAuthenticated

	if err := s.persist(resp.Token, string(encoded)); err != nil {
		s.user, s.token, s.state = prevUser, prevToken, prevState
		s.rollbackStorage(prevUser, prevToken)
		return nil, err
	}

	s.logger.Info().Int("user_id", user.ID).Str("role", user.Role.String()).Msg("logged in")
	return user.Clone(), nil
}

// Register creates an account. It never establishes a session.
func (s *Store) Register(ctx context.Context, reg users.Registration) (*gateway.RegisterResponse, error) {
	reg.Normalize()
	if fields := reg.Validate(); len(fields) > 0 {
		return nil, gateway.NewValidationError(fields)
	}
	return s.gw.Register(ctx, reg)
}

// Logout clears the session from memory and storage. Logging out while
// already anonymous is a no-op.
func (s *Store) Logout() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	wasAuthenticated := s.token != ""
	s.user, s.token, s.state = nil, "", StateAnonymous
	if err := s.clearStorage(); err != nil {
		return err
	}
	if wasAuthenticated {
		s.logger.Info().Msg("logged out")
	}
	return nil
}

// handleUnauthenticated is the forced clear. Rejections of a token other
// than the current one are stale and ignored; that includes a request sent
// anonymously before a login completed.
func (s *Store) handleUnauthenticated(ev gateway.UnauthenticatedEvent) {
	s.mu.Lock()
	if ev.Token != s.token {
		s.mu.Unlock()
		s.logger.Debug().Str("path", ev.Path).Msg("ignoring rejection of a previous token")
		return
	}
	s.user, s.token, s.state = nil, "", StateAnonymous
	err := s.clearStorage()
	s.mu.Unlock()

	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to clear persisted session")
	}
	s.logger.Info().Str("method", ev.Method).Str("path", ev.Path).Msg("session rejected by backend")

	if s.navigator != nil {
		s.navigator.Navigate(s.loginRoute)
	}
}

// persist writes both keys. Callers hold the write lock.
func (s *Store) persist(token, user string) error {
	if err := s.storage.Set(TokenKey, token); err != nil {
		return ierrors.Mark(ierrors.Wrapf(err, "write %s", TokenKey), ErrStorage)
	}
	if err := s.storage.Set(UserKey, user); err != nil {
		return ierrors.Mark(ierrors.Wrapf(err, "write %s", UserKey), ErrStorage)
	}
	return nil
}

// rollbackStorage puts the previous session back after a failed persist.
func (s *Store) rollbackStorage(prevUser *users.User, prevToken string) {
	var err error
	if prevUser == nil || prevToken == "" {
		err = s.clearStorage()
	} else {
		var encoded []byte
		if encoded, err = json.Marshal(prevUser); err == nil {
			err = s.persist(prevToken, string(encoded))
		}
	}
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to restore previous persisted session")
	}
}

// clearStorage removes both keys. Callers hold the write lock.
func (s *Store) clearStorage() error {
	var errs []error
	for _, key := range []string{TokenKey, UserKey} {
		if err := s.storage.Delete(key); err != nil {
			errs = append(errs, ierrors.Wrapf(err, "delete %s", key))
		}
	}
	return ierrors.Mark(errors.Join(errs...), ErrStorage)
}

// tokenExpired reports whether raw is a JWT whose exp claim is not after
// now. The signature is not checked; only the backend can do that.
func tokenExpired(raw string, now time.Time) bool {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return !exp.After(now)
}
