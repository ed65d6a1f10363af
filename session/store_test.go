package session_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/jrsteele09/smartsport/gateway"
	"github.com/jrsteele09/smartsport/session"
	"github.com/jrsteele09/smartsport/session/repofakes"
	"github.com/jrsteele09/smartsport/tournaments"
	"github.com/jrsteele09/smartsport/users"
	"github.com/stretchr/testify/require"
)

const (
	adminEmail    = "admin@smartsport.io"
	adminPassword = "Admin1234"
	adminToken    = "abc"
)

var adminUser = users.User{ID: 1, Username: "admin", Email: adminEmail, Role: users.RoleAdmin}

// backend is a fake SmartSport API that records the Authorization header of
// every request.
type backend struct {
	server *httptest.Server

	mu            sync.Mutex
	authHeaders   []string
	loginResponse string
	resourceCode  int
	userCode      int
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{resourceCode: http.StatusOK, userCode: http.StatusOK}
	b.loginResponse = loginJSON(t, adminUser, adminToken)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/auth/login/", func(w http.ResponseWriter, r *http.Request) {
		var creds gateway.Credentials
		_ = json.NewDecoder(r.Body).Decode(&creds)
		if creds.Password != adminPassword {
			writeJSON(w, http.StatusUnauthorized, `{"error":"Mot de passe incorrect"}`)
			return
		}
		b.mu.Lock()
		body := b.loginResponse
		b.mu.Unlock()
		writeJSON(w, http.StatusOK, body)
	})
	mux.HandleFunc("POST /api/auth/register/", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusCreated, `{"user":{"id":9,"email":"new@x.io","role":"joueur"},"message":"Utilisateur créé avec succès"}`)
	})
	mux.HandleFunc("GET /api/utilisateurs/{id}/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		code := b.userCode
		b.mu.Unlock()
		writeJSON(w, code, `{"id":1,"email":"admin@smartsport.io","role":"administrateur"}`)
	})
	mux.HandleFunc("GET /api/tournois/", func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		code := b.resourceCode
		b.mu.Unlock()
		writeJSON(w, code, `[]`)
	})

	b.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b.mu.Lock()
		b.authHeaders = append(b.authHeaders, r.Header.Get("Authorization"))
		b.mu.Unlock()
		mux.ServeHTTP(w, r)
	}))
	t.Cleanup(b.server.Close)
	return b
}

func (b *backend) requests() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.authHeaders)
}

func (b *backend) lastAuthorization() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.authHeaders[len(b.authHeaders)-1]
}

func (b *backend) set(fn func(b *backend)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	fn(b)
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}

func loginJSON(t *testing.T, u users.User, token string) string {
	t.Helper()
	data, err := json.Marshal(map[string]any{"user": u, "token": token, "refresh": "r"})
	require.NoError(t, err)
	return string(data)
}

type fixture struct {
	backend *backend
	client  *gateway.Client
	storage *repofakes.FakeStorage
	store   *session.Store
	routes  *[]string
}

func setup(t *testing.T, opts ...session.StoreOption) *fixture {
	t.Helper()
	f := &fixture{backend: newBackend(t), storage: repofakes.NewFakeStorage(), routes: &[]string{}}

	var err error
	f.client, err = gateway.New(f.backend.server.URL+"/api/", gateway.WithTimeout(2*time.Second))
	require.NoError(t, err)

	var mu sync.Mutex
	nav := session.NavigatorFunc(func(route string) {
		mu.Lock()
		defer mu.Unlock()
		*f.routes = append(*f.routes, route)
	})
	opts = append([]session.StoreOption{session.WithNavigator(nav, "/login")}, opts...)
	f.store = session.New(session.FromClient(f.client), f.storage, opts...)
	t.Cleanup(f.store.Close)
	return f
}

func (f *fixture) login(t *testing.T) *users.User {
	t.Helper()
	u, err := f.store.Login(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)
	return u
}

func TestLoginAuthenticates(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.store.Restore(context.Background()))

	u := f.login(t)
	require.Equal(t, users.RoleAdmin, u.Role)

	snap := f.store.Snapshot()
	require.True(t, snap.IsAuthenticated())
	require.Equal(t, session.StateAuthenticated, snap.State)
	require.Equal(t, users.RoleAdmin, snap.Role())
	require.False(t, snap.IsLoading)

	stored := f.storage.Snapshot()
	require.Equal(t, adminToken, stored[session.TokenKey])
	var persisted users.User
	require.NoError(t, json.Unmarshal([]byte(stored[session.UserKey]), &persisted))
	require.Equal(t, adminUser.Email, persisted.Email)
}

func TestLoginReturnsCopy(t *testing.T) {
	f := setup(t)
	u := f.login(t)
	u.Role = users.RolePlayer
	require.Equal(t, users.RoleAdmin, f.store.Snapshot().Role())

	snap := f.store.Snapshot()
	snap.User.Email = "changed"
	require.Equal(t, adminEmail, f.store.Snapshot().User.Email)
}

func TestBearerAttachedAfterLogin(t *testing.T) {
	f := setup(t)
	f.login(t)

	_, err := f.client.Tournaments.List(context.Background(), tournaments.Query{})
	require.NoError(t, err)
	require.Equal(t, "Bearer abc", f.backend.lastAuthorization())
}

func TestLogoutRemovesBearer(t *testing.T) {
	f := setup(t)
	f.login(t)
	require.NoError(t, f.store.Logout())

	_, err := f.client.Tournaments.List(context.Background(), tournaments.Query{})
	require.NoError(t, err)
	require.Empty(t, f.backend.lastAuthorization())
}

func TestLogoutIsIdempotent(t *testing.T) {
	f := setup(t)
	f.login(t)

	require.NoError(t, f.store.Logout())
	once := f.store.Snapshot()
	require.NoError(t, f.store.Logout())
	twice := f.store.Snapshot()

	require.Equal(t, once, twice)
	require.Equal(t, session.StateAnonymous, twice.State)
	require.Empty(t, f.storage.Snapshot())
}

func TestRestoreAdoptsPersistedSessionWithoutNetwork(t *testing.T) {
	f := setup(t)
	f.login(t)
	before := f.backend.requests()

	restored := session.New(session.FromClient(f.client), f.storage)
	defer restored.Close()
	require.Equal(t, session.StateUninitialized, restored.Snapshot().State)

	require.NoError(t, restored.Restore(context.Background()))
	snap := restored.Snapshot()
	require.True(t, snap.IsAuthenticated())
	require.Equal(t, users.RoleAdmin, snap.Role())
	require.Equal(t, before, f.backend.requests())
}

func TestRestoreRunsOnce(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.store.Restore(context.Background()))
	require.ErrorIs(t, f.store.Restore(context.Background()), session.ErrAlreadyRestored)
}

func TestRestoreEmptyStorage(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.store.Restore(context.Background()))
	snap := f.store.Snapshot()
	require.Equal(t, session.StateAnonymous, snap.State)
	require.False(t, snap.IsAuthenticated())
	require.Zero(t, f.storage.Writes())
}

func TestRestorePartialOrCorrupt(t *testing.T) {
	tests := map[string]map[string]string{
		"token only":   {session.TokenKey: "abc"},
		"user only":    {session.UserKey: `{"id":1,"email":"a@b.c","role":"joueur"}`},
		"corrupt user": {session.TokenKey: "abc", session.UserKey: `{"id":`},
		"unknown role": {session.TokenKey: "abc", session.UserKey: `{"id":1,"role":"superuser"}`},
	}
	for name, persisted := range tests {
		t.Run(name, func(t *testing.T) {
			f := setup(t)
			for k, v := range persisted {
				require.NoError(t, f.storage.Set(k, v))
			}

			require.NoError(t, f.store.Restore(context.Background()))
			require.Equal(t, session.StateAnonymous, f.store.Snapshot().State)
			require.Empty(t, f.storage.Snapshot(), "leftover keys must be cleared")
		})
	}
}

func TestRestoreStorageReadFailure(t *testing.T) {
	f := setup(t)
	require.NoError(t, f.storage.Set(session.TokenKey, "abc"))
	f.storage.FailGet(session.UserKey, true)

	require.NoError(t, f.store.Restore(context.Background()))
	require.Equal(t, session.StateAnonymous, f.store.Snapshot().State)
}

func signedToken(t *testing.T, exp time.Time) string {
	t.Helper()
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"user_id": 1, "exp": exp.Unix()}).SignedString([]byte("test-key"))
	require.NoError(t, err)
	return tok
}

func persistSession(t *testing.T, storage session.Storage, token string) {
	t.Helper()
	data, err := json.Marshal(adminUser)
	require.NoError(t, err)
	require.NoError(t, storage.Set(session.TokenKey, token))
	require.NoError(t, storage.Set(session.UserKey, string(data)))
}

func TestRestoreDiscardsExpiredJWT(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	f := setup(t, session.WithNowFunc(func() time.Time { return now }))
	persistSession(t, f.storage, signedToken(t, now.Add(-time.Minute)))

	require.NoError(t, f.store.Restore(context.Background()))
	require.Equal(t, session.StateAnonymous, f.store.Snapshot().State)
	require.Empty(t, f.storage.Snapshot())
}

func TestRestoreKeepsValidJWT(t *testing.T) {
	now := time.Date(2026, 6, 1, 12, 0, 0, 0, time.UTC)
	f := setup(t, session.WithNowFunc(func() time.Time { return now }))
	persistSession(t, f.storage, signedToken(t, now.Add(time.Hour)))

	require.NoError(t, f.store.Restore(context.Background()))
	require.True(t, f.store.Snapshot().IsAuthenticated())
}

func TestRestoreExpiryCheckDisabled(t *testing.T) {
	f := setup(t, session.WithTokenExpiryCheck(false))
	persistSession(t, f.storage, signedToken(t, time.Now().Add(-time.Hour)))

	require.NoError(t, f.store.Restore(context.Background()))
	require.True(t, f.store.Snapshot().IsAuthenticated())
}

func TestRestoreValidation(t *testing.T) {
	t.Run("accepted", func(t *testing.T) {
		f := setup(t, session.WithRestoreValidation(true))
		persistSession(t, f.storage, adminToken)

		require.NoError(t, f.store.Restore(context.Background()))
		require.True(t, f.store.Snapshot().IsAuthenticated())
		require.Equal(t, "Bearer abc", f.backend.lastAuthorization())
	})

	t.Run("rejected", func(t *testing.T) {
		f := setup(t, session.WithRestoreValidation(true))
		f.backend.set(func(b *backend) { b.userCode = http.StatusUnauthorized })
		persistSession(t, f.storage, adminToken)

		require.NoError(t, f.store.Restore(context.Background()))
		require.Equal(t, session.StateAnonymous, f.store.Snapshot().State)
		require.Empty(t, f.storage.Snapshot())
	})

	t.Run("backend down keeps session", func(t *testing.T) {
		f := setup(t, session.WithRestoreValidation(true))
		f.backend.set(func(b *backend) { b.userCode = http.StatusServiceUnavailable })
		persistSession(t, f.storage, adminToken)

		require.NoError(t, f.store.Restore(context.Background()))
		require.True(t, f.store.Snapshot().IsAuthenticated())
	})
}

func TestResource401ForcesLogout(t *testing.T) {
	f := setup(t)
	f.login(t)
	f.backend.set(func(b *backend) { b.resourceCode = http.StatusUnauthorized })

	_, err := f.client.Tournaments.List(context.Background(), tournaments.Query{})
	require.ErrorIs(t, err, gateway.ErrUnauthenticated)

	snap := f.store.Snapshot()
	require.Equal(t, session.StateAnonymous, snap.State)
	require.False(t, snap.IsAuthenticated())
	require.Empty(t, f.storage.Snapshot())
	require.Equal(t, []string{"/login"}, *f.routes)
}

// scriptedGateway hands the Store's unauthenticated subscriber to the test.
type scriptedGateway struct {
	session.Gateway
	subscriber func(gateway.UnauthenticatedEvent)
}

func (g *scriptedGateway) OnUnauthenticated(fn func(gateway.UnauthenticatedEvent)) func() {
	g.subscriber = fn
	return g.Gateway.OnUnauthenticated(func(gateway.UnauthenticatedEvent) {})
}

func TestStaleRejectionIgnored(t *testing.T) {
	b := newBackend(t)
	client, err := gateway.New(b.server.URL + "/api/")
	require.NoError(t, err)
	gw := &scriptedGateway{Gateway: session.FromClient(client)}

	var routes []string
	store := session.New(gw, repofakes.NewFakeStorage(),
		session.WithNavigator(session.NavigatorFunc(func(r string) { routes = append(routes, r) }), ""))
	defer store.Close()

	_, err = store.Login(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)

	gw.subscriber(gateway.UnauthenticatedEvent{Method: http.MethodGet, Path: "tournois/", Token: "previous"})
	require.True(t, store.Snapshot().IsAuthenticated())
	require.Empty(t, routes)

	gw.subscriber(gateway.UnauthenticatedEvent{Method: http.MethodGet, Path: "tournois/", Token: adminToken})
	require.False(t, store.Snapshot().IsAuthenticated())
	require.Equal(t, []string{session.DefaultLoginRoute}, routes)
}

func TestAnonymousRejectionDoesNotClearLaterLogin(t *testing.T) {
	b := newBackend(t)
	client, err := gateway.New(b.server.URL + "/api/")
	require.NoError(t, err)
	gw := &scriptedGateway{Gateway: session.FromClient(client)}

	var routes []string
	store := session.New(gw, repofakes.NewFakeStorage(),
		session.WithNavigator(session.NavigatorFunc(func(r string) { routes = append(routes, r) }), ""))
	defer store.Close()
	require.NoError(t, store.Restore(context.Background()))

	// A request sent before anyone logged in is rejected.
	gw.subscriber(gateway.UnauthenticatedEvent{Method: http.MethodGet, Path: "tournois/mes_tournois/"})
	require.Equal(t, []string{session.DefaultLoginRoute}, routes)

	_, err = store.Login(context.Background(), adminEmail, adminPassword)
	require.NoError(t, err)

	// The same kind of rejection arriving after the login is stale.
	gw.subscriber(gateway.UnauthenticatedEvent{Method: http.MethodGet, Path: "tournois/mes_tournois/"})
	snap := store.Snapshot()
	require.True(t, snap.IsAuthenticated())
	require.Equal(t, adminToken, snap.Token)
	require.Len(t, routes, 1)
}

func TestNetworkFailureKeepsSession(t *testing.T) {
	f := setup(t)
	f.login(t)
	f.backend.server.Close()

	_, err := f.client.Tournaments.List(context.Background(), tournaments.Query{})
	require.ErrorIs(t, err, gateway.ErrNetworkUnreachable)
	require.True(t, f.store.Snapshot().IsAuthenticated())
	require.Empty(t, *f.routes)
}

func TestWrongPasswordKeepsExistingSession(t *testing.T) {
	f := setup(t)
	f.login(t)

	_, err := f.store.Login(context.Background(), adminEmail, "wrong")
	require.ErrorIs(t, err, gateway.ErrUnauthenticated)

	snap := f.store.Snapshot()
	require.True(t, snap.IsAuthenticated())
	require.Equal(t, adminToken, snap.Token)
	require.Empty(t, *f.routes)
}

func TestLoginRequiresFields(t *testing.T) {
	f := setup(t)
	_, err := f.store.Login(context.Background(), " ", "")
	require.ErrorIs(t, err, gateway.ErrBadRequest)

	var apiErr *gateway.Error
	require.ErrorAs(t, err, &apiErr)
	require.Contains(t, apiErr.Fields, "email")
	require.Contains(t, apiErr.Fields, "password")
	require.Zero(t, f.backend.requests())
}

func TestIncompleteLoginResponse(t *testing.T) {
	for name, body := range map[string]string{
		"missing token": `{"user":{"id":1,"email":"a@b.c","role":"joueur"}}`,
		"missing user":  `{"token":"abc"}`,
		"unknown role":  `{"user":{"id":1,"role":"root"},"token":"abc"}`,
	} {
		t.Run(name, func(t *testing.T) {
			f := setup(t)
			f.backend.set(func(b *backend) { b.loginResponse = body })

			_, err := f.store.Login(context.Background(), adminEmail, adminPassword)
			require.ErrorIs(t, err, gateway.ErrServerError)
			require.ErrorIs(t, err, session.ErrIncompleteLogin)
			require.False(t, f.store.Snapshot().IsAuthenticated())
			require.Empty(t, f.storage.Snapshot())
		})
	}
}

func TestIncompleteLoginErrorIsNotShared(t *testing.T) {
	f := setup(t)
	f.backend.set(func(b *backend) { b.loginResponse = `{"token":"abc"}` })

	_, err := f.store.Login(context.Background(), adminEmail, adminPassword)
	var first *gateway.Error
	require.ErrorAs(t, err, &first)
	first.Message = "changed by caller"

	_, err = f.store.Login(context.Background(), adminEmail, adminPassword)
	var second *gateway.Error
	require.ErrorAs(t, err, &second)
	require.NotSame(t, first, second)
	require.Equal(t, "incomplete login response", second.Message)
	require.Equal(t, "incomplete login response", session.ErrIncompleteLogin.Message)
}

func TestLoginPersistFailureRollsBack(t *testing.T) {
	f := setup(t)
	f.storage.FailSet(session.UserKey, true)

	_, err := f.store.Login(context.Background(), adminEmail, adminPassword)
	require.ErrorIs(t, err, session.ErrStorage)
	require.False(t, f.store.Snapshot().IsAuthenticated())
	require.Empty(t, f.storage.Snapshot())
}

func TestRegisterDoesNotAuthenticate(t *testing.T) {
	f := setup(t)
	resp, err := f.store.Register(context.Background(), users.Registration{
		Username: "new",
		Email:    "new@x.io",
		Password: "Password1",
	})
	require.NoError(t, err)
	require.Equal(t, 9, resp.User.ID)
	require.False(t, f.store.Snapshot().IsAuthenticated())
	require.Empty(t, f.storage.Snapshot())
}

func TestRegisterValidatesLocally(t *testing.T) {
	f := setup(t)
	_, err := f.store.Register(context.Background(), users.Registration{Username: "x", Email: "bad", Password: "short"})
	require.ErrorIs(t, err, gateway.ErrBadRequest)

	var apiErr *gateway.Error
	require.ErrorAs(t, err, &apiErr)
	require.Contains(t, apiErr.Fields, "email")
	require.Contains(t, apiErr.Fields, "password")
	require.Zero(t, f.backend.requests())
}

func TestCloseDetachesStore(t *testing.T) {
	f := setup(t)
	f.login(t)
	f.store.Close()

	_, err := f.client.Tournaments.List(context.Background(), tournaments.Query{})
	require.NoError(t, err)
	require.Empty(t, f.backend.lastAuthorization())
}

func TestStateString(t *testing.T) {
	require.Equal(t, "restoring", session.StateRestoring.String())
	require.Equal(t, "anonymous", session.StateAnonymous.String())
}
