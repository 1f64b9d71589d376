package datastore

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/getmockd/idmclient/internal/fakeidm"
	"github.com/getmockd/idmclient/pkg/config"
	"github.com/getmockd/idmclient/pkg/identity"
	"github.com/getmockd/idmclient/pkg/metrics"
	"github.com/getmockd/idmclient/pkg/resource"
)

// --- Helpers ---

// mockServer creates a test server that answers every request with handler.
func mockServer(t *testing.T, handler http.HandlerFunc, opts ...Option) (*httptest.Server, *Client) {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)
	return ts, New(ts.URL, opts...)
}

func jsonHandler(t *testing.T, statusCode int, body any) http.HandlerFunc {
	t.Helper()
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		if body != nil {
			if err := json.NewEncoder(w).Encode(body); err != nil {
				t.Errorf("failed to encode response: %v", err)
			}
		}
	}
}

// fakeService starts a fake identity service with one directory.
func fakeService(t *testing.T, srvOpts ...fakeidm.Option) (*fakeidm.Server, *httptest.Server, string) {
	t.Helper()
	srv := fakeidm.New(srvOpts...)
	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	dir, err := srv.Seed("directories", map[string]any{"name": "Starfleet"})
	require.NoError(t, err)
	return srv, ts, dir
}

func seedAccount(t *testing.T, srv *fakeidm.Server, dir, email string) string {
	t.Helper()
	path, err := srv.Seed(dir+"/accounts", map[string]any{
		"email":     email,
		"username":  strings.Split(email, "@")[0],
		"password":  "Secret1!",
		"givenName": "Test",
	})
	require.NoError(t, err)
	return path
}

// --- New / Options Tests ---

func TestNew(t *testing.T) {
	c := New("http://localhost:4380/v1/")
	assert.Equal(t, "http://localhost:4380/v1", c.BaseURL())
	assert.Equal(t, config.DefaultTimeout, c.httpClient.Timeout)
	assert.Equal(t, DefaultUserAgent, c.userAgent)
	assert.Nil(t, c.cache)
}

func TestNew_Options(t *testing.T) {
	hc := &http.Client{}
	c := New("http://localhost",
		WithHTTPClient(hc),
		WithTimeout(5*time.Second),
		WithAPIKey("id", "secret"),
		WithUserAgent("test/1.0"),
		WithCache(8, time.Minute),
	)
	assert.Same(t, hc, c.httpClient)
	assert.Equal(t, 5*time.Second, hc.Timeout)
	assert.Equal(t, "id", c.keyID)
	assert.Equal(t, "secret", c.keySecret)
	assert.Equal(t, "test/1.0", c.userAgent)
	assert.NotNil(t, c.cache)
}

func TestNewFromConfig(t *testing.T) {
	cfg := config.NewDefault()
	cfg.BaseURL = "https://idm.example.com/v1"
	cfg.APIKeyID, cfg.APIKeySecret = "id", "secret"
	cfg.CacheSize = 16

	c, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "https://idm.example.com/v1", c.BaseURL())
	assert.Equal(t, "id", c.keyID)
	assert.NotNil(t, c.cache)

	cfg.BaseURL = "not a url"
	_, err = NewFromConfig(cfg)
	assert.Error(t, err)
}

func TestNewFromConfig_APIKeyFile(t *testing.T) {
	keyFile := filepath.Join(t.TempDir(), "apiKey.properties")
	require.NoError(t, os.WriteFile(keyFile, []byte("apiKey.id=fileid\napiKey.secret=filesecret\n"), 0o600))

	cfg := config.NewDefault()
	cfg.APIKeyFile = keyFile
	c, err := NewFromConfig(cfg)
	require.NoError(t, err)
	assert.Equal(t, "fileid", c.keyID)
	assert.Equal(t, "filesecret", c.keySecret)
}

func TestResolve(t *testing.T) {
	c := New("http://idm.test/v1")
	tests := []struct {
		href string
		want string
	}{
		{"accounts/1", "http://idm.test/v1/accounts/1"},
		{"/accounts/1", "http://idm.test/v1/accounts/1"},
		{"https://other.test/accounts/1", "https://other.test/accounts/1"},
		{"directories/d/accounts?offset=2", "http://idm.test/v1/directories/d/accounts?offset=2"},
	}
	for _, tt := range tests {
		t.Run(tt.href, func(t *testing.T) {
			assert.Equal(t, tt.want, c.resolve(tt.href))
		})
	}
}

// --- Request Tests ---

func TestGetResource_Headers(t *testing.T) {
	var got *http.Request
	_, c := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		got = r
		jsonHandler(t, http.StatusOK, map[string]any{"href": "accounts/1", "email": "a@b.c"})(w, r)
	}, WithAPIKey("id", "secret"))

	r, err := c.GetResource(context.Background(), "accounts/1", identity.KindAccount)
	require.NoError(t, err)
	require.NotNil(t, got)

	assert.Equal(t, "/accounts/1", got.URL.Path)
	assert.Equal(t, "application/json", got.Header.Get("Accept"))
	assert.Equal(t, DefaultUserAgent, got.Header.Get("User-Agent"))
	assert.Len(t, got.Header.Get("X-Request-ID"), 36)
	id, secret, ok := got.BasicAuth()
	assert.True(t, ok)
	assert.Equal(t, "id", id)
	assert.Equal(t, "secret", secret)

	acct, ok := r.(*identity.Account)
	require.True(t, ok)
	assert.True(t, acct.IsMaterialized())
}

func TestGetResource_ErrorBody(t *testing.T) {
	_, c := mockServer(t, jsonHandler(t, http.StatusBadRequest, map[string]any{
		"status":           400,
		"code":             2000,
		"message":          "Invalid request.",
		"developerMessage": "offset must be non-negative",
		"moreInfo":         "https://docs.example.com/errors/2000",
	}))

	_, err := c.GetResource(context.Background(), "accounts?offset=-1", identity.KindAccountList)
	var rerr *ResourceError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusBadRequest, rerr.StatusCode())
	assert.Equal(t, 2000, rerr.Code)
	assert.Equal(t, "https://docs.example.com/errors/2000", rerr.MoreInfo)
	assert.Contains(t, rerr.Error(), "offset must be non-negative")
	assert.NotErrorIs(t, err, ErrNotFound)
}

func TestGetResource_PlainErrorBody(t *testing.T) {
	_, c := mockServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream down", http.StatusBadGateway)
	})

	_, err := c.GetResource(context.Background(), "accounts/1", identity.KindAccount)
	var rerr *ResourceError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusBadGateway, rerr.Code)
	assert.Contains(t, rerr.Error(), "Bad Gateway")
}

func TestGetResource_UnknownKind(t *testing.T) {
	_, c := mockServer(t, jsonHandler(t, http.StatusOK, map[string]any{"href": "x/1"}))
	_, err := c.GetResource(context.Background(), "x/1", "spaceship")
	assert.ErrorIs(t, err, resource.ErrUnknownKind)
}

// --- Lazy loading against the fake service ---

func TestAccount_LazyLoad(t *testing.T) {
	ctx := context.Background()
	srv, ts, dir := fakeService(t)
	path := seedAccount(t, srv, dir, "picard@enterprise.com")
	c := New(ts.URL)

	for _, href := range []string{path, ts.URL + "/" + path} {
		t.Run(href, func(t *testing.T) {
			before := srv.Gets()
			acct := identity.NewAccount(c, map[string]any{"href": href})
			assert.Equal(t, before, srv.Gets())

			email, err := acct.Email(ctx)
			require.NoError(t, err)
			assert.Equal(t, "picard@enterprise.com", email)
			username, err := acct.Username(ctx)
			require.NoError(t, err)
			assert.Equal(t, "picard", username)
			assert.Equal(t, before+1, srv.Gets())

			linked, err := acct.Directory(ctx)
			require.NoError(t, err)
			name, err := linked.Name(ctx)
			require.NoError(t, err)
			assert.Equal(t, "Starfleet", name)
			assert.Equal(t, before+2, srv.Gets())
		})
	}
}

func TestAccount_NotFound(t *testing.T) {
	_, ts, _ := fakeService(t)
	c := New(ts.URL)

	acct := identity.NewAccount(c, map[string]any{"href": "accounts/missing"})
	_, err := acct.Email(context.Background())
	assert.ErrorIs(t, err, ErrNotFound)

	var rerr *ResourceError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.MethodGet, rerr.Method)
	assert.Equal(t, ts.URL+"/accounts/missing", rerr.Href)
	assert.False(t, acct.IsMaterialized())
}

// --- Writes against the fake service ---

func TestDirectory_CreateAccount(t *testing.T) {
	ctx := context.Background()
	_, ts, dirPath := fakeService(t)
	c := New(ts.URL)

	dir := identity.NewDirectory(c, map[string]any{"href": dirPath})
	acct := identity.NewAccount(c, nil)
	acct.SetEmail("riker@enterprise.com")
	acct.SetUsername("riker")
	acct.SetGivenName("William")
	acct.SetSurname("Riker")
	acct.SetPassword("Numb3r0ne!")

	require.NoError(t, dir.CreateAccount(ctx, acct, nil))
	assert.False(t, acct.IsNew())
	assert.False(t, acct.IsDirty())
	assert.True(t, strings.HasPrefix(acct.Href(), ts.URL+"/accounts/"))

	status, err := acct.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, identity.StatusEnabled, status)
	_, hasPassword := acct.Properties()["password"]
	assert.False(t, hasPassword)

	accounts, err := dir.Accounts(ctx)
	require.NoError(t, err)
	var emails []string
	for a, err := range accounts.All(ctx) {
		require.NoError(t, err)
		e, err := a.Email(ctx)
		require.NoError(t, err)
		emails = append(emails, e)
	}
	assert.Equal(t, []string{"riker@enterprise.com"}, emails)

	dup := identity.NewAccount(c, nil)
	dup.SetEmail("riker@enterprise.com")
	dup.SetPassword("x")
	err = dir.CreateAccount(ctx, dup, nil)
	var rerr *ResourceError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusConflict, rerr.Status)
	assert.Equal(t, fakeidm.CodeDuplicate, rerr.Code)
	assert.True(t, dup.IsNew())
}

func TestEmailVerificationFlow(t *testing.T) {
	ctx := context.Background()
	_, ts, dirPath := fakeService(t)
	c := New(ts.URL)

	dir := identity.NewDirectory(c, map[string]any{"href": dirPath})
	acct := identity.NewAccount(c, nil)
	acct.SetEmail("data@enterprise.com")
	acct.SetPassword("Soong!")
	workflow := true
	require.NoError(t, dir.CreateAccount(ctx, acct, &workflow))

	status, err := acct.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, identity.Status("UNVERIFIED"), status)

	token, err := acct.EmailVerificationToken(ctx)
	require.NoError(t, err)
	require.NotNil(t, token)
	tokenID := token.Href()[strings.LastIndex(token.Href(), "/")+1:]

	tenant, err := c.CurrentTenant(ctx)
	require.NoError(t, err)
	verified, err := tenant.VerifyAccountEmail(ctx, tokenID)
	require.NoError(t, err)
	assert.Equal(t, acct.Href(), verified.Href())

	status, err = verified.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, identity.StatusEnabled, status)
}

func TestSaveAndDelete(t *testing.T) {
	ctx := context.Background()
	srv, ts, dir := fakeService(t)
	path := seedAccount(t, srv, dir, "worf@enterprise.com")
	c := New(ts.URL)

	acct := identity.NewAccount(c, map[string]any{"href": path})
	_, err := acct.Email(ctx)
	require.NoError(t, err)

	acct.SetGivenName("Worf")
	acct.SetMiddleName("")
	require.True(t, acct.IsDirty())
	require.NoError(t, acct.Save(ctx))
	assert.False(t, acct.IsDirty())

	fresh := identity.NewAccount(c, map[string]any{"href": path})
	given, err := fresh.GivenName(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Worf", given)

	require.NoError(t, acct.Delete(ctx))
	_, err = c.GetResource(ctx, path, identity.KindAccount)
	assert.ErrorIs(t, err, ErrNotFound)

	err = acct.Delete(ctx)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGroupMembershipFlow(t *testing.T) {
	ctx := context.Background()
	srv, ts, dirPath := fakeService(t)
	acctPath := seedAccount(t, srv, dirPath, "troi@enterprise.com")
	c := New(ts.URL)

	dir := identity.NewDirectory(c, map[string]any{"href": dirPath})
	group := identity.NewGroup(c, nil)
	group.SetName("Counselors")
	require.NoError(t, dir.CreateGroup(ctx, group))

	acct := identity.NewAccount(c, map[string]any{"href": acctPath})
	membership, err := acct.AddGroup(ctx, group)
	require.NoError(t, err)
	assert.False(t, membership.IsNew())

	groups, err := acct.Groups(ctx)
	require.NoError(t, err)
	page, err := groups.CurrentPage(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, page.Len())
	name, err := page.Items()[0].Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Counselors", name)

	require.NoError(t, membership.Delete(ctx))
	groups, err = identity.NewAccount(c, map[string]any{"href": acctPath}).Groups(ctx)
	require.NoError(t, err)
	page, err = groups.CurrentPage(ctx)
	require.NoError(t, err)
	assert.Zero(t, page.Len())
}

func TestPasswordResetFlow(t *testing.T) {
	ctx := context.Background()
	srv, ts, dir := fakeService(t)
	acctPath := seedAccount(t, srv, dir, "crusher@enterprise.com")
	appPath, err := srv.Seed("applications", map[string]any{"name": "Sickbay"})
	require.NoError(t, err)
	c := New(ts.URL)

	app := identity.NewApplication(c, map[string]any{"href": appPath})
	acct, err := app.SendPasswordResetEmail(ctx, "crusher@enterprise.com")
	require.NoError(t, err)
	assert.Equal(t, ts.URL+"/"+acctPath, acct.Href())

	tokens, err := app.PasswordResetTokens(ctx)
	require.NoError(t, err)
	page, err := tokens.CurrentPage(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, page.Len())
	tokenHref := page.Items()[0].Href()

	verified, err := app.VerifyPasswordResetToken(ctx, tokenHref[strings.LastIndex(tokenHref, "/")+1:])
	require.NoError(t, err)
	assert.Equal(t, acct.Href(), verified.Href())

	_, err = app.SendPasswordResetEmail(ctx, "nobody@nowhere")
	var rerr *ResourceError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, fakeidm.CodeNoSuchAccount, rerr.Code)
}

func TestCollection_AllPages(t *testing.T) {
	ctx := context.Background()
	srv, ts, dir := fakeService(t)
	for _, name := range []string{"a", "b", "c", "d", "e"} {
		seedAccount(t, srv, dir, name+"@enterprise.com")
	}
	c := New(ts.URL)

	list := identity.NewAccountList(c, map[string]any{"href": dir + "/accounts?limit=2"})
	var emails []string
	for acct, err := range list.All(ctx) {
		require.NoError(t, err)
		e, err := acct.Email(ctx)
		require.NoError(t, err)
		emails = append(emails, e)
	}
	assert.Equal(t, []string{
		"a@enterprise.com", "b@enterprise.com", "c@enterprise.com",
		"d@enterprise.com", "e@enterprise.com",
	}, emails)
	// One GET per page; items arrive expanded.
	assert.EqualValues(t, 3, srv.Gets())
}

// --- Cache and metrics ---

func TestCache(t *testing.T) {
	ctx := context.Background()
	srv, ts, dir := fakeService(t)
	path := seedAccount(t, srv, dir, "obrien@enterprise.com")

	m, err := metrics.New(prometheus.NewRegistry())
	require.NoError(t, err)
	c := New(ts.URL, WithCache(16, time.Minute), WithMetrics(m))

	for range 3 {
		_, err := c.GetResource(ctx, path, identity.KindAccount)
		require.NoError(t, err)
	}
	assert.EqualValues(t, 1, srv.Gets())
	assert.InDelta(t, 2, testutil.ToFloat64(m.CacheHits), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheMisses), 0)
	assert.Equal(t, 1, c.cache.len())

	r, err := c.GetResource(ctx, path, identity.KindAccount)
	require.NoError(t, err)
	acct := r.(*identity.Account)
	acct.SetSurname("O'Brien")
	require.NoError(t, acct.Save(ctx))
	assert.Zero(t, c.cache.len())
	assert.InDelta(t, 1, testutil.ToFloat64(m.CacheEvictions), 0)

	r, err = c.GetResource(ctx, path, identity.KindAccount)
	require.NoError(t, err)
	surname, err := r.(*identity.Account).Surname(ctx)
	require.NoError(t, err)
	assert.Equal(t, "O'Brien", surname)
	assert.EqualValues(t, 2, srv.Gets())
}

func TestMetrics_Requests(t *testing.T) {
	ctx := context.Background()
	_, ts, _ := fakeService(t)
	m, err := metrics.New(nil)
	require.NoError(t, err)
	c := New(ts.URL, WithMetrics(m))

	_, err = c.CurrentTenant(ctx)
	require.NoError(t, err)
	_, err = c.GetResource(ctx, "accounts/missing", identity.KindAccount)
	require.Error(t, err)

	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "200")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.RequestsTotal.WithLabelValues("GET", "404")), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Materializations.WithLabelValues("tenant", metrics.ResultOK)), 0)
	assert.InDelta(t, 1, testutil.ToFloat64(m.Materializations.WithLabelValues("account", metrics.ResultError)), 0)
}

func TestAPIKey(t *testing.T) {
	ctx := context.Background()
	_, ts, _ := fakeService(t, fakeidm.WithAPIKey("id", "secret"))

	_, err := New(ts.URL).CurrentTenant(ctx)
	var rerr *ResourceError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, http.StatusUnauthorized, rerr.Status)

	tenant, err := New(ts.URL, WithAPIKey("id", "secret")).CurrentTenant(ctx)
	require.NoError(t, err)
	name, err := tenant.Name(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Fake Tenant", name)
}

func TestRateLimit(t *testing.T) {
	ctx := context.Background()
	srv, ts, _ := fakeService(t)
	c := New(ts.URL, WithRateLimit(20, 1)) // one request every 50ms after the first

	start := time.Now()
	for range 3 {
		_, err := c.CurrentTenant(ctx)
		require.NoError(t, err)
	}
	assert.GreaterOrEqual(t, time.Since(start), 80*time.Millisecond)
	assert.EqualValues(t, 3, srv.Gets())

	cancelled, cancel := context.WithCancel(ctx)
	cancel()
	c = New(ts.URL, WithRateLimit(0.1, 1))
	_, err := c.CurrentTenant(ctx)
	require.NoError(t, err)
	_, err = c.CurrentTenant(cancelled)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestWithRateLimit_NonPositiveRateDisables(t *testing.T) {
	ctx := context.Background()
	srv, ts, _ := fakeService(t)

	for _, rate := range []float64{0, -1} {
		c := New(ts.URL, WithRateLimit(20, 1), WithRateLimit(rate, 3))
		assert.Nil(t, c.limiter, "rate %g", rate)
		for range 3 {
			_, err := c.CurrentTenant(ctx)
			require.NoError(t, err)
		}
	}
	assert.EqualValues(t, 6, srv.Gets())
}

func TestNewFromConfig_RateLimit(t *testing.T) {
	cfg := config.NewDefault()
	cfg.RateLimit = 5
	c, err := NewFromConfig(cfg)
	require.NoError(t, err)
	require.NotNil(t, c.limiter)
	assert.InDelta(t, 5, c.limiter.Stats().Max, 0)
}

func TestTransportError(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()
	c := New(ts.URL)

	acct := identity.NewAccount(c, map[string]any{"href": "accounts/1"})
	_, err := acct.Email(context.Background())
	require.Error(t, err)
	var rerr *ResourceError
	assert.False(t, errors.As(err, &rerr))
}
