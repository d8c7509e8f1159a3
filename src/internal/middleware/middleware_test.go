package middleware

import (
	"encoding/base64"
	"errors"
	"net/http"
	"testing"
	"time"

	"midway/src/internal/dispatch"
	"midway/src/internal/logger"
	"midway/src/internal/pool"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type fakeRequest struct {
	method  string
	uri     string
	headers map[string]string
}

func (r *fakeRequest) Method() string           { return r.method }
func (r *fakeRequest) URI() string              { return r.uri }
func (r *fakeRequest) Header(key string) string { return r.headers[key] }
func (r *fakeRequest) Body() []byte             { return nil }

type fakeResponse struct {
	status  int
	headers map[string]string
	body    []byte
}

func (r *fakeResponse) SetStatus(code int) { r.status = code }
func (r *fakeResponse) SetHeader(key, value string) {
	if r.headers == nil {
		r.headers = map[string]string{}
	}
	r.headers[key] = value
}
func (r *fakeResponse) SetBody(body []byte) { r.body = body }
func (r *fakeResponse) Finish() error       { return nil }

func newTestContext(t *testing.T, headers map[string]string) *pool.Context {
	t.Helper()

	log := logger.New(logger.Options{Enabled: false})
	t.Cleanup(func() { log.Close() })

	p := pool.New(1)
	ctx := p.Acquire(nil, &fakeRequest{method: "GET", uri: "/test", headers: headers}, &fakeResponse{})
	ctx.SetLogger(log)
	t.Cleanup(func() { p.Release(ctx) })
	return ctx
}

func nextOK() (dispatch.Next, *bool) {
	called := false
	return func() error {
		called = true
		return nil
	}, &called
}

func TestRequestIDSetsHeader(t *testing.T) {
	ctx := newTestContext(t, nil)
	next, called := nextOK()

	require.NoError(t, RequestID("")(ctx, next))

	assert.True(t, *called)
	res := ctx.Response().(*fakeResponse)
	assert.NotEmpty(t, res.headers[DefaultRequestIDHeader])
}

func TestRequestIDCustomHeader(t *testing.T) {
	ctx := newTestContext(t, nil)
	next, _ := nextOK()

	require.NoError(t, RequestID("X-Trace")(ctx, next))

	res := ctx.Response().(*fakeResponse)
	assert.NotEmpty(t, res.headers["X-Trace"])
	assert.Empty(t, res.headers[DefaultRequestIDHeader])
}

func TestAccessLogPassesErrorsThrough(t *testing.T) {
	ctx := newTestContext(t, nil)
	wantErr := errors.New("downstream failed")

	err := AccessLog()(ctx, func() error { return wantErr })
	assert.ErrorIs(t, err, wantErr)
}

func TestRecoverConvertsPanicToServerError(t *testing.T) {
	ctx := newTestContext(t, nil)

	err := Recover()(ctx, func() error { panic("handler exploded") })

	var httpErr *dispatch.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusInternalServerError, httpErr.Status)
	assert.False(t, httpErr.Expose)
}

func TestRecoverPassesCleanRequestsThrough(t *testing.T) {
	ctx := newTestContext(t, nil)
	next, called := nextOK()

	require.NoError(t, Recover()(ctx, next))
	assert.True(t, *called)
}

func TestRateLimitExhaustsBurst(t *testing.T) {
	rl := NewRateLimiter(1, 2, time.Minute)
	defer rl.Stop()
	mw := rl.Middleware()

	ctx := newTestContext(t, map[string]string{"X-Forwarded-For": "10.0.0.1"})

	for i := 0; i < 2; i++ {
		next, called := nextOK()
		require.NoError(t, mw(ctx, next))
		assert.True(t, *called)
	}

	next, called := nextOK()
	err := mw(ctx, next)

	var httpErr *dispatch.HTTPError
	require.ErrorAs(t, err, &httpErr)
	assert.Equal(t, http.StatusTooManyRequests, httpErr.Status)
	assert.False(t, *called)
}

func TestRateLimitIsPerClient(t *testing.T) {
	rl := NewRateLimiter(1, 1, time.Minute)
	defer rl.Stop()
	mw := rl.Middleware()

	first := newTestContext(t, map[string]string{"X-Forwarded-For": "10.0.0.1"})
	second := newTestContext(t, map[string]string{"X-Forwarded-For": "10.0.0.2"})

	next, _ := nextOK()
	require.NoError(t, mw(first, next))

	// A different client has its own bucket
	next2, called := nextOK()
	require.NoError(t, mw(second, next2))
	assert.True(t, *called)
}

func basicHeader(user, pass string) map[string]string {
	cred := base64.StdEncoding.EncodeToString([]byte(user + ":" + pass))
	return map[string]string{"Authorization": "Basic " + cred}
}

func TestBasicAuthAcceptsValidCredentials(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	mw := BasicAuth(map[string]string{"alice": string(hash)})

	ctx := newTestContext(t, basicHeader("alice", "s3cret"))
	next, called := nextOK()

	require.NoError(t, mw(ctx, next))
	assert.True(t, *called)

	user, ok := ctx.Get(StateKeyUser)
	require.True(t, ok)
	assert.Equal(t, "alice", user)
}

func TestBasicAuthRejections(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)
	mw := BasicAuth(map[string]string{"alice": string(hash)})

	testCases := []struct {
		name    string
		headers map[string]string
	}{
		{name: "NoHeader", headers: nil},
		{name: "WrongScheme", headers: map[string]string{"Authorization": "Bearer abc"}},
		{name: "BadBase64", headers: map[string]string{"Authorization": "Basic !!!"}},
		{name: "WrongPassword", headers: basicHeader("alice", "guess")},
		{name: "UnknownUser", headers: basicHeader("mallory", "s3cret")},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newTestContext(t, tc.headers)
			next, called := nextOK()

			err := mw(ctx, next)

			var httpErr *dispatch.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
			assert.False(t, *called)

			res := ctx.Response().(*fakeResponse)
			assert.Contains(t, res.headers["WWW-Authenticate"], "Basic")
		})
	}
}

func TestBearerAuthAcceptsValidToken(t *testing.T) {
	secret := []byte("signing-key")
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)

	mw := BearerAuth(secret)
	ctx := newTestContext(t, map[string]string{"Authorization": "Bearer " + token})
	next, called := nextOK()

	require.NoError(t, mw(ctx, next))
	assert.True(t, *called)

	raw, ok := ctx.Get(StateKeyClaims)
	require.True(t, ok)
	claims := raw.(jwt.MapClaims)
	assert.Equal(t, "alice", claims["sub"])
}

func TestBearerAuthRejections(t *testing.T) {
	secret := []byte("signing-key")

	expired, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
		"exp": time.Now().Add(-time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)

	wrongKey, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "alice",
	}).SignedString([]byte("other-key"))
	require.NoError(t, err)

	testCases := []struct {
		name    string
		headers map[string]string
	}{
		{name: "NoHeader", headers: nil},
		{name: "WrongScheme", headers: map[string]string{"Authorization": "Basic abc"}},
		{name: "Garbage", headers: map[string]string{"Authorization": "Bearer not.a.token"}},
		{name: "Expired", headers: map[string]string{"Authorization": "Bearer " + expired}},
		{name: "WrongKey", headers: map[string]string{"Authorization": "Bearer " + wrongKey}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ctx := newTestContext(t, tc.headers)
			next, called := nextOK()

			err := BearerAuth(secret)(ctx, next)

			var httpErr *dispatch.HTTPError
			require.ErrorAs(t, err, &httpErr)
			assert.Equal(t, http.StatusUnauthorized, httpErr.Status)
			assert.False(t, *called)
		})
	}
}
