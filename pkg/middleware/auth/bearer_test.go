package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/worknomads/pkg/tokens"
)

var secret = []byte("test-jwt-secret")

func newSigner(t *testing.T) *tokens.Signer {
	t.Helper()
	s, err := tokens.NewSigner(secret, "HS256", 15*time.Minute, 24*time.Hour)
	require.NoError(t, err)
	return s
}

// run passes the request through Authenticate and RequireAuth and returns
// the error (if any) together with the principal seen by the handler.
func run(t *testing.T, s *tokens.Signer, header string, require bool) (*Principal, error) {
	t.Helper()

	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if header != "" {
		req.Header.Set(echo.HeaderAuthorization, header)
	}
	c := e.NewContext(req, httptest.NewRecorder())

	var seen *Principal
	h := func(c echo.Context) error {
		seen, _ = PrincipalFrom(c)
		return c.NoContent(http.StatusOK)
	}
	if require {
		h = RequireAuth(h)
	}
	err := NewBearerAuth(s.Verifier()).Authenticate(h)(c)
	return seen, err
}

func assertUnauthorized(t *testing.T, err error, msg string) {
	t.Helper()
	he, ok := err.(*echo.HTTPError)
	require.True(t, ok, "expected HTTPError, got %v", err)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
	assert.Equal(t, msg, he.Message)
}

func TestAuthenticate_NoHeaderIsAnonymous(t *testing.T) {
	s := newSigner(t)

	p, err := run(t, s, "", false)
	require.NoError(t, err)
	assert.Nil(t, p)

	_, err = run(t, s, "", true)
	assertUnauthorized(t, err, MsgNotProvided)
}

func TestAuthenticate_ValidToken(t *testing.T) {
	s := newSigner(t)
	access, _, err := s.IssueAccess(tokens.Identity{UserID: "5", Username: "bob", Email: "bob@example.com", FirstName: "Bob", LastName: "Builder"})
	require.NoError(t, err)

	p, err := run(t, s, "Bearer "+access, true)
	require.NoError(t, err)
	require.NotNil(t, p)
	assert.Equal(t, Principal{ID: "5", Username: "bob", Email: "bob@example.com", FirstName: "Bob", LastName: "Builder"}, *p)
}

func TestAuthenticate_Failures(t *testing.T) {
	s := newSigner(t)

	access, _, err := s.IssueAccess(tokens.Identity{UserID: "5"})
	require.NoError(t, err)

	pair, err := s.IssuePair(tokens.Identity{UserID: "5"})
	require.NoError(t, err)

	old := newSigner(t)
	old.Now = func() time.Time { return time.Now().Add(-3 * time.Hour) }
	expired, _, err := old.IssueAccess(tokens.Identity{UserID: "5"})
	require.NoError(t, err)

	foreign, err := tokens.NewSigner([]byte("another-secret"), "HS256", time.Minute, time.Hour)
	require.NoError(t, err)
	forged, _, err := foreign.IssueAccess(tokens.Identity{UserID: "5"})
	require.NoError(t, err)

	noSubject, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"username": "ghost",
		"exp":      time.Now().Add(time.Hour).Unix(),
	}).SignedString(secret)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		msg    string
	}{
		{name: "wrong scheme", header: "Token " + access, msg: MsgBadHeader},
		{name: "lowercase scheme", header: "bearer " + access, msg: MsgBadHeader},
		{name: "scheme only", header: "Bearer", msg: MsgBadHeader},
		{name: "extra segment", header: "Bearer " + access + " extra", msg: MsgBadHeader},
		{name: "expired", header: "Bearer " + expired, msg: MsgExpired},
		{name: "other secret", header: "Bearer " + forged, msg: MsgInvalid},
		{name: "garbage", header: "Bearer not.a.jwt", msg: MsgInvalid},
		{name: "refresh token", header: "Bearer " + pair.Refresh, msg: MsgInvalid},
		{name: "missing subject", header: "Bearer " + noSubject, msg: MsgMissingSubject},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := run(t, s, tt.header, false)
			assertUnauthorized(t, err, tt.msg)
			assert.Nil(t, p)
		})
	}
}
