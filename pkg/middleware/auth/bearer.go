package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/Skotchmaster/worknomads/pkg/logging"
	"github.com/Skotchmaster/worknomads/pkg/tokens"
)

const (
	CtxPrincipal = "principal"
	keyword      = "Bearer"
)

const (
	MsgBadHeader      = "Bad Authorization header. Expected: 'Bearer <token>'."
	MsgExpired        = "Token has expired."
	MsgInvalid        = "Invalid token."
	MsgMissingSubject = "Token missing required subject/user_id."
	MsgNotProvided    = "Authentication credentials were not provided."
)

// Principal is the identity taken from a verified token. It lives for one
// request and is never looked up in any account store.
type Principal struct {
	ID        string
	Username  string
	Email     string
	FirstName string
	LastName  string
}

// AccessVerifier is satisfied by *tokens.Verifier.
type AccessVerifier interface {
	Access(token string) (*tokens.Claims, error)
}

type BearerAuth struct {
	Verifier AccessVerifier
}

func NewBearerAuth(v AccessVerifier) *BearerAuth {
	return &BearerAuth{Verifier: v}
}

// Authenticate resolves the Authorization header:
//   - no header: request continues anonymously
//   - anything but "Bearer <token>": 401 bad header
//   - expired token: 401 expired
//   - bad signature, unparseable or refresh token: 401 invalid
//   - no user_id and no sub claim: 401 missing subject
//   - otherwise a Principal is stored under CtxPrincipal
func (m *BearerAuth) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		l := logging.FromContext(c.Request().Context())

		header := strings.TrimSpace(c.Request().Header.Get(echo.HeaderAuthorization))
		if header == "" {
			return next(c)
		}

		parts := strings.Fields(header)
		if len(parts) != 2 || parts[0] != keyword {
			l.Warn("auth_failed", "status", 401, "reason", "bad header")
			return echo.NewHTTPError(http.StatusUnauthorized, MsgBadHeader)
		}

		claims, err := m.Verifier.Access(parts[1])
		if err != nil {
			msg := MsgInvalid
			switch {
			case errors.Is(err, tokens.ErrExpired):
				msg = MsgExpired
			case errors.Is(err, tokens.ErrMissingSubject):
				msg = MsgMissingSubject
			}
			l.Warn("auth_failed", "status", 401, "reason", msg, "error", err)
			return echo.NewHTTPError(http.StatusUnauthorized, msg).SetInternal(err)
		}

		c.Set(CtxPrincipal, &Principal{
			ID:        claims.UserID,
			Username:  claims.Username,
			Email:     claims.Email,
			FirstName: claims.FirstName,
			LastName:  claims.LastName,
		})

		return next(c)
	}
}

// RequireAuth rejects anonymous requests.
func RequireAuth(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if _, ok := PrincipalFrom(c); !ok {
			return echo.NewHTTPError(http.StatusUnauthorized, MsgNotProvided)
		}
		return next(c)
	}
}

func PrincipalFrom(c echo.Context) (*Principal, bool) {
	p, ok := c.Get(CtxPrincipal).(*Principal)
	return p, ok && p != nil && p.ID != ""
}
