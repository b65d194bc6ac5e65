package tokens

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/golang-jwt/jwt/v5"
)

const (
	TypeAccess  = "access"
	TypeRefresh = "refresh"
)

var (
	ErrInvalid        = errors.New("invalid token")
	ErrExpired        = errors.New("token expired")
	ErrMissingSubject = errors.New("token missing subject")
)

// Identity is the account data embedded into every issued token.
type Identity struct {
	UserID    string
	Username  string
	Email     string
	FirstName string
	LastName  string
}

type Claims struct {
	TokenType string `json:"token_type"`
	UserID    string `json:"user_id,omitempty"`
	Username  string `json:"username,omitempty"`
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	jwt.RegisteredClaims
}

func (c *Claims) Identity() Identity {
	return Identity{
		UserID:    c.UserID,
		Username:  c.Username,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
	}
}

// claimsFromMap builds Claims from a decoded payload. Tokens from other
// issuers may carry user_id as a number or only a sub claim.
func claimsFromMap(mc jwt.MapClaims) (*Claims, error) {
	c := &Claims{
		TokenType: str(mc["token_type"]),
		UserID:    idString(mc["user_id"]),
		Username:  str(mc["username"]),
		Email:     str(mc["email"]),
		FirstName: str(mc["first_name"]),
		LastName:  str(mc["last_name"]),
	}
	if c.Username == "" {
		c.Username = str(mc["user_name"])
	}

	c.Subject = idString(mc["sub"])
	c.ID = str(mc["jti"])
	if exp, err := mc.GetExpirationTime(); err == nil {
		c.ExpiresAt = exp
	}
	if iat, err := mc.GetIssuedAt(); err == nil {
		c.IssuedAt = iat
	}

	if c.UserID == "" {
		c.UserID = c.Subject
	}
	if c.UserID == "" {
		return nil, ErrMissingSubject
	}
	return c, nil
}

func str(v any) string {
	s, _ := v.(string)
	return s
}

func idString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	default:
		return ""
	}
}
