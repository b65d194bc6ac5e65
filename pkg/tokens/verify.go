package tokens

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Verify checks signature and expiry of token against secret using the HMAC
// algorithm alg and returns its claims. It never consults any account store.
// Audience is not verified.
func Verify(token string, secret []byte, alg string) (*Claims, error) {
	return verifyAt(token, secret, alg, time.Now)
}

func verifyAt(token string, secret []byte, alg string, now func() time.Time) (*Claims, error) {
	method, err := hmacMethod(alg)
	if err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, fmt.Errorf("empty signing key: %w", ErrInvalid)
	}

	mc := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, mc, func(*jwt.Token) (any, error) {
		return secret, nil
	},
		jwt.WithValidMethods([]string{method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: %v", ErrExpired, err)
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	return claimsFromMap(mc)
}

// Verifier binds Verify to one secret/algorithm and adds token type checks.
type Verifier struct {
	Secret    []byte
	Algorithm string
	Now       func() time.Time
}

func NewVerifier(secret []byte, alg string) (*Verifier, error) {
	if _, err := hmacMethod(alg); err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, errors.New("signing key is empty")
	}
	return &Verifier{Secret: secret, Algorithm: alg}, nil
}

func (v *Verifier) now() func() time.Time {
	if v.Now != nil {
		return v.Now
	}
	return time.Now
}

// Access accepts any verified token except refresh tokens; tokens without a
// token_type claim are treated as access tokens.
func (v *Verifier) Access(token string) (*Claims, error) {
	claims, err := verifyAt(token, v.Secret, v.Algorithm, v.now())
	if err != nil {
		return nil, err
	}
	if claims.TokenType == TypeRefresh {
		return nil, fmt.Errorf("refresh token used as access token: %w", ErrInvalid)
	}
	return claims, nil
}

func (v *Verifier) Refresh(token string) (*Claims, error) {
	claims, err := verifyAt(token, v.Secret, v.Algorithm, v.now())
	if err != nil {
		return nil, err
	}
	if claims.TokenType != TypeRefresh {
		return nil, fmt.Errorf("token has wrong type %q: %w", claims.TokenType, ErrInvalid)
	}
	return claims, nil
}

func hmacMethod(alg string) (*jwt.SigningMethodHMAC, error) {
	m, ok := jwt.GetSigningMethod(alg).(*jwt.SigningMethodHMAC)
	if !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q: %w", alg, ErrInvalid)
	}
	return m, nil
}
