package tokens

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Signer struct {
	Secret     []byte
	Method     *jwt.SigningMethodHMAC
	AccessTTL  time.Duration
	RefreshTTL time.Duration
	Now        func() time.Time
}

type Pair struct {
	Access     string
	Refresh    string
	AccessExp  time.Time
	RefreshExp time.Time
}

func NewSigner(secret []byte, alg string, accessTTL, refreshTTL time.Duration) (*Signer, error) {
	method, err := hmacMethod(alg)
	if err != nil {
		return nil, err
	}
	if len(secret) == 0 {
		return nil, errors.New("signing key is empty")
	}
	if accessTTL <= 0 || refreshTTL <= 0 {
		return nil, errors.New("token lifetimes must be positive")
	}
	return &Signer{
		Secret:     secret,
		Method:     method,
		AccessTTL:  accessTTL,
		RefreshTTL: refreshTTL,
	}, nil
}

// Verifier returns a verifier bound to the same key and algorithm.
func (s *Signer) Verifier() *Verifier {
	return &Verifier{Secret: s.Secret, Algorithm: s.Method.Alg(), Now: s.Now}
}

func (s *Signer) IssuePair(id Identity) (*Pair, error) {
	refresh, refreshExp, err := s.sign(TypeRefresh, id, s.RefreshTTL)
	if err != nil {
		return nil, err
	}
	access, accessExp, err := s.sign(TypeAccess, id, s.AccessTTL)
	if err != nil {
		return nil, err
	}
	return &Pair{
		Access:     access,
		Refresh:    refresh,
		AccessExp:  accessExp,
		RefreshExp: refreshExp,
	}, nil
}

func (s *Signer) IssueAccess(id Identity) (string, time.Time, error) {
	return s.sign(TypeAccess, id, s.AccessTTL)
}

func (s *Signer) sign(tokenType string, id Identity, ttl time.Duration) (string, time.Time, error) {
	if id.UserID == "" {
		return "", time.Time{}, ErrMissingSubject
	}

	now := time.Now()
	if s.Now != nil {
		now = s.Now()
	}
	exp := now.Add(ttl)

	claims := Claims{
		TokenType: tokenType,
		UserID:    id.UserID,
		Username:  id.Username,
		Email:     id.Email,
		FirstName: id.FirstName,
		LastName:  id.LastName,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.UserID,
			ExpiresAt: jwt.NewNumericDate(exp),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(s.Method, claims).SignedString(s.Secret)
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, exp, nil
}
