package utils // package utils provides helper functions for token creation and hashing

import (
	"encoding/json"
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken covers every reason a bearer token is rejected: bad
// signature, wrong algorithm, expiry, or a malformed subject.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the payload of an access token: the user id travels in the
// standard sub claim, the platform role next to it.  Subject shadows the
// embedded RegisteredClaims.Subject.
type Claims struct {
	Role    string  `json:"role"`
	Subject subject `json:"sub,omitempty"`
	jwt.RegisteredClaims
}

// subject is written as a decimal string but also read from a JSON number,
// which is how tokens from the previous backend carry the user id.
type subject string

func (s *subject) UnmarshalJSON(b []byte) error {
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*s = subject(n)
	return nil
}

// AccessToken is a signed JWT along with its expiry.
type AccessToken struct {
	Token string
	Exp   time.Time
}

// TokenIssuer signs and verifies HS256 access tokens with one shared secret.
type TokenIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// NewTokenIssuer returns an issuer whose tokens live for ttl.
func NewTokenIssuer(secret string, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Issue builds and signs a token for userID with the given role.
func (ti *TokenIssuer) Issue(userID int64, role string) (AccessToken, error) {
	now := ti.now().UTC()
	exp := now.Add(ti.ttl)
	claims := Claims{
		Role:    role,
		Subject: subject(strconv.FormatInt(userID, 10)),
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(ti.secret)
	if err != nil {
		return AccessToken{}, err
	}
	return AccessToken{Token: signed, Exp: exp}, nil
}

// Parse verifies raw and returns the user id and role it carries.
func (ti *TokenIssuer) Parse(raw string) (int64, string, error) {
	var claims Claims
	tok, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) {
		return ti.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(ti.now),
	)
	if err != nil || !tok.Valid {
		return 0, "", ErrInvalidToken
	}
	id, err := strconv.ParseInt(string(claims.Subject), 10, 64)
	if err != nil || id <= 0 || claims.Role == "" {
		return 0, "", ErrInvalidToken
	}
	return id, claims.Role, nil
}
