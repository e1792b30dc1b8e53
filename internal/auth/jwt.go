// Package auth issues and verifies the bearer tokens sellers use on /api routes.
package auth

import (
	"errors"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token purposes. A reset token cannot be used as a session and vice versa.
const (
	PurposeSession = "session"
	PurposeReset   = "password_reset"
)

var (
	ErrEmptySecret  = errors.New("jwt secret must not be empty")
	ErrInvalidToken = errors.New("token is invalid or has expired")
	ErrWrongPurpose = errors.New("token was issued for a different purpose")
)

// Claims is the payload of every token; Subject carries the seller id.
type Claims struct {
	jwt.RegisteredClaims
	SellerID int64  `json:"sellerId"`
	Purpose  string `json:"purpose"`
}

// JWTManager handles issuing and verifying HMAC signed tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration, issuer string) *JWTManager {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &JWTManager{secret: []byte(secret), ttl: ttl, issuer: issuer, now: time.Now}
}

// Issue signs a session token for sellerID.
func (m *JWTManager) Issue(sellerID int64) (string, error) {
	return m.sign(sellerID, PurposeSession, m.ttl)
}

// IssueReset signs a short-lived password reset token.
func (m *JWTManager) IssueReset(sellerID int64, ttl time.Duration) (string, error) {
	return m.sign(sellerID, PurposeReset, ttl)
}

func (m *JWTManager) sign(sellerID int64, purpose string, ttl time.Duration) (string, error) {
	if len(m.secret) == 0 {
		return "", ErrEmptySecret
	}
	now := m.now()
	claims := &Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.FormatInt(sellerID, 10),
			Issuer:    m.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		SellerID: sellerID,
		Purpose:  purpose,
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
}

// Verify checks signature, expiry and purpose and returns the seller id.
func (m *JWTManager) Verify(token, purpose string) (int64, error) {
	if len(m.secret) == 0 {
		return 0, ErrEmptySecret
	}
	parsed, err := jwt.ParseWithClaims(token, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if t.Method != jwt.SigningMethodHS256 {
			return nil, errors.New("unexpected signing method")
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now), jwt.WithExpirationRequired())
	if err != nil {
		return 0, errors.Join(ErrInvalidToken, err)
	}
	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid || claims.SellerID <= 0 {
		return 0, ErrInvalidToken
	}
	if claims.Purpose != purpose {
		return 0, ErrWrongPurpose
	}
	return claims.SellerID, nil
}
