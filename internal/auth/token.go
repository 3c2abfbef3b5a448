// Package auth provides session tokens, password hashing and the cookie
// middleware for the Queridômetro API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. User POSTs a login (email or display name) and a password
//  2. The password is checked against the stored bcrypt hash
//  3. Server issues a signed session token and stores it in an HttpOnly cookie
//  4. On subsequent requests, LoadSession reads the cookie, validates the
//     token, looks the user up and puts the session in the request context
//
// STATELESS SESSIONS:
// Nothing about the session is stored server-side. The token carries the
// user id and its own expiry, and a keyed signature proves the server issued
// it. Deleting the user invalidates the token because the lookup in step 4
// fails.
//
// TOKEN STRUCTURE (two parts separated by a dot):
//
//	PAYLOAD.SIGNATURE
//	- Payload:   base64url(JSON) → {"userId":12,"exp":1718000000000}
//	- Signature: hex(HMAC-SHA256(payload, secret))
//
// exp is milliseconds since the Unix epoch. The signature covers the encoded
// payload string exactly as it appears in the token.
package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// SessionDuration is how long an issued token stays valid.
const SessionDuration = 7 * 24 * time.Hour

var (
	// ErrInvalidToken covers every malformed, tampered or incomplete token.
	ErrInvalidToken = errors.New("auth: invalid token")
	// ErrTokenExpired is returned for a well-signed token past its exp.
	ErrTokenExpired = errors.New("auth: token expired")
)

// TokenService signs and verifies session tokens.
//
// It holds the HMAC secret used for both operations. Changing the secret
// logs everybody out.
type TokenService struct {
	secret []byte
	now    func() time.Time
}

// NewTokenService creates a TokenService with the given secret.
// Example: SESSION_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: session secret must be at least 16 characters")
	}
	return &TokenService{secret: []byte(secret), now: time.Now}, nil
}

// payload is the JSON body of a token. Pointers let Validate tell a missing
// field from a zero one.
type payload struct {
	UserID *int   `json:"userId"`
	Exp    *int64 `json:"exp"`
}

// Generate issues a token for userID that expires after SessionDuration.
func (s *TokenService) Generate(userID int) (string, error) {
	return s.GenerateWithExpiry(userID, s.now().Add(SessionDuration))
}

// GenerateWithExpiry issues a token with an explicit expiry. Tests use it to
// build tokens that are already expired.
func (s *TokenService) GenerateWithExpiry(userID int, exp time.Time) (string, error) {
	ms := exp.UnixMilli()
	body, err := json.Marshal(payload{UserID: &userID, Exp: &ms})
	if err != nil {
		return "", fmt.Errorf("auth: encoding token payload: %w", err)
	}

	encoded := base64.RawURLEncoding.EncodeToString(body)
	return encoded + "." + s.sign(encoded), nil
}

// Validate verifies a token and returns the user id it was issued for.
//
// VALIDATION CHECKS, in order:
//   - exactly one "." separating payload and signature
//   - signature matches (compared in constant time)
//   - payload decodes and carries a positive userId and exp
//   - exp has not passed
//
// The expiry check runs after the signature check, so an expired token is
// rejected whether or not its signature is valid.
func (s *TokenService) Validate(token string) (int, error) {
	encoded, sig, ok := strings.Cut(token, ".")
	if !ok || encoded == "" || sig == "" || strings.Contains(sig, ".") {
		return 0, ErrInvalidToken
	}

	// hmac.Equal rather than == so response time does not leak how many
	// leading bytes of a forged signature were right
	if !hmac.Equal([]byte(sig), []byte(s.sign(encoded))) {
		return 0, ErrInvalidToken
	}

	body, err := base64.RawURLEncoding.DecodeString(encoded)
	if err != nil {
		return 0, ErrInvalidToken
	}
	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return 0, ErrInvalidToken
	}
	if p.UserID == nil || p.Exp == nil || *p.UserID <= 0 || *p.Exp <= 0 {
		return 0, ErrInvalidToken
	}

	if s.now().UnixMilli() > *p.Exp {
		return 0, ErrTokenExpired
	}
	return *p.UserID, nil
}

func (s *TokenService) sign(encoded string) string {
	mac := hmac.New(sha256.New, s.secret)
	mac.Write([]byte(encoded))
	return hex.EncodeToString(mac.Sum(nil))
}
