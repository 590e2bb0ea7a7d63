package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

type Role string

const (
	RolePatient Role = "patient"
	RoleDoctor  Role = "doctor"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RolePatient, RoleDoctor, RoleAdmin:
		return true
	}
	return false
}

var ErrInvalidToken = errors.New("invalid or expired token")

// Identity is the authenticated caller. For doctors Subject is the doctor
// profile id, for patients the patient id.
type Identity struct {
	Subject uuid.UUID
	Role    Role
}

type Claims struct {
	jwt.RegisteredClaims
	Role Role `json:"role"`
}

const issuer = "clinic-booking"

// Signer issues and verifies HS256 tokens with a shared secret.
type Signer struct {
	secret []byte
	now    func() time.Time
}

func NewSigner(secret string) *Signer {
	return &Signer{secret: []byte(secret), now: time.Now}
}

func (s *Signer) Issue(id Identity, ttl time.Duration) (string, error) {
	if id.Subject == uuid.Nil {
		return "", errors.New("token subject is required")
	}
	if !id.Role.Valid() {
		return "", fmt.Errorf("unknown role %q", id.Role)
	}

	now := s.now()
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.Subject.String(),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Role: id.Role,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

func (s *Signer) Parse(tokenStr string) (Identity, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil || !token.Valid {
		return Identity{}, ErrInvalidToken
	}

	subject, err := uuid.Parse(claims.Subject)
	if err != nil || !claims.Role.Valid() {
		return Identity{}, ErrInvalidToken
	}

	return Identity{Subject: subject, Role: claims.Role}, nil
}
