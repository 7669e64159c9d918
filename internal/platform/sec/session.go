// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package sec provides cryptographic primitives and session token management.
//
// # Architecture
//
// This package isolates security-sensitive code (Hashing, Token Signing) from
// the domain logic. It acts as an Infrastructure service injected into the
// Application layer via the [SessionCodec] type.
//
// # Sessions
//
// Sessions are stateless HS256 tokens. The identity claims travel inside the
// token, so verifying or refreshing a session never touches a store. There is
// no revocation list: a token stays valid until its expiry.
package sec

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSession covers bad signatures, malformed tokens and foreign issuers.
	ErrInvalidSession = errors.New("sec: invalid session token")

	// ErrSessionExpired is returned for a well-formed token past its expiry.
	ErrSessionExpired = errors.New("sec: session token expired")
)

// SessionClaims represents the payload embedded inside a session token.
//
// # Why custom claims?
//
// By embedding the profile fields directly inside the token, the
// [middleware.Authenticate] can reconstruct the current user WITHOUT querying
// the database on every request, and a refresh can reissue the token from
// the previous one alone.
type SessionClaims struct {
	jwt.RegisteredClaims

	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture,omitempty"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Location      string `json:"location,omitempty"`
	AccountType   string `json:"accountType,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// SessionUser is the read-only view of the signed-in user exposed to handlers.
type SessionUser struct {
	ID            string `json:"id"`
	Email         string `json:"email"`
	Name          string `json:"name"`
	Picture       string `json:"picture,omitempty"`
	FirstName     string `json:"firstName,omitempty"`
	LastName      string `json:"lastName,omitempty"`
	Location      string `json:"location,omitempty"`
	AccountType   string `json:"accountType,omitempty"`
	EmailVerified bool   `json:"emailVerified"`
}

// User copies the subject and carried claims into a [SessionUser].
func (claims *SessionClaims) User() SessionUser {
	return SessionUser{
		ID:            claims.Subject,
		Email:         claims.Email,
		Name:          claims.Name,
		Picture:       claims.Picture,
		FirstName:     claims.FirstName,
		LastName:      claims.LastName,
		Location:      claims.Location,
		AccountType:   claims.AccountType,
		EmailVerified: claims.EmailVerified,
	}
}

// Expiry returns the expiry instant, or the zero time when none is set.
func (claims *SessionClaims) Expiry() time.Time {
	if claims.ExpiresAt == nil {
		return time.Time{}
	}
	return claims.ExpiresAt.Time
}

// Session is a freshly signed token together with the claims it carries.
type Session struct {
	Token     string
	ExpiresAt time.Time
	Claims    *SessionClaims
}

// SessionCodec signs and verifies session tokens with a shared HS256 secret.
type SessionCodec struct {
	secret []byte
	ttl    time.Duration
	issuer string
	now    func() time.Time
}

// CodecOption customises a [SessionCodec].
type CodecOption func(*SessionCodec)

// WithClock replaces the wall clock used for issuance and expiry checks.
func WithClock(now func() time.Time) CodecOption {
	return func(codec *SessionCodec) {
		codec.now = now
	}
}

// NewSessionCodec creates a new SessionCodec.
//
// # Parameters
//   - secret: The HS256 signing key. It must not be empty.
//   - ttl: The validity window of every issued token.
//   - issuer: The 'iss' claim written and required on verification.
func NewSessionCodec(secret []byte, ttl time.Duration, issuer string, opts ...CodecOption) (*SessionCodec, error) {
	if len(secret) == 0 {
		return nil, errors.New("sec: session secret is empty")
	}
	if ttl <= 0 {
		return nil, fmt.Errorf("sec: session ttl must be positive, got %s", ttl)
	}

	codec := &SessionCodec{
		secret: secret,
		ttl:    ttl,
		issuer: issuer,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(codec)
	}
	return codec, nil
}

// Issue signs a new token carrying the given user's identity claims.
func (codec *SessionCodec) Issue(user SessionUser) (*Session, error) {
	if user.ID == "" {
		return nil, errors.New("sec: session subject is empty")
	}

	return codec.sign(&SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: user.ID},
		Email:            user.Email,
		Name:             user.Name,
		Picture:          user.Picture,
		FirstName:        user.FirstName,
		LastName:         user.LastName,
		Location:         user.Location,
		AccountType:      user.AccountType,
		EmailVerified:    user.EmailVerified,
	})
}

// Verify checks the signature, issuer and expiry of a token string.
//
// # Returns
//   - The decoded claims on success.
//   - [ErrSessionExpired] or [ErrInvalidSession] otherwise.
func (codec *SessionCodec) Verify(tokenString string) (*SessionClaims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(codec.issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(codec.now),
	)

	claims := &SessionClaims{}
	token, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (any, error) {
		return codec.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrSessionExpired
		}
		return nil, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	if !token.Valid || claims.Subject == "" {
		return nil, ErrInvalidSession
	}

	return claims, nil
}

// Refresh reissues a still-valid token with a new expiry.
//
// The identity claims are carried forward unchanged; no store is consulted.
func (codec *SessionCodec) Refresh(tokenString string) (*Session, error) {
	prior, err := codec.Verify(tokenString)
	if err != nil {
		return nil, err
	}

	next := *prior
	next.RegisteredClaims = jwt.RegisteredClaims{Subject: prior.Subject}
	return codec.sign(&next)
}

// sign stamps the registered time claims and produces the compact token.
func (codec *SessionCodec) sign(claims *SessionClaims) (*Session, error) {
	issuedAt := codec.now()
	expiresAt := issuedAt.Add(codec.ttl)

	claims.Issuer = codec.issuer
	claims.IssuedAt = jwt.NewNumericDate(issuedAt)
	claims.ExpiresAt = jwt.NewNumericDate(expiresAt)

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(codec.secret)
	if err != nil {
		return nil, fmt.Errorf("sec: failed to sign session token: %w", err)
	}

	return &Session{
		Token:     signedToken,
		ExpiresAt: claims.ExpiresAt.Time,
		Claims:    claims,
	}, nil
}
