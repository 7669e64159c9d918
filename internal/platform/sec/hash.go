// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

const (
	// PasswordCost is the bcrypt work factor for every stored password hash.
	PasswordCost = 12

	// MaxPasswordBytes is the longest input bcrypt reads. Bytes past it are ignored by
	// the algorithm, so longer inputs never match.
	MaxPasswordBytes = 72
)

// ErrPasswordMismatch is returned when a password does not match its hash.
var ErrPasswordMismatch = errors.New("sec: password mismatch")

var (
	dummyHashOnce sync.Once
	dummyHash     []byte
)

// HashPassword hashes a plain-text password using the bcrypt algorithm.
//
// Every call yields a different hash because bcrypt salts internally.
func HashPassword(plainTextPassword string) (string, error) {
	hashedBytes, err := bcrypt.GenerateFromPassword([]byte(plainTextPassword), PasswordCost)
	if err != nil {
		return "", fmt.Errorf("sec: failed to hash password: %w", err)
	}
	return string(hashedBytes), nil
}

// VerifyPassword compares a plain-text password with its hashed version.
//
// # Returns
//   - nil when the password matches.
//   - [ErrPasswordMismatch] when it does not.
//   - Any other error when existingHash is not a valid bcrypt hash.
//
// A password longer than [MaxPasswordBytes] is a mismatch even when its first
// 72 bytes hash to existingHash.
func VerifyPassword(plainTextPassword, existingHash string) error {
	if len(plainTextPassword) > MaxPasswordBytes {
		BurnPasswordCheck(plainTextPassword[:MaxPasswordBytes])
		return ErrPasswordMismatch
	}

	err := bcrypt.CompareHashAndPassword([]byte(existingHash), []byte(plainTextPassword))
	switch {
	case err == nil:
		return nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return ErrPasswordMismatch
	default:
		return fmt.Errorf("sec: failed to compare password: %w", err)
	}
}

// BurnPasswordCheck runs one bcrypt comparison against a fixed hash and discards the result.
//
// Login paths that fail before a real comparison call it so that every
// rejection costs the same amount of time.
func BurnPasswordCheck(plainTextPassword string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("marketplace-timing-equalizer"), PasswordCost)
	})
	_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(plainTextPassword))
}
