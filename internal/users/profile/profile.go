// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package profile defines the marketplace user profile and its persistence.

A profile is created either by password registration or by the first
federated sign-in for an email address. Both paths share one table keyed by
a case-insensitively unique email.

# Architecture

  - Entities: Profile, FederatedUpdate.
  - Contract: ProfileRepository exposes point queries only (find, insert, update).
  - Storage: PostgresProfileRepository over pgx.
*/
package profile

import (
	"strings"
	"time"

	"golang.org/x/text/unicode/norm"

	"github.com/taibuivan/marketplace/internal/platform/apperr"
	"github.com/taibuivan/marketplace/pkg/pointer"
)

// # Auth Origins

const (
	// ProviderCredentials marks profiles created through password registration.
	ProviderCredentials = "credentials"

	// ProviderGoogle marks profiles created through Google sign-in.
	ProviderGoogle = "google"
)

// DefaultAccountType is the account category assigned when none is supplied.
const DefaultAccountType = "customer"

// # Sentinel Errors

var (
	// ErrProfileNotFound is returned when no profile matches the lookup.
	ErrProfileNotFound = apperr.NotFound("Profile")

	// ErrEmailTaken is returned when the lower(email) unique index rejects a write.
	ErrEmailTaken = apperr.Conflict("User already exists with this email")
)

// # Domain Entities

// Profile is a single marketplace user.
type Profile struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	PasswordHash  *string   `json:"-"` // NULL for federation-only profiles. Never serialized.
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	FullName      string    `json:"name"`
	AvatarURL     *string   `json:"avatarUrl,omitempty"`
	Location      *string   `json:"location,omitempty"`
	AccountType   string    `json:"accountType"`
	AuthProvider  string    `json:"authProvider"`
	EmailVerified bool      `json:"emailVerified"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// HasPassword reports whether a password hash is on file.
func (p *Profile) HasPassword() bool {
	return p.PasswordHash != nil && *p.PasswordHash != ""
}

// FederatedUpdate carries the fields an identity provider may refresh on every sign-in.
//
// Blank values keep what is already stored.
type FederatedUpdate struct {
	FullName  string
	AvatarURL string
}

// # Normalization

// NormalizeEmail trims and lower-cases an email so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeName trims a personal name and converts it to Unicode NFC.
//
// Names typed on different keyboards may arrive composed or decomposed; NFC
// makes them byte-identical once stored.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.Join(strings.Fields(name), " "))
}

// JoinName builds the display name stored at registration.
func JoinName(firstName, lastName string) string {
	return strings.TrimSpace(NormalizeName(firstName) + " " + NormalizeName(lastName))
}

// SplitName splits a provider display name into first and last name.
//
// The first word becomes the first name; everything after it is the last name.
func SplitName(fullName string) (string, string) {
	first, rest, _ := strings.Cut(NormalizeName(fullName), " ")
	return first, rest
}

// NormalizeOptional converts a blank optional field into NULL.
func NormalizeOptional(value string) *string {
	return pointer.NonBlank(norm.NFC.String(value))
}
