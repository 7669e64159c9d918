// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "github.com/taibuivan/marketplace/internal/platform/sec"

// # Input Constraints

const (
	// MaxPasswordBytes is the bcrypt input limit. Longer inputs are rejected
	// at registration and never match at login.
	MaxPasswordBytes = sec.MaxPasswordBytes

	// MaxNameLength bounds first and last names.
	MaxNameLength = 100

	// MaxLocationLength bounds the free-form location field.
	MaxLocationLength = 200

	// MaxAccountTypeLength bounds the account category tag.
	MaxAccountTypeLength = 32
)

// # Field Identifiers

// Global field names for validation and identity mapping in the authentication domain.
const (
	FieldEmail       = "email"
	FieldPassword    = "password"
	FieldFirstName   = "firstName"
	FieldLastName    = "lastName"
	FieldLocation    = "location"
	FieldAccountType = "accountType"
)

// # Client Messages

const (
	// MessageRegistered is returned once a profile has been created.
	MessageRegistered = "User created successfully"

	// MessageMissingFields is returned when a required registration field is blank.
	MessageMissingFields = "Missing required fields"

	// RefusalAccessDenied is the error code appended to the front-end error page.
	RefusalAccessDenied = "AccessDenied"
)
