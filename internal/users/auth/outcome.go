// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth

import "github.com/taibuivan/marketplace/internal/users/profile"

// CredentialOutcome tags the result of checking an email and password.
//
// Only [OutcomeAuthenticated] yields a session. The failure tags are logged
// but collapse into one generic client message.
type CredentialOutcome string

const (
	OutcomeAuthenticated    CredentialOutcome = "authenticated"
	OutcomeUnknownEmail     CredentialOutcome = "unknown_email"
	OutcomeNoPasswordOnFile CredentialOutcome = "no_password_on_file"
	OutcomePasswordMismatch CredentialOutcome = "password_mismatch"
)

// CredentialCheck is the tagged result of [Service.VerifyCredentials].
type CredentialCheck struct {
	Outcome CredentialOutcome

	// Profile is set only when Outcome is OutcomeAuthenticated.
	Profile *profile.Profile
}

// Authenticated reports whether the credentials matched.
func (check CredentialCheck) Authenticated() bool {
	return check.Outcome == OutcomeAuthenticated && check.Profile != nil
}
