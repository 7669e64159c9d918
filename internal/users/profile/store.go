// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import "context"

// # Profile Data Access

// ProfileRepository defines the data access contract for marketplace profiles.
//
// Every method is a single point query. Callers that need more than one
// step (lookup then insert) must tolerate a concurrent writer in between.
type ProfileRepository interface {

	/*
		FindByEmail returns the profile with the given normalized email.

		Parameters:
		  - context: context.Context
		  - email: string (already normalized)

		Returns:
		  - *Profile: Hydrated entity
		  - error: ErrProfileNotFound or storage failures
	*/
	FindByEmail(context context.Context, email string) (*Profile, error)

	/*
		Insert persists a brand-new profile.

		Parameters:
		  - context: context.Context
		  - profile: *Profile (ID and timestamps are filled in when empty)

		Returns:
		  - error: ErrEmailTaken on a duplicate email, or storage failures
	*/
	Insert(context context.Context, profile *Profile) error

	/*
		UpdateFederated refreshes provider-owned fields and marks the email verified.

		Parameters:
		  - context: context.Context
		  - email: string (already normalized)
		  - update: FederatedUpdate

		Returns:
		  - *Profile: The stored profile after the update
		  - error: ErrProfileNotFound or storage failures
	*/
	UpdateFederated(context context.Context, email string, update FederatedUpdate) (*Profile, error)
}
