// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package auth implements the credential and session lifecycle of the marketplace.

It handles password registration, password login, reconciliation of federated
(Google) sign-ins with stored profiles, and the issuing and refreshing of
stateless session tokens.

Architecture:

  - Service: Orchestrates the use cases (Register, Login, SignInFederated, RefreshSession).
  - Repository: The profile store is reached through [profile.ProfileRepository] only.
  - Provider: Identity providers sit behind [IdentityProvider].
  - Security: bcrypt hashes and HS256 session tokens from the sec package.

A session never causes a store query once issued; everything the front-end
needs about the signed-in user travels inside the token.
*/
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taibuivan/marketplace/internal/platform/apperr"
	"github.com/taibuivan/marketplace/internal/platform/ctxutil"
	"github.com/taibuivan/marketplace/internal/platform/sec"
	"github.com/taibuivan/marketplace/internal/platform/validate"
	"github.com/taibuivan/marketplace/internal/users/profile"
	"github.com/taibuivan/marketplace/pkg/pointer"
)

// # Sentinel Errors

var (
	// ErrInvalidCredentials is the single client-facing answer to every failed password login.
	ErrInvalidCredentials = apperr.Unauthorized("Invalid credentials")

	// ErrFederatedRefused is returned when a federated sign-in cannot be reconciled.
	ErrFederatedRefused = apperr.Unauthorized("Access denied")
)

// errStorageMessage is the client-facing text of every profile store failure.
const errStorageMessage = "Unable to reach the profile store"

// # Contracts & Types

// SessionProvider defines the contract for issuing and refreshing session tokens.
type SessionProvider interface {
	// Issue signs a new token carrying the given identity claims.
	Issue(user sec.SessionUser) (*sec.Session, error)

	// Refresh reissues a valid token with unchanged claims and a new expiry.
	Refresh(tokenString string) (*sec.Session, error)
}

// Service implements the authentication use cases.
//
// # Review Process
//
// This service is critical for security. Any changes to hashing, registration,
// or login logic must be reviewed by the security team.
type Service struct {
	profileRepository profile.ProfileRepository
	sessionProvider   SessionProvider
}

// NewService constructs a new [Service] with necessary dependencies.
func NewService(profileRepo profile.ProfileRepository, sessions SessionProvider) *Service {
	return &Service{
		profileRepository: profileRepo,
		sessionProvider:   sessions,
	}
}

// SignIn is the result of any successful sign-in: the identity and its signed session.
type SignIn struct {
	User    sec.SessionUser
	Session *sec.Session
}

// # Registration Flow

// RegisterInput holds the data required to enroll a new member.
type RegisterInput struct {
	Email       string
	Password    string
	FirstName   string
	LastName    string
	Location    string
	AccountType string
}

// RegisteredUser is the public view returned after registration. It never carries the hash.
type RegisteredUser struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

/*
Register validates, hashes, and persists a brand new profile.

Description: Normalizes the email before the uniqueness check so that
"A@X.com" and "a@x.com" compete for the same record. The unique index is the
backstop when two registrations race past the lookup.

Parameters:
  - context: context.Context
  - input: RegisterInput

Returns:
  - *RegisteredUser: id, email and display name of the new profile
  - error: ValidationError, ConflictError or StorageError
*/
func (service *Service) Register(context context.Context, input RegisterInput) (*RegisteredUser, error) {

	// ── 1. Validation ─────────────────────────────────────────────────────
	if err := validateRegistration(input); err != nil {
		return nil, err
	}

	email := profile.NormalizeEmail(input.Email)

	// ── 2. Uniqueness ─────────────────────────────────────────────────────
	_, err := service.profileRepository.FindByEmail(context, email)
	switch {
	case err == nil:
		return nil, profile.ErrEmailTaken
	case !errors.Is(err, profile.ErrProfileNotFound):
		return nil, apperr.Storage(errStorageMessage, fmt.Errorf("auth_service_register_lookup_failed: %w", err))
	}

	// ── 3. Hashing ────────────────────────────────────────────────────────
	hashedPassword, err := sec.HashPassword(input.Password)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_hash_failed: %w", err))
	}

	// ── 4. Persistence ────────────────────────────────────────────────────
	accountType := profile.NormalizeName(input.AccountType)
	if accountType == "" {
		accountType = profile.DefaultAccountType
	}

	entity := &profile.Profile{
		Email:         email,
		PasswordHash:  &hashedPassword,
		FirstName:     profile.NormalizeName(input.FirstName),
		LastName:      profile.NormalizeName(input.LastName),
		FullName:      profile.JoinName(input.FirstName, input.LastName),
		Location:      profile.NormalizeOptional(input.Location),
		AccountType:   accountType,
		AuthProvider:  profile.ProviderCredentials,
		EmailVerified: false,
	}

	if err := service.profileRepository.Insert(context, entity); err != nil {
		if errors.Is(err, profile.ErrEmailTaken) {
			return nil, profile.ErrEmailTaken
		}
		return nil, apperr.Storage(errStorageMessage, fmt.Errorf("auth_service_register_failed: %w", err))
	}

	ctxutil.GetLogger(context).InfoContext(context, "auth_profile_registered",
		slog.String("user_id", entity.ID),
	)

	return &RegisteredUser{
		ID:    entity.ID,
		Email: entity.Email,
		Name:  entity.FullName,
	}, nil
}

// validateRegistration runs the two validation phases of [Service.Register].
func validateRegistration(input RegisterInput) error {

	// Blank required fields have their own message so the form can say so.
	required := &validate.Validator{}
	required.Required(FieldEmail, input.Email).
		Required(FieldPassword, input.Password).
		Required(FieldFirstName, input.FirstName).
		Required(FieldLastName, input.LastName)

	if err := required.ErrWithMessage(MessageMissingFields); err != nil {
		return err
	}

	format := &validate.Validator{}
	format.Email(FieldEmail, profile.NormalizeEmail(input.Email)).
		Custom(FieldPassword, len(input.Password) > MaxPasswordBytes, fmt.Sprintf("Maximum %d bytes", MaxPasswordBytes)).
		MaxLen(FieldFirstName, input.FirstName, MaxNameLength).
		MaxLen(FieldLastName, input.LastName, MaxNameLength).
		MaxLen(FieldLocation, input.Location, MaxLocationLength).
		MaxLen(FieldAccountType, input.AccountType, MaxAccountTypeLength)

	return format.Err()
}

// # Authentication Flow

/*
VerifyCredentials checks an email and password against the stored profile.

Description: Produces a tagged outcome instead of an error for every expected
failure. Paths that never reach a real hash comparison still pay for one, so
the response time does not reveal whether the email is registered.

Parameters:
  - context: context.Context
  - email: string
  - password: string

Returns:
  - CredentialCheck: The tagged outcome
  - error: StorageError only
*/
func (service *Service) VerifyCredentials(context context.Context, email, password string) (CredentialCheck, error) {
	stored, err := service.profileRepository.FindByEmail(context, profile.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) {
			sec.BurnPasswordCheck(password)
			return CredentialCheck{Outcome: OutcomeUnknownEmail}, nil
		}
		return CredentialCheck{}, apperr.Storage(errStorageMessage, fmt.Errorf("auth_service_login_lookup_failed: %w", err))
	}

	if !stored.HasPassword() {
		sec.BurnPasswordCheck(password)
		return CredentialCheck{Outcome: OutcomeNoPasswordOnFile}, nil
	}

	if err := sec.VerifyPassword(password, pointer.Val(stored.PasswordHash)); err != nil {
		if !errors.Is(err, sec.ErrPasswordMismatch) {
			ctxutil.GetLogger(context).WarnContext(context, "auth_stored_hash_unreadable",
				slog.String("user_id", stored.ID),
				slog.Any("error", err),
			)
		}
		return CredentialCheck{Outcome: OutcomePasswordMismatch}, nil
	}

	return CredentialCheck{Outcome: OutcomeAuthenticated, Profile: stored}, nil
}

// LoginInput defines credentials for an authentication attempt.
type LoginInput struct {
	Email    string
	Password string
}

/*
Login validates user credentials and issues a session token.

Parameters:
  - context: context.Context
  - input: LoginInput

Returns:
  - *SignIn: The identity and its signed session
  - error: ErrInvalidCredentials, StorageError or internal failures
*/
func (service *Service) Login(context context.Context, input LoginInput) (*SignIn, error) {
	logger := ctxutil.GetLogger(context)

	// Blank fields get the same answer as a wrong password.
	if profile.NormalizeEmail(input.Email) == "" || input.Password == "" {
		return nil, ErrInvalidCredentials
	}

	check, err := service.VerifyCredentials(context, input.Email, input.Password)
	if err != nil {
		return nil, err
	}

	if !check.Authenticated() {
		logger.InfoContext(context, "auth_login_rejected", slog.String("outcome", string(check.Outcome)))
		return nil, ErrInvalidCredentials
	}

	signIn, err := service.issue(IdentityFromProfile(check.Profile))
	if err != nil {
		return nil, err
	}

	logger.InfoContext(context, "auth_login_succeeded", slog.String("user_id", signIn.User.ID))
	return signIn, nil
}

// # Federated Flow

// FederatedIdentity is what an identity provider asserts about the signed-in person.
type FederatedIdentity struct {
	Provider   string
	Subject    string
	Email      string
	Name       string
	GivenName  string
	FamilyName string
	Picture    string

	// EmailVerified is nil when the provider does not say.
	EmailVerified *bool
}

/*
SignInFederated reconciles a provider assertion with the profile store.

Description: Looks the email up; creates a verified profile when absent and
refreshes name, avatar and the verified flag when present. An insert that
loses a race against a concurrent first sign-in hits the unique index and
falls through to the update path. Any other store failure refuses the
sign-in.

Parameters:
  - context: context.Context
  - identity: FederatedIdentity

Returns:
  - *SignIn: The stored identity and its signed session
  - error: ErrFederatedRefused, StorageError or internal failures
*/
func (service *Service) SignInFederated(context context.Context, identity FederatedIdentity) (*SignIn, error) {
	logger := ctxutil.GetLogger(context).With(slog.String("provider", identity.Provider))
	email := profile.NormalizeEmail(identity.Email)

	// ── 1. Assertion Checks ───────────────────────────────────────────────
	if email == "" {
		logger.WarnContext(context, "auth_federated_refused", slog.String("reason", "missing_email"))
		return nil, ErrFederatedRefused
	}
	if identity.EmailVerified != nil && !*identity.EmailVerified {
		logger.WarnContext(context, "auth_federated_refused", slog.String("reason", "email_unverified"))
		return nil, ErrFederatedRefused
	}

	// ── 2. Lookup ─────────────────────────────────────────────────────────
	stored, err := service.profileRepository.FindByEmail(context, email)
	switch {
	case err == nil:
		stored, err = service.updateFederated(context, email, identity)
	case errors.Is(err, profile.ErrProfileNotFound):
		stored, err = service.createFederated(context, email, identity)
	default:
		err = fmt.Errorf("auth_service_federated_lookup_failed: %w", err)
	}

	// ── 3. Fail Closed ────────────────────────────────────────────────────
	if err != nil {
		logger.ErrorContext(context, "auth_federated_refused",
			slog.String("reason", "store_failure"),
			slog.Any("error", err),
		)
		return nil, apperr.Storage(errStorageMessage, err)
	}

	signIn, err := service.issue(IdentityFromProfile(stored))
	if err != nil {
		return nil, err
	}

	logger.InfoContext(context, "auth_federated_succeeded", slog.String("user_id", signIn.User.ID))
	return signIn, nil
}

// createFederated inserts a verified, password-less profile and treats a lost race as success.
func (service *Service) createFederated(context context.Context, email string, identity FederatedIdentity) (*profile.Profile, error) {
	firstName := profile.NormalizeName(identity.GivenName)
	lastName := profile.NormalizeName(identity.FamilyName)
	if firstName == "" && lastName == "" {
		firstName, lastName = profile.SplitName(identity.Name)
	}

	fullName := profile.NormalizeName(identity.Name)
	if fullName == "" {
		fullName = profile.JoinName(firstName, lastName)
	}

	entity := &profile.Profile{
		Email:         email,
		FirstName:     firstName,
		LastName:      lastName,
		FullName:      fullName,
		AvatarURL:     pointer.NonBlank(identity.Picture),
		AccountType:   profile.DefaultAccountType,
		AuthProvider:  identity.Provider,
		EmailVerified: true,
	}

	err := service.profileRepository.Insert(context, entity)
	switch {
	case err == nil:
		return entity, nil
	case errors.Is(err, profile.ErrEmailTaken):
		return service.updateFederated(context, email, identity)
	default:
		return nil, fmt.Errorf("auth_service_federated_insert_failed: %w", err)
	}
}

// updateFederated refreshes provider-owned fields on an existing profile.
func (service *Service) updateFederated(context context.Context, email string, identity FederatedIdentity) (*profile.Profile, error) {
	updated, err := service.profileRepository.UpdateFederated(context, email, profile.FederatedUpdate{
		FullName:  profile.NormalizeName(identity.Name),
		AvatarURL: identity.Picture,
	})
	if err != nil {
		return nil, fmt.Errorf("auth_service_federated_update_failed: %w", err)
	}
	return updated, nil
}

// # Session Flow

/*
RefreshSession reissues a session from the prior token alone.

Parameters:
  - tokenString: string (the current session token)

Returns:
  - *SignIn: The carried identity and the new session
  - error: apperr.Unauthorized when the prior token is invalid or expired
*/
func (service *Service) RefreshSession(tokenString string) (*SignIn, error) {
	session, err := service.sessionProvider.Refresh(tokenString)
	if err != nil {
		if errors.Is(err, sec.ErrSessionExpired) || errors.Is(err, sec.ErrInvalidSession) {
			return nil, apperr.Unauthorized("Invalid or expired session").WithCause(err)
		}
		return nil, apperr.Internal(fmt.Errorf("auth_service_refresh_failed: %w", err))
	}

	return &SignIn{User: session.Claims.User(), Session: session}, nil
}

// issue signs a session for a freshly reconciled identity.
func (service *Service) issue(user sec.SessionUser) (*SignIn, error) {
	session, err := service.sessionProvider.Issue(user)
	if err != nil {
		return nil, apperr.Internal(fmt.Errorf("auth_service_issue_session_failed: %w", err))
	}
	return &SignIn{User: user, Session: session}, nil
}

// IdentityFromProfile copies the stored profile into the session identity.
func IdentityFromProfile(stored *profile.Profile) sec.SessionUser {
	return sec.SessionUser{
		ID:            stored.ID,
		Email:         stored.Email,
		Name:          stored.FullName,
		Picture:       pointer.Val(stored.AvatarURL),
		FirstName:     stored.FirstName,
		LastName:      stored.LastName,
		Location:      pointer.Val(stored.Location),
		AccountType:   stored.AccountType,
		EmailVerified: stored.EmailVerified,
	}
}
