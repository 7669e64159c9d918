// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/taibuivan/marketplace/internal/platform/database/schema"
	"github.com/taibuivan/marketplace/internal/platform/dberr"
	"github.com/taibuivan/marketplace/pkg/uuid"
)

// DBTX is the subset of [pgxpool.Pool] used by the repository.
//
// Accepting it instead of the pool lets tests substitute pgxmock.
type DBTX interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// # Queries

var (
	profileTable   = schema.UserProfile
	profileColumns = profileTable.SelectList()

	findByEmailQuery = fmt.Sprintf(`SELECT %s
		FROM %s
		WHERE lower(%s) = lower($1)`,
		profileColumns, profileTable.Table, profileTable.Email)

	insertQuery = fmt.Sprintf(`
		INSERT INTO %s (%s)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		profileTable.Table, profileColumns)

	updateFederatedQuery = fmt.Sprintf(`
		UPDATE %[1]s
		SET %[2]s = COALESCE(NULLIF($2::text, ''), %[2]s),
		    %[3]s = COALESCE(NULLIF($3::text, ''), %[3]s),
		    %[4]s = TRUE,
		    %[5]s = $4
		WHERE lower(%[6]s) = lower($1)
		RETURNING %[7]s`,
		profileTable.Table, profileTable.FullName, profileTable.AvatarURL,
		profileTable.EmailVerified, profileTable.UpdatedAt, profileTable.Email, profileColumns)
)

// # Profile Repository

// PostgresProfileRepository implements the ProfileRepository interface using pgx.
type PostgresProfileRepository struct {
	db  DBTX
	now func() time.Time
}

// NewProfileRepository creates a new PostgreSQL implementation of the ProfileRepository.
func NewProfileRepository(db DBTX) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db, now: time.Now}
}

/*
FindByEmail retrieves a profile by its email address.

Description: Compares on lower(email) so the lookup is served by the unique
index even if a caller forgot to normalize.

Parameters:
  - context: context.Context
  - email: string

Returns:
  - *Profile: Hydrated profile entity
  - error: ErrProfileNotFound or database errors
*/
func (repository *PostgresProfileRepository) FindByEmail(context context.Context, email string) (*Profile, error) {
	profile, err := scanProfile(repository.db.QueryRow(context, findByEmailQuery, email))
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("postgres_profile_repo_find_by_email_failed: %w", err)
	}

	return profile, nil
}

/*
Insert persists a new profile record into the users.profile table.

Description: Generates a UUIDv7 when the ID is empty and initializes the
timestamps. Only a violation of the lower(email) index surfaces as ErrEmailTaken.

Parameters:
  - context: context.Context
  - profile: *Profile (Entity to persist)

Returns:
  - error: ErrEmailTaken or connectivity errors
*/
func (repository *PostgresProfileRepository) Insert(context context.Context, profile *Profile) error {
	if profile.ID == "" {
		profile.ID = uuid.New()
	}
	now := repository.now().UTC()
	if profile.CreatedAt.IsZero() {
		profile.CreatedAt = now
	}
	profile.UpdatedAt = profile.CreatedAt

	_, err := repository.db.Exec(context, insertQuery,
		profile.ID,
		profile.Email,
		profile.PasswordHash,
		profile.FirstName,
		profile.LastName,
		profile.FullName,
		profile.AvatarURL,
		profile.Location,
		profile.AccountType,
		profile.AuthProvider,
		profile.EmailVerified,
		profile.CreatedAt,
		profile.UpdatedAt,
	)

	if err != nil {
		if dberr.IsUniqueViolation(err) && dberr.Constraint(err) == profileTable.EmailUniqueIndex {
			return ErrEmailTaken
		}
		return fmt.Errorf("postgres_profile_repo_insert_failed: %w", err)
	}

	return nil
}

/*
UpdateFederated refreshes the display name and avatar and forces emailverified.

Description: Blank incoming values keep the stored ones (COALESCE/NULLIF), so a
provider that omits the picture does not wipe an avatar set earlier.

Parameters:
  - context: context.Context
  - email: string
  - update: FederatedUpdate

Returns:
  - *Profile: The profile as stored after the update
  - error: ErrProfileNotFound or database errors
*/
func (repository *PostgresProfileRepository) UpdateFederated(context context.Context, email string, update FederatedUpdate) (*Profile, error) {
	profile, err := scanProfile(repository.db.QueryRow(context, updateFederatedQuery,
		email,
		update.FullName,
		update.AvatarURL,
		repository.now().UTC(),
	))
	if err != nil {
		if dberr.IsNoRows(err) {
			return nil, ErrProfileNotFound
		}
		return nil, fmt.Errorf("postgres_profile_repo_update_federated_failed: %w", err)
	}

	return profile, nil
}

// scanProfile hydrates a [Profile] from a row selected in [schema.UserProfileTable.Columns] order.
func scanProfile(row pgx.Row) (*Profile, error) {
	profile := &Profile{}
	err := row.Scan(
		&profile.ID,
		&profile.Email,
		&profile.PasswordHash,
		&profile.FirstName,
		&profile.LastName,
		&profile.FullName,
		&profile.AvatarURL,
		&profile.Location,
		&profile.AccountType,
		&profile.AuthProvider,
		&profile.EmailVerified,
		&profile.CreatedAt,
		&profile.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return profile, nil
}
