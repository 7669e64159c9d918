// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

// Package schema names the tables, columns and constraints created by data/migrations.
package schema

import "strings"

// UserProfileTable represents the 'users.profile' table
type UserProfileTable struct {
	Table         string
	ID            string
	Email         string
	Password      string
	FirstName     string
	LastName      string
	FullName      string
	AvatarURL     string
	Location      string
	AccountType   string
	AuthProvider  string
	EmailVerified string
	CreatedAt     string
	UpdatedAt     string

	// EmailUniqueIndex is the unique index on lower(email).
	EmailUniqueIndex string
}

// UserProfile is the schema definition for users.profile
var UserProfile = UserProfileTable{
	Table:         "users.profile",
	ID:            "id",
	Email:         "email",
	Password:      "passwordhash",
	FirstName:     "firstname",
	LastName:      "lastname",
	FullName:      "fullname",
	AvatarURL:     "avatarurl",
	Location:      "location",
	AccountType:   "accounttype",
	AuthProvider:  "authprovider",
	EmailVerified: "emailverified",
	CreatedAt:     "createdat",
	UpdatedAt:     "updatedat",

	EmailUniqueIndex: "profile_email_lower_key",
}

// Columns returns all standard column names in scan order
func (t UserProfileTable) Columns() []string {
	return []string{
		t.ID, t.Email, t.Password, t.FirstName, t.LastName, t.FullName, t.AvatarURL,
		t.Location, t.AccountType, t.AuthProvider, t.EmailVerified, t.CreatedAt, t.UpdatedAt,
	}
}

// SelectList joins [UserProfileTable.Columns] for use in SELECT and RETURNING clauses.
func (t UserProfileTable) SelectList() string {
	return strings.Join(t.Columns(), ", ")
}
