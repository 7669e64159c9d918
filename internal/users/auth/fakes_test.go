// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package auth_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/taibuivan/marketplace/internal/platform/sec"
	"github.com/taibuivan/marketplace/internal/users/auth"
	"github.com/taibuivan/marketplace/internal/users/profile"
	"github.com/taibuivan/marketplace/pkg/uuid"
)

var errStoreDown = errors.New("connection refused")

// memoryProfiles is an in-memory profile store with the same uniqueness rule as the table.
type memoryProfiles struct {
	mu       sync.Mutex
	profiles map[string]*profile.Profile

	findErr   error
	insertErr error
	updateErr error

	// beforeInsert runs inside Insert before the uniqueness check, to simulate a concurrent writer.
	beforeInsert func(*memoryProfiles)

	inserts int
	updates int
}

func newMemoryProfiles() *memoryProfiles {
	return &memoryProfiles{profiles: make(map[string]*profile.Profile)}
}

func (m *memoryProfiles) FindByEmail(_ context.Context, email string) (*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.findErr != nil {
		return nil, m.findErr
	}
	stored, ok := m.profiles[strings.ToLower(email)]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}
	clone := *stored
	return &clone, nil
}

func (m *memoryProfiles) Insert(_ context.Context, entity *profile.Profile) error {
	if hook := m.beforeInsert; hook != nil {
		m.beforeInsert = nil
		hook(m)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.insertErr != nil {
		return m.insertErr
	}
	key := strings.ToLower(entity.Email)
	if _, exists := m.profiles[key]; exists {
		return profile.ErrEmailTaken
	}

	if entity.ID == "" {
		entity.ID = uuid.New()
	}
	entity.CreatedAt = time.Now().UTC()
	entity.UpdatedAt = entity.CreatedAt

	clone := *entity
	m.profiles[key] = &clone
	m.inserts++
	return nil
}

func (m *memoryProfiles) UpdateFederated(_ context.Context, email string, update profile.FederatedUpdate) (*profile.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.updateErr != nil {
		return nil, m.updateErr
	}
	stored, ok := m.profiles[strings.ToLower(email)]
	if !ok {
		return nil, profile.ErrProfileNotFound
	}

	if update.FullName != "" {
		stored.FullName = update.FullName
	}
	if update.AvatarURL != "" {
		avatar := update.AvatarURL
		stored.AvatarURL = &avatar
	}
	stored.EmailVerified = true
	stored.UpdatedAt = time.Now().UTC()
	m.updates++

	clone := *stored
	return &clone, nil
}

// put seeds a profile directly.
func (m *memoryProfiles) put(entity profile.Profile) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if entity.ID == "" {
		entity.ID = uuid.New()
	}
	m.profiles[strings.ToLower(entity.Email)] = &entity
}

func (m *memoryProfiles) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.profiles)
}

// fakeClock is a movable time source for the session codec.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(delta time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(delta)
}

const (
	testIssuer = "marketplace.test"
	testTTL    = 30 * 24 * time.Hour
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// fixture bundles a service with its collaborators.
type fixture struct {
	profiles *memoryProfiles
	clock    *fakeClock
	codec    *sec.SessionCodec
	service  *auth.Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec, err := sec.NewSessionCodec(testSecret, testTTL, testIssuer, sec.WithClock(clock.Now))
	require.NoError(t, err)

	profiles := newMemoryProfiles()
	return &fixture{
		profiles: profiles,
		clock:    clock,
		codec:    codec,
		service:  auth.NewService(profiles, codec),
	}
}

// seedPassword stores a credentials profile with the given password.
func (f *fixture) seedPassword(t *testing.T, email, password string) profile.Profile {
	t.Helper()

	hash, err := sec.HashPassword(password)
	require.NoError(t, err)

	entity := profile.Profile{
		ID:           uuid.New(),
		Email:        email,
		PasswordHash: &hash,
		FirstName:    "Ana",
		LastName:     "Lopez",
		FullName:     "Ana Lopez",
		AccountType:  profile.DefaultAccountType,
		AuthProvider: profile.ProviderCredentials,
	}
	f.profiles.put(entity)
	return entity
}

func boolPtr(value bool) *bool { return &value }
