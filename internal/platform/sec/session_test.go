// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package sec_test

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/marketplace/internal/platform/sec"
)

const (
	testIssuer = "marketplace.test"
	testTTL    = 30 * 24 * time.Hour
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

// fakeClock is a movable time source shared by the codec under test.
type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time             { return c.now }
func (c *fakeClock) Advance(delta time.Duration) { c.now = c.now.Add(delta) }

func newCodec(t *testing.T, clock *fakeClock) *sec.SessionCodec {
	t.Helper()
	codec, err := sec.NewSessionCodec(testSecret, testTTL, testIssuer, sec.WithClock(clock.Now))
	require.NoError(t, err)
	return codec
}

func sampleUser() sec.SessionUser {
	return sec.SessionUser{
		ID:            "0192f1c4-7d2a-7000-8000-000000000001",
		Email:         "ana@example.com",
		Name:          "Ana Lopez",
		Picture:       "https://cdn.example.com/ana.png",
		FirstName:     "Ana",
		LastName:      "Lopez",
		Location:      "Valletta",
		AccountType:   "customer",
		EmailVerified: true,
	}
}

func TestNewSessionCodec_Rejects(t *testing.T) {
	_, err := sec.NewSessionCodec(nil, testTTL, testIssuer)
	assert.Error(t, err)

	_, err = sec.NewSessionCodec(testSecret, 0, testIssuer)
	assert.Error(t, err)
}

func TestIssueAndVerify_RoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newCodec(t, clock)

	session, err := codec.Issue(sampleUser())
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)
	assert.Equal(t, clock.now.Add(testTTL), session.ExpiresAt)

	claims, err := codec.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, sampleUser(), claims.User())
	assert.Equal(t, testIssuer, claims.Issuer)
}

func TestIssue_RequiresSubject(t *testing.T) {
	codec := newCodec(t, &fakeClock{now: time.Now()})

	user := sampleUser()
	user.ID = ""
	_, err := codec.Issue(user)
	assert.Error(t, err)
}

/*
TestVerify_ExpiryWindow issues a token at T and checks it across the 30-day window.
*/
func TestVerify_ExpiryWindow(t *testing.T) {
	tests := []struct {
		name    string
		elapsed time.Duration
		wantErr error
	}{
		{"same_instant", 0, nil},
		{"after_29_days", 29 * 24 * time.Hour, nil},
		{"after_31_days", 31 * 24 * time.Hour, sec.ErrSessionExpired},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
			codec := newCodec(t, clock)

			session, err := codec.Issue(sampleUser())
			require.NoError(t, err)

			clock.Advance(tt.elapsed)
			_, err = codec.Verify(session.Token)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	session, err := newCodec(t, clock).Issue(sampleUser())
	require.NoError(t, err)

	other, err := sec.NewSessionCodec([]byte("another-secret-another-secret-xx"), testTTL, testIssuer, sec.WithClock(clock.Now))
	require.NoError(t, err)

	_, err = other.Verify(session.Token)
	assert.ErrorIs(t, err, sec.ErrInvalidSession)
}

func TestVerify_ForeignIssuer(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	session, err := newCodec(t, clock).Issue(sampleUser())
	require.NoError(t, err)

	other, err := sec.NewSessionCodec(testSecret, testTTL, "someone.else", sec.WithClock(clock.Now))
	require.NoError(t, err)

	_, err = other.Verify(session.Token)
	assert.ErrorIs(t, err, sec.ErrInvalidSession)
}

func TestVerify_Malformed(t *testing.T) {
	codec := newCodec(t, &fakeClock{now: time.Now()})

	for _, raw := range []string{"", "not.a.jwt", "abc"} {
		_, err := codec.Verify(raw)
		assert.ErrorIs(t, err, sec.ErrInvalidSession, raw)
	}
}

func TestVerify_RejectsOtherAlgorithms(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	codec := newCodec(t, clock)

	token := jwt.NewWithClaims(jwt.SigningMethodHS512, &sec.SessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   "someone",
			Issuer:    testIssuer,
			ExpiresAt: jwt.NewNumericDate(clock.now.Add(time.Hour)),
		},
	})
	signed, err := token.SignedString(testSecret)
	require.NoError(t, err)

	_, err = codec.Verify(signed)
	assert.ErrorIs(t, err, sec.ErrInvalidSession)
}

/*
TestRefresh_CarriesClaims checks that every refresh keeps the identity and slides the expiry.
*/
func TestRefresh_CarriesClaims(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newCodec(t, clock)

	session, err := codec.Issue(sampleUser())
	require.NoError(t, err)

	for range 3 {
		clock.Advance(20 * 24 * time.Hour)

		session, err = codec.Refresh(session.Token)
		require.NoError(t, err)
		assert.Equal(t, clock.now.Add(testTTL), session.ExpiresAt)

		claims, err := codec.Verify(session.Token)
		require.NoError(t, err)
		assert.Equal(t, sampleUser(), claims.User())
	}
}

func TestRefresh_ExpiredToken(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newCodec(t, clock)

	session, err := codec.Issue(sampleUser())
	require.NoError(t, err)

	clock.Advance(31 * 24 * time.Hour)
	_, err = codec.Refresh(session.Token)
	assert.ErrorIs(t, err, sec.ErrSessionExpired)
}
