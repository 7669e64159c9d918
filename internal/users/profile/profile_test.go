// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package profile_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/marketplace/internal/users/profile"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@x.com", profile.NormalizeEmail("A@X.com"))
	assert.Equal(t, "ana@example.com", profile.NormalizeEmail("  Ana@Example.COM \n"))
}

func TestNormalizeName(t *testing.T) {
	decomposed := "Jose\u0301" // "e" followed by a combining acute accent
	composed := "Jos\u00e9"

	assert.Equal(t, composed, profile.NormalizeName(decomposed))
	assert.Equal(t, "Mary Ann", profile.NormalizeName("  Mary   Ann "))
}

func TestJoinName(t *testing.T) {
	assert.Equal(t, "Ana Lopez", profile.JoinName(" Ana ", "Lopez"))
	assert.Equal(t, "Ana", profile.JoinName("Ana", ""))
}

func TestSplitName(t *testing.T) {
	tests := []struct {
		full      string
		wantFirst string
		wantLast  string
	}{
		{"Ana Lopez", "Ana", "Lopez"},
		{"Ana Maria de la Cruz", "Ana", "Maria de la Cruz"},
		{"Cher", "Cher", ""},
		{"", "", ""},
	}

	for _, tt := range tests {
		first, last := profile.SplitName(tt.full)
		assert.Equal(t, tt.wantFirst, first, tt.full)
		assert.Equal(t, tt.wantLast, last, tt.full)
	}
}

func TestNormalizeOptional(t *testing.T) {
	assert.Nil(t, profile.NormalizeOptional(" "))
	assert.Equal(t, "Gozo", *profile.NormalizeOptional(" Gozo"))
}
