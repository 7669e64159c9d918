// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package uuid_test

import (
	"testing"

	googleuuid "github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/marketplace/pkg/uuid"
)

func TestNew_IsVersion7(t *testing.T) {
	first := uuid.New()
	second := uuid.New()

	parsed, err := googleuuid.Parse(first)
	require.NoError(t, err)
	assert.Equal(t, googleuuid.Version(7), parsed.Version())
	assert.NotEqual(t, first, second)
}

func TestCanonical(t *testing.T) {
	id, ok := uuid.Canonical("0192F1C4-7D2A-7000-8000-000000000001")
	assert.True(t, ok)
	assert.Equal(t, "0192f1c4-7d2a-7000-8000-000000000001", id)

	_, ok = uuid.Canonical("not-a-uuid")
	assert.False(t, ok)
}
