// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

package pointer_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/marketplace/pkg/pointer"
)

func TestPointer(t *testing.T) {
	assert.Equal(t, "Valletta", *pointer.To("Valletta"))
	assert.Equal(t, "", pointer.Val[string](nil))
	assert.Equal(t, 3, pointer.Val(pointer.To(3)))

	assert.Nil(t, pointer.NonBlank("   "))
	assert.Equal(t, "Sliema", *pointer.NonBlank("  Sliema "))
}
