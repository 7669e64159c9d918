// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package pointer provides utilities for working with pointers in Go.

Nullable text columns are scanned into *string; these helpers convert between
that shape and the plain strings used by the domain.

Key Functions:
  - To: Creates a pointer from a value literal.
  - Val: Safely dereferences a pointer, returning the zero value if nil.
  - NonBlank: Returns nil for blank strings so they are stored as NULL.
*/
package pointer

import "strings"

// To returns a pointer to the provided value.
func To[T any](v T) *T {
	return &v
}

// Val safely dereferences a pointer.
// If the pointer is nil, it returns the zero value of the underlying type.
func Val[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

// NonBlank returns a pointer to the trimmed value, or nil when it is blank.
func NonBlank(s string) *string {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
