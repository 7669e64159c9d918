// Copyright (c) 2026 Marketplace. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package request provides utilities for extracting data from HTTP requests.

It abstracts away common body decoding and credential extraction patterns,
ensuring consistent error handling and type safety.
*/
package requestutil

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/taibuivan/marketplace/internal/platform/apperr"
	"github.com/taibuivan/marketplace/internal/platform/constants"
	"github.com/taibuivan/marketplace/internal/platform/ctxutil"
	"github.com/taibuivan/marketplace/internal/platform/sec"
	"github.com/taibuivan/marketplace/internal/platform/validate"
)

// MaxBodyBytes caps JSON request bodies.
const MaxBodyBytes = 1 << 20

/*
DecodeJSON reads the request body and decodes it into the target structure.

Parameters:
  - writer: http.ResponseWriter (needed by http.MaxBytesReader)
  - request: *http.Request
  - target: any (Pointer to the destination struct)

Returns:
  - error: validate.ErrInvalidJSON if decoding fails, otherwise nil
*/
func DecodeJSON(writer http.ResponseWriter, request *http.Request, target any) error {
	body := http.MaxBytesReader(writer, request.Body, MaxBodyBytes)
	if err := json.NewDecoder(body).Decode(target); err != nil {
		return validate.ErrInvalidJSON
	}
	return nil
}

/*
SessionToken returns the raw session token carried by the request.

The Authorization header wins over the cookie so API clients can act on
behalf of a different session than the browser holds.

Returns:
  - string: the token, or "" when none is present
  - error: apperr.Unauthorized when the Authorization header is malformed
*/
func SessionToken(request *http.Request) (string, error) {
	if header := request.Header.Get(constants.HeaderAuthorization); header != "" {
		scheme, token, found := strings.Cut(header, " ")
		if !found || !strings.EqualFold(scheme, constants.AuthorizationSchemes) || strings.TrimSpace(token) == "" {
			return "", apperr.Unauthorized("Invalid authorization header format")
		}
		return strings.TrimSpace(token), nil
	}

	if cookie, err := request.Cookie(constants.SessionCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	return "", nil
}

/*
Session extracts the verified session claims from the request context.

Returns nil if the request is anonymous.
*/
func Session(request *http.Request) *sec.SessionClaims {
	return ctxutil.GetSession(request.Context())
}

/*
RequiredSession ensures the request is authenticated and returns the session claims.

Returns:
  - *sec.SessionClaims: The verified claims
  - error: apperr.Unauthorized if the request is anonymous
*/
func RequiredSession(request *http.Request) (*sec.SessionClaims, error) {

	// Get session claims
	claims := ctxutil.GetSession(request.Context())

	// If the user is not authenticated, return an error
	if claims == nil {
		return nil, apperr.Unauthorized("Authentication required")
	}

	return claims, nil
}
