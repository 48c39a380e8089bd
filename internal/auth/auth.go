// Package auth verifies Google identity tokens and issues the API's own
// session tokens.
package auth

import "errors"

var (
	ErrMissingCredential = errors.New("missing credential")
	ErrInvalidCredential = errors.New("invalid credential")
)
