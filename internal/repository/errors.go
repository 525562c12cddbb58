package repository

import "errors"

// Sentinel errors returned by repository implementations. Uniqueness
// violations come from the database constraints, which are the source of
// truth for email, username and DID uniqueness.
var (
	ErrNotFound       = errors.New("record not found")
	ErrEmailExists    = errors.New("email already registered")
	ErrUsernameExists = errors.New("username already taken")
	ErrDIDExists      = errors.New("did already exists")
	ErrIdentityExists = errors.New("identity already exists for user")
)
