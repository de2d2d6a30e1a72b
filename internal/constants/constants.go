package constants

import "time"

// Context keys
const (
	ContextKeyUserID   = "user_id"
	ContextKeyIdentity = "identity"
)

// Session
const (
	SessionCookieName = "token"
	SessionKeyToken   = "token"
	TokenTTL          = 24 * time.Hour
)

// Validation limits
const (
	MinPasswordLength    = 6
	MaxPasswordBytes     = 72
	MinProjectNameLength = 3
	MaxProjectNameLength = 100
	MaxTaskTitleLength   = 200
)

// Pagination
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
