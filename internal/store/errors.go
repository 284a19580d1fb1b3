package store

import "errors"

var (
	ErrNotFound       = errors.New("row not found")
	ErrAccessDenied   = errors.New("access denied")
	ErrDuplicateShare = errors.New("project already shared with this email")
)
