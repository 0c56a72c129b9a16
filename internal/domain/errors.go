package domain

import "errors"

var (
	ErrInvalidInput        = errors.New("invalid input")
	ErrPortalNotFound      = errors.New("portal not found")
	ErrUpstream            = errors.New("upstream read failed")
	ErrInvalidFilterConfig = errors.New("invalid filter configuration")
	ErrFeedUnauthorized    = errors.New("feed token mismatch")
)
