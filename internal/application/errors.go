package application

import "errors"

// Operation outcomes surfaced to the HTTP layer. ErrInvalidCredentials and
// ErrNotFound each deliberately cover several internal causes (unknown user,
// missing password hash, wrong password; missing record, foreign requester)
// so that callers cannot probe for account or record existence.
var (
	ErrDuplicateEmail     = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrNotFound           = errors.New("not found")
	ErrSendFailed         = errors.New("email dispatch failed")
	ErrSendInProgress     = errors.New("newsletter send already in progress")
)
