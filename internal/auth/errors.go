package auth

import "errors"

var (
	ErrMissingToken   = errors.New("missing_token")
	ErrInvalidToken   = errors.New("invalid_token")
	ErrMissingSubject = errors.New("missing_subject")
	ErrMissingSecret  = errors.New("missing_jwt_secret")
)
