// errors/access_errors.go
package errors

import "errors"

var (
	ErrInvalidTuple = errors.New("invalid relation tuple")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
)
