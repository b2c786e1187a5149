// errors/tuple_errors.go
package errors

import "errors"

var (
	ErrGrantFailed    = errors.New("failed to grant relation tuple")
	ErrRevokeFailed   = errors.New("failed to revoke relation tuple")
	ErrInternalServer = errors.New("internal server error")
)
