package match

import "errors"

var (
	// validation
	ErrInvalidTarget = errors.New("invalid target user id")
	ErrSelfTarget    = errors.New("cannot act on yourself")

	// not found
	ErrTargetNotFound = errors.New("target user not found")
	ErrActorNotFound  = errors.New("acting user not found")

	// conflict
	ErrAlreadyLiked = errors.New("target already liked")
)

// IsClientError reports whether err is a business-rule failure rather than an infrastructure one.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidTarget) ||
		errors.Is(err, ErrSelfTarget) ||
		errors.Is(err, ErrTargetNotFound) ||
		errors.Is(err, ErrActorNotFound) ||
		errors.Is(err, ErrAlreadyLiked)
}
