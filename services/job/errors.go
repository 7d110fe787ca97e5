package job

import (
	"errors"
	"fmt"
)

// Sentinel failures of the lifecycle paths.
var (
	ErrJobNotFound     = errors.New("job not found")
	ErrUnauthorized    = errors.New("caller does not own this side of the job")
	ErrOTPMismatch     = errors.New("otp verification failed")
	ErrDuplicateReview = errors.New("review already submitted for this job")
)

// ValidationError marks a user-visible precondition failure; handlers map
// it to a 400 with the message verbatim.
type ValidationError struct {
	msg string
}

func (e *ValidationError) Error() string { return e.msg }

// Validationf builds a ValidationError with a formatted message.
func Validationf(format string, args ...interface{}) error {
	return &ValidationError{msg: fmt.Sprintf(format, args...)}
}

// IsValidation reports whether err is a user-visible validation failure.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
