package services

import (
	"errors"
	"fmt"
)

// Kind classifies a service failure; transports map it onto a status code.
type Kind int

const (
	KindServer Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindResourceLimit
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindUnauthorized:
		return "unauthorized"
	case KindForbidden:
		return "forbidden"
	case KindNotFound:
		return "not_found"
	case KindResourceLimit:
		return "resource_limit_exceeded"
	default:
		return "server"
	}
}

// Error is the only error type the services hand back to callers. Message is safe to
// show to clients; Err carries the underlying cause for logs.
type Error struct {
	Kind    Kind
	Field   string
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

func ValidationError(field, message string) *Error {
	return &Error{Kind: KindValidation, Field: field, Message: message}
}

func Unauthorized(message string) *Error {
	return &Error{Kind: KindUnauthorized, Message: message}
}

func Forbidden(message string) *Error {
	return &Error{Kind: KindForbidden, Message: message}
}

func NotFound(message string) *Error {
	return &Error{Kind: KindNotFound, Message: message}
}

func LimitExceeded(field, message string) *Error {
	return &Error{Kind: KindResourceLimit, Field: field, Message: message}
}

// ServerError hides err from clients behind a generic message.
func ServerError(op string, err error) *Error {
	return &Error{Kind: KindServer, Message: "Server error", Err: fmt.Errorf("%s: %w", op, err)}
}

// Messages shared between the components and their tests.
const (
	MsgFieldsRequired      = "All fields are required"
	MsgDateInPast          = "Schedule date must be in the future"
	MsgInvalidTime         = "Invalid time format. Use HH:mm"
	MsgInvalidDate         = "Invalid date format. Use YYYY-MM-DD"
	MsgMaxParticipants     = "Max participants must be between 1 and 10"
	MsgBelowEnrolled       = "Max participants cannot be lower than current enrollments"
	MsgOverlap             = "Trainer has an overlapping schedule"
	MsgDailyLimit          = "Maximum 5 schedules per day limit exceeded."
	MsgTrainerNotFound     = "Trainer not found"
	MsgScheduleNotFound    = "Class schedule not found"
	MsgScheduleIDRequired  = "Schedule ID is required"
	MsgInvalidScheduleID   = "Invalid schedule ID format"
	MsgNotAvailable        = "Schedule is not available for enrollment"
	MsgNotEnrolled         = "You are not enrolled in this schedule"
	MsgUserNotFound        = "User not found"
	MsgEmailExists         = "Email already exists"
	MsgInvalidCredentials  = "Invalid credentials"
	MsgInvalidAuth         = "Invalid user authentication"
	MsgInsufficientRole    = "You do not have permission to perform this action"
	MsgUploadsDisabled     = "Profile picture uploads are not configured"
)

// AsError converts any error into *Error, treating unknown errors as server failures.
func AsError(err error) *Error {
	var svcErr *Error
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return ServerError("unexpected", err)
}

// IsKind reports whether err is a service error of kind k.
func IsKind(err error, k Kind) bool {
	var svcErr *Error
	return errors.As(err, &svcErr) && svcErr.Kind == k
}
