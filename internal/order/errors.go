package order

import "errors"

var (
	ErrOrderNotFound = errors.New("order not found")
	ErrForbidden     = errors.New("not allowed to act on this order")
)

// ValidationError covers malformed or incomplete input; user-correctable.
type ValidationError struct {
	Msg string
}

func (e ValidationError) Error() string { return e.Msg }

// ConflictError marks an illegal state transition, e.g. canceling a shipped
// order or refunding a cash payment.
type ConflictError struct {
	Msg string
}

func (e ConflictError) Error() string { return e.Msg }
