package errors

import "errors"

var (
	ErrNotFound       = errors.New("not found")
	ErrInvalid        = errors.New("invalid")
	ErrInvalidSession = errors.New("invalid session")
	ErrUpstream       = errors.New("upstream failure")
	ErrInternal       = errors.New("internal")
)

// Error attaches a caller-facing detail to one of the sentinel kinds above.
type Error struct {
	kind   error
	detail string
}

func (e *Error) Error() string {
	return e.kind.Error() + ": " + e.detail
}

func (e *Error) Unwrap() error {
	return e.kind
}

func (e *Error) Detail() string {
	return e.detail
}

func Wrap(kind error, detail string) error {
	return &Error{kind: kind, detail: detail}
}

// DetailOf returns the detail of the first *Error in err's chain.
func DetailOf(err error) (string, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e.detail, true
	}
	return "", false
}

func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

func IsInvalid(err error) bool {
	return errors.Is(err, ErrInvalid)
}
