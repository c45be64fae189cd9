package datespec

import (
	"errors"
	"fmt"
)

// Rejection kinds. A *RejectError always wraps exactly one of these.
var (
	ErrFormat       = errors.New("date must have the form \"<day> <month> <year>\"")
	ErrInvalidDay   = errors.New("invalid day of month")
	ErrInvalidMonth = errors.New("unknown month name")
	ErrInvalidYear  = errors.New("invalid year")
	ErrFutureDate   = errors.New("date is in the future")
)

// messages are shown to the user when re-prompting.
var messages = map[error]string{
	ErrFormat:       `Введите дату в формате "2 августа 2025".`,
	ErrInvalidDay:   "Неверный день месяца.",
	ErrInvalidMonth: "Неверное название месяца.",
	ErrInvalidYear:  "Неверный год.",
	ErrFutureDate:   "Дата не может быть в будущем.",
}

// RejectError reports why an input was not accepted.
type RejectError struct {
	Kind  error
	Input string
}

func (e *RejectError) Error() string {
	return fmt.Sprintf("%q: %v", e.Input, e.Kind)
}

func (e *RejectError) Unwrap() error {
	return e.Kind
}

// Message returns the human-readable rejection text for err, or err.Error() for
// anything that is not a rejection.
func Message(err error) string {
	var rej *RejectError
	if errors.As(err, &rej) {
		if msg, ok := messages[rej.Kind]; ok {
			return msg
		}
	}
	return err.Error()
}

func reject(kind error, input string) error {
	return &RejectError{Kind: kind, Input: input}
}
