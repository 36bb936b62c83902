package teams

import "fmt"

// ErrKind is a closed enumeration of the error kinds the core surfaces to
// callers and, ultimately, to the model as tool-result text of the form
// "Error: <kind>: <detail>".
type ErrKind string

const (
	ErrRecipientNotFound ErrKind = "RecipientNotFound"
	ErrTeamNotFound      ErrKind = "TeamNotFound"
	ErrAlreadyExists     ErrKind = "AlreadyExists"
	ErrTaskNotFound      ErrKind = "TaskNotFound"
	ErrInvalidInput      ErrKind = "InvalidInput"
	ErrUnknownHandle     ErrKind = "UnknownHandle"
)

// CoreError pairs a closed error kind with a human-readable detail.
type CoreError struct {
	Kind   ErrKind
	Detail string
}

func (e *CoreError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Detail)
}

func newErr(kind ErrKind, format string, args ...any) *CoreError {
	return &CoreError{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// KindOf extracts the ErrKind from err, or "" if err is not a *CoreError.
func KindOf(err error) ErrKind {
	if ce, ok := err.(*CoreError); ok {
		return ce.Kind
	}
	return ""
}
