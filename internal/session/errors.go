package session

import "errors"

var (
	// ErrInvalidTransition is returned when an action arrives in a phase
	// that does not accept it. The phase stays put.
	ErrInvalidTransition = errors.New("action not valid in current phase")
	// ErrNoActiveQuiz is returned when a student path is taken before a
	// quiz has been generated.
	ErrNoActiveQuiz = errors.New("no active quiz")
	// ErrEmptyName rejects starting a quiz without a student name.
	ErrEmptyName = errors.New("student name must not be empty")
	// ErrConfirmationRequired guards the irreversible "new quiz" action.
	ErrConfirmationRequired = errors.New("new quiz requires explicit confirmation")
	// ErrStaleAnalysis marks a generation result that arrived after the
	// session moved on; it is ignored rather than applied.
	ErrStaleAnalysis = errors.New("analysis finished after the session moved on")
	// ErrUnknownQuestion rejects an answer for a question id not present
	// in the current instance.
	ErrUnknownQuestion = errors.New("unknown question id")
	// ErrInvalidOption rejects an out-of-range option index.
	ErrInvalidOption = errors.New("option index out of range")
)
