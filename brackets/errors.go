package brackets

import "errors"

// Engine errors. All are local validation failures surfaced synchronously;
// nothing in this package performs I/O or retries.
var (
	ErrInsufficientParticipants = errors.New("not enough participants for this format")
	ErrUnsupportedFormat        = errors.New("unsupported bracket format")
	ErrNodeNotReady             = errors.New("bracket node is not awaiting a result")
	ErrInvalidResult            = errors.New("invalid match result")
	ErrBracketAlreadyCompleted  = errors.New("bracket is already completed")
	// ErrCascadingCorrection rejects corrections whose downstream matches were
	// already played against the previously advancing participant. The
	// organizer must resolve downstream matches explicitly instead of the
	// engine re-simulating the bracket.
	ErrCascadingCorrection = errors.New("correction would cascade into already played matches")
)
