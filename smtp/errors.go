package smtp

import "errors"

// Sentinel errors of the command grammar's outcome taxonomy. They are never
// presented to the peer directly.
var (
	// ErrIncomplete means the parser needs more bytes before it can decide
	// whether the buffer holds a valid command. ParseCommand and the Codec
	// work on whole CRLF-terminated lines and never return it.
	ErrIncomplete = errors.New("smtp: incomplete command")
)

// MismatchError means no grammar rule applied to the input at all - the
// line does not even resemble a known verb. The caller escalates this to
// a syntax failure reply.
type MismatchError struct{ Detail string }

func (e *MismatchError) Error() string { return "smtp: mismatch: " + e.Detail }

// FailedError means a grammar rule matched the verb but the remainder of
// the line failed to parse as a valid argument for it.
type FailedError struct{ Detail string }

func (e *FailedError) Error() string { return "smtp: failed: " + e.Detail }

// SequenceError describes a command invoked out of the ordering the state
// machine expects, e.g. RCPT before MAIL. The default state machine answers
// such commands with a 503 reply and does not return this error.
type SequenceError struct{ Detail string }

func (e *SequenceError) Error() string { return "smtp: out of sequence: " + e.Detail }
