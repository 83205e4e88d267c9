package smtp

import "context"

// StartMailFailureKind enumerates the reasons a MailGuard can refuse to
// start a transaction.
type StartMailFailureKind int

const (
	StartMailTerminateSession StartMailFailureKind = iota
	StartMailRejected
	StartMailInvalidSender
	StartMailStorageExhaustedPermanently
	StartMailStorageExhaustedTemporarily
	StartMailFailedTemporarily
	StartMailInvalidParameter
	StartMailInvalidParameterValue
)

// StartMailOutcome is the result of MailGuard.StartMail: either the
// transaction is accepted, or it is refused with a reason.
type StartMailOutcome struct {
	Accepted bool
	Failure  StartMailFailureKind
	Detail   string
}

// AddRecipientFailureKind enumerates the reasons a MailGuard can refuse a
// recipient.
type AddRecipientFailureKind int

const (
	AddRecipientTerminateSession AddRecipientFailureKind = iota
	AddRecipientRejectedPermanently
	AddRecipientRejectedTemporarily
	AddRecipientMoved
	AddRecipientInvalidRecipient
	AddRecipientStorageExhaustedPermanently
	AddRecipientStorageExhaustedTemporarily
	AddRecipientFailedTemporarily
	AddRecipientInvalidParameter
	AddRecipientInvalidParameterValue
)

// AddRecipientOutcome is the result of MailGuard.AddRecipient. Kind
// distinguishes Inconclusive (the guard has no opinion; try the next one
// in the chain), Accepted, AcceptedWithNewPath (the recipient is accepted
// but under a different path, e.g. after alias expansion) and Failed.
type AddRecipientOutcome struct {
	Kind     AddRecipientResultKind
	NewPath  SmtpPath
	Failure  AddRecipientFailureKind
	Detail   string
}

// AddRecipientResultKind is the outcome discriminant for AddRecipientOutcome.
type AddRecipientResultKind int

const (
	AddRecipientInconclusive AddRecipientResultKind = iota
	AddRecipientAccepted
	AddRecipientAcceptedNewPath
	AddRecipientFailed
)

// MailGuard decides whether to accept a transaction and its recipients
// before any mail body is transferred. Guards are composed in a chain:
// the first non-Inconclusive AddRecipient answer wins.
type MailGuard interface {
	StartMail(ctx context.Context, tx *Transaction) StartMailOutcome
	AddRecipient(ctx context.Context, tx *Transaction, path SmtpPath, params []string) AddRecipientOutcome
}

// guardChain composes an ordered list of MailGuards into one: StartMail
// runs every guard and fails on the first refusal; AddRecipient stops at
// the first guard that returns a conclusive (non-Inconclusive) answer.
type guardChain struct {
	guards []MailGuard
}

func (c guardChain) PrependsOnAdd() bool { return false }

func (c guardChain) StartMail(ctx context.Context, tx *Transaction) StartMailOutcome {
	for _, g := range c.guards {
		if out := g.StartMail(ctx, tx); !out.Accepted {
			return out
		}
	}
	return StartMailOutcome{Accepted: true}
}

func (c guardChain) AddRecipient(ctx context.Context, tx *Transaction, path SmtpPath, params []string) AddRecipientOutcome {
	for _, g := range c.guards {
		out := g.AddRecipient(ctx, tx, path, params)
		if out.Kind != AddRecipientInconclusive {
			return out
		}
	}
	// No guard in the chain had an opinion: default-accept, matching the
	// default of admitting mail absent any configured policy.
	return AddRecipientOutcome{Kind: AddRecipientAccepted}
}

// ComposeGuards folds parts into a single MailGuard, in order. An empty
// chain accepts everything.
func ComposeGuards(parts []MailGuard) MailGuard {
	return guardChain{guards: parts}
}
