package smtp

import "context"

// stage is the position of a conversation relative to the commands it has
// already accepted; it gates which verbs are valid next, mirroring RFC
// 5321 section 4.3's state table.
type stage int

const (
	stageGreeting stage = iota
	stageAfterGreeting
	stageHello
	stageMailFrom
	stageRecipient
	stageQuit
)

// Interpreter runs one command against a Session, producing the reply to
// send and whether the session should terminate afterward. The default
// implementation is the one NewStateMachine returns; callers needing
// custom verb handling (an extra extension, a private verb) wrap or
// replace it entirely by setting Components.Interpreter.
type Interpreter interface {
	Interpret(ctx context.Context, sess *Session, cmd Command, codec *Codec) (reply Reply, terminate bool)
}

func (stateMachine) PrependsOnAdd() bool { return false }

// stateMachine is the default Interpreter: the RFC 5321/2033/3207 verb
// grammar translated into direct Go control flow, in the same spirit as a
// hand-written recursive-descent parser rather than a table-driven one -
// every verb's sequencing rule and side effect is visible at its call
// site.
type stateMachine struct {
	guard    MailGuard
	dispatch MailDispatch
}

// NewStateMachine returns the default Interpreter, wired to guard and
// dispatch (normally the composed chains passed in Components; RunSession
// calls it when Components.Interpreter is nil).
func NewStateMachine(guard MailGuard, dispatch MailDispatch) Interpreter {
	return stateMachine{guard: guard, dispatch: dispatch}
}

func (m stateMachine) Interpret(ctx context.Context, sess *Session, cmd Command, codec *Codec) (Reply, bool) {
	st := sessionStage(sess)
	switch cmd.Verb {
	case VerbHELO, VerbEHLO:
		if err := requireGreetingVerb(sess, cmd.Verb); err != nil {
			return NewReply(KindCommandNotImplemented), false
		}
		return m.handleHelo(sess, cmd, cmd.Verb == VerbEHLO), false
	case VerbLHLO:
		if err := requireGreetingVerb(sess, cmd.Verb); err != nil {
			return NewReply(KindCommandNotImplemented), false
		}
		return m.handleHelo(sess, cmd, true), false
	// A 421 reply is terminal: the session ends after it is sent.
	case VerbSTARTTLS:
		reply := m.handleStartTLS(sess, codec)
		return reply, reply.Kind == KindServiceNotAvailable
	case VerbMAIL:
		if st < stageHello {
			return NewReply(KindCommandSequenceFailure), false
		}
		reply := m.handleMail(ctx, sess, cmd)
		return reply, reply.Kind == KindServiceNotAvailable
	case VerbRCPT:
		if st != stageMailFrom && st != stageRecipient {
			return NewReply(KindCommandSequenceFailure), false
		}
		reply := m.handleRcpt(ctx, sess, cmd)
		return reply, reply.Kind == KindServiceNotAvailable
	case VerbDATA:
		if st != stageRecipient {
			return NewReply(KindCommandSequenceFailure), false
		}
		return m.handleData(ctx, sess), false
	case VerbRSET:
		sess.Transaction.Reset()
		return NewReply(KindOk), false
	case VerbNOOP:
		return NewReply(KindOk), false
	case VerbVRFY, VerbEXPN:
		return NewReply(KindCommandNotImplemented), false
	case VerbHELP:
		return Reply{Kind: KindOk, Code: 214, Lines: []string{"see RFC 5321"}}, false
	case VerbTURN:
		return NewReply(KindCommandNotImplemented), false
	case VerbQUIT:
		return NewReply(KindClosing, sess.ServerName), true
	case VerbOther:
		return NewReply(KindCommandNotImplemented), false
	default:
		return NewReply(KindCommandSyntaxFailure), false
	}
}

// sessionStage derives the conversation stage from Session state rather
// than tracking it redundantly: PeerName empty means pre-HELO, a
// transaction with recipients means past RCPT, etc.
func sessionStage(sess *Session) stage {
	switch {
	case sess.PeerName == "":
		return stageAfterGreeting
	case !sess.Transaction.HasMailFrom():
		return stageHello
	case len(sess.Transaction.Recipients) == 0:
		return stageMailFrom
	default:
		return stageRecipient
	}
}

func (m stateMachine) handleHelo(sess *Session, cmd Command, extended bool) Reply {
	sess.PeerName = cmd.Hostname
	sess.Transaction.Reset()
	if !extended {
		return NewReply(KindOk, sess.ServerName)
	}
	return MultiReply(KindOkHeloInfo, sess.HeloLines()...)
}

func (m stateMachine) handleStartTLS(sess *Session, codec *Codec) Reply {
	if !codec.SupportsTLS() || sess.TLSActive {
		return NewReply(KindCommandNotImplemented)
	}
	if err := codec.WriteReply(NewReply(KindServiceReady, "Ready to start TLS")); err != nil {
		return Reply{}
	}
	state, err := codec.UpgradeTLS()
	if err != nil {
		return NewReply(KindServiceNotAvailable, sess.ServerName)
	}
	sess.TLSActive = true
	_ = state
	// RFC 3207 section 4.2: all prior negotiation is discarded, the peer
	// must re-issue EHLO/LHLO before MAIL is valid again.
	sess.PeerName = ""
	sess.Transaction.Reset()
	sess.Extensions.Disable(ExtSTARTTLS)
	return Reply{} // reply already sent before the handshake; nothing more to send
}

func (m stateMachine) handleMail(ctx context.Context, sess *Session, cmd Command) Reply {
	sess.Transaction.Reset()
	sess.Transaction.Mail = cmd.Mail
	out := m.guard.StartMail(ctx, &sess.Transaction)
	if !out.Accepted {
		sess.Transaction.Reset()
		return startMailFailureReply(out)
	}
	// The transaction ID is minted here, on acceptance of MAIL FROM, not at
	// DATA: it identifies the transaction for the whole of its lifetime,
	// including any guard/dispatch decisions made before a body ever
	// arrives.
	sess.Transaction.HasMail = true
	sess.Transaction.ID = newTransactionID()
	return NewReply(KindOkInfo)
}

// handleData opens the mail body sink via the dispatch chain before ever
// promising the peer a "354 start input" - a guard/dispatch refusal must be
// reported directly as the reply to DATA, with no body transfer requested,
// rather than accepting the body and only failing afterward.
func (m stateMachine) handleData(ctx context.Context, sess *Session) Reply {
	tx := &sess.Transaction
	sink, dispatchErr := m.dispatch.OpenMailBody(ctx, tx)
	if dispatchErr != nil {
		tx.Reset()
		return dispatchFailureReply(dispatchErr)
	}
	tx.sink = sink
	return NewReply(KindStartMailInput)
}

func (m stateMachine) handleRcpt(ctx context.Context, sess *Session, cmd Command) Reply {
	out := m.guard.AddRecipient(ctx, &sess.Transaction, cmd.Recipient, cmd.RcptParam)
	switch out.Kind {
	case AddRecipientAccepted:
		sess.Transaction.Recipients = append(sess.Transaction.Recipients, Recipient{Path: cmd.Recipient, Params: cmd.RcptParam})
		return NewReply(KindOkInfo)
	case AddRecipientAcceptedNewPath:
		sess.Transaction.Recipients = append(sess.Transaction.Recipients, Recipient{Path: out.NewPath, Params: cmd.RcptParam})
		return NewReply(KindUserNotLocalForwarded, out.NewPath.String())
	case AddRecipientInconclusive:
		// No guard had an opinion and the chain default-accepts; treated
		// the same as Accepted.
		sess.Transaction.Recipients = append(sess.Transaction.Recipients, Recipient{Path: cmd.Recipient, Params: cmd.RcptParam})
		return NewReply(KindOkInfo)
	default:
		return addRecipientFailureReply(out)
	}
}

func startMailFailureReply(out StartMailOutcome) Reply {
	switch out.Failure {
	case StartMailInvalidSender:
		return NewReply(KindMailboxNotAllowed)
	case StartMailStorageExhaustedPermanently:
		return NewReply(KindExceededStorage)
	case StartMailStorageExhaustedTemporarily, StartMailFailedTemporarily:
		return NewReply(KindLocalError)
	case StartMailInvalidParameter, StartMailInvalidParameterValue:
		return NewReply(KindParametersNotImplemented)
	case StartMailTerminateSession:
		return NewReply(KindServiceNotAvailable, "")
	default:
		return NewReply(KindMailboxNotAvailable)
	}
}

func addRecipientFailureReply(out AddRecipientOutcome) Reply {
	switch out.Failure {
	case AddRecipientMoved:
		return NewReply(KindMailboxMoved, out.NewPath.String())
	case AddRecipientRejectedTemporarily, AddRecipientStorageExhaustedTemporarily, AddRecipientFailedTemporarily:
		return NewReply(KindMailboxTempUnavailable)
	case AddRecipientStorageExhaustedPermanently:
		return NewReply(KindExceededStorage)
	case AddRecipientInvalidParameter, AddRecipientInvalidParameterValue:
		return NewReply(KindParametersNotImplemented)
	case AddRecipientInvalidRecipient, AddRecipientRejectedPermanently:
		return NewReply(KindMailboxNotAvailable)
	case AddRecipientTerminateSession:
		return NewReply(KindServiceNotAvailable, "")
	default:
		return NewReply(KindMailboxNotAvailable)
	}
}
