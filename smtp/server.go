package smtp

import (
	"context"
	"io"
	"time"
)

// ServerConfig configures a single session run: wire limits, the
// protocol dialect, and the server's advertised name.
type ServerConfig struct {
	Codec    CodecConfig
	Protocol Protocol
	// MaxConsecutiveUnrecognisedCommands bounds how many command lines in
	// a row may fail to parse before the session is aborted - guards
	// against a peer endlessly probing with garbage. A line that parses
	// resets the count, whatever reply the interpreter gives it.
	MaxConsecutiveUnrecognisedCommands int
	// WaitForBannerDelay, when positive, enables the banner-delay
	// prudence check before the greeting is sent; zero disables it.
	WaitForBannerDelay time.Duration
	// BannerPolicy chooses what happens on a banner-delay violation.
	BannerPolicy BannerPolicy
}

// Components bundles the pluggable, composed collaborators a session
// needs, typically built once per listener (daemon/smtpd builds its guard
// and dispatch chains directly with ComposeGuards and its dispatcher
// constructors).
type Components struct {
	Guard       MailGuard
	Dispatch    MailDispatch
	Interpreter Interpreter
	Setup       SetupStep
	// Observer, if set, is told about every command received and reply
	// sent. It exists so a metrics collaborator can watch a session
	// without the core depending on any particular metrics library; nil
	// disables observation entirely.
	Observer Observer
}

// Observer receives verb/reply counts as a session progresses. A nil
// Observer is never called; implementations are expected to be cheap and
// non-blocking (e.g. incrementing an in-memory counter).
type Observer interface {
	ObserveCommand(verb string)
	ObserveReply(code int)
}

// RunSession drives one connection end to end: it sends the greeting,
// then alternates between reading a command line and interpreting it
// until QUIT, an I/O error, or too many unrecognised commands in a row.
// It never returns an error for a clean peer-initiated close; it returns
// non-nil only when the connection was lost or a read limit was
// exceeded.
func RunSession(ctx context.Context, codec *Codec, sess *Session, cfg ServerConfig, comp Components) error {
	baseExtensions(sess, codec.SupportsTLS())
	if comp.Setup != nil {
		comp.Setup.Setup(ctx, sess)
	}
	interp := comp.Interpreter
	if interp == nil {
		interp = NewStateMachine(comp.Guard, comp.Dispatch)
	}

	if violated, perr := checkBannerPrudence(codec, cfg.WaitForBannerDelay); perr != nil {
		return perr
	} else if violated {
		if cfg.BannerPolicy == BannerPolicyStrict {
			_ = codec.WriteReply(Reply{Kind: KindServiceNotAvailable, Code: 554, Lines: []string{"Talking out of turn"}})
			return nil
		}
		sess.PrudenceViolation = true
	}

	if err := codec.WriteReply(NewReply(KindServiceReady, sess.ServerName)); err != nil {
		return err
	}

	unrecognised := 0
	for {
		line, err := codec.ReadCommandLine()
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}

		cmd, perr := ParseCommand(line)
		if perr != nil {
			unrecognised++
			if unrecognised > cfg.MaxConsecutiveUnrecognisedCommands {
				reply := Reply{Kind: KindCommandSyntaxFailure, Code: 554, Lines: []string{"Too many unrecognised commands"}}
				observeReply(comp.Observer, reply)
				_ = codec.WriteReply(reply)
				return nil
			}
			reply := NewReply(KindCommandSyntaxFailure)
			if _, ok := perr.(*FailedError); ok {
				reply = NewReply(KindCommandSequenceFailure)
			}
			observeReply(comp.Observer, reply)
			if err := codec.WriteReply(reply); err != nil {
				return err
			}
			continue
		}
		unrecognised = 0
		observeCommand(comp.Observer, cmd.Verb.String())

		reply, terminate := interp.Interpret(ctx, sess, cmd, codec)
		if reply.Lines != nil {
			observeReply(comp.Observer, reply)
			if err := codec.WriteReply(reply); err != nil {
				return err
			}
		}
		if terminate {
			return nil
		}

		if cmd.Verb == VerbDATA && reply.Kind == KindStartMailInput {
			bodyReply, berr := TransferBody(sess, codec)
			if berr != nil {
				return berr
			}
			// Each line of the end-of-data reply goes out as a reply of its
			// own: one per recipient for LMTP, and a single one otherwise.
			for _, line := range bodyReply.Lines {
				r := Reply{Kind: bodyReply.Kind, Code: bodyReply.Code, Lines: []string{line}}
				observeReply(comp.Observer, r)
				if err := codec.WriteReply(r); err != nil {
					return err
				}
			}
		}
	}
}

func observeCommand(o Observer, verb string) {
	if o != nil {
		o.ObserveCommand(verb)
	}
}

func observeReply(o Observer, r Reply) {
	if o != nil {
		o.ObserveReply(r.Code)
	}
}
