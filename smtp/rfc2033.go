package smtp

import "fmt"

/*
This file isolates the handful of places LMTP (RFC 2033) diverges from
ESMTP: the greeting verb is LHLO instead of EHLO/HELO, and a completed
DATA transfer reports one reply line per recipient instead of one for the
whole message (see queuedReply in body.go). Everything else - the MAIL/
RCPT grammar, STARTTLS, the guard/dispatch chains - is shared as-is,
matching RFC 2033 section 4's description of LMTP as SMTP with these two
substitutions.
*/

// requireGreetingVerb enforces that a session only accepts the greeting
// verb matching its Protocol: LHLO for LMTP, HELO/EHLO for SMTP. A
// mismatched greeting verb is rejected as not implemented rather than a
// syntax error, matching how an unsupported-but-well-formed verb is
// reported elsewhere in this grammar.
func requireGreetingVerb(sess *Session, verb CommandVerb) error {
	if sess.Protocol == ProtocolLMTP && verb != VerbLHLO {
		return fmt.Errorf("smtp: LMTP session requires LHLO, got %s", verb)
	}
	if sess.Protocol == ProtocolSMTP && verb == VerbLHLO {
		return fmt.Errorf("smtp: SMTP session does not accept LHLO")
	}
	return nil
}
