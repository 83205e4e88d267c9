package smtp

import (
	"crypto/tls"
	"sort"
)

// TransactionMode tracks how far a transaction's body has progressed:
// whether any body data has been written to the sink, and whether the last
// chunk written ended on a line boundary. The reply to a failed transfer
// does not depend on it.
type TransactionMode int

const (
	// ModeNone: no DATA has been received yet.
	ModeNone TransactionMode = iota
	// ModeData: the last body chunk written successfully ended on a line
	// boundary.
	ModeData
	// ModeDataPartial: the last chunk handed to the sink did not end on a
	// line boundary; the next chunk must be treated as a continuation.
	ModeDataPartial
)

// Recipient is one accepted forward-path together with the ESMTP
// parameters it arrived with.
type Recipient struct {
	Path SmtpPath
	Params []string
	// PeerCertificate holds the recipient-specific client certificate when
	// per-recipient mutual TLS is in play (e.g. a relay re-verifying a
	// downstream hop); nil in the common case.
	PeerCertificate *tls.Certificate
}

// Transaction holds the in-progress mail envelope and body state for a
// single MAIL..DATA cycle. A Session holds at most one live Transaction;
// RSET, a successful End-of-DATA, or a guard failure all reset it to zero.
type Transaction struct {
	ID   string
	Mail SmtpMail
	// HasMail is set once a guard chain accepts MAIL FROM, independent of
	// whatever path it was given - a null reverse path (MAIL FROM:<>, used
	// for bounces/DSNs) is a perfectly ordinary accepted transaction, so
	// this cannot be inferred from Mail.Path.Kind.
	HasMail    bool
	Recipients []Recipient
	Mode       TransactionMode
	// sinkErr remembers a MailSink write failure until the End-of-DATA
	// frame, per the silent-until-dot policy: the peer is not told a
	// write failed until it stops sending body data.
	sinkErr *DispatchError
	sink    MailSink
}

// Reset clears the transaction back to its zero value, keeping no part of
// the prior mail exchange.
func (t *Transaction) Reset() {
	*t = Transaction{}
}

// HasMailFrom reports whether MAIL has been accepted for this transaction.
func (t *Transaction) HasMailFrom() bool {
	return t.HasMail
}

// Protocol identifies which command dialect (SMTP or LMTP) a Session is
// running, fixed for the lifetime of the TCP/TLS connection.
type Protocol int

const (
	ProtocolSMTP Protocol = iota
	ProtocolLMTP
)

// Session is the per-connection state threaded through the interpreter:
// the negotiated name, the extension set currently advertised, the
// component Store, whether TLS is active, and the current transaction.
type Session struct {
	Protocol    Protocol
	ServerName  string
	PeerName    string // the argument the peer gave to HELO/EHLO/LHLO
	Extensions  ExtensionSet
	Store       *Store
	TLSActive   bool
	PeerAddr    string
	Transaction Transaction
	// PrudenceViolation is set once, before the greeting, when the peer
	// was caught sending bytes before the banner (see prudence.go). Under
	// BannerPolicyReport the session carries on but marks every delivered
	// message with a warning header.
	PrudenceViolation bool
}

// NewSession returns a fresh Session with the given server name, protocol
// and baseline extension set (typically populated by the Tls provider and
// any installed guards/dispatchers before the first command is read).
func NewSession(serverName string, proto Protocol, peerAddr string) *Session {
	return &Session{
		Protocol:   proto,
		ServerName: serverName,
		PeerAddr:   peerAddr,
		Extensions: ExtensionSet{},
		Store:      NewStore(),
	}
}

// HeloVerb returns the greeting verb this session's protocol expects:
// LHLO for LMTP, EHLO for SMTP.
func (s *Session) HeloVerb() CommandVerb {
	if s.Protocol == ProtocolLMTP {
		return VerbLHLO
	}
	return VerbEHLO
}

// HeloLines renders the multi-line EHLO/LHLO greeting: the server name on
// the first line, followed by one line per enabled extension in a
// deterministic (sorted) order.
func (s *Session) HeloLines() []string {
	lines := []string{s.ServerName}
	codes := make([]string, 0, len(s.Extensions))
	for code := range s.Extensions {
		codes = append(codes, string(code))
	}
	sort.Strings(codes)
	for _, code := range codes {
		param := s.Extensions[ExtensionCode(code)]
		if param == "" {
			lines = append(lines, code)
		} else {
			lines = append(lines, code+" "+param)
		}
	}
	return lines
}
