package smtp

import (
	"fmt"
	"net"
	"strings"

	"golang.org/x/net/idna"
	"golang.org/x/text/unicode/norm"
)

// SmtpHostKind enumerates the forms a host part of a path can take.
type SmtpHostKind int

const (
	HostDomain SmtpHostKind = iota
	HostIPv4
	HostIPv6
	// HostInvalid is a bracketed literal that claims to be IPv4/IPv6 but
	// does not parse as one.
	HostInvalid
	// HostOther is a bracketed literal of the form "[label:literal]" for
	// an address type this grammar does not otherwise recognise.
	HostOther
)

// SmtpHost is one of {Domain, Ipv4, Ipv6, Invalid{label, literal}, Other{label, literal}}.
type SmtpHost struct {
	Kind    SmtpHostKind
	Domain  string // valid only when Kind == HostDomain, IDNA-normalised
	Label   string // the bracket label, e.g. "IPv6", for Invalid/Other
	Literal string // the raw literal text inside the brackets, or the IP text
}

func (h SmtpHost) String() string {
	switch h.Kind {
	case HostDomain:
		return h.Domain
	case HostIPv4:
		return "[" + h.Literal + "]"
	case HostIPv6:
		return "[IPv6:" + h.Literal + "]"
	default:
		return "[" + h.Label + ":" + h.Literal + "]"
	}
}

// parseHost recognises a domain, or a bracketed address literal per
// RFC 5321 section 4.1.3.
func parseHost(s string) (SmtpHost, error) {
	if s == "" {
		return SmtpHost{}, fmt.Errorf("empty host")
	}
	if !strings.HasPrefix(s, "[") {
		norm, err := idna.Lookup.ToUnicode(s)
		if err != nil {
			// Accept the raw label rather than rejecting mail outright;
			// many peers send non-conformant EHLO arguments in practice.
			norm = s
		}
		return SmtpHost{Kind: HostDomain, Domain: norm}, nil
	}
	if !strings.HasSuffix(s, "]") {
		return SmtpHost{}, fmt.Errorf("unterminated address literal")
	}
	inner := s[1 : len(s)-1]
	if strings.HasPrefix(strings.ToUpper(inner), "IPV6:") {
		lit := inner[len("IPv6:"):]
		if ip := net.ParseIP(lit); ip != nil && ip.To4() == nil {
			return SmtpHost{Kind: HostIPv6, Literal: lit}, nil
		}
		return SmtpHost{Kind: HostInvalid, Label: "IPv6", Literal: lit}, nil
	}
	if ip := net.ParseIP(inner); ip != nil && ip.To4() != nil {
		return SmtpHost{Kind: HostIPv4, Literal: inner}, nil
	}
	if colon := strings.IndexByte(inner, ':'); colon > 0 {
		return SmtpHost{Kind: HostOther, Label: inner[:colon], Literal: inner[colon+1:]}, nil
	}
	return SmtpHost{Kind: HostInvalid, Label: "", Literal: inner}, nil
}

// SmtpPathKind enumerates the three shapes of a reverse-path/forward-path.
type SmtpPathKind int

const (
	PathMailbox SmtpPathKind = iota
	PathPostmaster
	PathNull
)

// SmtpPath is one of {Mailbox{local, host, relays}, Postmaster, Null}.
type SmtpPath struct {
	Kind   SmtpPathKind
	Local  string
	Host   SmtpHost
	Relays []string // source-route domains from an "@a,@b:user@host" path
}

func (p SmtpPath) String() string {
	switch p.Kind {
	case PathNull:
		return ""
	case PathPostmaster:
		return "Postmaster"
	default:
		return p.Local + "@" + p.Host.String()
	}
}

// NullPath returns the SmtpPath used by "MAIL FROM:<>".
func NullPath() SmtpPath { return SmtpPath{Kind: PathNull} }

// ParsePath parses the bracket-stripped content of a reverse-path or
// forward-path, e.g. "user@example.com", "<>"'s inner empty string, or
// "Postmaster".
func ParsePath(raw string) (SmtpPath, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return NullPath(), nil
	}
	if strings.EqualFold(raw, "postmaster") {
		return SmtpPath{Kind: PathPostmaster}, nil
	}
	// Strip source-route prefix "@a,@b:" per RFC 5321 section 4.1.2 (obsolete
	// but still sent by some legacy peers).
	var relays []string
	if raw[0] == '@' {
		colon := strings.IndexByte(raw, ':')
		if colon < 0 {
			return SmtpPath{}, fmt.Errorf("malformed source route")
		}
		for _, hop := range strings.Split(raw[:colon], ",") {
			relays = append(relays, strings.TrimPrefix(hop, "@"))
		}
		raw = raw[colon+1:]
	}
	at := strings.LastIndexByte(raw, '@')
	if at < 0 {
		return SmtpPath{}, fmt.Errorf("missing at-sign in mailbox path")
	}
	local := norm.NFC.String(raw[:at])
	host, err := parseHost(raw[at+1:])
	if err != nil {
		return SmtpPath{}, fmt.Errorf("malformed host in path: %w", err)
	}
	return SmtpPath{Kind: PathMailbox, Local: local, Host: host, Relays: relays}, nil
}

// SmtpMailVerb distinguishes the RFC 821 mail-sending verbs. Only MAIL
// survives in modern SMTP, but the grammar still recognises the rest so
// that unsupported-but-parseable mail can be met with a clean 502
// instead of a 500 syntax failure.
type SmtpMailVerb int

const (
	MailVerbMAIL SmtpMailVerb = iota
	MailVerbSEND
	MailVerbSAML
	MailVerbSOML
)

// SmtpMail is one of {MAIL|SEND|SAML|SOML} over a path plus a list of
// ESMTP parameter tokens (e.g. "BODY=8BITMIME", "SIZE=12345").
type SmtpMail struct {
	Verb   SmtpMailVerb
	Path   SmtpPath
	Params []string
}

// Param looks up an ESMTP parameter of the form KEY=VALUE (case
// insensitive key) and returns its value.
func (m SmtpMail) Param(key string) (string, bool) {
	for _, p := range m.Params {
		if kv := strings.SplitN(p, "=", 2); len(kv) == 2 && strings.EqualFold(kv[0], key) {
			return kv[1], true
		} else if len(kv) == 1 && strings.EqualFold(kv[0], key) {
			return "", true
		}
	}
	return "", false
}

// splitParams splits the ESMTP parameter tail of MAIL FROM/RCPT TO on
// whitespace, dropping empty tokens produced by repeated spaces.
func splitParams(tail string) []string {
	fields := strings.Fields(tail)
	if len(fields) == 0 {
		return nil
	}
	return fields
}
