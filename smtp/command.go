package smtp

import (
	"strings"
	"unicode"
)

// CommandVerb is the closed enumeration of SMTP/ESMTP/LMTP verbs this
// grammar recognises.
type CommandVerb int

const (
	VerbHELO CommandVerb = iota
	VerbEHLO
	VerbLHLO
	VerbMAIL
	VerbRCPT
	VerbDATA
	VerbRSET
	VerbNOOP
	VerbQUIT
	VerbSTARTTLS
	VerbVRFY
	VerbEXPN
	VerbHELP
	VerbTURN
	// VerbOther is any syntactically well-formed verb this grammar does
	// not otherwise know, e.g. a private extension. It always fails with
	// KindCommandNotImplemented rather than a syntax error.
	VerbOther
)

func (v CommandVerb) String() string {
	switch v {
	case VerbHELO:
		return "HELO"
	case VerbEHLO:
		return "EHLO"
	case VerbLHLO:
		return "LHLO"
	case VerbMAIL:
		return "MAIL"
	case VerbRCPT:
		return "RCPT"
	case VerbDATA:
		return "DATA"
	case VerbRSET:
		return "RSET"
	case VerbNOOP:
		return "NOOP"
	case VerbQUIT:
		return "QUIT"
	case VerbSTARTTLS:
		return "STARTTLS"
	case VerbVRFY:
		return "VRFY"
	case VerbEXPN:
		return "EXPN"
	case VerbHELP:
		return "HELP"
	case VerbTURN:
		return "TURN"
	default:
		return "OTHER"
	}
}

// Command is the parsed representation of a single command line. Only the
// fields relevant to Verb are populated.
type Command struct {
	Verb      CommandVerb
	Hostname  string   // HELO/EHLO/LHLO argument
	Mail      SmtpMail // MAIL
	Recipient SmtpPath // RCPT forward-path
	RcptParam []string // RCPT ESMTP parameters
	Argument  string    // raw trailing text for NOOP/VRFY/EXPN/HELP/TURN/OTHER
	Label     string    // the literal verb text, populated for VerbOther
}

// verbTable maps the fixed-width leading token of a command line to its
// verb. Longest tokens are not needed since every verb here is a single
// word; MAIL/RCPT carry "FROM:"/"TO:" in their argument instead of the verb
// token, matching the wire grammar "MAIL FROM:<path>".
var verbTable = map[string]CommandVerb{
	"HELO":     VerbHELO,
	"EHLO":     VerbEHLO,
	"LHLO":     VerbLHLO,
	"MAIL":     VerbMAIL,
	"RCPT":     VerbRCPT,
	"DATA":     VerbDATA,
	"RSET":     VerbRSET,
	"NOOP":     VerbNOOP,
	"QUIT":     VerbQUIT,
	"STARTTLS": VerbSTARTTLS,
	"VRFY":     VerbVRFY,
	"EXPN":     VerbEXPN,
	"HELP":     VerbHELP,
	"TURN":     VerbTURN,
}

// ParseCommand interprets one CRLF-stripped command line. It never returns
// ErrIncomplete - by the time a line reaches here the codec has already
// split it on CRLF - only *MismatchError (the line contains a non-ASCII
// byte) or *FailedError (verb recognised, argument malformed). Any other
// leading token that is not a known verb yields a VerbOther command.
func ParseCommand(line string) (Command, error) {
	if !isAscii(line) {
		return Command{}, &MismatchError{Detail: "command contains non-ASCII byte"}
	}
	line = strings.TrimRightFunc(line, unicode.IsSpace)
	token, rest := splitVerbToken(line)
	verb, known := verbTable[strings.ToUpper(token)]
	if !known {
		return Command{Verb: VerbOther, Label: token, Argument: rest}, nil
	}
	switch verb {
	case VerbHELO, VerbEHLO, VerbLHLO:
		return Command{Verb: verb, Hostname: strings.TrimSpace(rest)}, nil
	case VerbMAIL:
		return parseMailCommand(rest)
	case VerbRCPT:
		return parseRcptCommand(rest)
	case VerbDATA, VerbRSET, VerbQUIT:
		if strings.TrimSpace(rest) != "" {
			return Command{}, &FailedError{Detail: verb.String() + " takes no argument"}
		}
		return Command{Verb: verb}, nil
	case VerbSTARTTLS:
		if strings.TrimSpace(rest) != "" {
			return Command{}, &FailedError{Detail: "STARTTLS takes no argument"}
		}
		return Command{Verb: VerbSTARTTLS}, nil
	case VerbNOOP, VerbVRFY, VerbEXPN, VerbHELP, VerbTURN:
		return Command{Verb: verb, Argument: strings.TrimSpace(rest)}, nil
	default:
		return Command{Verb: VerbOther, Label: token, Argument: rest}, nil
	}
}

func isAscii(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}

// splitVerbToken splits line into its first whitespace-delimited token and
// everything after it, with all leading spaces and tabs trimmed, so that
// "MAIL FROM:<a>" yields ("MAIL", "FROM:<a>").
func splitVerbToken(line string) (token, rest string) {
	i := strings.IndexAny(line, " \t")
	if i < 0 {
		return line, ""
	}
	return line[:i], strings.TrimLeft(line[i+1:], " \t")
}

// parseMailCommand parses the argument of MAIL, e.g. "FROM:<a@b> BODY=8BITMIME".
func parseMailCommand(rest string) (Command, error) {
	verbWord, tail, ok := cutColonPrefixedWord(rest)
	if !ok {
		return Command{}, &FailedError{Detail: "MAIL missing FROM/SEND/SAML/SOML"}
	}
	var verb SmtpMailVerb
	switch strings.ToUpper(verbWord) {
	case "FROM":
		verb = MailVerbMAIL
	case "SEND":
		verb = MailVerbSEND
	case "SAML":
		verb = MailVerbSAML
	case "SOML":
		verb = MailVerbSOML
	default:
		return Command{}, &FailedError{Detail: "unrecognised MAIL sub-verb " + verbWord}
	}
	pathText, paramText, err := cutBracketedPath(tail)
	if err != nil {
		return Command{}, err
	}
	path, err := ParsePath(pathText)
	if err != nil {
		return Command{}, &FailedError{Detail: err.Error()}
	}
	return Command{Verb: VerbMAIL, Mail: SmtpMail{Verb: verb, Path: path, Params: splitParams(paramText)}}, nil
}

// parseRcptCommand parses the argument of RCPT, e.g. "TO:<a@b> NOTIFY=SUCCESS".
func parseRcptCommand(rest string) (Command, error) {
	verbWord, tail, ok := cutColonPrefixedWord(rest)
	if !ok || !strings.EqualFold(verbWord, "TO") {
		return Command{}, &FailedError{Detail: "RCPT missing TO"}
	}
	pathText, paramText, err := cutBracketedPath(tail)
	if err != nil {
		return Command{}, err
	}
	path, err := ParsePath(pathText)
	if err != nil {
		return Command{}, &FailedError{Detail: err.Error()}
	}
	return Command{Verb: VerbRCPT, Recipient: path, RcptParam: splitParams(paramText)}, nil
}

// cutColonPrefixedWord splits "WORD:REST" into ("WORD", "REST", true). The
// word may not contain whitespace or a colon.
func cutColonPrefixedWord(s string) (word, rest string, ok bool) {
	colon := strings.IndexByte(s, ':')
	if colon < 0 {
		return "", "", false
	}
	word = s[:colon]
	if word == "" || strings.ContainsAny(word, " \t") {
		return "", "", false
	}
	return word, s[colon+1:], true
}

// cutBracketedPath splits "<path> PARAM1 PARAM2" into ("path", "PARAM1
// PARAM2", nil). A bracketed address literal host, e.g. "<a@[1.2.3.4]>",
// contains no further '>' so the first closing bracket always ends the
// path.
func cutBracketedPath(s string) (path, params string, err error) {
	s = strings.TrimPrefix(s, " ")
	if !strings.HasPrefix(s, "<") {
		return "", "", &FailedError{Detail: "path not enclosed in angle brackets"}
	}
	end := strings.IndexByte(s, '>')
	if end < 0 {
		return "", "", &FailedError{Detail: "unterminated path"}
	}
	return s[1:end], strings.TrimSpace(s[end+1:]), nil
}
