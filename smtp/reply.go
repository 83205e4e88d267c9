package smtp

import (
	"fmt"
	"strconv"
	"strings"
)

/*
ReplyKind is the closed enumeration of semantic outcomes the core can
produce. Each kind carries a default numeric code and a default text;
actions may override the text (e.g. to include a transaction ID or an
extension list). NewReply and MultiReply always use the kind's default
code; a few replies are built as Reply literals with a different code
(HELP's 214, the 554 abuse and too-many-unrecognised-commands replies).
*/
type ReplyKind int

const (
	KindServiceReady ReplyKind = iota // 220, banner
	KindClosing                       // 221, on QUIT
	KindOk                            // 250, generic
	KindOkInfo                        // 250, one-line info (e.g. after RCPT)
	KindOkHeloInfo                    // 250, multi-line EHLO/LHLO greeting + extensions
	KindUserNotLocalForwarded         // 251, carries forward-path
	KindStartMailInput                // 354, triggers DATA mode
	KindServiceNotAvailable           // 421, terminal
	KindMailboxTempUnavailable        // 450
	KindLocalError                    // 451
	KindInsufficientStorage           // 452
	KindCommandSyntaxFailure          // 500
	KindCommandNotImplemented         // 502
	KindCommandSequenceFailure        // 503
	KindParametersNotImplemented      // 555
	KindMailboxNotAvailable           // 550
	KindMailboxNotAllowed             // 553
	KindExceededStorage               // 552
	KindParameterNotAccommodated      // 455
	KindMailboxMoved                  // 551
)

// defaultReply pairs a ReplyKind with its RFC 5321 status code and
// severity-free default text.
var defaultReply = map[ReplyKind]struct {
	Code int
	Text string
}{
	KindServiceReady:             {220, "%s ESMTP ready"},
	KindClosing:                  {221, "%s closing connection"},
	KindOk:                       {250, "OK"},
	KindOkInfo:                   {250, "OK"},
	KindOkHeloInfo:               {250, "%s"},
	KindUserNotLocalForwarded:    {251, "User not local; will forward to %s"},
	KindStartMailInput:           {354, "Start mail input; end with <CRLF>.<CRLF>"},
	KindServiceNotAvailable:      {421, "%s Service not available, closing transmission channel"},
	KindMailboxTempUnavailable:   {450, "Requested mail action not taken: mailbox unavailable"},
	KindLocalError:               {451, "Requested action aborted: local error in processing"},
	KindInsufficientStorage:      {452, "Requested action not taken: insufficient system storage"},
	KindCommandSyntaxFailure:     {500, "Syntax error, command unrecognised"},
	KindCommandNotImplemented:    {502, "Command not implemented"},
	KindCommandSequenceFailure:   {503, "Bad sequence of commands"},
	KindParametersNotImplemented: {555, "MAIL FROM/RCPT TO parameters not recognized or not implemented"},
	KindMailboxNotAvailable:      {550, "Requested action not taken: mailbox unavailable"},
	KindMailboxNotAllowed:        {553, "Requested action not taken: mailbox name not allowed"},
	KindExceededStorage:          {552, "Requested mail action aborted: exceeded storage allocation"},
	KindParameterNotAccommodated: {455, "Server unable to accommodate parameters"},
	KindMailboxMoved:             {551, "User not local; please try %s"},
}

// Reply is a response code plus one or more human-readable lines.
type Reply struct {
	Kind  ReplyKind
	Code  int
	Lines []string
}

// NewReply builds a Reply for kind, formatting the default text template
// with args if it has any verbs, otherwise it is used as-is and args are
// ignored.
func NewReply(kind ReplyKind, args ...interface{}) Reply {
	d, ok := defaultReply[kind]
	if !ok {
		panic(fmt.Sprintf("smtp: unknown reply kind %d", int(kind)))
	}
	text := d.Text
	if strings.Contains(text, "%") && len(args) > 0 {
		text = fmt.Sprintf(text, args...)
	}
	return Reply{Kind: kind, Code: d.Code, Lines: []string{text}}
}

// MultiReply builds a reply whose Lines are rendered as a multi-line
// response, the greeting on the first line followed by one line per
// extension. Used exclusively for EHLO/LHLO's KindOkHeloInfo.
func MultiReply(kind ReplyKind, lines ...string) Reply {
	d := defaultReply[kind]
	if len(lines) == 0 {
		lines = []string{d.Text}
	}
	return Reply{Kind: kind, Code: d.Code, Lines: lines}
}

// Bytes renders the reply in wire format: "NNN-text\r\n" for every line
// but the last, "NNN text\r\n" for the last.
func (r Reply) Bytes() []byte {
	var b strings.Builder
	code := strconv.Itoa(r.Code)
	for i, line := range r.Lines {
		b.WriteString(code)
		if i == len(r.Lines)-1 {
			b.WriteByte(' ')
		} else {
			b.WriteByte('-')
		}
		b.WriteString(line)
		b.WriteString("\r\n")
	}
	return []byte(b.String())
}

// IsPermanentFailure reports whether the reply's code is a 5xx class.
func (r Reply) IsPermanentFailure() bool { return r.Code >= 500 && r.Code < 600 }

// IsTransientFailure reports whether the reply's code is a 4xx class.
func (r Reply) IsTransientFailure() bool { return r.Code >= 400 && r.Code < 500 }
