package smtp

import "testing"

func TestParseCommandSimpleVerbs(t *testing.T) {
	cases := []struct {
		line string
		verb CommandVerb
	}{
		{"HELO mail.example.com", VerbHELO},
		{"EHLO mail.example.com", VerbEHLO},
		{"LHLO mail.example.com", VerbLHLO},
		{"DATA", VerbDATA},
		{"RSET", VerbRSET},
		{"QUIT", VerbQUIT},
		{"NOOP", VerbNOOP},
		{"noop", VerbNOOP},
		{"STARTTLS", VerbSTARTTLS},
		{"VRFY bob", VerbVRFY},
		{"HELP", VerbHELP},
	}
	for _, c := range cases {
		cmd, err := ParseCommand(c.line)
		if err != nil {
			t.Fatalf("%q: unexpected error: %v", c.line, err)
		}
		if cmd.Verb != c.verb {
			t.Fatalf("%q: got verb %v, want %v", c.line, cmd.Verb, c.verb)
		}
	}
}

func TestParseCommandHeloCapturesHostname(t *testing.T) {
	cmd, err := ParseCommand("EHLO mail.example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Hostname != "mail.example.com" {
		t.Fatalf("%+v", cmd)
	}
}

func TestParseCommandMail(t *testing.T) {
	cmd, err := ParseCommand("MAIL FROM:<bob@example.com> BODY=8BITMIME SIZE=100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Verb != VerbMAIL {
		t.Fatalf("%+v", cmd)
	}
	if cmd.Mail.Path.Local != "bob" || cmd.Mail.Path.Host.Domain != "example.com" {
		t.Fatalf("%+v", cmd.Mail.Path)
	}
	if len(cmd.Mail.Params) != 2 {
		t.Fatalf("%+v", cmd.Mail.Params)
	}
}

func TestParseCommandMailNullSender(t *testing.T) {
	cmd, err := ParseCommand("MAIL FROM:<>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Mail.Path.Kind != PathNull {
		t.Fatalf("%+v", cmd.Mail.Path)
	}
}

func TestParseCommandRcpt(t *testing.T) {
	cmd, err := ParseCommand("RCPT TO:<alice@example.com>")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Verb != VerbRCPT || cmd.Recipient.Local != "alice" {
		t.Fatalf("%+v", cmd)
	}
}

func TestParseCommandRcptMissingTo(t *testing.T) {
	if _, err := ParseCommand("RCPT <alice@example.com>"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestParseCommandMailMissingAngleBrackets(t *testing.T) {
	if _, err := ParseCommand("MAIL FROM:bob@example.com"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestParseCommandUnknownVerb(t *testing.T) {
	cmd, err := ParseCommand("BDAT 100")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cmd.Verb != VerbOther || cmd.Label != "BDAT" {
		t.Fatalf("%+v", cmd)
	}
}

func TestParseCommandNonAsciiRejected(t *testing.T) {
	if _, err := ParseCommand("EHLO \xffexample.com"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestParseCommandDataRejectsArgument(t *testing.T) {
	if _, err := ParseCommand("DATA now"); err == nil {
		t.Fatal("expected an error")
	}
}
