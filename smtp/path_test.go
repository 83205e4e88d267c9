package smtp

import "testing"

func TestParsePathMailbox(t *testing.T) {
	p, err := ParsePath("bob@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Kind != PathMailbox || p.Local != "bob" || p.Host.Kind != HostDomain || p.Host.Domain != "example.com" {
		t.Fatalf("%+v", p)
	}
}

func TestParsePathNull(t *testing.T) {
	for _, raw := range []string{"", "  "} {
		p, err := ParsePath(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if p.Kind != PathNull {
			t.Fatalf("%+v", p)
		}
	}
}

func TestParsePathPostmaster(t *testing.T) {
	p, err := ParsePath("Postmaster")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Kind != PathPostmaster {
		t.Fatalf("%+v", p)
	}
}

func TestParsePathIPv4Literal(t *testing.T) {
	p, err := ParsePath("bob@[192.168.1.1]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Host.Kind != HostIPv4 || p.Host.Literal != "192.168.1.1" {
		t.Fatalf("%+v", p.Host)
	}
}

func TestParsePathIPv6Literal(t *testing.T) {
	p, err := ParsePath("bob@[IPv6:2001:db8::1]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Host.Kind != HostIPv6 || p.Host.Literal != "2001:db8::1" {
		t.Fatalf("%+v", p.Host)
	}
}

func TestParsePathInvalidLiteral(t *testing.T) {
	p, err := ParsePath("bob@[IPv6:not-an-address]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Host.Kind != HostInvalid {
		t.Fatalf("%+v", p.Host)
	}
}

func TestParsePathOtherLiteral(t *testing.T) {
	p, err := ParsePath("bob@[X400:c=US;a= ;p=foo;]")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if p.Host.Kind != HostOther || p.Host.Label != "X400" {
		t.Fatalf("%+v", p.Host)
	}
}

func TestParsePathSourceRoute(t *testing.T) {
	p, err := ParsePath("@hosta,@hostb:bob@example.com")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(p.Relays) != 2 || p.Relays[0] != "hosta" || p.Relays[1] != "hostb" {
		t.Fatalf("%+v", p.Relays)
	}
	if p.Local != "bob" {
		t.Fatalf("%+v", p)
	}
}

func TestParsePathMissingAtSign(t *testing.T) {
	if _, err := ParsePath("not-an-address"); err == nil {
		t.Fatal("expected an error")
	}
}

func TestSmtpMailParam(t *testing.T) {
	m := SmtpMail{Params: []string{"BODY=8BITMIME", "SIZE=12345", "RET"}}
	if v, ok := m.Param("body"); !ok || v != "8BITMIME" {
		t.Fatalf("%q %v", v, ok)
	}
	if v, ok := m.Param("size"); !ok || v != "12345" {
		t.Fatalf("%q %v", v, ok)
	}
	if _, ok := m.Param("ret"); !ok {
		t.Fatal("expected RET to be present with an empty value")
	}
	if _, ok := m.Param("notify"); ok {
		t.Fatal("did not expect NOTIFY to be present")
	}
}
