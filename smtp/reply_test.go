package smtp

import (
	"strings"
	"testing"
)

func TestNewReplyRendersCode(t *testing.T) {
	r := NewReply(KindOk)
	if r.Code != 250 {
		t.Fatalf("%+v", r)
	}
	if string(r.Bytes()) != "250 OK\r\n" {
		t.Fatalf("%q", r.Bytes())
	}
}

func TestNewReplyFormatsArgs(t *testing.T) {
	r := NewReply(KindServiceReady, "mail.example.com")
	if !strings.HasPrefix(string(r.Bytes()), "220 mail.example.com") {
		t.Fatalf("%q", r.Bytes())
	}
}

func TestMultiReplyRendersContinuationLines(t *testing.T) {
	r := MultiReply(KindOkHeloInfo, "mail.example.com", "PIPELINING", "8BITMIME")
	want := "250-mail.example.com\r\n250-PIPELINING\r\n250 8BITMIME\r\n"
	if got := string(r.Bytes()); got != want {
		t.Fatalf("got %q, want %q", got, want)
	}
}

func TestReplyFailureClassification(t *testing.T) {
	if !NewReply(KindMailboxNotAvailable).IsPermanentFailure() {
		t.Fatal("550 should be a permanent failure")
	}
	if !NewReply(KindLocalError).IsTransientFailure() {
		t.Fatal("451 should be a transient failure")
	}
	if NewReply(KindOk).IsPermanentFailure() || NewReply(KindOk).IsTransientFailure() {
		t.Fatal("250 should not be classified as a failure")
	}
}

func TestExtensionSetEnableDisable(t *testing.T) {
	s := ExtensionSet{}
	s.Enable(ExtSTARTTLS, "")
	if !s.IsEnabled(ExtSTARTTLS) {
		t.Fatal("expected STARTTLS to be enabled")
	}
	s.Disable(ExtSTARTTLS)
	if s.IsEnabled(ExtSTARTTLS) {
		t.Fatal("expected STARTTLS to be disabled")
	}
}

func TestExtensionSetClone(t *testing.T) {
	s := ExtensionSet{}
	s.Enable(ExtSize, "10485760")
	clone := s.Clone()
	clone.Disable(ExtSize)
	if !s.IsEnabled(ExtSize) {
		t.Fatal("clone should be independent of the original")
	}
}
