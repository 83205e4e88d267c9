package smtp

import (
	"net"
	"testing"
	"time"

	"github.com/mailcore/smtpcore/lalog"
)

func TestCheckBannerPrudenceNoViolation(t *testing.T) {
	serverConn, _ := net.Pipe()
	defer serverConn.Close()
	cfg := CodecConfig{IOTimeout: time.Second, MaxMessageLength: 1024, MaxConsecutiveUnrecognisedCommands: 1, ServerName: "s"}
	codec := NewCodec(serverConn, cfg, lalog.Logger{})
	violated, err := checkBannerPrudence(codec, 30*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if violated {
		t.Fatal("expected no violation when the peer stays silent")
	}
}

func TestCheckBannerPrudenceViolation(t *testing.T) {
	serverConn, clientConn := net.Pipe()
	defer serverConn.Close()
	defer clientConn.Close()
	cfg := CodecConfig{IOTimeout: time.Second, MaxMessageLength: 1024, MaxConsecutiveUnrecognisedCommands: 1, ServerName: "s"}
	codec := NewCodec(serverConn, cfg, lalog.Logger{})

	go func() { _, _ = clientConn.Write([]byte("EHLO too-fast\r\n")) }()
	time.Sleep(20 * time.Millisecond)

	violated, err := checkBannerPrudence(codec, 200*time.Millisecond)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !violated {
		t.Fatal("expected a violation when the peer talks early")
	}

	// The peeked bytes must still be readable afterward.
	line, err := codec.ReadCommandLine()
	if err != nil {
		t.Fatalf("unexpected error reading the already-sent line: %v", err)
	}
	if line != "EHLO too-fast" {
		t.Fatalf("got %q", line)
	}
}

func TestCheckBannerPrudenceDisabled(t *testing.T) {
	serverConn, _ := net.Pipe()
	defer serverConn.Close()
	cfg := CodecConfig{IOTimeout: time.Second, MaxMessageLength: 1024, MaxConsecutiveUnrecognisedCommands: 1, ServerName: "s"}
	codec := NewCodec(serverConn, cfg, lalog.Logger{})
	violated, err := checkBannerPrudence(codec, 0)
	if err != nil || violated {
		t.Fatalf("violated=%v err=%v", violated, err)
	}
}
