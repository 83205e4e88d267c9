package smtpd

import (
	"net"
	"strconv"
	"testing"
	"time"

	"github.com/mailcore/smtpcore/smtp"
)

func freePort(t *testing.T) int {
	t.Helper()
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("failed to find a free port: %v", err)
	}
	defer l.Close()
	_, portStr, err := net.SplitHostPort(l.Addr().String())
	if err != nil {
		t.Fatalf("failed to parse listener address: %v", err)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		t.Fatalf("failed to parse port: %v", err)
	}
	return port
}

func TestDaemonSmokeTest(t *testing.T) {
	d := &Daemon{
		Address:    "127.0.0.1",
		Port:       freePort(t),
		MyDomains:  []string{"example.com"},
		PerIPLimit: 50,
		IOTimeout:  2 * time.Second,
		Protocol:   smtp.ProtocolSMTP,
	}
	if err := d.Initialise(); err != nil {
		t.Fatalf("Initialise failed: %v", err)
	}
	go func() {
		if err := d.StartAndBlock(); err != nil {
			t.Errorf("StartAndBlock: %v", err)
		}
	}()
	defer d.Stop()

	deadline := time.Now().Add(2 * time.Second)
	for {
		if conn, err := net.Dial("tcp", net.JoinHostPort(d.Address, strconv.Itoa(d.Port))); err == nil {
			conn.Close()
			break
		}
		if time.Now().After(deadline) {
			t.Fatal("daemon did not start listening in time")
		}
		time.Sleep(20 * time.Millisecond)
	}

	TestDaemon(d, t)
}

func TestDaemonRequiresDomains(t *testing.T) {
	d := &Daemon{Port: freePort(t)}
	if err := d.Initialise(); err == nil {
		t.Fatal("expected Initialise to fail without MyDomains")
	}
}
