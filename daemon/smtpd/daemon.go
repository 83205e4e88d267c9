/*
Package smtpd is the concrete, listener-owning embedding of the
smtpcore/smtp server core: it supplies the TCP accept loop, per-IP rate
limiting, TLS certificate sourcing, structured logging, Prometheus
metrics, and a default domain-forwarding mail policy, all composed from
the core's pluggable MailGuard/MailDispatch/Interpreter/SetupStep
interfaces.
*/
package smtpd

import (
	"context"
	"crypto/tls"
	"fmt"
	"net"
	"strconv"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mailcore/smtpcore/lalog"
	"github.com/mailcore/smtpcore/metrics"
	"github.com/mailcore/smtpcore/smtp"
	"github.com/mailcore/smtpcore/testingstub"
)

// Daemon runs one SMTP or LMTP listener. Its exported fields are the
// configuration surface; call Initialise once after setting them and
// before StartAndBlock.
type Daemon struct {
	Address string
	Port    int

	TLSCertPath string
	TLSKeyPath  string

	// PerIPLimit bounds how many new connections a single source address
	// may open per second.
	PerIPLimit int
	// MyDomains lists the mailbox domains this server accepts mail for.
	MyDomains []string
	// ForwardTo is the host:port of an upstream MTA that accepted mail is
	// relayed to. If empty, accepted mail is accepted and discarded.
	ForwardTo string
	// Protocol selects SMTP (ProtocolSMTP) or LMTP (ProtocolLMTP) framing.
	Protocol smtp.Protocol
	// MaxRecipients bounds recipients per transaction.
	MaxRecipients int
	// IOTimeout bounds every individual read/write.
	IOTimeout time.Duration
	// MaxMessageLength bounds a DATA body in bytes.
	MaxMessageLength int64
	// MaxConsecutiveUnrecognisedCommands aborts a session that exceeds it.
	MaxConsecutiveUnrecognisedCommands int

	Logger  lalog.Logger
	Metrics *metrics.Collector

	listener  net.Listener
	tlsConfig *tls.Config
	guard     smtp.MailGuard
	dispatch  smtp.MailDispatch
	rateLimit *lalog.RateLimit

	stopOnce sync.Once
	stopped  chan struct{}
}

// Initialise validates configuration, fills in defaults, and builds the
// guard/dispatch chain and TLS provider. It must be called exactly once
// before StartAndBlock.
func (d *Daemon) Initialise() error {
	if d.Address == "" {
		d.Address = "0.0.0.0"
	}
	if d.Port == 0 {
		d.Port = 25
	}
	if d.PerIPLimit < 1 {
		d.PerIPLimit = 10
	}
	if d.MaxRecipients < 1 {
		d.MaxRecipients = 100
	}
	if d.IOTimeout < 1 {
		d.IOTimeout = 30 * time.Second
	}
	if d.MaxMessageLength < 1 {
		d.MaxMessageLength = 30 * 1024 * 1024
	}
	if d.MaxConsecutiveUnrecognisedCommands < 1 {
		d.MaxConsecutiveUnrecognisedCommands = 8
	}
	if len(d.MyDomains) == 0 {
		return fmt.Errorf("smtpd: at least one entry in MyDomains is required")
	}
	d.Logger.ComponentName = "smtpd"
	d.Logger.ComponentID = []lalog.LoggerIDField{{Key: "Addr", Value: d.Address}, {Key: "Port", Value: d.Port}}

	if d.Metrics == nil {
		d.Metrics = metrics.NewCollector(prometheus.NewRegistry())
	}

	if d.TLSCertPath != "" && d.TLSKeyPath != "" {
		cfg, err := LoadTLSCertificate(d.TLSCertPath, d.TLSKeyPath)
		if err != nil {
			return fmt.Errorf("smtpd: failed to load TLS certificate: %w", err)
		}
		d.tlsConfig = cfg
	}

	d.guard = smtp.ComposeGuards([]smtp.MailGuard{
		NewDomainGuard(d.MyDomains),
		&RecipientLimitGuard{Max: d.MaxRecipients},
	})
	if d.ForwardTo != "" {
		d.dispatch = NewForwardDispatch(d.ForwardTo)
	} else {
		d.dispatch = smtp.DiscardDispatch{}
	}

	d.rateLimit = lalog.NewRateLimit(1, d.PerIPLimit, &d.Logger)
	d.stopped = make(chan struct{})
	return nil
}

// serverConfig renders the daemon's settings as a smtp.ServerConfig for
// one session.
func (d *Daemon) serverConfig(serverName string) smtp.ServerConfig {
	return smtp.ServerConfig{
		Codec: smtp.CodecConfig{
			TLSConfig:                          d.tlsConfig,
			IOTimeout:                          d.IOTimeout,
			MaxMessageLength:                   d.MaxMessageLength,
			MaxConsecutiveUnrecognisedCommands: d.MaxConsecutiveUnrecognisedCommands,
			ServerName:                         serverName,
		},
		Protocol:                           d.Protocol,
		MaxConsecutiveUnrecognisedCommands: d.MaxConsecutiveUnrecognisedCommands,
	}
}

// StartAndBlock opens the listener and serves connections until Stop is
// called. It returns nil only after Stop; any accept failure other than
// "listener closed" is returned immediately.
func (d *Daemon) StartAndBlock() error {
	listener, err := net.Listen("tcp", net.JoinHostPort(d.Address, strconv.Itoa(d.Port)))
	if err != nil {
		return fmt.Errorf("smtpd: failed to listen on %s:%d: %w", d.Address, d.Port, err)
	}
	d.listener = listener
	defer listener.Close()

	serverName := d.Address
	if len(d.MyDomains) > 0 {
		serverName = d.MyDomains[0]
	}

	for {
		conn, err := listener.Accept()
		if err != nil {
			select {
			case <-d.stopped:
				return nil
			default:
				return fmt.Errorf("smtpd: accept failed: %w", err)
			}
		}
		host, _, err := net.SplitHostPort(conn.RemoteAddr().String())
		if err != nil {
			host = conn.RemoteAddr().String()
		}
		if !d.rateLimit.Add(host, true) {
			d.Metrics.RejectedTotal.Inc()
			_, _ = conn.Write(smtp.NewReply(smtp.KindLocalError).Bytes())
			conn.Close()
			continue
		}
		d.Metrics.ConnectionsTotal.Inc()
		d.Metrics.ConnectionsActive.Inc()
		go d.handleConnection(conn, serverName)
	}
}

func (d *Daemon) handleConnection(conn net.Conn, serverName string) {
	defer d.Metrics.ConnectionsActive.Dec()
	defer conn.Close()

	codec := smtp.NewCodec(conn, d.serverConfig(serverName).Codec, d.Logger)
	sess := smtp.NewSession(serverName, d.Protocol, conn.RemoteAddr().String())

	comp := smtp.Components{
		Guard:    d.guard,
		Dispatch: d.dispatch,
		Observer: d.Metrics,
	}
	if err := smtp.RunSession(context.Background(), codec, sess, d.serverConfig(serverName), comp); err != nil {
		d.Logger.MaybeMinorError(err)
	}
}

// Stop closes the listener, causing StartAndBlock to return.
func (d *Daemon) Stop() {
	d.stopOnce.Do(func() {
		close(d.stopped)
		if d.listener != nil {
			d.listener.Close()
		}
	})
}

// TestDaemon exercises a running Daemon with a minimal SMTP conversation.
// It is exported, not a _test.go helper, so that other packages embedding
// this daemon can reuse it in their own tests without importing the
// "testing" package's global flags - the same pattern the wider module
// uses for every daemon's smoke test.
func TestDaemon(d *Daemon, t testingstub.T) {
	conn, err := net.DialTimeout("tcp", net.JoinHostPort("127.0.0.1", strconv.Itoa(d.Port)), 3*time.Second)
	if err != nil {
		t.Fatalf("failed to dial daemon: %v", err)
		return
	}
	defer conn.Close()

	read := func() string {
		_ = conn.SetReadDeadline(time.Now().Add(3 * time.Second))
		buf := make([]byte, 4096)
		n, err := conn.Read(buf)
		if err != nil {
			t.Fatalf("failed to read reply: %v", err)
			return ""
		}
		return string(buf[:n])
	}
	send := func(line string) {
		_ = conn.SetWriteDeadline(time.Now().Add(3 * time.Second))
		if _, err := conn.Write([]byte(line + "\r\n")); err != nil {
			t.Fatalf("failed to write %q: %v", line, err)
		}
	}

	if greeting := read(); greeting == "" {
		t.Fatalf("did not receive greeting")
	}
	send("EHLO test.example.com")
	if reply := read(); reply == "" {
		t.Fatalf("did not receive EHLO reply")
	}
	send("MAIL FROM:<sender@example.com>")
	if reply := read(); reply == "" {
		t.Fatalf("did not receive MAIL reply")
	}
	send("RCPT TO:<" + "postmaster@" + d.MyDomains[0] + ">")
	if reply := read(); reply == "" {
		t.Fatalf("did not receive RCPT reply")
	}
	send("DATA")
	if reply := read(); reply == "" {
		t.Fatalf("did not receive DATA reply")
	}
	send("Subject: test\r\n\r\nhello\r\n.")
	if reply := read(); reply == "" {
		t.Fatalf("did not receive end-of-data reply")
	}
	send("QUIT")
	if reply := read(); reply == "" {
		t.Fatalf("did not receive QUIT reply")
	}
}
