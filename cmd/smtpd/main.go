// Command smtpd runs a standalone SMTP (or, with -lmtp, LMTP) listener
// built on the smtpcore/smtp server core.
package main

import (
	"flag"
	"log"
	"strings"
	"time"

	"github.com/mailcore/smtpcore/daemon/smtpd"
	"github.com/mailcore/smtpcore/smtp"
)

func main() {
	address := flag.String("address", "0.0.0.0", "address to listen on")
	port := flag.Int("port", 2525, "port to listen on")
	domains := flag.String("domains", "", "comma-separated list of mailbox domains to accept mail for")
	forwardTo := flag.String("forward-to", "", "host:port of an upstream MTA to relay accepted mail to")
	tlsCert := flag.String("tls-cert", "", "path to a PEM TLS certificate, enables STARTTLS")
	tlsKey := flag.String("tls-key", "", "path to the PEM TLS private key matching -tls-cert")
	lmtp := flag.Bool("lmtp", false, "speak LMTP (RFC 2033) instead of ESMTP")
	perIPLimit := flag.Int("per-ip-limit", 10, "maximum new connections per second per source address")
	flag.Parse()

	if *domains == "" {
		log.Fatal("smtpd: -domains is required")
	}
	proto := smtp.ProtocolSMTP
	if *lmtp {
		proto = smtp.ProtocolLMTP
	}

	d := &smtpd.Daemon{
		Address:     *address,
		Port:        *port,
		MyDomains:   strings.Split(*domains, ","),
		ForwardTo:   *forwardTo,
		TLSCertPath: *tlsCert,
		TLSKeyPath:  *tlsKey,
		Protocol:    proto,
		PerIPLimit:  *perIPLimit,
		IOTimeout:   30 * time.Second,
	}
	if err := d.Initialise(); err != nil {
		log.Fatalf("smtpd: initialisation failed: %v", err)
	}
	log.Printf("smtpd: listening on %s:%d", d.Address, d.Port)
	if err := d.StartAndBlock(); err != nil {
		log.Fatalf("smtpd: %v", err)
	}
}
