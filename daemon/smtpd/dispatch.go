package smtpd

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"

	core "github.com/mailcore/smtpcore/smtp"
)

/*
ForwardDispatch relays every accepted transaction's body to a single
upstream MTA instead of handing it off to a local mailbox store. Each
MailSink buffers its transaction's body in memory - message sizes here
are bounded by Daemon.MaxMessageLength - and hands it to net/smtp on
Close, so a slow or unreachable upstream only blocks the one
transaction being closed, not the accept loop.
*/
type ForwardDispatch struct {
	UpstreamAddr string
}

// NewForwardDispatch returns a dispatcher that relays to upstreamAddr
// (host:port).
func NewForwardDispatch(upstreamAddr string) *ForwardDispatch {
	return &ForwardDispatch{UpstreamAddr: upstreamAddr}
}

func (d *ForwardDispatch) PrependsOnAdd() bool { return false }

func (d *ForwardDispatch) OpenMailBody(ctx context.Context, tx *core.Transaction) (core.MailSink, *core.DispatchError) {
	return &forwardSink{dispatch: d, tx: tx}, nil
}

type forwardSink struct {
	dispatch *ForwardDispatch
	tx       *core.Transaction
	buf      bytes.Buffer
}

func (s *forwardSink) Write(p []byte) (int, error) { return s.buf.Write(p) }

func (s *forwardSink) Close() error {
	from := s.tx.Mail.Path.String()
	to := make([]string, 0, len(s.tx.Recipients))
	for _, r := range s.tx.Recipients {
		to = append(to, r.Path.String())
	}
	if len(to) == 0 {
		return fmt.Errorf("smtpd: no recipients to forward to")
	}
	return smtp.SendMail(s.dispatch.UpstreamAddr, nil, from, to, s.buf.Bytes())
}
