package smtp

import (
	"crypto/rand"
	"encoding/hex"
)

// newTransactionID returns a fresh random identifier used both as the
// MailSink correlation key and in the "250 Queued as <id>" reply text.
func newTransactionID() string {
	var b [8]byte
	_, _ = rand.Read(b[:])
	return hex.EncodeToString(b[:])
}

// TransferBody drives the DATA body pipeline for the session's current
// transaction: the sink was already opened via dispatch when DATA was
// accepted (see interpreter.go's handleData), so this streams
// dot-unstuffed body chunks from codec into it and, on the terminating
// "." line, closes the sink and produces the reply (or replies, one per
// recipient, for LMTP).
//
// A MailSink write failure is not reported to the peer immediately -
// doing so mid-body would desynchronise the conversation, since the peer
// is still going to send the rest of the message plus the terminating
// dot. Instead the failure is remembered on the transaction and reported
// once the terminating dot arrives, exactly as if the whole transfer had
// failed.
func TransferBody(sess *Session, codec *Codec) (Reply, error) {
	tx := &sess.Transaction
	sink := tx.sink

	if sess.PrudenceViolation {
		if _, werr := sink.Write([]byte(prudenceReportHeader)); werr != nil {
			tx.sinkErr = &DispatchError{Kind: DispatchTemporary, Detail: werr.Error()}
		}
	}

	err := codec.ReadBody(func(chunk BodyChunk) error {
		if chunk.Final {
			return nil
		}
		if tx.sinkErr != nil {
			return nil // already failed; keep draining without writing
		}
		if _, werr := sink.Write(chunk.Data); werr != nil {
			tx.sinkErr = &DispatchError{Kind: DispatchTemporary, Detail: werr.Error()}
			return nil
		}
		if chunk.EndsInNewline {
			tx.Mode = ModeData
		} else {
			tx.Mode = ModeDataPartial
		}
		return nil
	})
	if err != nil {
		tx.Reset()
		return Reply{}, err
	}

	if tx.sinkErr != nil {
		reply := dispatchFailureReply(tx.sinkErr)
		tx.Reset()
		return reply, nil
	}

	if closeErr := sink.Close(); closeErr != nil {
		reply := dispatchFailureReply(&DispatchError{Kind: DispatchTemporary, Detail: closeErr.Error()})
		tx.Reset()
		return reply, nil
	}

	reply := queuedReply(sess)
	tx.Reset()
	return reply, nil
}

func dispatchFailureReply(err *DispatchError) Reply {
	if err.Kind == DispatchPermanent {
		return NewReply(KindMailboxNotAvailable)
	}
	return NewReply(KindLocalError)
}

// queuedReply builds the success reply for a completed DATA transfer. SMTP
// sessions report a single "250 Queued as <id>" line; LMTP sessions (RFC
// 2033) must instead report once per accepted recipient, unconditionally,
// since LMTP delivery status is per-recipient rather than per-message even
// when there is only one recipient.
func queuedReply(sess *Session) Reply {
	id := sess.Transaction.ID
	if sess.Protocol != ProtocolLMTP {
		return NewReply(KindOk, "Queued as "+id)
	}
	lines := make([]string, 0, len(sess.Transaction.Recipients))
	for _, rcpt := range sess.Transaction.Recipients {
		lines = append(lines, "Queued as "+id+" for "+rcpt.Path.String())
	}
	return Reply{Kind: KindOk, Code: 250, Lines: lines}
}
