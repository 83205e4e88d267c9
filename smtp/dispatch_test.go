package smtp

import (
	"bytes"
	"context"
	"testing"
)

type bufferSink struct {
	bytes.Buffer
	closed bool
}

func (s *bufferSink) Close() error {
	s.closed = true
	return nil
}

type fixedDispatch struct {
	sink *bufferSink
	err  *DispatchError
}

func (fixedDispatch) PrependsOnAdd() bool { return false }

func (d fixedDispatch) OpenMailBody(ctx context.Context, tx *Transaction) (MailSink, *DispatchError) {
	if d.err != nil {
		return nil, d.err
	}
	if d.sink == nil {
		// Decline with an untyped nil, not a nil *bufferSink wrapped in a
		// non-nil MailSink interface.
		return nil, nil
	}
	return d.sink, nil
}

func TestComposeDispatchFirstAccepterWins(t *testing.T) {
	declining := fixedDispatch{}
	accepting := fixedDispatch{sink: &bufferSink{}}
	chain := ComposeDispatch([]MailDispatch{declining, accepting})
	sink, err := chain.OpenMailBody(context.Background(), &Transaction{})
	if err != nil || sink == nil {
		t.Fatalf("sink=%v err=%v", sink, err)
	}
}

func TestComposeDispatchNoAccepterFails(t *testing.T) {
	chain := ComposeDispatch(nil)
	sink, err := chain.OpenMailBody(context.Background(), &Transaction{})
	if sink != nil || err == nil {
		t.Fatalf("sink=%v err=%v", sink, err)
	}
}

func TestDiscardDispatchAcceptsAndDrops(t *testing.T) {
	sink, err := (DiscardDispatch{}).OpenMailBody(context.Background(), &Transaction{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	n, werr := sink.Write([]byte("hello"))
	if werr != nil || n != 5 {
		t.Fatalf("n=%d err=%v", n, werr)
	}
	if cerr := sink.Close(); cerr != nil {
		t.Fatalf("unexpected error: %v", cerr)
	}
}
