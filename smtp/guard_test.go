package smtp

import (
	"context"
	"testing"
)

type fixedGuard struct {
	startOutcome     StartMailOutcome
	recipientOutcome AddRecipientOutcome
}

func (fixedGuard) PrependsOnAdd() bool { return false }

func (g fixedGuard) StartMail(ctx context.Context, tx *Transaction) StartMailOutcome {
	return g.startOutcome
}

func (g fixedGuard) AddRecipient(ctx context.Context, tx *Transaction, path SmtpPath, params []string) AddRecipientOutcome {
	return g.recipientOutcome
}

func TestComposeGuardsStartMailFailsOnFirstRefusal(t *testing.T) {
	accepting := fixedGuard{startOutcome: StartMailOutcome{Accepted: true}}
	refusing := fixedGuard{startOutcome: StartMailOutcome{Accepted: false, Failure: StartMailInvalidSender}}
	chain := ComposeGuards([]MailGuard{accepting, refusing, accepting})
	out := chain.StartMail(context.Background(), &Transaction{})
	if out.Accepted || out.Failure != StartMailInvalidSender {
		t.Fatalf("%+v", out)
	}
}

func TestComposeGuardsAddRecipientStopsAtFirstConclusiveAnswer(t *testing.T) {
	inconclusive := fixedGuard{recipientOutcome: AddRecipientOutcome{Kind: AddRecipientInconclusive}}
	accepting := fixedGuard{recipientOutcome: AddRecipientOutcome{Kind: AddRecipientAccepted}}
	rejecting := fixedGuard{recipientOutcome: AddRecipientOutcome{Kind: AddRecipientFailed, Failure: AddRecipientInvalidRecipient}}
	chain := ComposeGuards([]MailGuard{inconclusive, accepting, rejecting})
	out := chain.AddRecipient(context.Background(), &Transaction{}, SmtpPath{}, nil)
	if out.Kind != AddRecipientAccepted {
		t.Fatalf("expected the accepting guard's answer to win, got %+v", out)
	}
}

func TestComposeGuardsAddRecipientDefaultAcceptsWhenAllInconclusive(t *testing.T) {
	inconclusive := fixedGuard{recipientOutcome: AddRecipientOutcome{Kind: AddRecipientInconclusive}}
	chain := ComposeGuards([]MailGuard{inconclusive, inconclusive})
	out := chain.AddRecipient(context.Background(), &Transaction{}, SmtpPath{}, nil)
	if out.Kind != AddRecipientAccepted {
		t.Fatalf("%+v", out)
	}
}

func TestComposeGuardsEmptyChainAcceptsEverything(t *testing.T) {
	chain := ComposeGuards(nil)
	if out := chain.StartMail(context.Background(), &Transaction{}); !out.Accepted {
		t.Fatalf("%+v", out)
	}
	if out := chain.AddRecipient(context.Background(), &Transaction{}, SmtpPath{}, nil); out.Kind != AddRecipientAccepted {
		t.Fatalf("%+v", out)
	}
}
