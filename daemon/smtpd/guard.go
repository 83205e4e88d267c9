package smtpd

import (
	"context"
	"strings"

	"github.com/mailcore/smtpcore/smtp"
)

/*
DomainGuard accepts recipients only for mailbox hosts found in MyDomains
(case-insensitive), leaving every other opinion to the next guard in the
chain - the canonical "which domains does this server accept mail for"
policy every MTA needs.
*/
type DomainGuard struct {
	MyDomains map[string]bool
}

// NewDomainGuard builds a DomainGuard accepting the given domain names.
func NewDomainGuard(domains []string) *DomainGuard {
	set := make(map[string]bool, len(domains))
	for _, d := range domains {
		set[strings.ToLower(d)] = true
	}
	return &DomainGuard{MyDomains: set}
}

func (g *DomainGuard) PrependsOnAdd() bool { return false }

func (g *DomainGuard) StartMail(ctx context.Context, tx *smtp.Transaction) smtp.StartMailOutcome {
	return smtp.StartMailOutcome{Accepted: true}
}

func (g *DomainGuard) AddRecipient(ctx context.Context, tx *smtp.Transaction, path smtp.SmtpPath, params []string) smtp.AddRecipientOutcome {
	if path.Kind != smtp.PathMailbox || path.Host.Kind != smtp.HostDomain {
		return smtp.AddRecipientOutcome{Kind: smtp.AddRecipientInconclusive}
	}
	if !g.MyDomains[strings.ToLower(path.Host.Domain)] {
		return smtp.AddRecipientOutcome{Kind: smtp.AddRecipientFailed, Failure: smtp.AddRecipientInvalidRecipient, Detail: "domain not served here"}
	}
	return smtp.AddRecipientOutcome{Kind: smtp.AddRecipientInconclusive}
}

/*
RecipientLimitGuard caps the number of recipients a single transaction may
accumulate, matching RFC 5321 section 4.5.3.1.8's advice that a server
impose *some* bound even though the protocol itself does not fix one.
*/
type RecipientLimitGuard struct {
	Max int
}

func (g *RecipientLimitGuard) PrependsOnAdd() bool { return false }

func (g *RecipientLimitGuard) StartMail(ctx context.Context, tx *smtp.Transaction) smtp.StartMailOutcome {
	return smtp.StartMailOutcome{Accepted: true}
}

func (g *RecipientLimitGuard) AddRecipient(ctx context.Context, tx *smtp.Transaction, path smtp.SmtpPath, params []string) smtp.AddRecipientOutcome {
	if len(tx.Recipients) >= g.Max {
		return smtp.AddRecipientOutcome{Kind: smtp.AddRecipientFailed, Failure: smtp.AddRecipientStorageExhaustedTemporarily, Detail: "too many recipients"}
	}
	return smtp.AddRecipientOutcome{Kind: smtp.AddRecipientInconclusive}
}
