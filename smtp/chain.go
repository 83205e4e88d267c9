package smtp

import "context"

/*
SetupStep configures a Session before its first command is read:
installing extensions, seeding the Store with guards/dispatchers, logging
connection metadata. Setup steps are the composable-component case -
any number may be Add-ed to a Store and they all run, in order, rather
than the first-wins semantics of guards and dispatchers.
*/
type SetupStep interface {
	Setup(ctx context.Context, sess *Session)
}

type setupChain struct {
	steps []SetupStep
}

func (c setupChain) PrependsOnAdd() bool { return false }

func (c setupChain) Setup(ctx context.Context, sess *Session) {
	for _, step := range c.steps {
		step.Setup(ctx, sess)
	}
}

// ComposeSetup folds parts into a single SetupStep that runs each in
// order.
func ComposeSetup(parts []SetupStep) SetupStep {
	return setupChain{steps: parts}
}

// SetupFunc adapts a plain function to SetupStep.
type SetupFunc func(ctx context.Context, sess *Session)

func (f SetupFunc) Setup(ctx context.Context, sess *Session) { f(ctx, sess) }

// baseExtensions installs the extension set every session advertises
// before any SetupStep runs: 8BITMIME and PIPELINING unconditionally, and
// STARTTLS whenever the codec was built with a TLS provider.
func baseExtensions(sess *Session, tlsCapable bool) {
	sess.Extensions.Enable(ExtEightBit, "")
	sess.Extensions.Enable(ExtPipelining, "")
	if tlsCapable {
		sess.Extensions.Enable(ExtSTARTTLS, "")
	}
}
