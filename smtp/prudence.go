package smtp

import "time"

/*
BannerPolicy selects what happens when a peer is caught sending bytes
before the greeting - a well-behaved client always waits for the 220
banner before speaking, so a peer heard talking first is very likely a
spam bot racing through a scripted conversation without reading replies.
*/
type BannerPolicy int

const (
	// BannerPolicyReport notes the violation but still serves the
	// session, attaching a warning header to any mail it delivers.
	BannerPolicyReport BannerPolicy = iota
	// BannerPolicyStrict refuses the session outright with an abuse
	// reply instead of a greeting.
	BannerPolicyStrict
)

// prudenceReportHeader is prepended to the body of any transaction
// completed under BannerPolicyReport after a banner-delay violation.
const prudenceReportHeader = "X-Prudence-Warning: client sent data before the greeting was sent\r\n"

// checkBannerPrudence attempts a bounded, non-consuming read for delay;
// it reports violated=true if the peer had already sent bytes, without
// removing them from the stream, so the conversation parses normally
// afterward whichever policy applies.
func checkBannerPrudence(codec *Codec, delay time.Duration) (violated bool, err error) {
	if delay <= 0 {
		return false, nil
	}
	codec.logger.MaybeMinorError(codec.conn.SetReadDeadline(time.Now().Add(delay)))
	_, peekErr := codec.textReader.R.Peek(1)
	codec.logger.MaybeMinorError(codec.conn.SetReadDeadline(time.Time{}))
	if peekErr == nil {
		return true, nil
	}
	if isTimeout(peekErr) {
		return false, nil
	}
	return false, peekErr
}

func isTimeout(err error) bool {
	type timeoutError interface {
		Timeout() bool
	}
	te, ok := err.(timeoutError)
	return ok && te.Timeout()
}
