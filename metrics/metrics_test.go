package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestReplyClass(t *testing.T) {
	cases := map[int]string{250: "2xx", 421: "4xx", 550: "5xx", 999: "xxx", 0: "xxx"}
	for code, want := range cases {
		if got := ReplyClass(code); got != want {
			t.Fatalf("ReplyClass(%d) = %q, want %q", code, got, want)
		}
	}
}

func TestCollectorObserveCommandAndReply(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.ObserveCommand("EHLO")
	c.ObserveCommand("EHLO")
	c.ObserveReply(250)

	if got := testutil.ToFloat64(c.CommandsTotal.WithLabelValues("EHLO")); got != 2 {
		t.Fatalf("got %v commands, want 2", got)
	}
	if got := testutil.ToFloat64(c.RepliesTotal.WithLabelValues("2xx")); got != 1 {
		t.Fatalf("got %v replies, want 1", got)
	}
}

func TestCollectorNilIsSafe(t *testing.T) {
	var c *Collector
	c.ObserveCommand("EHLO")
	c.ObserveReply(250)
}
