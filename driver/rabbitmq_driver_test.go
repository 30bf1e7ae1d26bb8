package driver

import (
	"log/slog"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

func TestNewDialBackoff(t *testing.T) {
	bo := newDialBackoff()

	if bo.InitialInterval != time.Second {
		t.Errorf("InitialInterval = %v, want 1s", bo.InitialInterval)
	}
	if bo.MaxInterval != time.Minute {
		t.Errorf("MaxInterval = %v, want 1m", bo.MaxInterval)
	}
	if bo.Multiplier != 2 {
		t.Errorf("Multiplier = %v, want 2", bo.Multiplier)
	}

	// Delays grow but never exceed the cap.
	prev := time.Duration(0)
	for range 10 {
		d := bo.NextBackOff()
		if d > bo.MaxInterval+time.Duration(float64(bo.MaxInterval)*bo.RandomizationFactor) {
			t.Fatalf("delay %v exceeds max interval", d)
		}
		if d < prev/4 {
			t.Fatalf("delay %v shrank unexpectedly from %v", d, prev)
		}
		prev = d
	}
}

func TestShouldRedial(t *testing.T) {
	newConn := func() *Connection {
		return &Connection{logger: slog.Default(), done: make(chan struct{})}
	}

	t.Run("broker error triggers redial", func(t *testing.T) {
		c := newConn()
		if !c.shouldRedial(&amqp.Error{Code: 320, Reason: "connection forced"}) {
			t.Error("broker-side close must redial")
		}
	})

	t.Run("nil notification on a live connection triggers redial", func(t *testing.T) {
		// A nil arrives when the connection died before NotifyClose
		// registered; that is a lost connection, not a local Close.
		c := newConn()
		if !c.shouldRedial(nil) {
			t.Error("nil close notification without Close must redial")
		}
	})

	t.Run("local close ends recovery", func(t *testing.T) {
		c := newConn()
		close(c.done)
		if c.shouldRedial(nil) {
			t.Error("redial after Close")
		}
		if c.shouldRedial(&amqp.Error{Code: 320}) {
			t.Error("redial after Close despite broker error")
		}
	})
}

func TestDialInvalidURL(t *testing.T) {
	if _, err := Dial("not a broker url", nil); err == nil {
		t.Error("expected dial error for malformed URL")
	}
}
