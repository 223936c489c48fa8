package watch

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, d *debouncer) settled {
	t.Helper()
	select {
	case s := <-d.ready:
		return s
	case <-time.After(5 * time.Second):
		t.Fatal("no path settled")
		return settled{}
	}
}

func TestDebouncer_SettlesOnce(t *testing.T) {
	done := make(chan struct{})
	defer close(done)
	d := newDebouncer(time.Millisecond, done)

	d.touch("a.pdf")
	s := receive(t, d)
	assert.Equal(t, "a.pdf", s.path)
	assert.True(t, d.settle(s))
	assert.False(t, d.settle(s), "a delivery is accepted only once")
}

func TestDebouncer_StaleDeliveryAfterRetouch(t *testing.T) {
	done := make(chan struct{})
	defer close(done)
	d := newDebouncer(time.Millisecond, done)

	// the first timer has fired and its delivery is in flight when the
	// path changes again
	d.touch("a.pdf")
	first := receive(t, d)
	d.touch("a.pdf")
	second := receive(t, d)

	assert.False(t, d.settle(first))
	assert.True(t, d.settle(second))
	assert.Empty(t, d.pending)
}

func TestDebouncer_RetouchDelays(t *testing.T) {
	done := make(chan struct{})
	defer close(done)
	d := newDebouncer(50*time.Millisecond, done)

	d.touch("a.pdf")
	d.touch("b.pdf")
	d.touch("a.pdf")

	got := map[string]bool{}
	for len(got) < 2 {
		s := receive(t, d)
		if d.settle(s) {
			got[s.path] = true
		}
	}
	assert.Equal(t, map[string]bool{"a.pdf": true, "b.pdf": true}, got)
}

func TestDebouncer_DoneReleasesCallbacks(t *testing.T) {
	done := make(chan struct{})
	d := newDebouncer(time.Millisecond, done)

	d.touch("a.pdf")
	require.Contains(t, d.pending, "a.pdf")
	close(done)

	// nobody reads ready, so the fired callback returns through done
	time.Sleep(20 * time.Millisecond)
	select {
	case s := <-d.ready:
		t.Fatalf("unexpected delivery of %s after done", s.path)
	default:
	}

	d.stop()
	assert.Empty(t, d.pending)
}
