package search

import (
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/btkit/btk/internal/keyderiver"
	"github.com/btkit/btk/internal/pattern"
)

func testDeriver() *keyderiver.Deriver {
	return keyderiver.New(keyderiver.Mainnet)
}

func TestNewFromTextValidatesPatternLength(t *testing.T) {
	d := testDeriver()
	long := strings.Repeat("a", MaxPatternTextLength+1)
	if _, err := NewFromText(long, true, 1, d); err == nil {
		t.Error("expected error for pattern text over the length limit")
	}
	ok := strings.Repeat("a", MaxPatternTextLength)
	if _, err := NewFromText(ok, true, 1, d); err != nil {
		t.Errorf("expected a %d-character pattern to be accepted, got %v", MaxPatternTextLength, err)
	}
}

func TestNewValidatesThreadCount(t *testing.T) {
	d := testDeriver()
	p, err := pattern.Compile("1", pattern.Prefix, true)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := New(p, true, 0, d); err == nil {
		t.Error("expected error for thread count 0")
	}
	if _, err := New(p, true, MaxThreads+1, d); err == nil {
		t.Error("expected error for thread count above the maximum")
	}
	if _, err := New(p, true, MaxThreads, d); err != nil {
		t.Errorf("expected thread count %d to be accepted, got %v", MaxThreads, err)
	}
}

func TestAddressAndWIFBeforeFoundReturnError(t *testing.T) {
	d := testDeriver()
	p, _ := pattern.Compile("1", pattern.Prefix, true)
	coord, err := New(p, true, 1, d)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := coord.Address(); err == nil {
		t.Error("expected Address to fail before a match is found")
	}
	if _, err := coord.WIF(); err == nil {
		t.Error("expected WIF to fail before a match is found")
	}
}

func TestStopIsIdempotent(t *testing.T) {
	d := testDeriver()
	p, _ := pattern.Compile("1", pattern.Prefix, true)
	coord, err := New(p, true, 2, d)
	if err != nil {
		t.Fatal(err)
	}
	if err := coord.Start(); err != nil {
		t.Fatal(err)
	}

	coord.Stop()
	coord.Stop() // must not block or panic
	if !coord.IsStopped() {
		t.Error("expected IsStopped to be true after Stop")
	}
}

func TestStartTwiceFails(t *testing.T) {
	d := testDeriver()
	p, _ := pattern.Compile("1", pattern.Prefix, true)
	coord, err := New(p, true, 1, d)
	if err != nil {
		t.Fatal(err)
	}
	if err := coord.Start(); err != nil {
		t.Fatal(err)
	}
	defer coord.Stop()

	if err := coord.Start(); err == nil {
		t.Error("expected a second Start to fail")
	}
}

// TestSearchFindsShortPrefix exercises the full worker loop end to end: a
// single-character Prefix pattern after the version byte is stripped
// should be found quickly with a handful of workers, since the matching
// probability per attempt is roughly 1/58.
func TestSearchFindsShortPrefix(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping crypto-bound search in short mode")
	}

	d := testDeriver()
	p, err := pattern.Compile("a", pattern.Prefix, true)
	if err != nil {
		t.Fatal(err)
	}
	coord, err := New(p, true, 4, d)
	if err != nil {
		t.Fatal(err)
	}
	defer coord.Cleanup()

	var lastAttempts atomic.Uint64
	_ = coord.SetProgressCallback(func(attempts uint64, rate float64) {
		lastAttempts.Store(attempts)
	}, 10)

	if err := coord.Start(); err != nil {
		t.Fatal(err)
	}

	deadline := time.After(30 * time.Second)
	ticker := time.NewTicker(10 * time.Millisecond)
	defer ticker.Stop()

	for !coord.IsFound() {
		select {
		case <-deadline:
			t.Fatalf("search did not find a match within the deadline (%d attempts)", coord.Attempts())
		case <-ticker.C:
		}
	}
	coord.Stop()

	address, err := coord.Address()
	if err != nil {
		t.Fatalf("Address: %v", err)
	}
	if len(address) < 2 || address[1] != 'a' {
		t.Errorf("expected the character after the version byte to be 'a', got address %q", address)
	}
	if _, err := coord.WIF(); err != nil {
		t.Errorf("WIF: %v", err)
	}
	if coord.Attempts() == 0 {
		t.Error("expected at least one attempt to have been recorded")
	}
}
