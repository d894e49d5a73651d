// Package search implements the parallel vanity-search coordinator and its
// workers (spec.md §4.2, §4.3, §5): a SearchCoordinator owns shared atomic
// counters and a single-writer result slot; it spawns worker goroutines
// that sample random secrets, derive addresses, and test them against a
// compiled Pattern.
package search

import (
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/btkit/btk/internal/keyderiver"
	"github.com/btkit/btk/internal/pattern"
)

const (
	MinThreads = 1
	MaxThreads = 64

	// MaxPatternTextLength bounds the textual pattern fed to the
	// coordinator's validator, distinct from pattern.Compile's own
	// (looser) 64-character literal limit.
	MaxPatternTextLength = 16
)

// State is one of the SearchState lifecycle states of spec.md §4.3.
type State int32

const (
	StateInitialized State = iota
	StateRunning
	StateStopping
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateInitialized:
		return "initialized"
	case StateRunning:
		return "running"
	case StateStopping:
		return "stopping"
	case StateTerminated:
		return "terminated"
	default:
		return "unknown"
	}
}

// ProgressFunc is invoked with the cumulative attempt count and a rate
// computed as that cumulative count times 1000 divided by the milliseconds
// elapsed since the previous emission (since Start for the first one). It is
// called with the coordinator's result mutex held (spec.md §5): it must be
// non-blocking and must not call back into the Coordinator.
type ProgressFunc func(attempts uint64, rate float64)

// ValidatePatternText enforces the coordinator's textual pattern-length
// validator (spec.md §3, §8: 16 accepted, 17 rejected), independent of
// pattern.Compile's own looser 64-character ceiling for literal dialects.
func ValidatePatternText(text string) error {
	if len(text) == 0 {
		return fmt.Errorf("search: pattern must not be empty")
	}
	if len(text) > MaxPatternTextLength {
		return fmt.Errorf("search: pattern exceeds %d characters", MaxPatternTextLength)
	}
	return nil
}

// Coordinator drives a parallel vanity-address search. It corresponds to
// spec.md's SearchState plus the init/start/stop/cleanup operations of
// §4.3.
type Coordinator struct {
	compiledPattern *pattern.Pattern
	caseSensitive   bool
	threadCount     int
	deriver         *keyderiver.Deriver

	state atomic.Int32

	found    atomic.Bool
	stopped  atomic.Bool
	attempts atomic.Uint64

	startTime time.Time

	// resultMu guards the winning result slot and lastProgress, mirroring
	// the single mutex of spec.md §5. It is distinct from lifecycleMu,
	// which is never held concurrently with it.
	resultMu      sync.Mutex
	resultSecret  keyderiver.Secret
	resultAddress string

	lastProgressNano atomic.Int64
	progressCB       ProgressFunc
	progressInterval time.Duration

	lifecycleMu sync.Mutex
	wg          sync.WaitGroup
	stopOnce    sync.Once
}

// New constructs a Coordinator around an already-compiled Pattern. This is
// the constructor the dispatch front uses for every dialect besides the
// literal default Prefix path (see NewFromText); spec.md §2 describes the
// front as compiling a Pattern and handing it to the coordinator, while
// §4.3's init contract names only a pattern_text default-Prefix path. Both
// are preserved here: NewFromText delegates to New after compiling its
// Prefix pattern, so one validation and construction path serves all
// dialects (see DESIGN.md).
func New(p *pattern.Pattern, caseSensitive bool, threadCount int, deriver *keyderiver.Deriver) (*Coordinator, error) {
	if p == nil {
		return nil, fmt.Errorf("search: pattern must not be nil")
	}
	if threadCount < MinThreads || threadCount > MaxThreads {
		return nil, fmt.Errorf("search: thread count must be between %d and %d", MinThreads, MaxThreads)
	}
	if deriver == nil {
		return nil, fmt.Errorf("search: deriver must not be nil")
	}

	c := &Coordinator{
		compiledPattern:  p,
		caseSensitive:    caseSensitive,
		threadCount:      threadCount,
		deriver:          deriver,
		progressInterval: 100 * time.Millisecond,
	}
	c.state.Store(int32(StateInitialized))
	return c, nil
}

// NewFromText mirrors spec.md §4.3's literal init(pattern_text,
// case_sensitive, thread_count) contract: it validates the pattern length
// (<=16), compiles it as a Prefix pattern, and constructs a Coordinator.
func NewFromText(patternText string, caseSensitive bool, threadCount int, deriver *keyderiver.Deriver) (*Coordinator, error) {
	if err := ValidatePatternText(patternText); err != nil {
		return nil, err
	}
	p, err := pattern.Compile(patternText, pattern.Prefix, caseSensitive)
	if err != nil {
		return nil, err
	}
	return New(p, caseSensitive, threadCount, deriver)
}

// SetProgressCallback installs the progress callback and its emission
// interval. Permitted only in Initialized (Initialized -> Initialized,
// spec.md §4.3's state machine).
func (c *Coordinator) SetProgressCallback(cb ProgressFunc, intervalMs int) error {
	if intervalMs < 0 {
		return fmt.Errorf("search: progress interval must be >= 0")
	}
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()
	if State(c.state.Load()) != StateInitialized {
		return fmt.Errorf("search: progress callback can only be set while initialized")
	}
	c.progressCB = cb
	c.progressInterval = time.Duration(intervalMs) * time.Millisecond
	return nil
}

// Start records the start timestamp and spawns exactly threadCount
// workers. Go's goroutine model has no observable "thread spawn failure"
// path (see DESIGN.md for why the reference implementation's
// signal-previously-spawned-workers-then-join-on-failure behavior has no
// live code here); the only failure mode is an invalid lifecycle state.
func (c *Coordinator) Start() error {
	c.lifecycleMu.Lock()
	defer c.lifecycleMu.Unlock()

	if State(c.state.Load()) != StateInitialized {
		return fmt.Errorf("search: start requires state initialized, got %v", State(c.state.Load()))
	}

	c.startTime = time.Now()
	c.lastProgressNano.Store(c.startTime.UnixNano())

	c.wg.Add(c.threadCount)
	for i := 0; i < c.threadCount; i++ {
		w := &worker{id: i, coord: c}
		go w.run()
	}

	c.state.Store(int32(StateRunning))
	return nil
}

// Stop sets the stopped flag and joins every worker. It is idempotent:
// concurrent or repeated calls all block until the first call's join
// completes, then return.
func (c *Coordinator) Stop() {
	c.stopped.Store(true)
	c.stopOnce.Do(func() {
		c.wg.Wait()
		if State(c.state.Load()) == StateRunning {
			c.state.Store(int32(StateStopping))
		}
		c.state.Store(int32(StateTerminated))
	})
}

// Cleanup stops the search (if running), releases the pattern, and
// invalidates the coordinator. After Cleanup returns, the Coordinator must
// not be reused.
func (c *Coordinator) Cleanup() {
	c.Stop()
	c.compiledPattern.Release()
}

// IsFound reports whether a winning candidate has been recorded.
func (c *Coordinator) IsFound() bool { return c.found.Load() }

// IsStopped reports whether a stop has been requested.
func (c *Coordinator) IsStopped() bool { return c.stopped.Load() }

// Attempts returns the monotonically non-decreasing count of candidates
// tested so far.
func (c *Coordinator) Attempts() uint64 { return c.attempts.Load() }

// ElapsedMillis returns milliseconds since Start, or 0 if not yet started.
func (c *Coordinator) ElapsedMillis() int64 {
	if c.startTime.IsZero() {
		return 0
	}
	return time.Since(c.startTime).Milliseconds()
}

// Address returns the winning address, including its leading version byte.
// It succeeds only once IsFound is true.
func (c *Coordinator) Address() (string, error) {
	c.resultMu.Lock()
	defer c.resultMu.Unlock()
	if !c.found.Load() {
		return "", fmt.Errorf("search: no match found yet")
	}
	return c.resultAddress, nil
}

// WIF returns the winning private key encoded as WIF, delegating to the
// external WIF encoder (keyderiver.Deriver.WIF) over the stored result
// secret and its compression flag. It succeeds only once IsFound is true.
func (c *Coordinator) WIF() (string, error) {
	c.resultMu.Lock()
	found := c.found.Load()
	secret := c.resultSecret
	c.resultMu.Unlock()

	if !found {
		return "", fmt.Errorf("search: no match found yet")
	}
	return c.deriver.WIF(secret)
}

// recordResult is the single-writer result slot: the first worker to
// observe found==false under resultMu at a match site wins.
func (c *Coordinator) recordResult(secret keyderiver.Secret, address string) {
	c.resultMu.Lock()
	defer c.resultMu.Unlock()
	if c.found.Load() {
		return
	}
	c.resultSecret = secret
	c.resultAddress = address
	c.found.Store(true)
}

// maybeReportProgress checks the configured interval against the last
// emission time and, if exceeded, invokes the progress callback under
// resultMu exactly as spec.md §4.3 describes.
func (c *Coordinator) maybeReportProgress() {
	cb := c.progressCB
	if cb == nil {
		return
	}

	now := time.Now()
	last := time.Unix(0, c.lastProgressNano.Load())
	if now.Sub(last) < c.progressInterval {
		return
	}

	c.resultMu.Lock()
	defer c.resultMu.Unlock()

	last = time.Unix(0, c.lastProgressNano.Load())
	elapsed := now.Sub(last)
	if elapsed < c.progressInterval {
		return // another worker already reported this interval
	}

	attempts := c.attempts.Load()
	var rate float64
	if ms := elapsed.Milliseconds(); ms > 0 {
		rate = float64(attempts) * 1000.0 / float64(ms)
	}
	cb(attempts, rate)
	c.lastProgressNano.Store(now.UnixNano())
}
