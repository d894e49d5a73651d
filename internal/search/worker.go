package search

import (
	"github.com/btkit/btk/internal/debuglog"
	"github.com/btkit/btk/internal/keyderiver"
)

// batchSize mirrors gravedigger's vanity.c: each worker pulls a batch of
// random key material at once rather than calling the random source once
// per candidate.
const batchSize = 16

// worker is one of a Coordinator's threadCount goroutines. It has no
// exported surface; all communication with the coordinator goes through
// atomics and the result mutex.
type worker struct {
	id    int
	coord *Coordinator
}

// run samples batches of candidate secrets until the coordinator reports
// found or stopped. A derivation failure on a single candidate is logged
// at trace level and that candidate is skipped; it never aborts the
// worker (spec.md §7).
func (w *worker) run() {
	defer w.coord.wg.Done()

	for !w.coord.found.Load() && !w.coord.stopped.Load() {
		raw, err := keyderiver.RandomBytes(32 * batchSize)
		if err != nil {
			debuglog.Errorf("worker %d: random source failed: %v", w.id, err)
			return
		}

		for i := 0; i < batchSize; i++ {
			if w.coord.found.Load() || w.coord.stopped.Load() {
				break
			}

			chunk := raw[i*32 : (i+1)*32]
			secret, err := keyderiver.ImportSecret(chunk, true)
			if err != nil {
				debuglog.Tracef("worker %d: secret out of range, skipped: %v", w.id, err)
				continue
			}

			address, err := w.coord.deriver.Address(secret)
			if err != nil {
				debuglog.Tracef("worker %d: derivation failed, skipped: %v", w.id, err)
				continue
			}

			w.coord.attempts.Add(1)

			if len(address) < 2 {
				continue
			}
			candidate := address[1:] // version byte stripped before matching, spec.md §4.2
			if w.coord.compiledPattern.Match(candidate) {
				w.coord.recordResult(secret, address)
				break
			}
		}

		w.coord.maybeReportProgress()
	}
}
