// Package benchmark runs a fixed-duration vanity search to measure
// throughput, CPU usage, and memory usage, and estimates time-to-match
// from a pattern's probability. Grounded in gravedigger's mods/benchmark.c.
package benchmark

import (
	"fmt"
	"syscall"
	"time"

	"github.com/fatih/color"

	"github.com/btkit/btk/internal/keyderiver"
	"github.com/btkit/btk/internal/pattern"
	"github.com/btkit/btk/internal/search"
)

// Result holds the measurements of a single benchmark run, mirroring
// gravedigger's benchmark_result_t.
type Result struct {
	ThreadCount    int
	KeysPerSecond  uint64
	TotalKeys      uint64
	ElapsedSeconds float64
	CPUPercent     float64
	MemoryBytes    uint64
}

// resourceUsage reads the process's own cumulative CPU time and peak RSS,
// the Go equivalent of getrusage(RUSAGE_SELF, ...) in benchmark.c.
func resourceUsage() (cpuSeconds float64, maxRSSBytes uint64) {
	var ru syscall.Rusage
	if err := syscall.Getrusage(syscall.RUSAGE_SELF, &ru); err != nil {
		return 0, 0
	}
	user := float64(ru.Utime.Sec) + float64(ru.Utime.Usec)/1e6
	sys := float64(ru.Stime.Sec) + float64(ru.Stime.Usec)/1e6
	// ru_maxrss is kilobytes on Linux.
	return user + sys, uint64(ru.Maxrss) * 1024
}

// Run drives a Coordinator for duration, then reports throughput, CPU
// usage, and peak memory. KeysPerSecond is the rate from the latest
// progress callback, sampled every second as benchmark_run's
// vanity_set_progress_callback(..., 1000) does, so a run shorter than one
// second reports 0; TotalKeys is the coordinator's attempt count once the
// workers are stopped. p is not released and stays usable by the caller.
func Run(p *pattern.Pattern, caseSensitive bool, duration time.Duration, threadCount int, deriver *keyderiver.Deriver) (*Result, error) {
	if p == nil {
		return nil, fmt.Errorf("benchmark: pattern must not be nil")
	}
	if duration <= 0 {
		return nil, fmt.Errorf("benchmark: duration must be positive")
	}

	coord, err := search.New(p, caseSensitive, threadCount, deriver)
	if err != nil {
		return nil, fmt.Errorf("benchmark: failed to initialize search: %w", err)
	}

	result := &Result{ThreadCount: threadCount}

	_ = coord.SetProgressCallback(func(attempts uint64, rate float64) {
		result.TotalKeys = attempts
		result.KeysPerSecond = uint64(rate)
	}, 1000)

	startCPU, _ := resourceUsage()
	start := time.Now()

	if err := coord.Start(); err != nil {
		coord.Stop()
		return nil, fmt.Errorf("benchmark: failed to start search: %w", err)
	}

	time.Sleep(duration)
	coord.Stop()

	elapsed := time.Since(start).Seconds()
	endCPU, maxRSS := resourceUsage()

	result.TotalKeys = coord.Attempts()
	result.ElapsedSeconds = elapsed
	if elapsed > 0 {
		result.CPUPercent = ((endCPU - startCPU) / elapsed) * 100.0
	}
	result.MemoryBytes = maxRSS

	// Cleanup is not called: it releases the pattern, which the caller
	// still uses for PrintResults and for the search that follows.
	return result, nil
}

// EstimateTime returns the expected seconds to find one match at
// keysPerSecond across threadCount workers, following gravedigger's
// benchmark_estimate_time: expected attempts is 1/probability, divided by
// aggregate throughput. Regex patterns have probability 0 and this
// returns 0 (undefined), matching the original.
func EstimateTime(p *pattern.Pattern, threadCount int, keysPerSecond uint64) float64 {
	if p == nil || keysPerSecond == 0 {
		return 0
	}
	prob := p.Probability()
	if prob <= 0.0 {
		return 0
	}
	attemptsNeeded := 1.0 / prob
	return attemptsNeeded / (float64(keysPerSecond) * float64(threadCount))
}

// PrintResults writes a colorized human-readable summary to stdout,
// mirroring benchmark_print_results's layout and its estimated-time unit
// thresholds (seconds / minutes / hours / days).
func PrintResults(result *Result, p *pattern.Pattern, patternText string) {
	if result == nil || p == nil {
		return
	}

	bold := color.New(color.Bold)
	bold.Println("\nBenchmark Results:")
	fmt.Println("----------------")
	fmt.Printf("Pattern: %s\n", patternText)
	fmt.Printf("Threads: %d\n", result.ThreadCount)
	color.Green("Performance: %d keys/second", result.KeysPerSecond)
	fmt.Printf("CPU Usage: %.1f%%\n", result.CPUPercent)
	fmt.Printf("Memory Usage: %.1f MB\n", float64(result.MemoryBytes)/(1024.0*1024.0))

	estSeconds := EstimateTime(p, result.ThreadCount, result.KeysPerSecond)
	if estSeconds > 0.0 {
		switch {
		case estSeconds < 60:
			fmt.Printf("Estimated time to match: %.1f seconds\n", estSeconds)
		case estSeconds < 3600:
			fmt.Printf("Estimated time to match: %.1f minutes\n", estSeconds/60)
		case estSeconds < 86400:
			fmt.Printf("Estimated time to match: %.1f hours\n", estSeconds/3600)
		default:
			fmt.Printf("Estimated time to match: %.1f days\n", estSeconds/86400)
		}
	}
	fmt.Println()
}
