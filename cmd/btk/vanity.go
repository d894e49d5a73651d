package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/btkit/btk/internal/benchmark"
	"github.com/btkit/btk/internal/keyderiver"
	"github.com/btkit/btk/internal/pattern"
	"github.com/btkit/btk/internal/search"
)

// benchmarkDuration is how long `-b` runs before reporting a projected ETA
// and prompting to continue. Not named by the CLI surface; gravedigger's
// own benchmark mode is driven by a caller-supplied duration, so a fixed
// default is picked here rather than adding an unlisted flag.
const benchmarkDuration = 5 * time.Second

var (
	flagCaseInsensitive bool
	flagThreads         int
	flagDialect         string
	flagCombinator      string
	flagBenchmark       bool
	flagTestnet         bool
)

// processExitCode carries the exit status spec.md §6 assigns per outcome
// (0 found, 1 concluded without match / benchmark declined, 255 fatal
// error) out of RunE, whose own error return is reserved for the fatal
// case so cobra's usage/error printing stays limited to real failures.
var processExitCode int

var (
	bold   = color.New(color.Bold)
	green  = color.New(color.FgGreen, color.Bold)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
)

var vanityCmd = &cobra.Command{
	Use:   "vanity [-i] [-t N] [-p TYPE] [-m OP] [-b] <pattern>...",
	Short: "Search for a Bitcoin private key whose P2PKH address matches a pattern",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runVanity,
}

func init() {
	vanityCmd.Flags().BoolVarP(&flagCaseInsensitive, "case-insensitive", "i", false, "case-insensitive match (default: sensitive)")
	vanityCmd.Flags().IntVarP(&flagThreads, "threads", "t", runtime.NumCPU(), "thread count")
	vanityCmd.Flags().StringVarP(&flagDialect, "pattern-type", "p", "prefix", "pattern dialect: prefix|suffix|contains|exact|regex|wildcard|alt")
	vanityCmd.Flags().StringVarP(&flagCombinator, "combinator", "m", "", "combinator for multiple patterns (and|or); selects Multi")
	vanityCmd.Flags().BoolVarP(&flagBenchmark, "benchmark", "b", false, "run a benchmark before searching; prompt Y/n to proceed")
	vanityCmd.Flags().BoolVar(&flagTestnet, "testnet", false, "derive testnet addresses instead of mainnet")
}

func runVanity(cmd *cobra.Command, args []string) error {
	compiled, err := buildPattern(args)
	if err != nil {
		return err
	}
	defer compiled.Release()

	network := keyderiver.Mainnet
	if flagTestnet {
		network = keyderiver.Testnet
	}
	deriver := keyderiver.New(network)

	caseSensitive := !flagCaseInsensitive

	printBanner(args, caseSensitive, network.Name)

	if flagBenchmark {
		proceed, err := runBenchmarkPrompt(compiled, caseSensitive, deriver)
		if err != nil {
			return err
		}
		if !proceed {
			fmt.Println("aborted")
			processExitCode = 1
			return nil
		}
	}

	coord, err := search.New(compiled, caseSensitive, flagThreads, deriver)
	if err != nil {
		return fmt.Errorf("failed to initialize search: %w", err)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_ = coord.SetProgressCallback(func(attempts uint64, rate float64) {
		fmt.Printf("\r\033[KAttempts: %d (%.2fK/s)", attempts, rate/1000.0)
	}, 250)

	if err := coord.Start(); err != nil {
		coord.Cleanup()
		return fmt.Errorf("failed to start search: %w", err)
	}

	go func() {
		<-ctx.Done()
		coord.Stop()
	}()

	for !coord.IsFound() && !coord.IsStopped() {
		time.Sleep(100 * time.Millisecond)
	}
	coord.Stop()

	fmt.Println()

	if !coord.IsFound() {
		yellow.Println("search interrupted, no match found")
		coord.Cleanup()
		processExitCode = 1
		return nil
	}

	address, err := coord.Address()
	if err != nil {
		coord.Cleanup()
		return err
	}
	wif, err := coord.WIF()
	if err != nil {
		coord.Cleanup()
		return err
	}
	coord.Cleanup()

	green.Println("\nFound matching address!")
	bold.Printf("  Address: ")
	fmt.Println(address)
	bold.Printf("  Private key (WIF): ")
	red.Println(wif)
	fmt.Printf("  Attempts: %d  Elapsed: %s\n", coord.Attempts(), time.Duration(coord.ElapsedMillis())*time.Millisecond)

	return nil
}

// buildPattern maps the -p/-m flags and positional pattern arguments onto
// the Pattern compiler, mirroring spec.md §6's CLI surface: multiple
// pattern arguments require -m and compile as Multi (each sub-pattern
// compiled as Exact regardless of -p, per spec.md §9.2); a single argument
// compiles under the dialect named by -p.
func buildPattern(args []string) (*pattern.Pattern, error) {
	caseSensitive := !flagCaseInsensitive

	if flagCombinator != "" {
		combinator, err := pattern.ParseCombinator(flagCombinator)
		if err != nil {
			return nil, fmt.Errorf("-m: %w", err)
		}
		for _, a := range args {
			if err := search.ValidatePatternText(a); err != nil {
				return nil, err
			}
		}
		return pattern.CompileMulti(args, combinator, caseSensitive)
	}

	if len(args) != 1 {
		return nil, fmt.Errorf("multiple patterns require -m to select a combinator")
	}

	if err := search.ValidatePatternText(args[0]); err != nil {
		return nil, err
	}

	typ, err := pattern.ParseType(flagDialect)
	if err != nil {
		return nil, fmt.Errorf("-p: %w", err)
	}

	if typ == pattern.Alternation {
		return pattern.CompileAlternation(args[0], caseSensitive)
	}
	return pattern.Compile(args[0], typ, caseSensitive)
}

func printBanner(args []string, caseSensitive bool, networkName string) {
	bold.Println("btk vanity")
	cyan.Printf("pattern: %s  dialect: %s  case-sensitive: %v  threads: %d  network: %s\n",
		strings.Join(args, " "), flagDialect, caseSensitive, flagThreads, networkName)
}

// runBenchmarkPrompt runs a fixed-duration benchmark, prints throughput and
// a projected ETA, and asks the operator to confirm before the real search
// begins (spec.md §6's `-b` flag, SPEC_FULL.md §7).
func runBenchmarkPrompt(p *pattern.Pattern, caseSensitive bool, deriver *keyderiver.Deriver) (bool, error) {
	fmt.Printf("running %s benchmark...\n", benchmarkDuration)
	result, err := benchmark.Run(p, caseSensitive, benchmarkDuration, flagThreads, deriver)
	if err != nil {
		return false, fmt.Errorf("benchmark failed: %w", err)
	}
	benchmark.PrintResults(result, p, p.Describe())

	fmt.Print("proceed with search? [Y/n] ")
	reader := bufio.NewReader(os.Stdin)
	line, _ := reader.ReadString('\n')
	line = strings.TrimSpace(strings.ToLower(line))
	return line == "" || line == "y" || line == "yes", nil
}
