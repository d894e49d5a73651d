package main

import "testing"

func resetFlags() {
	flagCaseInsensitive = false
	flagDialect = "prefix"
	flagCombinator = ""
}

// TestBuildPatternSingleArgUsesDialectFlag verifies that a single pattern
// argument compiles under the dialect named by -p.
func TestBuildPatternSingleArgUsesDialectFlag(t *testing.T) {
	resetFlags()
	defer resetFlags()

	flagDialect = "suffix"
	p, err := buildPattern([]string{"xyz"})
	if err != nil {
		t.Fatalf("buildPattern: %v", err)
	}
	defer p.Release()

	if !p.Match("1abcxyz") {
		t.Error("expected suffix pattern compiled from -p to match")
	}
	if p.Match("1xyzabc") {
		t.Error("expected suffix pattern not to match a non-suffix string")
	}
}

// TestBuildPatternRejectsOverlongPattern verifies the coordinator's
// 16-character validator is applied at the dispatch front too.
func TestBuildPatternRejectsOverlongPattern(t *testing.T) {
	resetFlags()
	defer resetFlags()

	if _, err := buildPattern([]string{"thisPatternIsWayTooLong"}); err == nil {
		t.Error("expected error for an overlong single pattern")
	}
}

// TestBuildPatternRequiresCombinatorForMultipleArgs verifies multiple
// positional patterns are rejected without -m.
func TestBuildPatternRequiresCombinatorForMultipleArgs(t *testing.T) {
	resetFlags()
	defer resetFlags()

	if _, err := buildPattern([]string{"ABC", "XYZ"}); err == nil {
		t.Error("expected error when multiple patterns are given without -m")
	}
}

// TestBuildPatternMultiCombinesWithCombinatorFlag verifies -m selects
// Multi and combines the positional patterns.
func TestBuildPatternMultiCombinesWithCombinatorFlag(t *testing.T) {
	resetFlags()
	defer resetFlags()

	flagCombinator = "and"
	flagCaseInsensitive = true
	p, err := buildPattern([]string{"ABC", "XYZ"})
	if err != nil {
		t.Fatalf("buildPattern: %v", err)
	}
	defer p.Release()

	if !p.Match("abcXYZq") {
		t.Error("expected AND-combined multi pattern to match")
	}
	if p.Match("abcq") {
		t.Error("expected AND-combined multi pattern to fail when one sub-pattern is absent")
	}
}

// TestBuildPatternAltDialectUsesCharacterClasses verifies -p alt routes
// through CompileAlternation rather than the literal Compile path.
func TestBuildPatternAltDialectUsesCharacterClasses(t *testing.T) {
	resetFlags()
	defer resetFlags()

	flagDialect = "alt"
	p, err := buildPattern([]string{"[Aa][Bb]"})
	if err != nil {
		t.Fatalf("buildPattern: %v", err)
	}
	defer p.Release()

	if !p.Match("ab") || !p.Match("AB") {
		t.Error("expected alternation pattern to match both case variants")
	}
	if p.Match("abc") {
		t.Error("expected alternation pattern to reject a longer candidate")
	}
}
