// Package pattern compiles and evaluates the vanity-address pattern
// dialects: prefix, suffix, contains, exact, regex, wildcard, character-class
// alternation, and AND/OR composition of the above.
//
// A compiled Pattern is immutable and safe to share by reference across
// search worker goroutines.
package pattern

import (
	"fmt"
	"math"
	"strings"

	"github.com/coregx/coregex"
)

// Type identifies a pattern dialect.
type Type int

const (
	Prefix Type = iota + 1
	Suffix
	Contains
	Exact
	RegexType
	Wildcard
	Alternation
	Multi
)

func (t Type) String() string {
	switch t {
	case Prefix:
		return "prefix"
	case Suffix:
		return "suffix"
	case Contains:
		return "contains"
	case Exact:
		return "exact"
	case RegexType:
		return "regex"
	case Wildcard:
		return "wildcard"
	case Alternation:
		return "alt"
	case Multi:
		return "multi"
	default:
		return "unknown"
	}
}

// ParseType maps a CLI-facing dialect string (spec.md §6) to a Type.
func ParseType(s string) (Type, error) {
	switch s {
	case "prefix":
		return Prefix, nil
	case "suffix":
		return Suffix, nil
	case "contains":
		return Contains, nil
	case "exact":
		return Exact, nil
	case "regex":
		return RegexType, nil
	case "wildcard":
		return Wildcard, nil
	case "alt":
		return Alternation, nil
	default:
		return 0, fmt.Errorf("pattern: unknown dialect %q", s)
	}
}

// Combinator selects how Multi sub-patterns are combined.
type Combinator int

const (
	CombineAND Combinator = iota + 1
	CombineOR
)

// ParseCombinator maps the CLI -m operator string to a Combinator.
func ParseCombinator(s string) (Combinator, error) {
	switch s {
	case "and":
		return CombineAND, nil
	case "or":
		return CombineOR, nil
	default:
		return 0, fmt.Errorf("pattern: unknown combinator %q", s)
	}
}

const (
	maxLiteralLength = 64
	maxMultiCount    = 8
	maxClassSize     = 58 // base58 alphabet size
)

// base58Alphabet is used only for probability estimation.
const base58Alphabet = "123456789ABCDEFGHJKLMNPQRSTUVWXYZabcdefghijkmnopqrstuvwxyz"

const base58Len = float64(len(base58Alphabet))

type segment struct {
	text       string
	isWildcard bool
}

type charClass struct {
	chars string
}

// Pattern is a compiled, immutable matcher. The concrete payload in use is
// determined by typ, mirroring the tagged union of the reference
// implementation (gravedigger's struct Pattern).
type Pattern struct {
	typ           Type
	caseSensitive bool
	probability   float64

	// Prefix/Suffix/Contains/Exact
	literal string

	// RegexType
	re     *coregex.Regex
	reSrc  string

	// Wildcard
	segments []segment

	// Alternation
	classes []charClass

	// Multi
	subs       []*Pattern
	combinator Combinator

	released bool
}

// Compile parses text into a compiled Pattern for the given dialect. It
// returns an error for any syntax or length problem; callers must check the
// error rather than rely on a nil Pattern (Go's nil-check idiom fills the
// role of the C API's NULL-on-error contract).
func Compile(text string, typ Type, caseSensitive bool) (*Pattern, error) {
	if len(text) > maxLiteralLength {
		return nil, fmt.Errorf("pattern: input exceeds %d characters", maxLiteralLength)
	}

	switch typ {
	case Wildcard:
		return compileWildcard(text, caseSensitive)
	case Alternation:
		return CompileAlternation(text, caseSensitive)
	case Prefix, Suffix, Contains, Exact:
		if text == "" {
			return nil, fmt.Errorf("pattern: empty pattern is not supported")
		}
		return &Pattern{
			typ:           typ,
			caseSensitive: caseSensitive,
			literal:       text,
			probability:   literalProbability(typ, text),
		}, nil
	case RegexType:
		return compileRegex(text, caseSensitive)
	default:
		return nil, fmt.Errorf("pattern: invalid pattern type %v", typ)
	}
}

func literalProbability(typ Type, text string) float64 {
	p := math.Pow(1.0/base58Len, float64(len(text)))
	if typ == Contains {
		p *= 0.1
	}
	return p
}

func compileRegex(text string, caseSensitive bool) (*Pattern, error) {
	src := text
	if !caseSensitive {
		// coregex honors the inline (?i) flag (see DESIGN.md); prefixing it
		// lets the engine fold case itself instead of lower-casing the
		// source text, which would corrupt case-sensitive escapes like \D,
		// \S, \W, \B by silently inverting their meaning.
		src = "(?i)" + text
	}
	re, err := coregex.Compile(src)
	if err != nil {
		return nil, fmt.Errorf("pattern: invalid regular expression: %w", err)
	}
	return &Pattern{
		typ:           RegexType,
		caseSensitive: caseSensitive,
		re:            re,
		reSrc:         text,
		probability:   0.0,
	}, nil
}

func compileWildcard(text string, caseSensitive bool) (*Pattern, error) {
	var segs []segment
	start := 0
	for i := 0; i < len(text); i++ {
		if text[i] == '*' {
			if i > start {
				segs = append(segs, segment{text: text[start:i], isWildcard: false})
			}
			// Collapse consecutive '*' (and an empty run between two '*')
			// into a single wildcard segment.
			if len(segs) == 0 || !segs[len(segs)-1].isWildcard {
				segs = append(segs, segment{isWildcard: true})
			}
			start = i + 1
		}
	}
	if start < len(text) {
		segs = append(segs, segment{text: text[start:], isWildcard: false})
	}
	if len(segs) == 0 {
		return nil, fmt.Errorf("pattern: empty pattern is not supported")
	}

	p := &Pattern{
		typ:           Wildcard,
		caseSensitive: caseSensitive,
		segments:      segs,
	}
	p.probability = wildcardProbability(segs)
	return p, nil
}

func wildcardProbability(segs []segment) float64 {
	fixed := 0
	wildcards := 0
	for _, s := range segs {
		if s.isWildcard {
			wildcards++
		} else {
			fixed += len(s.text)
		}
	}
	prob := math.Pow(1.0/base58Len, float64(fixed))
	prob *= math.Pow(0.5, float64(wildcards))
	return prob
}

// CompileAlternation parses a pattern of the form "1[AB][12]" where each
// bracketed group is a character class that must match at the corresponding
// candidate position. A bare character outside brackets (e.g. the leading
// "1" above) is treated as an implicit singleton class matching exactly
// that character: this is the only reading under which spec.md §8's own
// worked example ("1[AB][12]" matching "1A1") is satisfiable, since the
// leading "1" must still contribute a class for match("1A1") to require
// the candidate's first byte to be '1'. Neither the plain-reject reading
// spec.md §9 open question 4 floats, nor the reference implementation's
// silent-skip-and-advance behavior, makes that example compile and match.
func CompileAlternation(text string, caseSensitive bool) (*Pattern, error) {
	if text == "" {
		return nil, fmt.Errorf("pattern: empty pattern is not supported")
	}

	var classes []charClass
	i := 0
	for i < len(text) {
		if text[i] != '[' {
			classes = append(classes, charClass{chars: text[i : i+1]})
			i++
			continue
		}
		end := strings.IndexByte(text[i:], ']')
		if end < 0 {
			return nil, fmt.Errorf("pattern: unterminated character class")
		}
		end += i
		chars := text[i+1 : end]
		if len(chars) == 0 {
			return nil, fmt.Errorf("pattern: empty character class")
		}
		if len(chars) > maxClassSize {
			return nil, fmt.Errorf("pattern: character class exceeds %d entries", maxClassSize)
		}
		classes = append(classes, charClass{chars: chars})
		i = end + 1
	}
	if len(classes) == 0 {
		return nil, fmt.Errorf("pattern: no character classes found")
	}

	p := &Pattern{
		typ:           Alternation,
		caseSensitive: caseSensitive,
		classes:       classes,
	}
	p.probability = alternationProbability(classes)
	return p, nil
}

func alternationProbability(classes []charClass) float64 {
	prob := 1.0
	for _, c := range classes {
		prob *= float64(len(c.chars)) / base58Len
	}
	return prob
}

// CompileMulti combines 1..8 sub-patterns with an AND/OR combinator. Each
// sub-pattern is compiled as Exact regardless of the caller's intent; this
// mirrors a bug in the reference implementation (gravedigger's
// pattern_compile_multi always calls pattern_compile(..., PATTERN_TYPE_EXACT,
// ...)) which spec.md §9 open question 2 directs us to preserve.
func CompileMulti(texts []string, combinator Combinator, caseSensitive bool) (*Pattern, error) {
	if len(texts) == 0 || len(texts) > maxMultiCount {
		return nil, fmt.Errorf("pattern: multi-pattern requires 1..%d sub-patterns", maxMultiCount)
	}

	subs := make([]*Pattern, 0, len(texts))
	for _, t := range texts {
		sub, err := Compile(t, Exact, caseSensitive)
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}

	p := &Pattern{
		typ:           Multi,
		caseSensitive: caseSensitive,
		subs:          subs,
		combinator:    combinator,
	}
	p.probability = multiProbability(subs, combinator)
	return p, nil
}

func multiProbability(subs []*Pattern, combinator Combinator) float64 {
	if combinator == CombineAND {
		prob := 1.0
		for _, s := range subs {
			prob *= s.probability
		}
		return prob
	}
	prob := 0.0
	for _, s := range subs {
		prob += s.probability
	}
	if prob > 1.0 {
		prob = 1.0
	}
	return prob
}

// Match reports whether candidate satisfies the pattern. Match is
// deterministic and side-effect-free; a nil or released Pattern always
// returns false.
func (p *Pattern) Match(candidate string) bool {
	if p == nil || p.released {
		return false
	}

	switch p.typ {
	case Prefix:
		return matchPrefix(p, candidate)
	case Suffix:
		return matchSuffix(p, candidate)
	case Contains:
		return matchContains(p, candidate)
	case Exact:
		return matchExact(p, candidate)
	case RegexType:
		return matchRegex(p, candidate)
	case Wildcard:
		return matchWildcard(p, candidate)
	case Alternation:
		return matchAlternation(p, candidate)
	case Multi:
		return matchMulti(p, candidate)
	default:
		return false
	}
}

func matchPrefix(p *Pattern, s string) bool {
	if len(s) < len(p.literal) {
		return false
	}
	head := s[:len(p.literal)]
	if p.caseSensitive {
		return head == p.literal
	}
	return asciiLower(head) == asciiLower(p.literal)
}

func matchSuffix(p *Pattern, s string) bool {
	if len(s) < len(p.literal) {
		return false
	}
	tail := s[len(s)-len(p.literal):]
	if p.caseSensitive {
		return tail == p.literal
	}
	return asciiLower(tail) == asciiLower(p.literal)
}

func matchContains(p *Pattern, s string) bool {
	if p.caseSensitive {
		return strings.Contains(s, p.literal)
	}
	return strings.Contains(asciiLower(s), asciiLower(p.literal))
}

func matchExact(p *Pattern, s string) bool {
	if p.caseSensitive {
		return s == p.literal
	}
	return asciiLower(s) == asciiLower(p.literal)
}

func matchRegex(p *Pattern, s string) bool {
	if p.re == nil {
		return false
	}
	// Case folding is handled by the compiled (?i) flag (see compileRegex);
	// the candidate is matched as-is.
	return p.re.MatchString(s)
}

// matchWildcard walks segments left to right exactly as gravedigger's
// match_wildcard: each literal segment must match at the current cursor;
// each wildcard skips forward to the next occurrence of the following
// literal, or (if last) accepts the remainder unconditionally.
func matchWildcard(p *Pattern, s string) bool {
	cursor := s
	fold := func(x string) string {
		if p.caseSensitive {
			return x
		}
		return asciiLower(x)
	}

	i := 0
	for i < len(p.segments) {
		seg := p.segments[i]
		if seg.isWildcard {
			if i == len(p.segments)-1 {
				return true
			}
			i++
			next := p.segments[i]
			needle := fold(next.text)
			haystack := fold(cursor)
			idx := strings.Index(haystack, needle)
			if idx < 0 {
				return false
			}
			cursor = cursor[idx+len(next.text):]
			i++
			continue
		}

		if len(cursor) < len(seg.text) || fold(cursor[:len(seg.text)]) != fold(seg.text) {
			return false
		}
		cursor = cursor[len(seg.text):]
		i++
	}

	return cursor == "" || p.segments[len(p.segments)-1].isWildcard
}

func matchAlternation(p *Pattern, s string) bool {
	if len(s) != len(p.classes) {
		return false
	}
	for i, class := range p.classes {
		c := s[i]
		if !p.caseSensitive {
			c = asciiLowerByte(c)
		}
		found := false
		for j := 0; j < len(class.chars); j++ {
			cc := class.chars[j]
			if !p.caseSensitive {
				cc = asciiLowerByte(cc)
			}
			if c == cc {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func matchMulti(p *Pattern, s string) bool {
	if p.combinator == CombineAND {
		for _, sub := range p.subs {
			if !sub.Match(s) {
				return false
			}
		}
		return true
	}
	for _, sub := range p.subs {
		if sub.Match(s) {
			return true
		}
	}
	return false
}

// Probability returns the design-time estimate of the fraction of the
// base58 address alphabet matched by p, clamped to [0, 1]. It is used only
// for benchmark ETA calculations, never for correctness.
func (p *Pattern) Probability() float64 {
	if p == nil || p.released {
		return 0
	}
	if p.probability < 0 {
		return 0
	}
	if p.probability > 1 {
		return 1
	}
	return p.probability
}

// Describe returns a short human-readable summary of the pattern, in the
// spirit of gravedigger's pattern_describe.
func (p *Pattern) Describe() string {
	if p == nil || p.released {
		return "released pattern"
	}
	switch p.typ {
	case Prefix:
		return "Prefix: " + p.literal
	case Suffix:
		return "Suffix: " + p.literal
	case Contains:
		return "Contains: " + p.literal
	case Exact:
		return "Exact: " + p.literal
	case RegexType:
		return "Regex: " + p.reSrc
	case Wildcard:
		return "Wildcard pattern"
	case Alternation:
		return "Alternation pattern"
	case Multi:
		if p.combinator == CombineAND {
			return "Multi-pattern (AND)"
		}
		return "Multi-pattern (OR)"
	default:
		return "Unknown pattern type"
	}
}

// DescribeInto writes Describe() into buf, truncating and always
// null-terminating, matching the bounded-buffer contract of
// pattern_describe(const struct Pattern *, char *buf, size_t size) in the
// reference implementation. It returns the number of bytes written
// including the terminator.
func (p *Pattern) DescribeInto(buf []byte) int {
	if len(buf) == 0 {
		return 0
	}
	s := p.Describe()
	n := len(buf) - 1
	if n > len(s) {
		n = len(s)
	}
	copy(buf, s[:n])
	buf[n] = 0
	return n + 1
}

// Release marks the pattern as no longer usable. Go's garbage collector
// reclaims the underlying memory (including the coregex engine and any
// sub-patterns) once the last reference drops; Release exists to preserve
// the explicit release(pattern) operation from spec.md §4.1 and to make a
// used-after-release Pattern fail Match rather than panic.
func (p *Pattern) Release() {
	if p == nil {
		return
	}
	p.released = true
	p.re = nil
	p.subs = nil
	p.segments = nil
	p.classes = nil
}

func asciiLower(s string) string {
	b := []byte(s)
	for i := range b {
		b[i] = asciiLowerByte(b[i])
	}
	return string(b)
}

func asciiLowerByte(c byte) byte {
	if c >= 'A' && c <= 'Z' {
		return c + ('a' - 'A')
	}
	return c
}
