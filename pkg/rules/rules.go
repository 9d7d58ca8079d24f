// Package rules models validated, ordered search-and-replace rule sets.
package rules

import (
	"fmt"
	"sort"
	"strings"
	"unicode/utf8"

	"gitlab.com/tozd/go/errors"
)

// 🔄 Rule is one search/replace pair
type Rule struct {
	Search  string // Text or pattern to find
	Replace string // Text to insert for each match
}

// 🔧 Options control how a rule set matches and orders its rules
type Options struct {
	// CaseSensitive matches exact case when true
	CaseSensitive bool
	// UseRegex treats Search values as regular expressions
	UseRegex bool
	// SortByLength applies longer search terms before shorter ones
	SortByLength bool
}

// 🏭 DefaultOptions returns the defaults used when the caller overrides nothing:
// case-sensitive, literal matching, length-descending order.
func DefaultOptions() Options {
	return Options{CaseSensitive: true, UseRegex: false, SortByLength: true}
}

// 📚 RuleSet is an immutable, validated collection of rules. Its effective
// order and compiled matchers are computed once at Build time and reused
// for every file in a run.
type RuleSet struct {
	rules    []Rule
	matchers []*Matcher
	opts     Options
}

// ❌ DuplicateSearchError reports search terms that appear more than once
// in the input. Even identical duplicate rules are rejected: a duplicate
// signals caller error and would silently double-apply.
type DuplicateSearchError struct {
	Terms []string // sorted, de-duplicated
}

func (e *DuplicateSearchError) Error() string {
	return "duplicate search terms: " + strings.Join(e.Terms, ", ")
}

// ❌ PatternError reports a search pattern that failed to compile.
type PatternError struct {
	Pattern string
	Err     error
}

func (e *PatternError) Error() string {
	return fmt.Sprintf("invalid pattern %q: %v", e.Pattern, e.Err)
}

func (e *PatternError) Unwrap() error {
	return e.Err
}

// 🏗️ Build validates, orders, and compiles a rule set. It fails before any
// file is touched: on empty or duplicate search terms, and in regex mode on
// any pattern that does not compile.
func Build(pairs []Rule, opts Options) (*RuleSet, error) {
	seen := make(map[string]int, len(pairs))
	for i, pair := range pairs {
		if pair.Search == "" {
			return nil, errors.Errorf("rule %d: search term is required", i)
		}
		seen[pair.Search]++
	}

	var dups []string
	for term, n := range seen {
		if n > 1 {
			dups = append(dups, term)
		}
	}
	if len(dups) > 0 {
		sort.Strings(dups)
		return nil, &DuplicateSearchError{Terms: dups}
	}

	ordered := make([]Rule, len(pairs))
	copy(ordered, pairs)
	if opts.SortByLength {
		// Longer, more specific terms fire first so a short term cannot
		// consume text a longer term was meant to match. Stable: equal
		// lengths keep their input order.
		sort.SliceStable(ordered, func(i, j int) bool {
			return utf8.RuneCountInString(ordered[i].Search) > utf8.RuneCountInString(ordered[j].Search)
		})
	}

	matchers := make([]*Matcher, 0, len(ordered))
	for _, rule := range ordered {
		m, err := NewMatcher(rule, opts.CaseSensitive, opts.UseRegex)
		if err != nil {
			return nil, err
		}
		matchers = append(matchers, m)
	}

	return &RuleSet{rules: ordered, matchers: matchers, opts: opts}, nil
}

// 📋 EffectiveRules returns the rules in application order.
func (rs *RuleSet) EffectiveRules() []Rule {
	out := make([]Rule, len(rs.rules))
	copy(out, rs.rules)
	return out
}

// 🔢 Len returns the number of rules in the set.
func (rs *RuleSet) Len() int {
	return len(rs.rules)
}

// 🔧 Options returns the options the set was built with.
func (rs *RuleSet) Options() Options {
	return rs.opts
}

// 🏃 Apply runs every rule in effective order over input. Each rule runs
// exactly once over the result of the previous rule; there is no fixpoint
// iteration. Returns the final content and the total replacement count.
func (rs *RuleSet) Apply(input string) (string, int) {
	content := input
	total := 0
	for _, m := range rs.matchers {
		outcome := m.Apply(content)
		content = outcome.Content
		total += outcome.Count
	}
	return content, total
}
