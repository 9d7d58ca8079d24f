package rules

import (
	"regexp"
	"strings"
)

// 🎯 MatchOutcome is the result of applying one rule to one input string.
type MatchOutcome struct {
	Content string // input with all matches substituted
	Count   int    // number of non-overlapping matches substituted
}

// matchMode selects the substitution strategy for one prepared rule.
type matchMode int

const (
	modeLiteral matchMode = iota // case-sensitive substring replacement
	modeFold                     // case-insensitive literal via escaped pattern
	modePattern                  // regular expression
)

// 🔍 Matcher applies a single prepared rule to input strings.
type Matcher struct {
	rule     Rule
	mode     matchMode
	pattern  *regexp.Regexp // compiled pattern for modeFold and modePattern
	template string         // replacement template for modePattern
}

// 🏭 NewMatcher prepares one rule for application. Patterns are compiled
// here, not lazily, so a bad pattern surfaces before any file is touched.
func NewMatcher(rule Rule, caseSensitive, useRegex bool) (*Matcher, error) {
	m := &Matcher{rule: rule}
	switch {
	case !useRegex && caseSensitive:
		m.mode = modeLiteral
	case !useRegex:
		// Escaping metacharacters guarantees literal semantics even when
		// the search text contains regex-special characters.
		re, err := regexp.Compile("(?i)" + regexp.QuoteMeta(rule.Search))
		if err != nil {
			return nil, &PatternError{Pattern: rule.Search, Err: err}
		}
		m.mode = modeFold
		m.pattern = re
	default:
		expr := rule.Search
		if !caseSensitive {
			expr = "(?i)" + expr
		}
		re, err := regexp.Compile(expr)
		if err != nil {
			return nil, &PatternError{Pattern: rule.Search, Err: err}
		}
		m.mode = modePattern
		m.pattern = re
		m.template = expandBackrefs(rule.Replace)
	}
	return m, nil
}

// 📏 Rule returns the rule this matcher was prepared from.
func (m *Matcher) Rule() Rule {
	return m.rule
}

// 🏃 Apply substitutes every non-overlapping match left to right and
// reports the substituted string plus the match count. The replacement
// text is inserted verbatim in both literal modes; capture references
// are expanded only in regex mode.
func (m *Matcher) Apply(input string) MatchOutcome {
	switch m.mode {
	case modeLiteral:
		count := strings.Count(input, m.rule.Search)
		if count == 0 {
			return MatchOutcome{Content: input}
		}
		return MatchOutcome{
			Content: strings.ReplaceAll(input, m.rule.Search, m.rule.Replace),
			Count:   count,
		}
	case modeFold:
		count := len(m.pattern.FindAllStringIndex(input, -1))
		if count == 0 {
			return MatchOutcome{Content: input}
		}
		return MatchOutcome{
			Content: m.pattern.ReplaceAllLiteralString(input, m.rule.Replace),
			Count:   count,
		}
	default:
		count := len(m.pattern.FindAllStringIndex(input, -1))
		if count == 0 {
			return MatchOutcome{Content: input}
		}
		return MatchOutcome{
			Content: m.pattern.ReplaceAllString(input, m.template),
			Count:   count,
		}
	}
}

// expandBackrefs rewrites \N capture references into the ${N} form the
// regexp package expands, and doubles $ so literal dollars in the
// replacement survive expansion. \\ collapses to a single backslash.
func expandBackrefs(replace string) string {
	var b strings.Builder
	b.Grow(len(replace))
	for i := 0; i < len(replace); i++ {
		c := replace[i]
		switch {
		case c == '$':
			b.WriteString("$$")
		case c == '\\' && i+1 < len(replace):
			next := replace[i+1]
			if next >= '0' && next <= '9' {
				j := i + 1
				for j < len(replace) && replace[j] >= '0' && replace[j] <= '9' {
					j++
				}
				b.WriteString("${")
				b.WriteString(replace[i+1 : j])
				b.WriteString("}")
				i = j - 1
			} else {
				b.WriteByte(next)
				i++
			}
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
