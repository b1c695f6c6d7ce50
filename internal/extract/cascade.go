package extract

import "regexp"

// Matcher finds the first candidate in a text and returns its submatches,
// or nil when there is none.
type Matcher func(text string) []string

// Pattern adapts a compiled regular expression into a Matcher.
func Pattern(re *regexp.Regexp) Matcher {
	return re.FindStringSubmatch
}

// Rule is one step of a cascade: a matcher plus the check that turns its
// match into a value.
type Rule[T any] struct {
	Name   string
	Match  Matcher
	Accept func(match []string) (T, bool)
}

// Cascade is an ordered list of rules, most reliable first.
type Cascade[T any] []Rule[T]

// Run applies the rules in order and returns the first accepted value with
// the name of the rule that produced it. A rule whose match is rejected does
// not stop the cascade.
func (c Cascade[T]) Run(text string) (T, string, bool) {
	var zero T
	for _, r := range c {
		m := r.Match(text)
		if m == nil {
			continue
		}
		if v, ok := r.Accept(m); ok {
			return v, r.Name, true
		}
	}
	return zero, "", false
}
