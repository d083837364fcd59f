// Package rules implements content matching rules used to decide which
// style a paragraph should receive.
package rules

import (
	"strings"
	"unicode/utf8"
)

// Rule is a pure predicate over paragraph text plus the name of the style a
// matching paragraph should receive. Implementations must not keep state
// between calls.
//
// A rule does not know whether its target style actually exists in the
// destination document - that is checked at application time.
type Rule interface {
	Target() string
	Match(text string) bool
}

type universal struct {
	target string
}

// Universal matches every paragraph.
func Universal(target string) Rule {
	return universal{target: target}
}

func (r universal) Target() string { return r.target }

func (r universal) Match(string) bool { return true }

type keyword struct {
	target  string
	keyword string
}

// Keyword matches paragraphs containing the keyword, case-insensitively.
func Keyword(target, word string) Rule {
	return keyword{target: target, keyword: strings.ToLower(word)}
}

func (r keyword) Target() string { return r.target }

func (r keyword) Match(text string) bool {
	return strings.Contains(strings.ToLower(text), r.keyword)
}

type length struct {
	target   string
	maxChars int
}

// Length matches paragraphs whose trimmed text is non-empty and at most
// maxChars characters long. Useful to tell short headings from body text.
func Length(target string, maxChars int) Rule {
	return length{target: target, maxChars: maxChars}
}

func (r length) Target() string { return r.target }

func (r length) Match(text string) bool {
	t := strings.TrimSpace(text)
	n := utf8.RuneCountInString(t)
	return n > 0 && n <= r.maxChars
}

// Classify evaluates rules in list order against the paragraph text and
// returns the target of the first rule that matches. Order of the rule list
// is load bearing - callers must supply rules most specific first. Text that
// is empty after trimming never matches.
func Classify(text string, rules []Rule) (string, bool) {
	if len(strings.TrimSpace(text)) == 0 {
		return "", false
	}
	for _, r := range rules {
		if r.Match(text) {
			return r.Target(), true
		}
	}
	return "", false
}
