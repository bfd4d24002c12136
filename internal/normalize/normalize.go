// Package normalize turns free-text categorical values into canonical form:
// company-name cleanup with legal-word removal and alias lookup, ordered
// rewrite rules for the other categorical columns, and the country collapse
// that lets search locations share the country id space.
//
// Every function here is pure and total: any input string maps to some
// output and nothing is retained between calls.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/jonathan/data-jobs-etl/internal/rules"
	"github.com/jonathan/data-jobs-etl/internal/types"
)

// zeroWidth matches invisible characters that appear in scraped names.
var zeroWidth = runes.Predicate(func(r rune) bool {
	switch r {
	case '\u200b', '\u200c', '\u200d', '\u2060', '\ufeff':
		return true
	}
	return false
})

// Clean composes the value to NFC, drops zero-width characters and trims
// surrounding whitespace.
func Clean(s string) string {
	t := transform.Chain(norm.NFC, runes.Remove(zeroWidth))
	out, _, err := transform.String(t, s)
	if err != nil {
		out = s
	}
	return strings.TrimSpace(out)
}

// orNull maps an empty value to the NULL sentinel.
func orNull(s string) string {
	if s == "" {
		return types.NullValue
	}
	return s
}

// CompanyNormalizer canonicalizes company names.
type CompanyNormalizer struct {
	legal   map[string]struct{}
	aliases []rules.Alias
	match   rules.AliasMatch
	pre     *Rewriter
	post    *Rewriter
}

// NewCompanyNormalizer builds a normalizer from company rules. The rules are
// copied; later changes to cfg have no effect.
func NewCompanyNormalizer(cfg rules.CompanyRules) *CompanyNormalizer {
	legal := make(map[string]struct{}, len(cfg.LegalWords))
	for _, w := range cfg.LegalWords {
		legal[w] = struct{}{}
	}
	match := cfg.AliasMatch
	if match == "" {
		match = rules.AliasMatchDeclared
	}
	return &CompanyNormalizer{
		legal:   legal,
		aliases: append([]rules.Alias(nil), cfg.Aliases...),
		match:   match,
		pre:     NewRewriter(cfg.Pre),
		post:    NewRewriter(cfg.Post),
	}
}

// Normalize applies, in order: lowercasing, whole-word removal of legal
// words, removal of punctuation other than '&', alias lookup by substring
// and, when no alias matches, whitespace collapse plus title casing.
// Legal words are removed again after punctuation is stripped, since dotted
// forms such as "L.L.C." only become whole words then.
// The result may be empty.
func (n *CompanyNormalizer) Normalize(raw string) string {
	name := strings.ToLower(raw)
	name = n.removeLegalWords(name)
	name = stripPunctuation(name)
	name = n.removeLegalWords(name)

	if canonical, ok := n.lookupAlias(name); ok {
		return canonical
	}

	name = strings.Join(strings.Fields(name), " ")
	return cases.Title(language.Und).String(name)
}

// Canonical is the full company canonicalization used as a dimension key:
// Clean, pre rewrites, Normalize, post rewrites, and NULL for an empty
// result. The NULL sentinel maps to itself.
func (n *CompanyNormalizer) Canonical(raw string) string {
	name := Clean(raw)
	if name == types.NullValue {
		return types.NullValue
	}
	name = n.Normalize(n.pre.Apply(name))
	name = n.post.Apply(name)
	return orNull(name)
}

// removeLegalWords drops every maximal word run (letters, digits and '_')
// that equals a legal word. Everything else is copied unchanged.
func (n *CompanyNormalizer) removeLegalWords(s string) string {
	if len(n.legal) == 0 {
		return s
	}
	var sb strings.Builder
	sb.Grow(len(s))
	start := -1
	flush := func(end int) {
		word := s[start:end]
		if _, ok := n.legal[word]; !ok {
			sb.WriteString(word)
		}
		start = -1
	}
	for i, r := range s {
		if isWordRune(r) {
			if start < 0 {
				start = i
			}
			continue
		}
		if start >= 0 {
			flush(i)
		}
		sb.WriteRune(r)
	}
	if start >= 0 {
		flush(len(s))
	}
	return sb.String()
}

func (n *CompanyNormalizer) lookupAlias(name string) (string, bool) {
	best := -1
	for i, a := range n.aliases {
		if !strings.Contains(name, a.Pattern) {
			continue
		}
		if n.match == rules.AliasMatchDeclared {
			return a.Canonical, true
		}
		if best < 0 || len(a.Pattern) > len(n.aliases[best].Pattern) {
			best = i
		}
	}
	if best < 0 {
		return "", false
	}
	return n.aliases[best].Canonical, true
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}

// stripPunctuation keeps word runes, whitespace and '&'.
func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if isWordRune(r) || unicode.IsSpace(r) || r == '&' {
			return r
		}
		return -1
	}, s)
}
