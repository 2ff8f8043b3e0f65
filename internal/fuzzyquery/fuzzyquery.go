// Package fuzzyquery wraps junegunn/fzf's scoring engine into a small
// reusable query type: parse once, score many candidates. Shared by
// internal/history (FuzzySearch ranking) and internal/completion
// (candidate pre-filtering ahead of the mandated deterministic sort).
package fuzzyquery

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/junegunn/fzf/src/algo"
	"github.com/junegunn/fzf/src/util"
)

func init() {
	algo.Init("default")
}

var slab = util.MakeSlab(100*1024, 2048)

// Query is a pre-parsed fuzzy query.
//
// Syntax: "foo" fuzzy subsequence, "'foo" exact substring, "^foo" prefix,
// "foo$" suffix, "!foo" negated, "a b" AND, "a | b" OR.
type Query struct {
	groups []group
}

type group struct {
	terms []term
}

type termKind int

const (
	fuzzy termKind = iota
	exact
	prefix
	suffix
)

type term struct {
	pattern       string
	patRunes      []rune
	kind          termKind
	negated       bool
	caseSensitive bool
}

// Parse parses a raw query string into a reusable Query.
func Parse(raw string) Query {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Query{}
	}

	var q Query
	rest := raw
	for {
		idx := strings.Index(rest, " | ")
		var part string
		if idx < 0 {
			part = rest
		} else {
			part = rest[:idx]
		}
		part = strings.TrimSpace(part)
		if part != "" {
			g := parseGroup(part)
			if len(g.terms) > 0 {
				q.groups = append(q.groups, g)
			}
		}
		if idx < 0 {
			break
		}
		rest = rest[idx+3:]
	}
	return q
}

// Empty reports whether the query has no terms (matches everything).
func (q Query) Empty() bool { return len(q.groups) == 0 }

func parseGroup(part string) group {
	var g group
	start := -1
	for i := 0; i <= len(part); i++ {
		isSpace := i < len(part) && (part[i] == ' ' || part[i] == '\t')
		atEnd := i == len(part)
		if start < 0 {
			if !isSpace && !atEnd {
				start = i
			}
		} else if isSpace || atEnd {
			g.terms = append(g.terms, parseTerm(part[start:i]))
			start = -1
		}
	}
	return g
}

func parseTerm(tok string) term {
	t := term{kind: fuzzy}

	if len(tok) > 1 && tok[0] == '!' {
		t.negated = true
		tok = tok[1:]
	}
	if len(tok) > 1 && tok[0] == '\'' {
		t.kind = exact
		tok = tok[1:]
	} else if len(tok) > 1 && tok[0] == '^' {
		t.kind = prefix
		tok = tok[1:]
	} else if len(tok) > 1 && tok[len(tok)-1] == '$' {
		t.kind = suffix
		tok = tok[:len(tok)-1]
	}

	t.caseSensitive = hasUppercase(tok)
	if !t.caseSensitive {
		tok = strings.ToLower(tok)
	}
	t.pattern = tok
	t.patRunes = []rune(tok)
	return t
}

func hasUppercase(s string) bool {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if unicode.IsUpper(r) {
			return true
		}
		i += size
	}
	return false
}

// Score scores candidate against the query. Higher is better. The second
// return reports whether candidate matched at all.
func (q Query) Score(candidate string) (int, bool) {
	if len(q.groups) == 0 {
		return 0, true
	}
	best := -1
	matched := false
	for i := range q.groups {
		score, ok := q.groups[i].score(candidate)
		if ok && score > best {
			matched = true
			best = score
		}
	}
	return best, matched
}

func (g *group) score(candidate string) (int, bool) {
	total := 0
	for i := range g.terms {
		score, ok := g.terms[i].score(candidate)
		if !ok {
			return 0, false
		}
		total += score
	}
	return total, true
}

func (t *term) score(candidate string) (int, bool) {
	chars := util.ToChars([]byte(candidate))

	var algoFn func(bool, bool, bool, *util.Chars, []rune, bool, *util.Slab) (algo.Result, *[]int)
	switch t.kind {
	case exact:
		algoFn = algo.ExactMatchNaive
	case prefix:
		algoFn = algo.PrefixMatch
	case suffix:
		algoFn = algo.SuffixMatch
	default:
		algoFn = algo.FuzzyMatchV2
	}

	result, _ := algoFn(t.caseSensitive, false, true, &chars, t.patRunes, false, slab)
	matched := result.Start >= 0

	if t.negated {
		return 0, !matched
	}
	if !matched {
		return 0, false
	}
	return result.Score, true
}

// RankBySelf ranks candidates by Score against a query, best first, stable
// on ties. Candidates that don't match are dropped.
func RankBySelf(q Query, candidates []string) []string {
	type scored struct {
		text  string
		score int
	}
	matches := make([]scored, 0, len(candidates))
	for _, c := range candidates {
		score, ok := q.Score(c)
		if ok {
			matches = append(matches, scored{c, score})
		}
	}
	for i := 1; i < len(matches); i++ {
		j := i
		for j > 0 && matches[j].score > matches[j-1].score {
			matches[j], matches[j-1] = matches[j-1], matches[j]
			j--
		}
	}
	out := make([]string, len(matches))
	for i, m := range matches {
		out[i] = m.text
	}
	return out
}
