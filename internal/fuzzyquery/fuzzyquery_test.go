package fuzzyquery

import "testing"

func TestParseEmptyQuery(t *testing.T) {
	q := Parse("")
	if !q.Empty() {
		t.Error("empty query should report Empty()")
	}
	_, matched := q.Score("anything")
	if !matched {
		t.Error("empty query should match everything")
	}

	q = Parse("   ")
	if !q.Empty() {
		t.Error("whitespace-only query should report Empty()")
	}
}

func TestScoreTermKinds(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		want      bool
	}{
		{"fuzzy match", "abc", "axbycz", true},
		{"fuzzy no match", "xyz", "abcdef", false},
		{"exact substring match", "'mid", "the middle ground", true},
		{"exact substring no match", "'zzz", "the middle ground", false},
		{"prefix match", "^the", "the quick fox", true},
		{"prefix no match", "^quick", "the quick fox", false},
		{"suffix match", "fox$", "the quick fox", true},
		{"suffix no match", "the$", "the quick fox", false},
		{"negated fuzzy matches when absent", "!xyz", "abcdef", true},
		{"negated fuzzy fails when present", "!abc", "abcdef", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Parse(tt.query)
			_, matched := q.Score(tt.candidate)
			if matched != tt.want {
				t.Errorf("query=%q candidate=%q: got %v, want %v", tt.query, tt.candidate, matched, tt.want)
			}
		})
	}
}

func TestAndOrPrecedence(t *testing.T) {
	tests := []struct {
		name      string
		query     string
		candidate string
		want      bool
	}{
		{"AND satisfied", "quick fox", "the quick brown fox", true},
		{"AND partial fail", "quick cat", "the quick brown fox", false},
		{"OR first matches", "fox | cat", "the quick brown fox", true},
		{"OR second matches", "fox | cat", "the lazy house cat", true},
		{"OR neither matches", "fox | cat", "the slow brown dog", false},
		{"OR-AND first group", "quick fox | lazy dog", "the quick brown fox", true},
		{"OR-AND second group", "quick fox | lazy dog", "the lazy old dog", true},
		{"OR-AND no group satisfied", "quick fox | lazy dog", "the slow brown cat", false},
		{"bare pipe is not OR", "foo|bar", "foo|bar exact text", true},
		{"negation inside AND group", "!bad good | nice", "good morning", true},
		{"negation blocks AND group, OR falls through", "!bad good | nice", "nice day", true},
		{"negation blocks AND group entirely", "!bad good | nice", "bad good", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := Parse(tt.query)
			_, matched := q.Score(tt.candidate)
			if matched != tt.want {
				t.Errorf("query=%q candidate=%q: got %v, want %v", tt.query, tt.candidate, matched, tt.want)
			}
		})
	}
}

func TestRankBySelfOrdersBestFirstAndDropsNonMatches(t *testing.T) {
	q := Parse("fox")
	candidates := []string{"no match here", "a fox ran", "the quick fox jumped", "foxfoxfox"}
	ranked := RankBySelf(q, candidates)

	if len(ranked) != 3 {
		t.Fatalf("expected 3 matches, got %d: %v", len(ranked), ranked)
	}
	for _, r := range ranked {
		if r == "no match here" {
			t.Fatalf("non-matching candidate leaked into ranked output: %v", ranked)
		}
	}
}

func TestRankBySelfEmptyQueryReturnsAll(t *testing.T) {
	q := Parse("")
	candidates := []string{"a", "b", "c"}
	ranked := RankBySelf(q, candidates)
	if len(ranked) != len(candidates) {
		t.Fatalf("expected all %d candidates, got %d", len(candidates), len(ranked))
	}
}

func TestCaseSensitivityFollowsPatternCase(t *testing.T) {
	lower := Parse("fox")
	if _, matched := lower.Score("THE QUICK FOX"); !matched {
		t.Error("lowercase query should match case-insensitively")
	}

	upper := Parse("Fox")
	if _, matched := upper.Score("the quick fox"); matched {
		t.Error("a query with an uppercase letter should match case-sensitively and fail here")
	}
	if _, matched := upper.Score("the quick Fox"); !matched {
		t.Error("a query with an uppercase letter should still match the exact case")
	}
}
