package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gitlab.com/tozd/go/errors"
)

func TestBuild_DuplicateSearchTerms(t *testing.T) {
	tests := []struct {
		name      string
		pairs     []Rule
		wantTerms []string
	}{
		{
			name: "different_replacements",
			pairs: []Rule{
				{Search: "hello", Replace: "hi"},
				{Search: "hello", Replace: "hey"},
			},
			wantTerms: []string{"hello"},
		},
		{
			name: "identical_rules",
			pairs: []Rule{
				{Search: "hello", Replace: "hi"},
				{Search: "hello", Replace: "hi"},
			},
			wantTerms: []string{"hello"},
		},
		{
			name: "multiple_duplicates_sorted",
			pairs: []Rule{
				{Search: "foo", Replace: "1"},
				{Search: "bar", Replace: "2"},
				{Search: "foo", Replace: "3"},
				{Search: "bar", Replace: "4"},
				{Search: "bar", Replace: "5"},
			},
			wantTerms: []string{"bar", "foo"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := Build(tt.pairs, DefaultOptions())
			require.Error(t, err)
			require.Nil(t, rs)

			var dupErr *DuplicateSearchError
			require.True(t, errors.As(err, &dupErr))
			assert.Equal(t, tt.wantTerms, dupErr.Terms)
			for _, term := range tt.wantTerms {
				assert.Contains(t, err.Error(), term)
			}
		})
	}
}

func TestBuild_DistinctTermsSameReplacement(t *testing.T) {
	rs, err := Build([]Rule{
		{Search: "foo", Replace: "same"},
		{Search: "bar", Replace: "same"},
	}, DefaultOptions())
	require.NoError(t, err)
	assert.Equal(t, 2, rs.Len())
}

func TestBuild_EmptySearchTerm(t *testing.T) {
	rs, err := Build([]Rule{
		{Search: "ok", Replace: "fine"},
		{Search: "", Replace: "nope"},
	}, DefaultOptions())
	require.Error(t, err)
	assert.Nil(t, rs)
	assert.Contains(t, err.Error(), "rule 1")
}

func TestBuild_InvalidPattern(t *testing.T) {
	rs, err := Build([]Rule{
		{Search: "a(b", Replace: "x"},
	}, Options{CaseSensitive: true, UseRegex: true, SortByLength: true})
	require.Error(t, err)
	require.Nil(t, rs)

	var patErr *PatternError
	require.True(t, errors.As(err, &patErr))
	assert.Equal(t, "a(b", patErr.Pattern)
	assert.Contains(t, err.Error(), "a(b")
}

func TestBuild_InvalidPatternIgnoredInLiteralMode(t *testing.T) {
	// Regex metacharacters are plain text when regex mode is off.
	rs, err := Build([]Rule{
		{Search: "a(b", Replace: "x"},
	}, DefaultOptions())
	require.NoError(t, err)

	got, count := rs.Apply("a(b c")
	assert.Equal(t, "x c", got)
	assert.Equal(t, 1, count)
}

func TestRuleSet_OrderingLaw(t *testing.T) {
	pairs := []Rule{
		{Search: "a", Replace: "X"},
		{Search: "ab", Replace: "Y"},
		{Search: "abcd", Replace: "Z"},
	}

	t.Run("sorted_longest_first", func(t *testing.T) {
		rs, err := Build(pairs, DefaultOptions())
		require.NoError(t, err)

		got, count := rs.Apply("abcd ab a")
		assert.Equal(t, "Z Y X", got)
		assert.Equal(t, 3, count)
	})

	t.Run("insertion_order", func(t *testing.T) {
		rs, err := Build(pairs, Options{CaseSensitive: true, SortByLength: false})
		require.NoError(t, err)

		// "a" fires first and consumes the leading character of every
		// longer token, so the longer rules never match.
		got, count := rs.Apply("abcd ab a")
		assert.Equal(t, "Xbcd Xb X", got)
		assert.Equal(t, 3, count)
	})
}

func TestRuleSet_StableSortKeepsTiedOrder(t *testing.T) {
	rs, err := Build([]Rule{
		{Search: "aa", Replace: "1"},
		{Search: "bb", Replace: "2"},
		{Search: "cccc", Replace: "3"},
	}, DefaultOptions())
	require.NoError(t, err)

	want := []Rule{
		{Search: "cccc", Replace: "3"},
		{Search: "aa", Replace: "1"},
		{Search: "bb", Replace: "2"},
	}
	assert.Equal(t, want, rs.EffectiveRules())
}

func TestRuleSet_SortByRuneCountNotBytes(t *testing.T) {
	// "ééé" is three characters but six bytes; character length decides.
	rs, err := Build([]Rule{
		{Search: "ééé", Replace: "short"},
		{Search: "abcd", Replace: "long"},
	}, DefaultOptions())
	require.NoError(t, err)

	want := []Rule{
		{Search: "abcd", Replace: "long"},
		{Search: "ééé", Replace: "short"},
	}
	assert.Equal(t, want, rs.EffectiveRules())
}

func TestRuleSet_ApplyIsDeterministic(t *testing.T) {
	rs, err := Build([]Rule{
		{Search: "old", Replace: "new"},
		{Search: "stale", Replace: "fresh"},
	}, DefaultOptions())
	require.NoError(t, err)

	input := "old stale old things"
	first, firstCount := rs.Apply(input)
	second, secondCount := rs.Apply(input)
	assert.Equal(t, first, second)
	assert.Equal(t, firstCount, secondCount)
}

func TestRuleSet_ReplacementNotRescannedByEarlierRules(t *testing.T) {
	// A later rule's output can reintroduce text an earlier rule matches;
	// the earlier rule never runs again.
	rs, err := Build([]Rule{
		{Search: "abcd", Replace: "done"},
		{Search: "x", Replace: "abcd"},
	}, DefaultOptions())
	require.NoError(t, err)

	got, count := rs.Apply("abcd x")
	assert.Equal(t, "done abcd", got)
	assert.Equal(t, 2, count)
}
