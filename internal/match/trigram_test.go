package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTrigramsPadding(t *testing.T) {
	got := Trigrams("Cat")
	want := map[string]struct{}{"  c": {}, " ca": {}, "cat": {}, "at ": {}}
	assert.Equal(t, want, got)

	// non-alphanumerics split words
	assert.Equal(t, Trigrams("milk bread"), Trigrams("Milk,  BREAD!"))
	assert.Empty(t, Trigrams("  -- "))
}

func TestScoreBounds(t *testing.T) {
	assert.Equal(t, 1.0, Score("Nikhil Store", "nikhil   store"))
	assert.Equal(t, 0.0, Score("milk", "xyz"))
	assert.Equal(t, 0.0, Score("milk", ""))
	s := Score("bread", "brown bread")
	assert.Greater(t, s, 0.0)
	assert.Less(t, s, 1.0)
}

func TestSubstringOverridesThreshold(t *testing.T) {
	score, ok := Match("milk", "Milk Packet 1L")
	assert.True(t, ok)
	assert.True(t, Contains("Milk Packet 1L", "milk"))
	assert.Greater(t, score, 0.0)

	// low score, but the substring still matches
	score, ok = Match("tea", "Assam Tea Leaves Premium Quality Loose Pack")
	assert.True(t, ok)
	assert.LessOrEqual(t, score, Threshold)
}

func TestNoMatchBelowThreshold(t *testing.T) {
	score, ok := Match("milk", "Rice Bag 5kg")
	assert.False(t, ok)
	assert.LessOrEqual(t, score, Threshold)
}

func TestSimilarShopNamesRankByScore(t *testing.T) {
	exact := Score("nikhil store", "Nikhil Store")
	near := Score("nikhil store", "Nikhils Store")
	assert.Equal(t, 1.0, exact)
	assert.InDelta(t, 0.8, near, 1e-9)
	assert.Greater(t, near, Threshold)
	assert.Greater(t, exact, near)
}

func TestMatcherRejectsEmptyQuery(t *testing.T) {
	for _, q := range []string{"", "   ", "\t\n"} {
		_, err := New(q)
		assert.ErrorIs(t, err, ErrEmptyQuery)
	}
}

func TestMatcherAgreesWithFunctions(t *testing.T) {
	m, err := New("Milk")
	require.NoError(t, err)
	for _, c := range []string{"Milk Packet 1L", "Buttermilk", "Rice", "MILK"} {
		score, ok := m.Match(c)
		wantScore, wantOK := Match("Milk", c)
		assert.InDelta(t, wantScore, score, 1e-12, c)
		assert.Equal(t, wantOK, ok, c)
	}
}

func TestMatchAnyUsesMaxField(t *testing.T) {
	m, err := New("grocery")
	require.NoError(t, err)
	score, ok := m.MatchAny("Sri Lakshmi Stores", "Grocery")
	assert.True(t, ok)
	assert.Equal(t, 1.0, score)

	score, ok = m.MatchAny("Ravi Electronics", "Electronics")
	assert.False(t, ok)
	assert.Less(t, score, Threshold)
}
