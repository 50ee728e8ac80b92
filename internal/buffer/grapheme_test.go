package buffer

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestGraphemeCountASCII(t *testing.T) {
	require.Equal(t, 5, GraphemeCount("hello"))
}

func TestGraphemeCountCombining(t *testing.T) {
	// e + combining acute accent (U+0301) forms a single grapheme cluster.
	require.Equal(t, 5, GraphemeCount("héllo"))
}

func TestGraphemeCountEmoji(t *testing.T) {
	require.Equal(t, 1, GraphemeCount("\U0001F600"))
}

func TestGraphemeCountZWJFamily(t *testing.T) {
	family := "\U0001F468‍\U0001F469‍\U0001F467‍\U0001F466"
	require.Equal(t, 1, GraphemeCount(family))
}

func TestSliceByGraphemesRoundTrip(t *testing.T) {
	s := "hello world"
	require.Equal(t, "hello", SliceByGraphemes(s, 0, 5))
	require.Equal(t, "world", SliceByGraphemes(s, 6, 11))
	require.Equal(t, "", SliceByGraphemes(s, 20, 25))
}

func TestInsertAtGrapheme(t *testing.T) {
	require.Equal(t, "hXello", InsertAtGrapheme("hello", 1, "X"))
	require.Equal(t, "Xhello", InsertAtGrapheme("hello", 0, "X"))
	require.Equal(t, "helloX", InsertAtGrapheme("hello", 5, "X"))
}

func TestInsertAtGraphemeAfterEmoji(t *testing.T) {
	s := "\U0001F600llo"
	got := InsertAtGrapheme(s, 1, "X")
	require.Equal(t, 2, GraphemeCount(SliceByGraphemes(got, 0, 2)))
	require.Equal(t, "X", SliceByGraphemes(got, 1, 2))
}

func TestDeleteGraphemeRange(t *testing.T) {
	require.Equal(t, "hlo", DeleteGraphemeRange("hello", 1, 3))
	require.Equal(t, "", DeleteGraphemeRange("hello", 0, 5))
}

func TestClassOf(t *testing.T) {
	require.Equal(t, ClassWhitespace, ClassOf(" "))
	require.Equal(t, ClassWord, ClassOf("a"))
	require.Equal(t, ClassWord, ClassOf("_"))
	require.Equal(t, ClassPunctuation, ClassOf("."))
	require.True(t, IsWhitespace("\t"))
	require.False(t, IsWhitespace("x"))
}

func TestGraphemeIterator(t *testing.T) {
	iter := NewGraphemeIterator("ab\U0001F600c")
	var clusters []string
	for iter.Next() {
		clusters = append(clusters, iter.Cluster())
	}
	require.Equal(t, []string{"a", "b", "\U0001F600", "c"}, clusters)
}

func TestTruncateToDisplayWidth(t *testing.T) {
	require.Equal(t, "hel", TruncateToDisplayWidth("hello", 3))
	require.Equal(t, "hello", TruncateToDisplayWidth("hello", 100))
	require.Equal(t, "", TruncateToDisplayWidth("hello", 0))
}
