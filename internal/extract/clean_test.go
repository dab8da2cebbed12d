package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCleanTextEmpty(t *testing.T) {
	assert.Equal(t, "", CleanText(""))
}

func TestCleanTextStripsInvisibleRunes(t *testing.T) {
	in := "What\u200b is a binary\ufeff search tree?"
	assert.Equal(t, "What is a binary search tree?", CleanText(in))
}

func TestCleanTextKeepsTabsAsSpacing(t *testing.T) {
	in := "Define\tthe\tterm process scheduling."
	assert.Equal(t, "Define the term process scheduling.", CleanText(in))
}

func TestCleanTextDecodesPercentArtifacts(t *testing.T) {
	in := "What%20is%20Newton%27s%20second%20law?"
	assert.Equal(t, "What is Newton's second law?", CleanText(in))
}

func TestCleanTextKeepsLiteralPercents(t *testing.T) {
	// %4B decodes to the letter K, which is not a punctuation artifact.
	in := "A solution contains %4B of salt by weight, explain the result."
	assert.Equal(t, "A solution contains %4B of salt by weight, explain the result.", CleanText(in))
}

func TestCleanTextMergesHyphenatedLineBreaks(t *testing.T) {
	in := "Explain the procedure of normal-\nization in relational databases here."
	assert.Equal(t, "Explain the procedure of normalization in relational databases here.", CleanText(in))
}

func TestCleanTextCollapsesSpaceRuns(t *testing.T) {
	in := "State   and    prove the    pumping lemma."
	assert.Equal(t, "State and prove the pumping lemma.", CleanText(in))
}

func TestCleanTextDropsShortLines(t *testing.T) {
	in := "a\n.\nWhat is recursion?\n|."
	assert.Equal(t, "What is recursion?", CleanText(in))
}

func TestCleanTextDeterministic(t *testing.T) {
	in := "Q1.   Define  a%20stack.\nx\nQ2. Compare BFS and DFS tra-\nversal orders."
	first := CleanText(in)
	second := CleanText(in)
	assert.Equal(t, first, second)
	assert.Equal(t, "Q1. Define a stack.\nQ2. Compare BFS and DFS traversal orders.", first)
}
