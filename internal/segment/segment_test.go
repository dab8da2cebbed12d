package segment

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSplitEmptyText(t *testing.T) {
	assert.Nil(t, Split(""))
	assert.Nil(t, Split("   \n  \n"))
}

func TestSplitNumberedQuestions(t *testing.T) {
	text := "1. Define a binary search tree.\n2. Explain collision handling in hash tables."

	got := Split(text)

	assert.Equal(t, []string{
		"Define a binary search tree.",
		"Explain collision handling in hash tables.",
	}, got)
}

func TestSplitMarkerVariants(t *testing.T) {
	text := "1) State Ohm's law with units.\n(2) Derive the lens maker formula.\n[3] Explain total internal reflection.\nQ4: Describe the photoelectric effect.\nQ 5. Compare AC and DC current flow."

	got := Split(text)

	assert.Equal(t, []string{
		"State Ohm's law with units.",
		"Derive the lens maker formula.",
		"Explain total internal reflection.",
		"Describe the photoelectric effect.",
		"Compare AC and DC current flow.",
	}, got)
}

func TestSplitContinuationLines(t *testing.T) {
	text := "1. Explain how quicksort partitions\nits input and state the average\ntime complexity.\n2. Define recursion."

	got := Split(text)

	assert.Equal(t, []string{
		"Explain how quicksort partitions its input and state the average time complexity.",
		"Define recursion.",
	}, got)
}

func TestSplitBlankLineEndsQuestion(t *testing.T) {
	text := "1. Describe the OSI model layers.\n\nThis paragraph is instructions, not part of the question.\n"

	got := Split(text)

	assert.Equal(t, []string{"Describe the OSI model layers."}, got)
}

func TestSplitUnnumberedInterrogative(t *testing.T) {
	text := "Answer all questions in section A.\nWhat is a deadlock and how can it be prevented?"

	got := Split(text)

	assert.Equal(t, []string{"What is a deadlock and how can it be prevented?"}, got)
}

func TestSplitDropsShortFragments(t *testing.T) {
	text := "1. Why?\n2. Explain paging in operating systems."

	got := Split(text)

	assert.Equal(t, []string{"Explain paging in operating systems."}, got)
}

func TestSplitPreservesDocumentOrder(t *testing.T) {
	text := "3. Third on paper but first in text.\n1. Numbering is not re-sorted here."

	got := Split(text)

	assert.Equal(t, []string{
		"Third on paper but first in text.",
		"Numbering is not re-sorted here.",
	}, got)
}

func TestSplitDeterministic(t *testing.T) {
	text := "1. Define entropy in your own words.\n\nWhat is the second law of thermodynamics?\n2. Solve the heat equation for a rod."

	first := Split(text)
	second := Split(text)

	assert.Equal(t, first, second)
}
