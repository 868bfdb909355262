package rag

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func feed(tokens ...string) StreamState {
	var s StreamState
	for _, t := range tokens {
		s = s.Next(t)
	}
	return s
}

func TestStreamSeparatesThinkingFromAnswer(t *testing.T) {
	s := feed("<think>", "abc", "</think>", "def")

	assert.Equal(t, "abc", s.Thinking)
	assert.Equal(t, "def", s.Answer)
	assert.True(t, s.ReasoningDone)
	assert.False(t, s.InReasoning)
}

func TestStreamMarkersSplitAcrossTokens(t *testing.T) {
	s := feed("<th", "ink>", "abc", "</th", "ink>", "def")

	assert.Equal(t, "abc", s.Thinking)
	assert.Equal(t, "def", s.Answer)
	assert.True(t, s.ReasoningDone)
}

func TestStreamNoReasoningBlock(t *testing.T) {
	s := feed("The fees ", "are £10,423 ", "per term.")

	assert.Empty(t, s.Thinking)
	assert.Equal(t, "The fees are £10,423 per term.", s.Answer)
	assert.False(t, s.ReasoningDone)
}

func TestStreamAnswerSuppressedWhileReasoning(t *testing.T) {
	s := feed("<think>", "working through the fee table")

	assert.True(t, s.InReasoning)
	assert.Equal(t, "working through the fee table", s.Thinking)
	assert.Empty(t, s.Answer, "no answer is visible inside an open reasoning block")
}

func TestStreamAnswerGrowsAfterReasoning(t *testing.T) {
	s := feed("<think>", "x", "</think>", "part one")
	assert.Equal(t, "part one", s.Answer)

	s = s.Next(" part two")
	assert.Equal(t, "part one part two", s.Answer)
	assert.Equal(t, "x", s.Thinking, "thinking is frozen once the block closes")
}

func TestStreamTrimsWhitespace(t *testing.T) {
	s := feed("<think>\n  abc \n</think>\n\n  def  ")

	assert.Equal(t, "abc", s.Thinking)
	assert.Equal(t, "def", s.Answer)
}

func TestStreamSingleTokenWholeResponse(t *testing.T) {
	s := feed("<think>abc</think>def")

	assert.Equal(t, "abc", s.Thinking)
	assert.Equal(t, "def", s.Answer)
	assert.True(t, s.ReasoningDone)
}

func TestStreamNextIsPure(t *testing.T) {
	initial := feed("<think>", "abc")
	before := initial
	_ = initial.Next("</think>more")
	assert.Equal(t, before, initial, "Next must not mutate its receiver")
}
