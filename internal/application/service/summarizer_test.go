package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webtask-agent/internal/application/port/output"
)

func TestHeuristicSummarizer_FitsWithinBudget(t *testing.T) {
	s := NewHeuristicSummarizer()

	// ~10,000 characters of observation against a 500 token budget.
	var b strings.Builder
	for i := 0; i < 200; i++ {
		b.WriteString("StaticText 'some very long filler content that describes nothing useful'\n")
	}
	obs := b.String()
	require.Greater(t, len(obs), 10000)

	summary, err := s.Summarize(context.Background(), output.SummarizeRequest{
		Observation: obs,
		Budget:      500,
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, EstimateTokens(summary.Text), 500)
	assert.True(t, summary.Truncated)
}

func TestHeuristicSummarizer_ShortObservationUnchanged(t *testing.T) {
	s := NewHeuristicSummarizer()

	obs := "[1] button 'Go'\n[2] link 'Home'"
	summary, err := s.Summarize(context.Background(), output.SummarizeRequest{
		Observation: obs,
		Budget:      100,
	})
	require.NoError(t, err)

	assert.Equal(t, obs, summary.Text)
	assert.False(t, summary.Truncated)
}

func TestHeuristicSummarizer_InteractiveElementsFirst(t *testing.T) {
	s := NewHeuristicSummarizer()

	var b strings.Builder
	// Enough static text up front to exhaust the budget on its own.
	for i := 0; i < 50; i++ {
		b.WriteString("StaticText 'decorative filler line with no interactive value here'\n")
	}
	b.WriteString("[17] button 'Add to Cart'\n")
	b.WriteString("[18] textbox 'Search'\n")

	summary, err := s.Summarize(context.Background(), output.SummarizeRequest{
		Observation: b.String(),
		Budget:      40,
	})
	require.NoError(t, err)

	assert.Contains(t, summary.Text, "[17] button 'Add to Cart'")
	assert.Contains(t, summary.Text, "[18] textbox 'Search'")
	assert.True(t, summary.Truncated)
	assert.LessOrEqual(t, EstimateTokens(summary.Text), 40)
}

func TestHeuristicSummarizer_Deterministic(t *testing.T) {
	s := NewHeuristicSummarizer()
	req := output.SummarizeRequest{
		Observation: strings.Repeat("[1] link 'x'\nStaticText 'y'\n", 100),
		Budget:      25,
	}

	first, err := s.Summarize(context.Background(), req)
	require.NoError(t, err)
	second, err := s.Summarize(context.Background(), req)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestHeuristicSummarizer_ZeroBudget(t *testing.T) {
	s := NewHeuristicSummarizer()

	summary, err := s.Summarize(context.Background(), output.SummarizeRequest{
		Observation: "[1] button 'Go'",
		Budget:      0,
	})
	require.NoError(t, err)

	assert.Empty(t, summary.Text)
	assert.True(t, summary.Truncated)
}

func TestHeuristicSummarizer_OversizedSingleLine(t *testing.T) {
	s := NewHeuristicSummarizer()

	summary, err := s.Summarize(context.Background(), output.SummarizeRequest{
		Observation: strings.Repeat("x", 4000),
		Budget:      10,
	})
	require.NoError(t, err)

	assert.LessOrEqual(t, EstimateTokens(summary.Text), 10)
	assert.True(t, summary.Truncated)
	assert.NotEmpty(t, summary.Text)
}
