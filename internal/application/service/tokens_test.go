package service

import (
	"testing"

	"webtask-agent/internal/domain/entity"
)

func TestEstimateTokens(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want int
	}{
		{"empty", "", 0},
		{"one char", "a", 1},
		{"four chars", "abcd", 1},
		{"five chars rounds up", "abcde", 2},
		{"eight chars", "abcdefgh", 2},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := EstimateTokens(tc.in); got != tc.want {
				t.Errorf("EstimateTokens(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestEstimateTranscriptTokens(t *testing.T) {
	messages := []entity.Message{
		{Role: entity.RoleSystem, Content: "abcd"},     // 1
		{Role: entity.RoleUser, Content: "abcdefghi"},  // 3
		{Role: entity.RoleAssistant, Content: ""},      // 0
	}

	if got := EstimateTranscriptTokens(messages); got != 4 {
		t.Errorf("EstimateTranscriptTokens = %d, want 4", got)
	}
}
