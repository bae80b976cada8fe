package service

import "webtask-agent/internal/domain/entity"

// EstimateTokens approximates the token cost of text as ceil(len/4).
// Not billing-accurate; good enough for budget comparisons and, being
// byte-based, fully deterministic.
func EstimateTokens(text string) int {
	if len(text) == 0 {
		return 0
	}
	return (len(text) + 3) / 4
}

// EstimateMessageTokens estimates the cost of one transcript message.
// Role and name framing is ignored, the heuristic is applied to the
// content only, uniformly for every message.
func EstimateMessageTokens(msg entity.Message) int {
	return EstimateTokens(msg.Content)
}

// EstimateTranscriptTokens sums the estimate over a rendered transcript.
func EstimateTranscriptTokens(messages []entity.Message) int {
	total := 0
	for _, msg := range messages {
		total += EstimateMessageTokens(msg)
	}
	return total
}
