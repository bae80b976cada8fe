package service

import (
	"context"
	"strings"

	"webtask-agent/internal/application/port/output"
	"webtask-agent/internal/domain/entity"
)

var _ output.SummarizerPort = (*HeuristicSummarizer)(nil)

// interactiveRoles are the accessibility-tree roles a task can act
// on. Lines mentioning them survive summarization before any static
// text does.
var interactiveRoles = []string{
	"link", "button", "textbox", "searchbox", "combobox",
	"checkbox", "radio", "menuitem", "tab", "input", "switch",
}

// HeuristicSummarizer compresses an observation without a model call:
// it keeps the lines describing interactive elements first, then
// static text, in document order within each class, until the token
// budget is exhausted. Fully deterministic, never fails.
type HeuristicSummarizer struct{}

func NewHeuristicSummarizer() *HeuristicSummarizer {
	return &HeuristicSummarizer{}
}

func (s *HeuristicSummarizer) Summarize(ctx context.Context, req output.SummarizeRequest) (entity.Summary, error) {
	if req.Budget <= 0 {
		return entity.Summary{Truncated: req.Observation != ""}, nil
	}
	if EstimateTokens(req.Observation) <= req.Budget {
		return entity.Summary{Text: req.Observation}, nil
	}

	var interactive, static []string
	for _, line := range strings.Split(req.Observation, "\n") {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if isInteractiveLine(trimmed) {
			interactive = append(interactive, trimmed)
		} else {
			static = append(static, trimmed)
		}
	}

	var kept []string
	used := 0
	truncated := false
	for _, line := range append(interactive, static...) {
		cost := EstimateTokens(line + "\n")
		if used+cost > req.Budget {
			truncated = true
			continue
		}
		kept = append(kept, line)
		used += cost
	}

	text := strings.Join(kept, "\n")
	if text == "" && req.Observation != "" {
		// Not even one line fits: hard-truncate to the budget.
		limit := req.Budget * 4
		if limit > len(req.Observation) {
			limit = len(req.Observation)
		}
		text = req.Observation[:limit]
		truncated = true
	}

	return entity.Summary{Text: text, Truncated: truncated}, nil
}

func isInteractiveLine(line string) bool {
	lower := strings.ToLower(line)
	for _, role := range interactiveRoles {
		if strings.Contains(lower, role) {
			return true
		}
	}
	return false
}
