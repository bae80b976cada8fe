package openrouter

import (
	"context"
	"fmt"

	"webtask-agent/internal/application/port/output"
	"webtask-agent/internal/application/service"
	"webtask-agent/internal/domain/entity"
)

var _ output.SummarizerPort = (*Summarizer)(nil)

const summarizerSystemPrompt = "You compress web page observations for a browsing agent. " +
	"Keep the interactive elements (their ids, roles and labels) and any state the agent may need later; " +
	"drop repeated structure and decorative text. Reply with the summary only."

// Summarizer implements the observation summarizer as a nested model
// call, falling back to the deterministic heuristic when the model is
// unavailable or its reply does not fit the budget. It never fails:
// an over-budget or failed summarization degrades to truncation.
type Summarizer struct {
	llm      output.LLMPort
	fallback *service.HeuristicSummarizer
	logger   output.LoggerPort
}

func NewSummarizer(llm output.LLMPort, logger output.LoggerPort) *Summarizer {
	return &Summarizer{
		llm:      llm,
		fallback: service.NewHeuristicSummarizer(),
		logger:   logger,
	}
}

func (s *Summarizer) Summarize(ctx context.Context, req output.SummarizeRequest) (entity.Summary, error) {
	if req.Budget <= 0 || service.EstimateTokens(req.Observation) <= req.Budget {
		return s.fallback.Summarize(ctx, req)
	}

	user := fmt.Sprintf("Summarize this observation in at most %d tokens.", req.Budget)
	if req.PriorSummary != "" {
		user += "\nThe agent's own note about it: " + req.PriorSummary
	}
	user += "\n\nOBSERVATION:\n" + req.Observation

	reply, err := s.llm.Complete(ctx, output.CompletionRequest{
		Messages: []entity.Message{
			{Role: entity.RoleSystem, Content: summarizerSystemPrompt},
			{Role: entity.RoleUser, Content: user},
		},
		MaxTokens:   req.Budget,
		Temperature: 0.0,
	})
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("summarization call failed, using heuristic", "error", err)
		}
		return s.fallback.Summarize(ctx, req)
	}

	if service.EstimateTokens(reply) > req.Budget {
		// The model overshot: squeeze its reply instead of the raw
		// observation so its selection still counts for something.
		squeezed, _ := s.fallback.Summarize(ctx, output.SummarizeRequest{
			Observation: reply,
			Budget:      req.Budget,
		})
		squeezed.Truncated = true
		return squeezed, nil
	}

	return entity.Summary{Text: reply}, nil
}
