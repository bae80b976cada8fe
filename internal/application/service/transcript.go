package service

import (
	"context"
	"strings"

	"webtask-agent/internal/application/port/output"
	"webtask-agent/internal/domain/entity"
)

const (
	obsHeader        = "OBSERVATION:"
	obsSummaryHeader = "OBSERVATION (summarized):"
	truncatedMarker  = "... (summary truncated)"
)

// Transcript owns the growing turn history and rewrites it on every
// render so the prompt stays inside the token budget: the preamble
// (system instruction, few-shot examples, objective) is always sent
// in full, the latest observation is sent verbatim, every older
// observation is replaced by its cached summary, and whole turns are
// evicted oldest-first when the estimate still exceeds the budget.
//
// Rendering is a pure function of the history and the budget: summaries
// are cached on the records, so repeated calls with no new turns
// produce byte-identical output.
type Transcript struct {
	preamble   []entity.Message
	turns      []*entity.TurnRecord
	summarizer output.SummarizerPort
	fallback   *HeuristicSummarizer
	sumBudget  int
	logger     output.LoggerPort
}

type TranscriptConfig struct {
	// Preamble is the protected message prefix: never summarized,
	// never evicted.
	Preamble      []entity.Message
	Summarizer    output.SummarizerPort
	SummaryBudget int
	Logger        output.LoggerPort
}

func NewTranscript(cfg TranscriptConfig) *Transcript {
	summarizer := cfg.Summarizer
	fallback := NewHeuristicSummarizer()
	if summarizer == nil {
		summarizer = fallback
	}
	return &Transcript{
		preamble:   cfg.Preamble,
		summarizer: summarizer,
		fallback:   fallback,
		sumBudget:  cfg.SummaryBudget,
		logger:     cfg.Logger,
	}
}

// SetInitialObservation seeds the history with the observation the
// episode starts from. It behaves like a turn with no assistant half.
func (t *Transcript) SetInitialObservation(observation, header string) {
	t.turns = append(t.turns, &entity.TurnRecord{
		Turn:           0,
		Header:         header,
		RawObservation: observation,
	})
}

// AppendTurn records one completed loop iteration. The thought and
// action always travel in a single assistant message; splitting them
// degrades the model's adherence to the action format.
func (t *Transcript) AppendTurn(rec entity.TurnRecord) {
	t.turns = append(t.turns, &rec)
}

// Turns reports how many records the history holds, the initial
// observation included.
func (t *Transcript) Turns() int {
	return len(t.turns)
}

// Render produces the bounded message sequence to send to the model.
func (t *Transcript) Render(ctx context.Context, budget int) []entity.Message {
	pairs := t.renderPairs(ctx)

	cost := EstimateTranscriptTokens(t.preamble)
	for _, p := range pairs {
		cost += p.cost()
	}

	// Oldest-first eviction; the latest pair is protected.
	start := 0
	for cost > budget && start < len(pairs)-1 {
		cost -= pairs[start].cost()
		start++
	}

	out := make([]entity.Message, 0, len(t.preamble)+2*(len(pairs)-start))
	out = append(out, t.preamble...)
	for _, p := range pairs[start:] {
		out = append(out, p.messages...)
	}
	return out
}

type renderedPair struct {
	messages []entity.Message
}

func (p renderedPair) cost() int {
	return EstimateTranscriptTokens(p.messages)
}

func (t *Transcript) renderPairs(ctx context.Context) []renderedPair {
	pairs := make([]renderedPair, 0, len(t.turns))
	for i, rec := range t.turns {
		latest := i == len(t.turns)-1
		var msgs []entity.Message

		if rec.HasAction() {
			msgs = append(msgs, entity.Message{
				Role:    entity.RoleAssistant,
				Content: assistantContent(rec),
				Turn:    rec.Turn,
			})
		}

		msgs = append(msgs, entity.Message{
			Role:    entity.RoleUser,
			Content: t.observationContent(ctx, rec, latest),
			Turn:    rec.Turn,
		})

		pairs = append(pairs, renderedPair{messages: msgs})
	}
	return pairs
}

func assistantContent(rec *entity.TurnRecord) string {
	var b strings.Builder
	if rec.Thought != "" {
		b.WriteString("Thought: ")
		b.WriteString(rec.Thought)
		b.WriteString("\n")
	}
	b.WriteString("Action: `")
	b.WriteString(rec.Action.String())
	b.WriteString("`")
	return b.String()
}

func (t *Transcript) observationContent(ctx context.Context, rec *entity.TurnRecord, latest bool) string {
	var b strings.Builder
	if rec.Header != "" {
		b.WriteString(rec.Header)
		b.WriteString("\n")
	}

	if latest {
		b.WriteString(obsHeader)
		b.WriteString("\n")
		b.WriteString(rec.RawObservation)
		return b.String()
	}

	t.ensureSummary(ctx, rec)
	b.WriteString(obsSummaryHeader)
	b.WriteString("\n")
	b.WriteString(rec.Summary)
	if rec.Truncated {
		b.WriteString("\n")
		b.WriteString(truncatedMarker)
	}
	return b.String()
}

// ensureSummary fills the record's cached summary, regenerating it
// only when absent or when the cached one no longer fits the current
// summary budget. Once cached, the raw observation is released.
func (t *Transcript) ensureSummary(ctx context.Context, rec *entity.TurnRecord) {
	if rec.HasSummary() && EstimateTokens(rec.Summary) <= t.sumBudget {
		return
	}

	source := rec.RawObservation
	if source == "" {
		// Raw already released: shrink the previous summary instead.
		source = rec.Summary
	}

	req := output.SummarizeRequest{
		Observation:  source,
		PriorSummary: rec.ModelSummary,
		Budget:       t.sumBudget,
	}

	summary, err := t.summarizer.Summarize(ctx, req)
	if err != nil || EstimateTokens(summary.Text) > t.sumBudget {
		if err != nil && t.logger != nil {
			t.logger.Warn("summarizer failed, falling back to heuristic", "turn", rec.Turn, "error", err)
		}
		summary, _ = t.fallback.Summarize(ctx, req)
	}

	wasTruncated := rec.Truncated
	rec.SetSummary(summary, t.sumBudget)
	rec.Truncated = rec.Truncated || wasTruncated
	rec.ReleaseRaw()
}
