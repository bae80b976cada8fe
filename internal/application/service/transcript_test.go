package service

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"webtask-agent/internal/application/port/output"
	"webtask-agent/internal/domain/entity"
)

func testPreamble() []entity.Message {
	return []entity.Message{
		{Role: entity.RoleSystem, Content: "You are a web agent.", Turn: -1},
		{Role: entity.RoleUser, Content: "OBJECTIVE: find the price", Turn: -1},
	}
}

func newTestTranscript(summaryBudget int) *Transcript {
	return NewTranscript(TranscriptConfig{
		Preamble:      testPreamble(),
		SummaryBudget: summaryBudget,
	})
}

func addTurns(tr *Transcript, n int, obsSize int) {
	tr.SetInitialObservation(strings.Repeat("[0] link 'start'\n", obsSize), "URL: http://start")
	for i := 1; i <= n; i++ {
		tr.AppendTurn(entity.TurnRecord{
			Turn:           i,
			Thought:        fmt.Sprintf("thinking about step %d", i),
			Action:         entity.Action{Kind: entity.ActionClick, Target: fmt.Sprintf("%d", i)},
			Header:         fmt.Sprintf("ERROR MESSAGE: None\nURL: http://page/%d", i),
			RawObservation: strings.Repeat(fmt.Sprintf("[%d] button 'next'\n", i), obsSize),
		})
	}
}

func TestRender_WithinBudget(t *testing.T) {
	tr := newTestTranscript(20)
	addTurns(tr, 6, 40)

	for _, budget := range []int{400, 800, 2000} {
		msgs := tr.Render(context.Background(), budget)
		cost := EstimateTranscriptTokens(msgs)
		assert.LessOrEqual(t, cost, budget, "budget %d", budget)
	}
}

func TestRender_AtMostOneFullObservation(t *testing.T) {
	tr := newTestTranscript(20)
	addTurns(tr, 5, 40)

	msgs := tr.Render(context.Background(), 100000)

	full := 0
	for _, msg := range msgs {
		if strings.Contains(msg.Content, obsHeader+"\n") {
			full++
		}
	}
	assert.Equal(t, 1, full)

	// The full one is the latest.
	last := msgs[len(msgs)-1]
	assert.Contains(t, last.Content, "[5] button 'next'")
	assert.Contains(t, last.Content, obsHeader)
}

func TestRender_Idempotent(t *testing.T) {
	tr := newTestTranscript(15)
	addTurns(tr, 4, 60)

	first := tr.Render(context.Background(), 500)
	second := tr.Render(context.Background(), 500)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i], second[i], "message %d", i)
	}
}

func TestRender_PreambleAndLatestSurviveTinyBudget(t *testing.T) {
	tr := newTestTranscript(10)
	addTurns(tr, 5, 100)

	// Budget below even the protected prefix: everything evictable
	// goes, the preamble and the latest turn stay.
	msgs := tr.Render(context.Background(), 1)

	require.GreaterOrEqual(t, len(msgs), 3)
	assert.Equal(t, "You are a web agent.", msgs[0].Content)
	assert.Contains(t, msgs[1].Content, "OBJECTIVE:")
	assert.Contains(t, msgs[len(msgs)-1].Content, "[5] button 'next'")

	for _, msg := range msgs[2 : len(msgs)-2] {
		assert.NotContains(t, msg.Content, obsHeader+"\n")
	}
}

func TestRender_EvictsOldestFirst(t *testing.T) {
	tr := newTestTranscript(10)
	addTurns(tr, 6, 40)

	all := tr.Render(context.Background(), 1000000)
	tight := tr.Render(context.Background(), EstimateTranscriptTokens(all)/2)

	assert.Less(t, len(tight), len(all))

	var joined strings.Builder
	for _, msg := range tight {
		joined.WriteString(msg.Content)
		joined.WriteString("\n")
	}
	// The newest turn is present, the oldest history is gone.
	assert.Contains(t, joined.String(), "thinking about step 6")
	assert.NotContains(t, joined.String(), "URL: http://start")
}

func TestRender_SummarizesStaleObservations(t *testing.T) {
	tr := newTestTranscript(8)
	addTurns(tr, 3, 50)

	msgs := tr.Render(context.Background(), 100000)

	summarized := 0
	for _, msg := range msgs {
		if strings.Contains(msg.Content, obsSummaryHeader) {
			summarized++
			// Whatever survives in a summary fits its own budget,
			// the truncation marker aside.
			body := msg.Content[strings.Index(msg.Content, obsSummaryHeader):]
			assert.LessOrEqual(t, EstimateTokens(body), 8+EstimateTokens(obsSummaryHeader+"\n"+truncatedMarker)+1)
		}
	}
	assert.Equal(t, 3, summarized) // initial + turns 1, 2
}

func TestRender_ReleasesRawAfterSummarizing(t *testing.T) {
	tr := newTestTranscript(10)
	tr.SetInitialObservation(strings.Repeat("[1] link 'a'\n", 100), "")
	tr.AppendTurn(entity.TurnRecord{
		Turn:           1,
		Thought:        "next",
		Action:         entity.Action{Kind: entity.ActionScroll, Target: "down"},
		RawObservation: "[2] button 'b'",
	})

	tr.Render(context.Background(), 100000)

	assert.Empty(t, tr.turns[0].RawObservation)
	assert.True(t, tr.turns[0].HasSummary())
	assert.NotEmpty(t, tr.turns[1].RawObservation)
}

// recordingSummarizer counts calls to show summaries are cached.
type recordingSummarizer struct {
	calls int
	inner *HeuristicSummarizer
}

func (r *recordingSummarizer) Summarize(ctx context.Context, req output.SummarizeRequest) (entity.Summary, error) {
	r.calls++
	return r.inner.Summarize(ctx, req)
}

func TestRender_CachesSummaries(t *testing.T) {
	rec := &recordingSummarizer{inner: NewHeuristicSummarizer()}
	tr := NewTranscript(TranscriptConfig{
		Preamble:      testPreamble(),
		Summarizer:    rec,
		SummaryBudget: 10,
	})
	addTurns(tr, 3, 50)

	tr.Render(context.Background(), 100000)
	after := rec.calls
	require.Greater(t, after, 0)

	tr.Render(context.Background(), 100000)
	assert.Equal(t, after, rec.calls, "second render must reuse cached summaries")
}

func TestRender_GroupsThoughtAndAction(t *testing.T) {
	tr := newTestTranscript(50)
	tr.SetInitialObservation("[1] link 'a'", "")
	tr.AppendTurn(entity.TurnRecord{
		Turn:           1,
		Thought:        "the link looks right",
		Action:         entity.Action{Kind: entity.ActionClick, Target: "1"},
		RawObservation: "[2] button 'b'",
	})

	msgs := tr.Render(context.Background(), 100000)

	var assistant *entity.Message
	for i := range msgs {
		if msgs[i].Role == entity.RoleAssistant {
			require.Nil(t, assistant, "exactly one assistant message expected")
			assistant = &msgs[i]
		}
	}
	require.NotNil(t, assistant)
	assert.Contains(t, assistant.Content, "Thought: the link looks right")
	assert.Contains(t, assistant.Content, "Action: `click [1]`")
}
