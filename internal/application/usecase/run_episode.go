package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"webtask-agent/internal/application/port/input"
	"webtask-agent/internal/application/port/output"
	"webtask-agent/internal/application/service"
	"webtask-agent/internal/domain/entity"
)

var _ input.EpisodeRunner = (*RunEpisodeUseCase)(nil)

// Config carries the per-episode policy knobs. Delimiters and retry
// bounds come from the prompt configuration, not from constants.
type Config struct {
	MaxTurns        int
	MaxParseRetries int
	MaxModelRetries int
	TokenBudget     int
	SummaryBudget   int
	MaxTokens       int
	Temperature     float32
	ModelTimeout    time.Duration
	ActionSplitter  string
	WhitelistHosts  []string
	URLMappings     map[string]string
}

func DefaultConfig() Config {
	return Config{
		MaxTurns:        30,
		MaxParseRetries: 3,
		MaxModelRetries: 3,
		TokenBudget:     16384,
		SummaryBudget:   512,
		MaxTokens:       1024,
		Temperature:     0.0,
		ModelTimeout:    2 * time.Minute,
		ActionSplitter:  service.DefaultActionSplitter,
	}
}

// RunEpisodeUseCase drives the Thought → Action → Observation loop
// for one task: render the bounded prompt, call the model, parse and
// validate the proposed action, execute it, record the observation,
// until the stop action, the turn cap or exhausted retries end the
// episode. Every internal failure maps to either a corrective loop
// iteration or a clean termination reason; nothing here aborts the
// run uncontrolled.
type RunEpisodeUseCase struct {
	llm        output.LLMPort
	env        output.EnvironmentPort
	summarizer output.SummarizerPort
	prompt     output.PromptPort
	logger     output.LoggerPort

	parser    *service.ActionParser
	whitelist *service.Whitelist
	urls      *service.URLMap
	cfg       Config
}

func NewRunEpisodeUseCase(
	llm output.LLMPort,
	env output.EnvironmentPort,
	summarizer output.SummarizerPort,
	prompt output.PromptPort,
	logger output.LoggerPort,
	cfg Config,
) *RunEpisodeUseCase {
	urls := service.NewURLMap(cfg.URLMappings)
	return &RunEpisodeUseCase{
		llm:        llm,
		env:        env,
		summarizer: summarizer,
		prompt:     prompt,
		logger:     logger,
		parser:     service.NewActionParser(cfg.ActionSplitter, urls),
		whitelist:  service.NewWhitelist(cfg.WhitelistHosts),
		urls:       urls,
		cfg:        cfg,
	}
}

// Run executes one episode from the initial observation to
// termination. The returned result is the only way an episode ends;
// the error is reserved for misuse (nil collaborators, canceled
// parent context before the first turn).
func (uc *RunEpisodeUseCase) Run(ctx context.Context, objective, initialObservation string) (*entity.EpisodeResult, error) {
	if uc.llm == nil || uc.env == nil || uc.prompt == nil || uc.logger == nil {
		return nil, fmt.Errorf("episode runner not fully wired")
	}

	transcript := service.NewTranscript(service.TranscriptConfig{
		Preamble:      uc.prompt.Preamble(objective),
		Summarizer:    uc.summarizer,
		SummaryBudget: uc.cfg.SummaryBudget,
		Logger:        uc.logger,
	})
	transcript.SetInitialObservation(initialObservation, uc.turnHeader("None"))

	state := &entity.EpisodeState{}
	finalAnswer := ""

	for state.Turn < uc.cfg.MaxTurns && !state.Terminated {
		turn := state.Turn + 1

		parsed, ok := uc.nextAction(ctx, transcript, state, turn)
		if !ok {
			break
		}

		if parsed.Action.IsStop() {
			uc.logger.Info("stop action issued", "turn", turn, "answer", parsed.Action.Target)
			transcript.AppendTurn(entity.TurnRecord{
				Turn:         turn,
				Thought:      parsed.Thought,
				ModelSummary: parsed.Summary,
				Action:       parsed.Action,
			})
			finalAnswer = parsed.Action.Target
			state.Turn = turn
			state.Terminate(entity.TerminationStop)
			break
		}

		observation, errMsg, fatal := uc.execute(ctx, parsed.Action)
		if fatal != nil {
			uc.logger.Error("environment failure is not recoverable", "turn", turn, "error", fatal)
			state.Turn = turn
			state.Terminate(entity.TerminationEnvironmentFatal)
			break
		}

		transcript.AppendTurn(entity.TurnRecord{
			Turn:           turn,
			Thought:        parsed.Thought,
			ModelSummary:   parsed.Summary,
			Action:         parsed.Action,
			Header:         uc.turnHeader(errMsg),
			RawObservation: observation,
		})
		state.Turn = turn
	}

	if !state.Terminated {
		state.Terminate(entity.TerminationMaxTurns)
	}

	result := &entity.EpisodeResult{
		TurnCount:       state.Turn,
		Reason:          state.Reason,
		FinalAnswer:     finalAnswer,
		FinalTranscript: transcript.Render(ctx, uc.cfg.TokenBudget),
	}
	uc.logger.Info("episode terminated", "turns", result.TurnCount, "reason", result.Reason)
	return result, nil
}

// nextAction runs the AWAITING_MODEL → PARSING → VALIDATING part of
// the cycle. Malformed or policy-violating replies are answered with
// a synthetic corrective message and retried; the corrective exchange
// is transient and never enters the persistent history.
func (uc *RunEpisodeUseCase) nextAction(ctx context.Context, transcript *service.Transcript, state *entity.EpisodeState, turn int) (*service.ParsedReply, bool) {
	var corrective []entity.Message
	parseFailures := 0
	validationFailures := 0

	for {
		messages := transcript.Render(ctx, uc.cfg.TokenBudget)
		messages = append(messages, corrective...)

		reply, err := uc.complete(ctx, messages)
		if err != nil {
			uc.logger.Error("model unavailable after retries", "turn", turn, "error", err)
			state.Terminate(entity.TerminationModelUnavailable)
			return nil, false
		}

		parsed, err := uc.parser.Parse(reply)
		if err != nil {
			var parseErr *entity.ParseError
			if !errors.As(err, &parseErr) {
				parseErr = &entity.ParseError{Reason: err.Error()}
			}
			parseFailures++
			uc.logger.Warn("reply did not parse", "turn", turn, "attempt", parseFailures, "reason", parseErr.Reason)
			if parseFailures > uc.cfg.MaxParseRetries {
				state.Terminate(entity.TerminationParseExhausted)
				return nil, false
			}
			corrective = appendExchange(corrective, reply, fmt.Sprintf(
				"The previous reply could not be parsed (%s). Reply again with exactly one action wrapped in %s, for example: Action: %sclick [1234]%s.",
				parseErr.Reason, uc.parser.Splitter(), uc.parser.Splitter(), uc.parser.Splitter()))
			continue
		}

		if err := uc.whitelist.Validate(parsed.Action); err != nil {
			validationFailures++
			uc.logger.Warn("action denied by navigation policy", "turn", turn, "attempt", validationFailures, "target", parsed.Action.Target)
			if validationFailures > uc.cfg.MaxParseRetries {
				state.Terminate(entity.TerminationValidationExhausted)
				return nil, false
			}
			corrective = appendExchange(corrective, reply, fmt.Sprintf(
				"Navigation to %s is not permitted. Choose a different action.", parsed.Action.Target))
			continue
		}

		return parsed, true
	}
}

// execute runs the EXECUTING phase. Recoverable environment failures
// come back as an observation describing them; only a fatal error is
// returned as such.
func (uc *RunEpisodeUseCase) execute(ctx context.Context, action entity.Action) (observation, errMsg string, fatal error) {
	obs, err := uc.env.Execute(ctx, action)
	if err != nil {
		var fatalErr *entity.FatalEnvironmentError
		if errors.As(err, &fatalErr) {
			return "", "", fatalErr
		}
		msg := fmt.Sprintf("Attempt to perform %s failed: %v", action.String(), err)
		return msg, msg, nil
	}
	return obs, "None", nil
}

func (uc *RunEpisodeUseCase) complete(ctx context.Context, messages []entity.Message) (string, error) {
	req := output.CompletionRequest{
		Messages:    messages,
		MaxTokens:   uc.cfg.MaxTokens,
		Temperature: uc.cfg.Temperature,
	}

	var lastErr error
	for attempt := 1; attempt <= uc.cfg.MaxModelRetries; attempt++ {
		callCtx := ctx
		cancel := context.CancelFunc(func() {})
		if uc.cfg.ModelTimeout > 0 {
			callCtx, cancel = context.WithTimeout(ctx, uc.cfg.ModelTimeout)
		}
		reply, err := uc.llm.Complete(callCtx, req)
		cancel()
		if err == nil {
			return reply, nil
		}
		lastErr = err

		retryable := output.IsRetryable(err) || errors.Is(err, context.DeadlineExceeded)
		if !retryable || ctx.Err() != nil {
			break
		}
		uc.logger.Warn("model call failed, retrying", "attempt", attempt, "error", err)
	}
	return "", lastErr
}

func (uc *RunEpisodeUseCase) turnHeader(errMsg string) string {
	return uc.prompt.TurnHeader(uc.urls.ToReal(uc.env.CurrentURL()), errMsg)
}

// appendExchange keeps the failed assistant reply and the corrective
// user message as a transient tail so the model sees what it got
// wrong without the exchange polluting the turn history.
func appendExchange(corrective []entity.Message, reply, correction string) []entity.Message {
	return append(corrective,
		entity.Message{Role: entity.RoleAssistant, Content: reply},
		entity.Message{Role: entity.RoleUser, Content: correction},
	)
}
