package di

import (
	"context"
	"fmt"

	"go.uber.org/zap/zapcore"

	"webtask-agent/internal/application/port/input"
	"webtask-agent/internal/application/port/output"
	"webtask-agent/internal/application/service"
	"webtask-agent/internal/application/usecase"
	"webtask-agent/internal/infrastructure/browser/rod"
	"webtask-agent/internal/infrastructure/llm/openrouter"
	"webtask-agent/internal/infrastructure/logger"
	"webtask-agent/internal/infrastructure/prompts"
)

type Container struct {
	Environment output.EnvironmentPort
	LLM         output.LLMPort
	Logger      output.LoggerPort
	Episode     input.EpisodeRunner
}

type Config struct {
	OpenRouterAPIKey string
	OpenRouterModel  string
	BrowserHeadless  bool
	ScreenshotDir    string
	TaskName         string
	LogLevel         zapcore.Level

	// LLMSummaries switches the observation summarizer from the
	// deterministic heuristic to a nested model call.
	LLMSummaries bool

	Episode usecase.Config
}

func NewContainer(ctx context.Context, cfg Config) (*Container, error) {
	log, err := logger.NewZapAdapter(cfg.TaskName, cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	envCfg := rod.DefaultConfig()
	envCfg.Headless = cfg.BrowserHeadless
	envCfg.ScreenshotDir = cfg.ScreenshotDir
	envCfg.Logger = log
	environment, err := rod.NewEnvironmentAdapter(ctx, envCfg)
	if err != nil {
		log.Close()
		return nil, fmt.Errorf("failed to create browser environment: %w", err)
	}

	llmCfg := openrouter.DefaultConfig(cfg.OpenRouterAPIKey, cfg.OpenRouterModel)
	llmCfg.Logger = log
	llm := openrouter.NewAdapter(llmCfg)

	var summarizer output.SummarizerPort = service.NewHeuristicSummarizer()
	if cfg.LLMSummaries {
		summarizer = openrouter.NewSummarizer(llm, log)
	}

	instr, err := prompts.LoadDefault()
	if err != nil {
		environment.Close()
		log.Close()
		return nil, fmt.Errorf("failed to load instruction: %w", err)
	}
	generator, err := prompts.NewGenerator(instr)
	if err != nil {
		environment.Close()
		log.Close()
		return nil, fmt.Errorf("failed to build prompt generator: %w", err)
	}

	episodeCfg := cfg.Episode
	if episodeCfg.ActionSplitter == "" {
		episodeCfg.ActionSplitter = instr.MetaData.ActionSplitter
	}

	runner := usecase.NewRunEpisodeUseCase(llm, environment, summarizer, generator, log, episodeCfg)

	return &Container{
		Environment: environment,
		LLM:         llm,
		Logger:      log,
		Episode:     runner,
	}, nil
}

func (c *Container) Close() {
	if c.Environment != nil {
		c.Environment.Close()
	}
	if c.Logger != nil {
		c.Logger.Close()
	}
}
