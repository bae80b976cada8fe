package main

import (
	"bufio"
	"context"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"webtask-agent/internal/di"
	"webtask-agent/internal/domain/entity"
	"webtask-agent/internal/infrastructure/env"
)

// parseURLMappings turns "local=real" pairs into the rewrite table,
// e.g. URL_MAPPINGS=http://localhost:7770=http://onestopmarket.com.
func parseURLMappings(pairs []string) map[string]string {
	if len(pairs) == 0 {
		return nil
	}
	mappings := make(map[string]string, len(pairs))
	for _, pair := range pairs {
		local, real, ok := strings.Cut(pair, "=")
		if !ok {
			log.Fatalf("invalid URL_MAPPINGS entry %q, want local=real", pair)
		}
		mappings[local] = real
	}
	return mappings
}

func main() {
	envService := env.NewEnvService()

	fmt.Println("\nEnter the objective for the agent:")
	reader := bufio.NewReader(os.Stdin)
	objective, err := reader.ReadString('\n')
	if err != nil {
		log.Fatal("failed to read input: ", err)
	}
	objective = strings.TrimSpace(objective)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	episodeCfg := di.Config{
		OpenRouterAPIKey: envService.MustGet("OPENROUTER_API_KEY"),
		OpenRouterModel:  envService.MustGet("OPENROUTER_MODEL_NAME"),
		BrowserHeadless:  envService.GetBool("BROWSER_HEADLESS", true),
		ScreenshotDir:    envService.Get("SCREENSHOT_DIR"),
		TaskName:         objective,
		LLMSummaries:     envService.GetBool("LLM_SUMMARIES", false),
	}
	episodeCfg.Episode.MaxTurns = envService.GetInt("MAX_TURNS", 30)
	episodeCfg.Episode.MaxParseRetries = envService.GetInt("MAX_PARSE_RETRIES", 3)
	episodeCfg.Episode.MaxModelRetries = envService.GetInt("MAX_MODEL_RETRIES", 3)
	episodeCfg.Episode.TokenBudget = envService.GetInt("TOKEN_BUDGET", 16384)
	episodeCfg.Episode.SummaryBudget = envService.GetInt("SUMMARY_BUDGET", 512)
	episodeCfg.Episode.MaxTokens = envService.GetInt("MAX_COMPLETION_TOKENS", 1024)
	episodeCfg.Episode.ModelTimeout = envService.GetDuration("MODEL_TIMEOUT", 2*time.Minute)
	episodeCfg.Episode.WhitelistHosts = envService.GetStrings("NAVIGATION_WHITELIST")
	episodeCfg.Episode.URLMappings = parseURLMappings(envService.GetStrings("URL_MAPPINGS"))

	container, err := di.NewContainer(ctx, episodeCfg)
	if err != nil {
		log.Fatalf("initialization failed: %v", err)
	}
	defer container.Close()

	startURL := envService.MustGet("START_URL")
	initialObservation, err := container.Environment.Execute(ctx, entity.Action{
		Kind:   entity.ActionGoto,
		Target: startURL,
	})
	if err != nil {
		container.Logger.Error("failed to open start page", "url", startURL, "error", err)
		log.Fatalf("failed to open start page: %v", err)
	}

	container.Logger.Info("episode started", "objective", objective, "startURL", startURL)
	fmt.Println("\nAgent is working...")

	result, err := container.Episode.Run(ctx, objective, initialObservation)
	if err != nil {
		container.Logger.Error("episode failed", "error", err)
		fmt.Printf("\nEpisode failed: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("\nTERMINATED: %s after %d turn(s)\n", result.Reason, result.TurnCount)
	if result.FinalAnswer != "" {
		fmt.Println("\nFINAL ANSWER:")
		fmt.Println(result.FinalAnswer)
	}
}
