package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"

	"outfitgen/internal/infra"
	"outfitgen/internal/providers/text"
)

func main() {
	_ = godotenv.Load()

	var (
		promptFlag string
		modelFlag  string
	)
	flag.StringVar(&promptFlag, "prompt", "", "Prompt to send (reads one line from stdin when empty)")
	flag.StringVar(&modelFlag, "model", "", "Text model (fallbacks to TEXT_MODEL, then "+infra.DefaultTextModel+")")
	flag.Parse()

	cfg, err := infra.LoadTextConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
	model := strings.TrimSpace(modelFlag)
	if model == "" {
		model = cfg.TextModel
	}

	prompt := strings.TrimSpace(promptFlag)
	if prompt == "" {
		fmt.Fprint(os.Stderr, "Enter your prompt: ")
		line, err := bufio.NewReader(os.Stdin).ReadString('\n')
		if err != nil && line == "" {
			fmt.Fprintf(os.Stderr, "failed to read prompt: %v\n", err)
			os.Exit(1)
		}
		prompt = strings.TrimSpace(line)
	}
	if prompt == "" {
		fmt.Fprintln(os.Stderr, "prompt is required via -prompt or stdin")
		os.Exit(1)
	}

	logger := infra.NewLogger("cli").With().Str("cmd", "outfittext").Str("model", model).Logger()

	ctx := context.Background()
	gen, err := text.NewGeminiGenerator(ctx, text.GeminiOptions{
		APIKey:  cfg.GoogleAPIKey,
		Timeout: cfg.TextTimeout,
		Logger:  &logger,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to create generator: %v\n", err)
		os.Exit(1)
	}

	out, err := gen.Generate(ctx, model, prompt)
	if err != nil {
		logger.Error().Err(err).Msg("generation failed")
		os.Exit(1)
	}
	fmt.Println(out)
}
