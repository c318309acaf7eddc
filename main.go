package main

import (
	"fmt"
	"os"
	"runtime"

	"github.com/spf13/cobra"

	"proposal_agent/config"
	"proposal_agent/generator"
	"proposal_agent/library"
	"proposal_agent/logging"
)

const (
	Version = "0.1.0"
	appName = "proposal-agent"

	apiKeyEnv = "ANTHROPIC_API_KEY"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			buf := make([]byte, 4096)
			n := runtime.Stack(buf, false)
			_, _ = fmt.Fprintf(os.Stderr, "PANIC: %v\nStack trace:\n%s\n", r, string(buf[:n]))
			os.Exit(2)
		}
	}()

	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// globalOpts are the flags shared by every subcommand.
type globalOpts struct {
	configPath string
	logLevel   string
	provider   string
}

func rootCmd() *cobra.Command {
	opts := &globalOpts{}
	cmd := &cobra.Command{
		Use:   appName,
		Short: "Turn discovery call transcripts into grounded proposal packages",
		Long: `proposal-agent extracts a structured brief from a sales discovery call transcript
and generates a proposal package (deck outline, talk track and FAQ) grounded in a
library of past proposals.

Run "serve" for the HTTP API, or "extract" and "generate" from the command line.`,
		SilenceUsage: true,
	}
	cmd.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "", "Log level override (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&opts.provider, "provider", "", "LLM provider override (openai, mock)")

	cmd.AddCommand(serveCmd(opts), extractCmd(opts), generateCmd(opts))
	cmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("%s version %s\n", appName, Version)
		},
	})
	return cmd
}

// app holds the services shared by the subcommands.
type app struct {
	cfg       *config.Config
	log       logging.Logger
	extractor *generator.Extractor
	generator *generator.Generator
	corpus    *library.Corpus
}

// bootstrap loads configuration and builds the logger and the shared services.
func bootstrap(opts *globalOpts) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.provider != "" {
		cfg.LLM.Provider = opts.provider
		if err := cfg.Validate(); err != nil {
			return nil, fmt.Errorf("invalid configuration: %w", err)
		}
	}

	log, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	clients, err := buildLLM(cfg.LLM)
	if err != nil {
		return nil, err
	}
	corpus := library.Default()

	extractor, err := generator.NewExtractor(clients, log,
		generator.WithExtractMaxTokens(cfg.LLM.ExtractMaxTokens),
		generator.WithRequestTimeout(cfg.LLM.RequestTimeout),
	)
	if err != nil {
		return nil, err
	}
	gen, err := generator.NewGenerator(clients, library.NewRetriever(corpus), log,
		generator.WithTopK(cfg.Retrieval.TopK),
		generator.WithGenerateMaxTokens(cfg.LLM.GenerateMaxTokens),
		generator.WithStreamTimeout(cfg.LLM.StreamTimeout),
	)
	if err != nil {
		return nil, err
	}

	log.Info("configuration loaded", map[string]interface{}{
		"provider": cfg.LLM.Provider,
		"model":    cfg.LLM.Model,
		"sessions": cfg.Sessions.Backend,
		"corpus":   len(corpus.Entries),
	})
	return &app{cfg: cfg, log: log, extractor: extractor, generator: gen, corpus: corpus}, nil
}

func buildLLM(cfg config.LLMConfig) (generator.ClientFactory, error) {
	switch cfg.Provider {
	case config.ProviderOpenAI:
		return generator.NewOpenAIFactory(&generator.LLMSettings{
			Model:   cfg.Model,
			BaseURL: cfg.BaseURL,
		})
	case config.ProviderMock:
		return (&generator.MockLLM{}).Factory(), nil
	default:
		return nil, fmt.Errorf("llm provider %s not supported", cfg.Provider)
	}
}
