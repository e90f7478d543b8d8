package cli

import (
	"context"
	"os"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"

	"staffrag/pkg/adapter"
	"staffrag/pkg/corpus"
	"staffrag/pkg/model"
	"staffrag/pkg/usecase/chat"
	"staffrag/pkg/utils/logging"
)

// defaultConfigFile is picked up from the working directory when --config is
// not given.
const defaultConfigFile = "staffrag.yml"

// config holds configuration values
type config struct {
	configPath string
	logLevel   string

	// Corpus
	corpusPath string

	// Ollama
	endpoint        string
	generationModel string
	embeddingModel  string

	// Pipeline
	retrievalK      int64
	maxHistoryTurns int64
	systemPrompt    string
}

// fileConfig mirrors the optional YAML config file. Flags given explicitly
// on the command line win over file values.
type fileConfig struct {
	GenerationEndpoint string `yaml:"generation_endpoint"`
	GenerationModel    string `yaml:"generation_model"`
	EmbeddingModel     string `yaml:"embedding_model"`
	Corpus             string `yaml:"corpus"`
	RetrievalK         int64  `yaml:"retrieval_k"`
	MaxHistoryTurns    int64  `yaml:"max_history_turns"`
	SystemPrompt       string `yaml:"system_prompt"`
}

// globalFlags returns common flags used across commands with destination config
func globalFlags(cfg *config) []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:        "config",
			Aliases:     []string{"c"},
			Usage:       "Path to YAML config file",
			Sources:     cli.EnvVars("STAFFRAG_CONFIG"),
			Destination: &cfg.configPath,
		},
		&cli.StringFlag{
			Name:        "log-level",
			Usage:       "Log level (debug, info, warn, error)",
			Value:       "info",
			Sources:     cli.EnvVars("STAFFRAG_LOG_LEVEL"),
			Destination: &cfg.logLevel,
		},
		&cli.StringFlag{
			Name:        "corpus",
			Aliases:     []string{"f"},
			Usage:       "Path to the corpus file (blank-line separated records)",
			Value:       "employees.txt",
			Sources:     cli.EnvVars("STAFFRAG_CORPUS"),
			Destination: &cfg.corpusPath,
		},
		&cli.StringFlag{
			Name:        "endpoint",
			Usage:       "Base URL of the Ollama instance",
			Value:       "http://localhost:11434",
			Sources:     cli.EnvVars("STAFFRAG_ENDPOINT"),
			Destination: &cfg.endpoint,
		},
		&cli.StringFlag{
			Name:        "generation-model",
			Usage:       "Ollama model used for text generation",
			Value:       "qwen2.5:1.5b",
			Sources:     cli.EnvVars("STAFFRAG_GENERATION_MODEL"),
			Destination: &cfg.generationModel,
		},
		&cli.StringFlag{
			Name:        "embedding-model",
			Usage:       "Ollama model used for embeddings",
			Value:       "nomic-embed-text",
			Sources:     cli.EnvVars("STAFFRAG_EMBEDDING_MODEL"),
			Destination: &cfg.embeddingModel,
		},
		&cli.IntFlag{
			Name:        "retrieval-k",
			Aliases:     []string{"k"},
			Usage:       "Number of documents to retrieve per query",
			Value:       chat.DefaultTopK,
			Sources:     cli.EnvVars("STAFFRAG_RETRIEVAL_K"),
			Destination: &cfg.retrievalK,
		},
		&cli.IntFlag{
			Name:        "max-history-turns",
			Usage:       "Number of recent conversation turns kept for context",
			Value:       chat.DefaultMaxTurns,
			Sources:     cli.EnvVars("STAFFRAG_MAX_HISTORY_TURNS"),
			Destination: &cfg.maxHistoryTurns,
		},
		&cli.StringFlag{
			Name:        "system-prompt",
			Usage:       "System instructions prepended to every prompt",
			Sources:     cli.EnvVars("STAFFRAG_SYSTEM_PROMPT"),
			Destination: &cfg.systemPrompt,
		},
	}
}

// setup applies the config file, configures logging, and returns a context
// carrying the logger. It must run at the start of every command action.
func (cfg *config) setup(ctx context.Context, c *cli.Command) (context.Context, error) {
	if err := cfg.applyFile(c); err != nil {
		return ctx, err
	}

	logger := logging.New(cfg.logLevel, os.Stderr)
	logging.SetDefault(logger)
	return logging.With(ctx, logger), nil
}

// applyFile merges the YAML config file into cfg. File values apply only
// where the corresponding flag was not set explicitly.
func (cfg *config) applyFile(c *cli.Command) error {
	path := cfg.configPath
	if path == "" {
		if _, err := os.Stat(defaultConfigFile); err != nil {
			return nil
		}
		path = defaultConfigFile
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return goerr.Wrap(err, "failed to read config file", goerr.V("file", path))
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return goerr.Wrap(err, "failed to parse config file", goerr.V("file", path))
	}

	if fc.GenerationEndpoint != "" && !c.IsSet("endpoint") {
		cfg.endpoint = fc.GenerationEndpoint
	}
	if fc.GenerationModel != "" && !c.IsSet("generation-model") {
		cfg.generationModel = fc.GenerationModel
	}
	if fc.EmbeddingModel != "" && !c.IsSet("embedding-model") {
		cfg.embeddingModel = fc.EmbeddingModel
	}
	if fc.Corpus != "" && !c.IsSet("corpus") {
		cfg.corpusPath = fc.Corpus
	}
	if fc.RetrievalK > 0 && !c.IsSet("retrieval-k") {
		cfg.retrievalK = fc.RetrievalK
	}
	if fc.MaxHistoryTurns > 0 && !c.IsSet("max-history-turns") {
		cfg.maxHistoryTurns = fc.MaxHistoryTurns
	}
	if fc.SystemPrompt != "" && !c.IsSet("system-prompt") {
		cfg.systemPrompt = fc.SystemPrompt
	}

	return nil
}

// newOllama creates the Ollama client
func (cfg *config) newOllama() *adapter.OllamaClient {
	return adapter.NewOllama(cfg.endpoint,
		adapter.WithGenerationModel(cfg.generationModel),
		adapter.WithEmbeddingModel(cfg.embeddingModel),
	)
}

// newSession loads the corpus, embeds it, and creates a chat session. An
// unreadable corpus degrades to an empty index with a warning: every query
// then reports that no documents are loaded instead of aborting the command.
func (cfg *config) newSession(ctx context.Context) (*chat.Session, error) {
	ollama := cfg.newOllama()

	docs, err := corpus.Load(cfg.corpusPath)
	if err != nil {
		if !goerr.HasTag(err, model.ErrCorpusUnavailable) {
			return nil, err
		}
		logging.From(ctx).Warn("corpus unavailable, continuing with empty corpus",
			"file", cfg.corpusPath, "error", err)
	}

	index, err := chat.BuildIndex(ctx, ollama, docs)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to build index")
	}

	return chat.New(ollama, docs, index, chat.Config{
		SystemPrompt:    cfg.systemPrompt,
		TopK:            int(cfg.retrievalK),
		MaxHistoryTurns: int(cfg.maxHistoryTurns),
	}), nil
}
