package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizforge/internal/embedding"
	"github.com/abhisek/quizforge/internal/generator"
	"github.com/abhisek/quizforge/internal/llm"
	"github.com/abhisek/quizforge/internal/qcache"
	"github.com/abhisek/quizforge/internal/similarity"
	"github.com/abhisek/quizforge/internal/store"
	"github.com/abhisek/quizforge/internal/validator"
)

// localOwnerID marks sets created from this machine's CLI. There is no
// multi-user auth in the command line surface.
const localOwnerID = 1

var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate one or more question sets",
	Long: `Generates question sets for a topic, optionally grounded in a content
file. Event frames stream to stdout as newline-delimited JSON; human
progress goes to stderr.`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringP("topic", "t", "", "Topic to generate questions for (required)")
	generateCmd.Flags().String("content-file", "", "File whose text grounds the questions")
	generateCmd.Flags().IntP("sets", "s", 1, "Number of independent question sets")
	generateCmd.Flags().IntP("count", "n", 5, "Questions per set")
	generateCmd.Flags().StringP("difficulty", "d", "medium", "Difficulty: easy, medium, or hard")
	generateCmd.Flags().String("type", "multiple_choice", "Question type")
	generateCmd.Flags().String("instructions", "", "Extra instructions passed to the model")
	generateCmd.Flags().Bool("no-cache", false, "Skip the question cache")
	generateCmd.Flags().Bool("web-search", false, "Ground generation with live web results (disables the cache)")
	generateCmd.Flags().Bool("skip-api-validation", false, "Validate locally only, no LLM validation calls")
	generateCmd.Flags().Bool("ndjson", true, "Write event frames to stdout as NDJSON")
	_ = generateCmd.MarkFlagRequired("topic")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	topic, _ := cmd.Flags().GetString("topic")
	contentFile, _ := cmd.Flags().GetString("content-file")
	sets, _ := cmd.Flags().GetInt("sets")
	count, _ := cmd.Flags().GetInt("count")
	difficulty, _ := cmd.Flags().GetString("difficulty")
	questionType, _ := cmd.Flags().GetString("type")
	instructions, _ := cmd.Flags().GetString("instructions")
	noCache, _ := cmd.Flags().GetBool("no-cache")
	webSearch, _ := cmd.Flags().GetBool("web-search")
	skipAPI, _ := cmd.Flags().GetBool("skip-api-validation")
	ndjson, _ := cmd.Flags().GetBool("ndjson")

	var content string
	if contentFile != "" {
		data, err := os.ReadFile(contentFile)
		if err != nil {
			return fmt.Errorf("read content file: %w", err)
		}
		content = string(data)
	}

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	dbPath, err := resolveDBPath(cmd, cfg)
	if err != nil {
		return fmt.Errorf("resolve database path: %w", err)
	}
	s, err := store.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer s.Close()

	ctx := cmd.Context()

	provider, err := buildProvider(ctx, s)
	if err != nil {
		return err
	}

	emb := embedding.New(embedding.Config{Host: cfg.EmbeddingHost, Model: cfg.EmbeddingModel})
	engine := similarity.NewEngine(emb)
	cache := qcache.New(cfg.CacheDir, engine)

	valCfg := validator.DefaultConfig()
	valCfg.DupThreshold = cfg.DupThreshold
	valCfg.Temperature = cfg.Temperature
	val := validator.New(provider, engine, valCfg)

	genCfg := generator.DefaultConfig()
	genCfg.DupThreshold = cfg.DupThreshold
	genCfg.CacheSimilarityThreshold = cfg.CacheSimilarityThreshold
	genCfg.Temperature = cfg.Temperature

	session, err := s.SessionRepo().Create(ctx, localOwnerID, topic, sets)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	reporter := &store.SessionReporter{Repo: s.SessionRepo(), SessionID: session.ID}

	gen := generator.New(provider, val, engine, cache, s.QuestionRepo(), reporter, genCfg)

	events := gen.StreamBatch(ctx, generator.BatchParams{
		Params: generator.Params{
			Topic:        topic,
			Content:      content,
			NumQuestions: count,
			Difficulty:   difficulty,
			QuestionType: questionType,
			UserContext:  instructions,
			UseCache:     !noCache,
			UseWebSearch: webSearch,
		},
		NumSets:           sets,
		OwnerID:           localOwnerID,
		SessionID:         session.ID,
		SkipAPIValidation: skipAPI,
	})

	status := streamToConsole(events, ndjson)
	if err := s.SessionRepo().Finish(context.Background(), session.ID, status); err != nil {
		fmt.Fprintf(os.Stderr, "warning: could not finalize session: %v\n", err)
	}
	if status == store.SessionFailed {
		return fmt.Errorf("generation produced no question sets")
	}
	return nil
}

// streamToConsole drains the event channel, writing NDJSON frames to
// stdout and colored progress to stderr. Returns the final session status.
func streamToConsole(events <-chan generator.Event, ndjson bool) string {
	var (
		cyan  = color.New(color.FgCyan)
		green = color.New(color.FgGreen)
		red   = color.New(color.FgRed)
	)
	enc := json.NewEncoder(os.Stdout)

	results := 0
	for ev := range events {
		if ndjson {
			if err := enc.Encode(ev); err != nil {
				fmt.Fprintf(os.Stderr, "warning: could not encode frame: %v\n", err)
			}
		}

		switch ev.Type {
		case generator.EventStart:
			cyan.Fprintf(os.Stderr, "Generating %d set(s)...\n", ev.TotalSets)
		case generator.EventProgress:
			cyan.Fprintln(os.Stderr, ev.Message)
		case generator.EventError:
			red.Fprintln(os.Stderr, ev.Message)
		case generator.EventResult:
			results++
			green.Fprintf(os.Stderr, "Set %d ready: %d questions", ev.SetIndex, len(ev.Data))
			if ev.SetID != 0 {
				green.Fprintf(os.Stderr, " (saved as set %d)", ev.SetID)
			}
			fmt.Fprintln(os.Stderr)
		case generator.EventComplete:
			green.Fprintln(os.Stderr, "Done.")
		}
	}

	if results == 0 {
		return store.SessionFailed
	}
	return store.SessionCompleted
}

// buildProvider assembles the LLM provider from QUIZFORGE_* variables,
// falling back to probing the standard provider key variables.
func buildProvider(ctx context.Context, s *store.Store) (llm.Provider, error) {
	cfg := llm.ConfigFromEnv()
	if err := cfg.Validate(); err != nil {
		discovered, ok := llm.DiscoverConfig()
		if !ok {
			return nil, fmt.Errorf("no LLM provider configured: %w", err)
		}
		cfg = discovered
	}
	return llm.NewProvider(ctx, cfg, s.EventRepo())
}
