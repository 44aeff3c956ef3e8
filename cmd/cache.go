package cmd

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/abhisek/quizforge/internal/embedding"
	"github.com/abhisek/quizforge/internal/qcache"
	"github.com/abhisek/quizforge/internal/similarity"
)

var cacheCmd = &cobra.Command{
	Use:   "cache",
	Short: "Inspect the question cache",
}

var cacheListCmd = &cobra.Command{
	Use:   "list",
	Short: "List cached question batches",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		emb := embedding.New(embedding.Config{Host: cfg.EmbeddingHost, Model: cfg.EmbeddingModel})
		cache := qcache.New(cfg.CacheDir, similarity.NewEngine(emb))

		entries := cache.List()
		if len(entries) == 0 {
			fmt.Println("Question cache is empty.")
			return nil
		}

		fmt.Printf("%-16s  %-30s  %-10s  %-16s  %s\n",
			"Key", "Topic", "Difficulty", "Type", "Questions")
		fmt.Println(strings.Repeat("─", 90))
		for _, k := range entries {
			fmt.Printf("%-16s  %-30s  %-10s  %-16s  %d\n",
				k.Key,
				truncate(k.Entry.Topic, 30),
				k.Entry.Difficulty,
				k.Entry.QuestionType,
				len(k.Entry.Questions))
		}
		return nil
	},
}

var cacheSimilarCmd = &cobra.Command{
	Use:   "similar <topic>",
	Short: "Find cached questions similar to a topic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		topic := args[0]
		limit, _ := cmd.Flags().GetInt("limit")

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		emb := embedding.New(embedding.Config{Host: cfg.EmbeddingHost, Model: cfg.EmbeddingModel})
		engine := similarity.NewEngine(emb)
		cache := qcache.New(cfg.CacheDir, engine)

		ctx := cmd.Context()
		if !engine.Available(ctx) {
			return fmt.Errorf("embedding backend unavailable at %s; similarity search needs it", cfg.EmbeddingHost)
		}

		scored := cache.FindSimilar(ctx, topic, limit, cfg.CacheSimilarityThreshold)
		if len(scored) == 0 {
			fmt.Printf("No cached questions scored at or above %.2f for %q.\n",
				cfg.CacheSimilarityThreshold, topic)
			return nil
		}

		bold := color.New(color.Bold)
		for i, s := range scored {
			bold.Printf("%d. [%.3f] %s\n", i+1, s.Score, s.Question.Description)
			fmt.Printf("   from topic %q, answer: %s\n", s.SourceTopic, s.Question.Answer)
		}
		return nil
	},
}

func init() {
	cacheSimilarCmd.Flags().IntP("limit", "n", 10, "Maximum results")

	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheSimilarCmd)
}
