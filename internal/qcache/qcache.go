// Package qcache is a content-addressed on-disk cache of generated
// question batches. A cache hit short-circuits an expensive model call.
//
// Keys are truncated content hashes; two parameter tuples colliding on the
// first 16 hex characters would silently serve each other's batches. That
// risk is accepted, not mitigated. Entries are never expired.
package qcache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/abhisek/quizforge/internal/question"
	"github.com/abhisek/quizforge/internal/similarity"
)

const (
	keyLen           = 16
	contentPrefixLen = 500
)

// Entry is one cached batch with the parameters that produced it.
type Entry struct {
	Topic        string              `json:"topic"`
	Difficulty   string              `json:"difficulty"`
	QuestionType string              `json:"question_type"`
	Questions    []question.Question `json:"questions"`
}

// Scored is a cached question ranked against a topic.
type Scored struct {
	Question    question.Question
	SourceTopic string
	Score       float64
}

// Cache stores one JSON file per key under a dedicated directory.
// IO failures degrade: reads become misses, writes are dropped.
type Cache struct {
	dir    string
	engine *similarity.Engine
}

// New creates a Cache rooted at dir. The directory is created on first use.
func New(dir string, engine *similarity.Engine) *Cache {
	return &Cache{dir: dir, engine: engine}
}

// Key derives the cache key from the generation parameters. Only the first
// 500 characters of content participate, mirroring what the prompt itself
// is keyed on.
func Key(topic, content, difficulty, questionType string) string {
	prefix := content
	if len(prefix) > contentPrefixLen {
		prefix = prefix[:contentPrefixLen]
	}
	input := fmt.Sprintf("%s:%s:%s:%s", topic, difficulty, questionType, prefix)
	sum := sha256.Sum256([]byte(input))
	return hex.EncodeToString(sum[:])[:keyLen]
}

// Get returns the cached batch for key, or (nil, false) on miss. Read and
// decode failures are logged and reported as a miss.
func (c *Cache) Get(key string) ([]question.Question, bool) {
	data, err := os.ReadFile(c.path(key))
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("error reading question cache", "key", key, "error", err)
		}
		return nil, false
	}

	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		slog.Error("error decoding question cache entry", "key", key, "error", err)
		return nil, false
	}

	slog.Info("question cache hit", "topic", entry.Topic, "questions", len(entry.Questions))
	return entry.Questions, true
}

// Put stores the batch under key, best effort. Failures are logged, never
// returned.
func (c *Cache) Put(key string, entry Entry) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		slog.Error("error creating cache directory", "dir", c.dir, "error", err)
		return
	}

	data, err := json.Marshal(entry)
	if err != nil {
		slog.Error("error encoding question cache entry", "key", key, "error", err)
		return
	}

	if err := os.WriteFile(c.path(key), data, 0o644); err != nil {
		slog.Error("error writing question cache", "key", key, "error", err)
		return
	}
	slog.Info("cached questions", "topic", entry.Topic, "questions", len(entry.Questions))
}

// Keyed pairs a cache key with its entry, for listings.
type Keyed struct {
	Key   string
	Entry Entry
}

// List returns every cache entry in directory order. Unreadable files are
// skipped with a warning.
func (c *Cache) List() []Keyed {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Error("error scanning cache directory", "dir", c.dir, "error", err)
		}
		return nil
	}

	var out []Keyed
	for _, de := range entries {
		if de.IsDir() || !strings.HasSuffix(de.Name(), ".json") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(c.dir, de.Name()))
		if err != nil {
			slog.Warn("error reading cache file", "file", de.Name(), "error", err)
			continue
		}
		var entry Entry
		if err := json.Unmarshal(data, &entry); err != nil {
			slog.Warn("error decoding cache file", "file", de.Name(), "error", err)
			continue
		}
		out = append(out, Keyed{Key: strings.TrimSuffix(de.Name(), ".json"), Entry: entry})
	}
	return out
}

// FindSimilar scans every cache file, scores each cached question against
// topic, and returns up to limit questions at or above threshold, best
// first. The scan is O(total cached questions) per call; acceptable only
// while the cache stays small.
func (c *Cache) FindSimilar(ctx context.Context, topic string, limit int, threshold float64) []Scored {
	if !c.engine.Available(ctx) {
		return nil
	}

	var all []Scored
	var texts []string
	for _, k := range c.List() {
		for _, q := range k.Entry.Questions {
			all = append(all, Scored{Question: q, SourceTopic: k.Entry.Topic})
			texts = append(texts, q.Description)
		}
	}
	if len(all) == 0 {
		return nil
	}

	scored := c.scoreAgainst(ctx, topic, all, texts, threshold)

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if limit > 0 && len(scored) > limit {
		scored = scored[:limit]
	}
	return scored
}

func (c *Cache) scoreAgainst(ctx context.Context, topic string, all []Scored, texts []string, threshold float64) []Scored {
	idxScores := c.engine.ScoreAll(ctx, texts, topic)
	if idxScores == nil {
		return nil
	}

	var kept []Scored
	for i, score := range idxScores {
		if score >= threshold {
			s := all[i]
			s.Score = score
			kept = append(kept, s)
		}
	}
	return kept
}

func (c *Cache) path(key string) string {
	return filepath.Join(c.dir, key+".json")
}
