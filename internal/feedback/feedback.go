// Package feedback persists end-user ratings of streamed answers keyed by the
// graph run that produced them.
package feedback

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	errx "github.com/mcp-orchestrator/server/internal/core/error"
	logx "github.com/mcp-orchestrator/server/pkg/logger"
)

// Ratings accepted on submission.
const (
	RatingThumbsUp   = "thumbs_up"
	RatingThumbsDown = "thumbs_down"
)

// Categories a thumbs-down may carry to explain what went wrong.
var allowedTypes = map[string]struct{}{
	"not_relevant":            {},
	"biased":                  {},
	"not_factual":             {},
	"incomplete_instructions": {},
	"unsafe":                  {},
	"style_tone":              {},
	"other":                   {},
}

// ValidRating reports whether rating is one of the accepted values.
func ValidRating(rating string) bool {
	return rating == RatingThumbsUp || rating == RatingThumbsDown
}

// ValidType reports whether feedbackType is a known category. Empty is
// allowed; the category is optional.
func ValidType(feedbackType string) bool {
	if feedbackType == "" {
		return true
	}
	_, ok := allowedTypes[feedbackType]
	return ok
}

// Score maps a rating to its numeric value for aggregation.
func Score(rating string) int {
	if rating == RatingThumbsUp {
		return 1
	}
	return -1
}

// Entry is one stored feedback record.
type Entry struct {
	RunID         string    `json:"run_id"`
	RequestID     string    `json:"request_id,omitempty"`
	Question      string    `json:"question,omitempty"`
	AnswerSnippet string    `json:"answer_snippet,omitempty"`
	Rating        string    `json:"rating"`
	Score         int       `json:"score"`
	FeedbackType  string    `json:"feedback_type,omitempty"`
	Comment       string    `json:"comment,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type commands interface {
	RPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

// RedisStore appends feedback entries to a per-run list with a retention TTL.
type RedisStore struct {
	client commands
	ttl    time.Duration
}

func NewRedisStore(client commands, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

func entriesKey(runID string) string {
	return fmt.Sprintf("feedback:%s:entries", runID)
}

// Submit validates and stores one entry. The entry's score and timestamp are
// filled in here.
func (s *RedisStore) Submit(ctx context.Context, entry Entry) error {
	if entry.RunID == "" {
		return errx.New(fmt.Errorf("feedback: missing run_id"), 400, "run_id is required")
	}
	if !ValidRating(entry.Rating) {
		return errx.New(fmt.Errorf("feedback: invalid rating %q", entry.Rating), 400, "rating must be thumbs_up or thumbs_down")
	}
	if !ValidType(entry.FeedbackType) {
		return errx.New(fmt.Errorf("feedback: invalid feedback_type %q", entry.FeedbackType), 400, "unknown feedback_type")
	}

	entry.Score = Score(entry.Rating)
	entry.CreatedAt = time.Now().UTC()

	payload, err := json.Marshal(entry)
	if err != nil {
		return errx.New(err, 500, errx.SystemErrorMessage)
	}

	key := entriesKey(entry.RunID)
	if err := s.client.RPush(ctx, key, payload).Err(); err != nil {
		return errx.WrapRedis(err)
	}
	if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
		return errx.WrapRedis(err)
	}

	logx.Debug().
		Str("run_id", entry.RunID).
		Str("rating", entry.Rating).
		Msg("Feedback stored")
	return nil
}
