package conversation

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Transcripts are working state for the automated flow; the lead record is the
// durable artifact. Stale transcripts age out.
const transcriptTTL = 7 * 24 * time.Hour

// RedisTranscriptStore persists transcripts in Redis so multiple instances can
// share conversation state.
type RedisTranscriptStore struct {
	redis  *redis.Client
	tracer trace.Tracer
}

// NewRedisTranscriptStore wraps the supplied Redis client.
func NewRedisTranscriptStore(client *redis.Client) *RedisTranscriptStore {
	if client == nil {
		panic("conversation: redis client cannot be nil")
	}
	return &RedisTranscriptStore{
		redis:  client,
		tracer: otel.Tracer("leadline.internal.conversation.transcript"),
	}
}

var _ TranscriptStore = (*RedisTranscriptStore)(nil)

// Load fetches and decodes the transcript for a lead, nil when absent.
func (s *RedisTranscriptStore) Load(ctx context.Context, leadID string) ([]Turn, error) {
	ctx, span := s.tracer.Start(ctx, "conversation.load_transcript")
	defer span.End()

	data, err := s.redis.Get(ctx, transcriptKey(leadID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to load transcript: %w", err)
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("conversation: failed to decode transcript: %w", err)
	}
	return turns, nil
}

// Save encodes and persists the transcript for a lead.
func (s *RedisTranscriptStore) Save(ctx context.Context, leadID string, turns []Turn) error {
	ctx, span := s.tracer.Start(ctx, "conversation.save_transcript")
	defer span.End()

	data, err := json.Marshal(turns)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to marshal transcript: %w", err)
	}
	if err := s.redis.Set(ctx, transcriptKey(leadID), data, transcriptTTL).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("conversation: failed to persist transcript: %w", err)
	}
	return nil
}

func transcriptKey(leadID string) string {
	return fmt.Sprintf("transcript:%s", leadID)
}
