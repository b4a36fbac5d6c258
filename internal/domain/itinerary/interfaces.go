package itinerary

import (
	"context"
	"time"

	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
	"github.com/wanderpaws/wanderpaws/internal/infra/llm/chatgpt"
	"github.com/wanderpaws/wanderpaws/internal/infra/places"
)

// ChatClient is the slice of the LLM client the pipeline needs.
type ChatClient interface {
	CreateChatCompletion(ctx context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

// SearchClient is the slice of the places client the pipeline needs.
type SearchClient interface {
	TextSearch(ctx context.Context, query string, opts places.SearchOptions) ([]trip.Place, error)
	PlaceDetails(ctx context.Context, placeID string) (trip.Place, error)
}

// PolicyRepository exposes destination pet-entry policy records.
type PolicyRepository interface {
	FindBySlug(ctx context.Context, slug string) ([]trip.PolicyRequirementStep, bool, error)
}

// ResponseCache is a bounded instance-local cache for model output. Both
// operations are best effort; a miss or dropped write is never an error.
type ResponseCache interface {
	Get(ctx context.Context, key string) (string, bool)
	Set(ctx context.Context, key, value string, ttl time.Duration)
}

// Config tunes the generation pipeline.
type Config struct {
	Model        string
	Temperature  float32
	RadiusMeters int
	MaxPerQuery  int
	MaxInterests int
	CacheTTL     time.Duration
}
