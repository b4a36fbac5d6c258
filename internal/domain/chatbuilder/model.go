package chatbuilder

import (
	"context"
	"time"

	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
	"github.com/wanderpaws/wanderpaws/internal/infra/llm/chatgpt"
	"github.com/wanderpaws/wanderpaws/internal/infra/places"
)

// Request is one conversational turn from the client.
type Request struct {
	MessageContent  string     `json:"messageContent"`
	ThreadID        string     `json:"threadId,omitempty"`
	CurrentTripData trip.State `json:"currentTripData"`
}

// Response is the builder's reply. UpdatedTripData is set only when a tool
// call changed the trip state during this turn.
type Response struct {
	Reply                      string      `json:"reply"`
	UpdatedTripData            *trip.State `json:"updatedTripData,omitempty"`
	TriggerItineraryGeneration bool        `json:"triggerItineraryGeneration,omitempty"`
	ThreadID                   string      `json:"threadId,omitempty"`
}

// AssistantClient is the slice of the LLM client the builder needs.
type AssistantClient interface {
	Configured() bool
	CreateThread(ctx context.Context) (chatgpt.Thread, error)
	AddThreadMessage(ctx context.Context, threadID, role, content string) error
	CreateRun(ctx context.Context, threadID, assistantID string, tools []chatgpt.Tool) (chatgpt.Run, error)
	RetrieveRun(ctx context.Context, threadID, runID string) (chatgpt.Run, error)
	SubmitToolOutputs(ctx context.Context, threadID, runID string, outputs []chatgpt.ToolOutput) (chatgpt.Run, error)
	CancelRun(ctx context.Context, threadID, runID string) error
	LatestAssistantMessage(ctx context.Context, threadID string) (string, error)
}

// SearchClient is the slice of the places client the tools need.
type SearchClient interface {
	TextSearch(ctx context.Context, query string, opts places.SearchOptions) ([]trip.Place, error)
}

// PolicyRepository exposes destination pet-entry policy records.
type PolicyRepository interface {
	FindBySlug(ctx context.Context, slug string) ([]trip.PolicyRequirementStep, bool, error)
}

// ProfileRepository persists learned preferences on the user's account.
type ProfileRepository interface {
	LoadPreferences(ctx context.Context, userID string) ([]trip.LearnedPreference, error)
	SavePreferences(ctx context.Context, userID string, prefs []trip.LearnedPreference) error
}

// Config tunes the conversational builder.
type Config struct {
	AssistantID        string
	PollInterval       time.Duration
	RunDeadline        time.Duration
	ContextTokenBudget int
}

// session accumulates the effects of one conversational turn.
type session struct {
	state   trip.State
	userID  string
	dirty   bool
	trigger bool
	partial bool
}
