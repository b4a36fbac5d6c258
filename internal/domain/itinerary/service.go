package itinerary

import (
	"context"
	"log/slog"
	"sync"

	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
	"github.com/wanderpaws/wanderpaws/internal/infra/llm/chatgpt"
	"github.com/wanderpaws/wanderpaws/internal/infra/places"
	apperrors "github.com/wanderpaws/wanderpaws/pkg/errors"
	"github.com/wanderpaws/wanderpaws/pkg/metrics"
)

// Service generates complete pet-friendly itineraries.
type Service interface {
	Generate(ctx context.Context, req trip.Request) (Result, error)
}

// Result is the full payload returned to the client.
type Result struct {
	Itinerary               trip.Itinerary               `json:"itinerary"`
	PolicyRequirements      []trip.PolicyRequirementStep `json:"policyRequirements"`
	GeneralPreparation      []string                     `json:"generalPreparation"`
	PreDeparturePreparation []string                     `json:"preDeparturePreparation"`
	DestinationSlug         string                       `json:"destinationSlug"`
	TokenUsage              metrics.TokenUsage           `json:"tokenUsage,omitempty"`
}

type service struct {
	cfg      Config
	chat     ChatClient
	search   SearchClient
	policies PolicyRepository
	cache    ResponseCache
	logger   *slog.Logger
	shuffle  func([]trip.Activity) []trip.Activity
}

// NewService wires up the itinerary generation pipeline.
func NewService(cfg Config, chat ChatClient, search SearchClient, policies PolicyRepository, cache ResponseCache, logger *slog.Logger) Service {
	return &service{
		cfg:      cfg,
		chat:     chat,
		search:   search,
		policies: policies,
		cache:    cache,
		logger:   logger.With("component", "itinerary.service"),
		shuffle:  defaultShuffle,
	}
}

// Generate runs the full pipeline: validate, extract preferences and policy
// in parallel, source candidates, build the day skeleton, then enhance every
// day concurrently. Soft external failures degrade quality silently; the only
// hard failures are invalid input and context cancellation.
func (s *service) Generate(ctx context.Context, req trip.Request) (Result, error) {
	if err := req.Validate(); err != nil {
		return Result{}, err
	}

	usage := &metrics.UsageCounter{}
	ctx = withUsage(ctx, usage)

	var (
		wg          sync.WaitGroup
		preferences []string
		policySteps []trip.PolicyRequirementStep
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		preferences = s.extractPreferences(ctx, req.Notes)
	}()
	go func() {
		defer wg.Done()
		policySteps = s.lookupPolicy(ctx, req)
	}()
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return Result{}, apperrors.Wrap("generation_failed", "itinerary generation interrupted", err)
	}

	st := s.prepareRun(ctx, req)
	days := s.buildDays(ctx, st)

	if err := ctx.Err(); err != nil {
		return Result{}, apperrors.Wrap("generation_failed", "itinerary generation interrupted", err)
	}

	s.enhanceDays(ctx, req, days, preferences)

	total, calls := usage.Snapshot()
	s.logger.Info("itinerary generated",
		"destination", req.Destination,
		"days", len(days),
		"llm_calls", calls,
		"total_tokens", total.TotalTokens,
	)

	return Result{
		Itinerary:               trip.Itinerary{Days: days},
		PolicyRequirements:      policySteps,
		GeneralPreparation:      generalPreparation(req),
		PreDeparturePreparation: preDeparturePreparation(req),
		DestinationSlug:         req.DestinationSlug(),
		TokenUsage:              total,
	}, nil
}

// prepareRun issues the up-front searches (airport, accommodation,
// restaurants, interests) and seeds the run-scoped dedup state.
func (s *service) prepareRun(ctx context.Context, req trip.Request) *runState {
	st := &runState{
		req:  req,
		seen: make(map[string]struct{}),
		used: make(map[string]struct{}),
	}

	// The airport query doubles as the geocode for location bias.
	airports, err := s.search.TextSearch(ctx, req.Destination+" airport", places.SearchOptions{MaxResults: 1, Type: "airport"})
	if err != nil {
		s.logger.Warn("airport search failed", "destination", req.Destination, "error", err)
	}
	if len(airports) > 0 {
		st.airportName = airports[0].Name
		st.bias = places.SearchOptions{
			Latitude:     airports[0].Latitude,
			Longitude:    airports[0].Longitude,
			RadiusMeters: s.cfg.RadiusMeters,
		}
	}

	lodgingQuery := req.Accommodation + " in " + req.Destination
	lodging := s.searchPlaces(ctx, req, lodgingQuery, "lodging", st.bias)
	if len(lodging) > 0 {
		place := lodging[0]
		if enriched, err := s.search.PlaceDetails(ctx, place.ID); err == nil {
			place = enriched
		}
		st.accommodation = &place
		st.seen[place.DedupKey()] = struct{}{}
		// Center subsequent searches on the stay rather than the airport.
		st.bias = places.SearchOptions{
			Latitude:     place.Latitude,
			Longitude:    place.Longitude,
			RadiusMeters: s.cfg.RadiusMeters,
		}
	}

	// seen dedupes across every search of the run; used marks what the
	// scheduler has actually placed into a slot.
	st.restaurants = s.buildRestaurantPool(ctx, req, st.bias, st.seen)
	st.activities = s.buildInterestPool(ctx, req, st.bias, st.seen)
	return st
}

type usageContextKey struct{}

func withUsage(ctx context.Context, counter *metrics.UsageCounter) context.Context {
	return context.WithValue(ctx, usageContextKey{}, counter)
}

// usageOf folds one call's token usage into the request counter, when present.
func (s *service) usageOf(ctx context.Context, usage chatgpt.Usage) {
	counter, ok := ctx.Value(usageContextKey{}).(*metrics.UsageCounter)
	if !ok {
		return
	}
	counter.Add(metrics.TokenUsage{
		PromptTokens:     usage.PromptTokens,
		CompletionTokens: usage.CompletionTokens,
		TotalTokens:      usage.TotalTokens,
	})
}
