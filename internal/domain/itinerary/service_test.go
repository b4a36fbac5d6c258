package itinerary

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
	"github.com/wanderpaws/wanderpaws/internal/infra/llm/chatgpt"
	"github.com/wanderpaws/wanderpaws/internal/infra/places"
	apperrors "github.com/wanderpaws/wanderpaws/pkg/errors"
)

type stubChatClient struct {
	mu      sync.Mutex
	calls   int
	respond func(req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error)
}

func (s *stubChatClient) CreateChatCompletion(_ context.Context, req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.respond == nil {
		return chatgpt.ChatCompletionResponse{}, errors.New("chat unavailable")
	}
	return s.respond(req)
}

func (s *stubChatClient) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func chatText(content string) chatgpt.ChatCompletionResponse {
	return chatgpt.ChatCompletionResponse{
		Choices: []struct {
			Message chatgpt.Message "json:\"message\""
		}{
			{Message: chatgpt.Message{Role: "assistant", Content: content}},
		},
		Usage: chatgpt.Usage{PromptTokens: 10, CompletionTokens: 5, TotalTokens: 15},
	}
}

// searchRule matches a query substring to canned results, in order.
type searchRule struct {
	contains string
	results  []trip.Place
}

type stubSearchClient struct {
	mu      sync.Mutex
	queries []string
	rules   []searchRule
	details map[string]trip.Place
}

func (s *stubSearchClient) TextSearch(_ context.Context, query string, opts places.SearchOptions) ([]trip.Place, error) {
	s.mu.Lock()
	s.queries = append(s.queries, query)
	s.mu.Unlock()
	for _, rule := range s.rules {
		if strings.Contains(query, rule.contains) {
			results := rule.results
			if opts.MaxResults > 0 && len(results) > opts.MaxResults {
				results = results[:opts.MaxResults]
			}
			return results, nil
		}
	}
	return nil, nil
}

func (s *stubSearchClient) PlaceDetails(_ context.Context, placeID string) (trip.Place, error) {
	if place, ok := s.details[placeID]; ok {
		return place, nil
	}
	return trip.Place{}, errors.New("not found")
}

type stubPolicyRepo struct {
	steps []trip.PolicyRequirementStep
	found bool
	err   error
	slug  string
}

func (s *stubPolicyRepo) FindBySlug(_ context.Context, slug string) ([]trip.PolicyRequirementStep, bool, error) {
	s.slug = slug
	return s.steps, s.found, s.err
}

type stubCache struct {
	mu     sync.Mutex
	values map[string]string
}

func (s *stubCache) Get(_ context.Context, key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	value, ok := s.values[key]
	return value, ok
}

func (s *stubCache) Set(_ context.Context, key, value string, _ time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.values == nil {
		s.values = make(map[string]string)
	}
	s.values[key] = value
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestService(chat ChatClient, search SearchClient, policies PolicyRepository) *service {
	return &service{
		cfg: Config{
			Model:        "gpt-test",
			Temperature:  0.2,
			RadiusMeters: 20000,
			MaxPerQuery:  6,
			MaxInterests: 8,
			CacheTTL:     30 * time.Minute,
		},
		chat:     chat,
		search:   search,
		policies: policies,
		cache:    &stubCache{},
		logger:   testLogger(),
		shuffle:  func(activities []trip.Activity) []trip.Activity { return activities },
	}
}

func lisbonRequest() trip.Request {
	return trip.Request{
		Origin:             "Boston",
		OriginCountry:      "United States",
		Destination:        "Lisbon",
		DestinationCountry: "Portugal",
		StartDate:          "2025-06-01",
		EndDate:            "2025-06-04",
		Adults:             2,
		Pets:               1,
		PetDetails:         []trip.PetDetail{{Type: "Dog", Size: "Medium"}},
		Budget:             trip.BudgetTierModerate,
		Accommodation:      "Boutique Hotel",
		Interests:          []string{"Sightseeing"},
	}
}

func lisbonSearchStub() *stubSearchClient {
	attractions := make([]trip.Place, 0, 6)
	for i := 0; i < 6; i++ {
		attractions = append(attractions, trip.Place{
			ID: fmt.Sprintf("attr-%d", i), Name: fmt.Sprintf("Attraction %d", i),
			Address: fmt.Sprintf("Rua %d, Lisbon", i), Latitude: 38.7, Longitude: -9.1,
		})
	}
	restaurants := make([]trip.Place, 0, 8)
	for i := 0; i < 8; i++ {
		restaurants = append(restaurants, trip.Place{
			ID: fmt.Sprintf("rest-%d", i), Name: fmt.Sprintf("Restaurant %d", i),
			Address: fmt.Sprintf("Praca %d, Lisbon", i), Latitude: 38.71, Longitude: -9.13,
		})
	}
	return &stubSearchClient{
		rules: []searchRule{
			{contains: "Lisbon airport", results: []trip.Place{{ID: "lis", Name: "Lisbon Airport", Latitude: 38.77, Longitude: -9.13}}},
			{contains: "Boutique Hotel in Lisbon", results: []trip.Place{{ID: "hotel-1", Name: "Casa do Cao", Address: "Alfama, Lisbon", Latitude: 38.71, Longitude: -9.12}}},
			{contains: "restaurants in Lisbon", results: restaurants},
			{contains: "restaurant in Lisbon", results: []trip.Place{{ID: "rest-fb", Name: "Fallback Bistro", Address: "Baixa, Lisbon"}}},
			{contains: "park or trail in Lisbon", results: []trip.Place{{ID: "park-fb", Name: "Monsanto Park", Address: "Monsanto, Lisbon"}}},
			{contains: "landmarks in Lisbon", results: attractions[:3]},
			{contains: "walking tour area in Lisbon", results: attractions[3:5]},
			{contains: "scenic viewpoint in Lisbon", results: attractions[5:]},
		},
		details: map[string]trip.Place{
			"hotel-1": {ID: "hotel-1", Name: "Casa do Cao", Address: "Alfama, Lisbon", Latitude: 38.71, Longitude: -9.12, Website: "https://casadocao.example"},
		},
	}
}

func TestGenerateFullPipeline(t *testing.T) {
	chat := &stubChatClient{} // every narrative call fails; pipeline must degrade
	search := lisbonSearchStub()
	policies := &stubPolicyRepo{
		found: true,
		steps: []trip.PolicyRequirementStep{
			{Step: 7, Label: "Microchip", Text: "ISO microchip required."},
			{Step: 9, Label: "Rabies", Text: "Rabies vaccination at least 21 days before entry."},
		},
	}
	svc := newTestService(chat, search, policies)

	result, err := svc.Generate(context.Background(), lisbonRequest())
	require.NoError(t, err)

	days := result.Itinerary.Days
	require.Len(t, days, 4)
	require.Equal(t, "2025-06-01", days[0].Date)
	require.Equal(t, "2025-06-04", days[3].Date)

	// Day 1 with pets: preparation, flight, transfer, check-in, three slots.
	require.Len(t, days[0].Activities, 7)
	require.Equal(t, "Final Travel Preparations", days[0].Activities[0].Name)
	require.Equal(t, trip.ActivityFlight, days[0].Activities[1].Type)
	require.Contains(t, days[0].Activities[3].Name, "Casa do Cao")

	// Departure day bookends.
	last := days[3].Activities
	require.Len(t, last, 5)
	require.Equal(t, "Final Vet Check", last[0].Name)
	require.Equal(t, "Transfer to Departure Airport", last[len(last)-1].Name)

	// No place is scheduled twice anywhere in the trip.
	seen := make(map[string]int)
	for _, day := range days {
		for _, activity := range day.Activities {
			if activity.PlaceID == "" {
				continue
			}
			seen[activity.PlaceID]++
		}
	}
	for placeID, count := range seen {
		require.Equal(t, 1, count, "place %s scheduled %d times", placeID, count)
	}

	// Policy steps renumbered from 1.
	require.Equal(t, "portugal", policies.slug)
	require.Len(t, result.PolicyRequirements, 2)
	require.Equal(t, 1, result.PolicyRequirements[0].Step)
	require.Equal(t, 2, result.PolicyRequirements[1].Step)

	require.Equal(t, "portugal", result.DestinationSlug)
	require.NotEmpty(t, result.GeneralPreparation)
	require.NotEmpty(t, result.PreDeparturePreparation)
}

func TestGenerateWithoutPets(t *testing.T) {
	req := lisbonRequest()
	req.Pets = 0
	req.PetDetails = nil

	svc := newTestService(&stubChatClient{}, lisbonSearchStub(), &stubPolicyRepo{})
	result, err := svc.Generate(context.Background(), req)
	require.NoError(t, err)

	days := result.Itinerary.Days
	require.Len(t, days[0].Activities, 6)
	require.NotEqual(t, "Final Travel Preparations", days[0].Activities[0].Name)
	for _, activity := range days[len(days)-1].Activities {
		require.NotEqual(t, "Final Vet Check", activity.Name)
	}
	require.Empty(t, result.PolicyRequirements)
}

func TestGenerateInvalidRequest(t *testing.T) {
	svc := newTestService(&stubChatClient{}, &stubSearchClient{}, &stubPolicyRepo{})
	_, err := svc.Generate(context.Background(), trip.Request{Destination: "Lisbon"})
	require.Error(t, err)
	require.True(t, apperrors.IsCode(err, "invalid_input"))
}

func TestGeneratePolicyFallback(t *testing.T) {
	policies := &stubPolicyRepo{err: errors.New("store down")}
	svc := newTestService(&stubChatClient{}, lisbonSearchStub(), policies)

	result, err := svc.Generate(context.Background(), lisbonRequest())
	require.NoError(t, err)
	require.Len(t, result.PolicyRequirements, 3)
	require.Contains(t, result.PolicyRequirements[0].Text, "Portugal")
}

func TestGeneratePetQueryPrefix(t *testing.T) {
	search := lisbonSearchStub()
	svc := newTestService(&stubChatClient{}, search, &stubPolicyRepo{found: true, steps: genericPolicySteps("Portugal")})

	_, err := svc.Generate(context.Background(), lisbonRequest())
	require.NoError(t, err)

	var sawPetPrefixed bool
	for _, query := range search.queries {
		if strings.HasPrefix(query, "pet friendly ") {
			sawPetPrefixed = true
		}
	}
	require.True(t, sawPetPrefixed, "pet trips must prefix searches, got %v", search.queries)
}

func TestExtractPreferences(t *testing.T) {
	t.Run("empty notes skip the call", func(t *testing.T) {
		chat := &stubChatClient{}
		svc := newTestService(chat, &stubSearchClient{}, &stubPolicyRepo{})
		require.Nil(t, svc.extractPreferences(context.Background(), "   "))
		require.Equal(t, 0, chat.callCount())
	})

	t.Run("model failure degrades to nil", func(t *testing.T) {
		svc := newTestService(&stubChatClient{}, &stubSearchClient{}, &stubPolicyRepo{})
		require.Nil(t, svc.extractPreferences(context.Background(), "we love hiking"))
	})

	t.Run("unusable output degrades to nil", func(t *testing.T) {
		chat := &stubChatClient{respond: func(chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
			return chatText("I think you would enjoy the outdoors!"), nil
		}}
		svc := newTestService(chat, &stubSearchClient{}, &stubPolicyRepo{})
		require.Nil(t, svc.extractPreferences(context.Background(), "we love hiking"))
	})

	t.Run("valid output parses", func(t *testing.T) {
		chat := &stubChatClient{respond: func(chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
			return chatText(`["enjoys hiking","prefers outdoor dining"]`), nil
		}}
		svc := newTestService(chat, &stubSearchClient{}, &stubPolicyRepo{})
		prefs := svc.extractPreferences(context.Background(), "we love hiking and eating outside")
		require.Equal(t, []string{"enjoys hiking", "prefers outdoor dining"}, prefs)
	})
}

func TestCachedCompletionReusesCache(t *testing.T) {
	chat := &stubChatClient{respond: func(chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
		return chatText("A lovely day awaits."), nil
	}}
	svc := newTestService(chat, &stubSearchClient{}, &stubPolicyRepo{})

	first, err := svc.cachedCompletion(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	second, err := svc.cachedCompletion(context.Background(), "sys", "prompt")
	require.NoError(t, err)
	require.Equal(t, first, second)
	require.Equal(t, 1, chat.callCount())
}
