package chatbuilder

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
	"github.com/wanderpaws/wanderpaws/internal/infra/llm/chatgpt"
	"github.com/wanderpaws/wanderpaws/internal/infra/places"
	"github.com/wanderpaws/wanderpaws/pkg/util"
)

// toolHandler is one entry of the tool registry: its schema plus a typed
// handler. Handlers return the JSON string submitted back to the run.
type toolHandler struct {
	description string
	parameters  map[string]any
	handle      func(ctx context.Context, s *service, sess *session, args json.RawMessage) string
}

// toolRegistry dispatches assistant tool calls by function name.
var toolRegistry = map[string]toolHandler{
	"set_destination": {
		description: "Record the trip destination city and country.",
		parameters:  objectSchema(map[string]any{"destination": stringProp, "country": stringProp}, "destination"),
		handle:      handleSetDestination,
	},
	"set_travel_dates": {
		description: "Record the trip start and end dates (YYYY-MM-DD).",
		parameters:  objectSchema(map[string]any{"startDate": stringProp, "endDate": stringProp}, "startDate", "endDate"),
		handle:      handleSetTravelDates,
	},
	"set_travelers": {
		description: "Record the party composition including pets.",
		parameters: objectSchema(map[string]any{
			"adults": intProp, "children": intProp, "pets": intProp,
			"petDetails": map[string]any{"type": "array", "items": objectSchema(map[string]any{"type": stringProp, "size": stringProp})},
		}),
		handle: handleSetTravelers,
	},
	"set_preferences": {
		description: "Record budget tier, accommodation style, interests and notes.",
		parameters: objectSchema(map[string]any{
			"budget": stringProp, "accommodation": stringProp,
			"interests": map[string]any{"type": "array", "items": stringProp},
			"notes":     stringProp,
		}),
		handle: handleSetPreferences,
	},
	"update_learned_preferences": {
		description: "Remember durable traveler preferences learned from the conversation.",
		parameters: objectSchema(map[string]any{
			"preferences": map[string]any{"type": "array", "items": objectSchema(map[string]any{
				"type": stringProp, "detail": stringProp, "item": stringProp,
			}, "type", "detail")},
		}, "preferences"),
		handle: handleUpdateLearnedPreferences,
	},
	"suggest_places_of_interest": {
		description: "Search pet-friendly places of interest near the destination.",
		parameters:  objectSchema(map[string]any{"query": stringProp, "category": stringProp}),
		handle:      handleSuggestPlaces,
	},
	"find_nearby_service": {
		description: "Find a pet service such as a vet, groomer or pet store near a location.",
		parameters:  objectSchema(map[string]any{"service": stringProp, "location": stringProp}, "service"),
		handle:      handleFindNearbyService,
	},
	"save_trip_progress": {
		description: "Acknowledge that the current draft trip should be kept.",
		parameters:  objectSchema(nil),
		handle:      handleSaveTripProgress,
	},
	"check_travel_regulations": {
		description: "Look up pet entry requirements for a destination country.",
		parameters:  objectSchema(map[string]any{"country": stringProp}),
		handle:      handleCheckTravelRegulations,
	},
	"add_activity_to_day": {
		description: "Append an activity to an existing itinerary day.",
		parameters: objectSchema(map[string]any{
			"day": intProp,
			"activity": objectSchema(map[string]any{
				"name": stringProp, "description": stringProp, "location": stringProp,
				"startTime": stringProp, "endTime": stringProp, "type": stringProp, "cost": stringProp,
			}, "name"),
		}, "day", "activity"),
		handle: handleAddActivityToDay,
	},
	"generate_itinerary": {
		description: "Signal that the trip is complete and the full itinerary should be generated.",
		parameters:  objectSchema(nil),
		handle:      handleGenerateItinerary,
	},
}

var (
	stringProp = map[string]any{"type": "string"}
	intProp    = map[string]any{"type": "integer"}
)

// ToolDefinitions exposes the registry as run-scoped tool overrides, keeping
// the live function schemas authoritative over whatever the assistant was
// configured with upstream.
func ToolDefinitions() []chatgpt.Tool {
	names := make([]string, 0, len(toolRegistry))
	for name := range toolRegistry {
		names = append(names, name)
	}
	sort.Strings(names)

	tools := make([]chatgpt.Tool, 0, len(names))
	for _, name := range names {
		handler := toolRegistry[name]
		tools = append(tools, chatgpt.Tool{
			Type: "function",
			Function: chatgpt.ToolFunction{
				Name:        name,
				Description: handler.description,
				Parameters:  handler.parameters,
			},
		})
	}
	return tools
}

func objectSchema(props map[string]any, required ...string) map[string]any {
	schema := map[string]any{"type": "object"}
	if len(props) > 0 {
		schema["properties"] = props
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func toolResult(fields map[string]any) string {
	encoded, err := json.Marshal(fields)
	if err != nil {
		return `{"status":"error"}`
	}
	return string(encoded)
}

func toolError(message string) string {
	return toolResult(map[string]any{"status": "error", "message": message})
}

func handleSetDestination(_ context.Context, _ *service, sess *session, args json.RawMessage) string {
	var input struct {
		Destination string `json:"destination"`
		Country     string `json:"country"`
	}
	if err := json.Unmarshal(args, &input); err != nil || strings.TrimSpace(input.Destination) == "" {
		return toolError("destination is required")
	}
	sess.state.Merge(trip.State{Destination: input.Destination, DestinationCountry: input.Country})
	sess.dirty = true
	return toolResult(map[string]any{"status": "success", "destination": input.Destination})
}

func handleSetTravelDates(_ context.Context, _ *service, sess *session, args json.RawMessage) string {
	var input struct {
		StartDate string `json:"startDate"`
		EndDate   string `json:"endDate"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return toolError("unreadable arguments")
	}
	start, err := time.Parse("2006-01-02", input.StartDate)
	if err != nil {
		return toolError("startDate must be YYYY-MM-DD")
	}
	end, err := time.Parse("2006-01-02", input.EndDate)
	if err != nil {
		return toolError("endDate must be YYYY-MM-DD")
	}
	if !end.After(start) {
		return toolError("endDate must be after startDate")
	}
	sess.state.Merge(trip.State{StartDate: input.StartDate, EndDate: input.EndDate})
	sess.dirty = true
	return toolResult(map[string]any{"status": "success"})
}

func handleSetTravelers(_ context.Context, _ *service, sess *session, args json.RawMessage) string {
	var input struct {
		Adults     int              `json:"adults"`
		Children   int              `json:"children"`
		Pets       int              `json:"pets"`
		PetDetails []trip.PetDetail `json:"petDetails"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return toolError("unreadable arguments")
	}
	if input.Pets > 0 && len(input.PetDetails) != input.Pets {
		return toolError("petDetails must describe every pet")
	}
	sess.state.Merge(trip.State{Adults: input.Adults, Children: input.Children, Pets: input.Pets, PetDetails: input.PetDetails})
	sess.dirty = true
	return toolResult(map[string]any{"status": "success"})
}

func handleSetPreferences(_ context.Context, _ *service, sess *session, args json.RawMessage) string {
	var input struct {
		Budget        string   `json:"budget"`
		Accommodation string   `json:"accommodation"`
		Interests     []string `json:"interests"`
		Notes         string   `json:"notes"`
	}
	if err := json.Unmarshal(args, &input); err != nil {
		return toolError("unreadable arguments")
	}
	sess.state.Merge(trip.State{Budget: input.Budget, Accommodation: input.Accommodation, Interests: input.Interests, Notes: input.Notes})
	sess.dirty = true
	return toolResult(map[string]any{"status": "success"})
}

// handleUpdateLearnedPreferences dedupes by (type, detail) and persists to the
// profile store when the user is authenticated. A persistence failure still
// reports conversational success, flagged as partial.
func handleUpdateLearnedPreferences(ctx context.Context, s *service, sess *session, args json.RawMessage) string {
	var input struct {
		Preferences []trip.LearnedPreference `json:"preferences"`
	}
	if err := json.Unmarshal(args, &input); err != nil || len(input.Preferences) == 0 {
		return toolError("preferences are required")
	}

	merged := trip.DedupLearnedPreferences(append(sess.state.LearnedPreferences, input.Preferences...))
	sess.state.LearnedPreferences = merged
	sess.dirty = true

	if sess.userID == "" {
		return toolResult(map[string]any{"status": "success", "stored": len(merged)})
	}
	if err := s.profiles.SavePreferences(ctx, sess.userID, merged); err != nil {
		s.logger.Warn("preference persistence failed", "user", sess.userID, "error", err)
		sess.partial = true
		return toolResult(map[string]any{"status": "partial_success", "stored": len(merged)})
	}
	return toolResult(map[string]any{"status": "success", "stored": len(merged), "persisted": true})
}

func handleSuggestPlaces(ctx context.Context, s *service, sess *session, args json.RawMessage) string {
	var input struct {
		Query    string `json:"query"`
		Category string `json:"category"`
	}
	_ = json.Unmarshal(args, &input)
	if sess.state.Destination == "" && input.Query == "" {
		return toolError("set a destination first")
	}

	query := input.Query
	if query == "" {
		query = "pet friendly " + strings.TrimSpace(input.Category+" attractions")
	}
	if sess.state.Destination != "" && !strings.Contains(strings.ToLower(query), strings.ToLower(sess.state.Destination)) {
		query += " in " + sess.state.Destination
	}

	results, err := s.search.TextSearch(ctx, query, places.SearchOptions{MaxResults: 5})
	if err != nil {
		s.logger.Warn("place suggestion search failed", "query", query, "error", err)
		return toolResult(map[string]any{"status": "success", "places": []any{}})
	}
	return toolResult(map[string]any{"status": "success", "places": summarizePlaces(results)})
}

func handleFindNearbyService(ctx context.Context, s *service, sess *session, args json.RawMessage) string {
	var input struct {
		Service  string `json:"service"`
		Location string `json:"location"`
	}
	if err := json.Unmarshal(args, &input); err != nil || strings.TrimSpace(input.Service) == "" {
		return toolError("service is required")
	}
	location := input.Location
	if location == "" {
		location = sess.state.Destination
	}
	if location == "" {
		return toolError("no location available; set a destination first")
	}

	results, err := s.search.TextSearch(ctx, input.Service+" near "+location, places.SearchOptions{MaxResults: 3})
	if err != nil {
		s.logger.Warn("nearby service search failed", "service", input.Service, "error", err)
		return toolResult(map[string]any{"status": "success", "places": []any{}})
	}
	return toolResult(map[string]any{"status": "success", "places": summarizePlaces(results)})
}

func handleSaveTripProgress(_ context.Context, _ *service, sess *session, _ json.RawMessage) string {
	sess.dirty = true
	return toolResult(map[string]any{"status": "success", "saved": true})
}

func handleCheckTravelRegulations(ctx context.Context, s *service, sess *session, args json.RawMessage) string {
	var input struct {
		Country string `json:"country"`
	}
	_ = json.Unmarshal(args, &input)
	country := input.Country
	if country == "" {
		country = sess.state.DestinationCountry
	}
	if country == "" {
		return toolError("no destination country available")
	}

	slug := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(country)), " ", "-")
	steps, found, err := s.policies.FindBySlug(ctx, slug)
	if err != nil {
		s.logger.Warn("regulation lookup failed", "slug", slug, "error", err)
	}
	if !found {
		return toolResult(map[string]any{"status": "success", "country": country, "requirements": []any{},
			"note": "No structured requirements on file; advise the traveler to confirm with the destination's authorities."})
	}
	return toolResult(map[string]any{"status": "success", "country": country, "requirements": steps})
}

// handleAddActivityToDay appends to an existing day and re-sorts that day by
// parsed start time; activities without a parseable time sort last.
func handleAddActivityToDay(_ context.Context, _ *service, sess *session, args json.RawMessage) string {
	var input struct {
		Day      int           `json:"day"`
		Activity trip.Activity `json:"activity"`
	}
	if err := json.Unmarshal(args, &input); err != nil || strings.TrimSpace(input.Activity.Name) == "" {
		return toolError("day and activity name are required")
	}

	for i := range sess.state.Days {
		if sess.state.Days[i].Day != input.Day {
			continue
		}
		activity := input.Activity
		if activity.Type == "" {
			activity.Type = trip.ActivityGeneral
		}
		if activity.Location == "" {
			activity.Location = sess.state.Days[i].City
		}
		sess.state.Days[i].Activities = append(sess.state.Days[i].Activities, activity)
		sortDayActivities(sess.state.Days[i].Activities)
		sess.dirty = true
		return toolResult(map[string]any{"status": "success", "day": input.Day})
	}
	return toolError(fmt.Sprintf("day %d does not exist in the current itinerary", input.Day))
}

func handleGenerateItinerary(_ context.Context, _ *service, sess *session, _ json.RawMessage) string {
	sess.trigger = true
	return toolResult(map[string]any{"status": "success", "generating": true})
}

func sortDayActivities(activities []trip.Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		left, leftOK := util.ParseClock(activities[i].StartTime)
		right, rightOK := util.ParseClock(activities[j].StartTime)
		if leftOK && rightOK {
			return left < right
		}
		return leftOK && !rightOK
	})
}

func summarizePlaces(results []trip.Place) []map[string]any {
	out := make([]map[string]any, 0, len(results))
	for _, place := range results {
		out = append(out, map[string]any{
			"name":    place.Name,
			"address": place.Address,
			"rating":  place.Rating,
		})
	}
	return out
}
