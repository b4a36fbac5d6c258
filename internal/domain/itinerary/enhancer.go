package itinerary

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
	"github.com/wanderpaws/wanderpaws/internal/infra/llm/chatgpt"
	"github.com/wanderpaws/wanderpaws/pkg/util"
)

const shortDescriptionLimit = 100

// enhanceDays post-processes every day concurrently: description rewrites,
// intro/outro narrative, and a defensive rescheduling pass. A failure in one
// day never affects any other day.
func (s *service) enhanceDays(ctx context.Context, req trip.Request, days []trip.ItineraryDay, preferences []string) {
	var wg sync.WaitGroup
	for i := range days {
		wg.Add(1)
		go func(day *trip.ItineraryDay) {
			defer wg.Done()
			s.enhanceDay(ctx, req, day, preferences)
		}(&days[i])
	}
	wg.Wait()
}

func (s *service) enhanceDay(ctx context.Context, req trip.Request, day *trip.ItineraryDay, preferences []string) {
	// Snapshot the plan before the rewrite goroutines start mutating
	// descriptions; the narrative calls must not read the live activities.
	names := make([]string, 0, len(day.Activities))
	for _, activity := range day.Activities {
		names = append(names, activity.Name)
	}

	var wg sync.WaitGroup
	for i := range day.Activities {
		if !rewriteEligible(day.Activities[i]) {
			continue
		}
		wg.Add(1)
		go func(activity *trip.Activity) {
			defer wg.Done()
			s.rewriteDescription(ctx, req, day.City, activity, preferences)
		}(&day.Activities[i])
	}

	wg.Add(2)
	go func() {
		defer wg.Done()
		if text := s.narrativeSentence(ctx, day.Day, day.City, names, "opening"); text != "" {
			day.Intro = text
		}
	}()
	go func() {
		defer wg.Done()
		if text := s.narrativeSentence(ctx, day.Day, day.City, names, "closing"); text != "" {
			day.Outro = text
		}
	}()
	wg.Wait()

	if len(day.Activities) > 1 {
		s.rescheduleDay(ctx, req, day)
	}
	sortByStartTime(day.Activities)
}

func rewriteEligible(activity trip.Activity) bool {
	switch activity.Type {
	case trip.ActivityFlight, trip.ActivityTransfer, trip.ActivityPlaceholder, trip.ActivityPreparation:
		return false
	}
	return len(activity.Description) < shortDescriptionLimit
}

// rewriteDescription asks the model for a pet-aware description capped at 200
// characters, keeping the original text on any failure.
func (s *service) rewriteDescription(ctx context.Context, req trip.Request, city string, activity *trip.Activity, preferences []string) {
	prompt := fmt.Sprintf(
		"Rewrite the description of this activity for a pet-friendly trip to %s. Activity: %q. Current description: %q. Location: %q.",
		city, activity.Name, activity.Description, activity.Location,
	)
	if len(preferences) > 0 {
		prompt += " Traveler preferences: " + strings.Join(preferences, "; ") + "."
	}
	prompt += " Respond with one engaging sentence of at most 200 characters, plain text, mentioning how pets fit in."

	text, err := s.cachedCompletion(ctx, "You write concise, warm travel copy for pet owners.", prompt)
	if err != nil {
		s.logger.Warn("description rewrite failed", "activity", activity.Name, "error", err)
		return
	}
	text = strings.TrimSpace(strings.Trim(text, `"`))
	if text == "" {
		return
	}
	if runes := []rune(text); len(runes) > 200 {
		text = string(runes[:200])
	}
	activity.Description = text
}

// narrativeSentence generates one intro or outro sentence, falling back to
// the prior placeholder when the call fails.
func (s *service) narrativeSentence(ctx context.Context, dayNum int, city string, names []string, position string) string {
	prompt := fmt.Sprintf(
		"Write one %s sentence for day %d of a pet-friendly trip to %s. The day's plan: %s. Plain text, no quotes, under 160 characters.",
		position, dayNum, city, strings.Join(names, ", "),
	)

	text, err := s.cachedCompletion(ctx, "You write concise, warm travel copy for pet owners.", prompt)
	if err != nil {
		s.logger.Warn("narrative generation failed", "day", dayNum, "position", position, "error", err)
		return ""
	}
	return strings.TrimSpace(strings.Trim(text, `"`))
}

// rescheduleDay asks the model to reorder the day and assign start/end times.
// The response is applied only when it names exactly the same activities; any
// mismatch or parse failure keeps the pre-existing order and times.
func (s *service) rescheduleDay(ctx context.Context, req trip.Request, day *trip.ItineraryDay) {
	type wireActivity struct {
		Name      string `json:"name"`
		Type      string `json:"type"`
		StartTime string `json:"startTime,omitempty"`
		EndTime   string `json:"endTime,omitempty"`
	}
	payload := make([]wireActivity, 0, len(day.Activities))
	names := make([]string, 0, len(day.Activities))
	for _, activity := range day.Activities {
		payload = append(payload, wireActivity{
			Name:      activity.Name,
			Type:      activity.Type,
			StartTime: activity.StartTime,
			EndTime:   activity.EndTime,
		})
		names = append(names, activity.Name)
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return
	}

	prompt := fmt.Sprintf(
		"Re-sequence this day in %s for a %s budget trip and assign realistic start and end times. Activities: %s. "+
			"Respond ONLY with a JSON array of the same length, each item {\"name\":string,\"startTime\":\"HH:MM\",\"endTime\":\"HH:MM\"}, "+
			"using exactly the same name values.",
		day.City, req.Budget, string(encoded),
	)

	raw, err := s.cachedCompletion(ctx, "You are a travel day scheduler. Respond only with JSON.", prompt)
	if err != nil {
		s.logger.Warn("reschedule call failed", "day", day.Day, "error", err)
		return
	}

	entries, err := decodeSchedule(raw, names)
	if err != nil {
		s.logger.Warn("reschedule output rejected", "day", day.Day, "error", err)
		return
	}

	byName := make(map[string][]trip.Activity, len(day.Activities))
	for _, activity := range day.Activities {
		key := strings.ToLower(strings.TrimSpace(activity.Name))
		byName[key] = append(byName[key], activity)
	}
	reordered := make([]trip.Activity, 0, len(entries))
	for _, entry := range entries {
		key := strings.ToLower(strings.TrimSpace(entry.Name))
		matches := byName[key]
		activity := matches[0]
		byName[key] = matches[1:]
		if _, ok := util.ParseClock(entry.StartTime); ok {
			activity.StartTime = entry.StartTime
		}
		if _, ok := util.ParseClock(entry.EndTime); ok {
			activity.EndTime = entry.EndTime
		}
		reordered = append(reordered, activity)
	}
	day.Activities = reordered
}

// sortByStartTime orders activities by start time; entries without a
// parseable time sort last, keeping their relative order.
func sortByStartTime(activities []trip.Activity) {
	sort.SliceStable(activities, func(i, j int) bool {
		left, leftOK := util.ParseClock(activities[i].StartTime)
		right, rightOK := util.ParseClock(activities[j].StartTime)
		if leftOK && rightOK {
			return left < right
		}
		return leftOK && !rightOK
	})
}

// cachedCompletion funnels narrative calls through the instance-local TTL
// cache keyed by a hash of the full prompt.
func (s *service) cachedCompletion(ctx context.Context, system, user string) (string, error) {
	key := promptKey(s.cfg.Model, system, user)
	if cached, ok := s.cache.Get(ctx, key); ok {
		return cached, nil
	}

	completion, err := s.chat.CreateChatCompletion(ctx, chatgpt.ChatCompletionRequest{
		Model:       s.cfg.Model,
		Temperature: s.cfg.Temperature,
		Messages: []chatgpt.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
	})
	if err != nil {
		return "", err
	}
	s.usageOf(ctx, completion.Usage)
	if len(completion.Choices) == 0 {
		return "", nil
	}

	text := completion.Choices[0].Message.Content
	if strings.TrimSpace(text) != "" {
		s.cache.Set(ctx, key, text, s.cfg.CacheTTL)
	}
	return text, nil
}

func promptKey(model, system, user string) string {
	sum := sha256.Sum256([]byte(model + "\x00" + system + "\x00" + user))
	return hex.EncodeToString(sum[:])
}
