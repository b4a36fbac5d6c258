package itinerary

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/require"

	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
	"github.com/wanderpaws/wanderpaws/internal/infra/llm/chatgpt"
)

func sampleDay() trip.ItineraryDay {
	return trip.ItineraryDay{
		Day:  2,
		City: "Lisbon",
		Activities: []trip.Activity{
			{Name: "Belem Tower", Type: trip.ActivityGeneral, StartTime: "09:30", EndTime: "11:30"},
			{Name: "Time Out Market", Type: trip.ActivityMeal, StartTime: "12:30", EndTime: "13:30"},
		},
	}
}

func TestRescheduleDayAppliesValidResponse(t *testing.T) {
	chat := &stubChatClient{respond: func(req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
		return chatText(`[{"name":"Time Out Market","startTime":"11:00","endTime":"12:00"},{"name":"Belem Tower","startTime":"14:00","endTime":"16:00"}]`), nil
	}}
	svc := newTestService(chat, &stubSearchClient{}, &stubPolicyRepo{})

	day := sampleDay()
	svc.rescheduleDay(context.Background(), lisbonRequest(), &day)

	require.Equal(t, "Time Out Market", day.Activities[0].Name)
	require.Equal(t, "11:00", day.Activities[0].StartTime)
	require.Equal(t, "Belem Tower", day.Activities[1].Name)
	require.Equal(t, "14:00", day.Activities[1].StartTime)
}

func TestRescheduleDayDiscardsLengthMismatch(t *testing.T) {
	chat := &stubChatClient{respond: func(req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
		return chatText(`[{"name":"Belem Tower","startTime":"08:00","endTime":"09:00"}]`), nil
	}}
	svc := newTestService(chat, &stubSearchClient{}, &stubPolicyRepo{})

	day := sampleDay()
	svc.rescheduleDay(context.Background(), lisbonRequest(), &day)

	require.Equal(t, "Belem Tower", day.Activities[0].Name)
	require.Equal(t, "09:30", day.Activities[0].StartTime)
}

func TestRescheduleDayDiscardsRenamedActivities(t *testing.T) {
	chat := &stubChatClient{respond: func(req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
		return chatText(`[{"name":"Belem Tower","startTime":"08:00"},{"name":"Some Invented Cafe","startTime":"12:00"}]`), nil
	}}
	svc := newTestService(chat, &stubSearchClient{}, &stubPolicyRepo{})

	day := sampleDay()
	svc.rescheduleDay(context.Background(), lisbonRequest(), &day)
	require.Equal(t, "09:30", day.Activities[0].StartTime)
}

func TestRescheduleDayKeepsTimesOnUnparseableClock(t *testing.T) {
	chat := &stubChatClient{respond: func(req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
		return chatText(`[{"name":"Belem Tower","startTime":"morning","endTime":"noonish"},{"name":"Time Out Market","startTime":"13:00","endTime":"14:00"}]`), nil
	}}
	svc := newTestService(chat, &stubSearchClient{}, &stubPolicyRepo{})

	day := sampleDay()
	svc.rescheduleDay(context.Background(), lisbonRequest(), &day)

	require.Equal(t, "09:30", day.Activities[0].StartTime)
	require.Equal(t, "13:00", day.Activities[1].StartTime)
}

func TestRewriteEligible(t *testing.T) {
	require.False(t, rewriteEligible(trip.Activity{Type: trip.ActivityFlight}))
	require.False(t, rewriteEligible(trip.Activity{Type: trip.ActivityTransfer}))
	require.False(t, rewriteEligible(trip.Activity{Type: trip.ActivityPlaceholder}))
	require.False(t, rewriteEligible(trip.Activity{Type: trip.ActivityPreparation}))
	require.True(t, rewriteEligible(trip.Activity{Type: trip.ActivityGeneral, Description: "short"}))
	require.False(t, rewriteEligible(trip.Activity{
		Type:        trip.ActivityMeal,
		Description: strings.Repeat("x", shortDescriptionLimit),
	}))
}

func TestRewriteDescriptionTruncatesOnRunes(t *testing.T) {
	chat := &stubChatClient{respond: func(req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
		return chatText(strings.Repeat("é", 250)), nil
	}}
	svc := newTestService(chat, &stubSearchClient{}, &stubPolicyRepo{})

	activity := trip.Activity{Name: "Belem Tower", Type: trip.ActivityGeneral, Description: "old"}
	svc.rewriteDescription(context.Background(), lisbonRequest(), "Lisbon", &activity, nil)

	require.True(t, utf8.ValidString(activity.Description))
	require.Equal(t, 200, utf8.RuneCountInString(activity.Description))
}

// The intro/outro calls must describe the planned day, not whatever the
// concurrent rewrites are in the middle of producing.
func TestEnhanceDayNarratesFromOriginalPlan(t *testing.T) {
	var mu sync.Mutex
	var narrativePrompts []string
	chat := &stubChatClient{respond: func(req chatgpt.ChatCompletionRequest) (chatgpt.ChatCompletionResponse, error) {
		prompt := req.Messages[len(req.Messages)-1].Content
		switch {
		case strings.HasPrefix(prompt, "Rewrite the description"):
			return chatText("A fresh pet-friendly description."), nil
		case strings.HasPrefix(prompt, "Write one"):
			mu.Lock()
			narrativePrompts = append(narrativePrompts, prompt)
			mu.Unlock()
			return chatText("A lovely day out with your dog in Lisbon."), nil
		default:
			return chatgpt.ChatCompletionResponse{}, errors.New("reschedule unavailable")
		}
	}}
	svc := newTestService(chat, &stubSearchClient{}, &stubPolicyRepo{})

	day := trip.ItineraryDay{
		Day:  2,
		City: "Lisbon",
		Activities: []trip.Activity{
			{Name: "Belem Tower", Type: trip.ActivityGeneral, StartTime: "09:30", Description: "old"},
			{Name: "Time Out Market", Type: trip.ActivityMeal, StartTime: "12:30", Description: "old"},
			{Name: "Gulbenkian Garden", Type: trip.ActivityGeneral, StartTime: "14:30", Description: "old"},
		},
	}
	svc.enhanceDay(context.Background(), lisbonRequest(), &day, nil)

	require.Equal(t, "A lovely day out with your dog in Lisbon.", day.Intro)
	require.Equal(t, "A lovely day out with your dog in Lisbon.", day.Outro)
	for _, activity := range day.Activities {
		require.Equal(t, "A fresh pet-friendly description.", activity.Description)
	}

	require.Len(t, narrativePrompts, 2)
	for _, prompt := range narrativePrompts {
		require.Contains(t, prompt, "Belem Tower, Time Out Market, Gulbenkian Garden")
	}
}

func TestEnhanceDayKeepsPlaceholdersOnFailure(t *testing.T) {
	svc := newTestService(&stubChatClient{}, &stubSearchClient{}, &stubPolicyRepo{})

	day := sampleDay()
	day.Intro = "Day 2 in Lisbon."
	day.Outro = "Rest up for tomorrow's plans."
	svc.enhanceDay(context.Background(), lisbonRequest(), &day, nil)

	require.Equal(t, "Day 2 in Lisbon.", day.Intro)
	require.Equal(t, "Rest up for tomorrow's plans.", day.Outro)
}

func TestSortByStartTimeUnparseableLast(t *testing.T) {
	activities := []trip.Activity{
		{Name: "b", StartTime: "tbd"},
		{Name: "c", StartTime: "14:00"},
		{Name: "a", StartTime: "09:00"},
	}
	sortByStartTime(activities)
	require.Equal(t, "a", activities[0].Name)
	require.Equal(t, "c", activities[1].Name)
	require.Equal(t, "b", activities[2].Name)
}
