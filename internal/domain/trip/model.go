package trip

import (
	"fmt"
	"strings"
)

// Place is a candidate location returned by the places search API.
// Places are fetched per request and never persisted.
type Place struct {
	ID               string   `json:"id"`
	Name             string   `json:"name"`
	Address          string   `json:"address"`
	Latitude         float64  `json:"latitude"`
	Longitude        float64  `json:"longitude"`
	Types            []string `json:"types,omitempty"`
	Rating           float64  `json:"rating,omitempty"`
	UserRatingsTotal int      `json:"userRatingsTotal,omitempty"`
	PriceLevel       *int     `json:"priceLevel,omitempty"`
	Website          string   `json:"website,omitempty"`
	Phone            string   `json:"phone,omitempty"`
	OpeningHours     []string `json:"openingHours,omitempty"`
	PhotoRefs        []string `json:"photoRefs,omitempty"`
}

// DedupKey identifies a place across the whole pipeline run. The place ID is
// authoritative; name+coordinates stand in when the API returned no ID.
func (p Place) DedupKey() string {
	if p.ID != "" {
		return p.ID
	}
	return fmt.Sprintf("%s@%.5f,%.5f", strings.ToLower(strings.TrimSpace(p.Name)), p.Latitude, p.Longitude)
}

// Activity types recognized by the scheduler and the enhancer.
const (
	ActivityFlight        = "flight"
	ActivityTransfer      = "transfer"
	ActivityAccommodation = "accommodation"
	ActivityMeal          = "meal"
	ActivityGeneral       = "activity"
	ActivityPlaceholder   = "placeholder"
	ActivityPreparation   = "preparation"
)

// Activity is a schedulable unit derived from a Place or authored as a placeholder.
type Activity struct {
	Name        string  `json:"name"`
	Description string  `json:"description"`
	PetFriendly bool    `json:"petFriendly"`
	PetDetails  string  `json:"petDetails,omitempty"`
	Location    string  `json:"location"`
	Latitude    float64 `json:"latitude,omitempty"`
	Longitude   float64 `json:"longitude,omitempty"`
	Cost        string  `json:"cost"`
	Type        string  `json:"type"`
	StartTime   string  `json:"startTime,omitempty"`
	EndTime     string  `json:"endTime,omitempty"`

	PlaceID      string   `json:"placeId,omitempty"`
	Rating       float64  `json:"rating,omitempty"`
	Website      string   `json:"website,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	OpeningHours []string `json:"openingHours,omitempty"`
}

// DedupKey mirrors Place.DedupKey for activities born from search results.
func (a Activity) DedupKey() string {
	if a.PlaceID != "" {
		return a.PlaceID
	}
	return fmt.Sprintf("%s@%.5f,%.5f", strings.ToLower(strings.TrimSpace(a.Name)), a.Latitude, a.Longitude)
}

// ItineraryDay groups the activities of one calendar day.
type ItineraryDay struct {
	Day        int        `json:"day"`
	Date       string     `json:"date"`
	City       string     `json:"city"`
	Activities []Activity `json:"activities"`
	TravelNote string     `json:"travelNote,omitempty"`
	Intro      string     `json:"intro,omitempty"`
	Outro      string     `json:"outro,omitempty"`
}

// Itinerary is the full day-by-day plan, one entry per trip day.
type Itinerary struct {
	Days []ItineraryDay `json:"days"`
}

// PolicyRequirementStep is one ordered pet entry requirement for a destination country.
type PolicyRequirementStep struct {
	Step  int    `json:"step"`
	Label string `json:"label"`
	Text  string `json:"text"`
}

// LearnedPreference accumulates across a conversational session and persists
// to the user profile, deduplicated by (Type, Detail).
type LearnedPreference struct {
	Type   string `json:"type"`
	Detail string `json:"detail"`
	Item   string `json:"item,omitempty"`
}

// DedupLearnedPreferences drops (type, detail) duplicates preserving order.
func DedupLearnedPreferences(prefs []LearnedPreference) []LearnedPreference {
	seen := make(map[string]struct{}, len(prefs))
	out := make([]LearnedPreference, 0, len(prefs))
	for _, pref := range prefs {
		key := strings.ToLower(pref.Type) + "\x00" + strings.ToLower(pref.Detail)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, pref)
	}
	return out
}
