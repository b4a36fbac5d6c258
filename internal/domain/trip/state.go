package trip

import "strings"

// State is the draft trip shape mutated by the conversational builder. Both
// endpoints exchange it with the client; only the conversational flow merges
// partial deltas into it.
type State struct {
	Origin             string              `json:"origin,omitempty"`
	OriginCountry      string              `json:"originCountry,omitempty"`
	Destination        string              `json:"destination,omitempty"`
	DestinationCountry string              `json:"destinationCountry,omitempty"`
	StartDate          string              `json:"startDate,omitempty"`
	EndDate            string              `json:"endDate,omitempty"`
	Adults             int                 `json:"adults,omitempty"`
	Children           int                 `json:"children,omitempty"`
	Pets               int                 `json:"pets,omitempty"`
	PetDetails         []PetDetail         `json:"petDetails,omitempty"`
	Budget             string              `json:"budget,omitempty"`
	Accommodation      string              `json:"accommodation,omitempty"`
	Interests          []string            `json:"interests,omitempty"`
	Notes              string              `json:"notes,omitempty"`
	LearnedPreferences []LearnedPreference `json:"learnedPreferences,omitempty"`
	Days               []ItineraryDay      `json:"days,omitempty"`
}

// IsEmpty reports whether the state carries nothing worth summarizing.
func (s State) IsEmpty() bool {
	return s.Destination == "" && s.Origin == "" && s.StartDate == "" &&
		s.Adults == 0 && s.Pets == 0 && len(s.Interests) == 0 &&
		strings.TrimSpace(s.Notes) == "" && len(s.Days) == 0 &&
		len(s.LearnedPreferences) == 0
}

// Merge folds a partial delta into the state. Zero values in the delta leave
// the existing value untouched; slices replace wholesale when non-empty, except
// learned preferences which accumulate with dedup.
func (s *State) Merge(delta State) {
	if delta.Origin != "" {
		s.Origin = delta.Origin
	}
	if delta.OriginCountry != "" {
		s.OriginCountry = delta.OriginCountry
	}
	if delta.Destination != "" {
		s.Destination = delta.Destination
	}
	if delta.DestinationCountry != "" {
		s.DestinationCountry = delta.DestinationCountry
	}
	if delta.StartDate != "" {
		s.StartDate = delta.StartDate
	}
	if delta.EndDate != "" {
		s.EndDate = delta.EndDate
	}
	if delta.Adults != 0 {
		s.Adults = delta.Adults
	}
	if delta.Children != 0 {
		s.Children = delta.Children
	}
	if delta.Pets != 0 {
		s.Pets = delta.Pets
	}
	if len(delta.PetDetails) > 0 {
		s.PetDetails = delta.PetDetails
	}
	if delta.Budget != "" {
		s.Budget = delta.Budget
	}
	if delta.Accommodation != "" {
		s.Accommodation = delta.Accommodation
	}
	if len(delta.Interests) > 0 {
		s.Interests = delta.Interests
	}
	if delta.Notes != "" {
		s.Notes = delta.Notes
	}
	if len(delta.LearnedPreferences) > 0 {
		s.LearnedPreferences = DedupLearnedPreferences(append(s.LearnedPreferences, delta.LearnedPreferences...))
	}
	if len(delta.Days) > 0 {
		s.Days = delta.Days
	}
}
