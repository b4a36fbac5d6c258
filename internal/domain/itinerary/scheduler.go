package itinerary

import (
	"context"
	"fmt"

	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
	"github.com/wanderpaws/wanderpaws/internal/infra/places"
)

// slotKind selects which pool and fallback query a schedule slot draws from.
type slotKind int

const (
	slotActivity slotKind = iota
	slotMeal
)

// runState is the mutable state of one generation run. It is request scoped
// and never shared across requests.
type runState struct {
	req           trip.Request
	bias          places.SearchOptions
	seen          map[string]struct{}
	used          map[string]struct{}
	activities    *pool
	restaurants   *pool
	accommodation *trip.Place
	airportName   string
}

// buildDays assembles the skeleton itinerary: a fixed arrival sequence for
// day 1, slot-filled days after that, and pet travel bookends on the last day.
func (s *service) buildDays(ctx context.Context, st *runState) []trip.ItineraryDay {
	total := st.req.DurationDays()
	start := st.req.Start()
	days := make([]trip.ItineraryDay, 0, total)

	for i := 0; i < total; i++ {
		date := start.AddDate(0, 0, i).Format("2006-01-02")
		day := trip.ItineraryDay{
			Day:  i + 1,
			Date: date,
			City: st.req.Destination,
		}

		switch {
		case i == 0:
			day.Activities = s.arrivalSequence(ctx, st)
			day.TravelNote = fmt.Sprintf("Arrival day: travel from %s to %s.", st.req.Origin, st.req.Destination)
		case i == total-1 && st.req.HasPets():
			day.Activities = s.departureDay(ctx, st)
			day.TravelNote = "Departure day: allow extra time for pet check-in formalities."
		default:
			day.Activities = s.slotFilledDay(ctx, st)
		}

		day.Intro = fmt.Sprintf("Day %d in %s.", day.Day, day.City)
		day.Outro = "Rest up for tomorrow's plans."
		days = append(days, day)
	}
	return days
}

// arrivalSequence is the fixed day 1 skeleton. Arrival logistics do not
// depend on interests, so nothing here draws from the interest pool except
// the afternoon slot.
func (s *service) arrivalSequence(ctx context.Context, st *runState) []trip.Activity {
	var sequence []trip.Activity

	if st.req.HasPets() {
		sequence = append(sequence, trip.Activity{
			Name:        "Final Travel Preparations",
			Description: "Gather pet documents, food, and comfort items before heading to the airport.",
			PetFriendly: true,
			PetDetails:  "Keep vaccination records and health certificates in your carry-on.",
			Location:    st.req.Origin,
			Cost:        "$0",
			Type:        trip.ActivityPreparation,
			StartTime:   "06:30",
			EndTime:     "07:30",
		})
	}

	sequence = append(sequence,
		trip.Activity{
			Name:        fmt.Sprintf("Flight from %s to %s", st.req.Origin, st.req.Destination),
			Description: fmt.Sprintf("Fly from %s to %s.", st.req.Origin, st.req.Destination),
			PetFriendly: st.req.HasPets(),
			PetDetails:  petFlightNote(st.req),
			Location:    fmt.Sprintf("%s Airport", st.req.Origin),
			Cost:        budgetFlightCost(st.req.Budget),
			Type:        trip.ActivityFlight,
			StartTime:   "08:00",
			EndTime:     "12:00",
		},
		trip.Activity{
			Name:        "Transfer to Accommodation",
			Description: fmt.Sprintf("Ride from %s to your accommodation.", st.airportLabel()),
			PetFriendly: st.req.HasPets(),
			PetDetails:  "Book a pet-friendly taxi or transfer service in advance.",
			Location:    st.airportLabel(),
			Cost:        "$30 - $60",
			Type:        trip.ActivityTransfer,
			StartTime:   "12:30",
			EndTime:     "13:00",
		},
		s.checkInActivity(st),
	)

	sequence = append(sequence,
		s.fillSlot(ctx, st, slotMeal, "13:30", "14:30"),
		s.fillSlot(ctx, st, slotActivity, "15:30", "17:30"),
		s.fillSlot(ctx, st, slotMeal, "19:00", "20:30"),
	)
	return sequence
}

// departureDay is the trimmed final day for pet trips: the vet check opens
// it and the airport transfer closes it, with room for a short outing.
func (s *service) departureDay(ctx context.Context, st *runState) []trip.Activity {
	return []trip.Activity{
		finalVetCheck(st.req),
		s.fillSlot(ctx, st, slotActivity, "09:30", "11:30"),
		s.fillSlot(ctx, st, slotMeal, "12:30", "13:30"),
		s.fillSlot(ctx, st, slotActivity, "14:00", "16:00"),
		departureTransfer(st.req, "17:00", "18:00"),
	}
}

// slotFilledDay covers the morning/lunch/afternoon/dinner slots of days 2..N.
func (s *service) slotFilledDay(ctx context.Context, st *runState) []trip.Activity {
	return []trip.Activity{
		s.fillSlot(ctx, st, slotActivity, "09:30", "11:30"),
		s.fillSlot(ctx, st, slotMeal, "12:30", "13:30"),
		s.fillSlot(ctx, st, slotActivity, "14:30", "17:00"),
		s.fillSlot(ctx, st, slotMeal, "19:00", "20:30"),
	}
}

// fillSlot walks the per-slot fallback chain: pool, live search, placeholder.
// A slot is always filled.
func (s *service) fillSlot(ctx context.Context, st *runState, kind slotKind, startTime, endTime string) trip.Activity {
	source := st.activities
	if kind == slotMeal {
		source = st.restaurants
	}
	if candidate, ok := source.pop(st.used); ok {
		candidate.StartTime = startTime
		candidate.EndTime = endTime
		return candidate
	}

	if candidate, ok := s.fallbackSearch(ctx, st, kind); ok {
		candidate.StartTime = startTime
		candidate.EndTime = endTime
		return candidate
	}

	placeholder := s.placeholderActivity(st.req, kind)
	placeholder.StartTime = startTime
	placeholder.EndTime = endTime
	return placeholder
}

// fallbackSearch issues a fresh slot-appropriate query biased to the
// destination and accepts the first result not already used.
func (s *service) fallbackSearch(ctx context.Context, st *runState, kind slotKind) (trip.Activity, bool) {
	query := fmt.Sprintf("park or trail in %s", st.req.Destination)
	placeType := "park"
	activityType := trip.ActivityGeneral
	if kind == slotMeal {
		query = fmt.Sprintf("restaurant in %s", st.req.Destination)
		placeType = "restaurant"
		activityType = trip.ActivityMeal
	}

	results := s.searchPlaces(ctx, st.req, query, placeType, st.bias)
	for _, place := range results {
		key := place.DedupKey()
		if _, taken := st.used[key]; taken {
			continue
		}
		st.used[key] = struct{}{}
		return s.placeToActivity(place, activityType, st.req), true
	}
	return trip.Activity{}, false
}

func (s *service) placeholderActivity(req trip.Request, kind slotKind) trip.Activity {
	if kind == slotMeal {
		return trip.Activity{
			Name:        fmt.Sprintf("Local Meal in %s", req.Destination),
			Description: "Find a casual spot near your accommodation; staff can usually point you to pet-friendly terraces.",
			PetFriendly: req.HasPets(),
			Location:    req.Destination,
			Cost:        "$0",
			Type:        trip.ActivityPlaceholder,
		}
	}
	return trip.Activity{
		Name:        fmt.Sprintf("Explore %s at Your Own Pace", req.Destination),
		Description: "Wander the neighborhood around your accommodation and let the day unfold.",
		PetFriendly: req.HasPets(),
		Location:    req.Destination,
		Cost:        "$0",
		Type:        trip.ActivityPlaceholder,
	}
}

func (s *service) checkInActivity(st *runState) trip.Activity {
	if st.accommodation != nil {
		st.used[st.accommodation.DedupKey()] = struct{}{}
		activity := s.placeToActivity(*st.accommodation, trip.ActivityAccommodation, st.req)
		activity.Name = "Check in at " + st.accommodation.Name
		activity.Description = fmt.Sprintf("Settle into %s and let your pet decompress after the journey.", st.accommodation.Name)
		activity.StartTime = "13:00"
		activity.EndTime = "13:30"
		return activity
	}
	return trip.Activity{
		Name:        "Check in to Your Accommodation",
		Description: fmt.Sprintf("Check in to your %s in %s.", st.req.Accommodation, st.req.Destination),
		PetFriendly: st.req.HasPets(),
		Location:    st.req.Destination,
		Cost:        "$0",
		Type:        trip.ActivityAccommodation,
		StartTime:   "13:00",
		EndTime:     "13:30",
	}
}

func (st *runState) airportLabel() string {
	if st.airportName != "" {
		return st.airportName
	}
	return fmt.Sprintf("%s Airport", st.req.Destination)
}

func finalVetCheck(req trip.Request) trip.Activity {
	return trip.Activity{
		Name:        "Final Vet Check",
		Description: "Quick wellness check and paperwork review before the return journey.",
		PetFriendly: true,
		PetDetails:  "Some routes require a fit-to-fly confirmation issued within 48 hours.",
		Location:    req.Destination,
		Cost:        "$40 - $80",
		Type:        trip.ActivityPreparation,
		StartTime:   "08:00",
		EndTime:     "09:00",
	}
}

func departureTransfer(req trip.Request, startTime, endTime string) trip.Activity {
	return trip.Activity{
		Name:        "Transfer to Departure Airport",
		Description: fmt.Sprintf("Head to the airport for your flight back to %s.", req.Origin),
		PetFriendly: true,
		PetDetails:  "Arrive early; pet check-in counters often close before regular ones.",
		Location:    fmt.Sprintf("%s Airport", req.Destination),
		Cost:        "$30 - $60",
		Type:        trip.ActivityTransfer,
		StartTime:   startTime,
		EndTime:     endTime,
	}
}

func petFlightNote(req trip.Request) string {
	if !req.HasPets() {
		return ""
	}
	for _, pet := range req.PetDetails {
		if pet.Size == "Large" {
			return "Large pets usually travel in the climate-controlled hold; confirm crate requirements with the airline."
		}
	}
	return "Small and medium pets can often travel in-cabin in an approved carrier."
}

func budgetFlightCost(budget string) string {
	switch budget {
	case trip.BudgetTierBudget:
		return "$200 - $450"
	case trip.BudgetTierLuxury:
		return "$900 - $2500"
	default:
		return "$450 - $900"
	}
}
