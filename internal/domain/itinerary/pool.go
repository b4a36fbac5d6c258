package itinerary

import (
	"context"
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
	"github.com/wanderpaws/wanderpaws/internal/infra/places"
)

// interestQuery is one search template bound to an interest tag.
type interestQuery struct {
	query     string
	placeType string
}

// interestQueryTable maps user interest tags onto place search templates. The
// %s receives the destination city.
var interestQueryTable = map[string][]interestQuery{
	"Outdoor Adventures": {
		{query: "hiking trail near %s", placeType: "tourist_attraction"},
		{query: "scenic park in %s", placeType: "park"},
		{query: "dog park in %s", placeType: "park"},
	},
	"Sightseeing": {
		{query: "top landmarks in %s", placeType: "tourist_attraction"},
		{query: "walking tour area in %s", placeType: "tourist_attraction"},
		{query: "scenic viewpoint in %s", placeType: ""},
	},
	"Food & Dining": {
		{query: "outdoor cafe in %s", placeType: "cafe"},
		{query: "farmers market in %s", placeType: ""},
		{query: "food hall in %s", placeType: ""},
	},
	"Beaches": {
		{query: "dog friendly beach near %s", placeType: ""},
		{query: "beach promenade in %s", placeType: ""},
	},
	"Museums & Culture": {
		{query: "open air museum in %s", placeType: "museum"},
		{query: "historic district in %s", placeType: ""},
	},
	"Shopping": {
		{query: "shopping street in %s", placeType: ""},
		{query: "artisan market in %s", placeType: ""},
	},
	"Parks & Nature": {
		{query: "botanical garden in %s", placeType: "park"},
		{query: "nature reserve near %s", placeType: "park"},
	},
	"Nightlife": {
		{query: "brewery with terrace in %s", placeType: "bar"},
		{query: "wine bar in %s", placeType: "bar"},
	},
}

// fallback templates for interests the table does not know.
var genericInterestQueries = []interestQuery{
	{query: "%s attractions", placeType: "tourist_attraction"},
}

// pool hands out candidate activities until exhausted.
type pool struct {
	remaining []trip.Activity
}

// pop returns the next candidate not yet used in this run, marking it used.
func (p *pool) pop(used map[string]struct{}) (trip.Activity, bool) {
	for len(p.remaining) > 0 {
		candidate := p.remaining[0]
		p.remaining = p.remaining[1:]
		key := candidate.DedupKey()
		if _, taken := used[key]; taken {
			continue
		}
		used[key] = struct{}{}
		return candidate, true
	}
	return trip.Activity{}, false
}

// buildInterestPool fans out one search per interest template, deduplicates
// against everything already seen in this run, shuffles, and trims to the
// number of open activity slots.
func (s *service) buildInterestPool(ctx context.Context, req trip.Request, bias places.SearchOptions, seen map[string]struct{}) *pool {
	needed := (req.DurationDays() - 1) * 2
	if needed < 0 {
		needed = 0
	}

	interests := req.Interests
	if s.cfg.MaxInterests > 0 && len(interests) > s.cfg.MaxInterests {
		interests = interests[:s.cfg.MaxInterests]
	}

	var candidates []trip.Activity
	for _, interest := range interests {
		templates, ok := interestQueryTable[interest]
		if !ok {
			templates = genericInterestQueries
		}
		for _, tmpl := range templates {
			query := fmt.Sprintf(tmpl.query, req.Destination)
			if !strings.Contains(tmpl.query, "%s") {
				query = tmpl.query + " in " + req.Destination
			}
			results := s.searchPlaces(ctx, req, query, tmpl.placeType, bias)
			for _, place := range results {
				key := place.DedupKey()
				if _, dup := seen[key]; dup {
					continue
				}
				seen[key] = struct{}{}
				candidates = append(candidates, s.placeToActivity(place, trip.ActivityGeneral, req))
			}
		}
	}

	candidates = s.shuffle(candidates)
	if len(candidates) > needed {
		candidates = candidates[:needed]
	}
	return &pool{remaining: candidates}
}

// buildRestaurantPool sources meal candidates separately; restaurants never
// mix into the interest pool.
func (s *service) buildRestaurantPool(ctx context.Context, req trip.Request, bias places.SearchOptions, seen map[string]struct{}) *pool {
	needed := req.DurationDays() * 2
	results := s.searchPlaces(ctx, req, "restaurants in "+req.Destination, "restaurant", bias)

	var candidates []trip.Activity
	for _, place := range results {
		key := place.DedupKey()
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		candidates = append(candidates, s.placeToActivity(place, trip.ActivityMeal, req))
	}

	candidates = s.shuffle(candidates)
	if len(candidates) > needed {
		candidates = candidates[:needed]
	}
	return &pool{remaining: candidates}
}

func defaultShuffle(activities []trip.Activity) []trip.Activity {
	return lo.Shuffle(activities)
}

// searchPlaces applies the pet-prefix and budget heuristics before hitting
// the places API. API failures read as empty results.
func (s *service) searchPlaces(ctx context.Context, req trip.Request, query, placeType string, bias places.SearchOptions) []trip.Place {
	opts := bias
	opts.Type = placeType
	opts.MaxResults = s.cfg.MaxPerQuery
	applyBudgetFilter(&opts, req.Budget, placeType)

	finalQuery := query
	if req.HasPets() && !strings.Contains(strings.ToLower(query), "pet friendly") && !strings.Contains(strings.ToLower(query), "dog") {
		finalQuery = "pet friendly " + query
	}

	results, err := s.search.TextSearch(ctx, finalQuery, opts)
	if err != nil {
		s.logger.Warn("place search failed", "query", finalQuery, "error", err)
		return nil
	}
	return results
}

func applyBudgetFilter(opts *places.SearchOptions, budget, placeType string) {
	lodging := placeType == "lodging"
	switch budget {
	case trip.BudgetTierBudget:
		if !lodging {
			price := 2
			opts.MaxPrice = &price
		}
	case trip.BudgetTierLuxury:
		price := 3
		opts.MinPrice = &price
	}
}

// placeToActivity converts a search result into a schedulable unit.
func (s *service) placeToActivity(place trip.Place, activityType string, req trip.Request) trip.Activity {
	description := fmt.Sprintf("Visit %s in %s.", place.Name, req.Destination)
	if activityType == trip.ActivityMeal {
		description = fmt.Sprintf("Enjoy a meal at %s.", place.Name)
	}
	petDetails := ""
	if req.HasPets() {
		petDetails = "Surfaced by a pet-friendly search; confirm the venue's pet policy on arrival."
	}
	return trip.Activity{
		Name:        place.Name,
		Description: description,
		PetFriendly: req.HasPets(),
		PetDetails:  petDetails,
		Location:    place.Address,
		Latitude:    place.Latitude,
		Longitude:   place.Longitude,
		Cost:        trip.PriceLevelToCost(place.PriceLevel),
		Type:        activityType,
		PlaceID:     place.ID,
		Rating:      place.Rating,
		Website:     place.Website,
		Phone:       place.Phone,
	}
}
