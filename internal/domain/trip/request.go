package trip

import (
	"fmt"
	"strings"
	"time"

	apperrors "github.com/wanderpaws/wanderpaws/pkg/errors"
)

// Budget tiers accepted from the trip form.
const (
	BudgetTierBudget   = "Budget"
	BudgetTierModerate = "Moderate"
	BudgetTierLuxury   = "Luxury"
)

// PetDetail describes one travelling pet.
type PetDetail struct {
	Type string `json:"type"`
	Size string `json:"size"`
}

// Request carries the user submitted trip parameters.
type Request struct {
	Origin             string      `json:"origin"`
	OriginCountry      string      `json:"originCountry"`
	Destination        string      `json:"destination"`
	DestinationCountry string      `json:"destinationCountry"`
	StartDate          string      `json:"startDate"`
	EndDate            string      `json:"endDate"`
	Adults             int         `json:"adults"`
	Children           int         `json:"children"`
	Pets               int         `json:"pets"`
	PetDetails         []PetDetail `json:"petDetails"`
	Budget             string      `json:"budget"`
	Accommodation      string      `json:"accommodation"`
	Interests          []string    `json:"interests"`
	Notes              string      `json:"notes"`
}

const dateLayout = "2006-01-02"

// Validate rejects malformed requests before any external call is made.
func (r Request) Validate() error {
	for field, value := range map[string]string{
		"origin":             r.Origin,
		"originCountry":      r.OriginCountry,
		"destination":        r.Destination,
		"destinationCountry": r.DestinationCountry,
		"startDate":          r.StartDate,
		"endDate":            r.EndDate,
		"budget":             r.Budget,
		"accommodation":      r.Accommodation,
	} {
		if strings.TrimSpace(value) == "" {
			return apperrors.Wrap("invalid_input", fmt.Sprintf("%s is required", field), nil)
		}
	}
	if r.Adults <= 0 {
		return apperrors.Wrap("invalid_input", "at least one adult traveler is required", nil)
	}
	if r.Pets < 0 || r.Children < 0 {
		return apperrors.Wrap("invalid_input", "traveler counts cannot be negative", nil)
	}
	if r.Pets > 0 && len(r.PetDetails) != r.Pets {
		return apperrors.Wrap("invalid_input", "petDetails must describe every pet", nil)
	}
	if len(r.Interests) == 0 {
		return apperrors.Wrap("invalid_input", "at least one interest is required", nil)
	}
	switch r.Budget {
	case BudgetTierBudget, BudgetTierModerate, BudgetTierLuxury:
	default:
		return apperrors.Wrap("invalid_input", "budget must be Budget, Moderate or Luxury", nil)
	}
	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return apperrors.Wrap("invalid_input", "startDate must be formatted as YYYY-MM-DD", err)
	}
	end, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		return apperrors.Wrap("invalid_input", "endDate must be formatted as YYYY-MM-DD", err)
	}
	if !end.After(start) {
		return apperrors.Wrap("invalid_input", "endDate must be after startDate", nil)
	}
	return nil
}

// Start returns the parsed start date. Validate must have succeeded.
func (r Request) Start() time.Time {
	t, _ := time.Parse(dateLayout, r.StartDate)
	return t
}

// DurationDays is the trip length in days, inclusive of both endpoints.
func (r Request) DurationDays() int {
	start, err := time.Parse(dateLayout, r.StartDate)
	if err != nil {
		return 0
	}
	end, err := time.Parse(dateLayout, r.EndDate)
	if err != nil {
		return 0
	}
	return int(end.Sub(start).Hours()/24) + 1
}

// HasPets reports whether any pet travels with the party.
func (r Request) HasPets() bool {
	return r.Pets > 0
}

// DestinationSlug normalizes the destination country for policy lookups.
func (r Request) DestinationSlug() string {
	slug := strings.ToLower(strings.TrimSpace(r.DestinationCountry))
	slug = strings.ReplaceAll(slug, " ", "-")
	return slug
}
