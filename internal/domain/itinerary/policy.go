package itinerary

import (
	"context"
	"fmt"

	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
)

// lookupPolicy fetches the destination's pet entry requirements. A missing
// record or a store failure degrades to a generic checklist.
func (s *service) lookupPolicy(ctx context.Context, req trip.Request) []trip.PolicyRequirementStep {
	if !req.HasPets() {
		return nil
	}

	slug := req.DestinationSlug()
	steps, found, err := s.policies.FindBySlug(ctx, slug)
	if err != nil {
		s.logger.Warn("policy lookup failed", "slug", slug, "error", err)
	}
	if !found || len(steps) == 0 {
		return genericPolicySteps(req.DestinationCountry)
	}

	// Re-number so rendering never depends on stored step values.
	for i := range steps {
		steps[i].Step = i + 1
	}
	return steps
}

func genericPolicySteps(country string) []trip.PolicyRequirementStep {
	return []trip.PolicyRequirementStep{
		{Step: 1, Label: "Check entry rules", Text: fmt.Sprintf("Confirm the current pet import requirements for %s with its official agriculture or customs authority.", country)},
		{Step: 2, Label: "Microchip and vaccines", Text: "Ensure your pet is microchipped and current on rabies vaccination well before departure."},
		{Step: 3, Label: "Health certificate", Text: "Obtain a veterinary health certificate within the window your destination requires."},
	}
}

// generalPreparation is the pet-count aware packing and planning checklist.
func generalPreparation(req trip.Request) []string {
	items := []string{
		"Confirm your accommodation's pet policy in writing before arrival",
		"Pack familiar food, bowls, and any medication for the full trip plus two days",
		"Save the address of a 24-hour veterinary clinic near your accommodation",
	}
	if req.Pets > 1 {
		items = append(items, "Double-check that carriers and restraints are sized for each pet individually")
	}
	for _, pet := range req.PetDetails {
		if pet.Size == "Large" {
			items = append(items, "Verify large-breed transport rules with your airline; cabin travel is usually unavailable")
			break
		}
	}
	return items
}

// preDeparturePreparation is the final-days checklist before travel.
func preDeparturePreparation(req trip.Request) []string {
	items := []string{
		"Visit your vet for a pre-travel checkup and any required paperwork",
		"Attach ID tags with your travel contact details to every collar",
		"Exercise your pet well on travel day before crating",
	}
	if req.HasPets() {
		items = append(items, fmt.Sprintf("Carry printed copies of all pet documents required by %s", req.DestinationCountry))
	}
	return items
}
