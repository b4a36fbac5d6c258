package policyrepo

import (
	"context"
	"sync"

	"github.com/wanderpaws/wanderpaws/internal/domain/itinerary"
	"github.com/wanderpaws/wanderpaws/internal/domain/trip"
)

// MemoryRepository is an in-memory policy store used for tests and development.
type MemoryRepository struct {
	mu       sync.RWMutex
	policies map[string][]trip.PolicyRequirementStep
}

// NewMemoryRepository constructs a repo seeded with a handful of destinations.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		policies: map[string][]trip.PolicyRequirementStep{
			"portugal": euEntrySteps(),
			"france":   euEntrySteps(),
			"germany":  euEntrySteps(),
			"italy":    euEntrySteps(),
			"spain":    euEntrySteps(),
		},
	}
}

// Seed replaces the steps stored for a slug.
func (r *MemoryRepository) Seed(slug string, steps []trip.PolicyRequirementStep) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.policies[slug] = steps
}

// FindBySlug implements itinerary.PolicyRepository.
func (r *MemoryRepository) FindBySlug(_ context.Context, slug string) ([]trip.PolicyRequirementStep, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	steps, ok := r.policies[slug]
	if !ok {
		return nil, false, nil
	}
	out := make([]trip.PolicyRequirementStep, len(steps))
	copy(out, steps)
	return out, true, nil
}

func euEntrySteps() []trip.PolicyRequirementStep {
	return []trip.PolicyRequirementStep{
		{Step: 1, Label: "Microchip", Text: "Your pet must have an ISO 11784/11785 compliant microchip implanted before any vaccinations."},
		{Step: 2, Label: "Rabies vaccination", Text: "A valid rabies vaccination administered at least 21 days before travel, after the microchip."},
		{Step: 3, Label: "Health certificate", Text: "An official veterinary health certificate issued within 10 days of entry."},
		{Step: 4, Label: "Tapeworm treatment", Text: "Dogs may require tapeworm treatment 24-120 hours before arrival depending on the destination."},
	}
}

var _ itinerary.PolicyRepository = (*MemoryRepository)(nil)
