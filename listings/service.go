// Package listings is the single business-logic core for surplus-food
// listings: validation, ownership, the claim transition and the invariant
// that organizationId is set exactly when a listing is claimed. It runs
// against any store.ListingRepo, so every backend shares one implementation
// of the rules.
package listings

import (
	"context"
	"strings"
	"time"

	"foodforward-api/metrics"
	"foodforward-api/models"
	"foodforward-api/statemachine"
	"foodforward-api/store"

	"github.com/google/uuid"
)

// CreateInput carries the fields a restaurant provides for a new listing.
type CreateInput struct {
	FoodName       string
	Description    string
	Quantity       int
	PickupLocation string
	ExpiryDate     time.Time
}

type Service struct {
	repo    store.ListingRepo
	metrics metrics.Recorder
}

func NewService(repo store.ListingRepo, rec metrics.Recorder) *Service {
	if rec == nil {
		rec = metrics.Noop{}
	}
	return &Service{repo: repo, metrics: rec}
}

// Create validates the input and persists a fresh available listing owned by
// the given restaurant. Nothing is persisted on a validation failure.
func (s *Service) Create(ctx context.Context, ownerID string, in CreateInput) (*models.Listing, error) {
	if err := validateCreate(in); err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	l := &models.Listing{
		ID:             uuid.NewString(),
		RestaurantID:   ownerID,
		FoodName:       in.FoodName,
		Description:    in.Description,
		Quantity:       in.Quantity,
		PickupLocation: in.PickupLocation,
		ExpiryDate:     in.ExpiryDate,
		Status:         models.StatusAvailable,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Insert(ctx, l); err != nil {
		return nil, err
	}
	s.metrics.ListingCreated()
	return l, nil
}

func validateCreate(in CreateInput) error {
	switch {
	case strings.TrimSpace(in.FoodName) == "":
		return &models.ValidationError{Field: "food_name", Message: "is required"}
	case strings.TrimSpace(in.Description) == "":
		return &models.ValidationError{Field: "description", Message: "is required"}
	case strings.TrimSpace(in.PickupLocation) == "":
		return &models.ValidationError{Field: "pickup_location", Message: "is required"}
	case in.ExpiryDate.IsZero():
		return &models.ValidationError{Field: "expiry_date", Message: "is required"}
	case in.Quantity <= 0:
		return &models.ValidationError{Field: "quantity", Message: "must be a positive integer"}
	}
	return nil
}

func (s *Service) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error) {
	return s.repo.ListByOwner(ctx, ownerID)
}

func (s *Service) ListAvailable(ctx context.Context) ([]models.Listing, error) {
	return s.repo.ListAvailable(ctx)
}

// Update applies an owner's patch. Only the owning restaurant may update;
// id, restaurantId and createdAt are not patchable; a status change must be
// a legal restaurant transition, and any path back to available clears the
// claimant fields.
func (s *Service) Update(ctx context.Context, id, requesterID string, patch models.ListingPatch) (*models.Listing, error) {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if l.RestaurantID != requesterID {
		return nil, models.ErrForbidden
	}
	observed := l.Status

	if patch.FoodName != nil {
		if strings.TrimSpace(*patch.FoodName) == "" {
			return nil, &models.ValidationError{Field: "food_name", Message: "cannot be empty"}
		}
		l.FoodName = *patch.FoodName
	}
	if patch.Description != nil {
		l.Description = *patch.Description
	}
	if patch.Quantity != nil {
		if *patch.Quantity <= 0 {
			return nil, &models.ValidationError{Field: "quantity", Message: "must be a positive integer"}
		}
		l.Quantity = *patch.Quantity
	}
	if patch.PickupLocation != nil {
		l.PickupLocation = *patch.PickupLocation
	}
	if patch.ExpiryDate != nil {
		l.ExpiryDate = *patch.ExpiryDate
	}
	if patch.Status != nil && *patch.Status != l.Status {
		if !models.ValidStatus(*patch.Status) {
			return nil, &models.ValidationError{Field: "status", Message: "must be available, claimed or expired"}
		}
		if err := statemachine.CanTransition(l.Status, *patch.Status, statemachine.ActorRestaurant); err != nil {
			return nil, &models.ValidationError{Field: "status", Message: err.Error()}
		}
		l.Status = *patch.Status
		if l.Status == models.StatusAvailable {
			// Relisting: the previous claim no longer holds.
			l.OrganizationID = ""
			l.ClaimedAt = nil
		}
	}

	l.UpdatedAt = time.Now().UTC()
	// The write is guarded by the status read above: if a claim (or any
	// other transition) committed in between, the repo rejects the patch
	// with a conflict instead of silently reverting it.
	if err := s.repo.Update(ctx, l, observed); err != nil {
		return nil, err
	}
	return l, nil
}

// Delete removes a listing. Permitted for the owning restaurant regardless
// of claim state.
func (s *Service) Delete(ctx context.Context, id, requesterID string) error {
	l, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if l.RestaurantID != requesterID {
		return models.ErrForbidden
	}
	return s.repo.Delete(ctx, id)
}

// Claim attempts the available → claimed transition for an organization.
// Arbitration happens inside the repo's atomic Claim primitive: exactly one
// concurrent claimer wins, every loser gets *models.ConflictError with the
// status that beat it.
func (s *Service) Claim(ctx context.Context, id, organizationID string) (*models.Listing, error) {
	l, err := s.repo.Claim(ctx, id, organizationID, time.Now().UTC())
	if err != nil {
		if _, ok := err.(*models.ConflictError); ok {
			s.metrics.ClaimLost()
		}
		return nil, err
	}
	s.metrics.ClaimWon()
	return l, nil
}

// ExpireBefore retires available listings whose expiry date has passed.
// Called by the background sweep, not by any request handler.
func (s *Service) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	n, err := s.repo.ExpireBefore(ctx, cutoff)
	if err != nil {
		return 0, err
	}
	s.metrics.ListingsExpired(n)
	return n, nil
}
