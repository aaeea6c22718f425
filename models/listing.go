package models

import "time"

// ListingStatus represents all possible states of a surplus-food listing
type ListingStatus string

const (
	StatusAvailable ListingStatus = "available"
	StatusClaimed   ListingStatus = "claimed"
	StatusExpired   ListingStatus = "expired"
)

// ValidStatus reports whether a status is part of the listing lifecycle.
func ValidStatus(s ListingStatus) bool {
	return s == StatusAvailable || s == StatusClaimed || s == StatusExpired
}

type Listing struct {
	ID             string        `json:"id" gorm:"primaryKey" bson:"_id"`
	RestaurantID   string        `json:"restaurant_id" gorm:"index;not null" bson:"restaurantId"`
	FoodName       string        `json:"food_name" gorm:"not null" bson:"foodName"`
	Description    string        `json:"description" gorm:"not null" bson:"description"`
	Quantity       int           `json:"quantity" gorm:"not null" bson:"quantity"`
	PickupLocation string        `json:"pickup_location" gorm:"not null" bson:"pickupLocation"`
	ExpiryDate     time.Time     `json:"expiry_date" gorm:"not null" bson:"expiryDate"`
	Status         ListingStatus `json:"status" gorm:"index;not null;default:'available'" bson:"status"`
	OrganizationID string        `json:"organization_id,omitempty" gorm:"index" bson:"organizationId,omitempty"`
	ClaimedAt      *time.Time    `json:"claimed_at,omitempty" bson:"claimedAt,omitempty"`
	CreatedAt      time.Time     `json:"created_at" bson:"createdAt"`
	UpdatedAt      time.Time     `json:"updated_at" bson:"updatedAt"`
}

// Claimed reports whether the listing has been won by an organization.
func (l *Listing) Claimed() bool {
	return l.Status == StatusClaimed
}

// ListingPatch carries the mutable listing fields for an owner update.
// Nil pointers mean "leave unchanged"; id, restaurantId and createdAt are
// not patchable.
type ListingPatch struct {
	FoodName       *string
	Description    *string
	Quantity       *int
	PickupLocation *string
	ExpiryDate     *time.Time
	Status         *ListingStatus
}
