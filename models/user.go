package models

import "time"

// UserRole defines allowed roles in the system
type UserRole string

const (
	RoleRestaurant   UserRole = "restaurant"
	RoleOrganization UserRole = "organization"
)

// ValidRole reports whether a role is one of the two marketplace roles.
func ValidRole(r UserRole) bool {
	return r == RoleRestaurant || r == RoleOrganization
}

type User struct {
	ID           string    `json:"id" gorm:"primaryKey" bson:"_id"`
	Name         string    `json:"name" gorm:"not null" bson:"name"`
	Email        string    `json:"email" gorm:"uniqueIndex;not null" bson:"email"`
	PasswordHash string    `json:"-" gorm:"not null" bson:"passwordHash"`
	Role         UserRole  `json:"role" gorm:"not null" bson:"role"`
	Address      string    `json:"address" bson:"address"`
	Phone        string    `json:"phone" bson:"phone"`
	CreatedAt    time.Time `json:"created_at" bson:"createdAt"`
	UpdatedAt    time.Time `json:"updated_at" bson:"updatedAt"`
}
