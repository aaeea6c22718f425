// Package policy is the declarative access table: each operation lists the
// roles allowed to perform it, checked once per request. Ownership checks
// (may this restaurant touch this listing) stay in the listings service;
// this table only answers "may this role attempt this operation at all".
package policy

import "foodforward-api/models"

// Operation names every guarded API action.
type Operation string

const (
	OpCreateListing Operation = "listing:create"
	OpListAvailable Operation = "listing:list-available"
	OpListOwn       Operation = "listing:list-own"
	OpGetListing    Operation = "listing:get"
	OpUpdateListing Operation = "listing:update"
	OpDeleteListing Operation = "listing:delete"
	OpClaimListing  Operation = "listing:claim"
	OpReadProfile   Operation = "profile:read"
	OpUpdateProfile Operation = "profile:update"
)

// rules is the authoritative policy definition
var rules = map[Operation][]models.UserRole{
	OpCreateListing: {models.RoleRestaurant},
	OpListAvailable: {models.RoleOrganization},
	OpListOwn:       {models.RoleRestaurant},
	OpGetListing:    {models.RoleRestaurant, models.RoleOrganization},
	OpUpdateListing: {models.RoleRestaurant},
	OpDeleteListing: {models.RoleRestaurant},
	OpClaimListing:  {models.RoleOrganization},
	OpReadProfile:   {models.RoleRestaurant, models.RoleOrganization},
	OpUpdateProfile: {models.RoleRestaurant, models.RoleOrganization},
}

type ruleKey struct {
	Op   Operation
	Role models.UserRole
}

// Build a lookup map for O(1) checks
var ruleMap = func() map[ruleKey]bool {
	m := make(map[ruleKey]bool)
	for op, roles := range rules {
		for _, r := range roles {
			m[ruleKey{op, r}] = true
		}
	}
	return m
}()

// Allowed reports whether the role may attempt the operation. Unknown
// operations deny everything.
func Allowed(op Operation, role models.UserRole) bool {
	return ruleMap[ruleKey{op, role}]
}

// AllowedRoles returns the roles permitted for an operation, for error
// messages and the policy docs endpoint.
func AllowedRoles(op Operation) []models.UserRole {
	return rules[op]
}
