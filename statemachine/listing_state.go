package statemachine

import (
	"errors"

	"foodforward-api/models"
)

// Actors that may drive listing transitions.
const (
	ActorRestaurant   = "restaurant"
	ActorOrganization = "organization"
	ActorSystem       = "system"
)

// Transition defines a valid state change and who can perform it
type Transition struct {
	From  models.ListingStatus
	To    models.ListingStatus
	Actor string
}

// validTransitions is the authoritative state machine definition
var validTransitions = []Transition{
	// Organization claims an available listing (single winner)
	{From: models.StatusAvailable, To: models.StatusClaimed, Actor: ActorOrganization},
	// Owning restaurant relists a claimed listing; claimant fields are cleared
	{From: models.StatusClaimed, To: models.StatusAvailable, Actor: ActorRestaurant},
	// Expiry sweep retires available listings past their expiry date
	{From: models.StatusAvailable, To: models.StatusExpired, Actor: ActorSystem},
	// Owning restaurant relists after pushing the expiry date out
	{From: models.StatusExpired, To: models.StatusAvailable, Actor: ActorRestaurant},
}

// transitionKey is used to look up valid transitions quickly
type transitionKey struct {
	From  models.ListingStatus
	To    models.ListingStatus
	Actor string
}

// Build a lookup map for O(1) validation
var transitionMap = func() map[transitionKey]bool {
	m := make(map[transitionKey]bool)
	for _, t := range validTransitions {
		m[transitionKey{t.From, t.To, t.Actor}] = true
	}
	return m
}()

// ValidTransitionsFrom returns all valid next states from a given state
func ValidTransitionsFrom(status models.ListingStatus) []models.ListingStatus {
	var nexts []models.ListingStatus
	seen := map[models.ListingStatus]bool{}
	for _, t := range validTransitions {
		if t.From == status && !seen[t.To] {
			nexts = append(nexts, t.To)
			seen[t.To] = true
		}
	}
	return nexts
}

// CanTransition checks if a given actor can move from one state to another
func CanTransition(from, to models.ListingStatus, actor string) error {
	key := transitionKey{From: from, To: to, Actor: actor}
	if transitionMap[key] {
		return nil
	}
	return errors.New(
		"invalid transition: " + string(from) + " → " + string(to) +
			" is not allowed for actor '" + actor + "'. " +
			"Valid transitions from " + string(from) + " are: " + describeValidFrom(from),
	)
}

func describeValidFrom(status models.ListingStatus) string {
	nexts := ValidTransitionsFrom(status)
	if len(nexts) == 0 {
		return "none (terminal state)"
	}
	result := ""
	for i, s := range nexts {
		if i > 0 {
			result += ", "
		}
		result += string(s)
	}
	return result
}

// GetAllTransitions returns the full state machine for documentation
func GetAllTransitions() []Transition {
	return validTransitions
}
