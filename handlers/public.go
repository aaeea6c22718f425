package handlers

import (
	"net/http"

	"foodforward-api/statemachine"

	"github.com/gin-gonic/gin"
)

// Health reports service liveness
func Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "FoodForward Surplus Food Marketplace API",
		"version": "1.0.0",
	})
}

// GetStateMachineInfo returns the listing lifecycle for informational purposes
func GetStateMachineInfo(c *gin.Context) {
	transitions := statemachine.GetAllTransitions()
	info := make([]gin.H, 0, len(transitions))
	for _, t := range transitions {
		info = append(info, gin.H{"from": t.From, "to": t.To, "actor": t.Actor})
	}
	c.JSON(http.StatusOK, gin.H{
		"state_machine": info,
		"description":   "Surplus Food Listing Lifecycle State Machine",
	})
}
