package handlers

import (
	"errors"
	"log"
	"net/http"

	"foodforward-api/listings"
	"foodforward-api/middleware"
	"foodforward-api/models"
	"foodforward-api/store"

	"github.com/gin-gonic/gin"
)

// Handler carries the injected collaborators every route needs.
type Handler struct {
	Listings *listings.Service
	Users    store.UserRepo
	Tokens   *middleware.TokenIssuer
}

func New(svc *listings.Service, users store.UserRepo, tokens *middleware.TokenIssuer) *Handler {
	return &Handler{Listings: svc, Users: users, Tokens: tokens}
}

// respondError maps domain errors to HTTP statuses. Internal errors are
// logged and surfaced as a generic 500 with no implementation detail.
func respondError(c *gin.Context, err error) {
	var vErr *models.ValidationError
	var cErr *models.ConflictError
	switch {
	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{"error": vErr.Error()})
	case errors.As(err, &cErr):
		c.JSON(http.StatusConflict, gin.H{
			"error":          "Listing is not available for claiming",
			"current_status": cErr.CurrentStatus,
		})
	case errors.Is(err, models.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Not found"})
	case errors.Is(err, models.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": "You don't own this listing"})
	case errors.Is(err, models.ErrDuplicateEmail):
		c.JSON(http.StatusConflict, gin.H{"error": "Email already registered"})
	default:
		log.Printf("internal error on %s %s: %v", c.Request.Method, c.Request.URL.Path, err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Server error"})
	}
}
