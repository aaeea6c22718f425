package handlers

import (
	"net/http"
	"time"

	"foodforward-api/listings"
	"foodforward-api/middleware"
	"foodforward-api/models"

	"github.com/gin-gonic/gin"
)

type CreateListingRequest struct {
	FoodName       string    `json:"food_name" binding:"required"`
	Description    string    `json:"description" binding:"required"`
	Quantity       int       `json:"quantity" binding:"required,gt=0"`
	PickupLocation string    `json:"pickup_location" binding:"required"`
	ExpiryDate     time.Time `json:"expiry_date" binding:"required"`
}

type UpdateListingRequest struct {
	FoodName       *string               `json:"food_name"`
	Description    *string               `json:"description"`
	Quantity       *int                  `json:"quantity"`
	PickupLocation *string               `json:"pickup_location"`
	ExpiryDate     *time.Time            `json:"expiry_date"`
	Status         *models.ListingStatus `json:"status"`
}

// CreateListing lets a restaurant publish a surplus-food listing
func (h *Handler) CreateListing(c *gin.Context) {
	var req CreateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.Listings.Create(c.Request.Context(), middleware.GetUserID(c), listings.CreateInput{
		FoodName:       req.FoodName,
		Description:    req.Description,
		Quantity:       req.Quantity,
		PickupLocation: req.PickupLocation,
		ExpiryDate:     req.ExpiryDate,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Listing created", "listing": listing})
}

// ListAvailable returns claimable listings for organizations, newest first
func (h *Handler) ListAvailable(c *gin.Context) {
	available, err := h.Listings.ListAvailable(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(available), "listings": available})
}

// MyListings returns all of the calling restaurant's listings
func (h *Handler) MyListings(c *gin.Context) {
	owned, err := h.Listings.ListByOwner(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(owned), "listings": owned})
}

// GetListing returns a single listing by id
func (h *Handler) GetListing(c *gin.Context) {
	listing, err := h.Listings.GetByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"listing": listing})
}

// UpdateListing applies an owner's changes to a listing
func (h *Handler) UpdateListing(c *gin.Context) {
	var req UpdateListingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	listing, err := h.Listings.Update(c.Request.Context(), c.Param("id"), middleware.GetUserID(c), models.ListingPatch{
		FoodName:       req.FoodName,
		Description:    req.Description,
		Quantity:       req.Quantity,
		PickupLocation: req.PickupLocation,
		ExpiryDate:     req.ExpiryDate,
		Status:         req.Status,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing updated", "listing": listing})
}

// DeleteListing removes a listing owned by the caller
func (h *Handler) DeleteListing(c *gin.Context) {
	if err := h.Listings.Delete(c.Request.Context(), c.Param("id"), middleware.GetUserID(c)); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// ClaimListing attempts the available → claimed transition for the calling
// organization. Losers of a concurrent race get 409 with the winning status.
func (h *Handler) ClaimListing(c *gin.Context) {
	listing, err := h.Listings.Claim(c.Request.Context(), c.Param("id"), middleware.GetUserID(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Listing claimed successfully", "listing": listing})
}
