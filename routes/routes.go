package routes

import (
	"foodforward-api/handlers"
	"foodforward-api/middleware"
	"foodforward-api/policy"

	"github.com/gin-gonic/gin"
)

// Deps bundles everything route registration needs.
type Deps struct {
	Handler     *handlers.Handler
	Tokens      *middleware.TokenIssuer
	AuthLimiter *middleware.RateLimiter
}

func SetupRoutes(r *gin.Engine, d Deps) {
	h := d.Handler

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		auth := public.Group("/auth")
		auth.Use(d.AuthLimiter.Middleware())
		{
			auth.POST("/register", h.Register)
			auth.POST("/login", h.Login)
		}

		// Lifecycle info (great for docs/Postman)
		public.GET("/state-machine", handlers.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	api := r.Group("/api")
	api.Use(d.Tokens.AuthRequired())
	{
		users := api.Group("/users")
		{
			users.GET("/me", middleware.Authorize(policy.OpReadProfile), h.GetMe)
			users.PUT("/me", middleware.Authorize(policy.OpUpdateProfile), h.UpdateMe)
		}

		lst := api.Group("/listings")
		{
			lst.POST("", middleware.Authorize(policy.OpCreateListing), h.CreateListing)
			lst.GET("", middleware.Authorize(policy.OpListAvailable), h.ListAvailable)
			lst.GET("/my-listings", middleware.Authorize(policy.OpListOwn), h.MyListings)
			lst.GET("/:id", middleware.Authorize(policy.OpGetListing), h.GetListing)
			lst.PUT("/:id", middleware.Authorize(policy.OpUpdateListing), h.UpdateListing)
			lst.DELETE("/:id", middleware.Authorize(policy.OpDeleteListing), h.DeleteListing)
			lst.PUT("/:id/claim", middleware.Authorize(policy.OpClaimListing), h.ClaimListing)
		}
	}
}
