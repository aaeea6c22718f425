package main

import (
	"context"
	"log"
	"net/http"

	"foodforward-api/config"
	"foodforward-api/handlers"
	"foodforward-api/listings"
	"foodforward-api/metrics"
	"foodforward-api/middleware"
	"foodforward-api/routes"
	"foodforward-api/store"
	"foodforward-api/worker"

	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration: ", err)
	}
	gin.SetMode(cfg.GinMode)

	st, cleanup, err := openStore(cfg)
	if err != nil {
		log.Fatal("Failed to initialize store: ", err)
	}
	if cleanup != nil {
		defer cleanup()
	}
	log.Printf("✅ Store initialized (%s backend)", cfg.StoreBackend)

	collector := metrics.NewCollector()
	svc := listings.NewService(st.Listings, collector)
	tokens := middleware.NewTokenIssuer(cfg.SecretBytes(), cfg.TokenTTL)
	authLimiter := middleware.NewRateLimiter(cfg.AuthRatePerMinute, cfg.AuthRateBurst)
	defer authLimiter.Stop()

	// Create Gin router with default middleware (logger + recovery)
	r := gin.Default()
	r.Use(collector.Middleware())

	// CORS middleware for frontend integration
	r.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	})

	r.GET("/health", handlers.Health)
	r.GET("/metrics", collector.Handler())

	routes.SetupRoutes(r, routes.Deps{
		Handler:     handlers.New(svc, st.Users, tokens),
		Tokens:      tokens,
		AuthLimiter: authLimiter,
	})

	sweeper := worker.NewExpirySweeper(svc, cfg.ExpirySweepInterval)
	sweeper.Start()
	defer sweeper.Stop()

	log.Printf("🚀 Server running on http://localhost:%s", cfg.Port)
	if err := r.Run(":" + cfg.Port); err != nil {
		log.Fatal("Failed to start server: ", err)
	}
}

// openStore selects the persistence backend. The returned cleanup closes
// backend connections on shutdown.
func openStore(cfg *config.Config) (*store.Store, func(), error) {
	switch cfg.StoreBackend {
	case config.BackendMemory:
		return store.NewMemory(), nil, nil
	case config.BackendMongo:
		st, client, err := store.NewMongo(context.Background(), cfg.MongoURI, cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		cleanup := func() {
			if err := client.Disconnect(context.Background()); err != nil {
				log.Printf("mongo disconnect: %v", err)
			}
		}
		return st, cleanup, nil
	default:
		st, err := store.NewSQLite(cfg.SQLitePath)
		return st, nil, err
	}
}
