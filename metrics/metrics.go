// Package metrics exposes Prometheus instrumentation for the marketplace:
// claim outcomes, listing volume and HTTP traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Recorder is what the listings service reports into. The Noop
// implementation keeps tests free of registry setup.
type Recorder interface {
	ListingCreated()
	ClaimWon()
	ClaimLost()
	ListingsExpired(count int64)
}

// Noop discards all measurements.
type Noop struct{}

func (Noop) ListingCreated()             {}
func (Noop) ClaimWon()                   {}
func (Noop) ClaimLost()                  {}
func (Noop) ListingsExpired(count int64) {}

// Collector records measurements into a Prometheus registry.
type Collector struct {
	registry *prometheus.Registry

	listingsCreated prometheus.Counter
	claimsWon       prometheus.Counter
	claimsLost      prometheus.Counter
	listingsExpired prometheus.Counter

	httpRequests *prometheus.CounterVec
	httpLatency  prometheus.Histogram
}

func NewCollector() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),
		listingsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodforward_listings_created_total",
			Help: "Total listings created by restaurants",
		}),
		claimsWon: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodforward_claims_won_total",
			Help: "Total successful listing claims",
		}),
		claimsLost: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodforward_claims_conflict_total",
			Help: "Total claims rejected because the listing was no longer available",
		}),
		listingsExpired: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "foodforward_listings_expired_total",
			Help: "Total listings retired by the expiry sweep",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "foodforward_http_requests_total",
			Help: "HTTP requests by method, route and status code",
		}, []string{"method", "route", "status"}),
		httpLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "foodforward_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: prometheus.DefBuckets,
		}),
	}
	c.registry.MustRegister(
		c.listingsCreated, c.claimsWon, c.claimsLost, c.listingsExpired,
		c.httpRequests, c.httpLatency,
	)
	return c
}

func (c *Collector) ListingCreated() { c.listingsCreated.Inc() }
func (c *Collector) ClaimWon()       { c.claimsWon.Inc() }
func (c *Collector) ClaimLost()      { c.claimsLost.Inc() }

func (c *Collector) ListingsExpired(count int64) {
	c.listingsExpired.Add(float64(count))
}

// Middleware records every request's route, status and latency.
func (c *Collector) Middleware() gin.HandlerFunc {
	return func(g *gin.Context) {
		start := time.Now()
		g.Next()

		route := g.FullPath()
		if route == "" {
			route = "unmatched"
		}
		c.httpRequests.WithLabelValues(
			g.Request.Method, route, strconv.Itoa(g.Writer.Status()),
		).Inc()
		c.httpLatency.Observe(time.Since(start).Seconds())
	}
}

// Handler serves the /metrics scrape endpoint.
func (c *Collector) Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{}))
}
