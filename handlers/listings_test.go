package handlers_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"foodforward-api/handlers"
	"foodforward-api/listings"
	"foodforward-api/middleware"
	"foodforward-api/models"
	"foodforward-api/routes"
	"foodforward-api/store"

	"github.com/gin-gonic/gin"
)

func newTestRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := store.NewMemory()
	tokens := middleware.NewTokenIssuer([]byte("test-secret"), time.Hour)
	limiter := middleware.NewRateLimiter(6000, 1000)
	t.Cleanup(limiter.Stop)

	r := gin.New()
	routes.SetupRoutes(r, routes.Deps{
		Handler:     handlers.New(listings.NewService(st.Listings, nil), st.Users, tokens),
		Tokens:      tokens,
		AuthLimiter: limiter,
	})
	return r, st
}

func doJSON(t *testing.T, r *gin.Engine, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	out := map[string]interface{}{}
	if err := json.Unmarshal(w.Body.Bytes(), &out); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return out
}

func register(t *testing.T, r *gin.Engine, name, email string, role models.UserRole) (token, id string) {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name":     name,
		"email":    email,
		"password": "hunter22",
		"role":     role,
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, w.Code, w.Body.String())
	}
	body := decode(t, w)
	token = body["token"].(string)
	id = body["user"].(map[string]interface{})["id"].(string)
	return token, id
}

func createListing(t *testing.T, r *gin.Engine, token string) string {
	t.Helper()
	w := doJSON(t, r, http.MethodPost, "/api/listings", token, gin.H{
		"food_name":       "Leftover soup",
		"description":     "Ten liters of minestrone",
		"quantity":        10,
		"pickup_location": "9 Market Sq",
		"expiry_date":     time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create listing: status %d body %s", w.Code, w.Body.String())
	}
	return decode(t, w)["listing"].(map[string]interface{})["id"].(string)
}

func TestRegisterAndLogin(t *testing.T) {
	r, _ := newTestRouter(t)

	token, _ := register(t, r, "Trattoria", "owner@trattoria.example", models.RoleRestaurant)
	if token == "" {
		t.Fatal("expected a token from registration")
	}

	// Duplicate email is a conflict.
	w := doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Copycat", "email": "owner@trattoria.example", "password": "hunter22", "role": "organization",
	})
	if w.Code != http.StatusConflict {
		t.Errorf("duplicate register: status %d, want 409", w.Code)
	}

	// Unknown role is rejected.
	w = doJSON(t, r, http.MethodPost, "/api/auth/register", "", gin.H{
		"name": "Admin", "email": "admin@example.com", "password": "hunter22", "role": "admin",
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("bad role register: status %d, want 400", w.Code)
	}

	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "owner@trattoria.example", "password": "hunter22",
	})
	if w.Code != http.StatusOK {
		t.Errorf("login: status %d body %s", w.Code, w.Body.String())
	}
	w = doJSON(t, r, http.MethodPost, "/api/auth/login", "", gin.H{
		"email": "owner@trattoria.example", "password": "wrong",
	})
	if w.Code != http.StatusUnauthorized {
		t.Errorf("bad login: status %d, want 401", w.Code)
	}
}

func TestListingRolePolicy(t *testing.T) {
	r, _ := newTestRouter(t)
	restToken, _ := register(t, r, "Trattoria", "owner@trattoria.example", models.RoleRestaurant)
	orgToken, _ := register(t, r, "Food Bank", "bank@example.org", models.RoleOrganization)

	// Organizations cannot create listings.
	w := doJSON(t, r, http.MethodPost, "/api/listings", orgToken, gin.H{
		"food_name": "x", "description": "y", "quantity": 1,
		"pickup_location": "z", "expiry_date": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	if w.Code != http.StatusForbidden {
		t.Errorf("org create: status %d, want 403", w.Code)
	}

	// Restaurants cannot browse available listings or claim.
	id := createListing(t, r, restToken)
	if w := doJSON(t, r, http.MethodGet, "/api/listings", restToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("restaurant browse: status %d, want 403", w.Code)
	}
	if w := doJSON(t, r, http.MethodPut, "/api/listings/"+id+"/claim", restToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("restaurant claim: status %d, want 403", w.Code)
	}

	// Organizations cannot update or delete.
	if w := doJSON(t, r, http.MethodPut, "/api/listings/"+id, orgToken, gin.H{"quantity": 2}); w.Code != http.StatusForbidden {
		t.Errorf("org update: status %d, want 403", w.Code)
	}
	if w := doJSON(t, r, http.MethodDelete, "/api/listings/"+id, orgToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("org delete: status %d, want 403", w.Code)
	}

	// No token at all is 401, not 403.
	if w := doJSON(t, r, http.MethodGet, "/api/listings", "", nil); w.Code != http.StatusUnauthorized {
		t.Errorf("anonymous browse: status %d, want 401", w.Code)
	}
}

func TestListingValidation(t *testing.T) {
	r, _ := newTestRouter(t)
	restToken, restID := register(t, r, "Trattoria", "owner@trattoria.example", models.RoleRestaurant)

	// quantity = 0 rejected by binding, nothing persisted.
	w := doJSON(t, r, http.MethodPost, "/api/listings", restToken, gin.H{
		"food_name": "Bread", "description": "d", "quantity": 0,
		"pickup_location": "p", "expiry_date": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("zero quantity: status %d, want 400", w.Code)
	}

	// Missing food_name rejected.
	w = doJSON(t, r, http.MethodPost, "/api/listings", restToken, gin.H{
		"description": "d", "quantity": 2,
		"pickup_location": "p", "expiry_date": time.Now().Add(time.Hour).Format(time.RFC3339),
	})
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing food_name: status %d, want 400", w.Code)
	}

	w = doJSON(t, r, http.MethodGet, "/api/listings/my-listings", restToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("my-listings: status %d", w.Code)
	}
	if count := decode(t, w)["count"].(float64); count != 0 {
		t.Errorf("expected no listings persisted for %s, got %v", restID, count)
	}
}

func TestUpdateAndDeleteOwnership(t *testing.T) {
	r, _ := newTestRouter(t)
	ownerToken, _ := register(t, r, "Trattoria", "owner@trattoria.example", models.RoleRestaurant)
	otherToken, _ := register(t, r, "Bistro", "other@bistro.example", models.RoleRestaurant)
	id := createListing(t, r, ownerToken)

	// Another restaurant passes the role check but fails ownership.
	if w := doJSON(t, r, http.MethodPut, "/api/listings/"+id, otherToken, gin.H{"quantity": 2}); w.Code != http.StatusForbidden {
		t.Errorf("non-owner update: status %d, want 403", w.Code)
	}
	if w := doJSON(t, r, http.MethodDelete, "/api/listings/"+id, otherToken, nil); w.Code != http.StatusForbidden {
		t.Errorf("non-owner delete: status %d, want 403", w.Code)
	}

	// Owner update works; restricted fields are ignored by the patch shape.
	w := doJSON(t, r, http.MethodPut, "/api/listings/"+id, ownerToken, gin.H{"quantity": 2, "food_name": "Minestrone"})
	if w.Code != http.StatusOK {
		t.Fatalf("owner update: status %d body %s", w.Code, w.Body.String())
	}
	listing := decode(t, w)["listing"].(map[string]interface{})
	if listing["quantity"].(float64) != 2 || listing["food_name"].(string) != "Minestrone" {
		t.Errorf("update not applied: %v", listing)
	}

	// Unknown listing → 404.
	if w := doJSON(t, r, http.MethodPut, "/api/listings/does-not-exist", ownerToken, gin.H{"quantity": 2}); w.Code != http.StatusNotFound {
		t.Errorf("update missing: status %d, want 404", w.Code)
	}

	// Owner delete → 204, then 404.
	if w := doJSON(t, r, http.MethodDelete, "/api/listings/"+id, ownerToken, nil); w.Code != http.StatusNoContent {
		t.Errorf("owner delete: status %d, want 204", w.Code)
	}
	if w := doJSON(t, r, http.MethodDelete, "/api/listings/"+id, ownerToken, nil); w.Code != http.StatusNotFound {
		t.Errorf("second delete: status %d, want 404", w.Code)
	}
}

func TestClaimFlow(t *testing.T) {
	r, _ := newTestRouter(t)
	restToken, _ := register(t, r, "Trattoria", "owner@trattoria.example", models.RoleRestaurant)
	orgToken, orgID := register(t, r, "Food Bank", "bank@example.org", models.RoleOrganization)
	org2Token, _ := register(t, r, "Shelter", "shelter@example.org", models.RoleOrganization)
	id := createListing(t, r, restToken)

	// Organization sees it in the available feed.
	w := doJSON(t, r, http.MethodGet, "/api/listings", orgToken, nil)
	if w.Code != http.StatusOK || decode(t, w)["count"].(float64) != 1 {
		t.Fatalf("available feed before claim: status %d body %s", w.Code, w.Body.String())
	}

	// First claim wins.
	w = doJSON(t, r, http.MethodPut, "/api/listings/"+id+"/claim", orgToken, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("claim: status %d body %s", w.Code, w.Body.String())
	}
	listing := decode(t, w)["listing"].(map[string]interface{})
	if listing["status"].(string) != "claimed" || listing["organization_id"].(string) != orgID {
		t.Errorf("claim result wrong: %v", listing)
	}

	// Second claim gets 409 with the current status.
	w = doJSON(t, r, http.MethodPut, "/api/listings/"+id+"/claim", org2Token, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("losing claim: status %d, want 409", w.Code)
	}
	if decode(t, w)["current_status"].(string) != "claimed" {
		t.Errorf("losing claim body missing current_status: %s", w.Body.String())
	}

	// Claimed listing disappears from the feed.
	w = doJSON(t, r, http.MethodGet, "/api/listings", orgToken, nil)
	if decode(t, w)["count"].(float64) != 0 {
		t.Errorf("claimed listing still in available feed: %s", w.Body.String())
	}

	// Claiming an unknown listing is 404.
	if w := doJSON(t, r, http.MethodPut, "/api/listings/ghost/claim", orgToken, nil); w.Code != http.StatusNotFound {
		t.Errorf("claim missing: status %d, want 404", w.Code)
	}

	// The owner may delete even after the claim.
	if w := doJSON(t, r, http.MethodDelete, "/api/listings/"+id, restToken, nil); w.Code != http.StatusNoContent {
		t.Errorf("delete after claim: status %d, want 204", w.Code)
	}
}

func TestClaimRaceSingleWinner(t *testing.T) {
	r, _ := newTestRouter(t)
	restToken, _ := register(t, r, "Trattoria", "owner@trattoria.example", models.RoleRestaurant)
	id := createListing(t, r, restToken)

	const racers = 10
	tokens := make([]string, racers)
	for i := range tokens {
		tokens[i], _ = register(t, r, fmt.Sprintf("Org %d", i),
			fmt.Sprintf("org%d@example.org", i), models.RoleOrganization)
	}

	var wg sync.WaitGroup
	codes := make([]int, racers)
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			w := doJSON(t, r, http.MethodPut, "/api/listings/"+id+"/claim", tokens[n], nil)
			codes[n] = w.Code
		}(i)
	}
	wg.Wait()

	wins, conflicts := 0, 0
	for _, code := range codes {
		switch code {
		case http.StatusOK:
			wins++
		case http.StatusConflict:
			conflicts++
		default:
			t.Errorf("unexpected status %d in claim race", code)
		}
	}
	if wins != 1 || conflicts != racers-1 {
		t.Errorf("claim race: %d wins, %d conflicts; want 1 and %d", wins, conflicts, racers-1)
	}
}

func TestRelistClearsClaimant(t *testing.T) {
	r, _ := newTestRouter(t)
	restToken, _ := register(t, r, "Trattoria", "owner@trattoria.example", models.RoleRestaurant)
	orgToken, _ := register(t, r, "Food Bank", "bank@example.org", models.RoleOrganization)
	id := createListing(t, r, restToken)

	if w := doJSON(t, r, http.MethodPut, "/api/listings/"+id+"/claim", orgToken, nil); w.Code != http.StatusOK {
		t.Fatalf("claim: status %d", w.Code)
	}

	w := doJSON(t, r, http.MethodPut, "/api/listings/"+id, restToken, gin.H{"status": "available"})
	if w.Code != http.StatusOK {
		t.Fatalf("relist: status %d body %s", w.Code, w.Body.String())
	}
	listing := decode(t, w)["listing"].(map[string]interface{})
	if listing["status"].(string) != "available" {
		t.Errorf("relist status = %v", listing["status"])
	}
	if _, present := listing["organization_id"]; present {
		t.Errorf("organization_id not cleared on relist: %v", listing)
	}

	// And it is claimable again.
	if w := doJSON(t, r, http.MethodPut, "/api/listings/"+id+"/claim", orgToken, nil); w.Code != http.StatusOK {
		t.Errorf("reclaim after relist: status %d", w.Code)
	}
}

func TestProfile(t *testing.T) {
	r, _ := newTestRouter(t)
	token, id := register(t, r, "Trattoria", "owner@trattoria.example", models.RoleRestaurant)

	w := doJSON(t, r, http.MethodGet, "/api/users/me", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("get me: status %d", w.Code)
	}
	user := decode(t, w)["user"].(map[string]interface{})
	if user["id"].(string) != id {
		t.Errorf("profile id mismatch: %v", user)
	}
	if _, leaked := user["passwordHash"]; leaked {
		t.Error("password hash leaked in profile response")
	}

	// Name and phone are mutable.
	w = doJSON(t, r, http.MethodPut, "/api/users/me", token, gin.H{"name": "Trattoria Rossi", "phone": "555-0100"})
	if w.Code != http.StatusOK {
		t.Fatalf("update me: status %d body %s", w.Code, w.Body.String())
	}
	user = decode(t, w)["user"].(map[string]interface{})
	if user["name"].(string) != "Trattoria Rossi" || user["phone"].(string) != "555-0100" {
		t.Errorf("profile update not applied: %v", user)
	}

	// Email and role are immutable.
	w = doJSON(t, r, http.MethodPut, "/api/users/me", token, gin.H{"email": "new@example.com"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("email update: status %d, want 400", w.Code)
	}
	w = doJSON(t, r, http.MethodPut, "/api/users/me", token, gin.H{"role": "organization"})
	if w.Code != http.StatusBadRequest {
		t.Errorf("role update: status %d, want 400", w.Code)
	}
}

func TestStateMachineInfoEndpoint(t *testing.T) {
	r, _ := newTestRouter(t)
	w := doJSON(t, r, http.MethodGet, "/api/state-machine", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("state-machine: status %d", w.Code)
	}
	body := decode(t, w)
	if _, ok := body["state_machine"].([]interface{}); !ok {
		t.Errorf("missing state_machine transitions: %s", w.Body.String())
	}
}
