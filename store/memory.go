package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"foodforward-api/models"
)

// NewMemory returns a Store backed by mutex-guarded maps. Used for
// development and tests.
func NewMemory() *Store {
	return &Store{
		Listings: NewMemoryListingRepo(),
		Users:    NewMemoryUserRepo(),
	}
}

// MemoryListingRepo keeps listings in a map behind a single mutex. Holding
// the lock across the whole Claim body gives the per-record serialization
// the claim transition requires.
type MemoryListingRepo struct {
	mu       sync.RWMutex
	listings map[string]models.Listing
}

func NewMemoryListingRepo() *MemoryListingRepo {
	return &MemoryListingRepo{listings: make(map[string]models.Listing)}
}

func (r *MemoryListingRepo) Insert(ctx context.Context, l *models.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[l.ID] = *l
	return nil
}

func (r *MemoryListingRepo) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &l, nil
}

func (r *MemoryListingRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Listing{}
	for _, l := range r.listings {
		if l.RestaurantID == ownerID {
			out = append(out, l)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryListingRepo) ListAvailable(ctx context.Context) ([]models.Listing, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := []models.Listing{}
	for _, l := range r.listings {
		if l.Status == models.StatusAvailable {
			out = append(out, l)
		}
	}
	sortNewestFirst(out)
	return out, nil
}

func (r *MemoryListingRepo) Update(ctx context.Context, l *models.Listing, observed models.ListingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.listings[l.ID]
	if !ok {
		return models.ErrNotFound
	}
	if current.Status != observed {
		return &models.ConflictError{CurrentStatus: current.Status}
	}
	r.listings[l.ID] = *l
	return nil
}

func (r *MemoryListingRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[id]; !ok {
		return models.ErrNotFound
	}
	delete(r.listings, id)
	return nil
}

func (r *MemoryListingRepo) Claim(ctx context.Context, id, organizationID string, now time.Time) (*models.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	if l.Status != models.StatusAvailable {
		return nil, &models.ConflictError{CurrentStatus: l.Status}
	}
	l.Status = models.StatusClaimed
	l.OrganizationID = organizationID
	l.ClaimedAt = &now
	l.UpdatedAt = now
	r.listings[id] = l
	return &l, nil
}

func (r *MemoryListingRepo) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for id, l := range r.listings {
		if l.Status == models.StatusAvailable && l.ExpiryDate.Before(cutoff) {
			l.Status = models.StatusExpired
			l.UpdatedAt = cutoff
			r.listings[id] = l
			n++
		}
	}
	return n, nil
}

func sortNewestFirst(listings []models.Listing) {
	sort.Slice(listings, func(i, j int) bool {
		return listings[i].CreatedAt.After(listings[j].CreatedAt)
	})
}

// MemoryUserRepo keeps users in a map behind a mutex.
type MemoryUserRepo struct {
	mu    sync.RWMutex
	users map[string]models.User
}

func NewMemoryUserRepo() *MemoryUserRepo {
	return &MemoryUserRepo{users: make(map[string]models.User)}
}

func (r *MemoryUserRepo) Insert(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return models.ErrDuplicateEmail
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *MemoryUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.users[id]
	if !ok {
		return nil, models.ErrNotFound
	}
	return &u, nil
}

func (r *MemoryUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			return &u, nil
		}
	}
	return nil, models.ErrNotFound
}

func (r *MemoryUserRepo) Update(ctx context.Context, u *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[u.ID]; !ok {
		return models.ErrNotFound
	}
	r.users[u.ID] = *u
	return nil
}
