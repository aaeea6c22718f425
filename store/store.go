// Package store defines the persistence contract shared by all backends and
// the concrete adapters (in-memory, SQLite, MongoDB). Business rules live in
// the listings service; adapters only guarantee durable CRUD plus the two
// conditional-update primitives (Claim, ExpireBefore) that must be atomic.
package store

import (
	"context"
	"time"

	"foodforward-api/models"
)

// ListingRepo persists listings. Claim is the single-winner arbitration
// point: it must atomically check status == available and perform the write,
// so that of any number of concurrent claimers exactly one succeeds and the
// rest observe *models.ConflictError.
type ListingRepo interface {
	Insert(ctx context.Context, l *models.Listing) error
	GetByID(ctx context.Context, id string) (*models.Listing, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error)
	// ListAvailable returns available listings ordered newest-first.
	ListAvailable(ctx context.Context) ([]models.Listing, error)
	// Update persists an owner patch, guarded by the status the caller
	// observed when it loaded the listing: if the stored status no longer
	// matches, nothing is written and *models.ConflictError reports the
	// current status. Without the guard a read-modify-write could silently
	// overwrite a claim that committed between the load and the write.
	Update(ctx context.Context, l *models.Listing, observed models.ListingStatus) error
	Delete(ctx context.Context, id string) error
	// Claim transitions available → claimed for the given organization.
	// Returns models.ErrNotFound or *models.ConflictError on failure.
	Claim(ctx context.Context, id, organizationID string, now time.Time) (*models.Listing, error)
	// ExpireBefore marks available listings whose expiry date is before the
	// cutoff as expired, returning how many were transitioned.
	ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// UserRepo persists user accounts.
type UserRepo interface {
	Insert(ctx context.Context, u *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Update(ctx context.Context, u *models.User) error
}

// Store bundles the repos a backend provides.
type Store struct {
	Listings ListingRepo
	Users    UserRepo
}
