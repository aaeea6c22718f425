package store

import (
	"context"
	"errors"
	"strings"
	"time"

	"foodforward-api/models"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// NewSQLite opens (or creates) the SQLite database at path, migrates the
// schema and returns a Store backed by it.
func NewSQLite(path string) (*Store, error) {
	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Warn),
		TranslateError: true,
	})
	if err != nil {
		return nil, err
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY under concurrent claims.
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&models.User{}, &models.Listing{}); err != nil {
		return nil, err
	}
	return &Store{
		Listings: &SQLListingRepo{db: db},
		Users:    &SQLUserRepo{db: db},
	}, nil
}

// SQLListingRepo persists listings through GORM. The claim transition is a
// conditional UPDATE: the WHERE status = 'available' clause makes the
// check-and-set a single atomic statement, and RowsAffected arbitrates the
// winner.
type SQLListingRepo struct {
	db *gorm.DB
}

func (r *SQLListingRepo) Insert(ctx context.Context, l *models.Listing) error {
	return r.db.WithContext(ctx).Create(l).Error
}

func (r *SQLListingRepo) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	var l models.Listing
	if err := r.db.WithContext(ctx).First(&l, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *SQLListingRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error) {
	listings := []models.Listing{}
	err := r.db.WithContext(ctx).
		Where("restaurant_id = ?", ownerID).
		Order("created_at desc").
		Find(&listings).Error
	return listings, err
}

func (r *SQLListingRepo) ListAvailable(ctx context.Context) ([]models.Listing, error) {
	listings := []models.Listing{}
	err := r.db.WithContext(ctx).
		Where("status = ?", models.StatusAvailable).
		Order("created_at desc").
		Find(&listings).Error
	return listings, err
}

func (r *SQLListingRepo) Update(ctx context.Context, l *models.Listing, observed models.ListingStatus) error {
	res := r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("id = ? AND status = ?", l.ID, observed).
		Select("*").Omit("id", "created_at").
		Updates(l)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		// Status moved underneath us or no such listing; re-read to tell which.
		current, err := r.GetByID(ctx, l.ID)
		if err != nil {
			return err
		}
		return &models.ConflictError{CurrentStatus: current.Status}
	}
	return nil
}

func (r *SQLListingRepo) Delete(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Delete(&models.Listing{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *SQLListingRepo) Claim(ctx context.Context, id, organizationID string, now time.Time) (*models.Listing, error) {
	res := r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("id = ? AND status = ?", id, models.StatusAvailable).
		Updates(map[string]interface{}{
			"status":          models.StatusClaimed,
			"organization_id": organizationID,
			"claimed_at":      now,
			"updated_at":      now,
		})
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		// Lost the race or no such listing; re-read to tell which.
		current, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		return nil, &models.ConflictError{CurrentStatus: current.Status}
	}
	return r.GetByID(ctx, id)
}

func (r *SQLListingRepo) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.Listing{}).
		Where("status = ? AND expiry_date < ?", models.StatusAvailable, cutoff).
		Updates(map[string]interface{}{
			"status":     models.StatusExpired,
			"updated_at": cutoff,
		})
	return res.RowsAffected, res.Error
}

// SQLUserRepo persists users through GORM.
type SQLUserRepo struct {
	db *gorm.DB
}

func (r *SQLUserRepo) Insert(ctx context.Context, u *models.User) error {
	var existing models.User
	err := r.db.WithContext(ctx).First(&existing, "email = ?", u.Email).Error
	if err == nil {
		return models.ErrDuplicateEmail
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}
	// The pre-check races with concurrent inserts of the same email; the
	// unique index is the arbiter, so its violation maps to the same error.
	if err := r.db.WithContext(ctx).Create(u).Error; err != nil {
		if isDuplicateKey(err) {
			return models.ErrDuplicateEmail
		}
		return err
	}
	return nil
}

func isDuplicateKey(err error) bool {
	return errors.Is(err, gorm.ErrDuplicatedKey) ||
		strings.Contains(err.Error(), "UNIQUE constraint failed")
}

func (r *SQLUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *SQLUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	var u models.User
	if err := r.db.WithContext(ctx).First(&u, "email = ?", email).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *SQLUserRepo) Update(ctx context.Context, u *models.User) error {
	res := r.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", u.ID).
		Select("*").Omit("id", "created_at").
		Updates(u)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return models.ErrNotFound
	}
	return nil
}
