package store

import (
	"context"
	"errors"
	"time"

	"foodforward-api/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const mongoConnectTimeout = 10 * time.Second

// NewMongo connects to MongoDB and returns a Store backed by the given
// database, along with the client so the caller can disconnect on shutdown.
func NewMongo(ctx context.Context, uri, database string) (*Store, *mongo.Client, error) {
	ctx, cancel := context.WithTimeout(ctx, mongoConnectTimeout)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, nil, err
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, nil, err
	}

	db := client.Database(database)
	users := db.Collection("users")
	listings := db.Collection("listings")

	// Unique email index backs duplicate-registration detection.
	_, err = users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, nil, err
	}

	return &Store{
		Listings: &MongoListingRepo{collection: listings},
		Users:    &MongoUserRepo{collection: users},
	}, client, nil
}

// MongoListingRepo persists listings in a MongoDB collection. The claim
// transition uses FindOneAndUpdate with a status filter: the document store
// applies the filter and the update atomically, so concurrent claimers are
// arbitrated server-side.
type MongoListingRepo struct {
	collection *mongo.Collection
}

func (r *MongoListingRepo) Insert(ctx context.Context, l *models.Listing) error {
	_, err := r.collection.InsertOne(ctx, l)
	return err
}

func (r *MongoListingRepo) GetByID(ctx context.Context, id string) (*models.Listing, error) {
	var l models.Listing
	err := r.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&l)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &l, nil
}

func (r *MongoListingRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Listing, error) {
	return r.find(ctx, bson.M{"restaurantId": ownerID})
}

func (r *MongoListingRepo) ListAvailable(ctx context.Context) ([]models.Listing, error) {
	return r.find(ctx, bson.M{"status": models.StatusAvailable})
}

func (r *MongoListingRepo) find(ctx context.Context, filter bson.M) ([]models.Listing, error) {
	cur, err := r.collection.Find(ctx, filter,
		options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}}))
	if err != nil {
		return nil, err
	}
	listings := []models.Listing{}
	if err := cur.All(ctx, &listings); err != nil {
		return nil, err
	}
	return listings, nil
}

func (r *MongoListingRepo) Update(ctx context.Context, l *models.Listing, observed models.ListingStatus) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": l.ID, "status": observed}, l)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Status moved underneath us or no such listing; re-read to tell which.
		current, err := r.GetByID(ctx, l.ID)
		if err != nil {
			return err
		}
		return &models.ConflictError{CurrentStatus: current.Status}
	}
	return nil
}

func (r *MongoListingRepo) Delete(ctx context.Context, id string) error {
	res, err := r.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}

func (r *MongoListingRepo) Claim(ctx context.Context, id, organizationID string, now time.Time) (*models.Listing, error) {
	filter := bson.M{"_id": id, "status": models.StatusAvailable}
	update := bson.M{"$set": bson.M{
		"status":         models.StatusClaimed,
		"organizationId": organizationID,
		"claimedAt":      now,
		"updatedAt":      now,
	}}
	var claimed models.Listing
	err := r.collection.FindOneAndUpdate(ctx, filter, update,
		options.FindOneAndUpdate().SetReturnDocument(options.After)).Decode(&claimed)
	if err == nil {
		return &claimed, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}
	// Lost the race or no such listing; re-read to tell which.
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return nil, &models.ConflictError{CurrentStatus: current.Status}
}

func (r *MongoListingRepo) ExpireBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := r.collection.UpdateMany(ctx,
		bson.M{"status": models.StatusAvailable, "expiryDate": bson.M{"$lt": cutoff}},
		bson.M{"$set": bson.M{"status": models.StatusExpired, "updatedAt": cutoff}})
	if err != nil {
		return 0, err
	}
	return res.ModifiedCount, nil
}

// MongoUserRepo persists users in a MongoDB collection.
type MongoUserRepo struct {
	collection *mongo.Collection
}

func (r *MongoUserRepo) Insert(ctx context.Context, u *models.User) error {
	_, err := r.collection.InsertOne(ctx, u)
	if mongo.IsDuplicateKeyError(err) {
		return models.ErrDuplicateEmail
	}
	return err
}

func (r *MongoUserRepo) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"_id": id})
}

func (r *MongoUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *MongoUserRepo) findOne(ctx context.Context, filter bson.M) (*models.User, error) {
	var u models.User
	err := r.collection.FindOne(ctx, filter).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, models.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func (r *MongoUserRepo) Update(ctx context.Context, u *models.User) error {
	res, err := r.collection.ReplaceOne(ctx, bson.M{"_id": u.ID}, u)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return models.ErrNotFound
	}
	return nil
}
