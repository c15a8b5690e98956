package databases

// go generate: mockery --name HumidorCigarDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/humidor-social/aficionado-api/models"
)

const humidorCigarCollectionName = "humidor_cigars"

// HumidorCigarDatabase contains the methods to use with the humidor cigars database
type HumidorCigarDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.HumidorCigar, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.HumidorCigar, error)
	InsertOne(ctx context.Context, entry models.HumidorCigar) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	TotalQuantityForUser(ctx context.Context, userID string) (int, error)
}

type humidorCigarDatabase struct {
	db DatabaseHelper
}

// NewHumidorCigarDatabase initializes a new instance of humidor cigar database with the provided db connection
func NewHumidorCigarDatabase(db DatabaseHelper) HumidorCigarDatabase {
	return &humidorCigarDatabase{
		db: db,
	}
}

func (hc *humidorCigarDatabase) FindOne(ctx context.Context, filter interface{}) (*models.HumidorCigar, error) {
	entry := &models.HumidorCigar{}
	err := hc.db.Collection(humidorCigarCollectionName).FindOne(ctx, filter).Decode(entry)
	if err != nil {
		return nil, err
	}
	return entry, nil
}

func (hc *humidorCigarDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.HumidorCigar, error) {
	var entries []models.HumidorCigar
	cur, err := hc.db.Collection(humidorCigarCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &entries)
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func (hc *humidorCigarDatabase) InsertOne(ctx context.Context, entry models.HumidorCigar) (InsertOneResultHelper, error) {
	return hc.db.Collection(humidorCigarCollectionName).InsertOne(ctx, entry)
}

func (hc *humidorCigarDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return hc.db.Collection(humidorCigarCollectionName).UpdateOne(ctx, filter, update, opts...)
}

func (hc *humidorCigarDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return hc.db.Collection(humidorCigarCollectionName).DeleteOne(ctx, filter, opts...)
}

func (hc *humidorCigarDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return hc.db.Collection(humidorCigarCollectionName).DeleteMany(ctx, filter, opts...)
}

// TotalQuantityForUser sums the quantity field across every humidor
// cigar entry owned by the user. Backs the free-plan capacity check.
func (hc *humidorCigarDatabase) TotalQuantityForUser(ctx context.Context, userID string) (int, error) {
	pipeline := []bson.M{
		{"$match": bson.M{"userId": userID}},
		{"$group": bson.M{"_id": nil, "total": bson.M{"$sum": "$quantity"}}},
	}

	cur, err := hc.db.Collection(humidorCigarCollectionName).Aggregate(ctx, pipeline)
	if err != nil {
		return 0, err
	}

	var results []models.QuantityTotal
	if err := cur.All(ctx, &results); err != nil {
		return 0, err
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0].Total, nil
}
