package databases

// go generate: mockery --name HumidorDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/humidor-social/aficionado-api/models"
)

const humidorCollectionName = "humidors"

// HumidorDatabase contains the methods to use with the humidors database
type HumidorDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Humidor, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Humidor, error)
	InsertOne(ctx context.Context, humidor models.Humidor) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
}

type humidorDatabase struct {
	db DatabaseHelper
}

// NewHumidorDatabase initializes a new instance of humidor database with the provided db connection
func NewHumidorDatabase(db DatabaseHelper) HumidorDatabase {
	return &humidorDatabase{
		db: db,
	}
}

func (h *humidorDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Humidor, error) {
	humidor := &models.Humidor{}
	err := h.db.Collection(humidorCollectionName).FindOne(ctx, filter).Decode(humidor)
	if err != nil {
		return nil, err
	}
	return humidor, nil
}

func (h *humidorDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Humidor, error) {
	var humidors []models.Humidor
	cur, err := h.db.Collection(humidorCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &humidors)
	if err != nil {
		return nil, err
	}
	return humidors, nil
}

func (h *humidorDatabase) InsertOne(ctx context.Context, humidor models.Humidor) (InsertOneResultHelper, error) {
	return h.db.Collection(humidorCollectionName).InsertOne(ctx, humidor)
}

func (h *humidorDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return h.db.Collection(humidorCollectionName).UpdateOne(ctx, filter, update, opts...)
}

func (h *humidorDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return h.db.Collection(humidorCollectionName).DeleteOne(ctx, filter, opts...)
}
