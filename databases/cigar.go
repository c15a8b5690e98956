package databases

// go generate: mockery --name CigarDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/humidor-social/aficionado-api/models"
)

const cigarCollectionName = "cigars"

// CigarDatabase contains the methods to use with the cigar catalog database
type CigarDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Cigar, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Cigar, error)
	InsertOne(ctx context.Context, cigar models.Cigar) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type cigarDatabase struct {
	db DatabaseHelper
}

// NewCigarDatabase initializes a new instance of cigar database with the provided db connection
func NewCigarDatabase(db DatabaseHelper) CigarDatabase {
	return &cigarDatabase{
		db: db,
	}
}

func (c *cigarDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Cigar, error) {
	cigar := &models.Cigar{}
	err := c.db.Collection(cigarCollectionName).FindOne(ctx, filter).Decode(cigar)
	if err != nil {
		return nil, err
	}
	return cigar, nil
}

func (c *cigarDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Cigar, error) {
	var cigars []models.Cigar
	cur, err := c.db.Collection(cigarCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &cigars)
	if err != nil {
		return nil, err
	}
	return cigars, nil
}

func (c *cigarDatabase) InsertOne(ctx context.Context, cigar models.Cigar) (InsertOneResultHelper, error) {
	return c.db.Collection(cigarCollectionName).InsertOne(ctx, cigar)
}

func (c *cigarDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.db.Collection(cigarCollectionName).UpdateOne(ctx, filter, update, opts...)
}

func (c *cigarDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return c.db.Collection(cigarCollectionName).DeleteOne(ctx, filter, opts...)
}

func (c *cigarDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(cigarCollectionName).CountDocuments(ctx, filter, opts...)
}
