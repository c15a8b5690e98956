package databases

// go generate: mockery --name ClubDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/humidor-social/aficionado-api/models"
)

const clubCollectionName = "clubs"

// ClubDatabase contains the methods to use with the club database
type ClubDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.Club, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Club, error)
	InsertOne(ctx context.Context, club models.Club) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type clubDatabase struct {
	db DatabaseHelper
}

// NewClubDatabase initializes a new instance of club database with the provided db connection
func NewClubDatabase(db DatabaseHelper) ClubDatabase {
	return &clubDatabase{
		db: db,
	}
}

func (c *clubDatabase) FindOne(ctx context.Context, filter interface{}) (*models.Club, error) {
	club := &models.Club{}
	err := c.db.Collection(clubCollectionName).FindOne(ctx, filter).Decode(club)
	if err != nil {
		return nil, err
	}
	return club, nil
}

func (c *clubDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Club, error) {
	var clubs []models.Club
	cur, err := c.db.Collection(clubCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &clubs)
	if err != nil {
		return nil, err
	}
	return clubs, nil
}

func (c *clubDatabase) InsertOne(ctx context.Context, club models.Club) (InsertOneResultHelper, error) {
	return c.db.Collection(clubCollectionName).InsertOne(ctx, club)
}

func (c *clubDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return c.db.Collection(clubCollectionName).UpdateOne(ctx, filter, update, opts...)
}

func (c *clubDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return c.db.Collection(clubCollectionName).DeleteOne(ctx, filter, opts...)
}

func (c *clubDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(clubCollectionName).CountDocuments(ctx, filter, opts...)
}
