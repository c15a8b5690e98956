package databases

// go generate: mockery --name PostDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/humidor-social/aficionado-api/models"
)

const postCollectionName = "club_posts"

// PostDatabase contains the methods to use with the club posts database
type PostDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.ClubPost, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ClubPost, error)
	InsertOne(ctx context.Context, post models.ClubPost) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
}

type postDatabase struct {
	db DatabaseHelper
}

// NewPostDatabase initializes a new instance of post database with the provided db connection
func NewPostDatabase(db DatabaseHelper) PostDatabase {
	return &postDatabase{
		db: db,
	}
}

func (p *postDatabase) FindOne(ctx context.Context, filter interface{}) (*models.ClubPost, error) {
	post := &models.ClubPost{}
	err := p.db.Collection(postCollectionName).FindOne(ctx, filter).Decode(post)
	if err != nil {
		return nil, err
	}
	return post, nil
}

func (p *postDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ClubPost, error) {
	var posts []models.ClubPost
	cur, err := p.db.Collection(postCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &posts)
	if err != nil {
		return nil, err
	}
	return posts, nil
}

func (p *postDatabase) InsertOne(ctx context.Context, post models.ClubPost) (InsertOneResultHelper, error) {
	return p.db.Collection(postCollectionName).InsertOne(ctx, post)
}

func (p *postDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return p.db.Collection(postCollectionName).UpdateOne(ctx, filter, update, opts...)
}

func (p *postDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return p.db.Collection(postCollectionName).DeleteOne(ctx, filter, opts...)
}

func (p *postDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return p.db.Collection(postCollectionName).DeleteMany(ctx, filter, opts...)
}
