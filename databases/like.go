package databases

// go generate: mockery --name LikeDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/humidor-social/aficionado-api/models"
)

const likeCollectionName = "post_likes"

// LikeDatabase contains the methods to use with the post likes database
type LikeDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.PostLike, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.PostLike, error)
	InsertOne(ctx context.Context, like models.PostLike) (InsertOneResultHelper, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type likeDatabase struct {
	db DatabaseHelper
}

// NewLikeDatabase initializes a new instance of like database with the provided db connection
func NewLikeDatabase(db DatabaseHelper) LikeDatabase {
	return &likeDatabase{
		db: db,
	}
}

func (l *likeDatabase) FindOne(ctx context.Context, filter interface{}) (*models.PostLike, error) {
	like := &models.PostLike{}
	err := l.db.Collection(likeCollectionName).FindOne(ctx, filter).Decode(like)
	if err != nil {
		return nil, err
	}
	return like, nil
}

func (l *likeDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.PostLike, error) {
	var likes []models.PostLike
	cur, err := l.db.Collection(likeCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &likes)
	if err != nil {
		return nil, err
	}
	return likes, nil
}

func (l *likeDatabase) InsertOne(ctx context.Context, like models.PostLike) (InsertOneResultHelper, error) {
	return l.db.Collection(likeCollectionName).InsertOne(ctx, like)
}

func (l *likeDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return l.db.Collection(likeCollectionName).DeleteOne(ctx, filter, opts...)
}

func (l *likeDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return l.db.Collection(likeCollectionName).DeleteMany(ctx, filter, opts...)
}

func (l *likeDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return l.db.Collection(likeCollectionName).CountDocuments(ctx, filter, opts...)
}
