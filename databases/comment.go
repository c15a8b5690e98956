package databases

// go generate: mockery --name CommentDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/humidor-social/aficionado-api/models"
)

const commentCollectionName = "post_comments"

// CommentDatabase contains the methods to use with the post comments database
type CommentDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.PostComment, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.PostComment, error)
	InsertOne(ctx context.Context, comment models.PostComment) (InsertOneResultHelper, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type commentDatabase struct {
	db DatabaseHelper
}

// NewCommentDatabase initializes a new instance of comment database with the provided db connection
func NewCommentDatabase(db DatabaseHelper) CommentDatabase {
	return &commentDatabase{
		db: db,
	}
}

func (c *commentDatabase) FindOne(ctx context.Context, filter interface{}) (*models.PostComment, error) {
	comment := &models.PostComment{}
	err := c.db.Collection(commentCollectionName).FindOne(ctx, filter).Decode(comment)
	if err != nil {
		return nil, err
	}
	return comment, nil
}

func (c *commentDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.PostComment, error) {
	var comments []models.PostComment
	cur, err := c.db.Collection(commentCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &comments)
	if err != nil {
		return nil, err
	}
	return comments, nil
}

func (c *commentDatabase) InsertOne(ctx context.Context, comment models.PostComment) (InsertOneResultHelper, error) {
	return c.db.Collection(commentCollectionName).InsertOne(ctx, comment)
}

func (c *commentDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return c.db.Collection(commentCollectionName).DeleteOne(ctx, filter, opts...)
}

func (c *commentDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return c.db.Collection(commentCollectionName).DeleteMany(ctx, filter, opts...)
}

func (c *commentDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(commentCollectionName).CountDocuments(ctx, filter, opts...)
}
