package databases

// go generate: mockery --name EventDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/humidor-social/aficionado-api/models"
)

const eventCollectionName = "club_events"

// EventDatabase contains the methods to use with the club events database
type EventDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.ClubEvent, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ClubEvent, error)
	InsertOne(ctx context.Context, event models.ClubEvent) (InsertOneResultHelper, error)
	UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
}

type eventDatabase struct {
	db DatabaseHelper
}

// NewEventDatabase initializes a new instance of event database with the provided db connection
func NewEventDatabase(db DatabaseHelper) EventDatabase {
	return &eventDatabase{
		db: db,
	}
}

func (e *eventDatabase) FindOne(ctx context.Context, filter interface{}) (*models.ClubEvent, error) {
	event := &models.ClubEvent{}
	err := e.db.Collection(eventCollectionName).FindOne(ctx, filter).Decode(event)
	if err != nil {
		return nil, err
	}
	return event, nil
}

func (e *eventDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ClubEvent, error) {
	var events []models.ClubEvent
	cur, err := e.db.Collection(eventCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &events)
	if err != nil {
		return nil, err
	}
	return events, nil
}

func (e *eventDatabase) InsertOne(ctx context.Context, event models.ClubEvent) (InsertOneResultHelper, error) {
	return e.db.Collection(eventCollectionName).InsertOne(ctx, event)
}

func (e *eventDatabase) UpdateOne(ctx context.Context, filter interface{}, update interface{}, opts ...*options.UpdateOptions) (*mongo.UpdateResult, error) {
	return e.db.Collection(eventCollectionName).UpdateOne(ctx, filter, update, opts...)
}

func (e *eventDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return e.db.Collection(eventCollectionName).DeleteOne(ctx, filter, opts...)
}

func (e *eventDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return e.db.Collection(eventCollectionName).DeleteMany(ctx, filter, opts...)
}
