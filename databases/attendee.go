package databases

// go generate: mockery --name AttendeeDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/humidor-social/aficionado-api/models"
)

const attendeeCollectionName = "event_attendees"

// AttendeeDatabase contains the methods to use with the event attendees database
type AttendeeDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.EventAttendee, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.EventAttendee, error)
	InsertOne(ctx context.Context, attendee models.EventAttendee) (InsertOneResultHelper, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type attendeeDatabase struct {
	db DatabaseHelper
}

// NewAttendeeDatabase initializes a new instance of attendee database with the provided db connection
func NewAttendeeDatabase(db DatabaseHelper) AttendeeDatabase {
	return &attendeeDatabase{
		db: db,
	}
}

func (a *attendeeDatabase) FindOne(ctx context.Context, filter interface{}) (*models.EventAttendee, error) {
	attendee := &models.EventAttendee{}
	err := a.db.Collection(attendeeCollectionName).FindOne(ctx, filter).Decode(attendee)
	if err != nil {
		return nil, err
	}
	return attendee, nil
}

func (a *attendeeDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.EventAttendee, error) {
	var attendees []models.EventAttendee
	cur, err := a.db.Collection(attendeeCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &attendees)
	if err != nil {
		return nil, err
	}
	return attendees, nil
}

func (a *attendeeDatabase) InsertOne(ctx context.Context, attendee models.EventAttendee) (InsertOneResultHelper, error) {
	return a.db.Collection(attendeeCollectionName).InsertOne(ctx, attendee)
}

func (a *attendeeDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return a.db.Collection(attendeeCollectionName).DeleteOne(ctx, filter, opts...)
}

func (a *attendeeDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return a.db.Collection(attendeeCollectionName).DeleteMany(ctx, filter, opts...)
}

func (a *attendeeDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return a.db.Collection(attendeeCollectionName).CountDocuments(ctx, filter, opts...)
}
