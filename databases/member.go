package databases

// go generate: mockery --name MemberDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/humidor-social/aficionado-api/models"
)

const memberCollectionName = "club_members"

// MemberDatabase contains the methods to use with the club members database
type MemberDatabase interface {
	FindOne(ctx context.Context, filter interface{}) (*models.ClubMember, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ClubMember, error)
	InsertOne(ctx context.Context, member models.ClubMember) (InsertOneResultHelper, error)
	DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error)
	CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error)
}

type memberDatabase struct {
	db DatabaseHelper
}

// NewMemberDatabase initializes a new instance of member database with the provided db connection
func NewMemberDatabase(db DatabaseHelper) MemberDatabase {
	return &memberDatabase{
		db: db,
	}
}

func (m *memberDatabase) FindOne(ctx context.Context, filter interface{}) (*models.ClubMember, error) {
	member := &models.ClubMember{}
	err := m.db.Collection(memberCollectionName).FindOne(ctx, filter).Decode(member)
	if err != nil {
		return nil, err
	}
	return member, nil
}

func (m *memberDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.ClubMember, error) {
	var members []models.ClubMember
	cur, err := m.db.Collection(memberCollectionName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	err = cur.All(ctx, &members)
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (m *memberDatabase) InsertOne(ctx context.Context, member models.ClubMember) (InsertOneResultHelper, error) {
	return m.db.Collection(memberCollectionName).InsertOne(ctx, member)
}

func (m *memberDatabase) DeleteOne(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return m.db.Collection(memberCollectionName).DeleteOne(ctx, filter, opts...)
}

func (m *memberDatabase) DeleteMany(ctx context.Context, filter interface{}, opts ...*options.DeleteOptions) (int64, error) {
	return m.db.Collection(memberCollectionName).DeleteMany(ctx, filter, opts...)
}

func (m *memberDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return m.db.Collection(memberCollectionName).CountDocuments(ctx, filter, opts...)
}
