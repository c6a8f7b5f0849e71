package databases

// go generate: mockery --name BailDatabase

import (
	"context"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parsaivi/police-department-api/models"
)

const bailName = "bails"

// BailDatabase contains the methods to use with the bail database
type BailDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Bail, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Bail, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)

	GetBail(ctx context.Context, id primitive.ObjectID) (*models.Bail, error)
	GetBailByTrackID(ctx context.Context, trackID string) (*models.Bail, error)
	PutBail(ctx context.Context, b *models.Bail) error
	PendingBySuspect(ctx context.Context, suspectID primitive.ObjectID) (*models.Bail, error)
}

type bailDatabase struct {
	db DatabaseHelper
}

// NewBailDatabase initializes a new instance of bail database with the provided db connection
func NewBailDatabase(db DatabaseHelper) BailDatabase {
	return &bailDatabase{
		db: db,
	}
}

func (c *bailDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Bail, error) {
	bail := &models.Bail{}
	err := c.db.Collection(bailName).FindOne(ctx, filter).Decode(&bail)
	if err != nil {
		return nil, err
	}
	return bail, nil
}

func (c *bailDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Bail, error) {
	var bails []models.Bail
	curr, err := c.db.Collection(bailName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &bails)
	if err != nil {
		return nil, err
	}
	return bails, nil
}

func (c *bailDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(bailName).CountDocuments(ctx, filter, opts...)
}

func (c *bailDatabase) GetBail(ctx context.Context, id primitive.ObjectID) (*models.Bail, error) {
	bail := &models.Bail{}
	err := c.db.Collection(bailName).FindOne(ctx, bson.M{"_id": id}).Decode(&bail)
	if err != nil {
		return nil, notFound(err, "bail", id.Hex())
	}
	return bail, nil
}

func (c *bailDatabase) GetBailByTrackID(ctx context.Context, trackID string) (*models.Bail, error) {
	bail := &models.Bail{}
	err := c.db.Collection(bailName).FindOne(ctx, bson.M{"bail.paymentTrackID": trackID}).Decode(&bail)
	if err != nil {
		return nil, notFound(err, "bail with track", trackID)
	}
	return bail, nil
}

func (c *bailDatabase) PutBail(ctx context.Context, doc *models.Bail) error {
	return c.db.Collection(bailName).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, upsert())
}

// PendingBySuspect returns nil, nil when no pending bail exists for the
// suspect.
func (c *bailDatabase) PendingBySuspect(ctx context.Context, suspectID primitive.ObjectID) (*models.Bail, error) {
	bail := &models.Bail{}
	err := c.db.Collection(bailName).FindOne(ctx, bson.M{
		"bail.suspectID": suspectID,
		"bail.status":    models.BailPending,
	}).Decode(&bail)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return bail, nil
}
