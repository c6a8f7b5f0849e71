package databases

// go generate: mockery --name SuspectDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parsaivi/police-department-api/models"
)

const (
	suspectName       = "suspects"
	caseSuspectName   = "caseSuspects"
	interrogationName = "interrogations"
)

// SuspectDatabase contains the methods to use with the suspect database
type SuspectDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Suspect, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Suspect, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)

	GetSuspect(ctx context.Context, id primitive.ObjectID) (*models.Suspect, error)
	PutSuspect(ctx context.Context, s *models.Suspect) error
	ListSuspectsByStatus(ctx context.Context, statuses ...models.SuspectStatus) ([]models.Suspect, error)
	LinksByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.CaseSuspect, error)
	LinksBySuspect(ctx context.Context, suspectID primitive.ObjectID) ([]models.CaseSuspect, error)
	AddLink(ctx context.Context, link models.CaseSuspect) error
	AddInterrogation(ctx context.Context, in models.Interrogation) error
	ListInterrogationsByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.Interrogation, error)
}

type suspectDatabase struct {
	db DatabaseHelper
}

// NewSuspectDatabase initializes a new instance of suspect database with the provided db connection
func NewSuspectDatabase(db DatabaseHelper) SuspectDatabase {
	return &suspectDatabase{
		db: db,
	}
}

func (c *suspectDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Suspect, error) {
	suspect := &models.Suspect{}
	err := c.db.Collection(suspectName).FindOne(ctx, filter).Decode(&suspect)
	if err != nil {
		return nil, err
	}
	return suspect, nil
}

func (c *suspectDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Suspect, error) {
	var suspects []models.Suspect
	curr, err := c.db.Collection(suspectName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &suspects)
	if err != nil {
		return nil, err
	}
	return suspects, nil
}

func (c *suspectDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(suspectName).InsertOne(ctx, document, opts...)
	return res, err
}

func (c *suspectDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(suspectName).CountDocuments(ctx, filter, opts...)
}

func (c *suspectDatabase) GetSuspect(ctx context.Context, id primitive.ObjectID) (*models.Suspect, error) {
	suspect := &models.Suspect{}
	err := c.db.Collection(suspectName).FindOne(ctx, bson.M{"_id": id}).Decode(&suspect)
	if err != nil {
		return nil, notFound(err, "suspect", id.Hex())
	}
	return suspect, nil
}

func (c *suspectDatabase) PutSuspect(ctx context.Context, doc *models.Suspect) error {
	return c.db.Collection(suspectName).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, upsert())
}

// ListSuspectsByStatus returns matching suspects in creation order so that
// rank ties stay deterministic.
func (c *suspectDatabase) ListSuspectsByStatus(ctx context.Context, statuses ...models.SuspectStatus) ([]models.Suspect, error) {
	var suspects []models.Suspect
	curr, err := c.db.Collection(suspectName).Find(ctx,
		bson.M{"suspect.status": bson.M{"$in": statuses}},
		options.Find().SetSort(bson.M{"suspect.createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &suspects)
	if err != nil {
		return nil, err
	}
	return suspects, nil
}

func (c *suspectDatabase) LinksByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.CaseSuspect, error) {
	var links []models.CaseSuspect
	curr, err := c.db.Collection(caseSuspectName).Find(ctx, bson.M{"caseID": caseID},
		options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &links)
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (c *suspectDatabase) LinksBySuspect(ctx context.Context, suspectID primitive.ObjectID) ([]models.CaseSuspect, error) {
	var links []models.CaseSuspect
	curr, err := c.db.Collection(caseSuspectName).Find(ctx, bson.M{"suspectID": suspectID},
		options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &links)
	if err != nil {
		return nil, err
	}
	return links, nil
}

func (c *suspectDatabase) AddLink(ctx context.Context, link models.CaseSuspect) error {
	_, err := c.db.Collection(caseSuspectName).InsertOne(ctx, link)
	return err
}

func (c *suspectDatabase) AddInterrogation(ctx context.Context, in models.Interrogation) error {
	_, err := c.db.Collection(interrogationName).InsertOne(ctx, in)
	return err
}

func (c *suspectDatabase) ListInterrogationsByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.Interrogation, error) {
	var sessions []models.Interrogation
	curr, err := c.db.Collection(interrogationName).Find(ctx, bson.M{"interrogation.caseID": caseID},
		options.Find().SetSort(bson.M{"interrogation.createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &sessions)
	if err != nil {
		return nil, err
	}
	return sessions, nil
}
