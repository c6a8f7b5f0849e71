package databases

// go generate: mockery --name TrialDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parsaivi/police-department-api/models"
)

const (
	trialName    = "trials"
	sentenceName = "sentences"
)

// TrialDatabase contains the methods to use with the trial database
type TrialDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Trial, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Trial, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)

	GetTrial(ctx context.Context, id primitive.ObjectID) (*models.Trial, error)
	GetTrialByCase(ctx context.Context, caseID primitive.ObjectID) (*models.Trial, error)
	PutTrial(ctx context.Context, t *models.Trial) error
	AddSentence(ctx context.Context, s models.Sentence) error
	ListSentencesByTrial(ctx context.Context, trialID primitive.ObjectID) ([]models.Sentence, error)
}

type trialDatabase struct {
	db DatabaseHelper
}

// NewTrialDatabase initializes a new instance of trial database with the provided db connection
func NewTrialDatabase(db DatabaseHelper) TrialDatabase {
	return &trialDatabase{
		db: db,
	}
}

func (c *trialDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Trial, error) {
	trial := &models.Trial{}
	err := c.db.Collection(trialName).FindOne(ctx, filter).Decode(&trial)
	if err != nil {
		return nil, err
	}
	return trial, nil
}

func (c *trialDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Trial, error) {
	var trials []models.Trial
	curr, err := c.db.Collection(trialName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &trials)
	if err != nil {
		return nil, err
	}
	return trials, nil
}

func (c *trialDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(trialName).CountDocuments(ctx, filter, opts...)
}

func (c *trialDatabase) GetTrial(ctx context.Context, id primitive.ObjectID) (*models.Trial, error) {
	trial := &models.Trial{}
	err := c.db.Collection(trialName).FindOne(ctx, bson.M{"_id": id}).Decode(&trial)
	if err != nil {
		return nil, notFound(err, "trial", id.Hex())
	}
	return trial, nil
}

func (c *trialDatabase) GetTrialByCase(ctx context.Context, caseID primitive.ObjectID) (*models.Trial, error) {
	trial := &models.Trial{}
	err := c.db.Collection(trialName).FindOne(ctx, bson.M{"trial.caseID": caseID}).Decode(&trial)
	if err != nil {
		return nil, notFound(err, "trial for case", caseID.Hex())
	}
	return trial, nil
}

func (c *trialDatabase) PutTrial(ctx context.Context, doc *models.Trial) error {
	return c.db.Collection(trialName).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, upsert())
}

func (c *trialDatabase) AddSentence(ctx context.Context, s models.Sentence) error {
	_, err := c.db.Collection(sentenceName).InsertOne(ctx, s)
	return err
}

func (c *trialDatabase) ListSentencesByTrial(ctx context.Context, trialID primitive.ObjectID) ([]models.Sentence, error) {
	var sentences []models.Sentence
	curr, err := c.db.Collection(sentenceName).Find(ctx, bson.M{"sentence.trialID": trialID},
		options.Find().SetSort(bson.M{"sentence.createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &sentences)
	if err != nil {
		return nil, err
	}
	return sentences, nil
}
