package databases

// go generate: mockery --name CaseDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parsaivi/police-department-api/models"
)

const (
	caseName        = "cases"
	caseHistoryName = "caseHistory"
	witnessName     = "crimeSceneWitnesses"
)

// CaseDatabase contains the methods to use with the case database
type CaseDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Case, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)

	GetCase(ctx context.Context, id primitive.ObjectID) (*models.Case, error)
	PutCase(ctx context.Context, c *models.Case) error
	AppendCaseHistory(ctx context.Context, h models.CaseHistory) error
	ListCaseHistory(ctx context.Context, caseID primitive.ObjectID) ([]models.CaseHistory, error)
	AddWitness(ctx context.Context, w models.CrimeSceneWitness) error
	ListWitnesses(ctx context.Context, caseID primitive.ObjectID) ([]models.CrimeSceneWitness, error)
}

type caseDatabase struct {
	db DatabaseHelper
}

// NewCaseDatabase initializes a new instance of case database with the provided db connection
func NewCaseDatabase(db DatabaseHelper) CaseDatabase {
	return &caseDatabase{
		db: db,
	}
}

func (c *caseDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Case, error) {
	caseDoc := &models.Case{}
	err := c.db.Collection(caseName).FindOne(ctx, filter).Decode(&caseDoc)
	if err != nil {
		return nil, err
	}
	return caseDoc, nil
}

func (c *caseDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Case, error) {
	var cases []models.Case
	curr, err := c.db.Collection(caseName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &cases)
	if err != nil {
		return nil, err
	}
	return cases, nil
}

func (c *caseDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(caseName).InsertOne(ctx, document, opts...)
	return res, err
}

func (c *caseDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(caseName).CountDocuments(ctx, filter, opts...)
}

func (c *caseDatabase) GetCase(ctx context.Context, id primitive.ObjectID) (*models.Case, error) {
	caseDoc := &models.Case{}
	err := c.db.Collection(caseName).FindOne(ctx, bson.M{"_id": id}).Decode(&caseDoc)
	if err != nil {
		return nil, notFound(err, "case", id.Hex())
	}
	return caseDoc, nil
}

func (c *caseDatabase) PutCase(ctx context.Context, doc *models.Case) error {
	return c.db.Collection(caseName).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, upsert())
}

func (c *caseDatabase) AppendCaseHistory(ctx context.Context, h models.CaseHistory) error {
	_, err := c.db.Collection(caseHistoryName).InsertOne(ctx, h)
	return err
}

func (c *caseDatabase) ListCaseHistory(ctx context.Context, caseID primitive.ObjectID) ([]models.CaseHistory, error) {
	var history []models.CaseHistory
	curr, err := c.db.Collection(caseHistoryName).Find(ctx, bson.M{"caseID": caseID},
		options.Find().SetSort(bson.M{"createdAt": 1}))
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &history)
	if err != nil {
		return nil, err
	}
	return history, nil
}

func (c *caseDatabase) AddWitness(ctx context.Context, w models.CrimeSceneWitness) error {
	_, err := c.db.Collection(witnessName).InsertOne(ctx, w)
	return err
}

func (c *caseDatabase) ListWitnesses(ctx context.Context, caseID primitive.ObjectID) ([]models.CrimeSceneWitness, error) {
	var witnesses []models.CrimeSceneWitness
	curr, err := c.db.Collection(witnessName).Find(ctx, bson.M{"witness.caseID": caseID})
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &witnesses)
	if err != nil {
		return nil, err
	}
	return witnesses, nil
}
