package databases

// go generate: mockery --name EvidenceDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parsaivi/police-department-api/models"
)

const (
	evidenceName  = "evidence"
	testimonyName = "testimonies"
)

// EvidenceDatabase contains the methods to use with the evidence database
type EvidenceDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Evidence, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Evidence, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)

	GetEvidence(ctx context.Context, id primitive.ObjectID) (*models.Evidence, error)
	PutEvidence(ctx context.Context, e *models.Evidence) error
	ListEvidenceByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.Evidence, error)
	AddTestimony(ctx context.Context, tm models.Testimony) error
	ListTestimoniesByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.Testimony, error)
}

type evidenceDatabase struct {
	db DatabaseHelper
}

// NewEvidenceDatabase initializes a new instance of evidence database with the provided db connection
func NewEvidenceDatabase(db DatabaseHelper) EvidenceDatabase {
	return &evidenceDatabase{
		db: db,
	}
}

func (c *evidenceDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Evidence, error) {
	evidence := &models.Evidence{}
	err := c.db.Collection(evidenceName).FindOne(ctx, filter).Decode(&evidence)
	if err != nil {
		return nil, err
	}
	return evidence, nil
}

func (c *evidenceDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Evidence, error) {
	var evidence []models.Evidence
	curr, err := c.db.Collection(evidenceName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &evidence)
	if err != nil {
		return nil, err
	}
	return evidence, nil
}

func (c *evidenceDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(evidenceName).CountDocuments(ctx, filter, opts...)
}

func (c *evidenceDatabase) GetEvidence(ctx context.Context, id primitive.ObjectID) (*models.Evidence, error) {
	evidence := &models.Evidence{}
	err := c.db.Collection(evidenceName).FindOne(ctx, bson.M{"_id": id}).Decode(&evidence)
	if err != nil {
		return nil, notFound(err, "evidence", id.Hex())
	}
	return evidence, nil
}

func (c *evidenceDatabase) PutEvidence(ctx context.Context, doc *models.Evidence) error {
	return c.db.Collection(evidenceName).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, upsert())
}

func (c *evidenceDatabase) ListEvidenceByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.Evidence, error) {
	return c.Find(ctx, bson.M{"evidence.caseID": caseID})
}

func (c *evidenceDatabase) AddTestimony(ctx context.Context, tm models.Testimony) error {
	_, err := c.db.Collection(testimonyName).InsertOne(ctx, tm)
	return err
}

func (c *evidenceDatabase) ListTestimoniesByCase(ctx context.Context, caseID primitive.ObjectID) ([]models.Testimony, error) {
	var testimonies []models.Testimony
	curr, err := c.db.Collection(testimonyName).Find(ctx, bson.M{"testimony.caseID": caseID})
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &testimonies)
	if err != nil {
		return nil, err
	}
	return testimonies, nil
}
