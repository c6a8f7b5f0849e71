package databases

// go generate: mockery --name ComplaintDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parsaivi/police-department-api/models"
)

const (
	complaintName        = "complaints"
	complaintHistoryName = "complaintHistory"
)

// ComplaintDatabase contains the methods to use with the complaint database
type ComplaintDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Complaint, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Complaint, error)
	InsertOne(context.Context, interface{}, ...*options.InsertOneOptions) (InsertOneResultHelper, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)

	GetComplaint(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error)
	PutComplaint(ctx context.Context, c *models.Complaint) error
	AppendComplaintHistory(ctx context.Context, h models.ComplaintHistory) error
	ListComplaintHistory(ctx context.Context, complaintID primitive.ObjectID) ([]models.ComplaintHistory, error)
}

type complaintDatabase struct {
	db DatabaseHelper
}

// NewComplaintDatabase initializes a new instance of complaint database with the provided db connection
func NewComplaintDatabase(db DatabaseHelper) ComplaintDatabase {
	return &complaintDatabase{
		db: db,
	}
}

func (c *complaintDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Complaint, error) {
	complaint := &models.Complaint{}
	err := c.db.Collection(complaintName).FindOne(ctx, filter).Decode(&complaint)
	if err != nil {
		return nil, err
	}
	return complaint, nil
}

func (c *complaintDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Complaint, error) {
	var complaints []models.Complaint
	curr, err := c.db.Collection(complaintName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &complaints)
	if err != nil {
		return nil, err
	}
	return complaints, nil
}

func (c *complaintDatabase) InsertOne(ctx context.Context, document interface{}, opts ...*options.InsertOneOptions) (InsertOneResultHelper, error) {
	res, err := c.db.Collection(complaintName).InsertOne(ctx, document, opts...)
	return res, err
}

func (c *complaintDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(complaintName).CountDocuments(ctx, filter, opts...)
}

func (c *complaintDatabase) GetComplaint(ctx context.Context, id primitive.ObjectID) (*models.Complaint, error) {
	complaint := &models.Complaint{}
	err := c.db.Collection(complaintName).FindOne(ctx, bson.M{"_id": id}).Decode(&complaint)
	if err != nil {
		return nil, notFound(err, "complaint", id.Hex())
	}
	return complaint, nil
}

func (c *complaintDatabase) PutComplaint(ctx context.Context, doc *models.Complaint) error {
	return c.db.Collection(complaintName).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, upsert())
}

func (c *complaintDatabase) AppendComplaintHistory(ctx context.Context, h models.ComplaintHistory) error {
	_, err := c.db.Collection(complaintHistoryName).InsertOne(ctx, h)
	return err
}

func (c *complaintDatabase) ListComplaintHistory(ctx context.Context, complaintID primitive.ObjectID) ([]models.ComplaintHistory, error) {
	var history []models.ComplaintHistory
	curr, err := c.db.Collection(complaintHistoryName).Find(ctx, bson.M{"complaintID": complaintID},
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
