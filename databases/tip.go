package databases

// go generate: mockery --name TipDatabase

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parsaivi/police-department-api/models"
)

const (
	tipName        = "tips"
	rewardCodeName = "rewardCodes"
)

// TipDatabase contains the methods to use with the tip database
type TipDatabase interface {
	FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Tip, error)
	Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Tip, error)
	CountDocuments(context.Context, interface{}, ...*options.CountOptions) (int64, error)

	GetTip(ctx context.Context, id primitive.ObjectID) (*models.Tip, error)
	PutTip(ctx context.Context, t *models.Tip) error
	GetRewardCode(ctx context.Context, code string) (*models.RewardCode, error)
	PutRewardCode(ctx context.Context, rc *models.RewardCode) error
	ListExpiredUnclaimedCodes(ctx context.Context, cutoff primitive.DateTime) ([]models.RewardCode, error)
}

type tipDatabase struct {
	db DatabaseHelper
}

// NewTipDatabase initializes a new instance of tip database with the provided db connection
func NewTipDatabase(db DatabaseHelper) TipDatabase {
	return &tipDatabase{
		db: db,
	}
}

func (c *tipDatabase) FindOne(ctx context.Context, filter interface{}, opts ...*options.FindOneOptions) (*models.Tip, error) {
	tip := &models.Tip{}
	err := c.db.Collection(tipName).FindOne(ctx, filter).Decode(&tip)
	if err != nil {
		return nil, err
	}
	return tip, nil
}

func (c *tipDatabase) Find(ctx context.Context, filter interface{}, opts ...*options.FindOptions) ([]models.Tip, error) {
	var tips []models.Tip
	curr, err := c.db.Collection(tipName).Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &tips)
	if err != nil {
		return nil, err
	}
	return tips, nil
}

func (c *tipDatabase) CountDocuments(ctx context.Context, filter interface{}, opts ...*options.CountOptions) (int64, error) {
	return c.db.Collection(tipName).CountDocuments(ctx, filter, opts...)
}

func (c *tipDatabase) GetTip(ctx context.Context, id primitive.ObjectID) (*models.Tip, error) {
	tip := &models.Tip{}
	err := c.db.Collection(tipName).FindOne(ctx, bson.M{"_id": id}).Decode(&tip)
	if err != nil {
		return nil, notFound(err, "tip", id.Hex())
	}
	return tip, nil
}

func (c *tipDatabase) PutTip(ctx context.Context, doc *models.Tip) error {
	return c.db.Collection(tipName).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, upsert())
}

func (c *tipDatabase) GetRewardCode(ctx context.Context, code string) (*models.RewardCode, error) {
	rc := &models.RewardCode{}
	err := c.db.Collection(rewardCodeName).FindOne(ctx, bson.M{"rewardCode.code": code}).Decode(&rc)
	if err != nil {
		return nil, notFound(err, "reward code", code)
	}
	return rc, nil
}

func (c *tipDatabase) PutRewardCode(ctx context.Context, doc *models.RewardCode) error {
	return c.db.Collection(rewardCodeName).ReplaceOne(ctx, bson.M{"_id": doc.ID}, doc, upsert())
}

// ListExpiredUnclaimedCodes feeds the scheduler's expiry sweep.
func (c *tipDatabase) ListExpiredUnclaimedCodes(ctx context.Context, cutoff primitive.DateTime) ([]models.RewardCode, error) {
	var codes []models.RewardCode
	curr, err := c.db.Collection(rewardCodeName).Find(ctx, bson.M{
		"rewardCode.claimed":   false,
		"rewardCode.expiresAt": bson.M{"$lt": cutoff, "$gt": 0},
	})
	if err != nil {
		return nil, err
	}
	defer curr.Close(ctx)
	err = curr.All(ctx, &codes)
	if err != nil {
		return nil, err
	}
	return codes, nil
}
