package databases_test

import (
	"context"
	"testing"

	cerrors "github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/parsaivi/police-department-api/databases"
	"github.com/parsaivi/police-department-api/databases/mocks"
	"github.com/parsaivi/police-department-api/models"
	"github.com/parsaivi/police-department-api/workflow"
)

func TestEvidenceDatabase_GetEvidence(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var srHelperMissing databases.SingleResultHelper
	var srHelperCorrect databases.SingleResultHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	srHelperMissing = &mocks.SingleResultHelper{}
	srHelperCorrect = &mocks.SingleResultHelper{}

	srHelperMissing.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(mongo.ErrNoDocuments)

	evidenceID := primitive.NewObjectID()
	missingID := primitive.NewObjectID()
	srHelperCorrect.(*mocks.SingleResultHelper).
		On("Decode", mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(0).(**models.Evidence)
		(*arg).ID = evidenceID
		(*arg).Details.Type = models.EvidenceBiological
	})

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"_id": missingID}).
		Return(srHelperMissing)

	collectionHelper.(*mocks.CollectionHelper).
		On("FindOne", context.Background(), bson.M{"_id": evidenceID}).
		Return(srHelperCorrect)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "evidence").Return(collectionHelper)

	evidenceDba := databases.NewEvidenceDatabase(dbHelper)

	ev, err := evidenceDba.GetEvidence(context.Background(), missingID)
	assert.Empty(t, ev)
	assert.True(t, cerrors.Is(err, workflow.ErrNotFound))

	ev, err = evidenceDba.GetEvidence(context.Background(), evidenceID)
	assert.NoError(t, err)
	assert.Equal(t, evidenceID, ev.ID)
	assert.Equal(t, models.EvidenceBiological, ev.Details.Type)
}

func TestEvidenceDatabase_PutEvidence(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	e := &models.Evidence{ID: primitive.NewObjectID()}
	collectionHelper.(*mocks.CollectionHelper).
		On("ReplaceOne", context.Background(), bson.M{"_id": e.ID}, e, mock.Anything).
		Return(nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "evidence").Return(collectionHelper)

	evidenceDba := databases.NewEvidenceDatabase(dbHelper)

	assert.NoError(t, evidenceDba.PutEvidence(context.Background(), e))
}

func TestEvidenceDatabase_ListEvidenceByCase(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper
	var cursorHelper databases.CursorHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}
	cursorHelper = &mocks.CursorHelper{}

	caseID := primitive.NewObjectID()
	evidenceID := primitive.NewObjectID()
	cursorHelper.(*mocks.CursorHelper).
		On("All", context.Background(), mock.Anything).
		Return(nil).Run(func(args mock.Arguments) {
		arg := args.Get(1).(*[]models.Evidence)
		(*arg) = []models.Evidence{{ID: evidenceID}}
	})
	cursorHelper.(*mocks.CursorHelper).
		On("Close", context.Background()).
		Return(nil)

	collectionHelper.(*mocks.CollectionHelper).
		On("Find", context.Background(), bson.M{"evidence.caseID": caseID}).
		Return(cursorHelper, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "evidence").Return(collectionHelper)

	evidenceDba := databases.NewEvidenceDatabase(dbHelper)

	evidence, err := evidenceDba.ListEvidenceByCase(context.Background(), caseID)
	assert.NoError(t, err)
	assert.Equal(t, []models.Evidence{{ID: evidenceID}}, evidence)
}

func TestEvidenceDatabase_AddTestimony(t *testing.T) {
	var dbHelper databases.DatabaseHelper
	var collectionHelper databases.CollectionHelper

	dbHelper = &mocks.DatabaseHelper{}
	collectionHelper = &mocks.CollectionHelper{}

	tm := models.Testimony{ID: primitive.NewObjectID()}
	collectionHelper.(*mocks.CollectionHelper).
		On("InsertOne", context.Background(), tm).
		Return(nil, nil)

	dbHelper.(*mocks.DatabaseHelper).
		On("Collection", "testimonies").Return(collectionHelper)

	evidenceDba := databases.NewEvidenceDatabase(dbHelper)

	assert.NoError(t, evidenceDba.AddTestimony(context.Background(), tm))
}
