package databases

import (
	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/parsaivi/police-department-api/workflow"
)

type mongoPaginate struct {
	limit int64
	page  int64
}

func newMongoPaginate(limit, page int) *mongoPaginate {
	return &mongoPaginate{
		limit: int64(limit),
		page:  int64(page),
	}
}

func (mp *mongoPaginate) getPaginatedOpts() *options.FindOptions {
	l := mp.limit
	skip := mp.page*mp.limit - mp.limit
	fOpt := options.FindOptions{Limit: &l, Skip: &skip}

	return &fOpt
}

// notFound converts the driver's no-documents error into the workflow's
// typed kind so callers can match with errors.Is.
func notFound(err error, entity, id string) error {
	if errors.Is(err, mongo.ErrNoDocuments) {
		return errors.Wrapf(workflow.ErrNotFound, "%s %s", entity, id)
	}
	return err
}

func upsert() *options.ReplaceOptions {
	return options.Replace().SetUpsert(true)
}
