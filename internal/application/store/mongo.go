package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"researchmatch/internal/application/models"
	projectmodels "researchmatch/internal/project/models"
	"researchmatch/pkg/platform/sentinel"
)

const ledgersCollection = "application_ledgers"

// Mongo is the document-database ApplicationStore.
type Mongo struct {
	coll *mongo.Collection
}

var _ ApplicationStore = (*Mongo)(nil)

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{coll: db.Collection(ledgersCollection)}
}

func (s *Mongo) Create(ctx context.Context, ledger *models.Ledger) error {
	if ledger.ID.IsZero() {
		ledger.ID = bson.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, ledger)
	return err
}

func (s *Mongo) FindByID(ctx context.Context, id bson.ObjectID) (*models.Ledger, error) {
	var ledger models.Ledger
	err := s.coll.FindOne(ctx, bson.M{"_id": id}).Decode(&ledger)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ledger, nil
}

func (s *Mongo) AppendEntry(ctx context.Context, ledgerID bson.ObjectID, entry models.Entry) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": ledgerID},
		bson.M{"$push": bson.M{"applications": entry}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Mongo) RemoveEntry(ctx context.Context, ledgerID, entryID bson.ObjectID) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": ledgerID},
		bson.M{"$pull": bson.M{"applications": bson.M{"_id": entryID}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	if res.ModifiedCount == 0 {
		return sentinel.ErrNoChange
	}
	return nil
}

func (s *Mongo) SetEntryStatus(ctx context.Context, ledgerID, entryID bson.ObjectID, status projectmodels.Status) error {
	filter := bson.M{"_id": ledgerID, "applications": bson.M{"$elemMatch": bson.M{"_id": entryID}}}
	res, err := s.coll.UpdateOne(ctx, filter,
		bson.M{"$set": bson.M{"applications.$.status": status}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNoChange
	}
	return nil
}
