package store

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"researchmatch/internal/project/models"
	"researchmatch/pkg/platform/sentinel"
)

const ledgersCollection = "project_ledgers"

// Mongo is the document-database ProjectStore. Embedded entries are
// addressed with the positional operator; mirror refs two levels deep use
// array filters.
type Mongo struct {
	coll *mongo.Collection
}

var _ ProjectStore = (*Mongo)(nil)

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

func (s *Mongo) FindByIDs(ctx context.Context, ids []bson.ObjectID) ([]*models.Ledger, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"_id": bson.M{"$in": ids}})
	if err != nil {
		return nil, err
	}
	var ledgers []*models.Ledger
	if err := cursor.All(ctx, &ledgers); err != nil {
		return nil, err
	}
	return ledgers, nil
}

func (s *Mongo) AppendEntry(ctx context.Context, ledgerID bson.ObjectID, entry models.Entry) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": ledgerID},
		bson.M{"$push": bson.M{"projects": entry}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Mongo) UpdateEntry(ctx context.Context, ledgerID, entryID bson.ObjectID, update EntryUpdate) error {
	filter := bson.M{"_id": ledgerID, "projects": bson.M{"$elemMatch": bson.M{"_id": entryID}}}
	res, err := s.coll.UpdateOne(ctx, filter, bson.M{"$set": bson.M{
		"projects.$.name":         update.Name,
		"projects.$.description":  update.Description,
		"projects.$.questions":    update.Questions,
		"projects.$.requirements": update.Requirements,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNoChange
	}
	return nil
}

func (s *Mongo) RemoveEntry(ctx context.Context, ledgerID, entryID bson.ObjectID) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": ledgerID},
		bson.M{"$pull": bson.M{"projects": bson.M{"_id": entryID}}})
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

func (s *Mongo) PushApplicationRef(ctx context.Context, ledgerID, entryID bson.ObjectID, ref models.ApplicationRef) error {
	filter := bson.M{"_id": ledgerID, "projects": bson.M{"$elemMatch": bson.M{"_id": entryID}}}
	res, err := s.coll.UpdateOne(ctx, filter,
		bson.M{"$push": bson.M{"projects.$.applications": ref}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNoChange
	}
	return nil
}

func (s *Mongo) PullApplicationRef(ctx context.Context, ledgerID, entryID, applicationEntryID bson.ObjectID) error {
	filter := bson.M{"_id": ledgerID, "projects": bson.M{"$elemMatch": bson.M{"_id": entryID}}}
	res, err := s.coll.UpdateOne(ctx, filter, bson.M{
		"$pull": bson.M{"projects.$.applications": bson.M{"application_entry_id": applicationEntryID}},
	})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 || res.ModifiedCount == 0 {
		return sentinel.ErrNoChange
	}
	return nil
}

func (s *Mongo) SetApplicationRefStatus(ctx context.Context, ledgerID, entryID, applicationEntryID bson.ObjectID, status models.Status) error {
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": ledgerID},
		bson.M{"$set": bson.M{"projects.$[e].applications.$[a].status": status}},
		options.UpdateOne().SetArrayFilters([]interface{}{
			bson.M{"e._id": entryID},
			bson.M{"a.application_entry_id": applicationEntryID},
		}),
	)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 || res.ModifiedCount == 0 {
		return sentinel.ErrNoChange
	}
	return nil
}
