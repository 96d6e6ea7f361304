package store

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"researchmatch/internal/account/models"
	projectmodels "researchmatch/internal/project/models"
	"researchmatch/pkg/platform/sentinel"
)

const accountsCollection = "accounts"

// Mongo is the document-database AccountStore. All writes are single-document
// $set/$push/$pull updates, atomic at document granularity.
type Mongo struct {
	coll *mongo.Collection
}

var _ AccountStore = (*Mongo)(nil)

func NewMongo(db *mongo.Database) *Mongo {
	return &Mongo{coll: db.Collection(accountsCollection)}
}

// EnsureIndexes creates the unique email index. Call once at startup.
func (s *Mongo) EnsureIndexes(ctx context.Context) error {
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return err
}

func (s *Mongo) Create(ctx context.Context, account *models.Account) error {
	if account.ID.IsZero() {
		account.ID = bson.NewObjectID()
	}
	_, err := s.coll.InsertOne(ctx, account)
	if mongo.IsDuplicateKeyError(err) {
		return sentinel.ErrConflict
	}
	return err
}

func (s *Mongo) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

func (s *Mongo) FindByID(ctx context.Context, id bson.ObjectID) (*models.Account, error) {
	return s.findOne(ctx, bson.M{"_id": id})
}

func (s *Mongo) findOne(ctx context.Context, filter bson.M) (*models.Account, error) {
	var acc models.Account
	err := s.coll.FindOne(ctx, filter).Decode(&acc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &acc, nil
}

func (s *Mongo) Delete(ctx context.Context, email string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"email": email})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Mongo) PushRefreshToken(ctx context.Context, email string, tok models.RefreshToken) error {
	return s.updateByEmail(ctx, email, bson.M{"$push": bson.M{"security.tokens": tok}}, true)
}

func (s *Mongo) PullRefreshToken(ctx context.Context, email, token string) error {
	update := bson.M{"$pull": bson.M{"security.tokens": bson.M{"refresh_token": token}}}
	return s.updateByEmail(ctx, email, update, true)
}

func (s *Mongo) ConfirmEmail(ctx context.Context, email string) error {
	update := bson.M{"$set": bson.M{"email_confirmed": true, "email_token": nil}}
	return s.updateByEmail(ctx, email, update, true)
}

func (s *Mongo) SetPasswordResetTicket(ctx context.Context, email string, ticket *models.PasswordResetTicket) error {
	update := bson.M{"$set": bson.M{"security.password_reset": ticket}}
	// No-op on a missing account: the reset endpoint must not leak whether
	// an email is registered.
	return s.updateByEmail(ctx, email, update, false)
}

func (s *Mongo) CommitPasswordReset(ctx context.Context, email, pendingHash string) error {
	update := bson.M{"$set": bson.M{
		"password":                pendingHash,
		"security.password_reset": nil,
	}}
	return s.updateByEmail(ctx, email, update, true)
}

func (s *Mongo) ClearPasswordResetTicket(ctx context.Context, email string) error {
	return s.updateByEmail(ctx, email, bson.M{"$set": bson.M{"security.password_reset": nil}}, true)
}

func (s *Mongo) SetEmailChangeTicket(ctx context.Context, email string, ticket *models.EmailChangeTicket) error {
	return s.updateByEmail(ctx, email, bson.M{"$set": bson.M{"security.change_email": ticket}}, true)
}

func (s *Mongo) CommitEmailChange(ctx context.Context, email, pendingEmail string) error {
	update := bson.M{"$set": bson.M{
		"email":                 pendingEmail,
		"security.change_email": nil,
	}}
	err := s.updateByEmail(ctx, email, update, true)
	if mongo.IsDuplicateKeyError(err) {
		return sentinel.ErrConflict
	}
	return err
}

func (s *Mongo) ClearEmailChangeTicket(ctx context.Context, email string) error {
	return s.updateByEmail(ctx, email, bson.M{"$set": bson.M{"security.change_email": nil}}, true)
}

func (s *Mongo) SetProjectRef(ctx context.Context, accountID bson.ObjectID, bucket projectmodels.Bucket, ledgerID bson.ObjectID) error {
	var field string
	switch bucket {
	case projectmodels.BucketDraft:
		field = "faculty.projects.draft"
	case projectmodels.BucketActive:
		field = "faculty.projects.active"
	case projectmodels.BucketArchived:
		field = "faculty.projects.archived"
	default:
		return fmt.Errorf("unknown bucket %q", bucket)
	}
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": accountID}, bson.M{"$set": bson.M{field: ledgerID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Mongo) SetApplicationRef(ctx context.Context, accountID, ledgerID bson.ObjectID) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": accountID},
		bson.M{"$set": bson.M{"student.applications": ledgerID}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Mongo) updateByEmail(ctx context.Context, email string, update bson.M, requireMatch bool) error {
	res, err := s.coll.UpdateOne(ctx, bson.M{"email": email}, update)
	if err != nil {
		return err
	}
	if requireMatch && res.MatchedCount == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}
