package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/whisperbox/whisperbox-api/internal/core/domain"
)

// AccountRepository implements ports.AccountRepository using MongoDB.
// Message references are stored as an array of ObjectIDs on the account.
type AccountRepository struct {
	col *mongo.Collection
}

func NewAccountRepository(db *mongo.Database) *AccountRepository {
	return &AccountRepository{col: db.Collection(collectionAccounts)}
}

type accountDoc struct {
	ID                  primitive.ObjectID   `bson:"_id,omitempty"`
	Username            string               `bson:"username"`
	Email               string               `bson:"email"`
	PasswordHash        string               `bson:"password_hash"`
	IsAcceptingMessages bool                 `bson:"is_accepting_messages"`
	Messages            []primitive.ObjectID `bson:"messages"`
	CreatedAt           time.Time            `bson:"created_at"`
}

func (d accountDoc) toDomain() *domain.Account {
	ids := make([]string, len(d.Messages))
	for i, id := range d.Messages {
		ids[i] = id.Hex()
	}
	return &domain.Account{
		ID:                  d.ID.Hex(),
		Username:            d.Username,
		Email:               d.Email,
		PasswordHash:        d.PasswordHash,
		IsAcceptingMessages: d.IsAcceptingMessages,
		MessageIDs:          ids,
		CreatedAt:           d.CreatedAt.UTC(),
	}
}

func (r *AccountRepository) Create(ctx context.Context, a *domain.Account) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := accountDoc{
		ID:                  primitive.NewObjectID(),
		Username:            a.Username,
		Email:               a.Email,
		PasswordHash:        a.PasswordHash,
		IsAcceptingMessages: a.IsAcceptingMessages,
		Messages:            []primitive.ObjectID{},
		CreatedAt:           a.CreatedAt.UTC(),
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		if dup := duplicateKey(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("insert account: %w", err)
	}
	return doc.toDomain(), nil
}

func (r *AccountRepository) FindByID(ctx context.Context, id string) (*domain.Account, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return nil, domain.ErrDocumentNotFound
	}
	return r.findOne(ctx, bson.M{"_id": oid})
}

func (r *AccountRepository) FindByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"username": username})
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.findOne(ctx, bson.M{"email": email})
}

func (r *AccountRepository) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d accountDoc
	if err := r.col.FindOne(ctx, filter).Decode(&d); err != nil {
		if notFound(err) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return d.toDomain(), nil
}

func (r *AccountRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, bson.M{"username": username})
}

func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

func (r *AccountRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count accounts: %w", err)
	}
	return n > 0, nil
}

// LinkMessage uses $addToSet so a retried link never duplicates the reference.
func (r *AccountRepository) LinkMessage(ctx context.Context, accountID, messageID string) error {
	aid, mid, err := parseIDs(accountID, messageID)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": aid}, bson.M{"$addToSet": bson.M{"messages": mid}})
	if err != nil {
		return fmt.Errorf("link message: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *AccountRepository) UnlinkMessage(ctx context.Context, accountID, messageID string) (bool, error) {
	aid, mid, err := parseIDs(accountID, messageID)
	if err != nil {
		return false, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"_id": aid, "messages": mid},
		bson.M{"$pull": bson.M{"messages": mid}},
	)
	if err != nil {
		return false, fmt.Errorf("unlink message: %w", err)
	}
	return res.ModifiedCount > 0, nil
}

func (r *AccountRepository) SetAcceptingMessages(ctx context.Context, accountID string, accepting bool) error {
	aid, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return domain.ErrDocumentNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx, bson.M{"_id": aid}, bson.M{"$set": bson.M{"is_accepting_messages": accepting}})
	if err != nil {
		return fmt.Errorf("update acceptance: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *AccountRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.D{})
}

// EnsureIndexes creates the unique username and email indexes.
func (r *AccountRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexUniqueUsername)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexUniqueEmail)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}

func parseIDs(accountID, messageID string) (primitive.ObjectID, primitive.ObjectID, error) {
	aid, err := primitive.ObjectIDFromHex(accountID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, domain.ErrDocumentNotFound
	}
	mid, err := primitive.ObjectIDFromHex(messageID)
	if err != nil {
		return primitive.NilObjectID, primitive.NilObjectID, domain.ErrDocumentNotFound
	}
	return aid, mid, nil
}
