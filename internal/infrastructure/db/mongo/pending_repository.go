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

// PendingRepository implements ports.PendingRegistrationRepository using MongoDB.
type PendingRepository struct {
	col *mongo.Collection
}

func NewPendingRepository(db *mongo.Database) *PendingRepository {
	return &PendingRepository{col: db.Collection(collectionPending)}
}

type pendingDoc struct {
	ID               primitive.ObjectID `bson:"_id,omitempty"`
	Username         string             `bson:"username"`
	Email            string             `bson:"email"`
	PasswordHash     string             `bson:"password_hash"`
	VerifyCode       string             `bson:"verify_code"`
	VerifyCodeExpiry time.Time          `bson:"verify_code_expiry"`
	CreatedAt        time.Time          `bson:"created_at"`
}

func toPendingDoc(p *domain.PendingRegistration) pendingDoc {
	return pendingDoc{
		Username:         p.Username,
		Email:            p.Email,
		PasswordHash:     p.PasswordHash,
		VerifyCode:       p.VerifyCode,
		VerifyCodeExpiry: p.VerifyCodeExpiry.UTC(),
		CreatedAt:        p.CreatedAt.UTC(),
	}
}

func (d pendingDoc) toDomain() *domain.PendingRegistration {
	return &domain.PendingRegistration{
		Username:         d.Username,
		Email:            d.Email,
		PasswordHash:     d.PasswordHash,
		VerifyCode:       d.VerifyCode,
		VerifyCodeExpiry: d.VerifyCodeExpiry.UTC(),
		CreatedAt:        d.CreatedAt.UTC(),
	}
}

func (r *PendingRepository) Create(ctx context.Context, p *domain.PendingRegistration) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	if _, err := r.col.InsertOne(ctx, toPendingDoc(p)); err != nil {
		if dup := duplicateKey(err); dup != nil {
			return dup
		}
		return fmt.Errorf("insert pending registration: %w", err)
	}
	return nil
}

func (r *PendingRepository) FindByUsername(ctx context.Context, username string) (*domain.PendingRegistration, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d pendingDoc
	if err := r.col.FindOne(ctx, bson.M{"username": username}).Decode(&d); err != nil {
		if notFound(err) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("find pending registration: %w", err)
	}
	return d.toDomain(), nil
}

func (r *PendingRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	return r.exists(ctx, bson.M{"username": username})
}

func (r *PendingRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	return r.exists(ctx, bson.M{"email": email})
}

func (r *PendingRepository) exists(ctx context.Context, filter bson.M) (bool, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	n, err := r.col.CountDocuments(ctx, filter, options.Count().SetLimit(1))
	if err != nil {
		return false, fmt.Errorf("count pending registrations: %w", err)
	}
	return n > 0, nil
}

func (r *PendingRepository) UpdateCode(ctx context.Context, username, code string, expiry time.Time) error {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.UpdateOne(ctx,
		bson.M{"username": username},
		bson.M{"$set": bson.M{"verify_code": code, "verify_code_expiry": expiry.UTC()}},
	)
	if err != nil {
		return fmt.Errorf("update verification code: %w", err)
	}
	if res.MatchedCount == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

// Claim deletes the record only when username and code both match, so a
// code replaced by a concurrent resend cannot be claimed.
func (r *PendingRepository) Claim(ctx context.Context, username, code string) (*domain.PendingRegistration, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	var d pendingDoc
	err := r.col.FindOneAndDelete(ctx, bson.M{"username": username, "verify_code": code}).Decode(&d)
	if err != nil {
		if notFound(err) {
			return nil, domain.ErrDocumentNotFound
		}
		return nil, fmt.Errorf("claim pending registration: %w", err)
	}
	return d.toDomain(), nil
}

// EnsureIndexes creates the unique username and email indexes.
func (r *PendingRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexUniqueUsername)},
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName(indexUniqueEmail)},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
