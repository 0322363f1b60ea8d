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

// MessageRepository implements ports.MessageRepository using MongoDB.
type MessageRepository struct {
	col *mongo.Collection
}

func NewMessageRepository(db *mongo.Database) *MessageRepository {
	return &MessageRepository{col: db.Collection(collectionMessages)}
}

type messageDoc struct {
	ID          primitive.ObjectID `bson:"_id"`
	RecipientID primitive.ObjectID `bson:"recipient_id"`
	Content     string             `bson:"content"`
	CreatedAt   time.Time          `bson:"created_at"`
	IsHarmful   bool               `bson:"is_harmful"`
}

func (d messageDoc) toDomain() *domain.Message {
	return &domain.Message{
		ID:          d.ID.Hex(),
		RecipientID: d.RecipientID.Hex(),
		Content:     d.Content,
		CreatedAt:   d.CreatedAt.UTC(),
		IsHarmful:   d.IsHarmful,
	}
}

// Create inserts m and assigns its ID.
func (r *MessageRepository) Create(ctx context.Context, m *domain.Message) error {
	rid, err := primitive.ObjectIDFromHex(m.RecipientID)
	if err != nil {
		return fmt.Errorf("insert message: invalid recipient id %q", m.RecipientID)
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	doc := messageDoc{
		ID:          primitive.NewObjectID(),
		RecipientID: rid,
		Content:     m.Content,
		CreatedAt:   m.CreatedAt.UTC(),
		IsHarmful:   m.IsHarmful,
	}
	if _, err := r.col.InsertOne(ctx, doc); err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	m.ID = doc.ID.Hex()
	return nil
}

// FindByIDs returns the matching messages sorted by created_at descending.
// Unknown or malformed IDs are skipped.
func (r *MessageRepository) FindByIDs(ctx context.Context, ids []string) ([]*domain.Message, error) {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	if len(oids) == 0 {
		return []*domain.Message{}, nil
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	cur, err := r.col.Find(ctx,
		bson.M{"_id": bson.M{"$in": oids}},
		options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}),
	)
	if err != nil {
		return nil, fmt.Errorf("find messages: %w", err)
	}
	defer cur.Close(ctx)

	var docs []messageDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode messages: %w", err)
	}

	out := make([]*domain.Message, len(docs))
	for i, d := range docs {
		out[i] = d.toDomain()
	}
	return out, nil
}

func (r *MessageRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return domain.ErrDocumentNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	res, err := r.col.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return fmt.Errorf("delete message: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrDocumentNotFound
	}
	return nil
}

func (r *MessageRepository) Count(ctx context.Context) (int64, error) {
	ctx, cancel := context.WithTimeout(ctx, defaultTimeout)
	defer cancel()

	return r.col.CountDocuments(ctx, bson.D{})
}

// FindUnlinked joins each message against its recipient and keeps those whose
// recipient is missing or does not list the message.
func (r *MessageRepository) FindUnlinked(ctx context.Context, olderThan time.Time, limit int) ([]domain.UnlinkedMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"created_at": bson.M{"$lt": olderThan.UTC()}}}},
		{{Key: "$lookup", Value: bson.M{
			"from": collectionAccounts,
			"let":  bson.M{"mid": "$_id", "rid": "$recipient_id"},
			"pipeline": bson.A{
				bson.M{"$match": bson.M{"$expr": bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$_id", "$$rid"}},
					bson.M{"$in": bson.A{"$$mid", bson.M{"$ifNull": bson.A{"$messages", bson.A{}}}}},
				}}}},
				bson.M{"$project": bson.M{"_id": 1}},
			},
			"as": "owner",
		}}},
		{{Key: "$match", Value: bson.M{"owner": bson.M{"$size": 0}}}},
		{{Key: "$limit", Value: limit}},
		{{Key: "$project", Value: bson.M{"_id": 1, "recipient_id": 1}}},
	}

	cur, err := r.col.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, fmt.Errorf("find unlinked messages: %w", err)
	}
	defer cur.Close(ctx)

	var rows []struct {
		ID          primitive.ObjectID `bson:"_id"`
		RecipientID primitive.ObjectID `bson:"recipient_id"`
	}
	if err := cur.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("decode unlinked messages: %w", err)
	}

	out := make([]domain.UnlinkedMessage, len(rows))
	for i, row := range rows {
		out[i] = domain.UnlinkedMessage{MessageID: row.ID.Hex(), RecipientID: row.RecipientID.Hex()}
	}
	return out, nil
}

// EnsureIndexes creates indexes for per-recipient lookups and the reconciler scan.
func (r *MessageRepository) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, indexTimeout)
	defer cancel()

	indexes := []mongo.IndexModel{
		{Keys: bson.D{{Key: "recipient_id", Value: 1}, {Key: "created_at", Value: -1}}},
		{Keys: bson.D{{Key: "created_at", Value: 1}}},
	}

	_, err := r.col.Indexes().CreateMany(ctx, indexes)
	return err
}
